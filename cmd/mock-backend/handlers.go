package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// --- Hugging Face pipeline ---

type pipelineRequest struct {
	Inputs struct {
		Question string `json:"question"`
		Context  string `json:"context"`
	} `json:"inputs"`
}

type pipelineResponse struct {
	Answer string  `json:"answer"`
	Score  float64 `json:"score"`
	Start  int     `json:"start"`
	End    int     `json:"end"`
}

func handlePipeline(w http.ResponseWriter, r *http.Request) {
	var req pipelineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request: " + err.Error()})
		return
	}

	s, ok := pickSpan(req.Inputs.Question, req.Inputs.Context)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "context contains no words"})
		return
	}
	writeJSON(w, http.StatusOK, pipelineResponse(s))
}

// --- qna-transformers ---

type answersRequest struct {
	Text     string `json:"text"`
	Question string `json:"question"`
}

type answersResponse struct {
	answersRequest
	Answer    *string  `json:"answer"`
	Certainty *float64 `json:"certainty"`
}

func handleAnswers(w http.ResponseWriter, r *http.Request) {
	var req answersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
		return
	}

	resp := answersResponse{answersRequest: req}
	if s, ok := pickSpan(req.Question, req.Text); ok {
		resp.Answer = &s.Answer
		resp.Certainty = &s.Score
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- OpenAI chat completions ---

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	ID      string       `json:"id"`
	Object  string       `json:"object"`
	Created int64        `json:"created"`
	Model   string       `json:"model"`
	Choices []chatChoice `json:"choices"`
}

type chatChoice struct {
	Index        int         `json:"index"`
	Message      chatMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

func handleChatCompletions(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error": map[string]string{"message": "invalid request", "type": "invalid_request_error"},
		})
		return
	}

	question, passage, ok := parsePrompt(lastUserMessage(req.Messages))
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error": map[string]string{"message": "expected a Context/Question prompt", "type": "invalid_request_error"},
		})
		return
	}

	answer := map[string]any{"answer": "", "score": 0.0}
	if s, ok := pickSpan(question, passage); ok {
		answer = map[string]any{"answer": s.Answer, "score": s.Score}
	}
	content, _ := json.Marshal(answer)

	model := req.Model
	if model == "" {
		model = "mock-model"
	}
	writeJSON(w, http.StatusOK, chatResponse{
		ID:      fmt.Sprintf("chatcmpl-mock-%d", time.Now().UnixNano()),
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Model:   model,
		Choices: []chatChoice{{
			Message:      chatMessage{Role: "assistant", Content: string(content)},
			FinishReason: "stop",
		}},
	})
}

func lastUserMessage(msgs []chatMessage) string {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == "user" {
			return msgs[i].Content
		}
	}
	return ""
}

// parsePrompt splits a "Context:\n...\n\nQuestion: ..." user message.
func parsePrompt(msg string) (question, passage string, ok bool) {
	rest, ok := strings.CutPrefix(msg, "Context:\n")
	if !ok {
		return "", "", false
	}
	i := strings.LastIndex(rest, "\n\nQuestion: ")
	if i < 0 {
		return "", "", false
	}
	return rest[i+len("\n\nQuestion: "):], rest[:i], true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
