package qa

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode"
)

// ExtractiveInstruction is the system prompt used by generative backends to
// behave like an extractive reader.
const ExtractiveInstruction = `You are an extractive question answering model.
Given a context passage and a question, select the shortest contiguous span of the context that answers the question.
Copy the span character for character from the context. Never paraphrase, translate, or add words.
Return STRICT JSON: {"answer": string, "score": number}
where score is your confidence between 0 and 1.`

// ExtractivePrompt renders the user message for a generative backend.
func ExtractivePrompt(question, passage string) string {
	return fmt.Sprintf("Context:\n%s\n\nQuestion: %s", passage, question)
}

// ModelAnswer is the JSON object generative backends are asked to return.
type ModelAnswer struct {
	Answer string  `json:"answer"`
	Score  float64 `json:"score"`
}

// ParseModelAnswer decodes a generative backend reply. Markdown code fences
// around the JSON are tolerated.
func ParseModelAnswer(text string) (*ModelAnswer, error) {
	text = StripCodeFences(text)
	if text == "" {
		return nil, ErrNoAnswer
	}

	var out ModelAnswer
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		return nil, fmt.Errorf("parsing model reply: %w", err)
	}
	if strings.TrimSpace(out.Answer) == "" {
		return nil, ErrNoAnswer
	}
	return &out, nil
}

// StripCodeFences removes a surrounding ```json ... ``` block.
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimSuffix(strings.TrimPrefix(s, "```"), "```")

	// Drop a language tag such as "json" on the opening fence line.
	tag := s
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		tag = s[:nl]
	}
	if t := strings.TrimSpace(tag); t != "" && strings.IndexFunc(t, func(r rune) bool {
		return !unicode.IsLetter(r)
	}) < 0 {
		s = s[len(tag):]
	}
	return strings.TrimSpace(s)
}
