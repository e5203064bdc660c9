package huggingface

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rhuss/qaserve/pkg/api"
	"github.com/rhuss/qaserve/pkg/debug"
	"github.com/rhuss/qaserve/pkg/qa"
)

const backendName = "huggingface"

// Client implements qa.Answerer for Hugging Face question-answering endpoints.
type Client struct {
	cfg    Config
	client *http.Client
}

// Ensure Client implements qa.Answerer at compile time.
var _ qa.Answerer = (*Client)(nil)

// New creates a new Client with the given configuration.
// Returns an error if the configuration is invalid.
func New(cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("huggingface: URL is required")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}

	return &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// Name returns the backend identifier.
func (c *Client) Name() string {
	return backendName
}

// Answer asks the endpoint for the best span of passage answering question.
func (c *Client) Answer(ctx context.Context, question, passage string) (*api.AnswerResult, error) {
	reqBody := qaRequest{
		Inputs: qaInputs{Question: question, Context: passage},
	}
	if c.cfg.WaitForModel {
		reqBody.Options = &qaOptions{WaitForModel: true}
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating HTTP request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if c.cfg.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	debug.Trace("backend", "huggingface request", "url", c.cfg.URL, "body", string(body))

	httpResp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, qa.NetworkError(backendName, err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return nil, qa.HTTPError(backendName, httpResp)
	}

	var raw json.RawMessage
	if err := json.NewDecoder(httpResp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("parsing backend response: %w", err)
	}

	out, err := decodeAnswer(raw)
	if err != nil {
		return nil, err
	}

	if out.Start == nil || out.End == nil {
		// Offsets missing: recover them from the answer text.
		return qa.ResultFromText(passage, out.Answer, out.Score)
	}

	result := &api.AnswerResult{
		Answer: out.Answer,
		Score:  out.Score,
		Start:  *out.Start,
		End:    *out.End,
	}
	if err := qa.Validate(passage, result); err != nil {
		return nil, err
	}
	return result, nil
}

// decodeAnswer accepts either a single object or a non-empty array of
// objects and returns the top answer.
func decodeAnswer(raw json.RawMessage) (*qaResponse, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var list []qaResponse
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, fmt.Errorf("parsing backend response: %w", err)
		}
		if len(list) == 0 {
			return nil, qa.ErrNoAnswer
		}
		return &list[0], nil
	}

	var single qaResponse
	if err := json.Unmarshal(trimmed, &single); err != nil {
		return nil, fmt.Errorf("parsing backend response: %w", err)
	}
	return &single, nil
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.client.CloseIdleConnections()
	return nil
}
