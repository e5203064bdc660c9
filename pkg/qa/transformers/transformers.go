// Package transformers implements qa.Answerer against a qna-transformers
// inference container, the extractive QA sidecar used by vector databases.
//
// Request:  POST {URL}/answers/ {"text": "...", "question": "..."}
// Response: {"text": "...", "question": "...", "answer": "...", "certainty": 0.8}
//
// The container returns only the answer text, so offsets are recovered by
// locating the answer in the context.
package transformers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rhuss/qaserve/pkg/api"
	"github.com/rhuss/qaserve/pkg/qa"
)

const backendName = "transformers"

// Config holds configuration for the transformers backend.
type Config struct {
	// URL is the container origin, e.g. "http://qna-transformers:8080".
	URL string

	// Timeout for individual HTTP requests. Defaults to 120s.
	Timeout time.Duration
}

// Client implements qa.Answerer for qna-transformers containers.
type Client struct {
	endpoint string
	client   *http.Client
}

var _ qa.Answerer = (*Client)(nil)

// New creates a Client for the container at cfg.URL.
func New(cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("transformers: URL is required")
	}
	endpoint, err := url.JoinPath(cfg.URL, "/answers/")
	if err != nil {
		return nil, fmt.Errorf("transformers: invalid URL: %w", err)
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}

	return &Client{
		endpoint: endpoint,
		client:   &http.Client{Timeout: cfg.Timeout},
	}, nil
}

type answersInput struct {
	Text     string `json:"text"`
	Question string `json:"question"`
}

type answersResponse struct {
	answersInput
	Answer    *string  `json:"answer"`
	Certainty *float64 `json:"certainty"`
	Error     string   `json:"error,omitempty"`
}

// Name returns the backend identifier.
func (c *Client) Name() string { return backendName }

// Answer sends the passage and question to the container and maps its
// answer text back to a span of the passage.
func (c *Client) Answer(ctx context.Context, question, passage string) (*api.AnswerResult, error) {
	body, err := json.Marshal(answersInput{Text: passage, Question: question})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.client.Do(req)
	if err != nil {
		return nil, qa.NetworkError(backendName, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, qa.HTTPError(backendName, res)
	}

	var out answersResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("parsing backend response: %w", err)
	}
	if out.Error != "" {
		return nil, &qa.BackendError{Backend: backendName, StatusCode: res.StatusCode, Message: out.Error}
	}
	if out.Answer == nil {
		return nil, qa.ErrNoAnswer
	}

	var score float64
	if out.Certainty != nil {
		score = *out.Certainty
	}
	return qa.ResultFromText(passage, *out.Answer, score)
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.client.CloseIdleConnections()
	return nil
}
