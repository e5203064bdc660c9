// Package openai implements qa.Answerer on top of an OpenAI compatible chat
// completion endpoint (OpenAI, vLLM, LM Studio, Ollama). The model is
// instructed to copy the answer span verbatim; the span is then located in
// the context to produce offsets.
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/rhuss/qaserve/pkg/api"
	"github.com/rhuss/qaserve/pkg/debug"
	"github.com/rhuss/qaserve/pkg/qa"
)

const backendName = "openai"

// Config holds configuration for the OpenAI backend.
type Config struct {
	// BaseURL overrides the API base, including the /v1 suffix
	// (e.g. "http://localhost:8000/v1"). Empty means api.openai.com.
	BaseURL string

	// APIKey for bearer authentication. Local servers accept any value.
	APIKey string

	// Model is the chat model name. Required.
	Model string

	// Timeout for individual HTTP requests. Defaults to 120s.
	Timeout time.Duration
}

// Client implements qa.Answerer using go-openai.
type Client struct {
	client     *goopenai.Client
	httpClient *http.Client
	model      string
}

var _ qa.Answerer = (*Client)(nil)

// New creates a Client with the given configuration.
func New(cfg Config) (*Client, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("openai: Model is required")
	}
	if cfg.APIKey == "" {
		cfg.APIKey = "not-needed"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}

	httpClient := &http.Client{Timeout: cfg.Timeout}
	oaiCfg := goopenai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oaiCfg.BaseURL = cfg.BaseURL
	}
	oaiCfg.HTTPClient = httpClient

	return &Client{
		client:     goopenai.NewClientWithConfig(oaiCfg),
		httpClient: httpClient,
		model:      cfg.Model,
	}, nil
}

// Name returns the backend identifier.
func (c *Client) Name() string { return backendName }

// Answer asks the chat model for the answer span and locates it in passage.
func (c *Client) Answer(ctx context.Context, question, passage string) (*api.AnswerResult, error) {
	resp, err := c.client.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model: c.model,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleSystem, Content: qa.ExtractiveInstruction},
			{Role: goopenai.ChatMessageRoleUser, Content: qa.ExtractivePrompt(question, passage)},
		},
		Temperature: 0,
		ResponseFormat: &goopenai.ChatCompletionResponseFormat{
			Type: goopenai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return nil, mapError(err)
	}
	if len(resp.Choices) == 0 {
		return nil, qa.ErrNoAnswer
	}

	content := resp.Choices[0].Message.Content
	debug.Log("backend", "openai reply", "model", resp.Model, "content", debug.Truncate(content, 200))

	out, err := qa.ParseModelAnswer(content)
	if err != nil {
		return nil, err
	}
	return qa.ResultFromText(passage, out.Answer, out.Score)
}

// mapError converts go-openai errors into qa.BackendError.
func mapError(err error) error {
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		return &qa.BackendError{
			Backend:    backendName,
			StatusCode: apiErr.HTTPStatusCode,
			Message:    apiErr.Message,
			Err:        err,
		}
	}
	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) {
		return &qa.BackendError{
			Backend:    backendName,
			StatusCode: reqErr.HTTPStatusCode,
			Message:    reqErr.Error(),
			Err:        err,
		}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return qa.NetworkError(backendName, err)
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}
