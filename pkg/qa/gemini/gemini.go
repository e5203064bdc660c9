// Package gemini implements qa.Answerer using the Google Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/rhuss/qaserve/pkg/api"
	"github.com/rhuss/qaserve/pkg/debug"
	"github.com/rhuss/qaserve/pkg/qa"
)

const backendName = "gemini"

// Config holds configuration for the Gemini backend.
type Config struct {
	APIKey string
	Model  string

	// Endpoint overrides the API endpoint. Used for tests and proxies.
	Endpoint string
}

// Client implements qa.Answerer. The underlying genai client is created once
// and shared across requests.
type Client struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

var _ qa.Answerer = (*Client)(nil)

// New creates a Client. The context is only used for client construction.
func New(ctx context.Context, cfg Config) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("gemini: APIKey is required")
	}
	modelName := strings.TrimSpace(cfg.Model)
	if modelName == "" {
		return nil, errors.New("gemini: Model is required")
	}

	opts := []option.ClientOption{option.WithAPIKey(apiKey)}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}
	cl, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gemini: creating client: %w", err)
	}

	m := cl.GenerativeModel(modelName)
	m.GenerationConfig = genai.GenerationConfig{
		Temperature:      ptrFloat32(0),
		ResponseMIMEType: "application/json",
	}
	m.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(qa.ExtractiveInstruction)},
	}

	return &Client{client: cl, model: m}, nil
}

// Name returns the backend identifier.
func (c *Client) Name() string { return backendName }

// Answer asks Gemini for the answer span and locates it in passage.
func (c *Client) Answer(ctx context.Context, question, passage string) (*api.AnswerResult, error) {
	resp, err := c.model.GenerateContent(ctx, genai.Text(qa.ExtractivePrompt(question, passage)))
	if err != nil {
		return nil, mapError(err)
	}

	txt := firstText(resp)
	if txt == "" {
		return nil, qa.ErrNoAnswer
	}
	debug.Log("backend", "gemini reply", "content", debug.Truncate(txt, 200))

	out, err := qa.ParseModelAnswer(txt)
	if err != nil {
		return nil, err
	}
	return qa.ResultFromText(passage, out.Answer, out.Score)
}

// Close releases the genai client.
func (c *Client) Close() error {
	return c.client.Close()
}

func mapError(err error) error {
	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		return &qa.BackendError{
			Backend:    backendName,
			StatusCode: gErr.Code,
			Message:    gErr.Message,
			Err:        err,
		}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return qa.NetworkError(backendName, err)
}

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	for _, c := range resp.Candidates {
		if c.Content == nil {
			continue
		}
		for _, p := range c.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				return string(t)
			}
		}
	}
	return ""
}

func ptrFloat32(v float32) *float32 { return &v }
