// Package mcp exposes the question answering capability as a Model Context
// Protocol tool served over streamable HTTP.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/rhuss/qaserve/pkg/api"
	"github.com/rhuss/qaserve/pkg/observability"
	"github.com/rhuss/qaserve/pkg/transport"
)

// ToolName is the name of the question answering tool.
const ToolName = "answer_question"

// Input is the argument object of the answer_question tool.
type Input struct {
	Question string `json:"question" jsonschema:"the question to answer"`
	Context  string `json:"context" jsonschema:"the passage that contains the answer"`
}

// Config configures the MCP server.
type Config struct {
	// Endpoint is the path the server is mounted on. It labels the
	// correct_http_requests counter. Default: "/mcp".
	Endpoint string

	// Version is reported in the server implementation info.
	Version string
}

// NewServer returns an MCP server with the answer_question tool. Every
// successful call increments correct_http_requests for cfg.Endpoint.
func NewServer(h transport.QueryHandler, m *observability.Metrics, cfg Config) *sdk.Server {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "/mcp"
	}
	if cfg.Version == "" {
		cfg.Version = "dev"
	}
	if m == nil {
		m = observability.Discard()
	}

	server := sdk.NewServer(&sdk.Implementation{Name: "qaserve", Version: cfg.Version}, nil)

	sdk.AddTool(server, &sdk.Tool{
		Name: ToolName,
		Description: "Extracts the answer to a question from a context passage. " +
			"Returns the answer span, a confidence score and its character offsets in the context.",
	}, func(ctx context.Context, _ *sdk.CallToolRequest, in Input) (*sdk.CallToolResult, api.AnswerResult, error) {
		res, err := h.HandleQuery(ctx, &api.AnswerQuery{Question: in.Question, Context: in.Context})
		if err != nil {
			return nil, api.AnswerResult{}, err
		}
		if res == nil {
			return nil, api.AnswerResult{}, errors.New("backend returned no result")
		}

		text, err := json.Marshal(res)
		if err != nil {
			return nil, api.AnswerResult{}, fmt.Errorf("encoding result: %w", err)
		}

		m.RecordCorrect(cfg.Endpoint)
		return &sdk.CallToolResult{
			Content: []sdk.Content{&sdk.TextContent{Text: string(text)}},
		}, *res, nil
	})

	return server
}

// Handler serves server over the streamable HTTP transport.
func Handler(server *sdk.Server) http.Handler {
	return sdk.NewStreamableHTTPHandler(func(*http.Request) *sdk.Server {
		return server
	}, nil)
}
