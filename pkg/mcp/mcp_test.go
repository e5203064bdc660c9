package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/rhuss/qaserve/pkg/api"
	"github.com/rhuss/qaserve/pkg/observability"
	"github.com/rhuss/qaserve/pkg/qa"
	"github.com/rhuss/qaserve/pkg/transport"
)

func connect(t *testing.T, server *sdk.Server) *sdk.ClientSession {
	t.Helper()
	ctx := context.Background()
	serverTransport, clientTransport := sdk.NewInMemoryTransports()

	go func() {
		_ = server.Run(ctx, serverTransport)
	}()

	client := sdk.NewClient(&sdk.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	t.Cleanup(func() { _ = session.Close() })
	return session
}

func textOf(t *testing.T, res *sdk.CallToolResult) string {
	t.Helper()
	if len(res.Content) == 0 {
		t.Fatal("empty tool result")
	}
	tc, ok := res.Content[0].(*sdk.TextContent)
	if !ok {
		t.Fatalf("content is %T, want *TextContent", res.Content[0])
	}
	return tc.Text
}

func TestAnswerQuestion(t *testing.T) {
	m := observability.Discard()
	h := transport.Backend(qa.AnswerFunc(func(_ context.Context, _, passage string) (*api.AnswerResult, error) {
		return qa.ResultFromText(passage, "Paris", 0.9)
	}))
	session := connect(t, NewServer(h, m, Config{}))

	res, err := session.CallTool(context.Background(), &sdk.CallToolParams{
		Name: ToolName,
		Arguments: map[string]any{
			"question": "What is the capital of France?",
			"context":  "Paris is the capital of France.",
		},
	})
	if err != nil {
		t.Fatalf("CallTool: %v", err)
	}
	if res.IsError {
		t.Fatalf("tool error: %s", textOf(t, res))
	}

	var got api.AnswerResult
	if err := json.Unmarshal([]byte(textOf(t, res)), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := api.AnswerResult{Answer: "Paris", Score: 0.9, Start: 0, End: 5}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}

	if n := testutil.ToFloat64(m.CorrectRequests.WithLabelValues("/mcp")); n != 1 {
		t.Errorf("correct_http_requests{endpoint=/mcp} = %v, want 1", n)
	}
	if n := testutil.ToFloat64(m.CorrectRequests.WithLabelValues("/qa")); n != 0 {
		t.Errorf("correct_http_requests{endpoint=/qa} = %v, want 0", n)
	}
}

func TestAnswerQuestion_BackendError(t *testing.T) {
	m := observability.Discard()
	h := transport.Backend(qa.AnswerFunc(func(context.Context, string, string) (*api.AnswerResult, error) {
		return nil, errors.New("model unavailable")
	}))
	session := connect(t, NewServer(h, m, Config{Endpoint: "/tools"}))

	res, err := session.CallTool(context.Background(), &sdk.CallToolParams{
		Name:      ToolName,
		Arguments: map[string]any{"question": "q", "context": "c"},
	})
	if err != nil {
		t.Fatalf("CallTool: %v", err)
	}
	if !res.IsError {
		t.Fatal("expected IsError result")
	}
	if n := testutil.ToFloat64(m.CorrectRequests.WithLabelValues("/tools")); n != 0 {
		t.Errorf("counter = %v after failure, want 0", n)
	}
}

func TestListTools(t *testing.T) {
	session := connect(t, NewServer(transport.Backend(qa.AnswerFunc(nil)), nil, Config{}))

	list, err := session.ListTools(context.Background(), nil)
	if err != nil {
		t.Fatalf("ListTools: %v", err)
	}
	if len(list.Tools) != 1 || list.Tools[0].Name != ToolName {
		t.Fatalf("tools = %+v", list.Tools)
	}
	if list.Tools[0].InputSchema == nil {
		t.Error("expected an input schema")
	}
}
