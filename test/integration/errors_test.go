package integration

import (
	"net/http"
	"strings"
	"testing"
)

func TestQAFailures(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantBody string
	}{
		{
			name:     "invalid JSON",
			body:     `{invalid json`,
			wantBody: "invalid",
		},
		{
			name:     "missing question",
			body:     `{"context":"Paris is the capital of France."}`,
			wantBody: "question",
		},
		{
			name:     "missing context",
			body:     `{"question":"What is the capital of France?"}`,
			wantBody: "context",
		},
		{
			name:     "null field",
			body:     `{"question":null,"context":"Paris."}`,
			wantBody: "question",
		},
		{
			name:     "backend unavailable",
			body:     `{"question":"` + failQuestion + `","context":"Yes it is."}`,
			wantBody: "503",
		},
		{
			name:     "answer outside context",
			body:     `{"question":"What is the capital of France?","context":"Berlin is the capital of Germany."}`,
			wantBody: "422",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := correctCount(t)

			resp := postQA(t, tt.body)
			body := readBody(t, resp)

			if resp.StatusCode != http.StatusInternalServerError {
				t.Errorf("status = %d, want 500 (body %q)", resp.StatusCode, body)
			}
			if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
				t.Errorf("Content-Type = %q, want text/plain", ct)
			}
			if !strings.Contains(body, tt.wantBody) {
				t.Errorf("body = %q, want to contain %q", body, tt.wantBody)
			}
			if after := correctCount(t); after != before {
				t.Errorf("correct_http_requests changed from %v to %v on failure", before, after)
			}
		})
	}
}

func TestQAMethodNotAllowed(t *testing.T) {
	resp := getURL(t, testEnv.APIURL+"/qa")
	resp.Body.Close()

	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("GET /qa: expected 405, got %d", resp.StatusCode)
	}
}
