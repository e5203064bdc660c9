package api

import (
	"errors"
	"strings"
	"testing"
)

func TestDecodeQuery(t *testing.T) {
	q, err := DecodeQuery(strings.NewReader(`{"question":"What is the capital of France?","context":"Paris is the capital of France."}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.Question != "What is the capital of France?" {
		t.Errorf("Question = %q", q.Question)
	}
	if q.Context != "Paris is the capital of France." {
		t.Errorf("Context = %q", q.Context)
	}
}

func TestDecodeQueryAcceptsEmptyStringsAndExtraFields(t *testing.T) {
	q, err := DecodeQuery(strings.NewReader("{\"question\":\"\",\"context\":\"\",\"top_k\":3}\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.Question != "" || q.Context != "" {
		t.Errorf("expected empty fields, got %+v", q)
	}
}

func TestDecodeQueryMissingFields(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantField string
	}{
		{"missing question", `{"context":"Paris is the capital of France."}`, `"question"`},
		{"missing context", `{"question":"What is the capital of France?"}`, `"context"`},
		{"null question", `{"question":null,"context":"x"}`, `"question"`},
		{"empty object", `{}`, `"question"`},
		{"json null", `null`, `"question"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeQuery(strings.NewReader(tt.body))
			if !errors.Is(err, ErrMissingField) {
				t.Fatalf("expected ErrMissingField, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.wantField) {
				t.Errorf("error %q does not name %s", err.Error(), tt.wantField)
			}
		})
	}
}

func TestDecodeQueryMalformed(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `question=what`},
		{"empty body", ``},
		{"array", `[]`},
		{"wrong type", `{"question":42,"context":"x"}`},
		{"trailing object", `{"question":"q","context":"c"}{}`},
		{"truncated", `{"question":"q",`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeQuery(strings.NewReader(tt.body))
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if errors.Is(err, ErrMissingField) {
				t.Errorf("malformed body reported as missing field: %v", err)
			}
			if err.Error() == "" {
				t.Error("expected non-empty error message")
			}
		})
	}
}
