package integration

import (
	"net/http"
	"strings"
	"testing"
)

func TestHealthEndpoint(t *testing.T) {
	resp := getURL(t, testEnv.APIURL+"/healthz")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}

	body := readBody(t, resp)
	if !strings.Contains(body, "ok") {
		t.Errorf("body = %q, want to contain 'ok'", body)
	}
}

func TestMetricsOnlyOnMetricsListener(t *testing.T) {
	before := correctCount(t)
	readBody(t, postJSON(t, map[string]string{
		"question": "What is the capital of France?",
		"context":  "Paris is the capital of France.",
	}))
	waitForCount(t, before+1)

	resp := getURL(t, testEnv.APIURL+"/metrics")
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("API listener /metrics: expected 404, got %d", resp.StatusCode)
	}

	resp = getURL(t, testEnv.MetricsURL)
	body := readBody(t, resp)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("metrics listener: expected 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(body, "# TYPE correct_http_requests counter") {
		t.Errorf("metrics body does not describe correct_http_requests:\n%s", body)
	}
}
