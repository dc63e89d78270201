package infra

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRootStatus(t *testing.T) {
	h := New(time.Now())

	rec := httptest.NewRecorder()
	h.RootStatus(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp["name"] != "grokway" || resp["api"] != "/v1" {
		t.Errorf("unexpected status %v", resp)
	}
}

func TestHealthCheck(t *testing.T) {
	h := New(time.Now().Add(-90 * time.Second))

	rec := httptest.NewRecorder()
	h.HealthCheck(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected application/json, got %q", ct)
	}
	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp["status"] != "active" {
		t.Errorf("expected active, got %v", resp["status"])
	}
	if resp["uptime"] != "1m30s" {
		t.Errorf("expected uptime 1m30s, got %v", resp["uptime"])
	}
}
