package webhooks_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dejobratic/catalog/internal/idempotency"
	"github.com/dejobratic/catalog/internal/metrics"
	"github.com/dejobratic/catalog/internal/webhooks"
)

func newWebhookServer(t *testing.T) *httptest.Server {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	service := webhooks.NewService(
		idempotency.NewMemoryStore(),
		&recordingBus{},
		&recordingInvalidator{},
		metrics.NewRegistry(),
		logger,
		24*time.Hour,
	)

	mux := http.NewServeMux()
	webhooks.NewHandler(service).Register(mux)

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func postWebhook(t *testing.T, url, body string) (int, map[string]any) {
	t.Helper()

	resp, err := http.Post(url+"/v1/webhooks", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	var decoded map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	return resp.StatusCode, decoded
}

func TestWebhookEndpoint(t *testing.T) {
	server := newWebhookServer(t)

	payload := `{"event_id":"e1","event_type":"product.updated","timestamp":"2026-03-01T12:00:00Z","data":{"product_id":"prod-1"}}`

	t.Run("first delivery processed", func(t *testing.T) {
		status, body := postWebhook(t, server.URL, payload)
		if status != http.StatusOK {
			t.Fatalf("expected 200, got %d", status)
		}
		if body["status"] != "processed" {
			t.Errorf("expected processed, got %v", body["status"])
		}
		if body["event_id"] != "e1" {
			t.Errorf("expected event_id e1, got %v", body["event_id"])
		}
	})

	t.Run("redelivery acknowledged as duplicate", func(t *testing.T) {
		status, body := postWebhook(t, server.URL, payload)
		if status != http.StatusOK {
			t.Fatalf("expected 200, got %d", status)
		}
		if body["status"] != "duplicate" {
			t.Errorf("expected duplicate, got %v", body["status"])
		}
	})

	t.Run("malformed JSON is 400", func(t *testing.T) {
		status, body := postWebhook(t, server.URL, `{"event_id":`)
		if status != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", status)
		}
		if body["error"] != "invalid JSON payload" {
			t.Errorf("unexpected error message: %v", body["error"])
		}
	})

	t.Run("missing required fields is 400", func(t *testing.T) {
		status, body := postWebhook(t, server.URL, `{"timestamp":"2026-03-01T12:00:00Z"}`)
		if status != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", status)
		}
		if body["error"] == nil {
			t.Error("expected error message in body")
		}
	})

	t.Run("get is 405", func(t *testing.T) {
		resp, err := http.Get(server.URL + "/v1/webhooks")
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusMethodNotAllowed {
			t.Errorf("expected 405, got %d", resp.StatusCode)
		}
	})
}
