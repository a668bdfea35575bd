package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jwebster45206/adventure-engine/internal/storage"
)

func TestHealthHandler(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		handler := NewHealthHandler(storage.NewMockStorage(), testLogger())

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d", rr.Code)
		}

		var resp HealthResponse
		if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
		if resp.Status != "ok" || resp.Storage != "ok" {
			t.Errorf("Expected ok/ok, got %s/%s", resp.Status, resp.Storage)
		}
	})

	t.Run("storage unavailable", func(t *testing.T) {
		store := storage.NewMockStorage()
		store.PingErr = errors.New("connection refused")
		handler := NewHealthHandler(store, testLogger())

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		if rr.Code != http.StatusServiceUnavailable {
			t.Fatalf("Expected 503, got %d", rr.Code)
		}

		var resp HealthResponse
		if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
		if resp.Status != "degraded" || resp.Storage != "unavailable" {
			t.Errorf("Expected degraded/unavailable, got %s/%s", resp.Status, resp.Storage)
		}
	})

	t.Run("method not allowed", func(t *testing.T) {
		handler := NewHealthHandler(storage.NewMockStorage(), testLogger())

		req := httptest.NewRequest(http.MethodPost, "/health", nil)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		if rr.Code != http.StatusMethodNotAllowed {
			t.Errorf("Expected 405, got %d", rr.Code)
		}
	})
}
