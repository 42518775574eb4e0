package app

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/klabast/wb-services/task-calendar/internal/storage"
	"github.com/klabast/wb-services/task-calendar/internal/tasks"
)

func TestRequestID(t *testing.T) {
	var logs bytes.Buffer
	logger := log.New(&logs)
	srv, err := NewServer(ServerConfig{
		Store:  tasks.NewStore(storage.NewMemoryBackend(), logger),
		Logger: logger,
		Now:    func() time.Time { return fixedNow },
	})
	if err != nil {
		t.Fatalf("NewServer() failed: %v", err)
	}
	h := srv.Handler()

	t.Run("generated", func(t *testing.T) {
		w := do(t, h, "GET", "/tasks", "")
		id := w.Header().Get(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			t.Fatalf("Expected a UUID request id, got %q", id)
		}
		if !strings.Contains(logs.String(), id) {
			t.Errorf("Request id %s not logged: %s", id, logs.String())
		}
	})

	t.Run("reused", func(t *testing.T) {
		want := uuid.NewString()
		req := httptest.NewRequest("GET", "/tasks", nil)
		req.Header.Set(RequestIDHeader, want)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		if got := w.Header().Get(RequestIDHeader); got != want {
			t.Errorf("Request id = %q, want %q", got, want)
		}
	})

	t.Run("invalid client id replaced", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/tasks", nil)
		req.Header.Set(RequestIDHeader, "not-a-uuid")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		if got := w.Header().Get(RequestIDHeader); got == "not-a-uuid" {
			t.Error("Invalid client request id should be replaced")
		}
	})
}

func TestCORS(t *testing.T) {
	h, backend := newTestServer(t, nil)

	req := httptest.NewRequest("OPTIONS", "/api/tasks", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("Preflight status = %d, want 204", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Allow-Origin = %q, want *", got)
	}
	if got := w.Header().Get("Access-Control-Allow-Methods"); !strings.Contains(got, "DELETE") {
		t.Errorf("Allow-Methods = %q", got)
	}
	if backend.Saves() != 0 {
		t.Error("Preflight must not reach the handlers")
	}

	w = do(t, h, "GET", "/tasks", "")
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Allow-Origin on GET = %q, want *", got)
	}
	if got := w.Header().Get("Access-Control-Expose-Headers"); got != RequestIDHeader {
		t.Errorf("Expose-Headers = %q", got)
	}
}
