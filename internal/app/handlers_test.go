package app

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/klabast/wb-services/task-calendar/internal/storage"
	"github.com/klabast/wb-services/task-calendar/internal/tasks"
)

var fixedNow = time.Date(2025, time.June, 15, 9, 30, 0, 0, time.UTC)

func newTestServer(t *testing.T, creds *Credentials) (http.Handler, *storage.MemoryBackend) {
	t.Helper()
	backend := storage.NewMemoryBackend()
	srv, err := NewServer(ServerConfig{
		Store:       tasks.NewStore(backend, nil),
		Credentials: creds,
		AllowOrigin: "*",
		Now:         func() time.Time { return fixedNow },
	})
	if err != nil {
		t.Fatalf("NewServer() failed: %v", err)
	}
	return srv.Handler(), backend
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func message(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp messageResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Response is not a message: %q", w.Body.String())
	}
	return resp.Message
}

func TestTaskLifecycle(t *testing.T) {
	for _, prefix := range []string{"", "/api"} {
		t.Run("prefix="+prefix, func(t *testing.T) {
			h, backend := newTestServer(t, nil)

			w := do(t, h, "POST", prefix+"/tasks", `{"date":"2025-01-10","task":"Buy milk"}`)
			if w.Code != http.StatusCreated {
				t.Fatalf("POST status = %d, body %s", w.Code, w.Body.String())
			}
			if got := message(t, w); got != MsgTaskAdded {
				t.Errorf("POST message = %q", got)
			}

			w = do(t, h, "POST", prefix+"/tasks", `{"date":"2025-01-10","task":"Walk dog"}`)
			var added messageResponse
			json.Unmarshal(w.Body.Bytes(), &added)
			if added.TaskIndex == nil || *added.TaskIndex != 1 {
				t.Errorf("Second task index = %v, want 1", added.TaskIndex)
			}

			w = do(t, h, "PUT", prefix+"/tasks/update", `{"date":"2025-01-10","taskIndex":0,"done":true}`)
			if w.Code != http.StatusOK || message(t, w) != MsgTaskUpdated {
				t.Fatalf("PUT update = %d %s", w.Code, w.Body.String())
			}

			w = do(t, h, "PUT", prefix+"/tasks/edit", `{"date":"2025-01-10","taskIndex":1,"newTaskText":"Walk the dog"}`)
			if w.Code != http.StatusOK || message(t, w) != MsgTaskEdited {
				t.Fatalf("PUT edit = %d %s", w.Code, w.Body.String())
			}

			w = do(t, h, "GET", prefix+"/tasks", "")
			if w.Code != http.StatusOK {
				t.Fatalf("GET status = %d", w.Code)
			}
			want := `{"2025-01-10":[{"task":"Buy milk","done":true},{"task":"Walk the dog","done":false}]}`
			if got := strings.TrimSpace(w.Body.String()); got != want {
				t.Errorf("GET body = %s, want %s", got, want)
			}
			if ct := w.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %s", ct)
			}

			for i := 0; i < 2; i++ {
				w = do(t, h, "DELETE", prefix+"/tasks/2025-01-10/0", "")
				if w.Code != http.StatusOK || message(t, w) != MsgTaskDeleted {
					t.Fatalf("DELETE = %d %s", w.Code, w.Body.String())
				}
			}

			w = do(t, h, "GET", prefix+"/tasks", "")
			if got := strings.TrimSpace(w.Body.String()); got != "{}" {
				t.Errorf("GET after deleting everything = %s, want {}", got)
			}
			if !bytes.Contains(backend.Bytes(), []byte("{}")) {
				t.Errorf("Stored document = %s", backend.Bytes())
			}
		})
	}
}

func TestMutationErrors(t *testing.T) {
	h, backend := newTestServer(t, nil)
	do(t, h, "POST", "/tasks", `{"date":"2025-01-10","task":"Buy milk"}`)
	before := backend.Bytes()

	tests := []struct {
		name        string
		method      string
		target      string
		body        string
		wantStatus  int
		wantMessage string
	}{
		{"Add invalid date", "POST", "/tasks", `{"date":"2025-02-30","task":"x"}`, http.StatusBadRequest, MsgInvalidDate},
		{"Add missing date", "POST", "/tasks", `{"task":"x"}`, http.StatusBadRequest, MsgInvalidDate},
		{"Add missing task", "POST", "/tasks", `{"date":"2025-01-10"}`, http.StatusBadRequest, MsgMissingRequired + ": task"},
		{"Add broken JSON", "POST", "/tasks", `{"date":`, http.StatusBadRequest, MsgInvalidBody},
		{"Update unknown date", "PUT", "/tasks/update", `{"date":"2025-01-11","taskIndex":0,"done":true}`, http.StatusNotFound, MsgTaskNotFound},
		{"Update index out of range", "PUT", "/tasks/update", `{"date":"2025-01-10","taskIndex":1,"done":true}`, http.StatusNotFound, MsgTaskNotFound},
		{"Update negative index", "PUT", "/tasks/update", `{"date":"2025-01-10","taskIndex":-1,"done":true}`, http.StatusNotFound, MsgTaskNotFound},
		{"Update missing done", "PUT", "/tasks/update", `{"date":"2025-01-10","taskIndex":0}`, http.StatusBadRequest, MsgMissingRequired + ": taskIndex, done"},
		{"Edit index out of range", "PUT", "/tasks/edit", `{"date":"2025-01-10","taskIndex":5,"newTaskText":"x"}`, http.StatusNotFound, MsgTaskNotFound},
		{"Edit missing text", "PUT", "/tasks/edit", `{"date":"2025-01-10","taskIndex":0}`, http.StatusBadRequest, MsgMissingRequired + ": taskIndex, newTaskText"},
		{"Delete unknown date", "DELETE", "/tasks/2025-01-11/0", "", http.StatusNotFound, MsgTaskNotFound},
		{"Delete index out of range", "DELETE", "/tasks/2025-01-10/3", "", http.StatusNotFound, MsgTaskNotFound},
		{"Delete non-numeric index", "DELETE", "/tasks/2025-01-10/first", "", http.StatusNotFound, MsgTaskNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, tt.method, tt.target, tt.body)
			if w.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d (%s)", tt.wantStatus, w.Code, w.Body.String())
			}
			if got := message(t, w); got != tt.wantMessage {
				t.Errorf("Expected message %q, got %q", tt.wantMessage, got)
			}
			if !bytes.Equal(backend.Bytes(), before) {
				t.Error("Stored document changed after a failed request")
			}
		})
	}
}

func TestStorageFailureIs500(t *testing.T) {
	h, backend := newTestServer(t, nil)
	backend.SaveErr = errors.New("read-only file system")

	w := do(t, h, "POST", "/tasks", `{"date":"2025-01-10","task":"Buy milk"}`)
	if w.Code != http.StatusInternalServerError {
		t.Errorf("Expected status 500, got %d", w.Code)
	}
	if got := message(t, w); got != MsgFailedToSave {
		t.Errorf("Expected message %q, got %q", MsgFailedToSave, got)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	h, _ := newTestServer(t, nil)

	w := do(t, h, "PATCH", "/tasks", `{}`)
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected status 405, got %d", w.Code)
	}
}

func TestGetMonth(t *testing.T) {
	h, _ := newTestServer(t, nil)
	for _, body := range []string{
		`{"date":"2025-07-01","task":"july"}`,
		`{"date":"2025-06-30","task":"june end"}`,
		`{"date":"2024-06-15","task":"last year"}`,
		`{"date":"2025-06-01","task":"june start"}`,
	} {
		if w := do(t, h, "POST", "/tasks", body); w.Code != http.StatusCreated {
			t.Fatalf("Setup failed: %d %s", w.Code, w.Body.String())
		}
	}

	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantDates  []string
	}{
		{"Explicit month", "?year=2025&month=6", http.StatusOK, []string{"2025-06-30", "2025-06-01"}},
		{"Defaults to current month", "", http.StatusOK, []string{"2025-06-30", "2025-06-01"}},
		{"Other year", "?year=2024&month=6", http.StatusOK, []string{"2024-06-15"}},
		{"Empty month", "?year=2025&month=2", http.StatusOK, nil},
		{"Month out of range", "?year=2025&month=13", http.StatusBadRequest, nil},
		{"Year not a number", "?year=abc&month=6", http.StatusBadRequest, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, "GET", "/tasks/month"+tt.query, "")
			if w.Code != tt.wantStatus {
				t.Fatalf("Expected status %d, got %d", tt.wantStatus, w.Code)
			}
			if tt.wantStatus != http.StatusOK {
				return
			}
			cal := tasks.NewCalendar()
			if err := json.Unmarshal(w.Body.Bytes(), cal); err != nil {
				t.Fatalf("Invalid body %s: %v", w.Body.String(), err)
			}
			got := cal.Dates()
			if len(got) != len(tt.wantDates) {
				t.Fatalf("Dates = %v, want %v", got, tt.wantDates)
			}
			for i := range got {
				if got[i] != tt.wantDates[i] {
					t.Errorf("Dates = %v, want %v", got, tt.wantDates)
				}
			}
		})
	}
}
