package app

import (
	"encoding/csv"
	"net/http"
	"strings"
	"testing"

	"github.com/klabast/wb-services/task-calendar/internal/tasks"
)

func seedExport(t *testing.T) http.Handler {
	t.Helper()
	h, _ := newTestServer(t, nil)
	for _, body := range []string{
		`{"date":"2025-01-20","task":"Call plumber"}`,
		`{"date":"2025-01-15","task":"Buy milk, eggs; bread"}`,
		`{"date":"2025-02-01","task":"Pay rent"}`,
		`{"date":"2024-12-31","task":"Party"}`,
	} {
		if w := do(t, h, "POST", "/tasks", body); w.Code != http.StatusCreated {
			t.Fatalf("Setup failed: %d %s", w.Code, w.Body.String())
		}
	}
	if w := do(t, h, "PUT", "/tasks/update", `{"date":"2025-01-20","taskIndex":0,"done":true}`); w.Code != http.StatusOK {
		t.Fatalf("Setup failed: %d", w.Code)
	}
	return h
}

func TestExportICS(t *testing.T) {
	h := seedExport(t)

	w := do(t, h, "GET", "/tasks/export?format=ics&year=2025&month=1&reminder=18:00&reminderDaysBefore=1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "text/calendar") {
		t.Errorf("Expected Content-Type text/calendar, got %s", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "tasks_2025-01.ics") {
		t.Errorf("Unexpected Content-Disposition: %s", cd)
	}

	body := w.Body.String()
	requiredFields := []string{
		"BEGIN:VCALENDAR\r\n",
		"VERSION:2.0",
		"PRODID:" + ICSProductID,
		"BEGIN:VTODO",
		"END:VTODO",
		"END:VCALENDAR\r\n",
		"DTSTAMP:20250615T093000Z",
		"UID:2025-01-15-0@task-calendar",
	}
	for _, field := range requiredFields {
		if !strings.Contains(body, field) {
			t.Errorf("ICS output missing required field: %q", field)
		}
	}

	// All-day: starts on the task date, due the next day
	if !strings.Contains(body, "DTSTART;VALUE=DATE:20250115") || !strings.Contains(body, "DUE;VALUE=DATE:20250116") {
		t.Error("Task should be an all-day entry on 2025-01-15")
	}
	if !strings.Contains(body, `SUMMARY:Buy milk\, eggs\; bread`) {
		t.Error("Summary should be escaped")
	}
	if strings.Contains(body, "Pay rent") || strings.Contains(body, "Party") {
		t.Error("Tasks outside January 2025 should not be exported")
	}
	if strings.Count(body, "BEGIN:VTODO") != 2 {
		t.Errorf("Expected 2 to-dos, got %d", strings.Count(body, "BEGIN:VTODO"))
	}

	// Only the open task gets a reminder
	if strings.Count(body, "BEGIN:VALARM") != 1 {
		t.Errorf("Expected 1 alarm, got %d", strings.Count(body, "BEGIN:VALARM"))
	}
	if !strings.Contains(body, "STATUS:COMPLETED") || !strings.Contains(body, "STATUS:NEEDS-ACTION") {
		t.Error("Expected both completed and open status")
	}
	// 18:00 the day before midnight is 6 hours earlier
	if !strings.Contains(body, "TRIGGER:-P0DT6H0M") {
		t.Error("Expected trigger -P0DT6H0M")
	}
}

func TestAddAlarm(t *testing.T) {
	date, _ := tasks.ParseDate("2025-01-15")

	tests := []struct {
		name        string
		daysBefore  int
		alarmTime   string
		wantTrigger string
	}{
		{name: "Two days before, evening", daysBefore: 2, alarmTime: "18:00", wantTrigger: "TRIGGER:-P1DT6H0M"},
		{name: "Same day, morning", daysBefore: 0, alarmTime: "07:30", wantTrigger: "TRIGGER:P0DT7H30M"},
		{name: "Invalid time", daysBefore: 0, alarmTime: "7pm", wantTrigger: ""},
		{name: "Hour out of range", daysBefore: 0, alarmTime: "25:00", wantTrigger: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf strings.Builder
			addAlarm(&icsWriter{w: &buf}, date, tt.daysBefore, tt.alarmTime, "Buy milk")

			if tt.wantTrigger == "" {
				if buf.Len() != 0 {
					t.Errorf("Expected no alarm, got %q", buf.String())
				}
				return
			}
			if !strings.Contains(buf.String(), tt.wantTrigger) {
				t.Errorf("Expected %s in %q", tt.wantTrigger, buf.String())
			}
		})
	}
}

func TestExportCSV(t *testing.T) {
	h := seedExport(t)

	w := do(t, h, "GET", "/tasks/export?format=csv&year=2025", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	records, err := csv.NewReader(strings.NewReader(w.Body.String())).ReadAll()
	if err != nil {
		t.Fatalf("Invalid CSV: %v", err)
	}
	want := [][]string{
		{"date", "index", "task", "done"},
		{"2025-01-15", "0", "Buy milk, eggs; bread", "false"},
		{"2025-01-20", "0", "Call plumber", "true"},
		{"2025-02-01", "0", "Pay rent", "false"},
	}
	if len(records) != len(want) {
		t.Fatalf("Expected %d rows, got %v", len(want), records)
	}
	for i := range want {
		if strings.Join(records[i], "|") != strings.Join(want[i], "|") {
			t.Errorf("Row %d = %v, want %v", i, records[i], want[i])
		}
	}
}

func TestExportJSON(t *testing.T) {
	h := seedExport(t)

	w := do(t, h, "GET", "/tasks/export?format=json", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "tasks.json") {
		t.Errorf("Unexpected Content-Disposition: %s", cd)
	}

	cal, err := tasks.DecodeDocument(w.Body.Bytes())
	if err != nil {
		t.Fatalf("Export is not a valid document: %v", err)
	}
	dates := cal.Dates()
	want := []string{"2024-12-31", "2025-01-15", "2025-01-20", "2025-02-01"}
	if strings.Join(dates, ",") != strings.Join(want, ",") {
		t.Errorf("Dates = %v, want sorted %v", dates, want)
	}
}

func TestExportBadRequests(t *testing.T) {
	h := seedExport(t)

	tests := []struct {
		query   string
		message string
	}{
		{"?format=pdf", MsgInvalidFormat},
		{"", MsgInvalidFormat},
		{"?format=csv&month=1", MsgInvalidYear},
		{"?format=csv&year=twenty", MsgInvalidYear},
		{"?format=csv&year=2025&month=13", MsgInvalidMonth},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			w := do(t, h, "GET", "/tasks/export"+tt.query, "")
			if w.Code != http.StatusBadRequest {
				t.Errorf("Expected status 400, got %d", w.Code)
			}
			if got := message(t, w); got != tt.message {
				t.Errorf("Expected %q, got %q", tt.message, got)
			}
		})
	}
}
