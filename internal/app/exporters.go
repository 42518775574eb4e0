package app

import (
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/klabast/wb-services/task-calendar/internal/tasks"
)

// ICS constants
const (
	ICSProductID = "-//Task Calendar//Tasks//EN"
	ICSUIDDomain = "task-calendar"
)

// HandleExport handles task downloads in ICS, CSV or JSON format.
// Query params: format, year (optional), month (optional, needs year),
// reminder (HH:MM, ICS only), reminderDaysBefore (ICS only)
func (s *Server) HandleExport(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format != "ics" && format != "csv" && format != "json" {
		writeMessage(w, s.logger, http.StatusBadRequest, MsgInvalidFormat)
		return
	}

	days, year, month, err := s.exportDays(r)
	if err != nil || (month != 0 && year == 0) {
		writeMessage(w, s.logger, http.StatusBadRequest, MsgInvalidYear)
		return
	}
	if month < 0 || month > 12 {
		writeMessage(w, s.logger, http.StatusBadRequest, MsgInvalidMonth)
		return
	}

	name := exportName(year, month)
	switch format {
	case "ics":
		s.GenerateICS(w, r, name, days)
	case "csv":
		s.GenerateCSV(w, name, days)
	case "json":
		s.GenerateJSON(w, name, days)
	}
}

func exportName(year, month int) string {
	switch {
	case year != 0 && month != 0:
		return fmt.Sprintf("tasks_%04d-%02d", year, month)
	case year != 0:
		return fmt.Sprintf("tasks_%04d", year)
	default:
		return "tasks"
	}
}

// GenerateICS writes the tasks as an iCalendar file of all-day to-dos with
// an optional reminder.
func (s *Server) GenerateICS(w http.ResponseWriter, r *http.Request, name string, days []tasks.Day) {
	reminder := r.URL.Query().Get("reminder")
	daysBefore, err := strconv.Atoi(r.URL.Query().Get("reminderDaysBefore"))
	if err != nil || daysBefore < 0 {
		daysBefore = 0
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s.ics", name))

	stamp := s.now().UTC().Format("20060102T150405Z")
	ics := &icsWriter{w: w}

	ics.line("BEGIN:VCALENDAR")
	ics.line("VERSION:2.0")
	ics.line("PRODID:" + ICSProductID)
	ics.line("X-WR-CALNAME:" + escapeText(name))
	ics.line("CALSCALE:GREGORIAN")

	for _, day := range days {
		date, err := tasks.ParseDate(day.Date)
		if err != nil {
			continue
		}
		for i, task := range day.Tasks {
			ics.line("BEGIN:VTODO")
			ics.line(fmt.Sprintf("UID:%s-%d@%s", day.Date, i, ICSUIDDomain))
			ics.line("DTSTAMP:" + stamp)
			ics.line("DTSTART;VALUE=DATE:" + date.Format("20060102"))
			ics.line("DUE;VALUE=DATE:" + date.AddDate(0, 0, 1).Format("20060102"))
			ics.line("SUMMARY:" + escapeText(task.Description))
			if task.Done {
				ics.line("STATUS:COMPLETED")
				ics.line("PERCENT-COMPLETE:100")
			} else {
				ics.line("STATUS:NEEDS-ACTION")
				if reminder != "" {
					addAlarm(ics, date, daysBefore, reminder, task.Description)
				}
			}
			ics.line("END:VTODO")
		}
	}

	ics.line("END:VCALENDAR")
	if ics.err != nil {
		s.logger.Error("writing ICS export failed", "err", ics.err)
	}
}

// addAlarm adds a reminder at alarmTime (HH:MM) daysBefore days ahead of
// the task date. Invalid times add nothing.
func addAlarm(ics *icsWriter, date time.Time, daysBefore int, alarmTime string, description string) {
	parts := strings.Split(alarmTime, ":")
	if len(parts) != 2 {
		return
	}
	hour, err1 := strconv.Atoi(parts[0])
	minute, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil || hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return
	}

	// The trigger is relative to midnight at the start of the task date
	alarmDate := date.AddDate(0, 0, -daysBefore)
	alarmAt := time.Date(alarmDate.Year(), alarmDate.Month(), alarmDate.Day(), hour, minute, 0, 0, time.UTC)
	start := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)

	totalMinutes := int(alarmAt.Sub(start).Minutes())
	sign := ""
	if totalMinutes < 0 {
		sign = "-"
		totalMinutes = -totalMinutes
	}
	days := totalMinutes / (24 * 60)
	hours := (totalMinutes % (24 * 60)) / 60
	minutes := totalMinutes % 60

	ics.line("BEGIN:VALARM")
	ics.line("ACTION:DISPLAY")
	ics.line("DESCRIPTION:Reminder: " + escapeText(description))
	ics.line(fmt.Sprintf("TRIGGER:%sP%dDT%dH%dM", sign, days, hours, minutes))
	ics.line("END:VALARM")
}

// GenerateCSV writes one row per task.
func (s *Server) GenerateCSV(w http.ResponseWriter, name string, days []tasks.Day) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s.csv", name))

	cw := csv.NewWriter(w)
	cw.Write([]string{"date", "index", "task", "done"})
	for _, day := range days {
		for i, task := range day.Tasks {
			cw.Write([]string{day.Date, strconv.Itoa(i), task.Description, strconv.FormatBool(task.Done)})
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		s.logger.Error("writing CSV export failed", "err", err)
	}
}

// GenerateJSON writes the selected days in the storage document format.
func (s *Server) GenerateJSON(w http.ResponseWriter, name string, days []tasks.Day) {
	cal := tasks.NewCalendar()
	for _, day := range days {
		cal.Set(day.Date, day.Tasks)
	}

	data, err := tasks.EncodeDocument(cal)
	if err != nil {
		s.logger.Error("encoding JSON export failed", "err", err)
		writeMessage(w, s.logger, http.StatusInternalServerError, MsgInternalServer)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s.json", name))
	if _, err := w.Write(data); err != nil {
		s.logger.Error("writing JSON export failed", "err", err)
	}
}

// icsWriter writes CRLF terminated content lines and keeps the first error.
type icsWriter struct {
	w   io.Writer
	err error
}

func (iw *icsWriter) line(s string) {
	if iw.err != nil {
		return
	}
	_, iw.err = io.WriteString(iw.w, s+"\r\n")
}

// escapeText escapes an iCalendar TEXT value.
func escapeText(s string) string {
	r := strings.NewReplacer(
		`\`, `\\`,
		";", `\;`,
		",", `\,`,
		"\r\n", `\n`,
		"\n", `\n`,
	)
	return r.Replace(s)
}
