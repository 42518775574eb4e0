package app

import (
	"net/http"
	"strconv"

	"github.com/klabast/wb-services/task-calendar/internal/tasks"
)

// GetTasks returns the full date to task mapping.
func (s *Server) GetTasks(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.logger, http.StatusOK, s.store.Load())
}

// GetMonth returns the tasks of one month.
// Query params: year, month (default to the current month)
func (s *Server) GetMonth(w http.ResponseWriter, r *http.Request) {
	year, month, ok := s.monthParams(w, r)
	if !ok {
		return
	}

	cal, err := s.store.TasksForMonth(year, month)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, s.logger, http.StatusOK, cal)
}

// AddTask appends a task to a date.
func (s *Server) AddTask(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Date string  `json:"date"`
		Task *string `json:"task"`
	}
	if !s.decodeBody(w, r, &req) {
		return
	}
	if req.Task == nil {
		writeMessage(w, s.logger, http.StatusBadRequest, MsgMissingRequired+": task")
		return
	}

	index, err := s.store.AddTask(req.Date, *req.Task)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, s.logger, http.StatusCreated, messageResponse{Message: MsgTaskAdded, TaskIndex: &index})
}

// UpdateTask sets the done flag of a task.
func (s *Server) UpdateTask(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Date      string `json:"date"`
		TaskIndex *int   `json:"taskIndex"`
		Done      *bool  `json:"done"`
	}
	if !s.decodeBody(w, r, &req) {
		return
	}
	if req.TaskIndex == nil || req.Done == nil {
		writeMessage(w, s.logger, http.StatusBadRequest, MsgMissingRequired+": taskIndex, done")
		return
	}

	if err := s.store.ToggleOrSetStatus(req.Date, *req.TaskIndex, *req.Done); err != nil {
		s.writeError(w, err)
		return
	}
	writeMessage(w, s.logger, http.StatusOK, MsgTaskUpdated)
}

// EditTask replaces the text of a task.
func (s *Server) EditTask(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Date        string  `json:"date"`
		TaskIndex   *int    `json:"taskIndex"`
		NewTaskText *string `json:"newTaskText"`
	}
	if !s.decodeBody(w, r, &req) {
		return
	}
	if req.TaskIndex == nil || req.NewTaskText == nil {
		writeMessage(w, s.logger, http.StatusBadRequest, MsgMissingRequired+": taskIndex, newTaskText")
		return
	}

	if err := s.store.EditDescription(req.Date, *req.TaskIndex, *req.NewTaskText); err != nil {
		s.writeError(w, err)
		return
	}
	writeMessage(w, s.logger, http.StatusOK, MsgTaskEdited)
}

// DeleteTask removes a task.
// URL: /tasks/{date}/{taskIndex}
func (s *Server) DeleteTask(w http.ResponseWriter, r *http.Request) {
	date := r.PathValue("date")
	index, err := strconv.Atoi(r.PathValue("taskIndex"))
	if err != nil {
		writeMessage(w, s.logger, http.StatusNotFound, MsgTaskNotFound)
		return
	}

	if err := s.store.DeleteTask(date, index); err != nil {
		s.writeError(w, err)
		return
	}
	writeMessage(w, s.logger, http.StatusOK, MsgTaskDeleted)
}

// monthParams reads year and month, defaulting to the current month.
func (s *Server) monthParams(w http.ResponseWriter, r *http.Request) (int, int, bool) {
	now := s.now()

	year, err := queryInt(r, "year", now.Year())
	if err != nil {
		writeMessage(w, s.logger, http.StatusBadRequest, MsgInvalidYear)
		return 0, 0, false
	}
	month, err := queryInt(r, "month", int(now.Month()))
	if err != nil || month < 1 || month > 12 {
		writeMessage(w, s.logger, http.StatusBadRequest, MsgInvalidMonth)
		return 0, 0, false
	}
	return year, month, true
}

// exportDays selects the days an export covers: everything, one year, or
// one month when both year and month are given.
func (s *Server) exportDays(r *http.Request) ([]tasks.Day, int, int, error) {
	year, err := queryInt(r, "year", 0)
	if err != nil {
		return nil, 0, 0, err
	}
	month, err := queryInt(r, "month", 0)
	if err != nil {
		return nil, 0, 0, err
	}

	cal := s.store.Load()
	if year != 0 && month != 0 {
		cal = tasks.FilterMonth(cal, year, month)
	}

	var days []tasks.Day
	for _, d := range tasks.SortedDays(cal) {
		t, err := tasks.ParseDate(d.Date)
		if err != nil {
			continue
		}
		if year != 0 && t.Year() != year {
			continue
		}
		days = append(days, d)
	}
	return days, year, month, nil
}
