package app

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"

	"github.com/klabast/wb-services/task-calendar/internal/tasks"
)

// messageResponse is the body of every confirmation and error.
type messageResponse struct {
	Message   string `json:"message"`
	TaskIndex *int   `json:"taskIndex,omitempty"`
}

// writeJSON encodes v with the given status.
func writeJSON(w http.ResponseWriter, logger *log.Logger, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("encoding response failed", "err", err)
	}
}

// writeMessage writes {"message": msg}.
func writeMessage(w http.ResponseWriter, logger *log.Logger, status int, msg string) {
	writeJSON(w, logger, status, messageResponse{Message: msg})
}

// writeError maps a store error to its status and message.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, tasks.ErrInvalidDate):
		writeMessage(w, s.logger, http.StatusBadRequest, MsgInvalidDate)
	case errors.Is(err, tasks.ErrInvalidMonth):
		writeMessage(w, s.logger, http.StatusBadRequest, MsgInvalidMonth)
	case errors.Is(err, tasks.ErrNotFound):
		writeMessage(w, s.logger, http.StatusNotFound, MsgTaskNotFound)
	case errors.Is(err, tasks.ErrStorageUnavailable):
		s.logger.Error("storage failure", "err", err)
		writeMessage(w, s.logger, http.StatusInternalServerError, MsgFailedToSave)
	default:
		s.logger.Error("request failed", "err", err)
		writeMessage(w, s.logger, http.StatusInternalServerError, MsgInternalServer)
	}
}

// decodeBody decodes the JSON request body into dst, answering 400 on failure.
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		s.logger.Debug("invalid request body", "path", r.URL.Path, "err", err)
		writeMessage(w, s.logger, http.StatusBadRequest, MsgInvalidBody)
		return false
	}
	return true
}

// queryInt parses an optional integer query parameter, returning def when absent.
func queryInt(r *http.Request, name string, def int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}
