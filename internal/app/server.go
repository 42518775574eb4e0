// Package app exposes the task store over HTTP.
package app

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"

	"github.com/klabast/wb-services/task-calendar/internal/tasks"
)

// Constants
const (
	APIPrefix = "/api"

	ReadTimeout     = 10 * time.Second
	WriteTimeout    = 30 * time.Second
	IdleTimeout     = 60 * time.Second
	ShutdownTimeout = 5 * time.Second

	// Response messages
	MsgTaskAdded       = "Task added successfully"
	MsgTaskUpdated     = "Task updated successfully"
	MsgTaskEdited      = "Task edited successfully"
	MsgTaskDeleted     = "Task deleted successfully"
	MsgTaskNotFound    = "Task not found"
	MsgInvalidDate     = "Invalid date format. Please use YYYY-MM-DD."
	MsgInvalidYear     = "Invalid year"
	MsgInvalidMonth    = "Invalid month"
	MsgInvalidFormat   = "Invalid format"
	MsgInvalidBody     = "Invalid request body"
	MsgFailedToSave    = "Failed to save tasks"
	MsgInternalServer  = "Internal server error"
	MsgUnauthorized    = "Unauthorized"
	MsgMissingRequired = "Missing required field"
)

// ServerConfig holds the collaborators of a Server.
type ServerConfig struct {
	Store *tasks.Store

	// Credentials protect the mutating routes; nil disables authentication.
	Credentials *Credentials

	Logger *log.Logger

	// AllowOrigin is sent as Access-Control-Allow-Origin; empty disables CORS.
	AllowOrigin string

	// Now defaults to time.Now.
	Now func() time.Time
}

// Server serves the task API.
type Server struct {
	store       *tasks.Store
	creds       *Credentials
	logger      *log.Logger
	allowOrigin string
	now         func() time.Time
}

// NewServer creates a server over cfg.Store.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Store == nil {
		return nil, errors.New("app: missing store")
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(io.Discard)
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Server{
		store:       cfg.Store,
		creds:       cfg.Credentials,
		logger:      cfg.Logger,
		allowOrigin: cfg.AllowOrigin,
		now:         cfg.Now,
	}, nil
}

// Handler returns the routes, served both at the root and under /api.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.routes(mux, "")
	s.routes(mux, APIPrefix)
	return s.logRequests(s.cors(mux))
}

func (s *Server) routes(mux *http.ServeMux, prefix string) {
	mux.HandleFunc("GET "+prefix+"/tasks", s.GetTasks)
	mux.HandleFunc("GET "+prefix+"/tasks/month", s.GetMonth)
	mux.HandleFunc("GET "+prefix+"/tasks/export", s.HandleExport)
	mux.HandleFunc("POST "+prefix+"/tasks", s.requireAuth(s.AddTask))
	mux.HandleFunc("PUT "+prefix+"/tasks/update", s.requireAuth(s.UpdateTask))
	mux.HandleFunc("PUT "+prefix+"/tasks/edit", s.requireAuth(s.EditTask))
	mux.HandleFunc("DELETE "+prefix+"/tasks/{date}/{taskIndex}", s.requireAuth(s.DeleteTask))
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  ReadTimeout,
		WriteTimeout: WriteTimeout,
		IdleTimeout:  IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
