package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/klabast/wb-services/task-calendar/internal/app"
	"github.com/klabast/wb-services/task-calendar/internal/commands"
	"github.com/klabast/wb-services/task-calendar/internal/config"
	"github.com/klabast/wb-services/task-calendar/internal/logging"
	"github.com/klabast/wb-services/task-calendar/internal/tasks"
)

var subcommands = map[string]func(args []string){
	"hash-password": commands.HashPassword,
	"month":         commands.Month,
	"add":           commands.Add,
	"toggle":        commands.Toggle,
	"validate":      commands.Validate,
}

func main() {
	// Check for subcommands
	if len(os.Args) > 1 {
		if run, ok := subcommands[os.Args[1]]; ok {
			run(os.Args[2:])
			return
		}
	}

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS]\n", config.AppName)
		fmt.Fprintf(os.Stderr, "       %s hash-password|month|add|toggle|validate [ARGS]\n\n", config.AppName)
		fmt.Fprintf(os.Stderr, "Serves the task API.\n\nOptions:\n")
		flag.PrintDefaults()
	}
	cfg, err := config.Load(flag.CommandLine, os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(os.Stderr, logging.Options{
		Level:     cfg.LogLevel,
		Format:    cfg.LogFormat,
		Timestamp: true,
	})
	if cfg.ConfigFile != "" {
		logger.Debug("loaded config file", "path", cfg.ConfigFile)
	}

	backend, closeBackend, err := commands.OpenBackend(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to open task storage", "backend", cfg.Backend, "file", cfg.DataFile, "err", err)
	}
	defer closeBackend()

	creds, err := app.LoadCredentials(cfg.AuthFile, logger)
	if err != nil {
		logger.Fatal("Failed to load auth credentials", "err", err)
	}

	srv, err := app.NewServer(app.ServerConfig{
		Store:       tasks.NewStore(backend, logger),
		Credentials: creds,
		Logger:      logger,
		AllowOrigin: cfg.AllowOrigin,
	})
	if err != nil {
		logger.Fatal("Failed to create server", "err", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Starting task calendar",
		"addr", fmt.Sprintf("http://localhost:%d", cfg.Port),
		"backend", cfg.Backend,
		"data", cfg.DataFile)
	if err := srv.ListenAndServe(ctx, cfg.Addr()); err != nil {
		logger.Error("Server stopped", "err", err)
		closeBackend()
		os.Exit(1)
	}
}
