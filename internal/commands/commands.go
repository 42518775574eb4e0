// Package commands implements the task-calendar subcommands.
package commands

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/charmbracelet/log"

	"github.com/klabast/wb-services/task-calendar/internal/config"
	"github.com/klabast/wb-services/task-calendar/internal/logging"
	"github.com/klabast/wb-services/task-calendar/internal/storage"
	"github.com/klabast/wb-services/task-calendar/internal/tasks"
)

// OpenBackend opens the storage backend selected in cfg. The returned
// close function releases it.
func OpenBackend(cfg *config.Config, logger *log.Logger) (tasks.Backend, func() error, error) {
	switch cfg.Backend {
	case config.BackendSQLite:
		b, err := storage.NewSQLiteBackend(cfg.DataFile)
		if err != nil {
			return nil, nil, err
		}
		return b, b.Close, nil
	default:
		b, err := storage.NewFileBackend(cfg.DataFile, logger)
		if err != nil {
			return nil, nil, err
		}
		return b, func() error { return nil }, nil
	}
}

// parse registers the config flags on fs and parses args.
func parse(fs *flag.FlagSet, args []string) (*config.Config, error) {
	fs.SetOutput(os.Stderr)
	return config.Load(fs, args)
}

// openStore opens the configured backend with a CLI logger on stderr.
func openStore(cfg *config.Config) (*tasks.Store, func() error, error) {
	logger := logging.New(os.Stderr, logging.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})
	backend, closeFn, err := OpenBackend(cfg, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("opening %s: %w", cfg.DataFile, err)
	}
	return tasks.NewStore(backend, logger), closeFn, nil
}

// exit prints err and terminates the process with status 1.
func exit(err error) {
	if err == nil {
		return
	}
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func usage(fs *flag.FlagSet, line, about string) func() {
	return func() {
		out := fs.Output()
		fmt.Fprintf(out, "Usage: %s %s\n\n", config.AppName, line)
		if about != "" {
			fmt.Fprintf(out, "%s\n\n", about)
		}
		fmt.Fprintf(out, "Options:\n")
		fs.PrintDefaults()
	}
}

