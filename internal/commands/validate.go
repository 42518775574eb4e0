package commands

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/klabast/wb-services/task-calendar/internal/config"
	"github.com/klabast/wb-services/task-calendar/internal/tasks"
)

// Validate handles the validate subcommand.
func Validate(args []string) {
	exit(runValidate(args, os.Stdout))
}

func runValidate(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: %s validate <file>\n\n", config.AppName)
		fmt.Fprintf(fs.Output(), "Checks a task file against the storage schema.\n")
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return errors.New("validate needs exactly one file")
	}
	path := fs.Arg(0)

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	cal, err := tasks.DecodeDocument(data)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	fmt.Fprintf(out, "%s: valid, %d dates, %d tasks\n", path, cal.Len(), cal.TaskCount())
	return nil
}
