package commands

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
)

// Toggle handles the toggle subcommand. Tasks are numbered from 1 as
// printed by the month subcommand.
func Toggle(args []string) {
	exit(runToggle(args, os.Stdout))
}

func runToggle(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("toggle", flag.ContinueOnError)
	fs.Usage = usage(fs, "toggle [OPTIONS] <YYYY-MM-DD> <number>", "Flips a task between open and done.")
	cfg, err := parse(fs, args)
	if err != nil {
		return err
	}
	if fs.NArg() != 2 {
		fs.Usage()
		return errors.New("toggle needs a date and a task number")
	}
	date := fs.Arg(0)
	number, err := strconv.Atoi(fs.Arg(1))
	if err != nil || number < 1 {
		return fmt.Errorf("invalid task number %q", fs.Arg(1))
	}

	store, closeStore, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	done, err := store.Toggle(date, number-1)
	if err != nil {
		return err
	}
	state := "open"
	if done {
		state = "done"
	}
	fmt.Fprintf(out, "Task %d on %s marked %s\n", number, date, state)
	return nil
}
