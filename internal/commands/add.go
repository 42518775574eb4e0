package commands

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
)

// Add handles the add subcommand.
func Add(args []string) {
	exit(runAdd(args, os.Stdout))
}

func runAdd(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("add", flag.ContinueOnError)
	fs.Usage = usage(fs, "add [OPTIONS] <YYYY-MM-DD> <description...>", "Adds an open task to a date.")
	cfg, err := parse(fs, args)
	if err != nil {
		return err
	}
	if fs.NArg() < 2 {
		fs.Usage()
		return errors.New("add needs a date and a description")
	}
	date := fs.Arg(0)
	description := strings.Join(fs.Args()[1:], " ")

	store, closeStore, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	index, err := store.AddTask(date, description)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Added task %d on %s: %s\n", index+1, date, description)
	return nil
}
