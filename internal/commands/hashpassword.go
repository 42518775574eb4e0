package commands

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"syscall"

	"github.com/klabast/wb-services/task-calendar/internal/app"
	"golang.org/x/term"
)

// HashPassword handles the hash-password subcommand
func HashPassword(args []string) {
	fs := flag.NewFlagSet("hash-password", flag.ContinueOnError)
	overwrite := fs.Bool("overwrite", false, "Overwrite existing auth file without asking")
	insecureUnmask := fs.Bool("insecure-unmask-password", false, "Show password as plain text (INSECURE!)")
	fs.Usage = func() {
		usage(fs, "hash-password [OPTIONS]", "Creates the Basic Auth file with a hashed password (Argon2id).")()
		fmt.Fprintf(fs.Output(), "\nEnvironment Variables:\n")
		fmt.Fprintf(fs.Output(), "  AUTH_FILE    Path to auth file (default: auth.secret next to the binary)\n")
	}
	cfg, err := parse(fs, args)
	if err != nil {
		exit(err)
	}

	stdin := bufio.NewReader(os.Stdin)
	var readPassword func(prompt string) (string, error)
	if *insecureUnmask {
		fmt.Fprintf(os.Stderr, "⚠️  WARNING: Password will be visible on screen!\n")
		readPassword = func(prompt string) (string, error) {
			return readLine(stdin, os.Stdout, prompt)
		}
	} else {
		readPassword = func(prompt string) (string, error) {
			return readPasswordWithMask(prompt), nil
		}
	}

	username, password, err := promptCredentials(stdin, os.Stdout, readPassword)
	if err != nil {
		exit(err)
	}

	exit(app.CreateAuthFile(cfg.AuthFile, username, password, *overwrite, stdin, os.Stdout))
}

// promptCredentials asks for a username and a confirmed password.
func promptCredentials(in *bufio.Reader, out io.Writer, readPassword func(prompt string) (string, error)) (string, string, error) {
	username, err := readLine(in, out, "Enter username: ")
	if err != nil {
		return "", "", fmt.Errorf("reading username: %w", err)
	}
	if username == "" {
		return "", "", errors.New("username cannot be empty")
	}

	password, err := readPassword("Enter password:   ")
	if err != nil {
		return "", "", fmt.Errorf("reading password: %w", err)
	}
	passwordConfirm, err := readPassword("Confirm password: ")
	if err != nil {
		return "", "", fmt.Errorf("reading password confirmation: %w", err)
	}

	if password == "" {
		return "", "", errors.New("password cannot be empty")
	}
	if password != passwordConfirm {
		return "", "", errors.New("passwords do not match")
	}
	return username, password, nil
}

func readLine(in *bufio.Reader, out io.Writer, prompt string) (string, error) {
	fmt.Fprint(out, prompt)
	var line string
	if _, err := fmt.Fscanln(in, &line); err != nil {
		return "", err
	}
	return line, nil
}

// readPasswordWithMask reads password input and displays asterisks
func readPasswordWithMask(prompt string) string {
	fmt.Print(prompt)

	// Save original terminal state
	oldState, err := term.GetState(int(syscall.Stdin))
	if err != nil {
		// Fallback to hidden input if we can't set raw mode
		password, _ := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		return string(password)
	}
	defer term.Restore(int(syscall.Stdin), oldState)

	if _, err := term.MakeRaw(int(syscall.Stdin)); err != nil {
		password, _ := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		return string(password)
	}

	var password []byte
	reader := bufio.NewReader(os.Stdin)

	for {
		char, _, err := reader.ReadRune()
		if err != nil {
			break
		}

		switch char {
		case '\n', '\r': // Enter key
			fmt.Print("\r\n")
			return string(password)
		case 127, 8: // Backspace or Delete
			if len(password) > 0 {
				password = password[:len(password)-1]
				fmt.Print("\b \b")
			}
		case 3: // Ctrl+C
			term.Restore(int(syscall.Stdin), oldState)
			fmt.Println()
			os.Exit(1)
		default:
			// Only accept printable characters
			if char >= 32 && char <= 126 {
				password = append(password, byte(char))
				fmt.Print("*")
			}
		}
	}

	fmt.Println()
	return string(password)
}
