package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/tmarsden/sterling/internal/auth"
	"github.com/tmarsden/sterling/internal/config"
	"github.com/tmarsden/sterling/internal/storage"
	"github.com/tmarsden/sterling/internal/tui"
	"golang.org/x/term"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "sterling: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	// .env first: every path below, the wipe included, reads the
	// environment to resolve the DB location.
	if err := config.LoadEnv(); err != nil {
		return err
	}

	if len(args) >= 2 && args[0] == "auth" && args[1] == "set" {
		if err := runAuthSet(args); err != nil {
			return fmt.Errorf("auth set: %w", err)
		}
		fmt.Println("Token saved to your system credential store.")
		return nil
	}

	if len(args) >= 1 && args[0] == "--wipe-db" {
		cfg, err := storage.Wipe()
		if err != nil {
			return err
		}
		fmt.Printf("Local database wiped: %s\n", cfg.Path)
		return nil
	}

	settings, err := config.Load()
	if err != nil {
		return err
	}

	db, _, err := storage.Open(context.Background())
	if err != nil {
		return err
	}
	defer db.Close()

	program := tea.NewProgram(tui.New(db, settings), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("run ui: %w", err)
	}
	return nil
}

func runAuthSet(args []string) error {
	if len(args) != 2 {
		return errors.New("usage: sterling auth set")
	}

	fmt.Print("Enter Monzo access token: ")
	token, err := readSecret()
	if err != nil {
		return err
	}
	fmt.Println()

	if strings.TrimSpace(token) == "" {
		return errors.New("empty token")
	}

	return auth.SaveToken(token)
}

func readSecret() (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		value, err := term.ReadPassword(fd)
		if err != nil {
			return "", err
		}
		return string(value), nil
	}

	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		if len(line) == 0 {
			return "", err
		}
	}
	return strings.TrimSpace(line), nil
}
