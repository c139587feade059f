package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Settings holds optional user preferences loaded from the YAML config file.
// Everything has a default so the file can be absent entirely.
type Settings struct {
	Theme struct {
		Accent    string `yaml:"accent"`
		Secondary string `yaml:"secondary"`
		Muted     string `yaml:"muted"`
		Error     string `yaml:"error"`
	} `yaml:"theme"`
	PayCycle struct {
		Day    int    `yaml:"day"`
		MoveTo string `yaml:"move_to"`
	} `yaml:"pay_cycle"`
	Transactions struct {
		PageSize int `yaml:"page_size"`
	} `yaml:"transactions"`
}

func defaults() Settings {
	var s Settings
	s.Theme.Accent = "#87CEEB"
	s.Theme.Secondary = "#FFD54A"
	s.Theme.Muted = "#9CA3AF"
	s.Theme.Error = "#F15B5B"
	s.PayCycle.Day = 25
	s.PayCycle.MoveTo = "previous"
	s.Transactions.PageSize = 12
	return s
}

// LoadEnv loads a .env file from the working directory when one exists.
// Existing environment variables are never overwritten.
func LoadEnv() error {
	if _, err := os.Stat(".env"); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("stat .env: %w", err)
	}
	if err := godotenv.Load(); err != nil {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

// Load reads the YAML settings file, falling back to defaults when the file
// is missing. A present but unparsable file is an error.
func Load() (Settings, error) {
	path, err := settingsPath()
	if err != nil {
		return Settings{}, err
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaults(), nil
		}
		return Settings{}, fmt.Errorf("read settings file %q: %w", path, err)
	}

	s := defaults()
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return Settings{}, fmt.Errorf("parse settings file %q: %w", path, err)
	}
	return normalize(s), nil
}

func settingsPath() (string, error) {
	if path := strings.TrimSpace(os.Getenv("STERLING_CONFIG_PATH")); path != "" {
		return path, nil
	}
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config directory: %w", err)
	}
	return filepath.Join(configDir, "sterling", "sterling.yaml"), nil
}

func normalize(s Settings) Settings {
	d := defaults()
	if strings.TrimSpace(s.Theme.Accent) == "" {
		s.Theme.Accent = d.Theme.Accent
	}
	if strings.TrimSpace(s.Theme.Secondary) == "" {
		s.Theme.Secondary = d.Theme.Secondary
	}
	if strings.TrimSpace(s.Theme.Muted) == "" {
		s.Theme.Muted = d.Theme.Muted
	}
	if strings.TrimSpace(s.Theme.Error) == "" {
		s.Theme.Error = d.Theme.Error
	}
	if s.PayCycle.Day < 1 || s.PayCycle.Day > 31 {
		s.PayCycle.Day = d.PayCycle.Day
	}
	switch strings.ToLower(strings.TrimSpace(s.PayCycle.MoveTo)) {
	case "previous", "next":
		s.PayCycle.MoveTo = strings.ToLower(strings.TrimSpace(s.PayCycle.MoveTo))
	default:
		s.PayCycle.MoveTo = d.PayCycle.MoveTo
	}
	if s.Transactions.PageSize < 1 || s.Transactions.PageSize > 100 {
		s.Transactions.PageSize = d.Transactions.PageSize
	}
	return s
}
