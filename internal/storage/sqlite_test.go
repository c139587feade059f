package storage

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfigFromEnvUsesOverridePath(t *testing.T) {
	t.Setenv("STERLING_DB_PATH", "/tmp/sterling-test/custom.db")

	cfg, err := configFromEnv()
	if err != nil {
		t.Fatalf("configFromEnv: %v", err)
	}
	if cfg.Path != "/tmp/sterling-test/custom.db" {
		t.Fatalf("path = %q, want override", cfg.Path)
	}
	if cfg.Mode != ModeSecure {
		t.Fatalf("mode = %q, want %q", cfg.Mode, ModeSecure)
	}
}

func TestConfigFromEnvDefaultsToUserConfigDir(t *testing.T) {
	t.Setenv("STERLING_DB_PATH", "")

	cfg, err := configFromEnv()
	if err != nil {
		t.Fatalf("configFromEnv: %v", err)
	}
	configDir, err := os.UserConfigDir()
	if err != nil {
		t.Skipf("no user config dir in this environment: %v", err)
	}
	want := filepath.Join(configDir, "sterling", "sterling.db")
	if cfg.Path != want {
		t.Fatalf("path = %q, want %q", cfg.Path, want)
	}
}

func TestResetLocalDBFilesRemovesSidecars(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "sterling.db")
	for _, p := range []string{base, base + "-wal", base + "-shm"} {
		if err := os.WriteFile(p, []byte("x"), 0o600); err != nil {
			t.Fatalf("write %s: %v", p, err)
		}
	}

	if err := resetLocalDBFiles(base); err != nil {
		t.Fatalf("resetLocalDBFiles: %v", err)
	}
	for _, p := range []string{base, base + "-wal", base + "-shm"} {
		if _, err := os.Stat(p); !os.IsNotExist(err) {
			t.Fatalf("%s still exists after reset", p)
		}
	}
}

func TestResetLocalDBFilesMissingIsFine(t *testing.T) {
	if err := resetLocalDBFiles(filepath.Join(t.TempDir(), "never-created.db")); err != nil {
		t.Fatalf("resetLocalDBFiles on absent files: %v", err)
	}
}
