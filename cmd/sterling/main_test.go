package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWipeDBHonoursDotEnvDBPath(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "cache.db")
	if err := os.WriteFile(dbPath, []byte("x"), 0o600); err != nil {
		t.Fatalf("write db file: %v", err)
	}
	env := "STERLING_DB_PATH=" + dbPath + "\n"
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(env), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}

	// Registers the restore, then unsets so the .env value takes effect.
	t.Setenv("STERLING_DB_PATH", "")
	os.Unsetenv("STERLING_DB_PATH")
	t.Chdir(dir)

	if err := run([]string{"--wipe-db"}); err != nil {
		t.Fatalf("run(--wipe-db) unexpected error: %v", err)
	}

	if _, err := os.Stat(dbPath); !os.IsNotExist(err) {
		t.Fatalf("db file at the .env path still present (stat err: %v)", err)
	}
}
