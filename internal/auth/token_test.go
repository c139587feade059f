package auth

import (
	"errors"
	"strings"
	"testing"
)

func TestLoadTokenUsesEnvVarFirst(t *testing.T) {
	t.Setenv("MONZO_TOKEN", "  env-token  ")

	origGet := keyringGet
	defer func() { keyringGet = origGet }()

	keyringCalled := false
	keyringGet = func(service, user string) (string, error) {
		keyringCalled = true
		return "keyring-token", nil
	}

	got, err := LoadToken()
	if err != nil {
		t.Fatalf("LoadToken() unexpected error: %v", err)
	}
	if got != "env-token" {
		t.Fatalf("LoadToken() = %q, want %q", got, "env-token")
	}
	if keyringCalled {
		t.Fatal("LoadToken() called keyringGet even though MONZO_TOKEN was set")
	}
}

func TestLoadTokenFallsBackToKeyring(t *testing.T) {
	t.Setenv("MONZO_TOKEN", "")
	t.Setenv("STERLING_KEYCHAIN_SERVICE", "svc")
	t.Setenv("STERLING_KEYCHAIN_ACCOUNT", "acct")

	origGet := keyringGet
	defer func() { keyringGet = origGet }()

	var gotService, gotUser string
	keyringGet = func(service, user string) (string, error) {
		gotService = service
		gotUser = user
		return "  keyring-token  ", nil
	}

	got, err := LoadToken()
	if err != nil {
		t.Fatalf("LoadToken() unexpected error: %v", err)
	}
	if got != "keyring-token" {
		t.Fatalf("LoadToken() = %q, want %q", got, "keyring-token")
	}
	if gotService != "svc" || gotUser != "acct" {
		t.Fatalf("keyringGet called with (%q, %q), want (%q, %q)", gotService, gotUser, "svc", "acct")
	}
}

func TestLoadTokenReturnsErrorWhenKeyringFails(t *testing.T) {
	t.Setenv("MONZO_TOKEN", "")

	origGet := keyringGet
	defer func() { keyringGet = origGet }()

	keyringGet = func(service, user string) (string, error) {
		return "", errors.New("boom")
	}

	_, err := LoadToken()
	if err == nil {
		t.Fatal("LoadToken() error = nil, want non-nil")
	}
	if !strings.Contains(err.Error(), "failed to read keyring item") {
		t.Fatalf("LoadToken() error = %q, expected keyring read context", err.Error())
	}
}

func TestLoadTokenReturnsErrorWhenTokenEmpty(t *testing.T) {
	t.Setenv("MONZO_TOKEN", "")

	origGet := keyringGet
	defer func() { keyringGet = origGet }()

	keyringGet = func(service, user string) (string, error) {
		return "   ", nil
	}

	_, err := LoadToken()
	if err == nil {
		t.Fatal("LoadToken() error = nil, want non-nil")
	}
}

func TestSaveTokenRejectsEmpty(t *testing.T) {
	if err := SaveToken("   "); err == nil {
		t.Fatal("SaveToken() error = nil, want non-nil")
	}
}

func TestSaveTokenTrimsBeforeStoring(t *testing.T) {
	t.Setenv("STERLING_KEYCHAIN_SERVICE", "")
	t.Setenv("STERLING_KEYCHAIN_ACCOUNT", "")

	origSet := keyringSet
	defer func() { keyringSet = origSet }()

	var gotService, gotUser, gotValue string
	keyringSet = func(service, user, value string) error {
		gotService = service
		gotUser = user
		gotValue = value
		return nil
	}

	if err := SaveToken("  tok-123  "); err != nil {
		t.Fatalf("SaveToken() unexpected error: %v", err)
	}
	if gotService != defaultSecretService || gotUser != defaultTokenUser {
		t.Fatalf("keyringSet called with (%q, %q), want defaults", gotService, gotUser)
	}
	if gotValue != "tok-123" {
		t.Fatalf("keyringSet value = %q, want %q", gotValue, "tok-123")
	}
}

func TestDBKeyRoundTripUsesDBKeyAccount(t *testing.T) {
	t.Setenv("STERLING_KEYCHAIN_SERVICE", "")
	t.Setenv("STERLING_KEYCHAIN_ACCOUNT", "ignored-for-db-key")

	origGet := keyringGet
	origSet := keyringSet
	defer func() {
		keyringGet = origGet
		keyringSet = origSet
	}()

	stored := map[string]string{}
	keyringSet = func(service, user, value string) error {
		stored[service+"/"+user] = value
		return nil
	}
	keyringGet = func(service, user string) (string, error) {
		return stored[service+"/"+user], nil
	}

	if err := SaveDBKey("key-material"); err != nil {
		t.Fatalf("SaveDBKey() unexpected error: %v", err)
	}
	if _, ok := stored[defaultSecretService+"/"+defaultDBKeyUser]; !ok {
		t.Fatalf("SaveDBKey() stored under %v, want account %q", stored, defaultDBKeyUser)
	}

	got, err := LoadDBKey()
	if err != nil {
		t.Fatalf("LoadDBKey() unexpected error: %v", err)
	}
	if got != "key-material" {
		t.Fatalf("LoadDBKey() = %q, want %q", got, "key-material")
	}
}
