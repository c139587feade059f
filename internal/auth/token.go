package auth

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/zalando/go-keyring"
)

const (
	defaultSecretService = "sterling"
	defaultTokenUser     = "monzo_token"
	defaultDBKeyUser     = "db_key"
)

var (
	keyringGet    = keyring.Get
	keyringSet    = keyring.Set
	keyringDelete = keyring.Delete
)

// LoadToken loads the Monzo access token.
//
// Order of precedence:
// 1) MONZO_TOKEN environment variable.
// 2) OS credential store item referenced by service/account.
func LoadToken() (string, error) {
	if token := strings.TrimSpace(os.Getenv("MONZO_TOKEN")); token != "" {
		return token, nil
	}

	token, err := loadSecret(defaultTokenUser)
	if err != nil {
		return "", err
	}

	if token == "" {
		return "", errors.New("monzo token is empty")
	}

	return token, nil
}

// SaveToken stores the Monzo access token in the system credential store.
func SaveToken(token string) error {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return errors.New("monzo token cannot be empty")
	}
	return saveSecret(defaultTokenUser, trimmed)
}

// DeleteToken removes the stored Monzo access token.
func DeleteToken() error {
	service := envOrDefault("STERLING_KEYCHAIN_SERVICE", defaultSecretService)
	account := envOrDefault("STERLING_KEYCHAIN_ACCOUNT", defaultTokenUser)

	if err := keyringDelete(service, account); err != nil {
		return fmt.Errorf(
			"failed to delete keyring item service=%q account=%q: %w",
			service,
			account,
			err,
		)
	}
	return nil
}

// LoadDBKey loads the local database encryption key from the credential store.
func LoadDBKey() (string, error) {
	return loadSecret(defaultDBKeyUser)
}

// SaveDBKey stores the local database encryption key in the credential store.
func SaveDBKey(key string) error {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return errors.New("db key cannot be empty")
	}
	return saveSecret(defaultDBKeyUser, trimmed)
}

func loadSecret(defaultAccount string) (string, error) {
	service := envOrDefault("STERLING_KEYCHAIN_SERVICE", defaultSecretService)
	account := defaultAccount
	if defaultAccount == defaultTokenUser {
		account = envOrDefault("STERLING_KEYCHAIN_ACCOUNT", defaultAccount)
	}

	secret, err := keyringGet(service, account)
	if err != nil {
		return "", fmt.Errorf(
			"failed to read keyring item service=%q account=%q: %w",
			service,
			account,
			err,
		)
	}

	return strings.TrimSpace(secret), nil
}

func saveSecret(defaultAccount, value string) error {
	service := envOrDefault("STERLING_KEYCHAIN_SERVICE", defaultSecretService)
	account := defaultAccount
	if defaultAccount == defaultTokenUser {
		account = envOrDefault("STERLING_KEYCHAIN_ACCOUNT", defaultAccount)
	}

	if err := keyringSet(service, account, value); err != nil {
		return fmt.Errorf(
			"failed to store keyring item service=%q account=%q: %w",
			service,
			account,
			err,
		)
	}
	return nil
}

func envOrDefault(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}
