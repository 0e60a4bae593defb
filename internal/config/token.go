package config

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const (
	secretService   = "linkichat"
	apiTokenAccount = "api_token"
)

// GetAPIToken reads the daemon's bearer token from the platform secret
// store. It fails when the daemon has never been started.
func GetAPIToken() (string, error) {
	out, err := keychainGet(secretService, apiTokenAccount)
	if err != nil {
		return "", fmt.Errorf("reading API token (is the daemon initialized?): %w", err)
	}
	token := strings.TrimSpace(string(out))
	if token == "" {
		return "", fmt.Errorf("stored API token is empty")
	}
	return token, nil
}

// EnsureAPIToken returns the stored bearer token, generating and persisting
// a new one on first run.
func EnsureAPIToken() (string, error) {
	if token, err := GetAPIToken(); err == nil {
		return token, nil
	}
	token := uuid.NewString()
	if err := keychainSet(secretService, apiTokenAccount, token); err != nil {
		return "", fmt.Errorf("storing API token: %w", err)
	}
	return token, nil
}
