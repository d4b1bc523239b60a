package config

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
)

const authTokenBytes = 32

// AuthToken returns the bearer token: AUTH_TOKEN when set, else the contents of
// AUTH_TOKEN_FILE. When the file does not exist a new random token is written to it.
func (c Config) AuthToken() (string, error) {
	if c.AuthTokenValue != "" {
		return c.AuthTokenValue, nil
	}
	if c.AuthTokenFile == "" {
		return "", errors.New("no auth token configured")
	}

	data, err := os.ReadFile(c.AuthTokenFile)
	if err == nil {
		token := strings.TrimSpace(string(data))
		if token == "" {
			return "", fmt.Errorf("auth token file %s is empty", c.AuthTokenFile)
		}
		return token, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("read auth token: %w", err)
	}

	token, err := generateToken()
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(c.AuthTokenFile, []byte(token), 0o600); err != nil {
		return "", fmt.Errorf("write auth token: %w", err)
	}
	return token, nil
}

func generateToken() (string, error) {
	buf := make([]byte, authTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate auth token: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf), nil
}
