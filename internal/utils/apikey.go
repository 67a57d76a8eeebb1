package utils

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

const apiKeyBytes = 24

// GenerateAPIKey generates an opaque URL-safe API key.
func GenerateAPIKey() (string, error) {
	buf := make([]byte, apiKeyBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate api key: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
