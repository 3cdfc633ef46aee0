package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// GenerateSecret returns n random bytes, hex encoded
func GenerateSecret(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// Secrets are the values an operator puts in .env
type Secrets struct {
	JWTSecret        string
	JWTRefreshSecret string
	WebhookSecret    string
}

// GenerateSecrets generates independent 256-bit JWT and webhook secrets
func GenerateSecrets() (*Secrets, error) {
	var s Secrets
	targets := []struct {
		name string
		dst  *string
	}{
		{"JWT access", &s.JWTSecret},
		{"JWT refresh", &s.JWTRefreshSecret},
		{"webhook", &s.WebhookSecret},
	}
	for _, t := range targets {
		v, err := GenerateSecret(32)
		if err != nil {
			return nil, fmt.Errorf("failed to generate %s secret: %w", t.name, err)
		}
		*t.dst = v
	}
	return &s, nil
}
