package config

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// APIKeyCost is the bcrypt cost used for static API key hashes
const APIKeyCost = 12

// HashAPIKey returns the bcrypt hash to list under api_key_hashes.
func HashAPIKey(key string) (string, error) {
	if len(key) < 16 {
		return "", fmt.Errorf("API key must be at least 16 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(key), APIKeyCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash API key: %w", err)
	}
	return string(hash), nil
}

// MatchAPIKey reports whether key matches any of the configured hashes.
func (c *Config) MatchAPIKey(key string) bool {
	if key == "" {
		return false
	}
	for _, h := range c.APIKeyHashes {
		if bcrypt.CompareHashAndPassword([]byte(h), []byte(key)) == nil {
			return true
		}
	}
	return false
}
