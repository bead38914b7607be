package config

import (
	"fmt"
	"os"
	"strconv"
)

// DefaultTokenHours is the lifetime of issued API tokens
const DefaultTokenHours = 24

// JWTConfig holds the settings for signing and checking API bearer tokens.
type JWTConfig struct {
	Secret          string
	ExpirationHours int
}

// NewJWTConfig reads JWT_SECRET (required) and JWT_EXPIRATION_HOURS
// (default 24) from the environment.
func NewJWTConfig() (*JWTConfig, error) {
	hours := DefaultTokenHours
	if v := os.Getenv("JWT_EXPIRATION_HOURS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid JWT_EXPIRATION_HOURS: %v", err)
		}
		hours = n
	}
	return newJWTConfig(os.Getenv("JWT_SECRET"), hours)
}

// JWT returns the token settings of c, or nil when no secret is configured
// and the API runs without authentication.
func (c *Config) JWT() (*JWTConfig, error) {
	if c.JWTSecret == "" {
		return nil, nil
	}
	return newJWTConfig(c.JWTSecret, DefaultTokenHours)
}

func newJWTConfig(secret string, hours int) (*JWTConfig, error) {
	if secret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required but not set")
	}
	if len(secret) < 16 {
		return nil, fmt.Errorf("JWT secret must be at least 16 characters, got %d", len(secret))
	}
	if hours < 1 {
		return nil, fmt.Errorf("JWT_EXPIRATION_HOURS must be at least 1 hour, got: %d", hours)
	}
	return &JWTConfig{Secret: secret, ExpirationHours: hours}, nil
}
