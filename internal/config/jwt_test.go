package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJWTConfig(t *testing.T) {
	tests := []struct {
		name      string
		secret    string
		hours     string
		wantHours int
		wantErr   string
	}{
		{name: "default expiration", secret: "0123456789abcdef", wantHours: 24},
		{name: "custom expiration", secret: "0123456789abcdef", hours: "48", wantHours: 48},
		{name: "missing secret", wantErr: "JWT_SECRET is required"},
		{name: "short secret", secret: "short", wantErr: "at least 16 characters"},
		{name: "bad hours", secret: "0123456789abcdef", hours: "soon", wantErr: "invalid JWT_EXPIRATION_HOURS"},
		{name: "zero hours", secret: "0123456789abcdef", hours: "0", wantErr: "at least 1 hour"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("JWT_SECRET", tt.secret)
			t.Setenv("JWT_EXPIRATION_HOURS", tt.hours)

			cfg, err := NewJWTConfig()
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				assert.Nil(t, cfg)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.secret, cfg.Secret)
			assert.Equal(t, tt.wantHours, cfg.ExpirationHours)
		})
	}
}

func TestConfig_JWT(t *testing.T) {
	cfg, err := (&Config{}).JWT()
	require.NoError(t, err)
	assert.Nil(t, cfg, "no secret means authentication is off")

	cfg, err = (&Config{JWTSecret: "0123456789abcdef"}).JWT()
	require.NoError(t, err)
	assert.Equal(t, DefaultTokenHours, cfg.ExpirationHours)

	_, err = (&Config{JWTSecret: "tiny"}).JWT()
	assert.Error(t, err)
}
