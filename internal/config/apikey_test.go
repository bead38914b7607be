package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndMatchAPIKey(t *testing.T) {
	key := "rr_live_0123456789abcdef"
	hash, err := HashAPIKey(key)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$2a$12$"))

	cfg := &Config{APIKeyHashes: []string{"not-a-hash", hash}}
	assert.True(t, cfg.MatchAPIKey(key))
	assert.False(t, cfg.MatchAPIKey("rr_live_wrong_key_000"))
	assert.False(t, cfg.MatchAPIKey(""))
	assert.False(t, (&Config{}).MatchAPIKey(key))
}

func TestHashAPIKey_TooShort(t *testing.T) {
	_, err := HashAPIKey("short")
	assert.Error(t, err)
}
