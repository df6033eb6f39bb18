package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEmptyRedisAddrDisablesRedis(t *testing.T) {
	t.Setenv("REDIS_ADDR", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Empty(t, cfg.Redis.Addr, "REDIS_ADDR=\"\" must survive as empty so the no-Redis wiring is reachable")
}

func TestLoadUnsetRedisAddrDefaults(t *testing.T) {
	// t.Setenv records the original value for cleanup; unset afterwards to
	// exercise the genuinely-absent case.
	t.Setenv("REDIS_ADDR", "placeholder")
	os.Unsetenv("REDIS_ADDR")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
}

func TestLoadRedisAddrOverride(t *testing.T) {
	t.Setenv("REDIS_ADDR", "redis.internal:6380")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "redis.internal:6380", cfg.Redis.Addr)
}

func TestLoadTicketTypes(t *testing.T) {
	t.Setenv("TICKET_TYPES", " General , VIP ,,Speaker")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"General", "VIP", "Speaker"}, cfg.Event.TicketTypes)
}

func TestLoadGeminiKeyFallsBackToAPIKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("API_KEY", "legacy-key")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "legacy-key", cfg.Gemini.APIKey)
}
