package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ALLOWED_ORIGINS", "https://example.org, https://play.example.org")
	t.Setenv("PORT", "")
	t.Setenv("SHIKIMORI_GQL_API_URL", "")
	t.Setenv("DEBUG", "")
	t.Setenv("ROOM_SWEEP_INTERVAL", "placeholder")
	require.NoError(t, os.Unsetenv("ROOM_SWEEP_INTERVAL"))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "5000", cfg.Port)
	assert.Equal(t, []string{"https://example.org", "https://play.example.org"}, cfg.AllowedOrigins)
	assert.Equal(t, defaultShikimoriURL, cfg.ShikimoriURL)
	assert.Equal(t, 10*time.Minute, cfg.SweepInterval)
	assert.False(t, cfg.Debug)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("ALLOWED_ORIGINS", "http://localhost:3000")
	t.Setenv("PORT", "8080")
	t.Setenv("SHIKIMORI_GQL_API_URL", "http://localhost:9999/graphql")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("ROOM_SWEEP_INTERVAL", "30s")
	t.Setenv("DEBUG", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "http://localhost:9999/graphql", cfg.ShikimoriURL)
	assert.Equal(t, "redis://localhost:6379/0", cfg.RedisURL)
	assert.Equal(t, 30*time.Second, cfg.SweepInterval)
	assert.True(t, cfg.Debug)
}

func TestLoad_Rejections(t *testing.T) {
	t.Run("missing origins", func(t *testing.T) {
		t.Setenv("ALLOWED_ORIGINS", "")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("bad sweep interval", func(t *testing.T) {
		t.Setenv("ALLOWED_ORIGINS", "http://localhost:3000")
		t.Setenv("ROOM_SWEEP_INTERVAL", "soon")
		_, err := Load()
		assert.Error(t, err)
	})
}
