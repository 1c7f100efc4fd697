package config_test

import (
	"os"
	"testing"
	"time"

	"story-playback/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.Server.CORSAllowedOrigins)
	assert.Equal(t, 10*time.Minute, cfg.Viewer.IdleTTL)
	assert.Equal(t, time.Minute, cfg.Worker.ExpireInterval)
	assert.Equal(t, 30*time.Second, cfg.Worker.ReapInterval)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "stories", cfg.Minio.Bucket)
	assert.False(t, cfg.SeedDemo)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("PORT", "9090")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("SESSION_IDLE_TTL", "90s")
	t.Setenv("SEED_DEMO_DATA", "true")
	t.Setenv("REDIS_DB", "2")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSAllowedOrigins)
	assert.Equal(t, 90*time.Second, cfg.Viewer.IdleTTL)
	assert.True(t, cfg.SeedDemo)
	assert.Equal(t, 2, cfg.Redis.DB)
}

func TestLoadRequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	_, err := config.Load()
	assert.Error(t, err)

	require.NoError(t, os.Unsetenv("JWT_SECRET"))
	_, err = config.Load()
	assert.Error(t, err)
}
