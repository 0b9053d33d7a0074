package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, key := range []string{
		"DATABASE_URL", "HTTP_ADDR", "JWT_SECRET", "ACCESS_TOKEN_TTL", "REFRESH_TOKEN_TTL",
		"CORS_ORIGINS", "ADMIN_EMAIL", "ADMIN_PASSWORD", "ADMIN_NAME", "LOG_LEVEL", "LOG_FORMAT",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "museucom.sqlite", cfg.Database.URL)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.HTTP.CORSOrigins)
	assert.Equal(t, 15*time.Minute, cfg.Auth.AccessTokenTTL)
	assert.Equal(t, 720*time.Hour, cfg.Auth.RefreshTokenTTL)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())
	t.Setenv("ACCESS_TOKEN_TTL", "30s")
	t.Setenv("CORS_ORIGINS", "http://localhost:5173, https://museucom.ao ,")
	t.Setenv("ADMIN_EMAIL", "admin@museu.ao")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, cfg.Auth.AccessTokenTTL)
	assert.Equal(t, []string{"http://localhost:5173", "https://museucom.ao"}, cfg.HTTP.CORSOrigins)
	assert.Equal(t, "admin@museu.ao", cfg.Admin.Email)
}

func TestLoad_InvalidTTL(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())

	t.Setenv("ACCESS_TOKEN_TTL", "soon")
	_, err := Load()
	assert.ErrorContains(t, err, "invalid ACCESS_TOKEN_TTL")

	t.Setenv("ACCESS_TOKEN_TTL", "48h")
	t.Setenv("REFRESH_TOKEN_TTL", "1h")
	_, err = Load()
	assert.ErrorContains(t, err, "must be shorter")
}
