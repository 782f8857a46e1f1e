package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "dochub-service", cfg.App.Name)
	assert.Equal(t, "0.0.0.0:8080", cfg.App.Addr())
	assert.Equal(t, 30*time.Second, cfg.App.RequestTimeout())

	assert.Equal(t, 24*time.Hour, cfg.Auth.LoginTokenTTL())
	assert.Equal(t, 30*time.Minute, cfg.Auth.ForgotPasswordTTL())
	assert.Equal(t, 7*24*time.Hour, cfg.Auth.InvitationTTL())
	assert.Equal(t, 12, cfg.Auth.BcryptCost)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_PORT", "9090")
	t.Setenv("AUTH_LOGIN_TOKEN_TTL_MINUTES", "60")
	t.Setenv("AUTH_JWT_SECRET", "override-secret")
	t.Setenv("REDIS_DB", "3")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.App.Port)
	assert.Equal(t, time.Hour, cfg.Auth.LoginTokenTTL())
	assert.Equal(t, "override-secret", cfg.Auth.JWTSecret)
	assert.Equal(t, 3, cfg.Redis.DB)
}

func TestLoadBadRedisDB(t *testing.T) {
	t.Setenv("REDIS_DB", "not-a-number")

	_, err := Load()
	assert.Error(t, err)
}
