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

	assert.Equal(t, "8080", cfg.HTTP.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 1500*time.Millisecond, cfg.Payment.RedirectStatusDelay)
	assert.Equal(t, 10*time.Second, cfg.Payment.SettingsCacheTTL)
	assert.Equal(t, 2*time.Hour, cfg.Cleanup.PendingTimeout)
	assert.Equal(t, "SANDBOX", cfg.PhonePe.Environment)
}

func TestLoadPrefixedGroups(t *testing.T) {
	t.Setenv("PHONEPE_CLIENT_ID", "client-1")
	t.Setenv("PHONEPE_CLIENT_SECRET", "secret-1")
	t.Setenv("CLEANUP_INTERVAL", "5m")
	t.Setenv("AUTH_JWT_SECRET", "jwt")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "client-1", cfg.PhonePe.ClientID)
	assert.Equal(t, "secret-1", cfg.PhonePe.ClientSecret)
	assert.Equal(t, 5*time.Minute, cfg.Cleanup.Interval)
	assert.Equal(t, "jwt", cfg.Auth.JWTSecret)
}
