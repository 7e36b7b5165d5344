package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("BACKEND_BASE_URL", "")
	t.Setenv("CACHE_DRIVER", "")
	t.Setenv("SEARCH_DEBOUNCE_MILLIS", "")
	t.Setenv("APP_PUBLIC_TICKETS", "")
	t.Setenv("AUTH_TOKEN_TTL_MINUTES", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://127.0.0.1:3000", cfg.Backend.BaseURL)
	assert.Equal(t, CacheDriverMemory, cfg.Cache.Driver)
	assert.Equal(t, 500*time.Millisecond, cfg.Search.Debounce())
	assert.Equal(t, "0.0.0.0:8080", cfg.App.Addr())
	assert.True(t, cfg.App.PublicTickets)
	assert.Equal(t, 60, cfg.Auth.TokenTTLMinutes)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("BACKEND_BASE_URL", "https://helpdesk.example.com/")
	t.Setenv("CACHE_DRIVER", "REDIS")
	t.Setenv("CACHE_TTL_SECONDS", "5")
	t.Setenv("SEARCH_PAGE_SIZE", "50")
	t.Setenv("APP_PUBLIC_TICKETS", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://helpdesk.example.com", cfg.Backend.BaseURL)
	assert.Equal(t, CacheDriverRedis, cfg.Cache.Driver)
	assert.Equal(t, 5*time.Second, cfg.Cache.TTL())
	assert.Equal(t, 50, cfg.Search.PageSize)
	assert.False(t, cfg.App.PublicTickets)
}

func TestEnvBoolFallsBackOnGarbage(t *testing.T) {
	t.Setenv("APP_PUBLIC_TICKETS", "sometimes")
	assert.True(t, getEnvAsBool("APP_PUBLIC_TICKETS", true))
}

func TestLoadRejectsUnknownCacheDriver(t *testing.T) {
	t.Setenv("CACHE_DRIVER", "memcached")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsBadRedisDB(t *testing.T) {
	t.Setenv("REDIS_DB", "one")

	_, err := Load()
	assert.Error(t, err)
}

func TestDurationsFallBack(t *testing.T) {
	assert.Equal(t, time.Minute, CacheConfig{}.TTL())
	assert.Zero(t, SearchConfig{}.Debounce())
	assert.Zero(t, BackendConfig{}.Timeout())
	assert.Zero(t, AppConfig{}.RequestTimeout())
	assert.Equal(t, 30*time.Minute, NoticeConfig{}.MaxAge())
	assert.Zero(t, NoticeConfig{}.SweepInterval())
}
