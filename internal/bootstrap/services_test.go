package bootstrap

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Egem97/ttl-apg/config"
	"github.com/Egem97/ttl-apg/internal/testutil"
)

func testAppConfig() *config.AppConfig {
	return &config.AppConfig{
		Auth:     mockAuthConfig(),
		Cache:    config.CacheConfig{DefaultTTL: time.Hour},
		Services: "http",
	}
}

func TestNewServices_MockAuthWithoutDatabase(t *testing.T) {
	_, sessionClient := testutil.NewRedis(t)
	_, cacheClient := testutil.NewRedis(t)

	container, err := NewServices(&ServiceDeps{
		Config:       testAppConfig(),
		SessionRedis: sessionClient,
		CacheRedis:   cacheClient,
	})
	require.NoError(t, err)

	assert.NotNil(t, container.Auth)
	assert.NotNil(t, container.Sessions)
	assert.NotNil(t, container.Cache)
	assert.NotNil(t, container.Memo)

	// Without a database there is no permission oracle and no dashboard
	// source; health reports only the Redis-backed stores.
	assert.Nil(t, container.Oracle)
	assert.Nil(t, container.Dashboard)
	assert.Contains(t, container.Health, "sessions")
	assert.Contains(t, container.Health, "cache")
	assert.NotContains(t, container.Health, "permissions")
}

func TestNewServices_RequiresConfig(t *testing.T) {
	_, err := NewServices(nil)
	require.Error(t, err)

	_, err = NewServices(&ServiceDeps{})
	require.Error(t, err)
}

func TestValidateServiceConfig(t *testing.T) {
	cfg := testAppConfig()
	require.NoError(t, ValidateServiceConfig(cfg))

	cfg.Services = "http,reaper"
	require.NoError(t, ValidateServiceConfig(cfg))

	cfg.Services = "bogus"
	assert.Error(t, ValidateServiceConfig(cfg))

	cfg.Services = ""
	assert.Error(t, ValidateServiceConfig(cfg))

	assert.Error(t, ValidateServiceConfig(nil))
}

func TestGetEnabledServices(t *testing.T) {
	cfg := testAppConfig()
	cfg.Services = "http,reaper"
	assert.ElementsMatch(t, []string{"http", "reaper"}, GetEnabledServices(cfg))

	cfg.Services = "bogus"
	assert.Empty(t, GetEnabledServices(cfg))

	assert.Empty(t, GetEnabledServices(nil))
}
