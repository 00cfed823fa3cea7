package bootstrap

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Egem97/ttl-apg/config"
	adapterredis "github.com/Egem97/ttl-apg/internal/adapters/redis"
	"github.com/Egem97/ttl-apg/internal/service"
	"github.com/Egem97/ttl-apg/internal/testutil"
)

func mockAuthConfig() config.AuthConfig {
	return config.AuthConfig{
		Mode:           config.AuthModeMock,
		SessionTimeout: time.Hour,
		DevAuth: config.DevAuthConfig{
			UserID:      42,
			Username:    "dev-user",
			Email:       "dev@example.com",
			CompanyID:   7,
			CompanyName: "Dev Company",
			Role:        "admin",
			IsAdmin:     true,
			FullName:    "Dev User",
		},
	}
}

func TestBuildAuthService_MockMode(t *testing.T) {
	_, client := testutil.NewRedis(t)
	sessions := adapterredis.NewSessionStore(client, time.Hour)

	svc, err := BuildAuthService(AuthDeps{
		Auth:     mockAuthConfig(),
		Sessions: sessions,
	})
	require.NoError(t, err)

	result, err := svc.Login(context.Background(), service.LoginInput{
		Username: "anyone",
		Password: "anything",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(42), result.Session.UserID)
	assert.Equal(t, int64(7), result.Session.CompanyID)
	assert.True(t, result.Session.IsAdmin)
}

func TestBuildAuthService_DatabaseModeRequiresDB(t *testing.T) {
	_, client := testutil.NewRedis(t)
	sessions := adapterredis.NewSessionStore(client, time.Hour)

	_, err := BuildAuthService(AuthDeps{
		Auth:     config.AuthConfig{Mode: config.AuthModeDatabase},
		Sessions: sessions,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database connection")
}

func TestBuildAuthService_RequiresSessionStore(t *testing.T) {
	_, err := BuildAuthService(AuthDeps{Auth: mockAuthConfig()})
	require.Error(t, err)
}
