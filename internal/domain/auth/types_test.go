package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Role
	}{
		{"admin", "admin", RoleAdmin},
		{"manager", "manager", RoleManager},
		{"analyst", "analyst", RoleAnalyst},
		{"guest", "guest", RoleGuest},
		{"unknown degrades to guest", "superuser", RoleGuest},
		{"empty degrades to guest", "", RoleGuest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseRole(tt.in))
		})
	}
}

func TestSession_HasRole(t *testing.T) {
	t.Run("admin flag satisfies any requirement", func(t *testing.T) {
		s := Session{Role: RoleGuest, IsAdmin: true}
		assert.True(t, s.HasRole(RoleManager))
		assert.True(t, s.HasRole(RoleAnalyst, RoleManager))
	})

	t.Run("role must be in required set", func(t *testing.T) {
		s := Session{Role: RoleAnalyst}
		assert.True(t, s.HasRole(RoleAnalyst))
		assert.True(t, s.HasRole(RoleManager, RoleAnalyst))
		assert.False(t, s.HasRole(RoleManager))
		assert.False(t, s.HasRole())
	})
}

func TestSession_CanAccessCompany(t *testing.T) {
	s := Session{CompanyID: 7}
	assert.True(t, s.CanAccessCompany(7))
	assert.False(t, s.CanAccessCompany(9))

	admin := Session{CompanyID: 7, IsAdmin: true}
	assert.True(t, admin.CanAccessCompany(9))
}

func TestSession_Expired(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	live := Session{ExpiresAt: now.Add(time.Minute)}
	dead := Session{ExpiresAt: now.Add(-time.Minute)}

	assert.False(t, live.Expired(now))
	assert.True(t, dead.Expired(now))
}
