package config

import (
	"fmt"
	"strings"
	"time"
)

// AuthMode represents the authentication mode for the application.
type AuthMode string

const (
	// AuthModeDatabase authenticates against the external user store.
	AuthModeDatabase AuthMode = "database"
	// AuthModeMock uses mock/dev authentication (for development only).
	AuthModeMock AuthMode = "mock"
)

// UnmarshalText implements encoding.TextUnmarshaler for AuthMode.
func (a *AuthMode) UnmarshalText(text []byte) error {
	v := strings.ToLower(string(text))
	switch v {
	case "database", "mock":
		*a = AuthMode(v)
		return nil
	default:
		return fmt.Errorf("invalid AuthMode: %q (valid options: database, mock)", v)
	}
}

// DevAuthConfig controls mock/dev authentication identity.
// Used when AUTH_MODE=mock for development and testing.
type DevAuthConfig struct {
	UserID      int64  `env:"USER_ID"      envDefault:"1"`
	Username    string `env:"USERNAME"     envDefault:"dev-user"`
	Email       string `env:"EMAIL"        envDefault:"dev@example.com"`
	CompanyID   int64  `env:"COMPANY_ID"   envDefault:"1"`
	CompanyName string `env:"COMPANY_NAME" envDefault:"Dev Company"`
	Role        string `env:"ROLE"         envDefault:"admin"`
	IsAdmin     bool   `env:"IS_ADMIN"     envDefault:"true"`
	FullName    string `env:"FULL_NAME"    envDefault:"Dev User"`
}

// AuthConfig groups authentication and session configuration.
type AuthConfig struct {
	// Mode determines which authenticator backs the login endpoint.
	Mode AuthMode `env:"AUTH_MODE" envDefault:"database"`

	// SessionTimeout is the sliding session TTL. Every authorized request
	// resets the session record to this full duration.
	SessionTimeout time.Duration `env:"SESSION_TIMEOUT" envDefault:"8h"`

	// DevAuth configuration (used when Mode=mock).
	DevAuth DevAuthConfig `envPrefix:"DEV_AUTH_"`
}

// Sanitize applies guardrails to auth configuration values.
func (a *AuthConfig) Sanitize() {
	if a.SessionTimeout <= 0 {
		a.SessionTimeout = 8 * time.Hour
	}
}
