package bootstrap

import (
	"database/sql"
	"errors"
	"log/slog"

	"github.com/Egem97/ttl-apg/config"
	"github.com/Egem97/ttl-apg/internal/adapters/devauth"
	"github.com/Egem97/ttl-apg/internal/adapters/userstore"
	"github.com/Egem97/ttl-apg/internal/ports"
	"github.com/Egem97/ttl-apg/internal/service"
)

// AuthDeps contains dependencies for building the auth service.
type AuthDeps struct {
	Auth     config.AuthConfig
	DB       *sql.DB
	Sessions ports.SessionStore
	Logger   *slog.Logger
}

// BuildAuthService creates the auth service based on the configured auth
// mode. Database mode authenticates against the external user store;
// mock mode accepts any non-empty credentials and issues a fixed
// development identity.
func BuildAuthService(deps AuthDeps) (*service.AuthService, error) {
	if deps.Sessions == nil {
		return nil, errors.New("session store is required")
	}

	authenticator, err := buildAuthenticator(deps)
	if err != nil {
		return nil, err
	}

	return service.NewAuthService(service.AuthServiceOptions{
		Authenticator: authenticator,
		Sessions:      deps.Sessions,
		Logger:        deps.Logger,
	}), nil
}

//nolint:ireturn // the authenticator implementation is selected at runtime.
func buildAuthenticator(deps AuthDeps) (ports.UserAuthenticator, error) {
	switch deps.Auth.Mode {
	case config.AuthModeMock:
		if deps.Logger != nil {
			deps.Logger.Warn("mock authentication enabled; do not use in production",
				"user_id", deps.Auth.DevAuth.UserID)
		}
		return devauth.NewAuthenticator(deps.Auth.DevAuth), nil

	case config.AuthModeDatabase:
		if deps.DB == nil {
			return nil, errors.New("database auth mode requires a database connection")
		}
		return userstore.NewPostgresAuthenticator(deps.DB, deps.Logger), nil

	default:
		return nil, errors.New("unsupported auth mode: " + string(deps.Auth.Mode))
	}
}
