// Package userstore authenticates credentials against the external
// user database. It owns the only code path that ever sees a password;
// sessions and permission checks work from the claims it returns.
package userstore

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"

	domainauth "github.com/Egem97/ttl-apg/internal/domain/auth"
	apperrors "github.com/Egem97/ttl-apg/internal/errors"
	"github.com/Egem97/ttl-apg/internal/ports"
)

const userQuery = `
SELECT u.id, u.username, u.email, u.full_name, u.password_hash,
       u.company_id, c.name, u.role, u.is_admin
FROM users u
JOIN companies c ON c.id = u.company_id
WHERE lower(u.username) = lower($1)
  AND u.active
  AND c.active`

// PostgresAuthenticator resolves username/password pairs against the
// users table of the shared BI database.
type PostgresAuthenticator struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresAuthenticator creates an authenticator backed by the given
// database handle.
func NewPostgresAuthenticator(db *sql.DB, logger *slog.Logger) *PostgresAuthenticator {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresAuthenticator{db: db, logger: logger}
}

var _ ports.UserAuthenticator = (*PostgresAuthenticator)(nil)

// Authenticate looks the user up and verifies the password against the
// stored argon2id hash. Unknown users, inactive users and wrong
// passwords all collapse into ErrInvalidCredentials so the response
// cannot be used to probe for valid usernames.
func (a *PostgresAuthenticator) Authenticate(
	ctx context.Context,
	username, password string,
) (domainauth.UserClaims, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return domainauth.UserClaims{}, ports.ErrInvalidCredentials
	}

	var (
		claims domainauth.UserClaims
		role   string
		hash   string
	)
	err := a.db.QueryRowContext(ctx, userQuery, username).Scan(
		&claims.UserID,
		&claims.Username,
		&claims.Email,
		&claims.FullName,
		&hash,
		&claims.CompanyID,
		&claims.CompanyName,
		&role,
		&claims.IsAdmin,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domainauth.UserClaims{}, ports.ErrInvalidCredentials
		}
		return domainauth.UserClaims{}, apperrors.StoreUnavailable("user store query failed", err)
	}

	ok, err := verifyPassword(password, hash)
	if err != nil {
		// A row with an unparseable hash is a data problem, not a caller
		// problem. Log it and deny.
		a.logger.ErrorContext(ctx, "malformed password hash in user store",
			"user_id", claims.UserID, "error", err)
		return domainauth.UserClaims{}, ports.ErrInvalidCredentials
	}
	if !ok {
		return domainauth.UserClaims{}, ports.ErrInvalidCredentials
	}

	claims.Role = domainauth.ParseRole(role)
	return claims, nil
}

// Ping verifies user store connectivity, for health checks.
func (a *PostgresAuthenticator) Ping(ctx context.Context) error {
	if err := a.db.PingContext(ctx); err != nil {
		return apperrors.StoreUnavailable("ping user store", err)
	}
	return nil
}
