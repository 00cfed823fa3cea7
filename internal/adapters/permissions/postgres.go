// Package permissions provides the Postgres-backed permission oracle.
package permissions

import (
	"context"
	"database/sql"
	"log/slog"

	apperrors "github.com/Egem97/ttl-apg/internal/errors"
	"github.com/Egem97/ttl-apg/internal/ports"
)

// PostgresOracle answers permission checks against the user store's
// permission tables. Every failure is surfaced as an error so callers
// can deny; this adapter never guesses.
type PostgresOracle struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresOracle creates a PostgresOracle. logger may be nil.
func NewPostgresOracle(db *sql.DB, logger *slog.Logger) *PostgresOracle {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresOracle{db: db, logger: logger}
}

var _ ports.PermissionOracle = (*PostgresOracle)(nil)

const checkQuery = `
SELECT EXISTS (
	SELECT 1
	FROM user_permissions up
	JOIN permissions p ON p.id = up.permission_id
	WHERE up.user_id = $1
	  AND up.company_id = $2
	  AND p.module = $3
	  AND p.action = $4
	  AND up.revoked_at IS NULL
)`

// Check reports whether the user holds the module/action permission
// within the company. Database failures map through the shared error
// classifier; the caller treats any error as deny.
func (o *PostgresOracle) Check(ctx context.Context, q ports.PermissionQuery) (bool, error) {
	if q.UserID == 0 || q.Module == "" || q.Action == "" {
		return false, apperrors.Validation("user, module and action are required")
	}

	var allowed bool
	err := o.db.QueryRowContext(ctx, checkQuery, q.UserID, q.CompanyID, q.Module, q.Action).Scan(&allowed)
	if err != nil {
		o.logger.ErrorContext(ctx, "permission check failed",
			"user_id", q.UserID,
			"company_id", q.CompanyID,
			"module", q.Module,
			"action", q.Action,
			"error", err,
		)
		return false, apperrors.MapDBError(err)
	}
	return allowed, nil
}

// Ping verifies database connectivity, for health checks.
func (o *PostgresOracle) Ping(ctx context.Context) error {
	if err := o.db.PingContext(ctx); err != nil {
		return apperrors.StoreUnavailable("permission database ping", err)
	}
	return nil
}
