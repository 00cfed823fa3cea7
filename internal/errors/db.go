package errors

import (
	"context"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// MapDBError maps permission-database errors to AppError instances.
//
// Connectivity-class failures (timeouts, cancellations, connection
// exceptions) become StoreUnavailable so callers can distinguish "the
// database is down" from "the query said no". Anything else is wrapped
// as PermissionCheckFailed; the authorization guard treats both as deny.
func MapDBError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return StoreUnavailable("permission database timed out", err)
	}

	if errors.Is(err, pgx.ErrNoRows) {
		// A permission lookup with no rows is a plain deny, not an error;
		// repositories normally translate this before it gets here.
		return PermissionCheckFailed("permission row not found", err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgerrcode.IsConnectionException(pgErr.Code) ||
			pgerrcode.IsOperatorIntervention(pgErr.Code) ||
			pgerrcode.IsInsufficientResources(pgErr.Code) {
			return StoreUnavailable("permission database unavailable", err)
		}
		return PermissionCheckFailed("permission query failed", err)
	}

	return PermissionCheckFailed("permission check failed", err)
}
