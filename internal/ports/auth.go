package ports

// Package ports defines interfaces (hexagonal ports) for session,
// authorization and authentication behavior. Implementations live in
// internal/adapters; orchestration in internal/service.

import (
	"context"

	domainauth "github.com/Egem97/ttl-apg/internal/domain/auth"
)

// ErrSessionNotFound is returned by SessionStore.Get when a session does
// not exist or has expired. Callers must not distinguish the two cases.
type sessionNotFoundError struct{}

func (sessionNotFoundError) Error() string { return "session not found" }

var ErrSessionNotFound error = sessionNotFoundError{}

// ErrInvalidCredentials is returned by UserAuthenticator when the
// username/password pair does not resolve to a user.
type invalidCredentialsError struct{}

func (invalidCredentialsError) Error() string { return "invalid credentials" }

var ErrInvalidCredentials error = invalidCredentialsError{}

// SessionStats holds best-effort aggregate counts over the session
// keyspace. Producing it is O(number of keys); not for hot paths.
type SessionStats struct {
	ActiveSessions int `json:"active_sessions"`
	UniqueUsers    int `json:"unique_users_with_sessions"`
}

// SessionStore is the authoritative record of who is logged in, as whom,
// for which company, until when.
type SessionStore interface {
	// Create persists a new session for the given claims and returns its
	// opaque identifier. Each call produces a distinct session; multi-device
	// login is supported by design.
	Create(ctx context.Context, claims domainauth.UserClaims, meta domainauth.RequestMeta) (string, error)

	// Get resolves a session by ID. Returns ErrSessionNotFound when the
	// session is missing, expired, or unreadable. Does not renew the TTL.
	Get(ctx context.Context, id string) (domainauth.Session, error)

	// Touch updates the session's last-activity timestamp and resets its
	// TTL to the full session timeout (sliding expiration). Returns false
	// when the session no longer exists; callers treat that as expiry.
	Touch(ctx context.Context, id string) (bool, error)

	// Invalidate deletes the session and removes it from its owner's index.
	Invalidate(ctx context.Context, id string) (bool, error)

	// InvalidateAllForUser destroys every session belonging to the user
	// and returns the number invalidated. Idempotent; tolerates index
	// entries whose session already expired.
	InvalidateAllForUser(ctx context.Context, userID int64) (int, error)

	// ListForUser returns the user's active sessions, pruning stale index
	// entries as they are encountered.
	ListForUser(ctx context.Context, userID int64) ([]domainauth.Session, error)

	// Stats returns aggregate counts via key enumeration.
	Stats(ctx context.Context) (SessionStats, error)
}

// PermissionQuery groups the parameters of a fine-grained permission check.
type PermissionQuery struct {
	UserID    int64
	CompanyID int64
	Module    string
	Action    string
}

// PermissionOracle answers "can user U in company C perform action A on
// module M". May perform I/O; failures must be treated as deny by callers.
type PermissionOracle interface {
	Check(ctx context.Context, q PermissionQuery) (bool, error)
}

// UserAuthenticator resolves a username/password pair to validated user
// claims. The credential verification itself (password hashing, lockout)
// belongs to the external user store, not this subsystem.
type UserAuthenticator interface {
	Authenticate(ctx context.Context, username, password string) (domainauth.UserClaims, error)
}
