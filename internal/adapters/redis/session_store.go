package redis

// Package redis provides Redis-based adapters for the dashboard's session
// and cache subsystem.

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	domainauth "github.com/Egem97/ttl-apg/internal/domain/auth"
	apperrors "github.com/Egem97/ttl-apg/internal/errors"
	"github.com/Egem97/ttl-apg/internal/ports"
)

const (
	sessionPrefix   = "session:"
	userIndexPrefix = "user_sessions:"
)

// SessionStore is a Redis-based session store for production use.
// Sessions use sliding expiration: Touch rewrites the record with the
// full session timeout. A per-user index set tracks active sessions so
// they can be enumerated and mass-invalidated.
type SessionStore struct {
	client  redis.UniversalClient
	timeout time.Duration
	logger  *slog.Logger
	now     func() time.Time
}

// SessionStoreOption customizes a SessionStore.
type SessionStoreOption func(*SessionStore)

// WithLogger sets the logger used for self-heal events.
func WithLogger(logger *slog.Logger) SessionStoreOption {
	return func(s *SessionStore) { s.logger = logger }
}

// WithNow overrides the clock, for tests.
func WithNow(now func() time.Time) SessionStoreOption {
	return func(s *SessionStore) { s.now = now }
}

// NewSessionStore creates a new Redis-based session store. The timeout is
// the sliding session TTL applied on create and on every touch.
func NewSessionStore(client redis.UniversalClient, timeout time.Duration, opts ...SessionStoreOption) *SessionStore {
	s := &SessionStore{
		client:  client,
		timeout: timeout,
		logger:  slog.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ ports.SessionStore = (*SessionStore)(nil)

func sessionKey(id string) string { return sessionPrefix + id }

func userIndexKey(userID int64) string { return fmt.Sprintf("%s%d", userIndexPrefix, userID) }

// generateSessionID concatenates two independent random sources so the
// identifier is never derivable from either alone: a v4 UUID and 16 bytes
// from crypto/rand.
func generateSessionID() (string, error) {
	id := uuid.New()
	token := make([]byte, 16)
	if _, err := rand.Read(token); err != nil {
		return "", fmt.Errorf("read random token: %w", err)
	}
	return hex.EncodeToString(id[:]) + "_" + hex.EncodeToString(token), nil
}

// Create persists a new session and registers it in the owner's index set.
// The index set's TTL is refreshed alongside so it cannot outlive its
// newest member.
func (s *SessionStore) Create(
	ctx context.Context,
	claims domainauth.UserClaims,
	meta domainauth.RequestMeta,
) (string, error) {
	if claims.UserID == 0 {
		return "", apperrors.Validation("user ID is required")
	}

	id, err := generateSessionID()
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.ErrCodeInternal, "generate session id")
	}

	now := s.now().UTC()
	sess := domainauth.Session{
		ID:           id,
		UserID:       claims.UserID,
		Username:     claims.Username,
		Email:        claims.Email,
		CompanyID:    claims.CompanyID,
		CompanyName:  claims.CompanyName,
		Role:         claims.Role,
		IsAdmin:      claims.IsAdmin,
		FullName:     claims.FullName,
		IPAddress:    meta.IPAddress,
		UserAgent:    meta.UserAgent,
		CreatedAt:    now,
		LastActivity: now,
		ExpiresAt:    now.Add(s.timeout),
	}

	data, err := json.Marshal(sess)
	if err != nil {
		return "", apperrors.Serialization("marshal session", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, sessionKey(id), data, s.timeout)
	pipe.SAdd(ctx, userIndexKey(claims.UserID), id)
	pipe.Expire(ctx, userIndexKey(claims.UserID), s.timeout)
	if _, err := pipe.Exec(ctx); err != nil {
		return "", storeErr("create session", err)
	}

	s.logger.InfoContext(ctx, "session created",
		"user_id", claims.UserID,
		"company_id", claims.CompanyID,
		"username", claims.Username,
	)
	return id, nil
}

// Get resolves a session without renewing its TTL. A corrupt record is
// deleted and reported as not found so a bad payload can never crash the
// caller or wedge a login.
func (s *SessionStore) Get(ctx context.Context, id string) (domainauth.Session, error) {
	if id == "" {
		return domainauth.Session{}, ports.ErrSessionNotFound
	}

	data, err := s.client.Get(ctx, sessionKey(id)).Result()
	if err != nil {
		if err == redis.Nil {
			return domainauth.Session{}, ports.ErrSessionNotFound
		}
		return domainauth.Session{}, storeErr("get session", err)
	}

	var sess domainauth.Session
	if err := json.Unmarshal([]byte(data), &sess); err != nil {
		s.logger.ErrorContext(ctx, "corrupt session record, deleting", "error", err)
		if delErr := s.client.Del(ctx, sessionKey(id)).Err(); delErr != nil {
			return domainauth.Session{}, storeErr("delete corrupt session", delErr)
		}
		return domainauth.Session{}, ports.ErrSessionNotFound
	}

	// The Redis TTL normally enforces expiry; double-check the embedded
	// timestamp in case the record was written with a skewed clock.
	if sess.Expired(s.now()) {
		if _, err := s.Invalidate(ctx, id); err != nil {
			return domainauth.Session{}, err
		}
		return domainauth.Session{}, ports.ErrSessionNotFound
	}

	return sess, nil
}

// Touch implements sliding expiration: the record is rewritten with
// last-activity set to now and the TTL reset to the full session timeout.
// Concurrent touches are last-write-wins; both extend the TTL.
func (s *SessionStore) Touch(ctx context.Context, id string) (bool, error) {
	sess, err := s.Get(ctx, id)
	if err != nil {
		if err == ports.ErrSessionNotFound {
			return false, nil
		}
		return false, err
	}

	now := s.now().UTC()
	sess.LastActivity = now
	sess.ExpiresAt = now.Add(s.timeout)

	data, err := json.Marshal(sess)
	if err != nil {
		return false, apperrors.Serialization("marshal session", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, sessionKey(id), data, s.timeout)
	pipe.Expire(ctx, userIndexKey(sess.UserID), s.timeout)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, storeErr("touch session", err)
	}
	return true, nil
}

// Invalidate deletes the session record and removes it from its owner's
// index set. Returns false when the session did not exist.
func (s *SessionStore) Invalidate(ctx context.Context, id string) (bool, error) {
	if id == "" {
		return false, nil
	}

	// Resolve the owner first so the index entry can be removed too.
	data, err := s.client.Get(ctx, sessionKey(id)).Result()
	if err != nil {
		if err == redis.Nil {
			return false, nil
		}
		return false, storeErr("get session", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, sessionKey(id))
	var sess domainauth.Session
	if jsonErr := json.Unmarshal([]byte(data), &sess); jsonErr == nil {
		pipe.SRem(ctx, userIndexKey(sess.UserID), id)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return false, storeErr("invalidate session", err)
	}

	s.logger.InfoContext(ctx, "session invalidated", "session_suffix", tail(id))
	return true, nil
}

// InvalidateAllForUser enumerates the user's index set, deletes each
// member, then deletes the set itself. Entries whose session already
// expired are tolerated and simply dropped with the index.
func (s *SessionStore) InvalidateAllForUser(ctx context.Context, userID int64) (int, error) {
	ids, err := s.client.SMembers(ctx, userIndexKey(userID)).Result()
	if err != nil {
		return 0, storeErr("list user sessions", err)
	}

	count := 0
	for _, id := range ids {
		ok, err := s.Invalidate(ctx, id)
		if err != nil {
			return count, err
		}
		if ok {
			count++
		}
	}

	if err := s.client.Del(ctx, userIndexKey(userID)).Err(); err != nil {
		return count, storeErr("delete user session index", err)
	}

	s.logger.InfoContext(ctx, "user sessions invalidated", "user_id", userID, "count", count)
	return count, nil
}

// ListForUser resolves each indexed session and opportunistically prunes
// index entries whose session no longer exists.
func (s *SessionStore) ListForUser(ctx context.Context, userID int64) ([]domainauth.Session, error) {
	ids, err := s.client.SMembers(ctx, userIndexKey(userID)).Result()
	if err != nil {
		return nil, storeErr("list user sessions", err)
	}

	sessions := make([]domainauth.Session, 0, len(ids))
	for _, id := range ids {
		sess, err := s.Get(ctx, id)
		if err != nil {
			if err == ports.ErrSessionNotFound {
				// Self-heal: drop the stale index entry.
				if remErr := s.client.SRem(ctx, userIndexKey(userID), id).Err(); remErr != nil {
					return nil, storeErr("prune stale session index entry", remErr)
				}
				continue
			}
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	return sessions, nil
}

// Stats counts session and index keys via SCAN. O(number of keys); meant
// for an admin endpoint, never a request-serving path.
func (s *SessionStore) Stats(ctx context.Context) (ports.SessionStats, error) {
	active, err := s.countKeys(ctx, sessionPrefix+"*")
	if err != nil {
		return ports.SessionStats{}, err
	}
	users, err := s.countKeys(ctx, userIndexPrefix+"*")
	if err != nil {
		return ports.SessionStats{}, err
	}
	return ports.SessionStats{ActiveSessions: active, UniqueUsers: users}, nil
}

func (s *SessionStore) countKeys(ctx context.Context, pattern string) (int, error) {
	var count int
	iter := s.client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		count++
	}
	if err := iter.Err(); err != nil {
		return 0, storeErr("scan keys", err)
	}
	return count, nil
}

// Ping verifies connectivity, for health checks.
func (s *SessionStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return storeErr("ping", err)
	}
	return nil
}

// storeErr wraps a Redis failure as StoreUnavailable. Timeouts land here
// too: a timed-out read must never be mistaken for "not found".
func storeErr(op string, err error) error {
	return apperrors.StoreUnavailable(op, err)
}

// tail returns the last few characters of a session ID for log lines,
// enough to correlate without exposing the token.
func tail(id string) string {
	const n = 8
	if len(id) <= n {
		return id
	}
	return id[len(id)-n:]
}
