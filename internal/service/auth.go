// Package service contains orchestration services coordinating ports.
package service

import (
	"context"
	"errors"
	"log/slog"

	domainauth "github.com/Egem97/ttl-apg/internal/domain/auth"
	apperrors "github.com/Egem97/ttl-apg/internal/errors"
	"github.com/Egem97/ttl-apg/internal/ports"
)

// AuthServiceOptions groups dependencies for AuthService.
type AuthServiceOptions struct {
	Authenticator ports.UserAuthenticator
	Sessions      ports.SessionStore
	Logger        *slog.Logger
}

// AuthService orchestrates authentication flows: credential verification
// through the authenticator port and session persistence through the
// session store.
type AuthService struct {
	authenticator ports.UserAuthenticator
	sessions      ports.SessionStore
	logger        *slog.Logger
}

// NewAuthService constructs a new AuthService.
func NewAuthService(opts AuthServiceOptions) *AuthService {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		authenticator: opts.Authenticator,
		sessions:      opts.Sessions,
		logger:        logger,
	}
}

// LoginInput groups parameters for a login attempt.
type LoginInput struct {
	Username string
	Password string
	Meta     domainauth.RequestMeta
}

// LoginResult contains the outcome of a successful login.
type LoginResult struct {
	SessionID string
	Session   domainauth.Session
}

// Login verifies credentials and creates a session. Invalid credentials
// surface as unauthenticated so handlers cannot leak whether the user
// exists.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	if input.Username == "" || input.Password == "" {
		return nil, apperrors.Validation("username and password are required")
	}

	claims, err := s.authenticator.Authenticate(ctx, input.Username, input.Password)
	if err != nil {
		if errors.Is(err, ports.ErrInvalidCredentials) {
			return nil, apperrors.Unauthenticated("invalid credentials")
		}
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "authenticate user")
	}

	id, err := s.sessions.Create(ctx, claims, input.Meta)
	if err != nil {
		return nil, err
	}

	sess, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "login succeeded",
		"user_id", claims.UserID,
		"company_id", claims.CompanyID,
	)
	return &LoginResult{SessionID: id, Session: sess}, nil
}

// GetSession resolves a session by ID without renewing its TTL.
func (s *AuthService) GetSession(ctx context.Context, sessionID string) (domainauth.Session, error) {
	if sessionID == "" {
		return domainauth.Session{}, ports.ErrSessionNotFound
	}
	return s.sessions.Get(ctx, sessionID)
}

// TouchSession renews a session's sliding TTL. Returns false when the
// session vanished between resolution and touch.
func (s *AuthService) TouchSession(ctx context.Context, sessionID string) (bool, error) {
	return s.sessions.Touch(ctx, sessionID)
}

// Logout invalidates a single session. A missing or empty session ID is
// a no-op; logout must always succeed from the caller's point of view.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if _, err := s.sessions.Invalidate(ctx, sessionID); err != nil {
		return err
	}
	return nil
}

// ListSessions returns the user's active sessions.
func (s *AuthService) ListSessions(ctx context.Context, userID int64) ([]domainauth.Session, error) {
	return s.sessions.ListForUser(ctx, userID)
}

// LogoutAll invalidates every session of the user, e.g. after a password
// change. Returns the number of sessions destroyed.
func (s *AuthService) LogoutAll(ctx context.Context, userID int64) (int, error) {
	return s.sessions.InvalidateAllForUser(ctx, userID)
}

// Stats returns aggregate session counts.
func (s *AuthService) Stats(ctx context.Context) (ports.SessionStats, error) {
	return s.sessions.Stats(ctx)
}
