package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	domainauth "github.com/Egem97/ttl-apg/internal/domain/auth"
	apperrors "github.com/Egem97/ttl-apg/internal/errors"
	"github.com/Egem97/ttl-apg/internal/ports"
)

// Logging returns a middleware that logs HTTP requests and responses.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			const defaultHTTPStatus = 200
			ww := &respWriter{ResponseWriter: w, status: defaultHTTPStatus}
			next.ServeHTTP(ww, r)
			logger.Info("http",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.status),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}

type respWriter struct {
	http.ResponseWriter
	status int
}

func (w *respWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Recover returns a middleware that recovers from panics and logs them.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error("panic",
						slog.Any("error", err),
						slog.String("path", r.URL.Path),
						slog.String("method", r.Method),
						slog.String("stack", string(debug.Stack())))
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// GuardSessions is the subset of the auth service the guard consumes.
type GuardSessions interface {
	GetSession(ctx context.Context, sessionID string) (domainauth.Session, error)
	TouchSession(ctx context.Context, sessionID string) (bool, error)
}

// Guard enforces authentication and authorization on routes. Every check
// resolves the session once, renews its sliding TTL, then evaluates the
// policy. Denials render through the shared error taxonomy; a failing
// permission oracle always denies.
type Guard struct {
	sessions GuardSessions
	oracle   ports.PermissionOracle
	logger   *slog.Logger
}

// GuardOptions groups dependencies for a Guard. Oracle may be nil only
// when no route uses RequirePermission.
type GuardOptions struct {
	Sessions GuardSessions
	Oracle   ports.PermissionOracle
	Logger   *slog.Logger
}

// NewGuard constructs a Guard.
func NewGuard(opts GuardOptions) *Guard {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Guard{sessions: opts.Sessions, oracle: opts.Oracle, logger: logger}
}

// SessionToken extracts the session token from a request: the
// Authorization Bearer header wins, the session_id cookie is the
// fallback. Returns "" when neither is present.
func SessionToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		parts := strings.SplitN(h, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") && parts[1] != "" {
			return parts[1]
		}
	}
	if c, err := r.Cookie("session_id"); err == nil {
		return c.Value
	}
	return ""
}

// resolve authenticates the request: extract token, load the session,
// renew its sliding TTL. An inner middleware reuses the session already
// resolved by an outer one rather than touching twice.
func (g *Guard) resolve(r *http.Request) (domainauth.Session, error) {
	if s, ok := GetUserSessionFromContext(r.Context()); ok {
		return *s, nil
	}

	token := SessionToken(r)
	if token == "" {
		return domainauth.Session{}, apperrors.Unauthenticated("authentication required")
	}

	sess, err := g.sessions.GetSession(r.Context(), token)
	if err != nil {
		if errors.Is(err, ports.ErrSessionNotFound) {
			return domainauth.Session{}, apperrors.Unauthenticated("session expired or invalid")
		}
		return domainauth.Session{}, err
	}

	ok, err := g.sessions.TouchSession(r.Context(), token)
	if err != nil {
		return domainauth.Session{}, err
	}
	if !ok {
		// Session vanished between read and touch; treat as expiry.
		return domainauth.Session{}, apperrors.Unauthenticated("session expired or invalid")
	}

	return sess, nil
}

// RequireAuth requires a valid session and attaches it to the request context.
func (g *Guard) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := g.resolve(r)
		if err != nil {
			RenderAppError(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(SetSessionInContext(r.Context(), &sess)))
	})
}

// RequireRole requires a valid session whose role is one of required.
// Admin sessions always pass.
func (g *Guard) RequireRole(required ...domainauth.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := g.resolve(r)
			if err != nil {
				RenderAppError(w, err)
				return
			}
			if !sess.HasRole(required...) {
				RenderAppError(w, apperrors.Forbidden("insufficient role"))
				return
			}
			next.ServeHTTP(w, r.WithContext(SetSessionInContext(r.Context(), &sess)))
		})
	}
}

// RequirePermission requires a fine-grained module/action permission,
// checked against the oracle within the session's company. Admin
// sessions skip the oracle. An oracle failure is logged and denied; the
// guard never fails open.
func (g *Guard) RequirePermission(module, action string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := g.resolve(r)
			if err != nil {
				RenderAppError(w, err)
				return
			}

			if !sess.IsAdmin {
				allowed, err := g.oracle.Check(r.Context(), ports.PermissionQuery{
					UserID:    sess.UserID,
					CompanyID: sess.CompanyID,
					Module:    module,
					Action:    action,
				})
				if err != nil {
					g.logger.ErrorContext(r.Context(), "permission check failed, denying",
						"user_id", sess.UserID,
						"module", module,
						"action", action,
						"error", err,
					)
					RenderAppError(w, apperrors.PermissionCheckFailed("permission check failed", err))
					return
				}
				if !allowed {
					RenderAppError(w, apperrors.Forbiddenf("missing permission %s:%s", module, action))
					return
				}
			}

			next.ServeHTTP(w, r.WithContext(SetSessionInContext(r.Context(), &sess)))
		})
	}
}

// RequireCompanyAccess requires that the session may access the company
// named by the given path parameter. Non-admin sessions are confined to
// their own company.
func (g *Guard) RequireCompanyAccess(param string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := g.resolve(r)
			if err != nil {
				RenderAppError(w, err)
				return
			}

			companyID, err := strconv.ParseInt(r.PathValue(param), 10, 64)
			if err != nil || companyID <= 0 {
				RenderAppError(w, apperrors.Validation("invalid company ID"))
				return
			}
			if !sess.CanAccessCompany(companyID) {
				g.logger.WarnContext(r.Context(), "cross-company access denied",
					"user_id", sess.UserID,
					"session_company", sess.CompanyID,
					"requested_company", companyID,
				)
				RenderAppError(w, apperrors.CompanyAccessDenied("access to this company is not allowed"))
				return
			}

			next.ServeHTTP(w, r.WithContext(SetSessionInContext(r.Context(), &sess)))
		})
	}
}
