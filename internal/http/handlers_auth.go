package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	domainauth "github.com/Egem97/ttl-apg/internal/domain/auth"
	"github.com/Egem97/ttl-apg/internal/ports"
	"github.com/Egem97/ttl-apg/internal/service"
)

var errAuthRequired = errors.New("authentication required")

// AuthService defines the auth service operations the HTTP layer consumes.
type AuthService interface {
	Login(ctx context.Context, input service.LoginInput) (*service.LoginResult, error)
	Logout(ctx context.Context, sessionID string) error
	GetSession(ctx context.Context, sessionID string) (domainauth.Session, error)
	TouchSession(ctx context.Context, sessionID string) (bool, error)
	ListSessions(ctx context.Context, userID int64) ([]domainauth.Session, error)
	LogoutAll(ctx context.Context, userID int64) (int, error)
	Stats(ctx context.Context) (ports.SessionStats, error)
}

// AuthHandlers provides HTTP handlers for authentication operations.
type AuthHandlers struct {
	Svc            AuthService
	CookieDomain   string
	CookieSecure   bool
	SessionTimeout time.Duration
	Logger         *slog.Logger
}

func (h *AuthHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login handles credential login.
// POST /api/auth/login.
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	result, err := h.Svc.Login(r.Context(), service.LoginInput{
		Username: req.Username,
		Password: req.Password,
		Meta:     requestMeta(r),
	})
	if err != nil {
		RenderAppError(w, err)
		return
	}

	h.setSessionCookie(w, r, result.SessionID)
	WriteJSON(w, http.StatusOK, map[string]any{
		"session_id": result.SessionID,
		"user":       userPayload(result.Session),
		"expires_at": result.Session.ExpiresAt,
	})
}

// Logout invalidates the current session and clears the cookie.
// POST /api/auth/logout.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	if token := SessionToken(r); token != "" {
		if err := h.Svc.Logout(r.Context(), token); err != nil {
			// Cookie is cleared regardless; a dead store must not trap the
			// user in a logged-in client state.
			h.logger().WarnContext(r.Context(), "logout failed", "error", err)
		}
	}
	h.clearCookie(w, r, "session_id")
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Me returns the authenticated caller's identity.
// GET /api/auth/me (behind RequireAuth).
func (h *AuthHandlers) Me(w http.ResponseWriter, r *http.Request) {
	sess := GetSessionFromContext(r.Context())
	if sess == nil {
		WriteError(w, ErrorParams{Code: http.StatusUnauthorized, ErrCode: "unauthenticated", Err: errAuthRequired})
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"user":          userPayload(*sess),
		"last_activity": sess.LastActivity,
		"expires_at":    sess.ExpiresAt,
	})
}

// Sessions lists the caller's active sessions across devices.
// GET /api/auth/sessions (behind RequireAuth).
func (h *AuthHandlers) Sessions(w http.ResponseWriter, r *http.Request) {
	sess := GetSessionFromContext(r.Context())
	if sess == nil {
		WriteError(w, ErrorParams{Code: http.StatusUnauthorized, ErrCode: "unauthenticated", Err: errAuthRequired})
		return
	}

	sessions, err := h.Svc.ListSessions(r.Context(), sess.UserID)
	if err != nil {
		RenderAppError(w, err)
		return
	}

	items := make([]map[string]any, 0, len(sessions))
	for _, s := range sessions {
		items = append(items, map[string]any{
			"id":            s.ID,
			"ip_address":    s.IPAddress,
			"user_agent":    s.UserAgent,
			"created_at":    s.CreatedAt,
			"last_activity": s.LastActivity,
			"expires_at":    s.ExpiresAt,
			"current":       s.ID == sess.ID,
		})
	}
	WriteJSON(w, http.StatusOK, map[string]any{"sessions": items})
}

// LogoutAll invalidates every session of the caller, e.g. after a
// password change.
// DELETE /api/auth/sessions (behind RequireAuth).
func (h *AuthHandlers) LogoutAll(w http.ResponseWriter, r *http.Request) {
	sess := GetSessionFromContext(r.Context())
	if sess == nil {
		WriteError(w, ErrorParams{Code: http.StatusUnauthorized, ErrCode: "unauthenticated", Err: errAuthRequired})
		return
	}

	count, err := h.Svc.LogoutAll(r.Context(), sess.UserID)
	if err != nil {
		RenderAppError(w, err)
		return
	}

	h.clearCookie(w, r, "session_id")
	WriteJSON(w, http.StatusOK, map[string]any{"invalidated": count})
}

func userPayload(s domainauth.Session) map[string]any {
	return map[string]any{
		"id":           s.UserID,
		"username":     s.Username,
		"email":        s.Email,
		"full_name":    s.FullName,
		"company_id":   s.CompanyID,
		"company_name": s.CompanyName,
		"role":         s.Role,
		"is_admin":     s.IsAdmin,
	}
}

// requestMeta extracts client metadata recorded on the session. The
// first X-Forwarded-For hop wins when present.
func requestMeta(r *http.Request) domainauth.RequestMeta {
	ip := r.Header.Get("X-Forwarded-For")
	if ip != "" {
		if idx := strings.Index(ip, ","); idx != -1 {
			ip = ip[:idx]
		}
		ip = strings.TrimSpace(ip)
	} else {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err == nil {
			ip = host
		} else {
			ip = r.RemoteAddr
		}
	}
	return domainauth.RequestMeta{IPAddress: ip, UserAgent: r.UserAgent()}
}

func (h *AuthHandlers) cookieSecure(r *http.Request) bool {
	return h.CookieSecure || r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}

// setSessionCookie writes the session cookie with the full session timeout.
func (h *AuthHandlers) setSessionCookie(w http.ResponseWriter, r *http.Request, sessionID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     "session_id",
		Value:    sessionID,
		Path:     "/",
		Domain:   h.CookieDomain,
		HttpOnly: true,
		Secure:   h.cookieSecure(r),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(h.SessionTimeout.Seconds()),
	})
}

// clearCookie clears a cookie by setting it to expire immediately.
// It mirrors key attributes used when setting cookies to maximize
// compatibility across browsers during deletion.
func (h *AuthHandlers) clearCookie(w http.ResponseWriter, r *http.Request, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Domain:   h.CookieDomain,
		HttpOnly: true,
		Secure:   h.cookieSecure(r),
		MaxAge:   -1,
		Expires:  time.Unix(0, 0).UTC(),
		SameSite: http.SameSiteLaxMode,
	})
}
