package httpx

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/Egem97/ttl-apg/internal/cache"
	domainauth "github.com/Egem97/ttl-apg/internal/domain/auth"
	"github.com/Egem97/ttl-apg/internal/ports"
)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Auth      AuthService
	Oracle    ports.PermissionOracle
	Cache     *cache.Store
	Memo      *cache.Memoizer
	Dashboard DashboardSource
	// Health maps store names to connectivity checks for /healthz.
	Health map[string]Pinger

	CookieDomain   string
	CookieSecure   bool
	SessionTimeout time.Duration
	Logger         *slog.Logger
}

// NewRouter creates and configures the HTTP router.
func NewRouter(services RouterServices) http.Handler {
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()

	guard := NewGuard(GuardOptions{
		Sessions: services.Auth,
		Oracle:   services.Oracle,
		Logger:   logger,
	})
	authHandlers := &AuthHandlers{
		Svc:            services.Auth,
		CookieDomain:   services.CookieDomain,
		CookieSecure:   services.CookieSecure,
		SessionTimeout: services.SessionTimeout,
		Logger:         logger,
	}
	adminHandlers := &AdminHandlers{Auth: services.Auth, Cache: services.Cache, Logger: logger}
	healthHandlers := &HealthHandlers{Stores: services.Health}

	registerAuthRoutes(mux, authHandlers, guard)
	registerAdminRoutes(mux, adminHandlers, guard)
	if services.Dashboard != nil {
		dashboardHandlers := &DashboardHandlers{Memo: services.Memo, Source: services.Dashboard}
		registerDashboardRoutes(mux, dashboardHandlers, guard)
	}
	mux.Handle("GET /healthz", http.HandlerFunc(healthHandlers.Healthz))
	mux.Handle("HEAD /healthz", http.HandlerFunc(healthHandlers.Healthz))

	return Logging(logger)(Recover(logger)(mux))
}

func registerAuthRoutes(mux *http.ServeMux, h *AuthHandlers, guard *Guard) {
	mux.HandleFunc("POST /api/auth/login", h.Login)
	mux.HandleFunc("POST /api/auth/logout", h.Logout)
	mux.Handle("GET /api/auth/me", guard.RequireAuth(http.HandlerFunc(h.Me)))
	mux.Handle("GET /api/auth/sessions", guard.RequireAuth(http.HandlerFunc(h.Sessions)))
	mux.Handle("DELETE /api/auth/sessions", guard.RequireAuth(http.HandlerFunc(h.LogoutAll)))
}

func registerAdminRoutes(mux *http.ServeMux, h *AdminHandlers, guard *Guard) {
	adminOnly := guard.RequireRole(domainauth.RoleAdmin)
	mux.Handle("GET /api/admin/sessions/stats", adminOnly(http.HandlerFunc(h.SessionStats)))
	mux.Handle("POST /api/admin/cache/invalidate", adminOnly(http.HandlerFunc(h.InvalidateCache)))
	mux.Handle("DELETE /api/admin/companies/{companyID}/cache", adminOnly(http.HandlerFunc(h.InvalidateCompanyCache)))
}

func registerDashboardRoutes(mux *http.ServeMux, h *DashboardHandlers, guard *Guard) {
	// Permission first, then tenant confinement; both reuse the session
	// resolved by the outer middleware.
	protect := func(hh http.Handler) http.Handler {
		return guard.RequirePermission("dashboard", "read")(guard.RequireCompanyAccess("companyID")(hh))
	}
	mux.Handle("GET /api/companies/{companyID}/dashboard/{widget}", protect(http.HandlerFunc(h.WidgetData)))
}
