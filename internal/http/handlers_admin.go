package httpx

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Egem97/ttl-apg/internal/cache"
	apperrors "github.com/Egem97/ttl-apg/internal/errors"
)

// AdminHandlers provides admin-only maintenance endpoints: session
// statistics and cache invalidation. All routes are registered behind
// the admin role guard; the scans they trigger are O(keys) and must
// never leak onto a request-serving path.
type AdminHandlers struct {
	Auth   AuthService
	Cache  *cache.Store
	Logger *slog.Logger
}

// SessionStats reports aggregate session counts plus per-namespace cache
// key counts.
// GET /api/admin/sessions/stats.
func (h *AdminHandlers) SessionStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Auth.Stats(r.Context())
	if err != nil {
		RenderAppError(w, err)
		return
	}
	counts, err := h.Cache.NamespaceCounts(r.Context())
	if err != nil {
		RenderAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"active_sessions":            stats.ActiveSessions,
		"unique_users_with_sessions": stats.UniqueUsers,
		"cache_keys_by_namespace":    counts,
	})
}

type invalidateRequest struct {
	Pattern   string `json:"pattern,omitempty"`
	Namespace string `json:"namespace,omitempty"`
}

// InvalidateCache deletes cache entries by namespace or by raw glob
// pattern. Exactly one of the two must be provided.
// POST /api/admin/cache/invalidate.
func (h *AdminHandlers) InvalidateCache(w http.ResponseWriter, r *http.Request) {
	var req invalidateRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	var (
		deleted int
		err     error
	)
	switch {
	case req.Namespace != "" && req.Pattern != "":
		RenderAppError(w, apperrors.Validation("provide either namespace or pattern, not both"))
		return
	case req.Namespace != "":
		deleted, err = h.Cache.InvalidateNamespace(r.Context(), cache.Namespace(req.Namespace))
	case req.Pattern != "":
		deleted, err = h.Cache.InvalidateByPattern(r.Context(), req.Pattern)
	default:
		RenderAppError(w, apperrors.Validation("namespace or pattern is required"))
		return
	}
	if err != nil {
		RenderAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"deleted": deleted})
}

// InvalidateCompanyCache deletes every tenant-scoped cache entry of one
// company across all namespaces.
// DELETE /api/admin/companies/{companyID}/cache.
func (h *AdminHandlers) InvalidateCompanyCache(w http.ResponseWriter, r *http.Request) {
	companyID, err := strconv.ParseInt(r.PathValue("companyID"), 10, 64)
	if err != nil || companyID <= 0 {
		RenderAppError(w, apperrors.Validation("invalid company ID"))
		return
	}

	deleted, err := h.Cache.InvalidateTenant(r.Context(), companyID)
	if err != nil {
		RenderAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"company_id": companyID, "deleted": deleted})
}
