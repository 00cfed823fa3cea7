package httpx

import (
	"context"
	"net/http"
	"strconv"

	"github.com/Egem97/ttl-apg/internal/cache"
	apperrors "github.com/Egem97/ttl-apg/internal/errors"
)

// DashboardSource loads dashboard widget data from the system of record.
// The HTTP layer only sees it through the memoized cache.
type DashboardSource interface {
	WidgetData(ctx context.Context, companyID int64, widget string) (map[string]any, error)
}

// DashboardHandlers serves tenant-scoped dashboard data through the
// read-through cache. Routes sit behind RequirePermission and
// RequireCompanyAccess.
type DashboardHandlers struct {
	Memo   *cache.Memoizer
	Source DashboardSource
}

// WidgetData returns one widget's data for a company, cached per tenant.
// GET /api/companies/{companyID}/dashboard/{widget}.
func (h *DashboardHandlers) WidgetData(w http.ResponseWriter, r *http.Request) {
	companyID, err := strconv.ParseInt(r.PathValue("companyID"), 10, 64)
	if err != nil || companyID <= 0 {
		RenderAppError(w, apperrors.Validation("invalid company ID"))
		return
	}
	widget := r.PathValue("widget")
	if widget == "" {
		RenderAppError(w, apperrors.Validation("widget is required"))
		return
	}

	// The identifier hashes the read's arguments so the key stays stable
	// however the argument list evolves, while the tenant segment keeps
	// the entry reachable by per-company invalidation.
	key := cache.TenantKey(cache.NSDashboard, companyID, cache.ArgsKey("widget_data", widget))
	data, err := cache.GetOrLoad(r.Context(), h.Memo, key, func(ctx context.Context) (map[string]any, error) {
		return h.Source.WidgetData(ctx, companyID, widget)
	})
	if err != nil {
		RenderAppError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"company_id": companyID,
		"widget":     widget,
		"data":       data,
	})
}
