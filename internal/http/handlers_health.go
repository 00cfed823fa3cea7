package httpx

import (
	"context"
	"net/http"
)

// Pinger verifies connectivity to a backing store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandlers answers liveness probes by pinging the backing stores.
type HealthHandlers struct {
	// Stores maps a store name to its pinger: session store, cache
	// store, permission database.
	Stores map[string]Pinger
}

// Healthz pings every registered store and reports per-store status.
// GET /healthz. Returns 503 when any store is unreachable.
func (h *HealthHandlers) Healthz(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	checks := make(map[string]string, len(h.Stores))
	for name, p := range h.Stores {
		if err := p.Ping(r.Context()); err != nil {
			checks[name] = "unavailable"
			status = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}
	WriteJSON(w, status, map[string]any{
		"status": http.StatusText(status),
		"checks": checks,
	})
}
