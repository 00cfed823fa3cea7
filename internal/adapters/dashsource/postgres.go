// Package dashsource loads dashboard widget payloads from Postgres.
package dashsource

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	apperrors "github.com/Egem97/ttl-apg/internal/errors"
)

// PostgresSource reads precomputed widget payloads from the
// dashboard_widgets table. Payloads are JSONB documents written by the
// reporting pipeline; this adapter only deserializes them.
type PostgresSource struct {
	db *sql.DB
}

// NewPostgresSource creates a PostgresSource.
func NewPostgresSource(db *sql.DB) *PostgresSource {
	return &PostgresSource{db: db}
}

const widgetQuery = `
SELECT payload
FROM dashboard_widgets
WHERE company_id = $1 AND widget = $2`

// WidgetData returns the widget payload for a company. An unknown widget
// is a validation error, not a crash.
func (s *PostgresSource) WidgetData(ctx context.Context, companyID int64, widget string) (map[string]any, error) {
	var raw []byte
	err := s.db.QueryRowContext(ctx, widgetQuery, companyID, widget).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.Validationf("unknown widget %q", widget)
		}
		return nil, apperrors.MapDBError(err)
	}

	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, apperrors.Serialization("decode widget payload", err)
	}
	return payload, nil
}
