package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/zaloga/internal/model"
)

// GetStats computes the dashboard counters. Requests count as recent when
// created within the last recentDays days.
func GetStats(ctx context.Context, q Queryer, recentDays int) (*model.Stats, error) {
	var s model.Stats
	err := sqlx.GetContext(ctx, q, &s,
		`SELECT
		    (SELECT COUNT(*) FROM users) AS total_users,
		    (SELECT COUNT(*) FROM users WHERE status = 'pending') AS pending_approvals,
		    (SELECT COUNT(*) FROM inventories) AS active_inventories,
		    (SELECT COALESCE(SUM(json_array_length(items)), 0) FROM inventories) AS total_items,
		    (SELECT COUNT(*) FROM requests WHERE created_at >= datetime('now', ?)) AS recent_requests`,
		fmt.Sprintf("-%d days", recentDays),
	)
	if err != nil {
		return nil, fmt.Errorf("computing stats: %w", err)
	}
	return &s, nil
}
