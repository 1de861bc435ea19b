package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/zaloga/internal/model"
)

// MaxLogs caps ListLogs.
const MaxLogs = 100

// AppendLog writes an audit record.
func AppendLog(ctx context.Context, q Queryer, e model.LogEntry) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO logs (action, user_id, handled_by, inventory_id, item_code) VALUES (?, ?, ?, ?, ?)`,
		e.Action, e.UserID, e.HandledBy, e.InventoryID, e.ItemCode,
	)
	if err != nil {
		return fmt.Errorf("appending log: %w", err)
	}
	return nil
}

// ListLogs returns the newest audit records, at most limit (capped at MaxLogs).
func ListLogs(ctx context.Context, q Queryer, limit int) ([]model.LogEntry, error) {
	if limit <= 0 || limit > MaxLogs {
		limit = MaxLogs
	}

	var out []model.LogEntry
	err := sqlx.SelectContext(ctx, q, &out,
		`SELECT l.id, l.action, l.user_id, l.handled_by, l.inventory_id, l.item_code, l.created_at,
		        u.name AS user_name, u.email AS user_email
		 FROM logs l
		 LEFT JOIN users u ON u.id = l.user_id
		 ORDER BY l.created_at DESC, l.id DESC
		 LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing logs: %w", err)
	}
	return out, nil
}
