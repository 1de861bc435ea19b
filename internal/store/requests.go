package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/zaloga/internal/model"
)

const requestSelect = `SELECT r.id, r.user_id, r.inventory_id, r.item_code, r.quantity, r.status,
	        r.created_at, r.issued_at, r.rejected_at, r.handled_by,
	        u.name AS user_name, u.email AS user_email, h.name AS handler_name
	 FROM requests r
	 LEFT JOIN users u ON u.id = r.user_id
	 LEFT JOIN users h ON h.id = r.handled_by`

// RequestFilter narrows ListRequests. Zero values match everything.
type RequestFilter struct {
	UserID      int64
	InventoryID string
}

// CreateRequest inserts a pending request.
func CreateRequest(ctx context.Context, q Queryer, userID int64, inventoryID, itemCode string, quantity int) (*model.Request, error) {
	result, err := q.ExecContext(ctx,
		`INSERT INTO requests (user_id, inventory_id, item_code, quantity, status) VALUES (?, ?, ?, ?, ?)`,
		userID, inventoryID, itemCode, quantity, model.RequestPending,
	)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting request id: %w", err)
	}

	return GetRequest(ctx, q, id)
}

// GetRequest returns a request by ID.
func GetRequest(ctx context.Context, q Queryer, id int64) (*model.Request, error) {
	var r model.Request
	err := sqlx.GetContext(ctx, q, &r, requestSelect+` WHERE r.id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting request: %w", err)
	}
	return &r, nil
}

// ListRequests returns requests newest first.
func ListRequests(ctx context.Context, q Queryer, f RequestFilter) ([]model.Request, error) {
	query := requestSelect + ` WHERE 1=1`
	var args []any

	if f.UserID > 0 {
		query += ` AND r.user_id = ?`
		args = append(args, f.UserID)
	}
	if f.InventoryID != "" {
		query += ` AND r.inventory_id = ?`
		args = append(args, f.InventoryID)
	}

	query += ` ORDER BY r.created_at DESC, r.id DESC`

	var out []model.Request
	if err := sqlx.SelectContext(ctx, q, &out, query, args...); err != nil {
		return nil, fmt.Errorf("listing requests: %w", err)
	}
	return out, nil
}

// ResolveRequest persists a terminal transition of r. It only applies while
// the stored request is still pending; otherwise ErrStale is returned.
func ResolveRequest(ctx context.Context, q Queryer, r *model.Request) error {
	res, err := q.ExecContext(ctx,
		`UPDATE requests SET status = ?, issued_at = ?, rejected_at = ?, handled_by = ?
		 WHERE id = ? AND status = 'pending'`,
		r.Status, r.IssuedAt, r.RejectedAt, r.HandledBy, r.ID,
	)
	if err != nil {
		return fmt.Errorf("resolving request: %w", err)
	}
	return expectOne(res)
}
