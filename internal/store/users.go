package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/zaloga/internal/model"
)

const userColumns = `id, name, email, password_hash, role, status, inventory_id, created_at`

// CreateUser inserts a new user. Returns ErrDuplicate when the email is taken.
func CreateUser(ctx context.Context, q Queryer, name, email, passwordHash string, role model.Role, status model.UserStatus) (*model.User, error) {
	result, err := q.ExecContext(ctx,
		`INSERT INTO users (name, email, password_hash, role, status) VALUES (?, ?, ?, ?, ?)`,
		name, email, passwordHash, role, status,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("creating user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting user id: %w", err)
	}

	return GetUser(ctx, q, id)
}

// GetUser returns a user by ID.
func GetUser(ctx context.Context, q Queryer, id int64) (*model.User, error) {
	var u model.User
	err := sqlx.GetContext(ctx, q, &u, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting user: %w", err)
	}
	return &u, nil
}

// GetUserByEmail returns a user by email.
func GetUserByEmail(ctx context.Context, q Queryer, email string) (*model.User, error) {
	var u model.User
	err := sqlx.GetContext(ctx, q, &u, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting user by email: %w", err)
	}
	return &u, nil
}

// ListUsersByStatus returns users with the given status, oldest first.
func ListUsersByStatus(ctx context.Context, q Queryer, status model.UserStatus) ([]model.User, error) {
	var users []model.User
	err := sqlx.SelectContext(ctx, q, &users,
		`SELECT `+userColumns+` FROM users WHERE status = ? ORDER BY created_at, id`, status,
	)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	return users, nil
}

// DecideUser records an approval decision. The update only applies while the
// user is still pending; otherwise ErrStale is returned.
func DecideUser(ctx context.Context, q Queryer, id int64, status model.UserStatus, inventoryID *string) error {
	res, err := q.ExecContext(ctx,
		`UPDATE users SET status = ?, inventory_id = COALESCE(?, inventory_id)
		 WHERE id = ? AND status = 'pending'`,
		status, inventoryID, id,
	)
	if err != nil {
		return fmt.Errorf("updating user status: %w", err)
	}
	return expectOne(res)
}

// ClearInventoryAssignment unbinds every user pointing at inventoryID, except
// keepUserID (pass 0 to unbind all). Returns the number of users changed.
func ClearInventoryAssignment(ctx context.Context, q Queryer, inventoryID string, keepUserID int64) (int64, error) {
	res, err := q.ExecContext(ctx,
		`UPDATE users SET inventory_id = NULL WHERE inventory_id = ? AND id != ?`,
		inventoryID, keepUserID,
	)
	if err != nil {
		return 0, fmt.Errorf("clearing inventory assignment: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reading affected rows: %w", err)
	}
	return n, nil
}

// CountUsersByRole returns how many accounts have the given role.
func CountUsersByRole(ctx context.Context, q Queryer, role model.Role) (int, error) {
	var n int
	if err := sqlx.GetContext(ctx, q, &n, `SELECT COUNT(*) FROM users WHERE role = ?`, role); err != nil {
		return 0, fmt.Errorf("counting users: %w", err)
	}
	return n, nil
}
