package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/zaloga/internal/model"
)

const inventorySelect = `SELECT inv.id, inv.inventory_id, inv.holder_id, inv.items, inv.version, inv.created_at,
	        u.name AS holder_name, u.email AS holder_email
	 FROM inventories inv
	 LEFT JOIN users u ON u.id = inv.holder_id`

// CreateInventory creates an inventory, optionally bound to a holder.
// Returns ErrDuplicate when inventoryID exists.
func CreateInventory(ctx context.Context, q Queryer, inventoryID string, holderID *int64) (*model.Inventory, error) {
	_, err := q.ExecContext(ctx,
		`INSERT INTO inventories (inventory_id, holder_id) VALUES (?, ?)`,
		inventoryID, holderID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("creating inventory: %w", err)
	}
	return GetInventory(ctx, q, inventoryID)
}

// GetInventory returns an inventory by its human identifier.
func GetInventory(ctx context.Context, q Queryer, inventoryID string) (*model.Inventory, error) {
	var inv model.Inventory
	err := sqlx.GetContext(ctx, q, &inv, inventorySelect+` WHERE inv.inventory_id = ?`, inventoryID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting inventory: %w", err)
	}
	return &inv, nil
}

// GetInventoryByHolder returns the inventory held by the given user.
func GetInventoryByHolder(ctx context.Context, q Queryer, holderID int64) (*model.Inventory, error) {
	var inv model.Inventory
	err := sqlx.GetContext(ctx, q, &inv,
		inventorySelect+` WHERE inv.holder_id = ? ORDER BY inv.id LIMIT 1`, holderID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting inventory by holder: %w", err)
	}
	return &inv, nil
}

// ListInventories returns all inventories with their items and holder.
func ListInventories(ctx context.Context, q Queryer) ([]model.Inventory, error) {
	var invs []model.Inventory
	if err := sqlx.SelectContext(ctx, q, &invs, inventorySelect+` ORDER BY inv.inventory_id`); err != nil {
		return nil, fmt.Errorf("listing inventories: %w", err)
	}
	return invs, nil
}

// ListInventorySummaries returns inventory identifiers and holder names only.
func ListInventorySummaries(ctx context.Context, q Queryer) ([]model.InventorySummary, error) {
	var out []model.InventorySummary
	err := sqlx.SelectContext(ctx, q, &out,
		`SELECT inv.id, inv.inventory_id, inv.holder_id, u.name AS holder_name
		 FROM inventories inv
		 LEFT JOIN users u ON u.id = inv.holder_id
		 ORDER BY inv.inventory_id`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing inventory summaries: %w", err)
	}
	return out, nil
}

// SaveInventory writes the holder and items of inv. The write only applies if
// the stored version still matches inv.Version; otherwise ErrStale is
// returned. On success inv.Version is advanced.
func SaveInventory(ctx context.Context, q Queryer, inv *model.Inventory) error {
	res, err := q.ExecContext(ctx,
		`UPDATE inventories SET holder_id = ?, items = ?, version = version + 1
		 WHERE id = ? AND version = ?`,
		inv.HolderID, inv.Items, inv.ID, inv.Version,
	)
	if err != nil {
		return fmt.Errorf("saving inventory: %w", err)
	}
	if err := expectOne(res); err != nil {
		return err
	}
	inv.Version++
	return nil
}

// DeleteInventory removes an inventory. Returns false when it did not exist.
func DeleteInventory(ctx context.Context, q Queryer, inventoryID string) (bool, error) {
	res, err := q.ExecContext(ctx, `DELETE FROM inventories WHERE inventory_id = ?`, inventoryID)
	if err != nil {
		return false, fmt.Errorf("deleting inventory: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("reading affected rows: %w", err)
	}
	return n > 0, nil
}
