package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/zaloga/internal/apperr"
	"github.com/erazemk/zaloga/internal/logging"
	"github.com/erazemk/zaloga/internal/model"
	"github.com/erazemk/zaloga/internal/store"
)

// NewItem is the input of AddItem. Image holds raw upload bytes, if any.
type NewItem struct {
	Name            string
	Code            string
	Quantity        int
	CalibrationInfo string
	ExpiryInfo      string
	Image           []byte
}

// ItemUpdate is the input of UpdateItem. Nil fields are left untouched.
type ItemUpdate struct {
	model.ItemPatch
	Image []byte
}

// CreateInventory creates an empty, unassigned inventory.
func (s *Service) CreateInventory(ctx context.Context, admin *model.User, inventoryID string) (*model.Inventory, error) {
	inventoryID = strings.TrimSpace(inventoryID)
	if inventoryID == "" {
		return nil, apperr.Validation("inventoryId is required")
	}

	var inv *model.Inventory
	err := s.tx(ctx, func(tx *sqlx.Tx) error {
		var err error
		inv, err = store.CreateInventory(ctx, tx, inventoryID, nil)
		if errors.Is(err, store.ErrDuplicate) {
			return apperr.Conflict("inventory %q already exists", inventoryID)
		}
		if err != nil {
			return err
		}
		return store.AppendLog(ctx, tx, model.LogEntry{
			Action:      model.ActionInventoryCreated,
			UserID:      &admin.ID,
			InventoryID: &inventoryID,
		})
	})
	if err != nil {
		return nil, err
	}

	logging.From(ctx).Info("inventory created", "inventory", inventoryID, "by", admin.Email)
	return inv, nil
}

// DeleteInventory removes an inventory and unbinds every user assigned to it.
// Requests that referenced it are kept as history.
func (s *Service) DeleteInventory(ctx context.Context, admin *model.User, inventoryID string) error {
	err := s.tx(ctx, func(tx *sqlx.Tx) error {
		ok, err := store.DeleteInventory(ctx, tx, inventoryID)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.NotFound("inventory not found")
		}
		if _, err := store.ClearInventoryAssignment(ctx, tx, inventoryID, 0); err != nil {
			return err
		}
		return store.AppendLog(ctx, tx, model.LogEntry{
			Action:      model.ActionInventoryDeleted,
			UserID:      &admin.ID,
			InventoryID: &inventoryID,
		})
	})
	if err != nil {
		return err
	}

	logging.From(ctx).Info("inventory deleted", "inventory", inventoryID, "by", admin.Email)
	return nil
}

// ListInventories returns every inventory with items and holder details.
func (s *Service) ListInventories(ctx context.Context) ([]model.Inventory, error) {
	invs, err := store.ListInventories(ctx, s.db)
	if err != nil {
		return nil, err
	}
	return orEmpty(invs), nil
}

// ListInventorySummaries returns inventory identifiers and holder names.
func (s *Service) ListInventorySummaries(ctx context.Context) ([]model.InventorySummary, error) {
	sums, err := store.ListInventorySummaries(ctx, s.db)
	if err != nil {
		return nil, err
	}
	return orEmpty(sums), nil
}

// GetInventory returns an inventory by its human identifier.
func (s *Service) GetInventory(ctx context.Context, inventoryID string) (*model.Inventory, error) {
	inv, err := store.GetInventory(ctx, s.db, inventoryID)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, apperr.NotFound("inventory not found")
	}
	return inv, nil
}

// HolderInventory returns the inventory held by holder.
func (s *Service) HolderInventory(ctx context.Context, holder *model.User) (*model.Inventory, error) {
	return holderInventory(ctx, s.db, holder)
}

func holderInventory(ctx context.Context, q store.Queryer, holder *model.User) (*model.Inventory, error) {
	inv, err := store.GetInventoryByHolder(ctx, q, holder.ID)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, apperr.NotFound("inventory not found")
	}
	return inv, nil
}

// AddItem appends an item to the holder's inventory.
func (s *Service) AddItem(ctx context.Context, holder *model.User, in NewItem) (*model.Item, error) {
	item := model.Item{
		Name:            strings.TrimSpace(in.Name),
		Code:            strings.TrimSpace(in.Code),
		Quantity:        in.Quantity,
		CalibrationInfo: in.CalibrationInfo,
		ExpiryInfo:      in.ExpiryInfo,
		CreatedAt:       time.Now().UTC(),
	}
	if item.Name == "" || item.Code == "" {
		return nil, apperr.Validation("name and code are required")
	}
	if item.Quantity < 0 {
		return nil, apperr.Validation("quantity must not be negative")
	}
	var img []byte
	if len(in.Image) > 0 {
		var err error
		if img, err = s.processImage(in.Image); err != nil {
			return nil, err
		}
	}

	images := &imageWriter{blobs: s.blobs}
	err := s.mutateHolderInventory(ctx, holder, model.ActionItemAdded, item.Code, func(inv *model.Inventory) error {
		if _, exists := inv.Item(item.Code); exists {
			return apperr.Conflict("item code %q already exists", item.Code)
		}
		if img != nil {
			ref, err := images.put(img)
			if err != nil {
				return err
			}
			item.Image = ref
		}
		return inv.AddItem(item)
	})
	if err != nil {
		images.discard(ctx)
		return nil, err
	}
	return &item, nil
}

// UpdateItem overwrites the supplied fields of an item.
func (s *Service) UpdateItem(ctx context.Context, holder *model.User, code string, in ItemUpdate) (*model.Item, error) {
	patch := in.ItemPatch
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return nil, apperr.Validation("name must not be empty")
	}
	if patch.Quantity != nil && *patch.Quantity < 0 {
		return nil, apperr.Validation("quantity must not be negative")
	}
	var img []byte
	if len(in.Image) > 0 {
		var err error
		if img, err = s.processImage(in.Image); err != nil {
			return nil, err
		}
	}

	images := &imageWriter{blobs: s.blobs}
	var updated model.Item
	err := s.mutateHolderInventory(ctx, holder, model.ActionItemUpdated, code, func(inv *model.Inventory) error {
		if _, ok := inv.Item(code); !ok {
			return apperr.NotFound("item not found")
		}
		if img != nil {
			ref, err := images.put(img)
			if err != nil {
				return err
			}
			patch.Image = &ref
		}
		var err error
		updated, err = inv.UpdateItem(code, patch)
		return err
	})
	if err != nil {
		images.discard(ctx)
		return nil, err
	}
	return &updated, nil
}

// DeleteItem removes an item from the holder's inventory.
func (s *Service) DeleteItem(ctx context.Context, holder *model.User, code string) error {
	return s.mutateHolderInventory(ctx, holder, model.ActionItemDeleted, code, func(inv *model.Inventory) error {
		if err := inv.RemoveItem(code); err != nil {
			if errors.Is(err, model.ErrItemNotFound) {
				return apperr.NotFound("item not found")
			}
			return err
		}
		return nil
	})
}

// mutateHolderInventory loads the holder's inventory, applies fn, and saves it
// with a version check, recording action in the audit log.
func (s *Service) mutateHolderInventory(ctx context.Context, holder *model.User, action, code string, fn func(inv *model.Inventory) error) error {
	var inventoryID string
	err := s.tx(ctx, func(tx *sqlx.Tx) error {
		inv, err := holderInventory(ctx, tx, holder)
		if err != nil {
			return err
		}
		inventoryID = inv.InventoryID

		if err := fn(inv); err != nil {
			return err
		}
		if err := store.SaveInventory(ctx, tx, inv); err != nil {
			return staleAsConflict(err, "inventory")
		}
		return store.AppendLog(ctx, tx, model.LogEntry{
			Action:      action,
			UserID:      &holder.ID,
			InventoryID: &inventoryID,
			ItemCode:    &code,
		})
	})
	if err != nil {
		return err
	}

	logging.From(ctx).Info(strings.ToLower(action), "inventory", inventoryID, "item", code, "by", holder.Email)
	return nil
}
