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

// CreateRequest files a pending request for quantity units of an item. A zero
// quantity means one. The stock check is advisory; nothing is reserved.
func (s *Service) CreateRequest(ctx context.Context, user *model.User, inventoryID, itemCode string, quantity int) (*model.Request, error) {
	inventoryID = strings.TrimSpace(inventoryID)
	itemCode = strings.TrimSpace(itemCode)
	if inventoryID == "" || itemCode == "" {
		return nil, apperr.Validation("inventoryId and itemCode are required")
	}
	if quantity < 0 {
		return nil, apperr.Validation("quantity must be positive")
	}
	if quantity == 0 {
		quantity = 1
	}

	var req *model.Request
	err := s.tx(ctx, func(tx *sqlx.Tx) error {
		inv, err := store.GetInventory(ctx, tx, inventoryID)
		if err != nil {
			return err
		}
		if inv == nil {
			return apperr.NotFound("inventory not found")
		}
		item, ok := inv.Item(itemCode)
		if !ok {
			return apperr.NotFound("item not found")
		}
		if item.Quantity < quantity {
			return apperr.InsufficientQuantity("only %d of %q available", item.Quantity, itemCode)
		}

		req, err = store.CreateRequest(ctx, tx, user.ID, inventoryID, itemCode, quantity)
		if err != nil {
			return err
		}
		return store.AppendLog(ctx, tx, model.LogEntry{
			Action:      model.ActionRequestCreated,
			UserID:      &user.ID,
			InventoryID: &inventoryID,
			ItemCode:    &itemCode,
		})
	})
	if err != nil {
		return nil, err
	}

	logging.From(ctx).Info("request created", "request", req.ID, "inventory", inventoryID, "item", itemCode, "quantity", quantity, "by", user.Email)
	return req, nil
}

// ActOnRequest issues or rejects a pending request. Issuing decrements stock;
// the stock change, the request transition and the audit record commit
// together. Holders may only act on requests against their own inventory.
func (s *Service) ActOnRequest(ctx context.Context, handler *model.User, requestID int64, action string) (*model.Request, error) {
	decision := model.RequestStatus(action)
	if decision != model.RequestIssued && decision != model.RequestRejected {
		return nil, apperr.Validation("action must be %q or %q", model.RequestIssued, model.RequestRejected)
	}

	var req *model.Request
	err := s.tx(ctx, func(tx *sqlx.Tx) error {
		var err error
		req, err = store.GetRequest(ctx, tx, requestID)
		if err != nil {
			return err
		}
		if req == nil {
			return apperr.NotFound("request not found")
		}

		inv, err := store.GetInventory(ctx, tx, req.InventoryID)
		if err != nil {
			return err
		}
		if inv == nil {
			return apperr.NotFound("inventory not found")
		}

		switch handler.Role {
		case model.RoleAdmin:
		case model.RoleHolder:
			if inv.HolderID == nil || *inv.HolderID != handler.ID {
				return apperr.Forbidden("request belongs to another inventory")
			}
		default:
			return apperr.Forbidden("role %q may not act on requests", handler.Role)
		}

		if err := req.Resolve(decision, handler.ID, time.Now().UTC()); err != nil {
			if errors.Is(err, model.ErrRequestHandled) {
				return apperr.Conflict("request is already %s", req.Status)
			}
			return err
		}

		if _, ok := inv.Item(req.ItemCode); !ok {
			return apperr.NotFound("item not found")
		}

		logAction := model.ActionRequestRejected
		if decision == model.RequestIssued {
			logAction = model.ActionItemIssued
			if err := inv.Withdraw(req.ItemCode, req.Quantity); err != nil {
				if errors.Is(err, model.ErrInsufficientQuantity) {
					return apperr.InsufficientQuantity("insufficient quantity")
				}
				return err
			}
			if err := store.SaveInventory(ctx, tx, inv); err != nil {
				return staleAsConflict(err, "inventory")
			}
		}

		if err := store.ResolveRequest(ctx, tx, req); err != nil {
			return staleAsConflict(err, "request")
		}
		if err := store.AppendLog(ctx, tx, model.LogEntry{
			Action:      logAction,
			UserID:      &req.UserID,
			HandledBy:   &handler.ID,
			InventoryID: &req.InventoryID,
			ItemCode:    &req.ItemCode,
		}); err != nil {
			return err
		}

		req, err = store.GetRequest(ctx, tx, req.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	logging.From(ctx).Info("request "+string(decision), "request", req.ID, "inventory", req.InventoryID, "item", req.ItemCode, "quantity", req.Quantity, "by", handler.Email)
	return req, nil
}

// ListRequests returns every request, newest first.
func (s *Service) ListRequests(ctx context.Context) ([]model.Request, error) {
	reqs, err := store.ListRequests(ctx, s.db, store.RequestFilter{})
	if err != nil {
		return nil, err
	}
	return orEmpty(reqs), nil
}

// HolderRequests returns requests against the holder's inventory.
func (s *Service) HolderRequests(ctx context.Context, holder *model.User) ([]model.Request, error) {
	inv, err := holderInventory(ctx, s.db, holder)
	if err != nil {
		return nil, err
	}
	reqs, err := store.ListRequests(ctx, s.db, store.RequestFilter{InventoryID: inv.InventoryID})
	if err != nil {
		return nil, err
	}
	return orEmpty(reqs), nil
}

// UserRequests returns the user's own requests.
func (s *Service) UserRequests(ctx context.Context, user *model.User) ([]model.Request, error) {
	reqs, err := store.ListRequests(ctx, s.db, store.RequestFilter{UserID: user.ID})
	if err != nil {
		return nil, err
	}
	return orEmpty(reqs), nil
}
