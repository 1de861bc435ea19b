package model

import (
	"errors"
	"fmt"
	"time"
)

// RequestStatus is the lifecycle state of a Request.
type RequestStatus string

// Request statuses.
const (
	RequestPending  RequestStatus = "pending"
	RequestIssued   RequestStatus = "issued"
	RequestRejected RequestStatus = "rejected"
)

// ErrRequestHandled is returned when acting on a request that already left
// the pending state.
var ErrRequestHandled = errors.New("request already handled")

// Request is a user's ask to draw a quantity of an item from an inventory.
type Request struct {
	ID          int64         `json:"_id" db:"id"`
	UserID      int64         `json:"userId" db:"user_id"`
	InventoryID string        `json:"inventoryId" db:"inventory_id"`
	ItemCode    string        `json:"itemCode" db:"item_code"`
	Quantity    int           `json:"quantity" db:"quantity"`
	Status      RequestStatus `json:"status" db:"status"`
	CreatedAt   time.Time     `json:"timestamp" db:"created_at"`
	IssuedAt    *time.Time    `json:"issuedAt,omitempty" db:"issued_at"`
	RejectedAt  *time.Time    `json:"rejectedAt,omitempty" db:"rejected_at"`
	HandledBy   *int64        `json:"handledBy,omitempty" db:"handled_by"`

	// Joined fields (not always populated).
	UserName    *string `json:"userName,omitempty" db:"user_name"`
	UserEmail   *string `json:"userEmail,omitempty" db:"user_email"`
	HandlerName *string `json:"handledByName,omitempty" db:"handler_name"`
}

// Resolve moves a pending request into a terminal state, recording who
// handled it and when.
func (r *Request) Resolve(action RequestStatus, handler int64, at time.Time) error {
	if r.Status != RequestPending {
		return ErrRequestHandled
	}
	switch action {
	case RequestIssued:
		r.IssuedAt = &at
	case RequestRejected:
		r.RejectedAt = &at
	default:
		return fmt.Errorf("invalid request action %q", action)
	}
	r.Status = action
	r.HandledBy = &handler
	return nil
}
