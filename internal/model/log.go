package model

import "time"

// Audit log actions.
const (
	ActionAdminRegistered  = "Admin registered"
	ActionUserApproved     = "User approved"
	ActionUserRejected     = "User rejected"
	ActionInventoryCreated = "Inventory created"
	ActionInventoryDeleted = "Inventory deleted"
	ActionItemAdded        = "Item added"
	ActionItemUpdated      = "Item updated"
	ActionItemDeleted      = "Item deleted"
	ActionRequestCreated   = "Request created"
	ActionItemIssued       = "Item issued"
	ActionRequestRejected  = "Request rejected"
)

// LogEntry is an append-only audit record.
type LogEntry struct {
	ID          int64     `json:"_id" db:"id"`
	Action      string    `json:"action" db:"action"`
	UserID      *int64    `json:"userId,omitempty" db:"user_id"`
	HandledBy   *int64    `json:"handledBy,omitempty" db:"handled_by"`
	InventoryID *string   `json:"inventoryId,omitempty" db:"inventory_id"`
	ItemCode    *string   `json:"itemCode,omitempty" db:"item_code"`
	CreatedAt   time.Time `json:"timestamp" db:"created_at"`

	// Joined fields (not always populated).
	UserName  *string `json:"userName,omitempty" db:"user_name"`
	UserEmail *string `json:"userEmail,omitempty" db:"user_email"`
}

// Stats is the administrator dashboard summary.
type Stats struct {
	TotalUsers        int `json:"totalUsers" db:"total_users"`
	PendingApprovals  int `json:"pendingApprovals" db:"pending_approvals"`
	ActiveInventories int `json:"activeInventories" db:"active_inventories"`
	TotalItems        int `json:"totalItems" db:"total_items"`
	RecentRequests    int `json:"recentRequests" db:"recent_requests"`
}
