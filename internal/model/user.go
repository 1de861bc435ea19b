package model

import (
	"errors"
	"fmt"
	"time"
	"unicode/utf8"
)

// Role is the closed set of account roles.
type Role string

// Roles.
const (
	RoleUser   Role = "user"
	RoleHolder Role = "holder"
	RoleAdmin  Role = "admin"
)

// ParseRole converts a raw string into a Role. An empty string yields RoleUser.
func ParseRole(s string) (Role, error) {
	if s == "" {
		return RoleUser, nil
	}
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleHolder, RoleAdmin:
		return true
	}
	return false
}

// In reports whether r is a member of allowed. Unknown roles fail closed.
func (r Role) In(allowed ...Role) bool {
	if !r.Valid() {
		return false
	}
	for _, a := range allowed {
		if a == r {
			return true
		}
	}
	return false
}

// UserStatus is the approval state of an account.
type UserStatus string

// User statuses.
const (
	StatusPending  UserStatus = "pending"
	StatusApproved UserStatus = "approved"
	StatusRejected UserStatus = "rejected"
)

// ErrNotPending is returned when a decision is applied to an account that was
// already approved or rejected.
var ErrNotPending = errors.New("account is not pending approval")

// User is a registered account.
type User struct {
	ID           int64      `json:"_id" db:"id"`
	Name         string     `json:"name" db:"name"`
	Email        string     `json:"email" db:"email"`
	PasswordHash string     `json:"-" db:"password_hash"`
	Role         Role       `json:"role" db:"role"`
	Status       UserStatus `json:"status" db:"status"`
	InventoryID  *string    `json:"inventoryId" db:"inventory_id"`
	CreatedAt    time.Time  `json:"createdAt" db:"created_at"`
}

// InitialStatus is the status a freshly registered account starts in.
// Administrators are born approved.
func InitialStatus(role Role) UserStatus {
	if role == RoleAdmin {
		return StatusApproved
	}
	return StatusPending
}

// Decide moves a pending account to approved or rejected.
func (u *User) Decide(status UserStatus) error {
	if status != StatusApproved && status != StatusRejected {
		return fmt.Errorf("invalid decision %q", status)
	}
	if u.Status != StatusPending {
		return ErrNotPending
	}
	u.Status = status
	return nil
}

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 8

// ValidatePassword checks password length.
func ValidatePassword(password string) error {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	}
	return nil
}
