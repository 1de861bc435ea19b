package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Errors returned by Inventory item operations.
var (
	ErrItemExists           = errors.New("item code already exists")
	ErrItemNotFound         = errors.New("item not found")
	ErrInsufficientQuantity = errors.New("insufficient quantity")
)

// Item is a stock line embedded in an Inventory. It has no identity outside
// its inventory; code is unique within the owning inventory.
type Item struct {
	Name            string    `json:"name"`
	Code            string    `json:"code"`
	Quantity        int       `json:"quantity"`
	CalibrationInfo string    `json:"calibrationInfo,omitempty"`
	ExpiryInfo      string    `json:"expiryInfo,omitempty"`
	Image           string    `json:"image,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}

// Items is the ordered item collection, stored as a JSON document column.
type Items []Item

// Value implements driver.Valuer.
func (it Items) Value() (driver.Value, error) {
	if it == nil {
		return "[]", nil
	}
	b, err := json.Marshal(it)
	if err != nil {
		return nil, fmt.Errorf("encoding items: %w", err)
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (it *Items) Scan(src any) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*it = Items{}
		return nil
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return fmt.Errorf("scanning items: unsupported type %T", src)
	}
	var out Items
	if err := json.Unmarshal(data, &out); err != nil {
		return fmt.Errorf("decoding items: %w", err)
	}
	if out == nil {
		out = Items{}
	}
	*it = out
	return nil
}

// Inventory is a named collection of items, held by at most one holder.
type Inventory struct {
	ID          int64     `json:"_id" db:"id"`
	InventoryID string    `json:"inventoryId" db:"inventory_id"`
	HolderID    *int64    `json:"holderId" db:"holder_id"`
	Items       Items     `json:"items" db:"items"`
	Version     int64     `json:"-" db:"version"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`

	// Joined fields (not always populated).
	HolderName  *string `json:"holderName,omitempty" db:"holder_name"`
	HolderEmail *string `json:"holderEmail,omitempty" db:"holder_email"`
}

// Item returns the item with the given code.
func (inv *Inventory) Item(code string) (*Item, bool) {
	i := inv.indexOf(code)
	if i < 0 {
		return nil, false
	}
	return &inv.Items[i], true
}

// AddItem appends item, rejecting a duplicate code.
func (inv *Inventory) AddItem(item Item) error {
	if inv.indexOf(item.Code) >= 0 {
		return ErrItemExists
	}
	inv.Items = append(inv.Items, item)
	return nil
}

// ItemPatch holds the fields of a partial item update. Nil fields are left
// untouched.
type ItemPatch struct {
	Name            *string
	Quantity        *int
	CalibrationInfo *string
	ExpiryInfo      *string
	Image           *string
}

// UpdateItem applies patch to the item with the given code and returns the
// updated copy.
func (inv *Inventory) UpdateItem(code string, patch ItemPatch) (Item, error) {
	i := inv.indexOf(code)
	if i < 0 {
		return Item{}, ErrItemNotFound
	}
	it := &inv.Items[i]
	if patch.Name != nil {
		it.Name = *patch.Name
	}
	if patch.Quantity != nil {
		it.Quantity = *patch.Quantity
	}
	if patch.CalibrationInfo != nil {
		it.CalibrationInfo = *patch.CalibrationInfo
	}
	if patch.ExpiryInfo != nil {
		it.ExpiryInfo = *patch.ExpiryInfo
	}
	if patch.Image != nil {
		it.Image = *patch.Image
	}
	return *it, nil
}

// RemoveItem deletes the item with the given code, preserving order.
func (inv *Inventory) RemoveItem(code string) error {
	i := inv.indexOf(code)
	if i < 0 {
		return ErrItemNotFound
	}
	inv.Items = append(inv.Items[:i], inv.Items[i+1:]...)
	return nil
}

// Withdraw decrements the stock of an item. Quantity never drops below zero.
func (inv *Inventory) Withdraw(code string, quantity int) error {
	i := inv.indexOf(code)
	if i < 0 {
		return ErrItemNotFound
	}
	if inv.Items[i].Quantity < quantity {
		return ErrInsufficientQuantity
	}
	inv.Items[i].Quantity -= quantity
	return nil
}

func (inv *Inventory) indexOf(code string) int {
	for i := range inv.Items {
		if inv.Items[i].Code == code {
			return i
		}
	}
	return -1
}

// InventorySummary is the public listing shown to end users.
type InventorySummary struct {
	ID          int64   `json:"_id" db:"id"`
	InventoryID string  `json:"inventoryId" db:"inventory_id"`
	HolderID    *int64  `json:"holderId" db:"holder_id"`
	HolderName  *string `json:"holderName,omitempty" db:"holder_name"`
}
