package store

import (
	"context"
	"testing"

	"github.com/erazemk/zaloga/internal/db"
	"github.com/erazemk/zaloga/internal/model"
)

func TestGetStats(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	CreateUser(ctx, database, "admin", "admin@x.io", "hash", model.RoleAdmin, model.StatusApproved)
	u, _ := CreateUser(ctx, database, "u", "u@x.io", "hash", model.RoleUser, model.StatusPending)
	CreateUser(ctx, database, "h", "h@x.io", "hash", model.RoleHolder, model.StatusPending)

	inv1, _ := CreateInventory(ctx, database, "INV-1", nil)
	CreateInventory(ctx, database, "INV-2", nil)
	inv1.AddItem(model.Item{Name: "A", Code: "A", Quantity: 1})
	inv1.AddItem(model.Item{Name: "B", Code: "B", Quantity: 2})
	SaveInventory(ctx, database, inv1)

	CreateRequest(ctx, database, u.ID, "INV-1", "A", 1)

	s, err := GetStats(ctx, database, 7)
	if err != nil {
		t.Fatalf("GetStats: %v", err)
	}
	want := model.Stats{TotalUsers: 3, PendingApprovals: 2, ActiveInventories: 2, TotalItems: 2, RecentRequests: 1}
	if *s != want {
		t.Errorf("GetStats = %+v, want %+v", *s, want)
	}
}
