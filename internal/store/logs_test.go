package store

import (
	"context"
	"testing"

	"github.com/erazemk/zaloga/internal/db"
	"github.com/erazemk/zaloga/internal/model"
)

func strp(s string) *string { return &s }

func TestAppendAndListLogs(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user, _ := CreateUser(ctx, database, "Uma", "uma@x.io", "hash", model.RoleUser, model.StatusApproved)

	AppendLog(ctx, database, model.LogEntry{Action: model.ActionAdminRegistered})
	err := AppendLog(ctx, database, model.LogEntry{
		Action:      model.ActionRequestCreated,
		UserID:      &user.ID,
		InventoryID: strp("INV-1"),
		ItemCode:    strp("X1"),
	})
	if err != nil {
		t.Fatalf("AppendLog: %v", err)
	}

	logs, err := ListLogs(ctx, database, 0)
	if err != nil {
		t.Fatalf("ListLogs: %v", err)
	}
	if len(logs) != 2 {
		t.Fatalf("expected 2 logs, got %d", len(logs))
	}
	if logs[0].Action != model.ActionRequestCreated {
		t.Errorf("expected newest first, got %q", logs[0].Action)
	}
	if logs[0].UserEmail == nil || *logs[0].UserEmail != "uma@x.io" {
		t.Errorf("expected joined email, got %v", logs[0].UserEmail)
	}
	if logs[1].UserID != nil {
		t.Errorf("expected no user on first log, got %d", *logs[1].UserID)
	}
}

func TestListLogsLimit(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	for i := 0; i < MaxLogs+5; i++ {
		AppendLog(ctx, database, model.LogEntry{Action: model.ActionItemUpdated})
	}

	logs, _ := ListLogs(ctx, database, 3)
	if len(logs) != 3 {
		t.Errorf("expected 3 logs, got %d", len(logs))
	}

	logs, _ = ListLogs(ctx, database, 1000)
	if len(logs) != MaxLogs {
		t.Errorf("expected cap of %d, got %d", MaxLogs, len(logs))
	}
}
