package service

import (
	"context"

	"github.com/erazemk/zaloga/internal/model"
	"github.com/erazemk/zaloga/internal/store"
)

// Logs returns the newest audit records. A non-positive limit means the
// maximum.
func (s *Service) Logs(ctx context.Context, limit int) ([]model.LogEntry, error) {
	logs, err := store.ListLogs(ctx, s.db, limit)
	if err != nil {
		return nil, err
	}
	return orEmpty(logs), nil
}

// Stats returns the administrator dashboard counters.
func (s *Service) Stats(ctx context.Context) (*model.Stats, error) {
	return store.GetStats(ctx, s.db, RecentRequestDays)
}

// Ping checks database connectivity.
func (s *Service) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
