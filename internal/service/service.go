// Package service implements the inventory workflows: registration and
// approval, inventory and item management, the request lifecycle and the
// audit trail. Every state change runs in one database transaction together
// with its audit record.
package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/zaloga/internal/apperr"
	"github.com/erazemk/zaloga/internal/auth"
	"github.com/erazemk/zaloga/internal/blob"
	"github.com/erazemk/zaloga/internal/imaging"
	"github.com/erazemk/zaloga/internal/logging"
	"github.com/erazemk/zaloga/internal/store"
)

// RecentRequestDays is the window counted by Stats as recent.
const RecentRequestDays = 7

type Config struct {
	JWTSecret           string
	TokenTTL            time.Duration
	BcryptCost          int
	AdminRegisterSecret string
	Images              imaging.Options
}

type Service struct {
	db    *sqlx.DB
	cfg   Config
	blobs *blob.Store
}

func New(db *sqlx.DB, cfg Config, blobs *blob.Store) *Service {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = auth.DefaultTokenTTL
	}
	return &Service{db: db, cfg: cfg, blobs: blobs}
}

func (s *Service) tx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	return store.WithTx(ctx, s.db, fn)
}

// processImage normalizes an uploaded photo. Nothing is written to disk.
func (s *Service) processImage(data []byte) ([]byte, error) {
	if s.blobs == nil {
		return nil, apperr.Validation("image uploads are not enabled")
	}
	res, err := s.cfg.Images.Process(bytes.NewReader(data))
	if err != nil {
		return nil, apperr.Validation("invalid image: %v", err)
	}
	return res.Data, nil
}

// imageWriter writes normalized photos from inside an inventory transaction
// and removes the ones it created when that transaction fails. Inventory
// transactions hold the SQLite write lock, so no other request can start
// referencing a file between its write and its removal.
type imageWriter struct {
	blobs   *blob.Store
	created []string
}

func (w *imageWriter) put(data []byte) (string, error) {
	ref, created, err := w.blobs.Put(data, ".jpg")
	if err != nil {
		return "", fmt.Errorf("storing image: %w", err)
	}
	if created {
		w.created = append(w.created, ref)
	}
	return ref, nil
}

// discard removes the files written by this writer.
func (w *imageWriter) discard(ctx context.Context) {
	for _, ref := range w.created {
		if err := w.blobs.Remove(ref); err != nil {
			logging.From(ctx).Error("removing orphaned image", "ref", ref, "error", err)
		}
	}
	w.created = nil
}

// staleAsConflict reports a lost optimistic-concurrency race as a conflict.
func staleAsConflict(err error, what string) error {
	if errors.Is(err, store.ErrStale) {
		return apperr.Conflict("%s was modified concurrently, retry", what)
	}
	return err
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
