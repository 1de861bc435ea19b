package store

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/jmoiron/sqlx"
)

const jwtSecretKey = "jwt_secret"

// GetJWTSecret returns the token signing secret, generating and persisting a
// random one on first use.
func GetJWTSecret(ctx context.Context, q Queryer) (string, error) {
	return ensureSetting(ctx, q, jwtSecretKey, func() (string, error) {
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("generating %s: %w", jwtSecretKey, err)
		}
		return hex.EncodeToString(buf), nil
	})
}

// ensureSetting returns the value stored under key. When absent, the value
// produced by gen is stored first. INSERT OR IGNORE followed by a read keeps
// concurrent first starts agreeing on one value.
func ensureSetting(ctx context.Context, q Queryer, key string, gen func() (string, error)) (string, error) {
	candidate, err := gen()
	if err != nil {
		return "", err
	}

	if _, err := q.ExecContext(ctx,
		`INSERT OR IGNORE INTO settings (key, value) VALUES (?, ?)`, key, candidate,
	); err != nil {
		return "", fmt.Errorf("storing %s: %w", key, err)
	}

	var value string
	if err := sqlx.GetContext(ctx, q, &value, `SELECT value FROM settings WHERE key = ?`, key); err != nil {
		return "", fmt.Errorf("querying %s: %w", key, err)
	}
	return value, nil
}
