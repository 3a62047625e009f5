package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/amoria-labs/walletauth/core"
	"github.com/amoria-labs/walletauth/ports"
)

// PostgresNonceStore persists challenges in PostgreSQL, one row per address.
type PostgresNonceStore struct {
	pool  *pgxpool.Pool
	clock func() time.Time
}

// NewPostgresNonceStore constructs a PostgreSQL-backed nonce store.
func NewPostgresNonceStore(pool *pgxpool.Pool) *PostgresNonceStore {
	return &PostgresNonceStore{pool: pool, clock: time.Now}
}

// WithClock overrides the store's clock for expiry tests.
func (s *PostgresNonceStore) WithClock(clock func() time.Time) *PostgresNonceStore {
	s.clock = clock
	return s
}

var _ ports.NonceStore = (*PostgresNonceStore)(nil)

// EnsureNonceSchema creates the wallet_nonces table when it does not exist.
func EnsureNonceSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS wallet_nonces (
			address    TEXT PRIMARY KEY,
			value      TEXT NOT NULL,
			issued_at  TIMESTAMPTZ NOT NULL,
			expires_at TIMESTAMPTZ NOT NULL,
			used       BOOLEAN NOT NULL DEFAULT FALSE
		)
	`)
	if err != nil {
		return fmt.Errorf("ensure wallet_nonces schema: %w", err)
	}
	return nil
}

// Issue upserts the challenge row; a later challenge for the same address
// supersedes the earlier one.
func (s *PostgresNonceStore) Issue(ctx context.Context, nonce core.Nonce) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO wallet_nonces (address, value, issued_at, expires_at, used)
		VALUES ($1, $2, $3, $4, FALSE)
		ON CONFLICT (address) DO UPDATE SET
			value      = EXCLUDED.value,
			issued_at  = EXCLUDED.issued_at,
			expires_at = EXCLUDED.expires_at,
			used       = FALSE
	`, nonce.Address, nonce.Value, nonce.IssuedAt, nonce.ExpiresAt)
	if err != nil {
		return fmt.Errorf("issue nonce: %w", core.ErrStoreFailure)
	}
	return nil
}

// Consume flips used in a single conditional UPDATE so that concurrent
// consumers of the same nonce cannot both pass. Only when the update matched
// nothing does a diagnostic read decide which sentinel to return.
func (s *PostgresNonceStore) Consume(ctx context.Context, address, value string) error {
	now := s.clock()

	tag, err := s.pool.Exec(ctx, `
		UPDATE wallet_nonces
		SET used = TRUE
		WHERE address = $1 AND value = $2 AND used = FALSE AND expires_at > $3
	`, address, value, now)
	if err != nil {
		return fmt.Errorf("consume nonce: %w", core.ErrStoreFailure)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	var used bool
	var expiresAt time.Time
	err = s.pool.QueryRow(ctx, `
		SELECT used, expires_at FROM wallet_nonces WHERE address = $1 AND value = $2
	`, address, value).Scan(&used, &expiresAt)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return core.ErrNonceNotFound
	case err != nil:
		return fmt.Errorf("diagnose nonce: %w", core.ErrStoreFailure)
	case used:
		return core.ErrNonceUsed
	case !now.Before(expiresAt):
		return core.ErrNonceExpired
	default:
		// The row became consumable between the UPDATE and the read; treat
		// it like a lost race rather than retrying.
		return core.ErrNonceUsed
	}
}

// PurgeExpired deletes rows past expiry plus the grace period.
func (s *PostgresNonceStore) PurgeExpired(ctx context.Context) (int, error) {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM wallet_nonces WHERE expires_at < $1
	`, s.clock().Add(-purgeGrace))
	if err != nil {
		return 0, fmt.Errorf("purge nonces: %w", core.ErrStoreFailure)
	}
	return int(tag.RowsAffected()), nil
}
