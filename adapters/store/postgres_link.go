package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/amoria-labs/walletauth/core"
	"github.com/amoria-labs/walletauth/ports"
)

// uniqueViolation is the PostgreSQL error code for a unique constraint hit.
const uniqueViolation = "23505"

// ownerPrimaryIndex guards "at most one primary link per owner" at the
// store level. Its name lets Create tell a lost first-link race apart from
// an address conflict.
const ownerPrimaryIndex = "wallet_links_owner_primary_idx"

// PostgresLinkStore persists wallet links in PostgreSQL. The primary key on
// the address is the system-wide uniqueness constraint the identity
// resolution race relies on.
type PostgresLinkStore struct {
	pool *pgxpool.Pool
}

// NewPostgresLinkStore constructs a PostgreSQL-backed wallet-link store.
func NewPostgresLinkStore(pool *pgxpool.Pool) *PostgresLinkStore {
	return &PostgresLinkStore{pool: pool}
}

var _ ports.LinkStore = (*PostgresLinkStore)(nil)

// EnsureLinkSchema creates the wallet_links table when it does not exist.
func EnsureLinkSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS wallet_links (
			address    TEXT PRIMARY KEY,
			owner_id   TEXT NOT NULL,
			is_primary BOOLEAN NOT NULL DEFAULT FALSE,
			linked_at  TIMESTAMPTZ NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("ensure wallet_links schema: %w", err)
	}
	_, err = pool.Exec(ctx, `
		CREATE UNIQUE INDEX IF NOT EXISTS wallet_links_owner_primary_idx
		ON wallet_links (owner_id) WHERE is_primary
	`)
	if err != nil {
		return fmt.Errorf("ensure wallet_links schema: %w", err)
	}
	return nil
}

// FindByAddress returns the link owning address, if any.
func (s *PostgresLinkStore) FindByAddress(ctx context.Context, address string) (core.WalletLink, bool, error) {
	var link core.WalletLink
	err := s.pool.QueryRow(ctx, `
		SELECT address, owner_id, is_primary, linked_at
		FROM wallet_links WHERE address = $1
	`, address).Scan(&link.Address, &link.OwnerID, &link.IsPrimary, &link.LinkedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.WalletLink{}, false, nil
	}
	if err != nil {
		return core.WalletLink{}, false, fmt.Errorf("find wallet link: %w", core.ErrStoreFailure)
	}
	return link, true, nil
}

// Create inserts a new link, computing primacy inside the statement so the
// decision and the insert are one atomic request. A unique violation on the
// address maps to core.ErrWalletAlreadyLinked for the resolver's race
// handling; a violation on the owner-primary index means a concurrent first
// link for the same owner landed in between, so the insert retries as
// non-primary.
func (s *PostgresLinkStore) Create(ctx context.Context, link core.WalletLink) (core.WalletLink, error) {
	err := s.pool.QueryRow(ctx, `
		INSERT INTO wallet_links (address, owner_id, is_primary, linked_at)
		VALUES ($1, $2, NOT EXISTS (SELECT 1 FROM wallet_links WHERE owner_id = $2), $3)
		RETURNING is_primary
	`, link.Address, link.OwnerID, link.LinkedAt).Scan(&link.IsPrimary)
	if err == nil {
		return link, nil
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolation {
		return core.WalletLink{}, fmt.Errorf("create wallet link: %w", core.ErrStoreFailure)
	}
	if pgErr.ConstraintName != ownerPrimaryIndex {
		return core.WalletLink{}, core.ErrWalletAlreadyLinked
	}

	link.IsPrimary = false
	_, err = s.pool.Exec(ctx, `
		INSERT INTO wallet_links (address, owner_id, is_primary, linked_at)
		VALUES ($1, $2, FALSE, $3)
	`, link.Address, link.OwnerID, link.LinkedAt)
	if err != nil {
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return core.WalletLink{}, core.ErrWalletAlreadyLinked
		}
		return core.WalletLink{}, fmt.Errorf("create wallet link: %w", core.ErrStoreFailure)
	}
	return link, nil
}
