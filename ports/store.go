package ports

import (
	"context"

	"github.com/amoria-labs/walletauth/core"
)

// NonceStore persists outstanding authentication challenges, one meaningful
// challenge per wallet address.
type NonceStore interface {
	// Issue persists a freshly generated challenge, superseding any earlier
	// challenge for the same address.
	Issue(ctx context.Context, nonce core.Nonce) error

	// Consume atomically validates and burns a challenge. Implementations
	// must run the check and the used flip as a single conditional update so
	// concurrent calls for the same nonce yield exactly one success. Failures
	// are core.ErrNonceNotFound, core.ErrNonceExpired or core.ErrNonceUsed.
	Consume(ctx context.Context, address, value string) error

	// PurgeExpired deletes challenges past expiry plus a grace period. Purely
	// storage hygiene; expiry is enforced at consume time regardless.
	PurgeExpired(ctx context.Context) (int, error)
}

// LinkStore persists wallet-to-account links. The address is unique across
// the whole system, enforced by the store.
type LinkStore interface {
	// FindByAddress returns the link owning address. A missing link is
	// reported as (core.WalletLink{}, false, nil), not as an error.
	FindByAddress(ctx context.Context, address string) (core.WalletLink, bool, error)

	// Create persists a new link, marking it the owner's primary wallet only
	// when the owner has no other links. The primacy decision and the insert
	// are a single atomic step, so at most one link per owner is ever
	// primary. A uniqueness violation on the address maps to
	// core.ErrWalletAlreadyLinked. Returns the link as persisted.
	Create(ctx context.Context, link core.WalletLink) (core.WalletLink, error)
}
