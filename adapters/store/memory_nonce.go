package store

import (
	"context"
	"sync"
	"time"

	"github.com/amoria-labs/walletauth/core"
	"github.com/amoria-labs/walletauth/ports"
)

// MemoryNonceStore is an in-memory implementation of the NonceStore
// interface, intended for tests and single-process development.
type MemoryNonceStore struct {
	nonces map[string]core.Nonce // keyed by checksummed address
	clock  func() time.Time
	mu     sync.Mutex
}

// NewMemoryNonceStore creates a new in-memory nonce store.
func NewMemoryNonceStore() *MemoryNonceStore {
	return &MemoryNonceStore{
		nonces: make(map[string]core.Nonce),
		clock:  time.Now,
	}
}

// WithClock overrides the store's clock for expiry tests.
func (s *MemoryNonceStore) WithClock(clock func() time.Time) *MemoryNonceStore {
	s.clock = clock
	return s
}

var _ ports.NonceStore = (*MemoryNonceStore)(nil)

// Issue stores the challenge, superseding any earlier one for the address.
func (s *MemoryNonceStore) Issue(ctx context.Context, nonce core.Nonce) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nonces[nonce.Address] = nonce
	return nil
}

// Consume validates and burns a challenge under the store lock, so the
// check and the used flip are a single atomic step.
func (s *MemoryNonceStore) Consume(ctx context.Context, address, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	nonce, ok := s.nonces[address]
	if !ok || nonce.Value != value {
		return core.ErrNonceNotFound
	}
	if nonce.Used {
		return core.ErrNonceUsed
	}
	// Validity is strict: a nonce is live only while expiresAt > now, so
	// the expiry instant itself is already expired, as in the SQL and Lua
	// consume paths.
	if !s.clock().Before(nonce.ExpiresAt) {
		return core.ErrNonceExpired
	}

	nonce.Used = true
	s.nonces[address] = nonce
	return nil
}

// PurgeExpired drops challenges past expiry plus the grace period.
func (s *MemoryNonceStore) PurgeExpired(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.clock().Add(-purgeGrace)
	purged := 0
	for addr, nonce := range s.nonces {
		if nonce.ExpiresAt.Before(cutoff) {
			delete(s.nonces, addr)
			purged++
		}
	}
	return purged, nil
}
