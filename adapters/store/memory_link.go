package store

import (
	"context"
	"sync"

	"github.com/amoria-labs/walletauth/core"
	"github.com/amoria-labs/walletauth/ports"
)

// MemoryLinkStore is an in-memory implementation of the LinkStore interface.
// The map key doubles as the uniqueness constraint on the wallet address.
type MemoryLinkStore struct {
	links map[string]core.WalletLink // keyed by checksummed address
	mu    sync.Mutex
}

// NewMemoryLinkStore creates a new in-memory wallet-link store.
func NewMemoryLinkStore() *MemoryLinkStore {
	return &MemoryLinkStore{
		links: make(map[string]core.WalletLink),
	}
}

var _ ports.LinkStore = (*MemoryLinkStore)(nil)

// FindByAddress returns the link owning address, if any.
func (s *MemoryLinkStore) FindByAddress(ctx context.Context, address string) (core.WalletLink, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	link, ok := s.links[address]
	return link, ok, nil
}

// Create persists a new link, failing when the address is already owned.
// Primacy is decided under the same lock as the insert, so concurrent first
// links for an owner can never both come out primary.
func (s *MemoryLinkStore) Create(ctx context.Context, link core.WalletLink) (core.WalletLink, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.links[link.Address]; exists {
		return core.WalletLink{}, core.ErrWalletAlreadyLinked
	}

	link.IsPrimary = true
	for _, existing := range s.links {
		if existing.OwnerID == link.OwnerID {
			link.IsPrimary = false
			break
		}
	}

	s.links[link.Address] = link
	return link, nil
}
