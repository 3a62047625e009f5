package identity

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/amoria-labs/walletauth/core"
	"github.com/amoria-labs/walletauth/ports"
)

// MemoryDirectory is an in-memory account directory for tests and
// single-process development.
type MemoryDirectory struct {
	users map[string]core.NewUserParams
	mu    sync.Mutex
}

// NewMemoryDirectory creates a new in-memory directory.
func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{
		users: make(map[string]core.NewUserParams),
	}
}

var _ ports.IdentityDirectory = (*MemoryDirectory)(nil)

// CreateUser stores the account and returns a fresh id.
func (d *MemoryDirectory) CreateUser(ctx context.Context, params core.NewUserParams) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	id := uuid.New().String()
	d.users[id] = params
	return id, nil
}

// DeleteUser removes the account.
func (d *MemoryDirectory) DeleteUser(ctx context.Context, userID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.users[userID]; !ok {
		return fmt.Errorf("delete user %s: %w", userID, core.ErrStoreFailure)
	}
	delete(d.users, userID)
	return nil
}

// Count reports how many accounts exist; used by tests asserting the
// duplicate-login race creates exactly one.
func (d *MemoryDirectory) Count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.users)
}
