package ports

import (
	"context"

	"github.com/amoria-labs/walletauth/core"
)

// IdentityDirectory is the upstream account service. This core only ever
// provisions placeholder accounts and, on a lost creation race, removes the
// orphan it just made.
type IdentityDirectory interface {
	// CreateUser provisions an account and returns its stable identifier.
	CreateUser(ctx context.Context, params core.NewUserParams) (string, error)

	// DeleteUser removes an account. Used best-effort when a concurrent
	// first-time login wins the wallet-link race.
	DeleteUser(ctx context.Context, userID string) error
}
