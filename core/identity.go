package core

import (
	"fmt"
	"strings"
	"time"
)

// AuthMethodWallet is the only auth method this service issues sessions for.
const AuthMethodWallet = "wallet"

// DefaultSessionTTL is the lifetime of an issued session credential.
const DefaultSessionTTL = 7 * 24 * time.Hour

// WalletLink is a durable association between a wallet address and an
// account. An address belongs to at most one owner across the whole system.
type WalletLink struct {
	Address   string // Checksummed wallet address, unique
	OwnerID   string // Stable account identifier
	IsPrimary bool   // At most one primary link per owner
	LinkedAt  time.Time
}

// Session is the authenticated state carried by a session credential. It is
// self-contained: verifying a credential never requires a store lookup.
type Session struct {
	ID         string // Credential identifier (jti)
	UserID     string // Subject account
	Address    string // Wallet the session was established with
	AuthMethod string // Always AuthMethodWallet for this service
	IssuedAt   time.Time
	ExpiresAt  time.Time
}

// NewUserParams describes the placeholder account provisioned for a wallet
// seen for the first time. Fields are explicit so nothing loosely typed
// reaches the upstream directory.
type NewUserParams struct {
	Email       string // Synthetic, derived from the wallet address
	Password    string // Random and unusable; login is always by wallet
	DisplayName string
}

// NewPlaceholderUser builds validated placeholder-account parameters for a
// checksummed wallet address.
func NewPlaceholderUser(address, password string) (NewUserParams, error) {
	if address == "" {
		return NewUserParams{}, ErrInvalidAddress
	}
	if password == "" {
		return NewUserParams{}, fmt.Errorf("placeholder password must not be empty")
	}
	short := address
	if len(short) > 10 {
		short = short[:10]
	}
	return NewUserParams{
		Email:       strings.ToLower(address) + "@wallet.amoria.app",
		Password:    password,
		DisplayName: short,
	}, nil
}
