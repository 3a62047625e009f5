// Package service implements the wallet authentication flows on top of the
// store, tokenizer, directory and event ports.
package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/amoria-labs/walletauth/core"
	"github.com/amoria-labs/walletauth/internal/eth"
	"github.com/amoria-labs/walletauth/ports"
)

// AuthService handles the nonce-sign-verify login protocol and wallet
// linking. All collaborators are injected at construction and live for the
// whole process.
type AuthService struct {
	nonces    ports.NonceStore
	links     ports.LinkStore
	directory ports.IdentityDirectory
	tokenizer ports.Tokenizer
	events    ports.EventPublisher
	logger    *log.Logger

	nonceTTL   time.Duration
	sessionTTL time.Duration
	clock      func() time.Time
}

// NewAuthService creates a new authentication service.
func NewAuthService(
	nonces ports.NonceStore,
	links ports.LinkStore,
	directory ports.IdentityDirectory,
	tokenizer ports.Tokenizer,
	events ports.EventPublisher,
	logger *log.Logger,
) *AuthService {
	return &AuthService{
		nonces:     nonces,
		links:      links,
		directory:  directory,
		tokenizer:  tokenizer,
		events:     events,
		logger:     logger,
		nonceTTL:   core.DefaultNonceTTL,
		sessionTTL: core.DefaultSessionTTL,
		clock:      time.Now,
	}
}

// WithClock overrides the service clock for expiry tests.
func (s *AuthService) WithClock(clock func() time.Time) *AuthService {
	s.clock = clock
	return s
}

// ChallengeResult is what the client needs to produce a signature.
type ChallengeResult struct {
	Nonce     string
	Message   string
	ExpiresAt time.Time
}

// VerifyResult is the outcome of a successful login.
type VerifyResult struct {
	Token     string
	UserID    string
	Address   string
	IsNewUser bool
}

// Challenge issues a fresh nonce for the address and returns the canonical
// message the wallet must sign.
func (s *AuthService) Challenge(ctx context.Context, address string) (*ChallengeResult, error) {
	normalized, err := eth.NormalizeAddress(address)
	if err != nil {
		return nil, err
	}

	value, err := core.NewNonceValue()
	if err != nil {
		return nil, err
	}

	now := s.clock()
	nonce := core.Nonce{
		Address:   normalized,
		Value:     value,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.nonceTTL),
	}

	if err := s.nonces.Issue(ctx, nonce); err != nil {
		return nil, err
	}

	return &ChallengeResult{
		Nonce:     value,
		Message:   core.ChallengeMessage(nonce),
		ExpiresAt: nonce.ExpiresAt,
	}, nil
}

// Verify authenticates a signed challenge: it recovers the signer, burns the
// nonce, resolves (or provisions) the account and mints a session credential.
func (s *AuthService) Verify(ctx context.Context, address, message, signature string) (*VerifyResult, error) {
	normalized, err := eth.NormalizeAddress(address)
	if err != nil {
		return nil, err
	}

	value, err := core.ParseChallengeNonce(message)
	if err != nil {
		return nil, err
	}

	// Signature first: a forged request must not burn the outstanding nonce.
	if err := eth.VerifySignature(message, signature, normalized); err != nil {
		return nil, err
	}

	if err := s.nonces.Consume(ctx, normalized, value); err != nil {
		return nil, err
	}

	userID, isNew, err := s.resolveIdentity(ctx, normalized)
	if err != nil {
		return nil, err
	}

	now := s.clock()
	session := &core.Session{
		ID:         uuid.New().String(),
		UserID:     userID,
		Address:    normalized,
		AuthMethod: core.AuthMethodWallet,
		IssuedAt:   now,
		ExpiresAt:  now.Add(s.sessionTTL),
	}

	token, err := s.tokenizer.Issue(session)
	if err != nil {
		return nil, fmt.Errorf("issue session token: %w", err)
	}

	if isNew {
		s.publish(ctx, core.EventAccountCreated, userID, normalized)
	}
	s.publish(ctx, core.EventLogin, userID, normalized)

	return &VerifyResult{
		Token:     token,
		UserID:    userID,
		Address:   normalized,
		IsNewUser: isNew,
	}, nil
}

// resolveIdentity maps a verified wallet address to its account, provisioning
// a placeholder account for a first-time address. Concurrent first logins for
// the same address race on the link store's uniqueness constraint; the loser
// removes its orphan account and resolves to the winner.
func (s *AuthService) resolveIdentity(ctx context.Context, address string) (string, bool, error) {
	link, found, err := s.links.FindByAddress(ctx, address)
	if err != nil {
		return "", false, err
	}
	if found {
		return link.OwnerID, false, nil
	}

	params, err := core.NewPlaceholderUser(address, uuid.New().String())
	if err != nil {
		return "", false, err
	}

	userID, err := s.directory.CreateUser(ctx, params)
	if err != nil {
		return "", false, err
	}

	_, err = s.links.Create(ctx, core.WalletLink{
		Address:  address,
		OwnerID:  userID,
		LinkedAt: s.clock(),
	})
	if err == nil {
		return userID, true, nil
	}
	if !errors.Is(err, core.ErrWalletAlreadyLinked) {
		return "", false, err
	}

	// Lost the race. Drop the account we just made and defer to the winner.
	if delErr := s.directory.DeleteUser(ctx, userID); delErr != nil {
		s.logger.Printf("warning: failed to delete orphan account %s: %v", userID, delErr)
	}

	link, found, err = s.links.FindByAddress(ctx, address)
	if err != nil {
		return "", false, err
	}
	if !found {
		return "", false, core.ErrStoreFailure
	}
	return link.OwnerID, false, nil
}

// LinkWallet attaches an additional wallet to an already-authenticated
// account. The presented credential's subject must be the account itself.
func (s *AuthService) LinkWallet(ctx context.Context, address, userID, token string) (*core.WalletLink, error) {
	normalized, err := eth.NormalizeAddress(address)
	if err != nil {
		return nil, err
	}

	session, err := s.tokenizer.Verify(token)
	if err != nil {
		return nil, err
	}
	if session.UserID != userID {
		return nil, core.ErrForbidden
	}

	// The store decides primacy atomically with the insert. Deciding it
	// here from a separate read would let two concurrent first links both
	// come out primary.
	link, err := s.links.Create(ctx, core.WalletLink{
		Address:  normalized,
		OwnerID:  userID,
		LinkedAt: s.clock(),
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, core.EventWalletLinked, userID, normalized)

	return &link, nil
}

// publish emits an auth event; delivery failure never fails the auth flow.
func (s *AuthService) publish(ctx context.Context, typ core.EventType, userID, address string) {
	event := core.Event{
		Type:    typ,
		UserID:  userID,
		Address: address,
		At:      s.clock(),
	}
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Printf("warning: failed to publish %s event: %v", typ, err)
	}
}
