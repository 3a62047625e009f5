package core

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"regexp"
	"time"
)

// DefaultNonceTTL is how long a challenge stays valid after issuance.
const DefaultNonceTTL = 5 * time.Minute

// NonceBytes is the entropy of a challenge token (256 bits).
const NonceBytes = 32

// Nonce is a single-use authentication challenge bound to one wallet address.
type Nonce struct {
	Address   string    // Checksummed wallet address the challenge was issued for
	Value     string    // Random token, 64 lowercase hex characters
	IssuedAt  time.Time // When the challenge was created
	ExpiresAt time.Time // When the challenge expires
	Used      bool      // Set once, on successful verification
}

// NewNonceValue generates a random challenge token.
func NewNonceValue() (string, error) {
	buf := make([]byte, NonceBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// challengePreamble is part of the wire contract with signing clients and
// must not change without versioning the whole message format.
const challengePreamble = "Welcome to Amoria!\n\n" +
	"Sign this message to verify ownership of your wallet.\n" +
	"This request will not trigger a blockchain transaction or cost any gas.\n\n"

var nonceLinePattern = regexp.MustCompile(`Nonce: ([0-9a-f]{64})`)

// ChallengeMessage renders the canonical human-readable message the client
// signs. The embedded nonce token is what gets consumed at verification.
func ChallengeMessage(nonce Nonce) string {
	return fmt.Sprintf("%sNonce: %s\nTimestamp: %s",
		challengePreamble, nonce.Value, nonce.IssuedAt.UTC().Format(time.RFC3339))
}

// ParseChallengeNonce extracts the nonce token embedded in a challenge
// message. Returns ErrNonceNotFound when the message carries no token.
func ParseChallengeNonce(message string) (string, error) {
	m := nonceLinePattern.FindStringSubmatch(message)
	if m == nil {
		return "", ErrNonceNotFound
	}
	return m[1], nil
}
