// Package tokenizer converts sessions to ES256-signed JWTs and back.
package tokenizer

import (
	"crypto/ecdsa"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/amoria-labs/walletauth/core"
	"github.com/amoria-labs/walletauth/ports"
)

// AudienceSession marks credentials minted by this service.
const AudienceSession = "auth:session"

// JWTTokenizer implements the Tokenizer interface using JWT.
type JWTTokenizer struct {
	signKey *ecdsa.PrivateKey
}

// NewJWTTokenizer creates a new JWT tokenizer signing with the given key.
func NewJWTTokenizer(signKey *ecdsa.PrivateKey) *JWTTokenizer {
	return &JWTTokenizer{signKey: signKey}
}

var _ ports.Tokenizer = (*JWTTokenizer)(nil)

// Issue mints a signed session credential.
func (j *JWTTokenizer) Issue(session *core.Session) (string, error) {
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   session.UserID,
			ID:        session.ID,
			Audience:  jwt.ClaimStrings{AudienceSession},
			IssuedAt:  jwt.NewNumericDate(session.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
		},
		WalletAddress: session.Address,
		AuthMethod:    session.AuthMethod,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodES256, claims)

	signed, err := token.SignedString(j.signKey)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a session credential. No store lookup happens
// here; the token is the whole session.
func (j *JWTTokenizer) Verify(tokenStr string) (*core.Session, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodECDSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return &j.signKey.PublicKey, nil
	}, jwt.WithAudience(AudienceSession))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, core.ErrTokenExpired
		}
		return nil, core.ErrUnauthorized
	}

	if !token.Valid {
		return nil, core.ErrUnauthorized
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok {
		return nil, core.ErrUnauthorized
	}

	session := &core.Session{
		ID:         claims.ID,
		UserID:     claims.Subject,
		Address:    claims.WalletAddress,
		AuthMethod: claims.AuthMethod,
		IssuedAt:   claims.IssuedAt.Time,
		ExpiresAt:  claims.ExpiresAt.Time,
	}
	return session, nil
}
