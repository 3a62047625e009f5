package tokenizer

import "github.com/golang-jwt/jwt/v5"

// SessionClaims combines standard claims with the wallet-session ones. The
// subject is the account id; the credential is self-contained, so everything
// the rest of the system needs rides in the token.
type SessionClaims struct {
	jwt.RegisteredClaims
	WalletAddress string `json:"wallet_address"`
	AuthMethod    string `json:"auth_method"`
}
