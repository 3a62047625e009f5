package ports

import "github.com/amoria-labs/walletauth/core"

// Tokenizer converts sessions to signed credentials and back.
type Tokenizer interface {
	// Issue mints a signed, self-contained credential for the session.
	Issue(session *core.Session) (string, error)

	// Verify parses and validates a credential. Expired credentials fail
	// with core.ErrTokenExpired, anything else invalid with
	// core.ErrUnauthorized.
	Verify(token string) (*core.Session, error)
}
