package core

import "errors"

var (
	ErrNonceNotFound       = errors.New("nonce not found")
	ErrNonceExpired        = errors.New("nonce has expired")
	ErrNonceUsed           = errors.New("nonce has already been used")
	ErrInvalidSignature    = errors.New("invalid signature")
	ErrAddressMismatch     = errors.New("recovered address does not match claimed address")
	ErrInvalidAddress      = errors.New("invalid ethereum address")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrForbidden           = errors.New("token subject does not match account")
	ErrTokenExpired        = errors.New("token has expired")
	ErrWalletAlreadyLinked = errors.New("wallet is already linked to an account")
	ErrStoreFailure        = errors.New("store operation failed")
)
