// Package eth implements EIP-191 personal_sign verification and address
// normalization for the wallet login flow.
package eth

import (
	"fmt"
	"regexp"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/amoria-labs/walletauth/core"
)

// signatureLength is the fixed size of a secp256k1 signature with recovery id.
const signatureLength = 65

var addressPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// NormalizeAddress validates a wallet address and returns its EIP-55
// checksummed form. Comparison anywhere in the service happens on this form,
// never case-insensitively.
func NormalizeAddress(address string) (string, error) {
	if !addressPattern.MatchString(address) {
		return "", core.ErrInvalidAddress
	}
	return common.HexToAddress(address).Hex(), nil
}

// personalHash computes the EIP-191 digest the wallet actually signed:
// keccak256("\x19Ethereum Signed Message:\n" + len(msg) + msg).
func personalHash(message string) []byte {
	prefixed := fmt.Sprintf("\x19Ethereum Signed Message:\n%d%s", len(message), message)
	return crypto.Keccak256([]byte(prefixed))
}

// RecoverAddress recovers the signer address of an EIP-191 personal_sign
// signature over message.
func RecoverAddress(message string, signature []byte) (common.Address, error) {
	if len(signature) != signatureLength {
		return common.Address{}, fmt.Errorf("signature must be %d bytes: %w", signatureLength, core.ErrInvalidSignature)
	}

	// Wallets emit V as 27/28; crypto.SigToPub wants 0/1. Copy so the
	// caller's slice stays untouched.
	sig := make([]byte, signatureLength)
	copy(sig, signature)
	if sig[64] >= 27 {
		sig[64] -= 27
	}

	pub, err := crypto.SigToPub(personalHash(message), sig)
	if err != nil {
		return common.Address{}, fmt.Errorf("recover public key: %w", core.ErrInvalidSignature)
	}
	return crypto.PubkeyToAddress(*pub), nil
}

// VerifySignature recovers the signer of (message, sigHex) and compares it to
// claimedAddress after checksum normalization of both sides.
func VerifySignature(message, sigHex, claimedAddress string) error {
	claimed, err := NormalizeAddress(claimedAddress)
	if err != nil {
		return err
	}

	sig, err := hexutil.Decode(sigHex)
	if err != nil {
		return fmt.Errorf("decode signature: %w", core.ErrInvalidSignature)
	}

	recovered, err := RecoverAddress(message, sig)
	if err != nil {
		return err
	}

	if recovered.Hex() != claimed {
		return core.ErrAddressMismatch
	}
	return nil
}
