package eth

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amoria-labs/walletauth/core"
)

// signPersonal produces an EIP-191 personal_sign signature the way wallets
// do, with V as 27/28.
func signPersonal(t *testing.T, key *ecdsa.PrivateKey, message string) string {
	t.Helper()
	prefixed := fmt.Sprintf("\x19Ethereum Signed Message:\n%d%s", len(message), message)
	sig, err := crypto.Sign(crypto.Keccak256([]byte(prefixed)), key)
	require.NoError(t, err)
	sig[64] += 27
	return hexutil.Encode(sig)
}

func Test_NormalizeAddress(t *testing.T) {
	// The checksum form comes back regardless of input casing.
	got, err := NormalizeAddress("0x8ba1f109551bd432803012645ac136ddd64dba72")
	require.NoError(t, err)
	assert.Equal(t, "0x8ba1f109551bD432803012645Ac136ddd64DBA72", got)

	got, err = NormalizeAddress("0x8BA1F109551BD432803012645AC136DDD64DBA72")
	require.NoError(t, err)
	assert.Equal(t, "0x8ba1f109551bD432803012645Ac136ddd64DBA72", got)

	for _, bad := range []string{"", "0x123", "8ba1f109551bd432803012645ac136ddd64dba72", "0xZZa1f109551bd432803012645ac136ddd64dba72"} {
		_, err := NormalizeAddress(bad)
		assert.ErrorIs(t, err, core.ErrInvalidAddress, "address %q", bad)
	}
}

func Test_VerifySignature(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	address := crypto.PubkeyToAddress(key.PublicKey).Hex()

	message := "Welcome to Amoria!\n\nNonce: abc\nTimestamp: 2026-01-01T00:00:00Z"
	sig := signPersonal(t, key, message)

	require.NoError(t, VerifySignature(message, sig, address))

	// Case-mangled claimed address still verifies after normalization.
	require.NoError(t, VerifySignature(message, sig, strings.ToLower(address)))
}

func Test_VerifySignature_TamperedMessage(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	address := crypto.PubkeyToAddress(key.PublicKey).Hex()

	message := "original message"
	sig := signPersonal(t, key, message)

	err = VerifySignature(message+".", sig, address)
	require.ErrorIs(t, err, core.ErrAddressMismatch)
}

func Test_VerifySignature_TamperedSignature(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	address := crypto.PubkeyToAddress(key.PublicKey).Hex()

	message := "original message"
	sig := signPersonal(t, key, message)

	// Flip one byte in the middle of the signature. Recovery either fails
	// outright or yields a different signer.
	raw, err := hexutil.Decode(sig)
	require.NoError(t, err)
	raw[10] ^= 0xff
	err = VerifySignature(message, hexutil.Encode(raw), address)
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrInvalidSignature) || errors.Is(err, core.ErrAddressMismatch))
}

func Test_VerifySignature_WrongSigner(t *testing.T) {
	signer, err := crypto.GenerateKey()
	require.NoError(t, err)
	other, err := crypto.GenerateKey()
	require.NoError(t, err)

	message := "original message"
	sig := signPersonal(t, signer, message)

	err = VerifySignature(message, sig, crypto.PubkeyToAddress(other.PublicKey).Hex())
	require.ErrorIs(t, err, core.ErrAddressMismatch)
}

func Test_VerifySignature_Malformed(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	address := crypto.PubkeyToAddress(key.PublicKey).Hex()

	for _, bad := range []string{"", "not-hex", "0x1234", "0x" + string(make([]byte, 130))} {
		err := VerifySignature("message", bad, address)
		assert.ErrorIs(t, err, core.ErrInvalidSignature, "signature %q", bad)
	}
}
