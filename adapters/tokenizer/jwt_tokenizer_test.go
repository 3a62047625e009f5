package tokenizer

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amoria-labs/walletauth/core"
)

func newTestKey(t *testing.T) *ecdsa.PrivateKey {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	return key
}

func testSession(ttl time.Duration) *core.Session {
	now := time.Now()
	return &core.Session{
		ID:         "session-1",
		UserID:     "user-1",
		Address:    "0x8ba1f109551bD432803012645Ac136ddd64DBA72",
		AuthMethod: core.AuthMethodWallet,
		IssuedAt:   now,
		ExpiresAt:  now.Add(ttl),
	}
}

func Test_JWTTokenizer_Roundtrip(t *testing.T) {
	tk := NewJWTTokenizer(newTestKey(t))
	session := testSession(time.Hour)

	token, err := tk.Issue(session)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	got, err := tk.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, session.ID, got.ID)
	assert.Equal(t, session.UserID, got.UserID)
	assert.Equal(t, session.Address, got.Address)
	assert.Equal(t, core.AuthMethodWallet, got.AuthMethod)
	assert.WithinDuration(t, session.ExpiresAt, got.ExpiresAt, time.Second)
}

func Test_JWTTokenizer_Expired(t *testing.T) {
	tk := NewJWTTokenizer(newTestKey(t))

	token, err := tk.Issue(testSession(-time.Hour))
	require.NoError(t, err)

	_, err = tk.Verify(token)
	require.ErrorIs(t, err, core.ErrTokenExpired)
}

func Test_JWTTokenizer_Garbage(t *testing.T) {
	tk := NewJWTTokenizer(newTestKey(t))

	for _, bad := range []string{"", "not-a-jwt", "aaaa.bbbb.cccc"} {
		_, err := tk.Verify(bad)
		assert.ErrorIs(t, err, core.ErrUnauthorized, "token %q", bad)
	}
}

func Test_JWTTokenizer_WrongKey(t *testing.T) {
	issuer := NewJWTTokenizer(newTestKey(t))
	verifier := NewJWTTokenizer(newTestKey(t))

	token, err := issuer.Issue(testSession(time.Hour))
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	require.ErrorIs(t, err, core.ErrUnauthorized)
}
