package core

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_NewNonceValue(t *testing.T) {
	first, err := NewNonceValue()
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]{64}$`), first)

	second, err := NewNonceValue()
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func Test_ChallengeMessage_Format(t *testing.T) {
	issued := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	nonce := Nonce{
		Address:  "0x8ba1f109551bD432803012645Ac136ddd64DBA72",
		Value:    "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
		IssuedAt: issued,
	}

	message := ChallengeMessage(nonce)

	assert.Contains(t, message, "Welcome to Amoria!")
	assert.Contains(t, message, "Nonce: "+nonce.Value)
	assert.Contains(t, message, "Timestamp: 2026-03-14T09:26:53Z")
}

func Test_ParseChallengeNonce_Roundtrip(t *testing.T) {
	value, err := NewNonceValue()
	require.NoError(t, err)

	message := ChallengeMessage(Nonce{Value: value, IssuedAt: time.Now()})

	parsed, err := ParseChallengeNonce(message)
	require.NoError(t, err)
	assert.Equal(t, value, parsed)
}

func Test_ParseChallengeNonce_Missing(t *testing.T) {
	_, err := ParseChallengeNonce("sign me, no nonce here")
	require.ErrorIs(t, err, ErrNonceNotFound)

	// Uppercase hex is not a valid token.
	_, err = ParseChallengeNonce("Nonce: " + "AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA")
	require.ErrorIs(t, err, ErrNonceNotFound)
}

func Test_NewPlaceholderUser(t *testing.T) {
	params, err := NewPlaceholderUser("0x8ba1f109551bD432803012645Ac136ddd64DBA72", "random-password")
	require.NoError(t, err)
	assert.Equal(t, "0x8ba1f109551bd432803012645ac136ddd64dba72@wallet.amoria.app", params.Email)
	assert.Equal(t, "0x8ba1f109", params.DisplayName)

	_, err = NewPlaceholderUser("", "random-password")
	require.ErrorIs(t, err, ErrInvalidAddress)

	_, err = NewPlaceholderUser("0x8ba1f109551bD432803012645Ac136ddd64DBA72", "")
	require.Error(t, err)
}
