package common

import (
	"encoding/hex"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------- MakeRandHexString ----------

func TestMakeRandHexString_LengthAndHex(t *testing.T) {
	const n = 16
	s, err := MakeRandHexString(n)
	require.NoError(t, err)
	assert.Len(t, s, n*2)

	_, err = hex.DecodeString(s)
	assert.NoError(t, err, "string is not valid hex")
}

func TestMakeRandHexString_ZeroSize(t *testing.T) {
	s, err := MakeRandHexString(0)
	require.NoError(t, err)
	assert.Empty(t, s)
}

func TestMakeRandHexString_Distinct(t *testing.T) {
	a, err := MakeRandHexString(32)
	require.NoError(t, err)
	b, err := MakeRandHexString(32)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

// ---------- WipeByteArray ----------

func TestWipeByteArray_ZerosBuffer(t *testing.T) {
	buf := []byte{1, 2, 3, 4, 5}
	WipeByteArray(buf)
	for i, v := range buf {
		if v != 0 {
			t.Fatalf("expected buf[%d]==0, got %d", i, v)
		}
	}
}

func TestWipeByteArray_NilSafe(t *testing.T) {
	WipeByteArray(nil)
}

// ---------- GenerateRandByteArray ----------

func TestGenerateRandByteArray_Basic(t *testing.T) {
	const n = 24
	a := GenerateRandByteArray(n)
	b := GenerateRandByteArray(n)

	require.Len(t, a, n)
	require.Len(t, b, n)
	assert.NotEqual(t, a, b)
}

// ---------- token errors ----------

func TestTokenErrors_MatchUmbrella(t *testing.T) {
	for _, e := range []error{
		ErrInvalidSignature,
		ErrIssuerMismatch,
		ErrAudienceMismatch,
		ErrTokenNotYetValid,
		ErrTokenExpired,
	} {
		wrapped := fmt.Errorf("validate: %w", e)
		assert.True(t, errors.Is(wrapped, ErrInvalidToken), "%v should match ErrInvalidToken", e)
		assert.True(t, errors.Is(wrapped, e))
	}

	assert.False(t, errors.Is(ErrTokenExpired, ErrInvalidSignature))
	assert.False(t, errors.Is(ErrorUnauthorized, ErrInvalidToken))
}
