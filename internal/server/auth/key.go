// Package auth implements token issuance and validation: deriving the HMAC
// signing key, building and signing HS256 tokens, and the checks applied to
// a presented token.
package auth

import (
	"fmt"

	"github.com/dmitrijs2005/bellwether/internal/common"
)

// SigningKey is the HMAC key material derived from the configured secret.
// It is immutable once derived and renders as a placeholder when printed.
type SigningKey struct {
	b []byte
}

// DeriveKey builds the signing key from the ASCII secret string.
// The secret must be at least common.MinSecretKeyLength bytes long.
func DeriveKey(secret string) (SigningKey, error) {
	if secret == "" {
		return SigningKey{}, fmt.Errorf("%w: secret key is empty", common.ErrConfiguration)
	}
	if len(secret) < common.MinSecretKeyLength {
		return SigningKey{}, fmt.Errorf("%w: secret key must be at least %d bytes, got %d",
			common.ErrConfiguration, common.MinSecretKeyLength, len(secret))
	}
	for i := 0; i < len(secret); i++ {
		if secret[i] > 0x7f {
			return SigningKey{}, fmt.Errorf("%w: secret key must be ASCII", common.ErrConfiguration)
		}
	}

	b := make([]byte, len(secret))
	copy(b, secret)
	return SigningKey{b: b}, nil
}

// IsZero reports whether the key was never derived.
func (k SigningKey) IsZero() bool {
	return len(k.b) == 0
}

func (k SigningKey) String() string {
	return "SigningKey(redacted)"
}

func (k SigningKey) GoString() string {
	return k.String()
}

// bytes returns the raw key for the jwt library; callers must not modify it.
func (k SigningKey) bytes() []byte {
	return k.b
}
