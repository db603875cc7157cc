// Package cryptox wraps the password key-derivation primitive used by the
// credential service: argon2id with fixed cost parameters and a stable
// string encoding of its output.
package cryptox

import (
	"crypto/subtle"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/argon2"
)

// Argon2Params are the argon2id cost parameters. They come from server
// configuration only, never from request input.
type Argon2Params struct {
	Time      uint32
	MemoryKiB uint32
	Threads   uint8
	KeyLen    uint32
}

// DefaultArgon2Params follows the OWASP baseline for argon2id.
func DefaultArgon2Params() Argon2Params {
	return Argon2Params{
		Time:      1,
		MemoryKiB: 64 * 1024,
		Threads:   4,
		KeyLen:    32,
	}
}

// Validate rejects parameter sets argon2 would silently adjust or that
// produce trivially short keys.
func (p Argon2Params) Validate() error {
	if p.Time < 1 {
		return fmt.Errorf("argon2: time must be >= 1 (got: %d)", p.Time)
	}
	if p.Threads < 1 {
		return fmt.Errorf("argon2: threads must be >= 1 (got: %d)", p.Threads)
	}
	if p.MemoryKiB < 8*uint32(p.Threads) {
		return fmt.Errorf("argon2: memory must be >= 8*threads KiB (got: %d)", p.MemoryKiB)
	}
	if p.KeyLen < 16 {
		return fmt.Errorf("argon2: key length must be >= 16 bytes (got: %d)", p.KeyLen)
	}
	return nil
}

// DeriveKey runs argon2id over password and salt.
func DeriveKey(password, salt []byte, p Argon2Params) []byte {
	return argon2.IDKey(password, salt, p.Time, p.MemoryKiB, p.Threads, p.KeyLen)
}

// EncodeHash renders a derived key together with its parameters:
//
//	$argon2id$v=19$m=65536,t=1,p=4$<base64 key>
//
// The salt is stored separately by callers and is not part of the encoding.
func EncodeHash(key []byte, p Argon2Params) string {
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s",
		argon2.Version,
		p.MemoryKiB, p.Time, p.Threads,
		base64.RawStdEncoding.EncodeToString(key),
	)
}

// Equal compares a and b in time independent of where they first differ.
func Equal(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
