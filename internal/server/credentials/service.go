// Package credentials verifies user passwords: it draws salts, derives
// argon2id hashes from (password, salt) pairs and compares presented
// passwords against stored hashes in constant time.
package credentials

import (
	"context"
	"encoding/base64"
	"fmt"
	"runtime"

	"github.com/dmitrijs2005/bellwether/internal/common"
	"github.com/dmitrijs2005/bellwether/internal/cryptox"
	"golang.org/x/sync/semaphore"
)

const (
	// SaltLen is the number of random bytes in a salt.
	SaltLen = 16

	// DefaultMaxPasswordLen bounds hashing input size.
	DefaultMaxPasswordLen = 1024
)

// Config tunes the service. Zero fields take defaults.
type Config struct {
	Argon2 cryptox.Argon2Params

	// MaxPasswordLen is the longest password, in bytes, HashPassword accepts.
	MaxPasswordLen int

	// MaxConcurrent caps simultaneous hash computations (default: GOMAXPROCS).
	MaxConcurrent int64
}

// ApplyDefaults fills zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.Argon2 == (cryptox.Argon2Params{}) {
		c.Argon2 = cryptox.DefaultArgon2Params()
	}
	if c.MaxPasswordLen == 0 {
		c.MaxPasswordLen = DefaultMaxPasswordLen
	}
	if c.MaxConcurrent == 0 {
		c.MaxConcurrent = int64(runtime.GOMAXPROCS(0))
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if err := c.Argon2.Validate(); err != nil {
		return fmt.Errorf("%w: %v", common.ErrConfiguration, err)
	}
	if c.MaxPasswordLen < 1 {
		return fmt.Errorf("%w: max password length must be >= 1 (got: %d)", common.ErrConfiguration, c.MaxPasswordLen)
	}
	if c.MaxConcurrent < 1 {
		return fmt.Errorf("%w: max concurrent hashes must be >= 1 (got: %d)", common.ErrConfiguration, c.MaxConcurrent)
	}
	return nil
}

// Service is stateless apart from its fixed parameters and the semaphore
// bounding concurrent hashing; every call is a function of its inputs.
type Service struct {
	params         cryptox.Argon2Params
	maxPasswordLen int
	sem            *semaphore.Weighted
}

// NewService builds a Service from cfg.
func NewService(cfg Config) (*Service, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Service{
		params:         cfg.Argon2,
		maxPasswordLen: cfg.MaxPasswordLen,
		sem:            semaphore.NewWeighted(cfg.MaxConcurrent),
	}, nil
}

// GenerateSalt returns a fresh base64-encoded salt drawn from crypto/rand.
func (s *Service) GenerateSalt() string {
	return base64.RawStdEncoding.EncodeToString(common.GenerateRandByteArray(SaltLen))
}

// HashPassword derives the encoded argon2id hash of password under salt.
// It waits for a hashing slot like IsCorrect; if ctx ends first, ctx.Err()
// is returned.
func (s *Service) HashPassword(ctx context.Context, password, salt string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("%w: password is empty", common.ErrInvalidArgument)
	}
	if salt == "" {
		return "", fmt.Errorf("%w: salt is empty", common.ErrInvalidArgument)
	}
	if len(password) > s.maxPasswordLen {
		return "", fmt.Errorf("%w: password exceeds %d bytes", common.ErrInvalidArgument, s.maxPasswordLen)
	}
	return s.hashBounded(ctx, password, salt)
}

// IsCorrect reports whether password hashes to passwordHash under salt.
// The hashing runs on a separate goroutine; if ctx ends first, ctx.Err() is
// returned. A mismatch is (false, nil), never an error.
func (s *Service) IsCorrect(ctx context.Context, password, passwordHash, salt string) (bool, error) {
	if password == "" || passwordHash == "" || salt == "" {
		return false, fmt.Errorf("%w: password, hash and salt are required", common.ErrInvalidArgument)
	}
	// HashPassword never accepted such a password
	if len(password) > s.maxPasswordLen {
		return false, nil
	}

	got, err := s.hashBounded(ctx, password, salt)
	if err != nil {
		return false, err
	}
	return cryptox.Equal(got, passwordHash), nil
}

// hashBounded runs hash on a worker goroutine holding one of the
// MaxConcurrent slots.
func (s *Service) hashBounded(ctx context.Context, password, salt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return "", err
	}

	result := make(chan string, 1)
	go func() {
		defer s.sem.Release(1)
		result <- s.hash(password, salt)
	}()

	select {
	case h := <-result:
		return h, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (s *Service) hash(password, salt string) string {
	pw := []byte(password)
	defer common.WipeByteArray(pw)

	key := cryptox.DeriveKey(pw, []byte(salt), s.params)
	return cryptox.EncodeHash(key, s.params)
}
