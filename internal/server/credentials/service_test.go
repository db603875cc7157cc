package credentials

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/bellwether/internal/common"
	"github.com/dmitrijs2005/bellwether/internal/cryptox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	s, err := NewService(Config{
		Argon2:         cryptox.Argon2Params{Time: 1, MemoryKiB: 64, Threads: 1, KeyLen: 32},
		MaxPasswordLen: 128,
		MaxConcurrent:  4,
	})
	require.NoError(t, err)
	return s
}

func TestGenerateSalt_Format(t *testing.T) {
	s := newTestService(t)
	salt := s.GenerateSalt()
	// 16 bytes, raw base64
	assert.Len(t, salt, 22)
	assert.NotEqual(t, salt, s.GenerateSalt())
}

func TestGenerateSalt_NoRepeats(t *testing.T) {
	n := 1_000_000
	if testing.Short() {
		n = 100_000
	}

	s := newTestService(t)
	seen := make(map[string]struct{}, n)
	for i := 0; i < n; i++ {
		salt := s.GenerateSalt()
		if _, dup := seen[salt]; dup {
			t.Fatalf("salt repeated after %d calls", i)
		}
		seen[salt] = struct{}{}
	}
}

func TestHashPassword_DeterministicAndSaltDependent(t *testing.T) {
	s := newTestService(t)

	h1, err := s.HashPassword(context.Background(), "correct horse", "salt-one")
	require.NoError(t, err)
	h2, err := s.HashPassword(context.Background(), "correct horse", "salt-one")
	require.NoError(t, err)
	h3, err := s.HashPassword(context.Background(), "correct horse", "salt-two")
	require.NoError(t, err)

	assert.Equal(t, h1, h2)
	assert.NotEqual(t, h1, h3)
	assert.True(t, strings.HasPrefix(h1, "$argon2id$"))
	assert.NotContains(t, h1, "correct horse")
}

func TestHashPassword_InvalidArguments(t *testing.T) {
	s := newTestService(t)

	_, err := s.HashPassword(context.Background(), "", "salt")
	require.ErrorIs(t, err, common.ErrInvalidArgument)

	_, err = s.HashPassword(context.Background(), "password", "")
	require.ErrorIs(t, err, common.ErrInvalidArgument)

	_, err = s.HashPassword(context.Background(), strings.Repeat("p", 129), "salt")
	require.ErrorIs(t, err, common.ErrInvalidArgument)
}

func TestIsCorrect_RoundTrip(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	for _, pw := range []string{"p", "correct horse battery staple", "пароль", strings.Repeat("x", 128)} {
		salt := s.GenerateSalt()
		hash, err := s.HashPassword(context.Background(), pw, salt)
		require.NoError(t, err)

		ok, err := s.IsCorrect(ctx, pw, hash, salt)
		require.NoError(t, err)
		assert.True(t, ok, "password %q should verify", pw)
	}
}

func TestIsCorrect_SingleCharacterMutationFails(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	pw := "Tr0ub4dor&3"
	salt := s.GenerateSalt()
	hash, err := s.HashPassword(context.Background(), pw, salt)
	require.NoError(t, err)

	for i := range pw {
		b := []byte(pw)
		b[i] ^= 0x01
		ok, err := s.IsCorrect(ctx, string(b), hash, salt)
		require.NoError(t, err)
		assert.False(t, ok, "mutation at %d must not verify", i)
	}

	// insertion and deletion
	for _, m := range []string{pw + "x", pw[1:], pw[:len(pw)-1]} {
		ok, err := s.IsCorrect(ctx, m, hash, salt)
		require.NoError(t, err)
		assert.False(t, ok)
	}
}

func TestIsCorrect_WrongSaltOrHash(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	hash, err := s.HashPassword(context.Background(), "password", "salt-a")
	require.NoError(t, err)

	ok, err := s.IsCorrect(ctx, "password", hash, "salt-b")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = s.IsCorrect(ctx, "password", "garbage", "salt-a")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestIsCorrect_OversizedPasswordIsMismatch(t *testing.T) {
	s := newTestService(t)
	ok, err := s.IsCorrect(context.Background(), strings.Repeat("p", 4096), "hash", "salt")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestIsCorrect_InvalidArguments(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	for _, args := range [][3]string{
		{"", "hash", "salt"},
		{"pw", "", "salt"},
		{"pw", "hash", ""},
	} {
		_, err := s.IsCorrect(ctx, args[0], args[1], args[2])
		require.ErrorIs(t, err, common.ErrInvalidArgument)
	}
}

func TestIsCorrect_CanceledContext(t *testing.T) {
	s := newTestService(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.IsCorrect(ctx, "pw", "hash", "salt")
	require.ErrorIs(t, err, context.Canceled)
}

func TestIsCorrect_Concurrent(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	salt := s.GenerateSalt()
	hash, err := s.HashPassword(context.Background(), "shared-password", salt)
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make(chan bool, 32)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			pw := "shared-password"
			if i%2 == 1 {
				pw = "wrong-password"
			}
			ok, err := s.IsCorrect(ctx, pw, hash, salt)
			if err != nil {
				t.Errorf("IsCorrect: %v", err)
			}
			results <- ok == (i%2 == 0)
		}(i)
	}
	wg.Wait()
	close(results)

	for r := range results {
		assert.True(t, r)
	}
}

func TestNewService_Config(t *testing.T) {
	s, err := NewService(Config{})
	require.NoError(t, err)
	assert.Equal(t, cryptox.DefaultArgon2Params(), s.params)
	assert.Equal(t, DefaultMaxPasswordLen, s.maxPasswordLen)

	_, err = NewService(Config{Argon2: cryptox.Argon2Params{Time: 1, MemoryKiB: 1, Threads: 4, KeyLen: 32}})
	require.ErrorIs(t, err, common.ErrConfiguration)

	_, err = NewService(Config{MaxPasswordLen: -1})
	require.ErrorIs(t, err, common.ErrConfiguration)
}

func TestHashing_BoundedByMaxConcurrent(t *testing.T) {
	s, err := NewService(Config{
		Argon2:        cryptox.Argon2Params{Time: 1, MemoryKiB: 64, Threads: 1, KeyLen: 32},
		MaxConcurrent: 1,
	})
	require.NoError(t, err)

	hash, err := s.HashPassword(context.Background(), "password", "salt")
	require.NoError(t, err)

	// occupy the only slot
	require.NoError(t, s.sem.Acquire(context.Background(), 1))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = s.HashPassword(ctx, "password", "salt")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	ctx2, cancel2 := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel2()
	_, err = s.IsCorrect(ctx2, "password", hash, "salt")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	s.sem.Release(1)

	got, err := s.HashPassword(context.Background(), "password", "salt")
	require.NoError(t, err)
	assert.Equal(t, hash, got)
}

func TestHashPassword_CanceledContext(t *testing.T) {
	s := newTestService(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.HashPassword(ctx, "password", "salt")
	assert.ErrorIs(t, err, context.Canceled)
}
