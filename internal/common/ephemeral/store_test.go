package ephemeral

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s := NewStore(time.Hour)
	t.Cleanup(s.Stop)
	return s
}

func TestPutGet(t *testing.T) {
	s := newTestStore(t)

	token, err := s.Put([]string{"1", "2"}, time.Minute)
	require.NoError(t, err)
	assert.Len(t, token, 16) // 8 random bytes, hex encoded

	v, ok := s.Get(token)
	require.True(t, ok)
	assert.Equal(t, []string{"1", "2"}, v)
}

func TestGetUnknownToken(t *testing.T) {
	s := newTestStore(t)

	_, ok := s.Get("deadbeefdeadbeef")
	assert.False(t, ok)
}

func TestTokensAreReusableUntilExpiry(t *testing.T) {
	s := newTestStore(t)

	token, err := s.Put("payload", time.Minute)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		v, ok := s.Get(token)
		require.True(t, ok)
		assert.Equal(t, "payload", v)
	}
}

func TestExpiredTokenBehavesAsAbsent(t *testing.T) {
	s := newTestStore(t)

	token, err := s.Put("payload", 10*time.Millisecond)
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)

	_, ok := s.Get(token)
	assert.False(t, ok)
	assert.Zero(t, s.Len(), "expired entry must be purged on lookup")
}

func TestJanitorPurgesWithoutLookup(t *testing.T) {
	s := NewStore(10 * time.Millisecond)
	defer s.Stop()

	_, err := s.Put("payload", time.Millisecond)
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return s.Len() == 0 },
		time.Second, 5*time.Millisecond)
}

func TestTokensAreUnique(t *testing.T) {
	s := newTestStore(t)

	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		token, err := s.Put(i, time.Minute)
		require.NoError(t, err)
		_, dup := seen[token]
		require.False(t, dup)
		seen[token] = struct{}{}
	}
}
