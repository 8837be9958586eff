package ephemeral

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"
)

// DefaultTTL matches the lifetime of callback payloads in the bot flows.
const DefaultTTL = 10 * time.Minute

const tokenBytes = 8

type entry struct {
	value     interface{}
	expiresAt time.Time
}

// Store maps short opaque tokens to payloads that are too large or unsafe to
// embed in callback identifiers. Tokens stay readable until their TTL expires;
// an expired token behaves as absent and is purged. Values are reusable until
// expiry, so repeated reads within the TTL window are idempotent.
type Store struct {
	mu      sync.Mutex
	entries map[string]entry
	stop    chan struct{}
	once    sync.Once
}

// NewStore creates a store and starts a janitor that proactively evicts
// expired entries. Call Stop when the owning process shuts down.
func NewStore(sweepInterval time.Duration) *Store {
	s := &Store{
		entries: make(map[string]entry),
		stop:    make(chan struct{}),
	}
	go s.janitor(sweepInterval)
	return s
}

// Put stores value under a fresh token for ttl and returns the token.
func (s *Store) Put(value interface{}, ttl time.Duration) (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	token := hex.EncodeToString(buf)

	s.mu.Lock()
	s.entries[token] = entry{value: value, expiresAt: time.Now().Add(ttl)}
	s.mu.Unlock()
	return token, nil
}

// Get returns the value for token, or false if the token is unknown or
// expired. Expired entries are purged on lookup.
func (s *Store) Get(token string) (interface{}, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[token]
	if !ok {
		return nil, false
	}
	if time.Now().After(e.expiresAt) {
		delete(s.entries, token)
		return nil, false
	}
	return e.value, true
}

// Len reports the number of live entries, counting not-yet-purged expired ones.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Stop terminates the janitor goroutine.
func (s *Store) Stop() {
	s.once.Do(func() { close(s.stop) })
}

func (s *Store) janitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case now := <-ticker.C:
			s.mu.Lock()
			for token, e := range s.entries {
				if now.After(e.expiresAt) {
					delete(s.entries, token)
				}
			}
			s.mu.Unlock()
		}
	}
}
