package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"
)

// challenge is an outstanding sign-in nonce for a wallet address.
type challenge struct {
	nonce     string
	expiresAt time.Time
}

// NonceStore holds outstanding sign-in challenges in memory. A nonce is
// single-use: it is removed on the first verification attempt, successful or
// not, and expires after the configured TTL.
type NonceStore struct {
	mu         sync.Mutex
	challenges map[string]challenge
	ttl        time.Duration
}

// NewNonceStore creates a NonceStore with the given challenge lifetime.
func NewNonceStore(ttl time.Duration) *NonceStore {
	return &NonceStore{
		challenges: make(map[string]challenge),
		ttl:        ttl,
	}
}

// Issue creates a fresh nonce for the address, replacing any outstanding one.
func (s *NonceStore) Issue(address string) (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	nonce := hex.EncodeToString(buf)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.evictExpired()
	s.challenges[strings.ToLower(address)] = challenge{
		nonce:     nonce,
		expiresAt: time.Now().Add(s.ttl),
	}

	return nonce, nil
}

// Consume removes and returns the outstanding nonce for the address. The
// second return is false when no live challenge exists.
func (s *NonceStore) Consume(address string) (string, bool) {
	key := strings.ToLower(address)

	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.challenges[key]
	if !ok {
		return "", false
	}
	delete(s.challenges, key)

	if time.Now().After(c.expiresAt) {
		return "", false
	}

	return c.nonce, true
}

// evictExpired drops stale challenges. Callers must hold mu.
func (s *NonceStore) evictExpired() {
	now := time.Now()
	for key, c := range s.challenges {
		if now.After(c.expiresAt) {
			delete(s.challenges, key)
		}
	}
}
