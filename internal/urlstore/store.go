// Package urlstore maps opaque short tokens to previously validated source
// URLs. It is a capability/indirection mechanism, not a security boundary:
// URLs must pass the security validator before being put here, and storing
// does not re-validate.
package urlstore

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"
)

const (
	// TokenLength is the fixed length of an issued token: the first 16 hex
	// characters of SHA-256 of the exact URL string. Deterministic, so
	// re-adding a URL is idempotent, but not reversible without the store.
	TokenLength = 16

	DefaultTTL        = 5 * time.Minute
	DefaultMaxRecords = 4096
)

// record is a stored source URL. Records are never mutated; a refresh
// replaces issuedAt wholesale.
type record struct {
	url      string
	issuedAt time.Time
}

// Store provides concurrent token -> URL resolution with TTL expiry and
// LRU-by-issue-time eviction above a record ceiling.
type Store struct {
	mu      sync.RWMutex
	records map[string]*record // token -> record
	ttl     time.Duration
	max     int
	now     func() time.Time // injectable clock for tests
}

func New(ttl time.Duration, maxRecords int) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if maxRecords <= 0 {
		maxRecords = DefaultMaxRecords
	}
	return &Store{
		records: make(map[string]*record),
		ttl:     ttl,
		max:     maxRecords,
		now:     time.Now,
	}
}

// Token derives the opaque token for a URL. Same URL, same token.
func Token(url string) string {
	sum := sha256.Sum256([]byte(url))
	return hex.EncodeToString(sum[:])[:TokenLength]
}

// Put stores or refreshes a record for each URL with a fresh expiry.
// Re-adding an existing URL extends its lifetime rather than duplicating.
func (s *Store) Put(urls ...string) {
	if len(urls) == 0 {
		return
	}
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range urls {
		if u == "" {
			continue
		}
		s.records[Token(u)] = &record{url: u, issuedAt: now}
	}
	if len(s.records) > s.max {
		s.evictOldestLocked(len(s.records) - s.max)
	}
}

// Resolve returns the URL for token if a live record exists.
// Expired records fail resolution immediately, even before the next sweep.
func (s *Store) Resolve(token string) (string, bool) {
	now := s.now()

	s.mu.RLock()
	rec, ok := s.records[token]
	s.mu.RUnlock()

	if !ok || now.Sub(rec.issuedAt) > s.ttl {
		return "", false
	}
	return rec.url, true
}

// IsKnown reports whether the exact URL string currently has a live record.
// Used to authorize relay requests arriving with a raw URL instead of a token.
func (s *Store) IsKnown(url string) bool {
	_, ok := s.Resolve(Token(url))
	return ok
}

// Len returns the number of records, live or not yet swept.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Sweep removes expired records. Called periodically by the scheduler;
// resolution is lazily checked as well, so sweeping is advisory.
func (s *Store) Sweep() int {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for token, rec := range s.records {
		if now.Sub(rec.issuedAt) > s.ttl {
			delete(s.records, token)
			removed++
		}
	}
	return removed
}

// evictOldestLocked drops the n oldest records by issue time.
// Caller must hold the write lock.
func (s *Store) evictOldestLocked(n int) {
	for i := 0; i < n; i++ {
		var oldestToken string
		var oldestAt time.Time
		for token, rec := range s.records {
			if oldestToken == "" || rec.issuedAt.Before(oldestAt) {
				oldestToken = token
				oldestAt = rec.issuedAt
			}
		}
		if oldestToken == "" {
			return
		}
		delete(s.records, oldestToken)
	}
}
