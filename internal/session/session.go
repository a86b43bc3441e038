// Package session retains each query's result set for a bounded time so
// a follow-up summary request can reuse it without refetching.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/loreseek/loreseek/internal/models"
)

// DefaultTTL bounds how long a result set stays retrievable.
const DefaultTTL = 15 * time.Minute

type entry struct {
	query     string
	results   []models.DisplayResult
	expiresAt time.Time
}

// Store holds result sets keyed by opaque session tokens. Expired entries
// are dropped lazily on access and by a background sweep.
type Store struct {
	ttl  time.Duration
	mu   sync.Mutex
	data map[string]entry
	stop chan struct{}
	once sync.Once

	now func() time.Time
}

// NewStore creates a Store; ttl <= 0 uses DefaultTTL. The background
// sweep runs until Close.
func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	s := &Store{
		ttl:  ttl,
		data: make(map[string]entry),
		stop: make(chan struct{}),
		now:  time.Now,
	}
	go s.sweep()
	return s
}

// Put retains results for query and returns the session token.
func (s *Store) Put(query string, results []models.DisplayResult) string {
	token := uuid.NewString()
	s.mu.Lock()
	s.data[token] = entry{
		query:     query,
		results:   results,
		expiresAt: s.now().Add(s.ttl),
	}
	s.mu.Unlock()
	return token
}

// Get returns the retained results for token. The query must match the
// one the results were retained for; a mismatch, an unknown token, and an
// expired entry all return ok=false.
func (s *Store) Get(token, query string) ([]models.DisplayResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.data[token]
	if !ok {
		return nil, false
	}
	if s.now().After(e.expiresAt) {
		delete(s.data, token)
		return nil, false
	}
	if e.query != query {
		return nil, false
	}
	return e.results, true
}

// Len returns the number of live entries.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data)
}

func (s *Store) sweep() {
	interval := s.ttl
	if interval > time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			now := s.now()
			s.mu.Lock()
			for token, e := range s.data {
				if now.After(e.expiresAt) {
					delete(s.data, token)
				}
			}
			s.mu.Unlock()
		case <-s.stop:
			return
		}
	}
}

// Close stops the background sweep.
func (s *Store) Close() error {
	s.once.Do(func() { close(s.stop) })
	return nil
}
