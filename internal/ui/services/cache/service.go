// Package cache holds recently fetched result pages keyed by normalized query.
// The cache is advisory: a miss only costs a fetch.
package cache

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/simplelru"

	"typeahead/internal/domain"
)

// Service is a TTL and capacity bounded result cache. It is not safe for
// concurrent use; the controller confines it to the update loop.
type Service struct {
	ttl     time.Duration
	entries *simplelru.LRU[domain.Query, Entry] // nil when disabled
	stats   Stats
	now     func() time.Time
}

// NewService creates a cache holding at most capacity pages for ttl each.
// A non-positive capacity or ttl yields a cache that never hits.
func NewService(capacity int, ttl time.Duration) *Service {
	s := &Service{
		ttl: ttl,
		now: time.Now,
	}
	if capacity > 0 && ttl > 0 {
		// Only fails for a non-positive size
		s.entries, _ = simplelru.NewLRU[domain.Query, Entry](capacity, nil)
	}
	return s
}

// Enabled reports whether the cache stores anything
func (s *Service) Enabled() bool {
	return s.entries != nil
}

// Get returns the page cached for query. An expired entry counts as a miss
// and is removed.
func (s *Service) Get(query domain.Query) (domain.ResultPage, bool) {
	if s.entries == nil {
		s.stats.Misses++
		return domain.ResultPage{}, false
	}

	// Peek keeps the list ordered by fetch time rather than by access
	entry, ok := s.entries.Peek(query)
	if !ok {
		s.stats.Misses++
		return domain.ResultPage{}, false
	}
	if s.expired(entry) {
		s.remove(query)
		s.stats.Misses++
		return domain.ResultPage{}, false
	}

	s.stats.Hits++
	return entry.Page.Clone(), true
}

// Put stores page for query, replacing any previous entry and resetting its
// age. When full, the entry fetched longest ago is evicted.
func (s *Service) Put(query domain.Query, page domain.ResultPage) {
	if s.entries == nil {
		return
	}
	// Add moves an existing key to the front, so list order stays fetch order
	if evicted := s.entries.Add(query, Entry{Page: page.Clone(), FetchedAt: s.now()}); evicted {
		s.stats.Evictions++
	}
}

// InvalidateExpired removes every expired entry and returns how many were
// dropped
func (s *Service) InvalidateExpired() int {
	if s.entries == nil {
		return 0
	}

	removed := 0
	// Keys are ordered oldest first, so the first live entry ends the scan
	for _, key := range s.entries.Keys() {
		entry, ok := s.entries.Peek(key)
		if !ok {
			continue
		}
		if !s.expired(entry) {
			break
		}
		s.remove(key)
		removed++
	}
	return removed
}

// Len returns the number of stored entries, expired ones included
func (s *Service) Len() int {
	if s.entries == nil {
		return 0
	}
	return s.entries.Len()
}

// Purge drops every entry
func (s *Service) Purge() {
	if s.entries == nil {
		return
	}
	s.entries.Purge()
}

// Stats returns traffic counters
func (s *Service) Stats() Stats {
	return s.stats
}

// TTL returns the configured time to live
func (s *Service) TTL() time.Duration {
	return s.ttl
}

func (s *Service) expired(e Entry) bool {
	return s.now().Sub(e.FetchedAt) > s.ttl
}

func (s *Service) remove(key domain.Query) {
	s.entries.Remove(key)
	s.stats.Expired++
}
