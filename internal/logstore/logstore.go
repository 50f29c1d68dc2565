// Package logstore keeps a bounded, newest-first record of handled API
// requests for the dashboard log viewer.
package logstore

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fujie/v0-vcm/internal/models"
)

// DefaultCapacity bounds the log when no capacity is configured.
const DefaultCapacity = 200

// Store is a capacity-bounded request log. Entries are kept newest first;
// the oldest entry is evicted past capacity.
type Store struct {
	mu       sync.Mutex
	capacity int
	entries  []models.APILogEntry
}

func New(capacity int) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Store{capacity: capacity}
}

// Record assigns an ID (and a timestamp when the entry lacks one), prepends
// the entry, and evicts past capacity. It never fails.
func (s *Store) Record(entry models.APILogEntry) models.APILogEntry {
	entry.ID = "log_" + uuid.NewString()
	if entry.Timestamp == "" {
		entry.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = append([]models.APILogEntry{entry}, s.entries...)
	if len(s.entries) > s.capacity {
		s.entries = s.entries[:s.capacity]
	}
	return entry
}

// List returns a snapshot of the current entries, newest first.
func (s *Store) List() []models.APILogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.APILogEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Clear empties the store.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
}

// Len returns the number of stored entries.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
