/*
File: store.go
Description: Working corpus store for the Riven Fuzzer. Keeps accepted entries
in memory in stable insertion order and persists each one to disk immediately
on acceptance, so campaign state survives process death independently of the
restart supervisor. The store is append-only for auditability.
*/

package corpus

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/rivenfuzz/riven-fuzzer/pkg/rng"
)

// Store is an append-only collection of corpus entries with durable
// persistence. Entries are addressed by opaque string ids.
type Store struct {
	mu      sync.RWMutex
	entries map[string]*Entry
	order   []string // Stable insertion order, the scheduler's secondary key
	dir     string
}

// NewStore creates a store persisting to dir. The directory is created if
// missing; failure to create it is a setup error.
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("corpus directory not specified")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create corpus directory: %w", err)
	}
	return &Store{
		entries: make(map[string]*Entry),
		dir:     dir,
	}, nil
}

// Dir returns the persistence directory.
func (s *Store) Dir() string { return s.dir }

// Add accepts an entry, assigns it an id if it has none, persists it, and
// returns the id. Entries are written to disk before Add returns.
func (s *Store) Add(e *Entry) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if _, exists := s.entries[e.ID]; exists {
		return e.ID, nil
	}
	if err := s.persist(e); err != nil {
		return "", fmt.Errorf("failed to persist corpus entry: %w", err)
	}
	s.entries[e.ID] = e
	s.order = append(s.order, e.ID)
	return e.ID, nil
}

// Get returns the entry with the given id. A missing id indicates corpus
// corruption and is returned as an error so the engine can halt.
func (s *Store) Get(id string) (*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[id]
	if !ok {
		return nil, fmt.Errorf("corpus entry %q not found", id)
	}
	return e, nil
}

// Count returns the number of entries.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// IDs returns a copy of the entry ids in insertion order.
func (s *Store) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Random returns a uniformly chosen entry, or nil when the store is empty.
// Used by splice and grimoire mutations that borrow material across entries.
func (s *Store) Random(r *rng.Rand) *Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.order) == 0 {
		return nil
	}
	return s.entries[s.order[r.Intn(len(s.order))]]
}

// persist writes the entry's raw input bytes to one file named by its id.
func (s *Store) persist(e *Entry) error {
	path := filepath.Join(s.dir, e.ID)
	return os.WriteFile(path, e.Input.Bytes, 0644)
}
