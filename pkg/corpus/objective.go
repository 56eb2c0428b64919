/*
File: objective.go
Description: Objective store for the Riven Fuzzer. Append-only collection of
confirmed crashing inputs, deduplicated by crash signature: the parsed panic
suppression when crash output is available, otherwise a hash of the coverage
bitmap. Every accepted crasher is persisted immediately, alongside its output.
*/

package corpus

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// ObjectiveStore holds crashing inputs, one entry per distinct signature.
type ObjectiveStore struct {
	mu    sync.Mutex
	inner *Store
	seen  map[string]struct{}
}

// NewObjectiveStore creates an objective store persisting to dir.
func NewObjectiveStore(dir string) (*ObjectiveStore, error) {
	inner, err := NewStore(dir)
	if err != nil {
		return nil, err
	}
	return &ObjectiveStore{inner: inner, seen: make(map[string]struct{})}, nil
}

// AddCrash accepts a crashing entry under the given signature. Exact
// signature duplicates are suppressed; the first holder wins. Returns the
// entry id and whether the crasher was new.
func (s *ObjectiveStore) AddCrash(e *Entry, signature []byte, crashOutput []byte) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sig := SignatureHash(signature)
	if _, dup := s.seen[sig]; dup {
		return "", false, nil
	}
	id, err := s.inner.Add(e)
	if err != nil {
		return "", false, err
	}
	s.seen[sig] = struct{}{}

	// Keep the crash output next to the input for triage.
	if len(crashOutput) > 0 {
		path := filepath.Join(s.inner.Dir(), id+".output")
		if werr := os.WriteFile(path, crashOutput, 0644); werr != nil {
			return id, true, fmt.Errorf("failed to persist crash output: %w", werr)
		}
	}
	return id, true, nil
}

// Count returns the number of distinct crashers found.
func (s *ObjectiveStore) Count() int {
	return s.inner.Count()
}

// Get returns a crashing entry by id.
func (s *ObjectiveStore) Get(id string) (*Entry, error) {
	return s.inner.Get(id)
}

// IDs returns the crasher ids in insertion order.
func (s *ObjectiveStore) IDs() []string {
	return s.inner.IDs()
}

// SignatureHash collapses a crash signature to a stable hex digest.
func SignatureHash(signature []byte) string {
	h := sha256.Sum256(signature)
	return fmt.Sprintf("%x", h)
}
