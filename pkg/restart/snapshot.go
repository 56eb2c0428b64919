/*
File: snapshot.go
Description: Durable campaign snapshots for the Riven Fuzzer. The child
process persists its progress to a snapshot file before every execution so
that a hard crash of the target (one the in-process recover cannot catch)
loses nothing: the respawned child restores the PRNG, cumulative coverage,
and counters, and classifies the input that was in flight as a crasher.
*/

package restart

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rivenfuzz/riven-fuzzer/pkg/rng"
)

// Snapshot is the durable campaign state. The pending input is the one
// about to execute when the snapshot was written; if the process dies
// before the next snapshot, that input killed it.
type Snapshot struct {
	RNGState       rng.State `json:"rng_state"`
	Coverage       string    `json:"coverage"` // base64 cumulative bitmap
	Executions     uint64    `json:"executions"`
	CorpusCount    int       `json:"corpus_count"`
	ObjectiveCount int       `json:"objective_count"`
	Pending        []byte    `json:"pending,omitempty"`
	PendingParent  string    `json:"pending_parent,omitempty"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// WriteSnapshot persists the snapshot atomically: a torn write must never
// leave a half-valid file for the next child to restore from.
func WriteSnapshot(path string, s *Snapshot) error {
	s.UpdatedAt = time.Now()
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}
	return nil
}

// ReadSnapshot loads a snapshot. A missing file is a fresh campaign and
// returns nil without error; a corrupt file is an error, since silently
// restarting from scratch would discard a running campaign.
func ReadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot %s: %w", filepath.Base(path), err)
	}
	return &s, nil
}
