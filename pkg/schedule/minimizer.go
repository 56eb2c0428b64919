/*
File: minimizer.go
Description: Minimizing scheduler wrapper for the Riven Fuzzer. On a cadence
tied to total executions it re-scores all corpus entries with a weighted key
(exclusively covered edges, execution time, input length) and demotes entries
whose coverage is a strict subset of a cheaper entry's coverage. Demoted
entries are served less often but never deleted: the corpus is append-only.
*/

package schedule

import (
	"sync"

	"github.com/rivenfuzz/riven-fuzzer/pkg/corpus"
)

// demotedServiceRatio controls how rarely demoted entries are served:
// a demoted entry is skipped this many times per service.
const demotedServiceRatio = 4

// MinimizerScheduler wraps the queue policy with periodic corpus
// minimization. Scoring is deterministic: re-running it on an unchanged
// corpus produces an identical priority ordering.
type MinimizerScheduler struct {
	mu      sync.Mutex
	inner   *QueueScheduler
	store   *corpus.Store
	cadence uint64

	demoted map[string]bool
	skips   map[string]int
}

// NewMinimizerScheduler creates a minimizing scheduler over the given store.
// cadence is the number of executions between re-scoring passes.
func NewMinimizerScheduler(store *corpus.Store, cadence uint64) *MinimizerScheduler {
	if cadence == 0 {
		cadence = 4096
	}
	return &MinimizerScheduler{
		inner:   NewQueueScheduler(),
		store:   store,
		cadence: cadence,
		demoted: make(map[string]bool),
		skips:   make(map[string]int),
	}
}

// Add registers a new entry id.
func (m *MinimizerScheduler) Add(id string) {
	m.inner.Add(id)
}

// Count returns the number of scheduled ids.
func (m *MinimizerScheduler) Count() int {
	return m.inner.Count()
}

// Next returns the next entry to fuzz. Demoted entries are passed over
// demotedServiceRatio times out of demotedServiceRatio+1; with no demotions
// the order is exactly the round-robin queue order.
func (m *MinimizerScheduler) Next() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := m.inner.Count()
	for attempt := 0; attempt <= n; attempt++ {
		id, err := m.inner.Next()
		if err != nil {
			return "", err
		}
		if !m.demoted[id] {
			return id, nil
		}
		m.skips[id]++
		if m.skips[id] > demotedServiceRatio {
			m.skips[id] = 0
			return id, nil
		}
	}
	// Everything is demoted and mid-skip; fall back to plain queue order.
	return m.inner.Next()
}

// OnExecution triggers a re-scoring pass every cadence executions.
func (m *MinimizerScheduler) OnExecution(total uint64) {
	if total == 0 || total%m.cadence != 0 {
		return
	}
	m.Rescore()
}

// Rescore recomputes favored entries. For every covered edge the entry with
// the lowest cost (exec time x input length) holding that edge becomes its
// keeper; ties prefer the shorter input, then the earlier-inserted id. An
// entry keeping no edge at all has strictly redundant coverage and is
// demoted. Scores count the edges an entry keeps exclusively.
func (m *MinimizerScheduler) Rescore() {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := m.store.IDs()
	if len(ids) == 0 {
		return
	}
	entries := make([]*corpus.Entry, 0, len(ids))
	for _, id := range ids {
		e, err := m.store.Get(id)
		if err != nil {
			continue
		}
		entries = append(entries, e)
	}

	// keeper[edge] is the index into entries of the cheapest holder.
	keeper := make(map[int]int)
	for idx, e := range entries {
		for edge, hit := range e.Coverage {
			if hit == 0 {
				continue
			}
			cur, ok := keeper[edge]
			if !ok || cheaper(e, entries[cur]) {
				keeper[edge] = idx
			}
		}
	}

	kept := make([]int, len(entries))
	for _, idx := range keeper {
		kept[idx]++
	}
	for idx, e := range entries {
		e.Score = float64(kept[idx])
		e.Favored = kept[idx] > 0
		m.demoted[e.ID] = !e.Favored
	}
}

// cheaper reports whether a should keep an edge instead of b.
func cheaper(a, b *corpus.Entry) bool {
	ca := a.ExecTime.Nanoseconds() * int64(a.Len()+1)
	cb := b.ExecTime.Nanoseconds() * int64(b.Len()+1)
	if ca != cb {
		return ca < cb
	}
	if a.Len() != b.Len() {
		return a.Len() < b.Len()
	}
	// Insertion order is the stable last tie-break; CreatedAt tracks it.
	return a.CreatedAt.Before(b.CreatedAt)
}
