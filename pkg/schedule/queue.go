/*
File: queue.go
Description: Queue scheduler for the Riven Fuzzer. Serves corpus entries in
round-robin insertion order so every entry gets fuzzed before any entry gets
fuzzed twice. Insertion order is the stable secondary key for all scheduling
policies layered on top.
*/

package schedule

import (
	"fmt"
	"sync"
)

// QueueScheduler is the base round-robin scheduling policy.
type QueueScheduler struct {
	mu     sync.Mutex
	ids    []string
	cursor int
}

// NewQueueScheduler creates an empty queue scheduler.
func NewQueueScheduler() *QueueScheduler {
	return &QueueScheduler{}
}

// Add registers a new entry id at the back of the queue.
func (q *QueueScheduler) Add(id string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.ids = append(q.ids, id)
}

// Next returns the next id in round-robin order. An empty queue is an error:
// once seeds are loaded the corpus can only grow.
func (q *QueueScheduler) Next() (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.ids) == 0 {
		return "", fmt.Errorf("scheduler queue is empty")
	}
	id := q.ids[q.cursor%len(q.ids)]
	q.cursor++
	return id, nil
}

// Count returns the number of scheduled ids.
func (q *QueueScheduler) Count() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.ids)
}

// OnExecution is a no-op for the plain queue policy.
func (q *QueueScheduler) OnExecution(total uint64) {}
