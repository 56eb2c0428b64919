/*
File: stats_writer.go
Description: Campaign statistics file writer for the Riven Fuzzer. Appends one
JSON line per statistics report to a file in the metrics directory, so a
campaign's progress curve can be plotted after the fact without parsing logs.
*/

package utils

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rivenfuzz/riven-fuzzer/pkg/interfaces"
)

// StatsWriter persists periodic campaign statistics as JSON lines.
type StatsWriter struct {
	mu   sync.Mutex
	file *os.File
}

// NewStatsWriter creates a writer appending to dir/stats.jsonl. The directory
// is created if missing.
func NewStatsWriter(dir string) (*StatsWriter, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create metrics directory: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(dir, "stats.jsonl"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open stats file: %w", err)
	}
	return &StatsWriter{file: f}, nil
}

// Report appends one statistics line. Write failures are swallowed after the
// file is gone; statistics are best effort and must never stop the loop.
func (w *StatsWriter) Report(stats interfaces.CampaignStats) {
	w.mu.Lock()
	defer w.mu.Unlock()

	line := struct {
		Timestamp time.Time `json:"timestamp"`
		interfaces.CampaignStats
	}{Timestamp: time.Now(), CampaignStats: stats}

	data, err := json.Marshal(line)
	if err != nil {
		return
	}
	w.file.Write(append(data, '\n'))
}

// Close releases the underlying file.
func (w *StatsWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.Close()
}
