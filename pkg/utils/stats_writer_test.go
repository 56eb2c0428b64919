/*
File: stats_writer_test.go
Description: Tests for the campaign statistics writer. Verifies JSONL output,
appending across reports, and directory creation.
*/

package utils

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rivenfuzz/riven-fuzzer/pkg/interfaces"
)

func TestStatsWriterAppendsJSONLines(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "metrics")
	w, err := NewStatsWriter(dir)
	require.NoError(t, err)
	defer w.Close()

	w.Report(interfaces.CampaignStats{Executions: 1, CorpusCount: 1})
	w.Report(interfaces.CampaignStats{Executions: 2, CorpusCount: 1, Objectives: 1})

	f, err := os.Open(filepath.Join(dir, "stats.jsonl"))
	require.NoError(t, err)
	defer f.Close()

	var lines []map[string]interface{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var line map[string]interface{}
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &line))
		lines = append(lines, line)
	}
	require.Len(t, lines, 2)
	assert.Equal(t, float64(1), lines[0]["executions"])
	assert.Equal(t, float64(2), lines[1]["executions"])
	assert.NotEmpty(t, lines[0]["timestamp"])
}
