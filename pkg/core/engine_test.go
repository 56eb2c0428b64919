/*
File: engine_test.go
Description: End-to-end tests for the campaign engine. Drives a real harness
with a hidden two-byte crash condition through the full stage pipeline and
checks seed loading, objective discovery and deduplication, snapshot resume,
and classification of a pending input after an abrupt death.
*/

package core

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rivenfuzz/riven-fuzzer/pkg/execution"
	"github.com/rivenfuzz/riven-fuzzer/pkg/interfaces"
	"github.com/rivenfuzz/riven-fuzzer/pkg/observers"
	"github.com/rivenfuzz/riven-fuzzer/pkg/restart"
	"github.com/rivenfuzz/riven-fuzzer/pkg/rng"
	"github.com/rivenfuzz/riven-fuzzer/pkg/stages"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// crashOnAB panics when the input starts with "AB".
func crashOnAB(data []byte) {
	observers.CoverEdge(1)
	if len(data) > 0 && data[0] == 'A' {
		observers.CoverEdge(2)
		if len(data) > 1 {
			observers.RecordCmp(data[1:2], []byte("B"))
			if data[1] == 'B' {
				observers.CoverEdge(3)
				panic("hidden crash reached")
			}
		}
	}
}

func testConfig(t *testing.T, seedData []byte) *interfaces.Config {
	t.Helper()
	root := t.TempDir()
	inputDir := filepath.Join(root, "seeds")
	require.NoError(t, os.MkdirAll(inputDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(inputDir, "seed"), seedData, 0644))
	return &interfaces.Config{
		InputDir:     inputDir,
		CorpusDir:    filepath.Join(root, "corpus"),
		CrashDir:     filepath.Join(root, "crashes"),
		Timeout:      2 * time.Second,
		MaxInputSize: 1 << 12,
		Seed:         12345,
		SnapshotPath: filepath.Join(root, "campaign.snapshot"),
	}
}

func newTestEngine(t *testing.T, config *interfaces.Config) *Engine {
	t.Helper()
	executor, err := execution.NewInProcessExecutor(
		&execution.Harness{Name: "crash-on-ab", Run: crashOnAB},
		config.Timeout, quietLogger())
	require.NoError(t, err)

	engine := NewEngine(quietLogger())
	engine.AddTokens([][]byte{[]byte("AB"), []byte("B")})
	require.NoError(t, engine.Setup(config, executor))
	engine.SetStages([]stages.Stage{
		stages.NewGeneralizationStage(),
		stages.NewTracingStage(),
		stages.NewI2SStage(),
		stages.NewHavocStage(config.MaxInputSize),
		stages.NewGrimoireStage(config.MaxInputSize),
	})
	return engine
}

func TestEngineFindsHiddenCrash(t *testing.T) {
	config := testConfig(t, []byte("A"))
	config.MaxIterations = 50
	engine := newTestEngine(t, config)

	require.NoError(t, engine.Run(context.Background()))

	stats := engine.Stats()
	assert.Greater(t, stats.Executions, uint64(0))
	assert.GreaterOrEqual(t, stats.CorpusCount, 1)

	// The dictionary makes "AB..." inputs reachable within a few rounds,
	// and every occurrence is the same bug.
	require.GreaterOrEqual(t, engine.Objectives().Count(), 1,
		"the hidden crash was never found")
	assert.Equal(t, 1, engine.Objectives().Count())

	// The crasher input and its output were persisted.
	crashID := engine.Objectives().IDs()[0]
	data, err := os.ReadFile(filepath.Join(config.CrashDir, crashID))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(data), 2)
	out, err := os.ReadFile(filepath.Join(config.CrashDir, crashID+".output"))
	require.NoError(t, err)
	assert.Contains(t, string(out), "hidden crash reached")
}

func TestEngineSeedLoading(t *testing.T) {
	config := testConfig(t, []byte("seed-bytes"))
	engine := newTestEngine(t, config)

	assert.Equal(t, 1, engine.Corpus().Count())
	entry, err := engine.Corpus().Get(engine.Corpus().IDs()[0])
	require.NoError(t, err)
	assert.Equal(t, []byte("seed-bytes"), entry.Input.Bytes)
	assert.Equal(t, "seed", entry.Stage)
	assert.NotNil(t, entry.Coverage)
}

func TestEngineFailsWithoutSeeds(t *testing.T) {
	config := testConfig(t, []byte("x"))
	require.NoError(t, os.Remove(filepath.Join(config.InputDir, "seed")))

	executor, err := execution.NewInProcessExecutor(
		&execution.Harness{Name: "crash-on-ab", Run: crashOnAB},
		config.Timeout, quietLogger())
	require.NoError(t, err)

	engine := NewEngine(quietLogger())
	require.Error(t, engine.Setup(config, executor))
}

func TestEngineResumesFromSnapshot(t *testing.T) {
	config := testConfig(t, []byte("A"))
	config.MaxIterations = 3

	first := newTestEngine(t, config)
	require.NoError(t, first.Run(context.Background()))
	firstStats := first.Stats()
	firstCorpus := first.Corpus().Count()

	// A fresh process over the same directories resumes the campaign.
	second := newTestEngine(t, config)
	secondStats := second.Stats()
	assert.GreaterOrEqual(t, secondStats.Executions, firstStats.Executions)
	assert.Equal(t, firstCorpus, second.Corpus().Count())

	// Clean shutdown cleared the pending input: resuming did not invent a
	// process-death crasher for it.
	snap, err := restart.ReadSnapshot(config.SnapshotPath)
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Empty(t, snap.Pending)
}

func TestEngineClassifiesPendingAsCrasher(t *testing.T) {
	config := testConfig(t, []byte("A"))

	// Simulate a previous process that died mid-execution.
	killer := []byte("the input that killed it")
	require.NoError(t, restart.WriteSnapshot(config.SnapshotPath, &restart.Snapshot{
		RNGState:   rng.New(1).Export(),
		Executions: 10,
		Pending:    killer,
	}))

	engine := newTestEngine(t, config)
	require.GreaterOrEqual(t, engine.Objectives().Count(), 1)

	crashID := engine.Objectives().IDs()[0]
	data, err := os.ReadFile(filepath.Join(config.CrashDir, crashID))
	require.NoError(t, err)
	assert.Equal(t, killer, data)
	assert.GreaterOrEqual(t, engine.Stats().Executions, uint64(10))
}

// hangOnZ stalls past any test timeout when the input starts with 'Z'.
func hangOnZ(data []byte) {
	observers.CoverEdge(1)
	if len(data) > 0 && data[0] == 'Z' {
		time.Sleep(500 * time.Millisecond)
	}
}

func TestEngineHandsHangToSupervisor(t *testing.T) {
	config := testConfig(t, []byte("A"))
	config.Timeout = 30 * time.Millisecond

	executor, err := execution.NewInProcessExecutor(
		&execution.Harness{Name: "hang-on-z", Run: hangOnZ},
		config.Timeout, quietLogger())
	require.NoError(t, err)

	engine := NewEngine(quietLogger())
	require.NoError(t, engine.Setup(config, executor))

	var exitCodes []int
	engine.exit = func(code int) { exitCodes = append(exitCodes, code) }

	require.NoError(t, engine.RunCandidate("", []byte("Z"), nil, "havoc"))

	// A hang is not a crash: the child asks the supervisor for a respawn
	// instead of admitting the input anywhere.
	assert.Equal(t, []int{hangExitCode}, exitCodes)
	assert.Equal(t, 0, engine.Objectives().Count())
	assert.Equal(t, uint64(1), engine.Stats().Timeouts)

	// The pending slot was cleared, so the next process will not classify
	// the hanging input as a process-death crasher.
	snap, err := restart.ReadSnapshot(config.SnapshotPath)
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Empty(t, snap.Pending)
}

func TestLogMonitorDoesNotPanic(t *testing.T) {
	m := NewLogMonitor(quietLogger())
	m.Report(interfaces.CampaignStats{Executions: 1, Runtime: time.Second})
}
