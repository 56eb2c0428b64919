/*
File: engine.go
Description: Campaign engine for the Riven Fuzzer. Owns the single fuzzing
flow: restore or start the campaign, load seeds, then repeatedly pick a corpus
entry through the scheduler and drive it through the stage pipeline. Every
candidate execution is preceded by a durable snapshot so a hard target crash
costs nothing but the respawn; the input in flight at the time of death is
classified as a crasher on resume.
*/

package core

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/rivenfuzz/riven-fuzzer/pkg/analysis"
	"github.com/rivenfuzz/riven-fuzzer/pkg/corpus"
	"github.com/rivenfuzz/riven-fuzzer/pkg/feedback"
	"github.com/rivenfuzz/riven-fuzzer/pkg/interfaces"
	"github.com/rivenfuzz/riven-fuzzer/pkg/restart"
	"github.com/rivenfuzz/riven-fuzzer/pkg/rng"
	"github.com/rivenfuzz/riven-fuzzer/pkg/schedule"
	"github.com/rivenfuzz/riven-fuzzer/pkg/stages"
	"github.com/rivenfuzz/riven-fuzzer/pkg/strategies"
)

// tracingTimeoutFactor stretches the execution budget for traced runs, which
// pay comparison logging overhead on every instrumented site.
const tracingTimeoutFactor = 10

// hangExitCode is the child exit code after a hung execution. The supervisor
// respawns it, unlike setup failures.
const hangExitCode = 3

// Engine drives one fuzzing campaign. It implements stages.Campaign; the
// stage pipeline is injected after Setup so the engine stays decoupled from
// concrete stage implementations.
type Engine struct {
	config     *interfaces.Config
	logger     *logrus.Logger
	executor   interfaces.Executor
	store      *corpus.Store
	objectives *corpus.ObjectiveStore
	scheduler  interfaces.Scheduler
	mapFb      *feedback.MapFeedback
	timeFb     *feedback.TimeFeedback
	judge      *feedback.CombinedFeedback
	crashFb    *feedback.CrashFeedback
	rand       *rng.Rand
	tokens     *strategies.Tokens
	pipeline   []stages.Stage
	stats      *Stats
	monitors   []interfaces.Monitor
	exit       func(int)
}

// NewEngine creates an engine bound to a logger.
func NewEngine(logger *logrus.Logger) *Engine {
	return &Engine{
		logger: logger,
		tokens: strategies.NewTokens(),
		stats:  NewStats(),
		exit:   os.Exit,
	}
}

// Setup prepares the campaign: stores, scheduler, feedbacks, PRNG, mutation
// dictionary, snapshot restore, and seed loading. After Setup returns the
// scheduler is guaranteed non-empty.
func (e *Engine) Setup(config *interfaces.Config, executor interfaces.Executor) error {
	if config == nil {
		return fmt.Errorf("configuration is required")
	}
	if executor == nil {
		return fmt.Errorf("executor is required")
	}
	e.config = config
	e.executor = executor

	store, err := corpus.NewStore(config.CorpusDir)
	if err != nil {
		return fmt.Errorf("failed to create corpus store: %w", err)
	}
	e.store = store

	objectives, err := corpus.NewObjectiveStore(config.CrashDir)
	if err != nil {
		return fmt.Errorf("failed to create objective store: %w", err)
	}
	e.objectives = objectives

	e.scheduler = schedule.NewMinimizerScheduler(store, 0)
	e.mapFb = feedback.NewMapFeedback()
	e.timeFb = feedback.NewTimeFeedback()
	e.judge = feedback.NewCombinedFeedback(e.mapFb, e.timeFb)
	e.crashFb = feedback.NewCrashFeedback()

	seed := uint64(config.Seed)
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	e.rand = rng.New(seed)

	if config.TokensFile != "" {
		if err := e.tokens.AddFromFile(config.TokensFile); err != nil {
			return fmt.Errorf("failed to load dictionary: %w", err)
		}
		e.logger.WithField("tokens", e.tokens.Len()).Info("Dictionary loaded")
	}

	if err := e.restoreSnapshot(); err != nil {
		return err
	}
	if err := e.loadSeeds(); err != nil {
		return err
	}

	e.logger.WithFields(logrus.Fields{
		"corpus":     e.store.Count(),
		"objectives": e.objectives.Count(),
		"seed":       seed,
		"timeout":    e.timeout().String(),
	}).Info("Campaign ready")
	return nil
}

// SetStages installs the stage pipeline, in execution order.
func (e *Engine) SetStages(pipeline []stages.Stage) {
	e.pipeline = pipeline
}

// AddMonitor attaches a statistics sink.
func (e *Engine) AddMonitor(m interfaces.Monitor) {
	e.monitors = append(e.monitors, m)
}

// AddTokens unions static harness tokens into the mutation dictionary.
func (e *Engine) AddTokens(toks [][]byte) {
	e.tokens.AddAll(toks)
}

// Run executes the fuzzing loop until the context is canceled or the
// configured iteration bound is reached. Scheduler and corpus errors are
// fatal: they indicate a broken invariant, not a recoverable condition.
func (e *Engine) Run(ctx context.Context) error {
	if len(e.pipeline) == 0 {
		return fmt.Errorf("no stages installed")
	}

	stop := make(chan struct{})
	defer close(stop)
	go e.monitorLoop(stop)

	var iterations uint64
	for {
		select {
		case <-ctx.Done():
			return e.finish()
		default:
		}
		if e.config.MaxIterations > 0 && iterations >= e.config.MaxIterations {
			return e.finish()
		}
		iterations++

		id, err := e.scheduler.Next()
		if err != nil {
			return fmt.Errorf("scheduler failed: %w", err)
		}
		entry, err := e.store.Get(id)
		if err != nil {
			return fmt.Errorf("corpus lookup failed: %w", err)
		}

		for _, stage := range e.pipeline {
			if err := stage.Perform(e, entry); err != nil {
				e.logger.WithFields(logrus.Fields{
					"stage":    stage.Name(),
					"entry_id": entry.ID,
					"error":    err.Error(),
				}).Warn("Stage aborted for entry")
				break
			}
		}
	}
}

// Rand returns the campaign PRNG.
func (e *Engine) Rand() *rng.Rand { return e.rand }

// Tokens returns the mutation dictionary contents.
func (e *Engine) Tokens() [][]byte { return e.tokens.List() }

// RandomEntry returns a uniformly chosen corpus entry.
func (e *Engine) RandomEntry() *corpus.Entry { return e.store.Random(e.rand) }

// MaxInputSize returns the mutant size cap.
func (e *Engine) MaxInputSize() int {
	if e.config.MaxInputSize > 0 {
		return e.config.MaxInputSize
	}
	return interfaces.DefaultMaxInputSize
}

// Logger returns the campaign logger.
func (e *Engine) Logger() *logrus.Logger { return e.logger }

// RunCandidate executes one mutant and judges it. Crashing candidates go to
// the objective store, novel candidates join the corpus with the mutated
// generalized form (if any) attached.
func (e *Engine) RunCandidate(parentID string, data []byte, generalized []interfaces.Segment, stage string) error {
	if len(data) > e.MaxInputSize() {
		data = data[:e.MaxInputSize()]
		generalized = nil // Truncation invalidates the segment form
	}
	if err := e.writePending(data, parentID); err != nil {
		return err
	}
	res, err := e.executor.Execute(data, interfaces.ExecOptions{Timeout: e.timeout()})
	if err != nil {
		return fmt.Errorf("execution failed: %w", err)
	}
	e.afterExecution(res)
	if res.Outcome == interfaces.OutcomeTimedOut {
		e.stopForHang(data, stage)
		return nil
	}

	if e.crashFb.IsInteresting(res) {
		e.recordObjective(parentID, data, stage, res)
		return nil
	}
	if e.judge.IsInteresting(res) {
		input := interfaces.NewInput(data)
		if generalized != nil {
			input.Generalized = interfaces.CloneSegments(generalized)
		}
		entry := corpus.NewEntry(input, res.Coverage, res.Duration)
		entry.ParentID = parentID
		entry.Stage = stage
		id, err := e.store.Add(entry)
		if err != nil {
			return err
		}
		e.scheduler.Add(id)
		e.logger.WithFields(logrus.Fields{
			"entry_id": id,
			"stage":    stage,
			"size":     len(data),
			"edges":    e.mapFb.EdgeCount(),
		}).Debug("Corpus entry added")
	}
	return nil
}

// Probe executes data without judging it. Crashes found during probes are
// still objectives; a generalization trial that crashes found a bug.
func (e *Engine) Probe(data []byte, traceCmps bool) (*interfaces.ExecutionResult, error) {
	if err := e.writePending(data, ""); err != nil {
		return nil, err
	}
	opts := interfaces.ExecOptions{Timeout: e.timeout(), TraceCmps: traceCmps}
	if traceCmps {
		opts.Timeout = e.timeout() * tracingTimeoutFactor
	}
	res, err := e.executor.Execute(data, opts)
	if err != nil {
		return nil, fmt.Errorf("execution failed: %w", err)
	}
	e.afterExecution(res)
	if res.Outcome == interfaces.OutcomeTimedOut {
		e.stopForHang(data, "probe")
		return res, nil
	}
	if e.crashFb.IsInteresting(res) {
		e.recordObjective("", data, "probe", res)
	}
	return res, nil
}

// stopForHang hands a hung execution to the restart supervisor. The runaway
// goroutine cannot be stopped from inside the process and would corrupt the
// observations of every later run, so the child persists its state, discards
// the hanging input, and exits with a code the supervisor respawns. Clearing
// the pending input keeps the hang from being misread as a process-death
// crasher on resume; timeouts are never objectives.
func (e *Engine) stopForHang(data []byte, stage string) {
	e.logger.WithFields(logrus.Fields{
		"stage": stage,
		"size":  len(data),
	}).Warn("Execution hung, restarting to recover isolation")
	if err := e.writePending(nil, ""); err != nil {
		e.logger.WithError(err).Error("Failed to persist snapshot before hang restart")
	}
	e.exit(hangExitCode)
}

// afterExecution updates counters and the scheduler after any execution.
func (e *Engine) afterExecution(res *interfaces.ExecutionResult) {
	total := e.stats.IncExecutions()
	e.scheduler.OnExecution(total)
	if res.Outcome == interfaces.OutcomeTimedOut {
		e.stats.IncTimeouts()
	}
}

// recordObjective stores a crashing input, deduplicated by suppression.
func (e *Engine) recordObjective(parentID string, data []byte, stage string, res *interfaces.ExecutionResult) {
	signature := analysis.Suppression(res.CrashOutput)
	entry := corpus.NewEntry(interfaces.NewInput(data), res.Coverage, res.Duration)
	entry.ParentID = parentID
	entry.Stage = stage
	id, isNew, err := e.objectives.AddCrash(entry, signature, res.CrashOutput)
	if err != nil {
		e.logger.WithError(err).Error("Failed to persist crasher")
		return
	}
	if !isNew {
		return
	}
	e.stats.IncObjectives()
	e.logger.WithFields(logrus.Fields{
		"crash_id": id,
		"stage":    stage,
		"size":     len(data),
	}).Info("New objective found")
}

// timeout returns the per-execution budget.
func (e *Engine) timeout() time.Duration {
	if e.config.Timeout > 0 {
		return e.config.Timeout
	}
	return interfaces.DefaultTimeout
}

// writePending persists campaign state plus the input about to execute.
func (e *Engine) writePending(data []byte, parentID string) error {
	if e.config.SnapshotPath == "" {
		return nil
	}
	snap := &restart.Snapshot{
		RNGState:       e.rand.Export(),
		Coverage:       e.mapFb.ExportBitmap(),
		Executions:     e.stats.Executions(),
		CorpusCount:    e.store.Count(),
		ObjectiveCount: e.objectives.Count(),
		Pending:        data,
		PendingParent:  parentID,
	}
	if err := restart.WriteSnapshot(e.config.SnapshotPath, snap); err != nil {
		return fmt.Errorf("failed to write campaign snapshot: %w", err)
	}
	return nil
}

// finish clears the pending input from the snapshot so a clean stop is not
// misread as a crash on the next start.
func (e *Engine) finish() error {
	e.reportStats()
	if e.config.SnapshotPath == "" {
		return nil
	}
	return e.writePending(nil, "")
}

// restoreSnapshot resumes campaign state from the snapshot file, if present.
// A pending input in the snapshot means the previous process died executing
// it: it is recorded as a crasher with a process-death signature.
func (e *Engine) restoreSnapshot() error {
	if e.config.SnapshotPath == "" {
		return nil
	}
	snap, err := restart.ReadSnapshot(e.config.SnapshotPath)
	if err != nil {
		return err
	}
	if snap == nil {
		return nil
	}
	e.rand = rng.Restore(snap.RNGState)
	if snap.Coverage != "" {
		if err := e.mapFb.RestoreBitmap(snap.Coverage); err != nil {
			return fmt.Errorf("failed to restore coverage bitmap: %w", err)
		}
	}
	e.stats.RestoreExecutions(snap.Executions)

	// Re-adopt the persisted corpus so the scheduler sees the same entries
	// the previous process had.
	if err := e.reloadCorpus(); err != nil {
		return err
	}

	if len(snap.Pending) > 0 {
		entry := corpus.NewEntry(interfaces.NewInput(snap.Pending), nil, 0)
		entry.ParentID = snap.PendingParent
		entry.Stage = "restart"
		signature := append([]byte("process-death:"), snap.Pending...)
		output := []byte("process terminated abnormally while executing this input")
		if id, isNew, err := e.objectives.AddCrash(entry, signature, output); err != nil {
			return fmt.Errorf("failed to record restart crasher: %w", err)
		} else if isNew {
			e.stats.IncObjectives()
			e.logger.WithField("crash_id", id).Warn("Previous process died on pending input, recorded as crasher")
		}
	}

	e.logger.WithFields(logrus.Fields{
		"executions": snap.Executions,
		"corpus":     e.store.Count(),
		"updated_at": snap.UpdatedAt.Format(time.RFC3339),
	}).Info("Campaign restored from snapshot")
	return nil
}

// reloadCorpus re-reads persisted corpus entries after a restart. Coverage
// evidence is re-established by executing each entry once.
func (e *Engine) reloadCorpus() error {
	files, err := os.ReadDir(e.store.Dir())
	if err != nil {
		return fmt.Errorf("failed to read corpus directory: %w", err)
	}
	for _, f := range files {
		if f.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(e.store.Dir(), f.Name()))
		if err != nil {
			return fmt.Errorf("failed to read corpus entry %s: %w", f.Name(), err)
		}
		res, err := e.executor.Execute(data, interfaces.ExecOptions{Timeout: e.timeout()})
		if err != nil {
			return fmt.Errorf("failed to re-execute corpus entry %s: %w", f.Name(), err)
		}
		// Feed the judge so the cumulative bitmap includes this entry even
		// when the snapshot bitmap predates it.
		e.judge.IsInteresting(res)
		if res.Outcome != interfaces.OutcomeCompleted {
			continue
		}
		entry := corpus.NewEntry(interfaces.NewInput(data), res.Coverage, res.Duration)
		entry.ID = f.Name()
		entry.Stage = "reload"
		id, err := e.store.Add(entry)
		if err != nil {
			return err
		}
		e.scheduler.Add(id)
	}
	return nil
}

// loadSeeds populates an empty corpus from the seed directory. Every seed is
// executed once and adopted with its observed coverage; an unusable seed set
// is a setup error because the loop cannot run on an empty scheduler.
func (e *Engine) loadSeeds() error {
	if e.store.Count() > 0 {
		return nil
	}
	if e.config.InputDir == "" {
		return fmt.Errorf("seed directory not specified and corpus is empty")
	}
	files, err := os.ReadDir(e.config.InputDir)
	if err != nil {
		return fmt.Errorf("failed to read seed directory: %w", err)
	}

	loaded := 0
	for _, f := range files {
		if f.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(e.config.InputDir, f.Name()))
		if err != nil {
			return fmt.Errorf("failed to read seed %s: %w", f.Name(), err)
		}
		if len(data) == 0 || len(data) > e.MaxInputSize() {
			e.logger.WithField("seed", f.Name()).Warn("Skipping unusable seed")
			continue
		}
		if err := e.writePending(data, ""); err != nil {
			return err
		}
		res, err := e.executor.Execute(data, interfaces.ExecOptions{Timeout: e.timeout()})
		if err != nil {
			return fmt.Errorf("failed to execute seed %s: %w", f.Name(), err)
		}
		e.afterExecution(res)
		if e.crashFb.IsInteresting(res) {
			e.recordObjective("", data, "seed", res)
			continue
		}
		if res.Outcome == interfaces.OutcomeTimedOut {
			e.logger.WithField("seed", f.Name()).Warn("Seed timed out, skipping")
			continue
		}
		// Seeds are adopted unconditionally: even a seed with no novel
		// coverage is wanted splice material.
		e.judge.IsInteresting(res)
		entry := corpus.NewEntry(interfaces.NewInput(data), res.Coverage, res.Duration)
		entry.Stage = "seed"
		id, err := e.store.Add(entry)
		if err != nil {
			return err
		}
		e.scheduler.Add(id)
		loaded++
	}
	if e.store.Count() == 0 {
		return fmt.Errorf("no usable seeds in %s", e.config.InputDir)
	}
	e.logger.WithField("seeds", loaded).Info("Seed corpus loaded")
	return nil
}

// monitorLoop pushes statistics to monitors until stopped.
func (e *Engine) monitorLoop(stop <-chan struct{}) {
	interval := e.config.MonitorInterval
	if interval <= 0 {
		interval = 5 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			e.reportStats()
		}
	}
}

// reportStats samples counters and fans them out to monitors.
func (e *Engine) reportStats() {
	stats := e.stats.Snapshot(e.store.Count(), e.mapFb.EdgeCount())
	for _, m := range e.monitors {
		m.Report(stats)
	}
}

// Stats returns a point-in-time statistics snapshot.
func (e *Engine) Stats() interfaces.CampaignStats {
	return e.stats.Snapshot(e.store.Count(), e.mapFb.EdgeCount())
}

// CoverageBitmap exposes the cumulative bitmap for external reporting.
func (e *Engine) CoverageBitmap() ([]byte, error) {
	return base64.StdEncoding.DecodeString(e.mapFb.ExportBitmap())
}

// Objectives exposes the objective store for external reporting.
func (e *Engine) Objectives() *corpus.ObjectiveStore { return e.objectives }

// Corpus exposes the working corpus store for external reporting.
func (e *Engine) Corpus() *corpus.Store { return e.store }
