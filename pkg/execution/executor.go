/*
File: executor.go
Description: In-process executor for the Riven Fuzzer. Drives the registered
harness directly, one input per call, with the coverage, timing, and optional
comparison observers bracketing each run. A watchdog goroutine converts
overruns into timeout outcomes and recovered panics into crash outcomes with
the panic message and stack captured as the crash output.
*/

package execution

import (
	"fmt"
	"runtime/debug"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/rivenfuzz/riven-fuzzer/pkg/interfaces"
	"github.com/rivenfuzz/riven-fuzzer/pkg/observers"
)

// InProcessExecutor runs the harness in the fuzzer's own process. Execute is
// not safe for concurrent use; the observers share process-global state.
type InProcessExecutor struct {
	harness *Harness
	mapObs  *observers.MapObserver
	timeObs *observers.TimeObserver
	cmpObs  *observers.CmpObserver
	timeout time.Duration
	logger  *logrus.Logger

	// straggler is the done channel of a timed-out run whose goroutine may
	// still be alive. It must drain before another execution can start.
	straggler chan runOutcome
}

type runOutcome struct {
	crashed bool
	output  []byte
}

// NewInProcessExecutor creates an executor over the given harness and runs
// its Init hook. timeout is the default per-execution budget; zero selects
// the engine default.
func NewInProcessExecutor(h *Harness, timeout time.Duration, logger *logrus.Logger) (*InProcessExecutor, error) {
	if h == nil || h.Run == nil {
		return nil, fmt.Errorf("executor requires a harness with a Run function")
	}
	if timeout <= 0 {
		timeout = interfaces.DefaultTimeout
	}
	if h.Init != nil {
		if err := h.Init(nil); err != nil {
			return nil, fmt.Errorf("harness init failed: %w", err)
		}
	}
	return &InProcessExecutor{
		harness: h,
		mapObs:  observers.NewMapObserver(),
		timeObs: observers.NewTimeObserver(),
		cmpObs:  observers.NewCmpObserver(),
		timeout: timeout,
		logger:  logger,
	}, nil
}

// Execute runs one input through the harness. The returned result's
// observations are valid until the next Execute call. A timed-out run reports
// no coverage and no comparison trace, and its goroutine cannot be stopped:
// observer writes from it are dropped at the source, and no further execution
// starts while it is still alive. Callers recover by letting the restart
// supervisor respawn the process.
func (e *InProcessExecutor) Execute(data []byte, opts interfaces.ExecOptions) (*interfaces.ExecutionResult, error) {
	if e.straggler != nil {
		select {
		case <-e.straggler:
			// The hung goroutine finished while we were between runs; its
			// late writes were dropped by the disarmed observers.
			e.straggler = nil
		default:
			return nil, fmt.Errorf("a timed-out execution is still running; restart the process to recover isolation")
		}
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = e.timeout
	}

	e.mapObs.PreExec()
	e.timeObs.PreExec()
	if opts.TraceCmps {
		e.cmpObs.PreExec()
	}

	done := make(chan runOutcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- runOutcome{
					crashed: true,
					output:  []byte(fmt.Sprintf("panic: %v\n\n%s", r, debug.Stack())),
				}
			}
		}()
		e.harness.Run(data)
		done <- runOutcome{}
	}()

	select {
	case out := <-done:
		e.timeObs.PostExec()
		e.mapObs.PostExec()
		res := &interfaces.ExecutionResult{
			Outcome:  interfaces.OutcomeCompleted,
			Duration: e.timeObs.Elapsed(),
			Coverage: e.mapObs.Coverage(),
		}
		if opts.TraceCmps {
			e.cmpObs.PostExec()
			res.CmpLog = e.cmpObs.Trace()
		}
		if out.crashed {
			res.Outcome = interfaces.OutcomeCrashed
			res.CrashOutput = out.output
		}
		return res, nil
	case <-time.After(timeout):
		e.mapObs.Abort()
		if opts.TraceCmps {
			e.cmpObs.Abort()
		}
		e.straggler = done
		e.logger.WithField("timeout", timeout).Debug("Execution timed out")
		return &interfaces.ExecutionResult{
			Outcome:  interfaces.OutcomeTimedOut,
			Duration: timeout,
		}, nil
	}
}
