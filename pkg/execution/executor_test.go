/*
File: executor_test.go
Description: Tests for the in-process executor. Verifies outcome mapping for
completed, panicking, and hanging targets, coverage capture, and comparison
trace capture on traced runs only.
*/

package execution

import (
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rivenfuzz/riven-fuzzer/pkg/interfaces"
	"github.com/rivenfuzz/riven-fuzzer/pkg/observers"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newExecutor(t *testing.T, run func([]byte), timeout time.Duration) *InProcessExecutor {
	t.Helper()
	exec, err := NewInProcessExecutor(&Harness{Name: "test", Run: run}, timeout, quietLogger())
	require.NoError(t, err)
	return exec
}

func TestExecuteCompleted(t *testing.T) {
	exec := newExecutor(t, func(data []byte) {
		observers.CoverEdge(1)
		if len(data) > 0 {
			observers.CoverEdge(2)
		}
	}, time.Second)

	res, err := exec.Execute([]byte("x"), interfaces.ExecOptions{})
	require.NoError(t, err)
	assert.Equal(t, interfaces.OutcomeCompleted, res.Outcome)
	require.NotNil(t, res.Coverage)
	assert.Equal(t, byte(1), res.Coverage[1])
	assert.Equal(t, byte(1), res.Coverage[2])
	assert.Greater(t, res.Duration, time.Duration(0))
	assert.Empty(t, res.CmpLog)
}

func TestExecuteCoverageVariesByInput(t *testing.T) {
	exec := newExecutor(t, func(data []byte) {
		observers.CoverEdge(1)
		if len(data) > 0 && data[0] == 'A' {
			observers.CoverEdge(2)
		}
	}, time.Second)

	resA, err := exec.Execute([]byte("A"), interfaces.ExecOptions{})
	require.NoError(t, err)
	resB, err := exec.Execute([]byte("B"), interfaces.ExecOptions{})
	require.NoError(t, err)

	assert.Equal(t, byte(1), resA.Coverage[2])
	assert.Equal(t, byte(0), resB.Coverage[2])
}

func TestExecutePanicIsCrash(t *testing.T) {
	exec := newExecutor(t, func(data []byte) {
		if len(data) > 0 && data[0] == 'C' {
			panic("intentional test crash")
		}
	}, time.Second)

	res, err := exec.Execute([]byte("C"), interfaces.ExecOptions{})
	require.NoError(t, err)
	assert.Equal(t, interfaces.OutcomeCrashed, res.Outcome)
	assert.Contains(t, string(res.CrashOutput), "panic: intentional test crash")
	assert.Contains(t, string(res.CrashOutput), "goroutine")

	// A non-crashing input afterwards completes normally.
	res, err = exec.Execute([]byte("ok"), interfaces.ExecOptions{})
	require.NoError(t, err)
	assert.Equal(t, interfaces.OutcomeCompleted, res.Outcome)
}

func TestExecuteTimeout(t *testing.T) {
	block := make(chan struct{})
	defer close(block)
	exec := newExecutor(t, func(data []byte) {
		<-block
	}, 50*time.Millisecond)

	res, err := exec.Execute([]byte("hang"), interfaces.ExecOptions{})
	require.NoError(t, err)
	assert.Equal(t, interfaces.OutcomeTimedOut, res.Outcome)
	// Timed-out runs report no observations.
	assert.Nil(t, res.Coverage)
	assert.Empty(t, res.CmpLog)
}

func TestTimeoutDoesNotPolluteNextExecution(t *testing.T) {
	// The hung goroutine wakes up after its run timed out and reports an
	// edge. That write must not land in any later execution's coverage.
	exec := newExecutor(t, func(data []byte) {
		if len(data) > 0 && data[0] == 'S' {
			time.Sleep(60 * time.Millisecond)
			observers.CoverEdge(9999)
			return
		}
		observers.CoverEdge(42)
	}, time.Second)

	res, err := exec.Execute([]byte("S"), interfaces.ExecOptions{Timeout: 15 * time.Millisecond})
	require.NoError(t, err)
	require.Equal(t, interfaces.OutcomeTimedOut, res.Outcome)

	// Let the straggler wake, report its edge into the closed window, and
	// finish.
	time.Sleep(120 * time.Millisecond)

	res, err = exec.Execute([]byte("x"), interfaces.ExecOptions{})
	require.NoError(t, err)
	require.Equal(t, interfaces.OutcomeCompleted, res.Outcome)
	assert.Equal(t, byte(0), res.Coverage[9999])
	assert.Equal(t, byte(1), res.Coverage[42])
}

func TestExecuteRefusesWhileHungRunAlive(t *testing.T) {
	block := make(chan struct{})
	exec := newExecutor(t, func(data []byte) {
		if len(data) > 0 && data[0] == 'B' {
			<-block
		}
		observers.CoverEdge(7)
	}, time.Second)

	res, err := exec.Execute([]byte("B"), interfaces.ExecOptions{Timeout: 20 * time.Millisecond})
	require.NoError(t, err)
	require.Equal(t, interfaces.OutcomeTimedOut, res.Outcome)

	// Isolation is lost while the first run's goroutine is still alive.
	_, err = exec.Execute([]byte("x"), interfaces.ExecOptions{})
	require.Error(t, err)

	// Once the straggler finishes, execution resumes normally.
	close(block)
	require.Eventually(t, func() bool {
		res, err := exec.Execute([]byte("x"), interfaces.ExecOptions{})
		return err == nil && res.Outcome == interfaces.OutcomeCompleted
	}, time.Second, 10*time.Millisecond)
}

func TestExecuteTraceCmps(t *testing.T) {
	exec := newExecutor(t, func(data []byte) {
		observers.RecordCmp(data, []byte("magic"))
	}, time.Second)

	// Untraced run: no trace captured.
	res, err := exec.Execute([]byte("in"), interfaces.ExecOptions{})
	require.NoError(t, err)
	assert.Empty(t, res.CmpLog)

	// Traced run: operands captured.
	res, err = exec.Execute([]byte("in"), interfaces.ExecOptions{TraceCmps: true})
	require.NoError(t, err)
	require.Len(t, res.CmpLog, 1)
	assert.Equal(t, []byte("in"), res.CmpLog[0].Left)
	assert.Equal(t, []byte("magic"), res.CmpLog[0].Right)
}

func TestExecutorRunsInit(t *testing.T) {
	initialized := false
	_, err := NewInProcessExecutor(&Harness{
		Name: "with-init",
		Init: func(args []string) error { initialized = true; return nil },
		Run:  func(data []byte) {},
	}, time.Second, quietLogger())
	require.NoError(t, err)
	assert.True(t, initialized)
}

func TestExecutorRejectsNilHarness(t *testing.T) {
	_, err := NewInProcessExecutor(nil, time.Second, quietLogger())
	require.Error(t, err)
}
