/*
File: supervisor.go
Description: Restart supervisor for the Riven Fuzzer. The launched process
acts as a supervisor: it re-executes itself as a child with a marker in the
environment and respawns it whenever the target brings it down. The child is
the actual fuzzer; campaign state crosses restarts through the snapshot file
only, so a child crash at any instant is recoverable.
*/

package restart

import (
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
)

// childEnv marks a process as the fuzzing child.
const childEnv = "RIVEN_FUZZ_CHILD"

// setupFailureCode is the child exit code for unrecoverable setup errors.
const setupFailureCode = 2

// IsChild reports whether this process is the fuzzing child.
func IsChild() bool {
	return os.Getenv(childEnv) == "1"
}

// Supervise runs the respawn loop. It re-executes the current binary with
// identical arguments and the child marker set, forwards interrupts, and
// returns the child's exit code once it exits cleanly. It never returns
// while the child keeps dying; each death is logged and respawned.
func Supervise(logger *logrus.Logger) int {
	exe, err := os.Executable()
	if err != nil {
		logger.WithError(err).Error("Failed to resolve own executable, cannot supervise")
		return 1
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)

	restarts := 0
	for {
		cmd := exec.Command(exe, os.Args[1:]...)
		cmd.Env = append(os.Environ(), childEnv+"=1")
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		cmd.Stdin = os.Stdin

		if err := cmd.Start(); err != nil {
			logger.WithError(err).Error("Failed to start fuzzing child")
			return 1
		}

		done := make(chan error, 1)
		go func() { done <- cmd.Wait() }()

		interrupted := false
	wait:
		for {
			select {
			case sig := <-sigs:
				interrupted = true
				_ = cmd.Process.Signal(sig)
			case err = <-done:
				break wait
			}
		}

		if err == nil {
			return 0
		}
		if interrupted {
			// The child died because we forwarded the signal.
			return exitCode(err)
		}
		if exitCode(err) == setupFailureCode {
			// Configuration mistakes do not fix themselves; respawning
			// would loop forever.
			return setupFailureCode
		}
		restarts++
		logger.WithFields(logrus.Fields{
			"error":    err.Error(),
			"restarts": restarts,
		}).Warn("Fuzzing child died, respawning")
	}
}

// exitCode extracts the process exit code from a Wait error.
func exitCode(err error) int {
	if ee, ok := err.(*exec.ExitError); ok {
		return ee.ExitCode()
	}
	return 1
}

// Fail ensures a child error is visible to the supervisor as a nonzero
// exit without triggering a respawn storm on configuration mistakes.
func Fail(logger *logrus.Logger, err error) {
	logger.WithError(err).Error("Fuzzing child failed")
	os.Exit(setupFailureCode)
}
