/*
File: replay.go
Description: Replay command for the Riven Fuzzer. Runs saved inputs through
the registered harness once each and reports the outcome per file, so a
crasher can be confirmed (or confirmed fixed) without starting a campaign.
*/

package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/rivenfuzz/riven-fuzzer/pkg/execution"
	"github.com/rivenfuzz/riven-fuzzer/pkg/interfaces"
)

// RunReplay implements the replay command. Arguments are input files or
// directories of input files; crash output sidecar files are skipped.
func RunReplay(cmd *cobra.Command, args []string) error {
	if err := LoadConfig(); err != nil {
		return err
	}
	logger, err := SetupLogging()
	if err != nil {
		return err
	}

	harness, err := execution.DefaultHarness()
	if err != nil {
		return err
	}
	executor, err := execution.NewInProcessExecutor(harness, viper.GetDuration("timeout"), logger)
	if err != nil {
		return err
	}

	files, err := collectInputs(args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no input files found")
	}

	crashes := 0
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		res, err := executor.Execute(data, interfaces.ExecOptions{})
		if err != nil {
			return fmt.Errorf("failed to execute %s: %w", path, err)
		}
		fields := logrus.Fields{
			"file":     path,
			"size":     len(data),
			"outcome":  res.Outcome.String(),
			"duration": res.Duration.String(),
		}
		switch res.Outcome {
		case interfaces.OutcomeCrashed:
			crashes++
			logger.WithFields(fields).Error("Input crashed the target")
			fmt.Fprintf(os.Stderr, "%s\n", res.CrashOutput)
		case interfaces.OutcomeTimedOut:
			logger.WithFields(fields).Warn("Input timed out")
		default:
			logger.WithFields(fields).Info("Input completed")
		}
	}

	logger.WithFields(logrus.Fields{
		"inputs":  len(files),
		"crashes": crashes,
	}).Info("Replay finished")
	if crashes > 0 {
		os.Exit(1)
	}
	return nil
}

// collectInputs expands the argument list into a flat file list.
func collectInputs(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", arg, err)
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}
		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, fmt.Errorf("failed to read directory %s: %w", arg, err)
		}
		for _, e := range entries {
			if e.IsDir() || strings.HasSuffix(e.Name(), ".output") {
				continue
			}
			files = append(files, filepath.Join(arg, e.Name()))
		}
	}
	return files, nil
}
