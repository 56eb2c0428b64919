/*
File: fuzz.go
Description: Fuzz command for the Riven Fuzzer. The launched process becomes
the restart supervisor and re-executes itself as the fuzzing child; the child
wires the harness, executor, engine, and stage pipeline together and runs the
campaign loop until interrupted or the iteration bound is reached.
*/

package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/rivenfuzz/riven-fuzzer/pkg/core"
	"github.com/rivenfuzz/riven-fuzzer/pkg/execution"
	"github.com/rivenfuzz/riven-fuzzer/pkg/monitoring"
	"github.com/rivenfuzz/riven-fuzzer/pkg/restart"
	"github.com/rivenfuzz/riven-fuzzer/pkg/stages"
	"github.com/rivenfuzz/riven-fuzzer/pkg/utils"
)

// RunFuzz implements the fuzz command.
func RunFuzz(cmd *cobra.Command, args []string) error {
	if err := LoadConfig(); err != nil {
		return err
	}
	logger, err := SetupLogging()
	if err != nil {
		return err
	}

	// The first process supervises; only the child fuzzes.
	if !viper.GetBool("no_restart") && !restart.IsChild() {
		logger.Info("Starting restart supervisor")
		os.Exit(restart.Supervise(logger))
	}

	config := BuildConfig()

	harness, err := execution.DefaultHarness()
	if err != nil {
		restart.Fail(logger, err)
	}
	executor, err := execution.NewInProcessExecutor(harness, config.Timeout, logger)
	if err != nil {
		restart.Fail(logger, err)
	}

	engine := core.NewEngine(logger)
	engine.AddTokens(harness.Tokens)
	if err := engine.Setup(config, executor); err != nil {
		restart.Fail(logger, err)
	}
	engine.SetStages([]stages.Stage{
		stages.NewGeneralizationStage(),
		stages.NewTracingStage(),
		stages.NewI2SStage(),
		stages.NewHavocStage(config.MaxInputSize),
		stages.NewGrimoireStage(config.MaxInputSize),
	})
	engine.AddMonitor(core.NewLogMonitor(logger))
	engine.AddMonitor(monitoring.NewResourceMonitor(logger))
	if metricsDir := viper.GetString("metrics_dir"); metricsDir != "" {
		writer, err := utils.NewStatsWriter(metricsDir)
		if err != nil {
			restart.Fail(logger, err)
		}
		defer writer.Close()
		engine.AddMonitor(writer)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.WithField("harness", harness.Name).Info("Fuzzing campaign starting")
	if err := engine.Run(ctx); err != nil {
		return fmt.Errorf("campaign failed: %w", err)
	}
	logger.Info("Fuzzing campaign finished")
	return nil
}
