/*
File: main.go
Description: Command-line interface for the Riven Fuzzer. Defines the fuzz and
replay commands with their flags, binds everything to viper for config-file
and environment overrides, and dispatches into the command implementations.
The blank demo import registers the built-in sample harness; link your own
harness package instead to fuzz a real target.
*/

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/rivenfuzz/riven-fuzzer/cmd/fuzzer/commands"
	_ "github.com/rivenfuzz/riven-fuzzer/demo"
)

var (
	// Configuration
	configFile string
	logLevel   string
	logFile    string
	jsonLogs   bool

	// Directories
	inputDir  string
	corpusDir string
	crashDir  string

	// Execution
	timeout      time.Duration
	maxInputSize int

	// Campaign
	seed            int64
	maxIterations   uint64
	tokensFile      string
	snapshotPath    string
	monitorInterval time.Duration
	noRestart       bool
	metricsDir      string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "riven-fuzzer",
		Short: "Riven Fuzzer - coverage-guided, structure-aware fuzzing engine",
		Long: `Riven Fuzzer is a coverage-guided fuzzing engine for in-process Go targets.
It evolves a corpus through byte-level and structure-aware mutation stages,
solves comparisons through input-to-state replacement, and survives hard
target crashes by supervising itself and resuming from durable snapshots.`,
		Version: "1.0.0",
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Logging level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Log file path (in addition to stderr)")
	rootCmd.PersistentFlags().BoolVar(&jsonLogs, "json-logs", false, "Use JSON log format")

	viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log_file", rootCmd.PersistentFlags().Lookup("log-file"))
	viper.BindPFlag("json_logs", rootCmd.PersistentFlags().Lookup("json-logs"))

	fuzzCmd := &cobra.Command{
		Use:   "fuzz",
		Short: "Start a fuzzing campaign against the registered harness",
		Long: `Start the fuzzing loop. Seeds are read once from the input directory when
the corpus is empty; accepted inputs and crashers are persisted continuously,
and the campaign resumes from its snapshot after a restart.`,
		RunE: commands.RunFuzz,
	}

	fuzzCmd.Flags().StringVar(&inputDir, "input", "", "Seed input directory (required)")
	fuzzCmd.Flags().StringVar(&corpusDir, "corpus", "./corpus", "Working corpus directory")
	fuzzCmd.Flags().StringVar(&crashDir, "crashes", "./crashes", "Crash output directory")
	fuzzCmd.Flags().StringVar(&tokensFile, "tokens", "", "AFL-style dictionary file")
	fuzzCmd.Flags().DurationVar(&timeout, "timeout", 12000*time.Millisecond, "Per-execution timeout")
	fuzzCmd.Flags().IntVar(&maxInputSize, "max-input-size", 1<<16, "Maximum mutated input size in bytes")
	fuzzCmd.Flags().Int64Var(&seed, "seed", 0, "PRNG seed (0 = derive from clock)")
	fuzzCmd.Flags().Uint64Var(&maxIterations, "max-iterations", 0, "Stop after N scheduler rounds (0 = run forever)")
	fuzzCmd.Flags().StringVar(&snapshotPath, "snapshot", "./riven.snapshot", "Campaign snapshot file")
	fuzzCmd.Flags().DurationVar(&monitorInterval, "monitor-interval", 5*time.Second, "Statistics reporting interval")
	fuzzCmd.Flags().BoolVar(&noRestart, "no-restart", false, "Run without the restart supervisor")
	fuzzCmd.Flags().StringVar(&metricsDir, "metrics", "", "Directory for statistics JSONL output (empty = disabled)")

	fuzzCmd.MarkFlagRequired("input")

	viper.BindPFlag("input_dir", fuzzCmd.Flags().Lookup("input"))
	viper.BindPFlag("corpus_dir", fuzzCmd.Flags().Lookup("corpus"))
	viper.BindPFlag("crash_dir", fuzzCmd.Flags().Lookup("crashes"))
	viper.BindPFlag("tokens_file", fuzzCmd.Flags().Lookup("tokens"))
	viper.BindPFlag("timeout", fuzzCmd.Flags().Lookup("timeout"))
	viper.BindPFlag("max_input_size", fuzzCmd.Flags().Lookup("max-input-size"))
	viper.BindPFlag("seed", fuzzCmd.Flags().Lookup("seed"))
	viper.BindPFlag("max_iterations", fuzzCmd.Flags().Lookup("max-iterations"))
	viper.BindPFlag("snapshot_path", fuzzCmd.Flags().Lookup("snapshot"))
	viper.BindPFlag("monitor_interval", fuzzCmd.Flags().Lookup("monitor-interval"))
	viper.BindPFlag("no_restart", fuzzCmd.Flags().Lookup("no-restart"))
	viper.BindPFlag("metrics_dir", fuzzCmd.Flags().Lookup("metrics"))

	rootCmd.AddCommand(fuzzCmd)

	replayCmd := &cobra.Command{
		Use:   "replay [files or directories]",
		Short: "Replay saved inputs through the harness once each",
		Long: `Run saved corpus entries or crashers through the registered harness one at
a time and report each outcome. Useful for confirming that a crasher still
reproduces after a target change.`,
		Args: cobra.MinimumNArgs(1),
		RunE: commands.RunReplay,
	}
	replayCmd.Flags().DurationVar(&timeout, "timeout", 12000*time.Millisecond, "Per-execution timeout")
	viper.BindPFlag("timeout", replayCmd.Flags().Lookup("timeout"))

	rootCmd.AddCommand(replayCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
