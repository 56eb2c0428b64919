/*
File: utils.go
Description: Shared utilities for the Riven Fuzzer commands. Provides common
configuration loading, logging setup, and the translation from viper settings
to the engine configuration used by all command implementations.
*/

package commands

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/rivenfuzz/riven-fuzzer/pkg/interfaces"
	"github.com/rivenfuzz/riven-fuzzer/pkg/logging"
)

// LoadConfig loads configuration from the optional config file and the
// environment. Environment variables use the RIVEN_ prefix.
func LoadConfig() error {
	if configFile := viper.GetString("config"); configFile != "" {
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}
	viper.SetEnvPrefix("RIVEN")
	viper.AutomaticEnv()
	return nil
}

// SetupLogging builds the campaign logger from viper settings.
func SetupLogging() (*logrus.Logger, error) {
	return logging.NewLogger(logging.Options{
		Level: viper.GetString("log_level"),
		File:  viper.GetString("log_file"),
		JSON:  viper.GetBool("json_logs"),
	})
}

// BuildConfig assembles the engine configuration from viper settings.
func BuildConfig() *interfaces.Config {
	return &interfaces.Config{
		InputDir:        viper.GetString("input_dir"),
		CorpusDir:       viper.GetString("corpus_dir"),
		CrashDir:        viper.GetString("crash_dir"),
		TokensFile:      viper.GetString("tokens_file"),
		Timeout:         viper.GetDuration("timeout"),
		MaxInputSize:    viper.GetInt("max_input_size"),
		Seed:            viper.GetInt64("seed"),
		MaxIterations:   viper.GetUint64("max_iterations"),
		SnapshotPath:    viper.GetString("snapshot_path"),
		LogLevel:        viper.GetString("log_level"),
		LogFile:         viper.GetString("log_file"),
		JSONLogs:        viper.GetBool("json_logs"),
		MonitorInterval: viper.GetDuration("monitor_interval"),
	}
}
