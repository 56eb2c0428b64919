/*
File: monitor.go
Description: Logging monitor for the Riven Fuzzer. Receives periodic campaign
statistics from the engine and emits them as structured log lines. Monitors
are pure sinks; nothing here feeds back into scheduling or mutation.
*/

package core

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/rivenfuzz/riven-fuzzer/pkg/interfaces"
)

// LogMonitor reports campaign statistics through the campaign logger.
type LogMonitor struct {
	logger *logrus.Logger
}

// NewLogMonitor creates a logging monitor.
func NewLogMonitor(logger *logrus.Logger) *LogMonitor {
	return &LogMonitor{logger: logger}
}

// Report emits one statistics line.
func (m *LogMonitor) Report(stats interfaces.CampaignStats) {
	m.logger.WithFields(logrus.Fields{
		"executions":     stats.Executions,
		"execs_per_sec":  int(stats.ExecsPerSec),
		"corpus":         stats.CorpusCount,
		"objectives":     stats.Objectives,
		"timeouts":       stats.Timeouts,
		"coverage_edges": stats.CoverageEdges,
		"runtime":        stats.Runtime.Round(time.Second).String(),
	}).Info("Campaign statistics")
}
