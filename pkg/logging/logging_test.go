/*
File: logging_test.go
Description: Tests for logging setup. Verifies level parsing, log file
creation, and the console formatter's field rendering.
*/

package logging

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoggerLevels(t *testing.T) {
	logger, err := NewLogger(Options{Level: "debug"})
	require.NoError(t, err)
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())

	logger, err = NewLogger(Options{})
	require.NoError(t, err)
	assert.Equal(t, logrus.InfoLevel, logger.GetLevel())

	_, err = NewLogger(Options{Level: "nonsense"})
	require.Error(t, err)
}

func TestNewLoggerWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fuzz.log")
	logger, err := NewLogger(Options{Level: "info", File: path, NoColors: true})
	require.NoError(t, err)

	logger.WithField("corpus", 3).Info("Campaign statistics")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Campaign statistics")
	assert.Contains(t, string(data), "corpus=3")
}

func TestConsoleFormatterSortsFields(t *testing.T) {
	f := &ConsoleFormatter{}
	entry := &logrus.Entry{
		Logger:  logrus.New(),
		Time:    time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Level:   logrus.InfoLevel,
		Message: "msg",
		Data:    logrus.Fields{"zeta": 1, "alpha": 2},
	}
	out, err := f.Format(entry)
	require.NoError(t, err)
	s := string(out)
	assert.Contains(t, s, "INFO")
	assert.Contains(t, s, "msg")
	assert.Less(t, indexOf(s, "alpha"), indexOf(s, "zeta"))
}

func indexOf(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}
