/*
File: formatter.go
Description: Console log formatter for the Riven Fuzzer. Compact single-line
output with a timestamp, colored level tag, message, and sorted structured
fields, tuned for watching a long-running campaign in a terminal.
*/

package logging

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
)

// ConsoleFormatter renders log entries for terminal consumption.
type ConsoleFormatter struct {
	Colors bool
}

// Format renders one entry.
func (f *ConsoleFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	var out strings.Builder

	out.WriteString(entry.Time.Format("2006-01-02 15:04:05.000"))
	out.WriteString(" ")

	level := strings.ToUpper(entry.Level.String())
	if f.Colors {
		out.WriteString(fmt.Sprintf("\033[%dm%-5s\033[0m ", levelColor(entry.Level), level))
	} else {
		out.WriteString(fmt.Sprintf("%-5s ", level))
	}

	out.WriteString(entry.Message)

	if len(entry.Data) > 0 {
		keys := make([]string, 0, len(entry.Data))
		for k := range entry.Data {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			out.WriteString(fmt.Sprintf(" %s=%v", k, entry.Data[k]))
		}
	}

	out.WriteString("\n")
	return []byte(out.String()), nil
}

// levelColor returns the ANSI color code for a level tag.
func levelColor(level logrus.Level) int {
	switch level {
	case logrus.DebugLevel:
		return 37 // white
	case logrus.InfoLevel:
		return 32 // green
	case logrus.WarnLevel:
		return 33 // yellow
	default:
		return 31 // red
	}
}
