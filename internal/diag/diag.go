// Package diag provides the run-wide logging and error accounting used by
// the equilibrium core. Numerical errors are reported with context and
// counted; identical messages are capped to keep cycle logs readable, but
// the counts survive for the end-of-run summary.
package diag

import (
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"
)

var logger = logrus.New()

func init() {
	logger.SetOutput(os.Stderr)
	logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
}

// SetVerbose switches debug-level output on or off.
func SetVerbose(verbose bool) {
	if verbose {
		logger.SetLevel(logrus.DebugLevel)
	} else {
		logger.SetLevel(logrus.InfoLevel)
	}
}

// printMax is the number of times one error message format is printed before
// further repeats are suppressed.
var printMax = 100

// SetPrintMax changes the repeat cap. A non-positive value disables capping.
func SetPrintMax(n int) {
	mu.Lock()
	defer mu.Unlock()
	printMax = n
}

var (
	mu          sync.Mutex
	errorCounts = make(map[string]int)
)

// Log writes an informational message.
func Log(format string, args ...any) {
	logger.Infof(format, args...)
}

// Debug writes a message only when verbose output is enabled.
func Debug(format string, args ...any) {
	logger.Debugf(format, args...)
}

// Error reports a recoverable error. Messages are counted by their format
// string; once a format has been printed printMax times further repeats are
// suppressed, with a single notice, while the count keeps accumulating.
func Error(format string, args ...any) {
	mu.Lock()
	errorCounts[format]++
	n := errorCounts[format]
	capped := printMax > 0 && n > printMax
	notice := printMax > 0 && n == printMax
	mu.Unlock()

	if capped {
		return
	}
	logger.Errorf(format, args...)
	if notice {
		logger.Warnf("error message repeated %d times, suppressing further occurrences: %s", printMax, format)
	}
}

// Fatal reports an unrecoverable configuration or consistency error and
// terminates the run.
func Fatal(format string, args ...any) {
	logger.Fatalf(format, args...)
}

// ErrorCount returns how many times an error with the given format string
// has been reported.
func ErrorCount(format string) int {
	mu.Lock()
	defer mu.Unlock()
	return errorCounts[format]
}

// ErrorSummary logs every recorded error format with its count.
func ErrorSummary(context string) {
	mu.Lock()
	formats := make([]string, 0, len(errorCounts))
	for f := range errorCounts {
		formats = append(formats, f)
	}
	sort.Strings(formats)
	lines := make([]string, len(formats))
	for i, f := range formats {
		lines[i] = fmt.Sprintf("%7d -- %s", errorCounts[f], f)
	}
	mu.Unlock()

	logger.Infof("error summary (%s): %d distinct error messages", context, len(lines))
	for _, l := range lines {
		logger.Info(l)
	}
}

// ResetErrors clears the error accounting. Intended for tests.
func ResetErrors() {
	mu.Lock()
	defer mu.Unlock()
	errorCounts = make(map[string]int)
}
