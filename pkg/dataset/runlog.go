package dataset

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap/zapcore"

	"github.com/xhad/pressdata/pkg/logging"
)

const filenameColumn = 45

// RunLog is the human-readable log file written next to a dataset.
type RunLog struct {
	f    *os.File
	core zapcore.Core
}

func CreateRunLog(path string) (*RunLog, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", path, err)
	}

	return &RunLog{
		f:    f,
		core: logging.NewFileCore(f, zapcore.DebugLevel),
	}, nil
}

// Core receives the run's log entries.
func (l *RunLog) Core() zapcore.Core {
	return l.core
}

// WriteSummary appends the totals and the per-file table.
func (l *RunLog) WriteSummary(stats Stats) error {
	w := bufio.NewWriter(l.f)

	fmt.Fprint(w, "\n\n--- Processing Summary ---\n")
	fmt.Fprintf(w, "Start Time: %s\n", formatTime(stats.Start))
	fmt.Fprintf(w, "End Time: %s\n", formatTime(stats.End))
	fmt.Fprintf(w, "Total Duration: %.2f seconds\n\n", stats.Duration().Seconds())

	fmt.Fprintf(w, "Total Files in List: %d\n", stats.Listed)
	fmt.Fprintf(w, "Files Attempted Processing: %d\n", stats.Attempted)
	fmt.Fprintf(w, "Successfully Generated & Written: %d\n", stats.Success)
	fmt.Fprintf(w, "Skipped (Non-English/Other): %d\n", stats.Skipped)
	fmt.Fprintf(w, "Failed: %d\n", stats.Failed)

	fmt.Fprint(w, "\n--- Detailed File Log ---\n")
	header := fmt.Sprintf("%-45s | %-8s | %-11s | %-10s | Reason / Details\n",
		"Filename", "Status", "Extract(s)", "LLM(s)")
	rule := strings.Repeat("-", len(header)+5) + "\n"
	fmt.Fprint(w, header)
	fmt.Fprint(w, rule)

	for _, d := range stats.Details {
		llmTime := "-"
		if d.Status == StatusSuccess || (d.Status == StatusFail && d.LLMTime > 0) {
			llmTime = fmt.Sprintf("%.2f", d.LLMTime.Seconds())
		}
		fmt.Fprintf(w, "%s | %-8s | %-11s | %-10s | %s\n",
			padFilename(d.Filename), d.Status,
			fmt.Sprintf("%.2f", d.ExtractionTime.Seconds()), llmTime, d.Reason)
	}

	fmt.Fprint(w, rule)
	fmt.Fprint(w, "--- End of Log ---\n")

	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to write log summary: %w", err)
	}
	return nil
}

func (l *RunLog) Close() error {
	_ = l.core.Sync()
	return l.f.Close()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "N/A"
	}
	return t.Format(time.DateTime)
}

// padFilename truncates long names to 42 characters plus "..." and pads the
// column to 45 characters.
func padFilename(name string) string {
	n := utf8.RuneCountInString(name)
	if n > filenameColumn {
		runes := []rune(name)
		return string(runes[:filenameColumn-3]) + "..."
	}
	return name + strings.Repeat(" ", filenameColumn-n)
}
