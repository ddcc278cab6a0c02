package dataset

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPadFilename(t *testing.T) {
	short := padFilename("PIB_1.pdf")
	assert.Len(t, short, 45)
	assert.True(t, strings.HasPrefix(short, "PIB_1.pdf "))

	long := padFilename(strings.Repeat("x", 50) + ".pdf")
	assert.Equal(t, strings.Repeat("x", 42)+"...", long)

	exact := strings.Repeat("y", 45)
	assert.Equal(t, exact, padFilename(exact))
}

func TestWriteSummary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run_log.txt")
	runLog, err := CreateRunLog(path)
	require.NoError(t, err)

	start := time.Date(2024, 5, 1, 10, 0, 0, 0, time.Local)
	stats := Stats{
		Listed:    2,
		Attempted: 2,
		Success:   1,
		Failed:    1,
		Start:     start,
		End:       start.Add(90 * time.Second),
		Details: []FileDetail{
			{Filename: "a.pdf", Status: StatusSuccess, Reason: "Summary generated", ExtractionTime: 1500 * time.Millisecond, LLMTime: 3 * time.Second},
			{Filename: "b.pdf", Status: StatusFail, Reason: "Text extraction/cleaning failed", ExtractionTime: 250 * time.Millisecond},
		},
	}
	require.NoError(t, runLog.WriteSummary(stats))
	require.NoError(t, runLog.Close())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(raw)

	assert.Contains(t, text, "Start Time: 2024-05-01 10:00:00\n")
	assert.Contains(t, text, "End Time: 2024-05-01 10:01:30\n")
	assert.Contains(t, text, "Total Duration: 90.00 seconds\n")
	assert.Contains(t, text, "a.pdf"+strings.Repeat(" ", 40)+" | SUCCESS  | 1.50        | 3.00       | Summary generated\n")
	assert.Contains(t, text, "b.pdf"+strings.Repeat(" ", 40)+" | FAIL     | 0.25        | -          | Text extraction/cleaning failed\n")
}
