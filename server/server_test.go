package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/xhad/pressdata/pkg/dataset"
	"github.com/xhad/pressdata/pkg/llm"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		// started at init by the genai client's opencensus dependency
		goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"),
	)
}

type stubExtractor struct{}

func (stubExtractor) Extract(path string) (string, time.Duration, error) {
	return "text of " + filepath.Base(path), time.Millisecond, nil
}

type stubDetector struct{}

func (stubDetector) Detect(string) string { return "en" }

// blockingSummarizer waits for release (or cancellation) before answering.
type blockingSummarizer struct {
	release chan struct{}
}

func (b *blockingSummarizer) Summarize(ctx context.Context, filename, _ string) (llm.Result, error) {
	if b.release != nil {
		select {
		case <-b.release:
		case <-ctx.Done():
			return llm.Result{}, ctx.Err()
		}
	}
	summary := "summary of " + filename
	return llm.Result{Summary: &summary, Topics: nil}, nil
}

func newTestServer(t *testing.T, summarizer *blockingSummarizer) (*Server, *websocket.Conn) {
	t.Helper()

	s := New(Config{
		NewRunner: func(logger *zap.Logger, onProgress func(int, int, dataset.FileDetail)) *dataset.Runner {
			return dataset.NewRunner(dataset.RunnerConfig{Logger: logger, OnProgress: onProgress},
				stubExtractor{}, stubDetector{}, summarizer)
		},
	})
	srv := httptest.NewServer(s.Handler())

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)

	t.Cleanup(func() {
		conn.Close()
		s.Close()
		srv.Close()
	})

	// Greeting with the current file list.
	readUntil(t, conn, "files")
	return s, conn
}

func send(t *testing.T, conn *websocket.Conn, cmd Command) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(cmd))
}

// readUntil returns every message up to and including the first of type want.
func readUntil(t *testing.T, conn *websocket.Conn, want string) []Message {
	t.Helper()
	var seen []Message
	for {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
		_, raw, err := conn.ReadMessage()
		require.NoError(t, err, "waiting for %q", want)

		var msg Message
		require.NoError(t, json.Unmarshal(raw, &msg))
		seen = append(seen, msg)
		if msg.Type == want {
			return seen
		}
	}
}

func writePDFs(t *testing.T, names ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("%PDF-1.4"), 0644))
	}
	return dir
}

func TestHealth(t *testing.T) {
	s := New(Config{})
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestSessionAddListClear(t *testing.T) {
	_, conn := newTestServer(t, &blockingSummarizer{})
	dir := writePDFs(t, "a.pdf", "b.pdf", "notes.txt")

	send(t, conn, Command{Type: "add", Paths: []string{dir}})
	msgs := readUntil(t, conn, "files")
	assert.Equal(t, "Added 2 new PDF file(s).", msgs[0].Content)
	files, ok := msgs[len(msgs)-1].Data.([]any)
	require.True(t, ok)
	assert.Len(t, files, 2)

	send(t, conn, Command{Type: "add", Paths: []string{filepath.Join(dir, "notes.txt")}})
	msgs = readUntil(t, conn, "error")
	assert.Equal(t, dataset.ErrNoPDFs.Error(), msgs[len(msgs)-1].Content)

	send(t, conn, Command{Type: "clear"})
	msgs = readUntil(t, conn, "files")
	assert.Nil(t, msgs[len(msgs)-1].Data)

	send(t, conn, Command{Type: "bogus"})
	msgs = readUntil(t, conn, "error")
	assert.Contains(t, msgs[len(msgs)-1].Content, "unknown command")
}

func TestSessionProcess(t *testing.T) {
	_, conn := newTestServer(t, &blockingSummarizer{})
	dir := writePDFs(t, "a.pdf", "b.pdf")
	output := filepath.Join(t.TempDir(), "set.jsonl")

	send(t, conn, Command{Type: "add", Paths: []string{dir}})
	readUntil(t, conn, "files")

	send(t, conn, Command{Type: "process", Output: output})
	msgs := readUntil(t, conn, "complete")

	var logs, progress int
	for _, m := range msgs {
		switch m.Type {
		case "log":
			logs++
		case "progress":
			progress++
		}
	}
	assert.Equal(t, 2, progress)
	assert.Greater(t, logs, 0)
	assert.Equal(t, "Completed! 2/2 generated. 0 skipped. 0 failed.", msgs[len(msgs)-1].Content)

	records, err := dataset.ReadRecords(output)
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestSessionBusyAndCancel(t *testing.T) {
	summarizer := &blockingSummarizer{release: make(chan struct{})}
	_, conn := newTestServer(t, summarizer)
	dir := writePDFs(t, "a.pdf", "b.pdf")
	output := filepath.Join(t.TempDir(), "set.jsonl")

	send(t, conn, Command{Type: "add", Paths: []string{dir}})
	readUntil(t, conn, "files")

	send(t, conn, Command{Type: "process", Output: output})
	readUntil(t, conn, "status")

	send(t, conn, Command{Type: "process", Output: output})
	msgs := readUntil(t, conn, "error")
	assert.Equal(t, dataset.ErrBusy.Error(), msgs[len(msgs)-1].Content)

	send(t, conn, Command{Type: "clear"})
	msgs = readUntil(t, conn, "error")
	assert.Equal(t, dataset.ErrBusy.Error(), msgs[len(msgs)-1].Content)

	send(t, conn, Command{Type: "cancel"})
	msgs = readUntil(t, conn, "complete")
	assert.Contains(t, msgs[len(msgs)-1].Content, "context canceled")

	send(t, conn, Command{Type: "cancel"})
	msgs = readUntil(t, conn, "error")
	assert.Equal(t, "no processing in progress", msgs[len(msgs)-1].Content)
}

func TestHubDropsSlowClient(t *testing.T) {
	h := NewHub(nil)
	c := &client{send: make(chan Message, 1)}
	h.clients[c] = struct{}{}

	h.Broadcast(Message{Type: "log"})
	assert.Equal(t, 1, h.Len())

	h.Broadcast(Message{Type: "log"}) // buffer full
	assert.Equal(t, 0, h.Len())

	_, open := <-c.send
	assert.True(t, open)
	_, open = <-c.send
	assert.False(t, open)
}
