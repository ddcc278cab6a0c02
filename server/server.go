package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/xhad/pressdata/pkg/dataset"
	"github.com/xhad/pressdata/pkg/logging"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // local tool; bind to loopback
	},
}

// Command is a client request.
type Command struct {
	Type   string   `json:"type"` // add, clear, list, process, cancel
	Paths  []string `json:"paths,omitempty"`
	Output string   `json:"output,omitempty"`
}

// RunnerFactory builds the dataset runner for one processing run.
type RunnerFactory func(logger *zap.Logger, onProgress func(done, total int, detail dataset.FileDetail)) *dataset.Runner

type Config struct {
	Addr      string
	Logger    *zap.Logger
	NewRunner RunnerFactory
}

// Server is a live processing session: one file queue, one run at a time,
// and every log line and progress update broadcast to connected clients.
type Server struct {
	config Config
	logger *zap.Logger
	hub    *Hub
	queue  *dataset.Queue

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(config Config) *Server {
	if config.Addr == "" {
		config.Addr = "127.0.0.1:8765"
	}
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Server{
		config: config,
		logger: logger,
		hub:    NewHub(logger),
		queue:  dataset.NewQueue(),
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	return mux
}

// ListenAndServe serves until ctx is done, then cancels any run in progress.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.config.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting session server", zap.String("addr", s.config.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		s.Close()
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	s.Close()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Close cancels the active run, waits for it and disconnects clients.
func (s *Server) Close() {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()

	s.wg.Wait()
	s.hub.Close()
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	c := s.hub.register(conn)
	defer s.hub.unregister(c)

	s.hub.Send(c, s.filesMessage())

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug("error reading message", zap.Error(err))
			}
			return
		}

		var cmd Command
		if err := json.Unmarshal(raw, &cmd); err != nil {
			s.hub.Send(c, Message{Type: "error", Content: fmt.Sprintf("invalid command: %v", err)})
			continue
		}

		s.handleCommand(c, cmd)
	}
}

func (s *Server) handleCommand(c *client, cmd Command) {
	switch cmd.Type {
	case "add":
		added, err := s.queue.Add(cmd.Paths...)
		if err != nil {
			s.hub.Send(c, Message{Type: "error", Content: err.Error()})
			return
		}
		s.hub.Broadcast(Message{Type: "status", Content: fmt.Sprintf("Added %d new PDF file(s).", added)})
		s.hub.Broadcast(s.filesMessage())

	case "clear":
		if err := s.queue.Clear(); err != nil {
			s.hub.Send(c, Message{Type: "error", Content: err.Error()})
			return
		}
		s.hub.Broadcast(Message{Type: "status", Content: "File list cleared."})
		s.hub.Broadcast(s.filesMessage())

	case "list":
		s.hub.Send(c, s.filesMessage())

	case "process":
		if err := s.startRun(cmd.Output); err != nil {
			s.hub.Send(c, Message{Type: "error", Content: err.Error()})
		}

	case "cancel":
		s.mu.Lock()
		cancel := s.cancel
		s.mu.Unlock()
		if cancel == nil {
			s.hub.Send(c, Message{Type: "error", Content: "no processing in progress"})
			return
		}
		cancel()
		s.hub.Broadcast(Message{Type: "status", Content: "Cancelling..."})

	default:
		s.hub.Send(c, Message{Type: "error", Content: fmt.Sprintf("unknown command %q", cmd.Type)})
	}
}

func (s *Server) filesMessage() Message {
	files := s.queue.Files()
	return Message{Type: "files", Content: fmt.Sprintf("%d file(s) queued", len(files)), Data: files}
}

type progressData struct {
	Done   int                `json:"done"`
	Total  int                `json:"total"`
	Detail dataset.FileDetail `json:"detail"`
}

func (s *Server) startRun(output string) error {
	if output == "" {
		return errors.New("output path is required")
	}
	if s.config.NewRunner == nil {
		return errors.New("processing is not configured")
	}

	files, err := s.queue.Begin()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()

	logger := logging.Forward(s.logger, zapcore.InfoLevel, func(e zapcore.Entry) {
		s.hub.Broadcast(Message{Type: "log", Content: e.Message, Data: e.Level.CapitalString()})
	})
	runner := s.config.NewRunner(logger, func(done, total int, detail dataset.FileDetail) {
		s.hub.Broadcast(Message{
			Type:    "progress",
			Content: fmt.Sprintf("Processed %d/%d: %s", done, total, detail.Filename),
			Data:    progressData{Done: done, Total: total, Detail: detail},
		})
	})

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		s.hub.Broadcast(Message{Type: "status", Content: fmt.Sprintf("Processing %d files...", len(files))})
		stats, err := runner.Run(ctx, files, output)

		cancel()
		s.mu.Lock()
		s.cancel = nil
		s.mu.Unlock()
		s.queue.End()

		msg := Message{
			Type: "complete",
			Content: fmt.Sprintf("Completed! %d/%d generated. %d skipped. %d failed.",
				stats.Success, stats.Attempted, stats.Skipped, stats.Failed),
			Data: stats,
		}
		if err != nil {
			msg.Content = fmt.Sprintf("Processing stopped: %v. %s", err, msg.Content)
		}
		s.hub.Broadcast(msg)
	}()

	return nil
}
