package dataset

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xhad/pressdata/internal/models"
	"github.com/xhad/pressdata/internal/types"
	"github.com/xhad/pressdata/pkg/llm"
	"github.com/xhad/pressdata/pkg/logging"
	"github.com/xhad/pressdata/pkg/processor"
)

type Status string

const (
	StatusSuccess Status = "SUCCESS"
	StatusSkip    Status = "SKIP"
	StatusFail    Status = "FAIL"
)

// FileDetail is the outcome of one file.
type FileDetail struct {
	Filename       string        `json:"filename"`
	Status         Status        `json:"status"`
	Reason         string        `json:"reason"`
	ExtractionTime time.Duration `json:"extraction_time"`
	LLMTime        time.Duration `json:"llm_time"`
}

// Stats summarises a run.
type Stats struct {
	RunID       string       `json:"run_id"`
	DatasetPath string       `json:"dataset_path"`
	LogPath     string       `json:"log_path"`
	Listed      int          `json:"listed"`
	Attempted   int          `json:"attempted"`
	Success     int          `json:"success"`
	Skipped     int          `json:"skipped"`
	Failed      int          `json:"failed"`
	Start       time.Time    `json:"start"`
	End         time.Time    `json:"end"`
	Details     []FileDetail `json:"details"`
}

func (s Stats) Duration() time.Duration {
	if s.Start.IsZero() || s.End.IsZero() {
		return 0
	}
	return s.End.Sub(s.Start)
}

func (s *Stats) add(d FileDetail) {
	s.Details = append(s.Details, d)
	switch d.Status {
	case StatusSuccess:
		s.Success++
	case StatusSkip:
		s.Skipped++
	case StatusFail:
		s.Failed++
	}
}

type RunnerConfig struct {
	Language     string        // expected language; other detected languages are skipped
	FileInterval time.Duration // minimum spacing between files
	Logger       *zap.Logger
	Now          func() time.Time

	// called after every file
	OnProgress func(done, total int, detail FileDetail)
}

// Runner turns PDFs into a dataset, one file at a time.
type Runner struct {
	config     RunnerConfig
	logger     *zap.Logger
	extractor  types.TextExtractor
	detector   types.LanguageDetector
	summarizer types.Summarizer
}

func NewRunner(config RunnerConfig, extractor types.TextExtractor, detector types.LanguageDetector, summarizer types.Summarizer) *Runner {
	if config.Language == "" {
		config.Language = "en"
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Runner{
		config:     config,
		logger:     logger,
		extractor:  extractor,
		detector:   detector,
		summarizer: summarizer,
	}
}

// Run processes files into the dataset at output. Per-file failures are
// recorded in the returned Stats; the error reports a run that could not
// start or was cancelled. The run log summary is written in every case once
// the log file exists.
func (r *Runner) Run(ctx context.Context, files []string, output string) (Stats, error) {
	stats := Stats{
		RunID:  uuid.NewString(),
		Listed: len(files),
	}

	out, err := OutputPaths(output)
	if err != nil {
		return stats, err
	}
	stats.DatasetPath = out.DatasetPath
	stats.LogPath = out.LogPath

	runLog, err := CreateRunLog(out.LogPath)
	if err != nil {
		return stats, err
	}
	logger := logging.Tee(r.logger, runLog.Core())

	stats.Start = r.config.Now()
	logger.Info("Starting processing session.", zap.String("run", stats.RunID))
	logger.Info("Dataset file: " + out.DatasetPath)
	logger.Info("Log file: " + out.LogPath)
	logger.Info(fmt.Sprintf("Processing %d files...", len(files)))

	runErr := r.process(ctx, logger, files, out.DatasetPath, &stats)
	if runErr != nil {
		logger.Error("processing stopped", zap.Error(runErr))
	}

	stats.End = r.config.Now()
	if err := runLog.WriteSummary(stats); err != nil {
		logger.Error("failed to write log summary", zap.Error(err))
	}
	if err := runLog.Close(); err != nil {
		r.logger.Error("failed to close log file", zap.Error(err))
	}

	r.logger.Info("processing complete",
		zap.Int("success", stats.Success),
		zap.Int("attempted", stats.Attempted),
		zap.Int("skipped", stats.Skipped),
		zap.Int("failed", stats.Failed))

	return stats, runErr
}

func (r *Runner) process(ctx context.Context, logger *zap.Logger, files []string, datasetPath string, stats *Stats) error {
	w, err := CreateWriter(datasetPath)
	if err != nil {
		return err
	}
	defer func() {
		if err := w.Close(); err != nil {
			logger.Error("error closing dataset file", zap.Error(err))
			return
		}
		logger.Debug("Closed dataset file.")
	}()

	limiter := rate.NewLimiter(rate.Inf, 1)
	if r.config.FileInterval > 0 {
		limiter = rate.NewLimiter(rate.Every(r.config.FileInterval), 1)
	}

	for i, path := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := limiter.Wait(ctx); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return err
		}

		stats.Attempted++
		logger.Info(fmt.Sprintf("--- Starting: %s (%d/%d) ---", filepath.Base(path), i+1, len(files)))

		detail := r.processFile(ctx, logger, w, path)
		stats.add(detail)

		logger.Info(fmt.Sprintf("--- Finished: %s ---", detail.Filename))
		if r.config.OnProgress != nil {
			r.config.OnProgress(i+1, len(files), detail)
		}
	}

	return nil
}

func (r *Runner) processFile(ctx context.Context, logger *zap.Logger, w *Writer, path string) FileDetail {
	filename := filepath.Base(path)
	detail := FileDetail{Filename: filename}

	text, took, err := r.extractor.Extract(path)
	detail.ExtractionTime = took
	if err != nil {
		logger.Error("text extraction failed", zap.String("file", filename), zap.Error(err))
		detail.Status = StatusFail
		detail.Reason = "Text extraction/cleaning failed"
		return detail
	}

	switch lang := r.detector.Detect(text); {
	case lang == processor.LanguageUnknown:
		logger.Warn(fmt.Sprintf("Lang detection inconclusive for %s. Proceeding.", filename))
	case lang != r.config.Language:
		logger.Warn(fmt.Sprintf("Skipping %s (Lang: %s)", filename, lang))
		detail.Status = StatusSkip
		detail.Reason = "Detected language: " + lang
		return detail
	default:
		logger.Debug(fmt.Sprintf("Lang detected as %s for %s.", lang, filename))
	}

	result, genErr := r.summarizer.Summarize(ctx, filename, text)
	detail.LLMTime = result.Duration
	if genErr != nil {
		logger.Error("generation failed", zap.String("file", filename), zap.Error(genErr))
	}

	rec := models.Record{
		Filename:      filename,
		ExtractedText: text,
		Summary:       result.Summary,
		Topics:        result.Topics,
	}
	if err := w.Write(rec); err != nil {
		logger.Error("failed to write JSON record", zap.String("file", filename), zap.Error(err))
		detail.Status = StatusFail
		detail.Reason = fmt.Sprintf("JSON writing error: %v", err)
		return detail
	}

	switch {
	case result.Summary != nil:
		detail.Status = StatusSuccess
		detail.Reason = "Summary generated"
		if result.TopicsErr != nil {
			detail.Reason += " (Topics parsing failed)"
		}
		logger.Info("Wrote record for " + filename)
	case errors.Is(genErr, llm.ErrInsufficientText):
		detail.Status = StatusFail
		detail.Reason = "Insufficient text for generation"
	default:
		detail.Status = StatusFail
		detail.Reason = "Generation failed"
	}
	return detail
}
