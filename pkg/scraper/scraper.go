package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// Outcome is the result of handling one release in phase 2.
type Outcome int

const (
	Failed Outcome = iota
	Saved
	Skipped
)

func (o Outcome) String() string {
	switch o {
	case Saved:
		return "saved"
	case Skipped:
		return "skipped"
	default:
		return "failed"
	}
}

// YearReport summarises one year of scraping.
type YearReport struct {
	Year             int
	Collected        int
	CollectionErrors int
	Saved            int
	Skipped          int
	Failed           int
	Duration         time.Duration
}

type ScraperConfig struct {
	PrintURL          string
	OutputDir         string
	CollectiveDir     string
	Concurrency       int
	Stagger           time.Duration // pause at the start of each task; negative disables
	YearDelay         time.Duration
	NavigationTimeout time.Duration
	RenderTimeout     time.Duration
	Now               func() time.Time
	Logger            *zap.Logger
	OnRelease         func(rel Release, outcome Outcome) // called once per release in phase 2
}

type Scraper struct {
	config  ScraperConfig
	browser Browser
	logger  *zap.Logger
}

func NewWithConfig(config ScraperConfig, browser Browser) (*Scraper, error) {
	if browser == nil {
		return nil, errors.New("browser is required")
	}
	if config.PrintURL == "" {
		return nil, errors.New("print URL is required")
	}
	if config.OutputDir == "" || config.CollectiveDir == "" {
		return nil, errors.New("output and collective directories are required")
	}
	if config.Concurrency <= 0 {
		config.Concurrency = 1000
	}
	if config.Stagger == 0 {
		config.Stagger = 100 * time.Millisecond
	}
	if config.NavigationTimeout == 0 {
		config.NavigationTimeout = 120 * time.Second
	}
	if config.RenderTimeout == 0 {
		config.RenderTimeout = 90 * time.Second
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}

	return &Scraper{
		config:  config,
		browser: browser,
		logger:  config.Logger,
	}, nil
}

// Run scrapes every year in [startYear, endYear]: phase 1 collects the
// release ids of the year, phase 2 renders them to PDF.
func (s *Scraper) Run(ctx context.Context, startYear, endYear int) ([]YearReport, error) {
	for _, dir := range []string{s.config.OutputDir, s.config.CollectiveDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	archive, err := s.browser.OpenArchive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}

	var reports []YearReport
	for year := startYear; year <= endYear; year++ {
		start := time.Now()
		s.logger.Info("Starting year", zap.Int("year", year))

		s.logger.Info("Phase 1: collecting release ids", zap.Int("year", year))
		releases, collectionErrors := s.CollectYear(ctx, archive, year)
		s.logger.Info("Phase 1 finished",
			zap.Int("year", year),
			zap.Int("collected", len(releases)),
			zap.Int("date_errors", collectionErrors))

		report := YearReport{
			Year:             year,
			Collected:        len(releases),
			CollectionErrors: collectionErrors,
		}

		if len(releases) > 0 {
			s.logger.Info("Phase 2: saving PDFs",
				zap.Int("year", year),
				zap.Int("releases", len(releases)),
				zap.Int("concurrency", s.config.Concurrency))
			phase := s.ProcessReleases(ctx, releases)
			report.Saved, report.Skipped, report.Failed = phase.Saved, phase.Skipped, phase.Failed
			s.logger.Info("Phase 2 finished",
				zap.Int("year", year),
				zap.Duration("took", phase.Duration),
				zap.Int("saved", phase.Saved),
				zap.Int("skipped", phase.Skipped),
				zap.Int("failed", phase.Failed))
		} else {
			s.logger.Info("No releases collected, skipping PDF phase", zap.Int("year", year))
		}

		report.Duration = time.Since(start)
		reports = append(reports, report)
		s.logger.Info("Finished year", zap.Int("year", year), zap.Duration("took", report.Duration))

		if err := ctx.Err(); err != nil {
			return reports, err
		}
		if year < endYear && s.config.YearDelay > 0 {
			s.logger.Info("Waiting before next year",
				zap.Duration("delay", s.config.YearDelay),
				zap.Int("next", year+1))
			if err := sleep(ctx, s.config.YearDelay); err != nil {
				return reports, err
			}
		}
	}

	return reports, nil
}

// CollectYear walks every day of the year up to today and gathers the
// release ids listed for it. Per-date failures are counted, not returned.
func (s *Scraper) CollectYear(ctx context.Context, archive Archive, year int) ([]Release, int) {
	now := s.config.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	var releases []Release
	errorsSeen := 0
	for month := time.January; month <= time.December; month++ {
		for day := 1; day <= daysIn(year, month); day++ {
			if ctx.Err() != nil {
				return releases, errorsSeen
			}
			date := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
			if date.After(today) {
				s.logger.Debug("Skipping future date", zap.String("date", date.Format(time.DateOnly)))
				continue
			}

			html, err := archive.Listing(ctx, year, int(month), day)
			if err != nil {
				s.logger.Error("Failed to collect ids", zap.String("date", date.Format(time.DateOnly)), zap.Error(err))
				errorsSeen++
				continue
			}

			listing, err := ParseListing(html)
			if err != nil {
				s.logger.Error("Failed to parse listing", zap.String("date", date.Format(time.DateOnly)), zap.Error(err))
				errorsSeen++
				continue
			}

			switch {
			case listing.Empty:
				s.logger.Debug("No releases found", zap.String("date", date.Format(time.DateOnly)))
			case len(listing.IDs) == 0:
				s.logger.Warn("Results area present but no release items", zap.String("date", date.Format(time.DateOnly)))
			}
			if listing.Invalid > 0 {
				s.logger.Warn("Release items without a numeric id",
					zap.String("date", date.Format(time.DateOnly)),
					zap.Int("count", listing.Invalid))
			}

			for _, id := range listing.IDs {
				releases = append(releases, Release{RelID: id, Year: year, Month: int(month), Day: day})
			}
		}
	}
	return releases, errorsSeen
}

// ProcessReleases saves the releases with at most Concurrency tasks running
// at once. Each task pauses for Stagger inside its slot before starting.
// Nothing is retried.
func (s *Scraper) ProcessReleases(ctx context.Context, releases []Release) YearReport {
	start := time.Now()
	sem := semaphore.NewWeighted(int64(s.config.Concurrency))

	outcomes := make([]Outcome, len(releases))
	var wg sync.WaitGroup
	for i, rel := range releases {
		if err := sem.Acquire(ctx, 1); err != nil {
			// Cancelled: whatever did not start counts as failed.
			break
		}
		wg.Add(1)
		go func(i int, rel Release) {
			defer wg.Done()
			defer sem.Release(1)
			outcomes[i] = s.processRelease(ctx, rel)
		}(i, rel)
	}
	wg.Wait()

	report := YearReport{Duration: time.Since(start)}
	for _, outcome := range outcomes {
		switch outcome {
		case Saved:
			report.Saved++
		case Skipped:
			report.Skipped++
		default:
			report.Failed++
		}
	}
	return report
}

func (s *Scraper) processRelease(ctx context.Context, rel Release) Outcome {
	outcome := Failed
	defer func() {
		if s.config.OnRelease != nil {
			s.config.OnRelease(rel, outcome)
		}
	}()

	if err := sleep(ctx, s.config.Stagger); err != nil {
		return outcome
	}

	saved, err := s.SavePDF(ctx, rel)
	switch {
	case err != nil:
		s.logger.Error("Failed to save PDF", zap.String("relid", rel.RelID), zap.Error(err))
	case saved:
		outcome = Saved
	default:
		outcome = Skipped
	}
	s.logger.Debug("Finished release", zap.Stringer("release", rel), zap.Stringer("outcome", outcome))
	return outcome
}

// SavePDF stores the print view of rel in the date-wise folder and copies it
// into the collective folder. It reports false without touching the browser
// when the PDF already exists.
func (s *Scraper) SavePDF(ctx context.Context, rel Release) (bool, error) {
	dated, collective, err := Paths(s.config.OutputDir, s.config.CollectiveDir, rel)
	if err != nil {
		return false, err
	}
	name := filepath.Base(collective)

	if exists(collective) {
		s.logger.Info("PDF already in collective folder, skipping", zap.String("file", name))
		return false, nil
	}

	if exists(dated) {
		s.logger.Info("PDF in date folder but not collective, copying", zap.String("file", name))
		if err := copyFile(dated, collective); err != nil {
			s.logger.Error("Failed to copy existing PDF to collective folder", zap.String("file", name), zap.Error(err))
		}
		return false, nil
	}

	if err := os.MkdirAll(filepath.Dir(dated), 0o755); err != nil {
		return false, fmt.Errorf("failed to create date folder: %w", err)
	}

	url := s.config.PrintURL + rel.RelID
	s.logger.Info("Saving PDF", zap.String("file", dated), zap.String("relid", rel.RelID))
	if err := s.render(ctx, url, dated); err != nil {
		return false, fmt.Errorf("render %s: %w", url, err)
	}
	s.logger.Info("Saved PDF to date folder", zap.String("file", name))

	if err := copyFile(dated, collective); err != nil {
		s.logger.Error("Failed to copy new PDF to collective folder", zap.String("file", name), zap.Error(err))
	}
	return true, nil
}

func (s *Scraper) render(ctx context.Context, url, dst string) (err error) {
	tab, err := s.browser.NewTab(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := tab.Close(); cerr != nil {
			s.logger.Debug("Failed to close tab", zap.String("url", url), zap.Error(cerr))
		}
	}()

	navCtx, cancel := context.WithTimeout(ctx, s.config.NavigationTimeout)
	defer cancel()
	if err := tab.Navigate(navCtx, url); err != nil {
		return fmt.Errorf("navigate: %w", err)
	}

	if err := tab.AddStyle(navCtx, hideControlsCSS); err != nil {
		s.logger.Warn("Could not hide print controls", zap.String("url", url), zap.Error(err))
	}

	renderCtx, cancelRender := context.WithTimeout(ctx, s.config.RenderTimeout)
	defer cancelRender()
	return writeAtomic(dst, func(w io.Writer) error {
		return tab.PrintPDF(renderCtx, w)
	})
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// writeAtomic writes through a temporary file in the destination folder so a
// failed render never leaves a partial PDF behind.
func writeAtomic(dst string, write func(w io.Writer) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(dst), ".partial-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := write(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), dst)
}

// copyFile copies src to dst keeping the modification time.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	if err := writeAtomic(dst, func(w io.Writer) error {
		_, err := io.Copy(w, in)
		return err
	}); err != nil {
		return err
	}
	return os.Chtimes(dst, info.ModTime(), info.ModTime())
}
