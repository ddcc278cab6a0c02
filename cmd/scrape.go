package main

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	cfgPkg "github.com/xhad/pressdata/pkg/config"
	"github.com/xhad/pressdata/pkg/scraper"
)

type scrapeFlags struct {
	startYear, endYear, concurrency int
	outputDir, collectiveDir        string
	headless                        bool
}

func (f *scrapeFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.startYear, "start-year", 0, "First year to scrape")
	cmd.Flags().IntVar(&f.endYear, "end-year", 0, "Last year to scrape")
	cmd.Flags().IntVar(&f.concurrency, "concurrency", 0, "Maximum open browser tabs")
	cmd.Flags().StringVar(&f.outputDir, "output-dir", "", "Date-partitioned output directory")
	cmd.Flags().StringVar(&f.collectiveDir, "collective-dir", "", "Flat directory holding every PDF")
	cmd.Flags().BoolVar(&f.headless, "headless", true, "Run the browser without a window")
}

// apply copies the flags the user set onto c and validates the result.
func (f *scrapeFlags) apply(cmd *cobra.Command, c *cfgPkg.Config) error {
	sc := &c.Scraper
	flags := cmd.Flags()
	if flags.Changed("start-year") {
		sc.StartYear = f.startYear
	}
	if flags.Changed("end-year") {
		sc.EndYear = f.endYear
	}
	if flags.Changed("concurrency") {
		sc.Concurrency = f.concurrency
	}
	if flags.Changed("output-dir") {
		sc.OutputDir = f.outputDir
	}
	if flags.Changed("collective-dir") {
		sc.CollectiveDir = f.collectiveDir
	}
	if flags.Changed("headless") {
		headless := f.headless
		sc.Headless = &headless
	}
	return validateConfig(c)
}

func newScrapeCmd() *cobra.Command {
	var flags scrapeFlags

	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Download press-release PDFs from the archive",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := flags.apply(cmd, cfg); err != nil {
				return err
			}
			sc := &cfg.Scraper

			ctx := cmd.Context()

			spinner := getSpinner("Launching browser...")
			browser, err := scraper.LaunchRod(ctx, scraper.RodConfig{
				ArchiveURL:        sc.ArchiveURL,
				Headless:          cfg.IsHeadless(),
				Bin:               sc.BrowserBin,
				NavigationTimeout: sc.NavigationTimeout,
				ActionTimeout:     sc.ActionTimeout,
				SettleDelay:       sc.SettleDelay,
				Logger:            logger,
			})
			spinner.Finish()
			fmt.Println()
			if err != nil {
				return err
			}
			defer browser.Close()

			stagger := sc.Stagger
			if stagger == 0 {
				stagger = -1 // zero in the config means no pause
			}

			bar := getProgressBar(-1, "Saving releases...")
			s, err := scraper.NewWithConfig(scraper.ScraperConfig{
				PrintURL:          sc.PrintURL,
				OutputDir:         sc.OutputDir,
				CollectiveDir:     sc.CollectiveDir,
				Concurrency:       sc.Concurrency,
				Stagger:           stagger,
				YearDelay:         sc.YearDelay,
				NavigationTimeout: sc.NavigationTimeout,
				RenderTimeout:     sc.RenderTimeout,
				Logger:            logger,
				OnRelease: func(rel scraper.Release, outcome scraper.Outcome) {
					bar.Add(1)
				},
			}, browser)
			if err != nil {
				return err
			}

			color.Blue("\nScraping %d-%d into %s\n", sc.StartYear, sc.EndYear, sc.OutputDir)
			reports, err := s.Run(ctx, sc.StartYear, sc.EndYear)
			bar.Finish()
			fmt.Println()
			printYearReports(reports)

			if err != nil {
				if interrupted(err) {
					color.Yellow("Scraping interrupted.")
					return nil
				}
				logger.Error("scraping stopped", zap.Error(err))
				return err
			}
			return nil
		},
	}

	flags.register(cmd)
	return cmd
}

func printYearReports(reports []scraper.YearReport) {
	var saved, skipped, failed int
	for _, r := range reports {
		fmt.Printf("%d: %d collected (%d date errors), ", r.Year, r.Collected, r.CollectionErrors)
		color.New(color.FgGreen).Printf("%d saved", r.Saved)
		fmt.Print(", ")
		color.New(color.FgYellow).Printf("%d skipped", r.Skipped)
		fmt.Print(", ")
		color.New(color.FgRed).Printf("%d failed", r.Failed)
		fmt.Printf(" in %s\n", r.Duration.Round(time.Second))
		saved += r.Saved
		skipped += r.Skipped
		failed += r.Failed
	}
	color.Green("\n✓ %d years: %d saved, %d skipped, %d failed\n", len(reports), saved, skipped, failed)
}
