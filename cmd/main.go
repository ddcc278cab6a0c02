package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	cfgPkg "github.com/xhad/pressdata/pkg/config"
	"github.com/xhad/pressdata/pkg/logging"
)

var (
	configPath string
	logLevel   string
	logFormat  string

	cfg    *cfgPkg.Config
	logger = zap.NewNop()
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "pressdata",
		Short:         "Scrape PIB press releases and turn them into a summarised dataset",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logger.Sync()
		},
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format (console, json)")

	root.AddCommand(
		newScrapeCmd(),
		newDatasetCmd(),
		newServeCmd(),
		newIndexCmd(),
		newSearchCmd(),
	)
	return root
}

func setup() error {
	loaded, err := cfgPkg.LoadConfig(configPath)
	if err != nil {
		return err
	}
	if logLevel != "" {
		loaded.Log.Level = logLevel
	}
	if logFormat != "" {
		loaded.Log.Format = logFormat
	}

	if err := validateConfig(loaded); err != nil {
		return err
	}

	l, err := logging.New(logging.Config{Level: loaded.Log.Level, Format: loaded.Log.Format})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	cfg = loaded
	logger = l
	return nil
}

func validateConfig(c *cfgPkg.Config) error {
	problems := c.Validate()
	if len(problems) == 0 {
		return nil
	}
	msgs := make([]string, 0, len(problems))
	for _, p := range problems {
		msgs = append(msgs, p.Error())
	}
	return fmt.Errorf("invalid configuration:\n  %s", strings.Join(msgs, "\n  "))
}

func interrupted(err error) bool {
	return errors.Is(err, context.Canceled)
}
