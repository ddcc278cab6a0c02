package main

import (
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cfgPkg "github.com/xhad/pressdata/pkg/config"
)

func loadTestConfig(t *testing.T) *cfgPkg.Config {
	t.Helper()
	t.Setenv("PRESSDATA_LOG_LEVEL", "")
	c, err := cfgPkg.LoadConfig(filepath.Join("testdata", "config.yaml"))
	require.NoError(t, err)
	require.NoError(t, validateConfig(c))
	return c
}

func TestScrapeFlagsAreValidated(t *testing.T) {
	tests := []struct {
		name    string
		args    map[string]string
		wantErr string
	}{
		{
			name: "valid overrides",
			args: map[string]string{"start-year": "2010", "end-year": "2011", "concurrency": "8"},
		},
		{
			name:    "start year too early",
			args:    map[string]string{"start-year": "1980"},
			wantErr: "scraper.start_year",
		},
		{
			name:    "negative concurrency",
			args:    map[string]string{"concurrency": "-5"},
			wantErr: "scraper.concurrency",
		},
		{
			name:    "same output and collective folder",
			args:    map[string]string{"output-dir": "pdfs", "collective-dir": "pdfs"},
			wantErr: "scraper.collective_dir",
		},
		{
			name:    "end before start",
			args:    map[string]string{"start-year": "2015", "end-year": "2012"},
			wantErr: "scraper.end_year",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := loadTestConfig(t)

			var flags scrapeFlags
			cmd := &cobra.Command{Use: "scrape"}
			flags.register(cmd)
			for name, value := range tt.args {
				require.NoError(t, cmd.Flags().Set(name, value))
			}

			err := flags.apply(cmd, c)
			if tt.wantErr == "" {
				require.NoError(t, err)
				assert.Equal(t, 2010, c.Scraper.StartYear)
				assert.Equal(t, 8, c.Scraper.Concurrency)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestScrapeFlagsKeepUnsetValues(t *testing.T) {
	c := loadTestConfig(t)

	var flags scrapeFlags
	cmd := &cobra.Command{Use: "scrape"}
	flags.register(cmd)
	require.NoError(t, cmd.Flags().Set("headless", "false"))

	require.NoError(t, flags.apply(cmd, c))
	assert.Equal(t, 2004, c.Scraper.StartYear)
	assert.Equal(t, 1000, c.Scraper.Concurrency)
	assert.False(t, c.IsHeadless())
}
