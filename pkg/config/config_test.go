package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	// Create temporary config file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configData := `
llm:
  provider: "ollama"
  base_url: "http://localhost:11434"
  model: "llama3"
  max_tokens: 1000
  temperature: 0.5

scraper:
  start_year: 2010
  end_year: 2012
  concurrency: 50
  year_delay: 2s
  navigation_timeout: 1m
  headless: false
  output_dir: "out"
  collective_dir: "all"

dataset:
  min_text_length: 80
  language: "en"

database:
  url: "postgres://localhost:5432/test"
  table_name: "test_releases"
  vector_dim: 384

log:
  level: debug
  format: json
`
	err := os.WriteFile(configPath, []byte(configData), 0644)
	require.NoError(t, err)

	// Test loading config
	config, err := LoadConfig(configPath)
	require.NoError(t, err)

	// Verify loaded values
	assert.Equal(t, ProviderOllama, config.LLM.Provider)
	assert.Equal(t, "llama3", config.LLM.Model)
	assert.Equal(t, 1000, config.LLM.MaxTokens)
	assert.Equal(t, 0.5, config.LLM.Temperature)
	assert.Equal(t, 2010, config.Scraper.StartYear)
	assert.Equal(t, 2012, config.Scraper.EndYear)
	assert.Equal(t, 50, config.Scraper.Concurrency)
	assert.Equal(t, 2*time.Second, config.Scraper.YearDelay)
	assert.Equal(t, time.Minute, config.Scraper.NavigationTimeout)
	assert.False(t, config.IsHeadless())
	assert.Equal(t, 80, config.Dataset.MinTextLength)
	assert.Equal(t, "postgres://localhost:5432/test", config.Database.URL)
	assert.Equal(t, 384, config.Database.VectorDim)
	assert.Equal(t, "debug", config.Log.Level)

	// Unset values fall back to defaults
	assert.Equal(t, 90*time.Second, config.Scraper.RenderTimeout)
	assert.Equal(t, 40000, config.LLM.MaxPromptChars)
	assert.Empty(t, config.Validate())
}

func TestLoadConfigKeepsExplicitZeros(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	configData := `
llm:
  temperature: 0
scraper:
  year_delay: 0s
  stagger: 0s
dataset:
  file_interval: 0s
`
	require.NoError(t, os.WriteFile(configPath, []byte(configData), 0644))

	config, err := LoadConfig(configPath)
	require.NoError(t, err)

	assert.Zero(t, config.LLM.Temperature)
	assert.Zero(t, config.Scraper.YearDelay)
	assert.Zero(t, config.Scraper.Stagger)
	assert.Zero(t, config.Dataset.FileInterval)
	assert.Empty(t, config.Validate())

	// Keys left out still get their defaults.
	config, err = LoadConfig(writeConfig(t, "log:\n  level: info\n"))
	require.NoError(t, err)
	assert.Equal(t, 0.6, config.LLM.Temperature)
	assert.Equal(t, 5*time.Second, config.Scraper.YearDelay)
	assert.Equal(t, 100*time.Millisecond, config.Scraper.Stagger)
	assert.Equal(t, 50*time.Millisecond, config.Dataset.FileInterval)
}

func writeConfig(t *testing.T, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))
	return path
}

func TestDefaults(t *testing.T) {
	config := getDefaultConfig()

	assert.Equal(t, ProviderGemini, config.LLM.Provider)
	assert.Equal(t, 0.6, config.LLM.Temperature)
	assert.Equal(t, 2048, config.LLM.MaxTokens)
	assert.Equal(t, "https://archive.pib.gov.in/", config.Scraper.ArchiveURL)
	assert.Equal(t, "pib_archive_pdfs", config.Scraper.OutputDir)
	assert.Equal(t, "pib_archive_pdfs_collective", config.Scraper.CollectiveDir)
	assert.Equal(t, 2004, config.Scraper.StartYear)
	assert.Equal(t, time.Now().Year(), config.Scraper.EndYear)
	assert.Equal(t, 1000, config.Scraper.Concurrency)
	assert.True(t, config.IsHeadless())
	assert.Equal(t, 1500, config.Dataset.LanguageSample)
	assert.Empty(t, config.Validate())
}

func TestConfigValidation(t *testing.T) {
	valid := getDefaultConfig()

	tests := []struct {
		name          string
		mutate        func(c *Config)
		errorMessages []string
	}{
		{
			name:   "valid config",
			mutate: func(c *Config) {},
		},
		{
			name: "invalid llm",
			mutate: func(c *Config) {
				c.LLM.Provider = "openai"
				c.LLM.MaxTokens = 10000
				c.LLM.Temperature = 3.0
			},
			errorMessages: []string{
				"llm.provider: unknown provider",
				"llm.max_tokens: max_tokens must be between 1 and 8192",
				"llm.temperature: temperature must be between 0 and 2",
			},
		},
		{
			name: "ollama without base url",
			mutate: func(c *Config) {
				c.LLM.Provider = ProviderOllama
				c.LLM.BaseURL = ""
			},
			errorMessages: []string{"llm.base_url: Ollama base URL is required"},
		},
		{
			name: "invalid scraper",
			mutate: func(c *Config) {
				c.Scraper.StartYear = 2020
				c.Scraper.EndYear = 2019
				c.Scraper.Concurrency = 0
				c.Scraper.CollectiveDir = c.Scraper.OutputDir + "/"
			},
			errorMessages: []string{
				"scraper.end_year: end_year must not be before start_year",
				"scraper.concurrency: concurrency must be positive",
				"scraper.collective_dir: collective_dir must differ from output_dir",
			},
		},
		{
			name: "negative delays",
			mutate: func(c *Config) {
				c.Scraper.Stagger = -time.Second
				c.Dataset.FileInterval = -time.Millisecond
			},
			errorMessages: []string{
				"scraper.stagger: must not be negative",
				"dataset.file_interval: must not be negative",
			},
		},
		{
			name: "invalid log and database",
			mutate: func(c *Config) {
				c.Database.VectorDim = -1
				c.Log.Level = "trace"
				c.Log.Format = "xml"
			},
			errorMessages: []string{
				"database.vector_dim: vector_dim must be positive",
				"log.level: unknown level",
				"log.format: unknown format",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := *valid
			tt.mutate(&config)

			errors := config.Validate()
			require.Len(t, errors, len(tt.errorMessages))
			for i, msg := range tt.errorMessages {
				assert.Contains(t, errors[i].Error(), msg)
			}
		})
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "secret")
	t.Setenv("OLLAMA_BASE_URL", "http://env-ollama:11434")
	t.Setenv("DATABASE_URL", "postgres://env-db:5432/test")
	t.Setenv("PRESSDATA_LOG_LEVEL", "warn")

	config := &Config{}
	applyDefaults(config)
	mergeWithEnv(config)

	assert.Equal(t, "secret", config.LLM.APIKey)
	assert.Equal(t, "http://env-ollama:11434", config.Embedder.BaseURL)
	assert.Equal(t, "postgres://env-db:5432/test", config.Database.URL)
	assert.Equal(t, "warn", config.Log.Level)
	assert.NoError(t, config.RequireAPIKey())
}

func TestRequireAPIKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")

	config := getDefaultConfig()
	err := config.RequireAPIKey()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingAPIKey))
	assert.Contains(t, err.Error(), "GEMINI_API_KEY")

	config.LLM.Provider = ProviderOllama
	assert.NoError(t, config.RequireAPIKey())
}
