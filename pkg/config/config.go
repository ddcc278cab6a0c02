package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	ProviderGemini = "gemini"
	ProviderOllama = "ollama"

	DefaultAPIKeyEnv = "GEMINI_API_KEY"
)

type Config struct {
	LLM struct {
		Provider       string  `yaml:"provider"`
		Model          string  `yaml:"model"`
		BaseURL        string  `yaml:"base_url"`
		APIKeyEnv      string  `yaml:"api_key_env"`
		APIKey         string  `yaml:"-"`
		MaxTokens      int     `yaml:"max_tokens"`
		Temperature    float64 `yaml:"temperature"`
		MaxPromptChars int     `yaml:"max_prompt_chars"`
	} `yaml:"llm"`

	Embedder struct {
		Model   string `yaml:"model"`
		BaseURL string `yaml:"base_url"`
	} `yaml:"embedder"`

	Scraper struct {
		ArchiveURL        string        `yaml:"archive_url"`
		PrintURL          string        `yaml:"print_url"`
		OutputDir         string        `yaml:"output_dir"`
		CollectiveDir     string        `yaml:"collective_dir"`
		StartYear         int           `yaml:"start_year"`
		EndYear           int           `yaml:"end_year"`
		Concurrency       int           `yaml:"concurrency"`
		YearDelay         time.Duration `yaml:"year_delay"`
		Stagger           time.Duration `yaml:"stagger"`
		NavigationTimeout time.Duration `yaml:"navigation_timeout"`
		RenderTimeout     time.Duration `yaml:"render_timeout"`
		ActionTimeout     time.Duration `yaml:"action_timeout"`
		SettleDelay       time.Duration `yaml:"settle_delay"`
		Headless          *bool         `yaml:"headless"`
		BrowserBin        string        `yaml:"browser_bin"`
	} `yaml:"scraper"`

	Dataset struct {
		MinTextLength     int           `yaml:"min_text_length"`
		LanguageSample    int           `yaml:"language_sample"`
		MinLanguageSample int           `yaml:"min_language_sample"`
		Language          string        `yaml:"language"`
		FileInterval      time.Duration `yaml:"file_interval"`
	} `yaml:"dataset"`

	Database struct {
		URL       string `yaml:"url"`
		TableName string `yaml:"table_name"`
		VectorDim int    `yaml:"vector_dim"`
	} `yaml:"database"`

	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`

	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

// IsHeadless reports whether the scraper browser runs without a window.
func (c *Config) IsHeadless() bool {
	return c.Scraper.Headless == nil || *c.Scraper.Headless
}

func LoadConfig(path string) (*Config, error) {
	// If no path provided, try default locations
	if path == "" {
		locations := []string{
			"config.yaml",
			"config.yml",
			filepath.Join(os.Getenv("HOME"), ".config/pressdata/config.yaml"),
			"/etc/pressdata/config.yaml",
		}

		for _, loc := range locations {
			if _, err := os.Stat(loc); err == nil {
				path = loc
				break
			}
		}
	}

	if path == "" {
		return getDefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config Config
	presetDefaults(&config)
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	applyDefaults(&config)
	mergeWithEnv(&config)

	return &config, nil
}

func getDefaultConfig() *Config {
	config := &Config{}
	presetDefaults(config)
	applyDefaults(config)
	mergeWithEnv(config)
	return config
}

// presetDefaults fills the settings for which zero is meaningful (no delay,
// greedy sampling). It runs before decoding so an explicit 0 in the file
// survives.
func presetDefaults(config *Config) {
	config.LLM.Temperature = 0.6
	config.Scraper.YearDelay = 5 * time.Second
	config.Scraper.Stagger = 100 * time.Millisecond
	config.Dataset.FileInterval = 50 * time.Millisecond
}

func applyDefaults(config *Config) {
	if config.LLM.Provider == "" {
		config.LLM.Provider = ProviderGemini
	}
	if config.LLM.Model == "" {
		if config.LLM.Provider == ProviderOllama {
			config.LLM.Model = "mistral"
		} else {
			config.LLM.Model = "gemini-2.0-flash"
		}
	}
	if config.LLM.BaseURL == "" && config.LLM.Provider == ProviderOllama {
		config.LLM.BaseURL = "http://localhost:11434"
	}
	if config.LLM.APIKeyEnv == "" {
		config.LLM.APIKeyEnv = DefaultAPIKeyEnv
	}
	if config.LLM.MaxTokens == 0 {
		config.LLM.MaxTokens = 2048
	}
	if config.LLM.MaxPromptChars == 0 {
		config.LLM.MaxPromptChars = 40000
	}

	if config.Embedder.Model == "" {
		config.Embedder.Model = "nomic-embed-text:latest"
	}
	if config.Embedder.BaseURL == "" {
		config.Embedder.BaseURL = "http://localhost:11434"
	}

	s := &config.Scraper
	if s.ArchiveURL == "" {
		s.ArchiveURL = "https://archive.pib.gov.in/"
	}
	if s.PrintURL == "" {
		s.PrintURL = "https://archive.pib.gov.in/newsite/PrintRelease.aspx?relid="
	}
	if s.OutputDir == "" {
		s.OutputDir = "pib_archive_pdfs"
	}
	if s.CollectiveDir == "" {
		s.CollectiveDir = "pib_archive_pdfs_collective"
	}
	if s.StartYear == 0 {
		s.StartYear = 2004
	}
	if s.EndYear == 0 {
		s.EndYear = time.Now().Year()
	}
	if s.Concurrency == 0 {
		s.Concurrency = 1000
	}
	if s.NavigationTimeout == 0 {
		s.NavigationTimeout = 120 * time.Second
	}
	if s.RenderTimeout == 0 {
		s.RenderTimeout = 90 * time.Second
	}
	if s.ActionTimeout == 0 {
		s.ActionTimeout = 45 * time.Second
	}
	if s.SettleDelay == 0 {
		s.SettleDelay = 500 * time.Millisecond
	}

	d := &config.Dataset
	if d.MinTextLength == 0 {
		d.MinTextLength = 50
	}
	if d.LanguageSample == 0 {
		d.LanguageSample = 1500
	}
	if d.MinLanguageSample == 0 {
		d.MinLanguageSample = 20
	}
	if d.Language == "" {
		d.Language = "en"
	}

	if config.Database.TableName == "" {
		config.Database.TableName = "press_releases"
	}
	if config.Database.VectorDim == 0 {
		config.Database.VectorDim = 768
	}

	if config.Server.Addr == "" {
		config.Server.Addr = "127.0.0.1:8765"
	}

	if config.Log.Level == "" {
		config.Log.Level = "info"
	}
	if config.Log.Format == "" {
		config.Log.Format = "console"
	}
}

func mergeWithEnv(config *Config) {
	if key := os.Getenv(config.LLM.APIKeyEnv); key != "" {
		config.LLM.APIKey = key
	}
	if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" {
		config.Embedder.BaseURL = baseURL
		if config.LLM.Provider == ProviderOllama {
			config.LLM.BaseURL = baseURL
		}
	}
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		config.Database.URL = dbURL
	}
	if level := os.Getenv("PRESSDATA_LOG_LEVEL"); level != "" {
		config.Log.Level = level
	}
}
