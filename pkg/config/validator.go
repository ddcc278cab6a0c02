package config

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"time"
)

// ErrMissingAPIKey is returned when the hosted provider is selected but no
// credential was found in the environment.
var ErrMissingAPIKey = errors.New("API key not set")

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	// Validate LLM config
	switch c.LLM.Provider {
	case ProviderGemini:
	case ProviderOllama:
		if c.LLM.BaseURL == "" {
			errors = append(errors, ValidationError{
				Field:   "llm.base_url",
				Message: "Ollama base URL is required",
			})
		} else if u, err := url.Parse(c.LLM.BaseURL); err != nil || u.Scheme == "" {
			errors = append(errors, ValidationError{
				Field:   "llm.base_url",
				Message: "invalid Ollama base URL",
			})
		}
	default:
		errors = append(errors, ValidationError{
			Field:   "llm.provider",
			Message: fmt.Sprintf("unknown provider %q (want gemini or ollama)", c.LLM.Provider),
		})
	}

	if c.LLM.MaxTokens < 1 || c.LLM.MaxTokens > 8192 {
		errors = append(errors, ValidationError{
			Field:   "llm.max_tokens",
			Message: "max_tokens must be between 1 and 8192",
		})
	}

	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		errors = append(errors, ValidationError{
			Field:   "llm.temperature",
			Message: "temperature must be between 0 and 2",
		})
	}

	if c.LLM.MaxPromptChars < 1 {
		errors = append(errors, ValidationError{
			Field:   "llm.max_prompt_chars",
			Message: "max_prompt_chars must be positive",
		})
	}

	// Validate Scraper config
	s := c.Scraper
	for _, f := range []struct{ field, raw string }{
		{"scraper.archive_url", s.ArchiveURL},
		{"scraper.print_url", s.PrintURL},
	} {
		if u, err := url.Parse(f.raw); err != nil || u.Scheme == "" || u.Host == "" {
			errors = append(errors, ValidationError{
				Field:   f.field,
				Message: fmt.Sprintf("invalid URL: %q", f.raw),
			})
		}
	}

	if s.StartYear < 1990 {
		errors = append(errors, ValidationError{
			Field:   "scraper.start_year",
			Message: "start_year must be 1990 or later",
		})
	}

	if s.EndYear < s.StartYear {
		errors = append(errors, ValidationError{
			Field:   "scraper.end_year",
			Message: "end_year must not be before start_year",
		})
	}

	if s.Concurrency < 1 {
		errors = append(errors, ValidationError{
			Field:   "scraper.concurrency",
			Message: "concurrency must be positive",
		})
	}

	if s.OutputDir == "" || s.CollectiveDir == "" {
		errors = append(errors, ValidationError{
			Field:   "scraper.output_dir",
			Message: "output_dir and collective_dir are required",
		})
	} else if filepath.Clean(s.OutputDir) == filepath.Clean(s.CollectiveDir) {
		errors = append(errors, ValidationError{
			Field:   "scraper.collective_dir",
			Message: "collective_dir must differ from output_dir",
		})
	}

	for _, d := range []struct {
		field string
		value time.Duration
	}{
		{"scraper.year_delay", s.YearDelay},
		{"scraper.stagger", s.Stagger},
		{"dataset.file_interval", c.Dataset.FileInterval},
	} {
		if d.value < 0 {
			errors = append(errors, ValidationError{
				Field:   d.field,
				Message: "must not be negative",
			})
		}
	}

	// Validate Dataset config
	if c.Dataset.LanguageSample < c.Dataset.MinLanguageSample {
		errors = append(errors, ValidationError{
			Field:   "dataset.language_sample",
			Message: "language_sample must not be smaller than min_language_sample",
		})
	}

	// Validate Database config
	if c.Database.URL != "" {
		if _, err := url.Parse(c.Database.URL); err != nil {
			errors = append(errors, ValidationError{
				Field:   "database.url",
				Message: "invalid database URL",
			})
		}
	}

	if c.Database.VectorDim < 1 {
		errors = append(errors, ValidationError{
			Field:   "database.vector_dim",
			Message: "vector_dim must be positive",
		})
	}

	// Validate Log config
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errors = append(errors, ValidationError{
			Field:   "log.level",
			Message: fmt.Sprintf("unknown level %q", c.Log.Level),
		})
	}

	switch c.Log.Format {
	case "console", "json":
	default:
		errors = append(errors, ValidationError{
			Field:   "log.format",
			Message: fmt.Sprintf("unknown format %q", c.Log.Format),
		})
	}

	return errors
}

// RequireAPIKey fails when the configured provider needs a credential that
// is missing.
func (c *Config) RequireAPIKey() error {
	if c.LLM.Provider == ProviderGemini && c.LLM.APIKey == "" {
		return fmt.Errorf("%w: set %s", ErrMissingAPIKey, c.LLM.APIKeyEnv)
	}
	return nil
}
