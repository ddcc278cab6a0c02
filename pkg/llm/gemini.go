package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

var (
	ErrMissingAPIKey = errors.New("gemini api key is required")
	ErrBlocked       = errors.New("response blocked")
	ErrEmptyResponse = errors.New("empty response")
)

type GeminiConfig struct {
	Model       string
	APIKey      string
	BaseURL     string // overrides the API endpoint, used by tests
	Temperature float64
	MaxTokens   int
}

// GeminiGenerator calls the hosted Gemini API.
type GeminiGenerator struct {
	config GeminiConfig
	client *genai.Client
	gen    *genai.GenerateContentConfig
}

func NewGeminiGenerator(ctx context.Context, config GeminiConfig) (*GeminiGenerator, error) {
	if config.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if config.Model == "" {
		config.Model = "gemini-2.0-flash"
	}
	if config.Temperature < 0 || config.Temperature > 2 {
		return nil, fmt.Errorf("temperature must be between 0 and 2")
	}
	if config.MaxTokens < 0 {
		return nil, fmt.Errorf("max tokens cannot be negative")
	} else if config.MaxTokens == 0 {
		config.MaxTokens = 2048
	}

	clientConfig := &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if config.BaseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: config.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize gemini client: %w", err)
	}

	return &GeminiGenerator{
		config: config,
		client: client,
		gen: &genai.GenerateContentConfig{
			Temperature:     genai.Ptr(float32(config.Temperature)),
			MaxOutputTokens: int32(config.MaxTokens),
			SafetySettings:  safetySettings(),
		},
	}, nil
}

func safetySettings() []*genai.SafetySetting {
	categories := []genai.HarmCategory{
		genai.HarmCategoryHarassment,
		genai.HarmCategoryHateSpeech,
		genai.HarmCategorySexuallyExplicit,
		genai.HarmCategoryDangerousContent,
	}

	settings := make([]*genai.SafetySetting, 0, len(categories))
	for _, c := range categories {
		settings = append(settings, &genai.SafetySetting{
			Category:  c,
			Threshold: genai.HarmBlockThresholdBlockMediumAndAbove,
		})
	}
	return settings
}

func (g *GeminiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.config.Model, genai.Text(prompt), g.gen)
	if err != nil {
		return "", fmt.Errorf("gemini request failed: %w", err)
	}

	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("%w: %s", ErrBlocked, resp.PromptFeedback.BlockReason)
	}
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("%w: no candidates", ErrEmptyResponse)
	}

	cand := resp.Candidates[0]
	if cand.Content == nil || len(cand.Content.Parts) == 0 {
		return "", fmt.Errorf("%w: finish reason %s", ErrEmptyResponse, cand.FinishReason)
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: finish reason %s", ErrEmptyResponse, cand.FinishReason)
	}
	return text, nil
}
