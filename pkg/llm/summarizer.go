package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/xhad/pressdata/internal/models"
	"github.com/xhad/pressdata/pkg/processor"
)

const (
	SummaryStart = "--- SUMMARY START ---"
	SummaryEnd   = "--- SUMMARY END ---"
	TopicsStart  = "--- TOPICS JSON START ---"
	TopicsEnd    = "--- TOPICS JSON END ---"
)

var (
	ErrMarkerNotFound   = errors.New("response markers not found")
	ErrTopicsNotArray   = errors.New("topics JSON is not an array")
	ErrInsufficientText = errors.New("insufficient text")
)

const promptTemplate = `Analyze the following text extracted from a government PDF document ('%s').
Write a concise, factual summary of the press release in one or two paragraphs.
Then list its main topics as a JSON array of objects, each with a "main_topic" key.
Answer using exactly this layout and nothing else:
` + SummaryStart + `
[Your generated summary here...]
` + SummaryEnd + `
` + TopicsStart + `
[ {"main_topic": "Topic 1"}, {"main_topic": "Topic 2"} ]
` + TopicsEnd + `
--- BEGIN PDF TEXT ---
%s
--- END PDF TEXT ---
`

// BuildPrompt embeds at most limit characters of text in the instruction.
func BuildPrompt(filename, text string, limit int) string {
	return fmt.Sprintf(promptTemplate, filename, processor.Truncate(text, limit))
}

// ExtractBetween returns the trimmed text between the first start marker and
// the first end marker after it.
func ExtractBetween(text, start, end string) (string, bool) {
	i := strings.Index(text, start)
	if i < 0 {
		return "", false
	}
	i += len(start)

	j := strings.Index(text[i:], end)
	if j < 0 {
		return "", false
	}
	return strings.TrimSpace(text[i : i+j]), true
}

// ParseTopics decodes the topics block. Lines starting with // are dropped
// first; anything but a JSON array of objects is rejected.
func ParseTopics(raw string) ([]models.Topic, error) {
	var kept []string
	for _, line := range strings.Split(raw, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "//") {
			continue
		}
		kept = append(kept, line)
	}
	cleaned := bytes.TrimSpace([]byte(strings.Join(kept, "\n")))

	var value json.RawMessage
	if err := json.Unmarshal(cleaned, &value); err != nil {
		return nil, fmt.Errorf("invalid topics JSON: %w", err)
	}
	if len(value) == 0 || value[0] != '[' {
		return nil, ErrTopicsNotArray
	}

	topics := []models.Topic{}
	if err := json.Unmarshal(value, &topics); err != nil {
		return nil, fmt.Errorf("invalid topics JSON: %w", err)
	}
	return topics, nil
}

type SummarizerConfig struct {
	MaxPromptChars int
	MinTextLength  int
	Logger         *zap.Logger
}

// Result of one summarization. Summary is nil when generation failed;
// Topics is nil when the topics block could not be parsed (see TopicsErr).
type Result struct {
	Summary   *string
	Topics    []models.Topic
	TopicsErr error
	Duration  time.Duration
}

type Summarizer struct {
	gen    Generator
	config SummarizerConfig
	logger *zap.Logger
}

func NewSummarizer(gen Generator, config SummarizerConfig) *Summarizer {
	if config.MaxPromptChars == 0 {
		config.MaxPromptChars = 40000
	}
	if config.MinTextLength == 0 {
		config.MinTextLength = 50
	}
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Summarizer{
		gen:    gen,
		config: config,
		logger: logger,
	}
}

// Summarize asks the model for a summary and topic list of one document.
func (s *Summarizer) Summarize(ctx context.Context, filename, text string) (Result, error) {
	if utf8.RuneCountInString(text) < s.config.MinTextLength {
		s.logger.Warn("skipping generation, insufficient text", zap.String("file", filename))
		return Result{}, ErrInsufficientText
	}

	start := time.Now()
	s.logger.Debug("sending text to model", zap.String("file", filename))

	response, err := s.gen.Generate(ctx, BuildPrompt(filename, text, s.config.MaxPromptChars))
	result := Result{Duration: time.Since(start)}
	if err != nil {
		return result, err
	}

	summary, ok := ExtractBetween(response, SummaryStart, SummaryEnd)
	if !ok {
		return result, fmt.Errorf("%w: summary", ErrMarkerNotFound)
	}
	rawTopics, ok := ExtractBetween(response, TopicsStart, TopicsEnd)
	if !ok {
		return result, fmt.Errorf("%w: topics", ErrMarkerNotFound)
	}

	result.Summary = &summary
	topics, err := ParseTopics(rawTopics)
	if err != nil {
		s.logger.Warn("invalid topics JSON format", zap.String("file", filename), zap.Error(err))
		s.logger.Debug("raw topics block", zap.String("file", filename), zap.String("raw", rawTopics))
		result.TopicsErr = err
		return result, nil
	}
	result.Topics = topics

	s.logger.Debug("generation finished", zap.String("file", filename), zap.Duration("took", result.Duration))
	return result, nil
}
