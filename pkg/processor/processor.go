package processor

import (
	"strings"
	"unicode/utf8"

	"github.com/xhad/pressdata/internal/models"
)

// ProcessorConfig controls how dataset records are split for the index.
// Sizes are in characters.
type ProcessorConfig struct {
	ChunkSize      int
	ChunkOverlap   int
	MinChunkLength int
}

type Processor struct {
	config ProcessorConfig
}

func NewWithConfig(config ProcessorConfig) Processor {
	if config.ChunkSize == 0 {
		config.ChunkSize = 1000
	}
	if config.ChunkOverlap == 0 {
		config.ChunkOverlap = 200
	}
	if config.MinChunkLength == 0 {
		config.MinChunkLength = 100
	}

	return Processor{
		config: config,
	}
}

// Process splits every record's text into overlapping chunks. Records
// without text are passed through with no chunks.
func (p *Processor) Process(records []models.Record) []models.ProcessedRecord {
	processed := make([]models.ProcessedRecord, 0, len(records))

	for _, rec := range records {
		processed = append(processed, models.ProcessedRecord{
			Record: rec,
			Chunks: p.splitIntoChunks(rec.ExtractedText),
		})
	}

	return processed
}

func (p *Processor) splitIntoChunks(text string) []string {
	var chunks []string

	sentences := splitIntoSentences(text)

	var current strings.Builder
	currentLen := 0

	for _, sentence := range sentences {
		sentenceLen := utf8.RuneCountInString(sentence)

		if currentLen > 0 && currentLen+sentenceLen > p.config.ChunkSize {
			chunk := strings.TrimSpace(current.String())
			if utf8.RuneCountInString(chunk) >= p.config.MinChunkLength {
				chunks = append(chunks, chunk)
			}

			// Carry the tail of the previous chunk into the next one.
			current.Reset()
			currentLen = 0
			if p.config.ChunkOverlap > 0 && utf8.RuneCountInString(chunk) > p.config.ChunkOverlap {
				tail := lastRunes(chunk, p.config.ChunkOverlap)
				current.WriteString(tail)
				current.WriteString(" ")
				currentLen = utf8.RuneCountInString(tail) + 1
			}
		}

		current.WriteString(sentence)
		current.WriteString(" ")
		currentLen += sentenceLen + 1
	}

	if chunk := strings.TrimSpace(current.String()); utf8.RuneCountInString(chunk) >= p.config.MinChunkLength {
		chunks = append(chunks, chunk)
	}

	return chunks
}

// splitIntoSentences breaks text after '.', '!' or '?' followed by
// whitespace.
func splitIntoSentences(text string) []string {
	var sentences []string

	start := 0
	prevEnder := false
	for i, r := range text {
		if prevEnder && (r == ' ' || r == '\n') {
			if s := strings.TrimSpace(text[start:i]); s != "" {
				sentences = append(sentences, s)
			}
			start = i + 1
		}
		prevEnder = r == '.' || r == '!' || r == '?'
	}

	if s := strings.TrimSpace(text[start:]); s != "" {
		sentences = append(sentences, s)
	}

	return sentences
}

func lastRunes(s string, n int) string {
	count := utf8.RuneCountInString(s)
	if count <= n {
		return s
	}
	skip := count - n
	for i := range s {
		if skip == 0 {
			return s[i:]
		}
		skip--
	}
	return ""
}
