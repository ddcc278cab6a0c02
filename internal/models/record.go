package models

// Topic is one entry of the topics array returned by the model, usually
// {"main_topic": "..."}.
type Topic map[string]any

// Name returns the main_topic value when present.
func (t Topic) Name() string {
	if name, ok := t["main_topic"].(string); ok {
		return name
	}
	return ""
}

// Record is one line of the JSON-Lines dataset.
type Record struct {
	Filename      string  `json:"filename"`
	ExtractedText string  `json:"extracted_text"`
	Summary       *string `json:"summary"`
	Topics        []Topic `json:"topics"`
}

type ProcessedRecord struct {
	Record
	Chunks []string
}

// SearchResult is one chunk returned from the vector index.
type SearchResult struct {
	ID         string
	Filename   string
	ChunkIndex int
	Content    string
	Summary    string
	Topics     []Topic
}
