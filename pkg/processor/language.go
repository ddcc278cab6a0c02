package processor

import (
	"strings"
	"unicode/utf8"

	"github.com/abadojack/whatlanggo"
)

// LanguageUnknown is reported when the sample is too short or the detector is
// not confident.
const LanguageUnknown = "unknown"

type LanguageDetector struct {
	SampleSize    int     // characters looked at
	MinSample     int     // below this the result is unknown
	MinConfidence float64 // below this the result is unknown
}

func NewLanguageDetector(sampleSize, minSample int) LanguageDetector {
	if sampleSize <= 0 {
		sampleSize = 1500
	}
	if minSample <= 0 {
		minSample = 20
	}
	return LanguageDetector{
		SampleSize:    sampleSize,
		MinSample:     minSample,
		MinConfidence: 0.5,
	}
}

// Detect returns the ISO 639-1 code of the text's language or
// LanguageUnknown.
func (d LanguageDetector) Detect(text string) string {
	sample := strings.TrimSpace(Truncate(text, d.SampleSize))
	if utf8.RuneCountInString(sample) < d.MinSample {
		return LanguageUnknown
	}

	info := whatlanggo.Detect(sample)
	code := info.Lang.Iso6391()
	if code == "" || info.Confidence < d.MinConfidence {
		return LanguageUnknown
	}
	return code
}
