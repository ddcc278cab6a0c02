package processor

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"
)

// ReadPDF returns the raw text of every page, one text row per line.
func ReadPDF(path string) (text string, err error) {
	name := filepath.Base(path)
	// The parser panics on some malformed files.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("failed to parse PDF %s: %v", name, r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("could not read PDF %s: %w", name, err)
	}
	defer f.Close()

	var sb strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}

		rows, err := page.GetTextByRow()
		if err != nil {
			plain, perr := page.GetPlainText(nil)
			if perr != nil {
				return "", fmt.Errorf("page %d of %s: %w", i, name, perr)
			}
			sb.WriteString(plain)
			sb.WriteString("\n")
			continue
		}

		for _, row := range rows {
			for _, word := range row.Content {
				sb.WriteString(word.S)
			}
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	return sb.String(), nil
}

// ExtractText reads and cleans the text of a PDF and reports how long it
// took.
func ExtractText(path string) (string, time.Duration, error) {
	start := time.Now()
	raw, err := ReadPDF(path)
	if err != nil {
		return "", time.Since(start), err
	}
	return Clean(raw), time.Since(start), nil
}

// PDFExtractor adapts ExtractText to the dataset runner.
type PDFExtractor struct{}

func (PDFExtractor) Extract(path string) (string, time.Duration, error) {
	return ExtractText(path)
}
