package processor

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	urlPattern          = regexp.MustCompile(`https?://\S+|www\.\S+`)
	refPattern          = regexp.MustCompile(`\[\d+\]`)
	blankRunPattern     = regexp.MustCompile(`[ \t]+`)
	multiNewlinePattern = regexp.MustCompile(`\n{3,}`)
	datetimePattern     = regexp.MustCompile(`^\d{1,2}-[A-Za-z]+-\d{4}\s+\d{1,2}:\d{1,2}\s+[A-Z]+$`)
)

// Lines that are dropped when they make up a whole line.
var headersFooters = map[string]bool{
	"Press Information Bureau": true,
	"Government of India":      true,
	"****":                     true,
}

// Clean strips the boilerplate of extracted press-release text: header and
// footer lines, timestamp lines, URLs, [n] reference markers, runs of blanks
// and empty lines. Clean(Clean(s)) == Clean(s).
func Clean(text string) string {
	var lines []string
	for _, line := range splitLines(text) {
		line = cleanLine(line)
		if line == "" || headersFooters[line] || datetimePattern.MatchString(line) {
			continue
		}
		lines = append(lines, line)
	}

	cleaned := strings.Join(lines, "\n")
	cleaned = multiNewlinePattern.ReplaceAllString(cleaned, "\n\n")
	return strings.TrimSpace(cleaned)
}

func cleanLine(line string) string {
	line = strings.TrimSpace(line)
	// Removing a marker can expose another one ("[[1]2]", "http[1]://"),
	// so repeat until nothing matches.
	for {
		next := refPattern.ReplaceAllString(urlPattern.ReplaceAllString(line, ""), "")
		if next == line {
			break
		}
		line = next
	}
	return strings.TrimSpace(blankRunPattern.ReplaceAllString(line, " "))
}

func splitLines(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		switch r {
		case '\n', '\r', '\v', '\f', '\u0085', '\u2028', '\u2029':
			return true
		}
		return false
	})
}

// Truncate returns at most n characters of text.
func Truncate(text string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(text) <= n {
		return text
	}
	i := 0
	for pos := range text {
		if i == n {
			return text[:pos]
		}
		i++
	}
	return text
}
