package processor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClean(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "header, blank lines, reference and url",
			in:   "Press Information Bureau\n\n\n\nHello   world [1] http://x.com",
			want: "Hello world",
		},
		{
			name: "footer and timestamp lines",
			in:   "Government of India\nCabinet approves scheme\n12-March-2015 18:30 IST\n****",
			want: "Cabinet approves scheme",
		},
		{
			name: "www links and tabs",
			in:   "Visit\twww.pib.gov.in  for details",
			want: "Visit for details",
		},
		{
			name: "nested reference markers",
			in:   "Total [[1]2] outlay",
			want: "Total outlay",
		},
		{
			name: "crlf line endings",
			in:   "First line\r\n\r\nSecond line\r\n",
			want: "First line\nSecond line",
		},
		{
			name: "header text inside a line is kept",
			in:   "Press Information Bureau released the note",
			want: "Press Information Bureau released the note",
		},
		{
			name: "only boilerplate",
			in:   "Press Information Bureau\n****\n   \n",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Clean(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, Clean(got), "cleaning must be idempotent")
		})
	}
}

func TestCleanIdempotent(t *testing.T) {
	inputs := []string{
		"",
		"[1]",
		"a [1][2] b",
		"http://a.com/[1]x www.b.org",
		"[[[1]]]",
		"line other third",
		"  \t padded \t ",
		"Government of India \n 1-Jan-2020 10:00 IST",
		"ht[1]tp://evil.com visible",
		"\n\n\n\n\nx\n\n\n\ny",
	}

	for _, in := range inputs {
		once := Clean(in)
		assert.Equal(t, once, Clean(once), "input %q", in)
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "hel", Truncate("hello", 3))
	assert.Equal(t, "hello", Truncate("hello", 10))
	assert.Equal(t, "", Truncate("hello", 0))
	assert.Equal(t, "नम", Truncate("नमस्ते", 2))
}

func TestSplitIntoSentences(t *testing.T) {
	got := splitIntoSentences("Hello world. Is it? Yes! Growth of 3.5 percent\nend")
	assert.Equal(t, []string{"Hello world.", "Is it?", "Yes!", "Growth of 3.5 percent\nend"}, got)
}
