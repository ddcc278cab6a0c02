package scraper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseListing(t *testing.T) {
	tests := []struct {
		name    string
		html    string
		ids     []string
		empty   bool
		invalid int
	}{
		{
			name: "release items",
			html: `<div id="lreleaseID"><ul>
				<li class="rel-list" id="101">Cabinet approves</li>
				<li class="rel-list" id=" 102 ">Minister inaugurates</li>
				<li class="other" id="103">not a release</li>
			</ul></div>`,
			ids: []string{"101", "102"},
		},
		{
			name:  "no releases notice",
			html:  `<div id="lreleaseID"><p>No Releases Found</p></div>`,
			empty: true,
		},
		{
			name:  "no record notice",
			html:  `<div id="lreleaseID"><span>no record found for this date</span></div>`,
			empty: true,
		},
		{
			name: "invalid ids",
			html: `<div id="lreleaseID"><ul>
				<li class="rel-list" id="abc">bad</li>
				<li class="rel-list" id="">empty</li>
				<li class="rel-list" id="7">good</li>
			</ul></div>`,
			ids:     []string{"7"},
			invalid: 2,
		},
		{
			name: "results area without items",
			html: `<div id="lreleaseID"></div>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			listing, err := ParseListing(tt.html)
			require.NoError(t, err)
			assert.Equal(t, tt.ids, listing.IDs)
			assert.Equal(t, tt.empty, listing.Empty)
			assert.Equal(t, tt.invalid, listing.Invalid)
		})
	}
}
