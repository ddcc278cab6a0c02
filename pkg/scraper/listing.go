package scraper

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	ResultsSelector     = "#lreleaseID"
	releaseItemSelector = "li.rel-list[id]"
)

var noReleasesPattern = regexp.MustCompile(`(?i)no releases found|no record found`)

// Listing is what one date of the archive form lists.
type Listing struct {
	IDs []string
	// Empty is set when the archive explicitly reported no releases.
	Empty bool
	// Invalid counts release items whose id attribute is not numeric.
	Invalid int
}

// ParseListing reads the release ids out of the results area HTML.
func ParseListing(html string) (Listing, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return Listing{}, fmt.Errorf("failed to parse results area: %w", err)
	}

	var listing Listing
	if noReleasesPattern.MatchString(doc.Text()) {
		listing.Empty = true
		return listing, nil
	}

	doc.Find(releaseItemSelector).Each(func(_ int, item *goquery.Selection) {
		id, _ := item.Attr("id")
		id = strings.TrimSpace(id)
		if !isDigits(id) {
			listing.Invalid++
			return
		}
		listing.IDs = append(listing.IDs, id)
	})

	return listing, nil
}
