package scraper

import (
	"context"
	"io"
)

// Browser is the automation backend. All tabs share one browser context.
type Browser interface {
	// OpenArchive loads the archive search form ready for date selection.
	OpenArchive(ctx context.Context) (Archive, error)
	NewTab(ctx context.Context) (Tab, error)
	Close() error
}

// Archive is the date-picker form of the release archive.
type Archive interface {
	// Listing selects the date and returns the HTML of the results area.
	Listing(ctx context.Context, year, month, day int) (string, error)
}

// Tab is a single browser tab used to render one print view.
type Tab interface {
	Navigate(ctx context.Context, url string) error
	AddStyle(ctx context.Context, css string) error
	PrintPDF(ctx context.Context, w io.Writer) error
	Close() error
}

// hideControlsCSS hides the print and close buttons of the print view.
const hideControlsCSS = `div[onclick="rprint()"], div[onclick="wclose()"] {
	display: none !important; visibility: hidden !important;
}`
