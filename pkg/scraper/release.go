package scraper

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

var ErrInvalidRelease = errors.New("invalid release")

// Release identifies one press release on the archive and the date it was
// listed under.
type Release struct {
	RelID string
	Year  int
	Month int
	Day   int
}

func (r Release) String() string {
	return fmt.Sprintf("%s (%04d-%02d-%02d)", r.RelID, r.Year, r.Month, r.Day)
}

func (r Release) validate() error {
	if !isDigits(r.RelID) {
		return fmt.Errorf("%w: relid %q is not numeric", ErrInvalidRelease, r.RelID)
	}
	if r.Year < 1000 || r.Year > 9999 {
		return fmt.Errorf("%w: year %d", ErrInvalidRelease, r.Year)
	}
	if r.Month < 1 || r.Month > 12 {
		return fmt.Errorf("%w: month %d", ErrInvalidRelease, r.Month)
	}
	if r.Day < 1 || r.Day > 31 {
		return fmt.Errorf("%w: day %d", ErrInvalidRelease, r.Day)
	}
	return nil
}

// FileName returns PIB_<relid><YYYY><MM>_<DD>.pdf. The year, month and day
// are fixed width, so distinct releases never share a name.
func FileName(r Release) (string, error) {
	if err := r.validate(); err != nil {
		return "", err
	}
	return fmt.Sprintf("PIB_%s%04d%02d_%02d.pdf", r.RelID, r.Year, r.Month, r.Day), nil
}

// Paths returns the date-wise and collective locations of a release PDF.
func Paths(outputDir, collectiveDir string, r Release) (dated, collective string, err error) {
	name, err := FileName(r)
	if err != nil {
		return "", "", err
	}
	dated = filepath.Join(outputDir, fmt.Sprintf("%04d", r.Year), fmt.Sprintf("%02d", r.Month), name)
	collective = filepath.Join(collectiveDir, name)
	return dated, collective, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	return strings.IndexFunc(s, func(r rune) bool { return r < '0' || r > '9' }) == -1
}
