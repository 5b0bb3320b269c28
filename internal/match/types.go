// Package match defines the track records compared across catalogs and the
// weighted scorers that rate how likely two records describe the same song.
package match

import (
	"encoding/json"
	"strconv"
)

// SeedTrack is a track known to the recommender catalog: either the user's
// seed or one of the recommended tracks that must be found in the target
// catalog.
type SeedTrack struct {
	ExternalID      string
	Name            string
	Artists         []string // primary artist first
	ArtistIDs       []string
	Album           string
	DurationSeconds int
	ReleaseYear     int
}

// PrimaryArtist returns the first artist name, or "".
func (s SeedTrack) PrimaryArtist() string {
	if len(s.Artists) == 0 {
		return ""
	}
	return s.Artists[0]
}

// PrimaryArtistID returns the first artist ID, or "".
func (s SeedTrack) PrimaryArtistID() string {
	if len(s.ArtistIDs) == 0 {
		return ""
	}
	return s.ArtistIDs[0]
}

// Image is a size-tagged artwork URL.
type Image struct {
	Quality string `json:"quality"`
	URL     string `json:"url"`
}

// CandidateTrack is one target-catalog search result. Raw holds the record
// exactly as the catalog returned it and is what callers receive.
type CandidateTrack struct {
	ID              string
	Name            string
	Artists         []string // primary, then featured, then others
	PrimaryArtistID string
	Album           string
	DurationSeconds int
	Year            string
	Images          []Image
	Raw             json.RawMessage
}

// PrimaryArtist returns the first artist name, or "".
func (c CandidateTrack) PrimaryArtist() string {
	if len(c.Artists) == 0 {
		return ""
	}
	return c.Artists[0]
}

// ReleaseYear extracts a year from the loosely formatted Year field.
func (c CandidateTrack) ReleaseYear() int {
	return ParseYear(c.Year)
}

// ParseYear returns the first plausible four-digit year in s
// ("2013", "2013-04-26", "26 Apr 2013"), or 0.
func ParseYear(s string) int {
	start := -1
	for i, r := range s + " " {
		if r >= '0' && r <= '9' {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 && i-start == 4 {
			if y, err := strconv.Atoi(s[start:i]); err == nil && y >= 1000 && y <= 2999 {
				return y
			}
		}
		start = -1
	}
	return 0
}

// Scored pairs a candidate with its confidence.
type Scored[T any] struct {
	Item  T
	Score float64
}

// ImageURL returns the preferred artwork: the third size, else the second,
// else the first.
func (c CandidateTrack) ImageURL() string {
	for _, i := range []int{2, 1, 0} {
		if i < len(c.Images) && c.Images[i].URL != "" {
			return c.Images[i].URL
		}
	}
	return ""
}
