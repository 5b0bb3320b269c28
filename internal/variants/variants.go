// Package variants derives ordered search queries from track metadata and
// from free-text user input.
package variants

import (
	"regexp"
	"strings"

	"github.com/justestif/go-musichub/internal/match"
	"github.com/justestif/go-musichub/internal/textnorm"
)

// MaxQueryVariants caps the queries built for one track.
const MaxQueryVariants = 5

var (
	bracketed = regexp.MustCompile(`\s*[\(\[\{][^\)\]\}]*[\)\]\}]`)

	// " - From "Movie"", " | Official Video", ": Lyrics" and similar tails
	separatorSuffix = regexp.MustCompile(`(?i)\s+[-–—|:]\s*(from|movie|official|lyrics?|lyrical|video|audio)\b.*$`)

	// tails without a separator
	bareSuffix = regexp.MustCompile(`(?i)\s+(from\s+["“'].*|official\s+(music\s+)?(video|audio)|lyric(al)?\s+video|full\s+(video|song)|video\s+song|lyrics|audio)\s*$`)

	strayQuotes = regexp.MustCompile(`["“”]`)
)

// CleanTitle strips bracketed annotations and promotional suffixes:
// `Kesariya (From "Brahmastra")` becomes "Kesariya". When nothing would
// remain, the whitespace-collapsed original is returned.
func CleanTitle(title string) string {
	s := bracketed.ReplaceAllString(title, " ")
	s = separatorSuffix.ReplaceAllString(s, "")
	s = bareSuffix.ReplaceAllString(s, "")
	s = strayQuotes.ReplaceAllString(s, "")
	s = strings.Trim(textnorm.CollapseSpace(s), " -–—|:")
	if s == "" {
		return textnorm.CollapseSpace(title)
	}
	return s
}

// ForTrack builds at most MaxQueryVariants distinct queries for a track, in
// the order they should be tried:
//
//  1. cleaned title + first artist
//  2. original title + first artist
//  3. cleaned title + album
//  4. cleaned title
//  5. first artist + cleaned title
func ForTrack(track match.SeedTrack) []string {
	clean := CleanTitle(track.Name)
	raw := textnorm.CollapseSpace(track.Name)
	artist := textnorm.CollapseSpace(track.PrimaryArtist())
	album := textnorm.CollapseSpace(track.Album)

	b := newBuilder(MaxQueryVariants)
	b.add(clean, artist)
	b.add(raw, artist)
	if album != "" {
		b.add(clean, album)
	}
	b.add(clean)
	b.add(artist, clean)
	return b.list
}

// ForSeed returns the track variants followed by the bare title, the query
// set used to locate a seed in the recommender catalog.
func ForSeed(seed match.SeedTrack) []string {
	b := newBuilder(MaxQueryVariants + 1)
	for _, q := range ForTrack(seed) {
		b.add(q)
	}
	b.add(seed.Name)
	return b.list
}

// ForSearch widens a raw free-text query for catalogs with inconsistent
// conjunction and spacing conventions. It returns the trimmed input, the
// normalized form, an "&"→"and" form, a form with "and" dropped, and a
// form without spaces.
func ForSearch(query string) []string {
	trimmed := textnorm.CollapseSpace(query)
	normalized := textnorm.Normalize(query)

	b := newBuilder(0)
	b.add(trimmed)
	b.add(normalized)
	if strings.Contains(trimmed, "&") {
		b.add(strings.ReplaceAll(strings.ToLower(trimmed), "&", " and "))
	}
	if strings.Contains(" "+normalized+" ", " and ") {
		b.add(strings.ReplaceAll(" "+normalized+" ", " and ", " "))
	}
	if strings.Contains(normalized, " ") {
		b.add(strings.ReplaceAll(normalized, " ", ""))
	}
	return b.list
}

type builder struct {
	limit int
	seen  map[string]struct{}
	list  []string
}

func newBuilder(limit int) *builder {
	return &builder{limit: limit, seen: make(map[string]struct{})}
}

// add joins parts into one query and keeps it if it is new.
func (b *builder) add(parts ...string) {
	if b.limit > 0 && len(b.list) >= b.limit {
		return
	}
	for _, p := range parts {
		if strings.TrimSpace(p) == "" {
			return
		}
	}
	q := textnorm.CollapseSpace(strings.Join(parts, " "))
	key := strings.ToLower(q)
	if _, dup := b.seen[key]; dup {
		return
	}
	b.seen[key] = struct{}{}
	b.list = append(b.list, q)
}
