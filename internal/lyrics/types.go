package lyrics

import (
	"regexp"
	"strings"
)

// Lyrics is an LRCLIB lyrics record.
type Lyrics struct {
	ID           int64   `json:"id,omitempty"`
	TrackName    string  `json:"trackName"`
	ArtistName   string  `json:"artistName"`
	AlbumName    string  `json:"albumName,omitempty"`
	Duration     float64 `json:"duration,omitempty"`
	Instrumental bool    `json:"instrumental"`
	PlainLyrics  string  `json:"plainLyrics"`
	SyncedLyrics string  `json:"syncedLyrics"`
}

// HasText reports whether the record carries synced or plain lyrics.
func (l Lyrics) HasText() bool {
	return strings.TrimSpace(l.SyncedLyrics) != "" || strings.TrimSpace(l.PlainLyrics) != ""
}

// Query identifies a track. Album and DurationSeconds are optional and
// enable the strict lookup.
type Query struct {
	Track           string
	Artist          string
	Album           string
	DurationSeconds int
}

func (q Query) strict() bool {
	return q.Album != "" && q.DurationSeconds > 0
}

// textFixes corrects common glitches in romanized lyrics.
var textFixes = []struct {
	pattern     *regexp.Regexp
	replacement string
}{
	{regexp.MustCompile(`(?i)\baashikli\b`), "aashiki"},
	{regexp.MustCompile(`(?i)\baashikii\b`), "aashiki"},
	{regexp.MustCompile(`(?i)\bbhil\b`), "bhi"},
	{regexp.MustCompile(`(?i)\bbhii\b`), "bhi"},
	{regexp.MustCompile(`(?i)\bmeraa\b`), "mera"},
	{regexp.MustCompile(`(?i)\bjindagii\b`), "jindagi"},
}

// Sanitize applies textFixes to both lyric texts.
func (l Lyrics) Sanitize() Lyrics {
	l.PlainLyrics = fixText(l.PlainLyrics)
	l.SyncedLyrics = fixText(l.SyncedLyrics)
	return l
}

func fixText(s string) string {
	for _, f := range textFixes {
		s = f.pattern.ReplaceAllString(s, f.replacement)
	}
	return s
}
