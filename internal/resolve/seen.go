package resolve

import (
	"github.com/justestif/go-musichub/internal/match"
	"github.com/justestif/go-musichub/internal/textnorm"
)

// Seen de-duplicates candidates within one request, by ID and by normalized
// title plus primary artist. It is not safe for concurrent use; create one
// per request.
type Seen struct {
	ids  map[string]struct{}
	keys map[string]struct{}
	n    int
}

// NewSeen returns an empty set.
func NewSeen() *Seen {
	return &Seen{
		ids:  make(map[string]struct{}),
		keys: make(map[string]struct{}),
	}
}

// Add records c and reports whether it was new.
func (s *Seen) Add(c match.CandidateTrack) bool {
	key := TitleKey(c)
	if _, ok := s.ids[c.ID]; ok && c.ID != "" {
		return false
	}
	if _, ok := s.keys[key]; ok && key != "|" {
		return false
	}

	if c.ID != "" {
		s.ids[c.ID] = struct{}{}
	}
	s.keys[key] = struct{}{}
	s.n++
	return true
}

// Len returns the number of distinct candidates added.
func (s *Seen) Len() int {
	return s.n
}

// TitleKey is the normalized "title|primary artist" identity of c.
func TitleKey(c match.CandidateTrack) string {
	return textnorm.Normalize(c.Name) + "|" + textnorm.Normalize(c.PrimaryArtist())
}
