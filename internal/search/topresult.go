package search

import (
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/justestif/go-musichub/internal/similarity"
	"github.com/justestif/go-musichub/internal/textnorm"
	"github.com/justestif/go-musichub/internal/variants"
)

// TopResultThreshold is the minimum artist score for a Top Result card.
const TopResultThreshold = 50.0

const (
	fuzzyWordSimilarity = 0.72
	maxTypoDistance     = 2
	minTypoQueryLength  = 4
	overlapWeight       = 20.0
)

// Artist is a distinct primary artist taken from song results.
type Artist struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

// ScoreArtist rates how likely name is the artist the user typed, from 0 to
// 100. Rules are tried in order and the first that applies wins.
func ScoreArtist(name, query string) float64 {
	return min(scoreArtist(name, query), 100)
}

func scoreArtist(name, query string) float64 {
	n := textnorm.Normalize(name)
	q := textnorm.Normalize(query)
	if n == "" || q == "" {
		return 0
	}

	var forms []string
	for _, v := range variants.ForSearch(query) {
		if v = textnorm.Normalize(v); v != "" {
			forms = append(forms, v)
		}
	}

	queryWords := strings.Fields(q)
	nameWords := strings.Fields(n)

	intersection := 0
	fuzzyMatches := 0
	for _, qw := range queryWords {
		exact, fuzzy := false, false
		for _, nw := range nameWords {
			if qw == nw {
				exact = true
			}
			if editSimilarity(qw, nw) >= fuzzyWordSimilarity {
				fuzzy = true
			}
		}
		if exact {
			intersection++
		}
		if fuzzy {
			fuzzyMatches++
		}
	}
	overlap := float64(intersection) / float64(len(queryWords)) * overlapWeight

	firstDistance := levenshtein.ComputeDistance(queryWords[0], nameWords[0])
	firstSimilarity := editSimilarity(queryWords[0], nameWords[0])

	switch {
	case anyForm(forms, func(f string) bool { return f == n }):
		return 100
	case anyForm(forms, func(f string) bool { return strings.HasPrefix(n, f) }):
		return 85 + overlap
	case anyForm(forms, func(f string) bool { return strings.Contains(n, f) }):
		return 65 + overlap
	case levenshtein.ComputeDistance(n, q) <= maxTypoDistance && len(q) > minTypoQueryLength:
		return 80
	case similarity.TextSimilarity(n, q) >= fuzzyWordSimilarity:
		return 78 + overlap
	case firstDistance <= maxTypoDistance && intersection > 0:
		return 72
	case firstSimilarity >= fuzzyWordSimilarity && (intersection > 0 || fuzzyMatches > 1):
		return 70 + overlap
	case fuzzyMatches >= max(1, len(queryWords)-1):
		return 62 + overlap
	case strings.Contains(q, n):
		return 45 + overlap
	case intersection > 0 || fuzzyMatches > 0:
		return 40 + overlap
	}
	return 0
}

// PickTopArtist scores each artist against query and returns the best one
// if it clears TopResultThreshold. Ties keep the earlier artist.
func PickTopArtist(artists []Artist, query string) (Artist, bool) {
	var (
		best  Artist
		found bool
	)
	for _, a := range artists {
		a.Score = ScoreArtist(a.Name, query)
		if !found || a.Score > best.Score {
			best, found = a, true
		}
	}
	if !found || best.Score < TopResultThreshold {
		return Artist{}, false
	}
	return best, true
}

// editSimilarity is 1 - distance/longer length.
func editSimilarity(a, b string) float64 {
	longest := max(len([]rune(a)), len([]rune(b)))
	if longest == 0 {
		return 0
	}
	return 1 - float64(levenshtein.ComputeDistance(a, b))/float64(longest)
}

func anyForm(forms []string, pred func(string) bool) bool {
	for _, f := range forms {
		if pred(f) {
			return true
		}
	}
	return false
}
