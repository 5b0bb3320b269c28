// Package similarity provides the string and numeric similarity measures used
// to compare track metadata across catalogs. Every function returns a value in
// [0,1] and is symmetric in its two text arguments.
package similarity

import (
	"math"
	"strings"

	"github.com/adrg/strutil"

	"github.com/justestif/go-musichub/internal/textnorm"
)

// DurationWindow is the tolerance, in seconds, for DurationProximity.
const DurationWindow = 90

const (
	diceWeight     = 0.55
	jaccardWeight  = 0.45
	containsBonus  = 0.12
	bestPairWeight = 0.7
	joinedWeight   = 0.3
)

// stopWords are dropped before token comparison.
var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "the": {},
	"and": {}, "or": {}, "of": {}, "n": {},
	"feat": {}, "ft": {}, "featuring": {}, "with": {},
	"official": {}, "audio": {}, "video": {}, "lyric": {}, "lyrics": {},
	"version": {}, "full": {}, "song": {}, "hd": {},
}

// BigramDice returns the Sørensen-Dice coefficient over adjacent character
// pairs of the normalized strings with whitespace removed.
func BigramDice(a, b string) float64 {
	return dice(textnorm.Normalize(a), textnorm.Normalize(b))
}

// TokenJaccard returns |A∩B| / |A∪B| over normalized word sets with stop
// words removed.
func TokenJaccard(a, b string) float64 {
	return jaccard(textnorm.Normalize(a), textnorm.Normalize(b))
}

// TextSimilarity blends bigram and token similarity and adds a bonus when one
// normalized string contains the other. Identical normalized strings score 1,
// and an empty side scores 0.
func TextSimilarity(a, b string) float64 {
	return textSim(textnorm.Normalize(a), textnorm.Normalize(b))
}

// ListSimilarity compares two lists of names, typically artists. The best
// pairwise TextSimilarity is blended 70/30 with the similarity of the joined
// lists. Blank entries are ignored.
func ListSimilarity(a, b []string) float64 {
	na := normalizeList(a)
	nb := normalizeList(b)
	if len(na) == 0 || len(nb) == 0 {
		return 0
	}

	best := 0.0
	for _, x := range na {
		for _, y := range nb {
			if s := textSim(x, y); s > best {
				best = s
			}
		}
	}

	joined := textSim(strings.Join(na, " "), strings.Join(nb, " "))
	return Clamp(bestPairWeight*best + joinedWeight*joined)
}

// NumericProximity scores how close two positive values are within window.
// Missing or non-positive values score 0.
func NumericProximity(a, b, window float64) float64 {
	if a <= 0 || b <= 0 || window <= 0 {
		return 0
	}
	return Clamp(1 - math.Abs(a-b)/window)
}

// DurationProximity compares two durations in seconds.
func DurationProximity(a, b int) float64 {
	return NumericProximity(float64(a), float64(b), DurationWindow)
}

// YearProximity is a step function over the absolute year difference.
func YearProximity(a, b int) float64 {
	if a <= 0 || b <= 0 {
		return 0
	}
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	switch {
	case diff <= 1:
		return 1
	case diff <= 3:
		return 0.6
	case diff <= 5:
		return 0.35
	default:
		return 0
	}
}

// Clamp limits v to [0,1].
func Clamp(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func textSim(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}

	score := diceWeight*dice(a, b) + jaccardWeight*jaccard(a, b)
	if strings.Contains(a, b) || strings.Contains(b, a) {
		score += containsBonus
	}
	return Clamp(score)
}

// dice expects normalized input.
func dice(a, b string) float64 {
	x := strings.ReplaceAll(a, " ", "")
	y := strings.ReplaceAll(b, " ", "")
	if x == "" || y == "" {
		return 0
	}
	if x == y {
		return 1
	}
	if len(x) < 2 || len(y) < 2 {
		return 0
	}

	_, common, totalA, totalB := strutil.NgramIntersection(x, y, 2)
	if totalA+totalB == 0 {
		return 0
	}
	return Clamp(2 * float64(common) / float64(totalA+totalB))
}

// jaccard expects normalized input.
func jaccard(a, b string) float64 {
	ta := tokenSet(a)
	tb := tokenSet(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	inter := 0
	for tok := range ta {
		if _, ok := tb[tok]; ok {
			inter++
		}
	}
	union := len(ta) + len(tb) - inter
	return float64(inter) / float64(union)
}

func tokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range strings.Fields(s) {
		if _, stop := stopWords[tok]; stop {
			continue
		}
		set[tok] = struct{}{}
	}
	return set
}

func normalizeList(list []string) []string {
	out := make([]string, 0, len(list))
	for _, s := range list {
		if n := textnorm.Normalize(s); n != "" {
			out = append(out, n)
		}
	}
	return out
}
