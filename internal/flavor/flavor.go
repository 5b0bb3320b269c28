// Package flavor detects edition markers such as remix, live or cover in
// track metadata and scores how well two tracks agree on them.
package flavor

import (
	"sort"
	"strings"

	"github.com/justestif/go-musichub/internal/textnorm"
)

// Marker names a track variant.
type Marker string

// Known markers.
const (
	Remix        Marker = "remix"
	Live         Marker = "live"
	Acoustic     Marker = "acoustic"
	Cover        Marker = "cover"
	Instrumental Marker = "instrumental"
	Karaoke      Marker = "karaoke"
	LoFi         Marker = "lofi"
	Slowed       Marker = "slowed"
	SpedUp       Marker = "sped up"
	Nightcore    Marker = "nightcore"
	Mashup       Marker = "mashup"
	DJEdit       Marker = "dj edit"
	Reprise      Marker = "reprise"
	Unplugged    Marker = "unplugged"
	Extended     Marker = "extended"
	EightD       Marker = "8d"
	Female       Marker = "female version"
	Male         Marker = "male version"
)

const (
	// OverlapBonus applies when both sides share at least one marker.
	OverlapBonus = 0.04
	// MismatchPenalty applies when markers are present but not shared.
	MismatchPenalty = -0.10
)

// phrases are matched as whole words against normalized text.
var phrases = []struct {
	marker  Marker
	phrases []string
}{
	{Remix, []string{"remix", "remixed", "rmx", "remake"}},
	{Live, []string{"live", "live at", "live from", "in concert"}},
	{Acoustic, []string{"acoustic"}},
	{Cover, []string{"cover", "covered by"}},
	{Instrumental, []string{"instrumental", "instrumentals"}},
	{Karaoke, []string{"karaoke"}},
	{LoFi, []string{"lofi", "lo fi"}},
	{Slowed, []string{"slowed", "slowed reverb", "slowed and reverb"}},
	{SpedUp, []string{"sped up", "spedup", "speed up"}},
	{Nightcore, []string{"nightcore"}},
	{Mashup, []string{"mashup", "mash up"}},
	{DJEdit, []string{"dj edit", "radio edit", "club edit"}},
	{Reprise, []string{"reprise"}},
	{Unplugged, []string{"unplugged"}},
	{Extended, []string{"extended mix", "extended version"}},
	{EightD, []string{"8d", "8d audio"}},
	{Female, []string{"female version", "female"}},
	{Male, []string{"male version"}},
}

// Set is a collection of detected markers.
type Set map[Marker]struct{}

// Has reports whether m is in the set.
func (s Set) Has(m Marker) bool {
	_, ok := s[m]
	return ok
}

// Sorted returns the markers in lexical order.
func (s Set) Sorted() []Marker {
	out := make([]Marker, 0, len(s))
	for m := range s {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Detect returns the markers present in any of the given texts.
func Detect(texts ...string) Set {
	set := make(Set)
	for _, text := range texts {
		n := textnorm.Normalize(text)
		if n == "" {
			continue
		}
		padded := " " + n + " "
		for _, p := range phrases {
			if set.Has(p.marker) {
				continue
			}
			for _, phrase := range p.phrases {
				if strings.Contains(padded, " "+phrase+" ") {
					set[p.marker] = struct{}{}
					break
				}
			}
		}
	}
	return set
}

// Adjustment scores marker agreement between a seed and a candidate: a shared
// marker earns OverlapBonus, markers on either side without overlap cost
// MismatchPenalty, and no markers at all is neutral.
func Adjustment(seed, candidate Set) float64 {
	if len(seed) == 0 && len(candidate) == 0 {
		return 0
	}
	for m := range seed {
		if candidate.Has(m) {
			return OverlapBonus
		}
	}
	return MismatchPenalty
}
