package match

import (
	"github.com/justestif/go-musichub/internal/flavor"
	"github.com/justestif/go-musichub/internal/similarity"
)

// Seed-resolution weights.
const (
	seedTitleWeight  = 0.78
	seedArtistWeight = 0.22
	// neutralArtist stands in for the artist term when the seed has none.
	neutralArtist = 0.5
)

// Target-catalog weights.
const (
	targetTitleWeight    = 0.56
	targetArtistWeight   = 0.27
	targetAlbumWeight    = 0.10
	targetDurationWeight = 0.05
	targetYearWeight     = 0.02

	strongSignal      = 0.92
	strongSignalBonus = 0.03
)

// Thresholds control when resolution stops and what it accepts.
type Thresholds struct {
	// SeedEarlyExit stops seed resolution once a hit scores at least this.
	SeedEarlyExit float64
	// TargetEarlyExit stops target resolution once a candidate scores at least this.
	TargetEarlyExit float64
	// AcceptanceFloor is the minimum score for a target match to be returned.
	AcceptanceFloor float64
	// ScanLimit caps how many candidates of one query are scored.
	ScanLimit int
}

// DefaultThresholds returns the tuned defaults.
func DefaultThresholds() Thresholds {
	return Thresholds{
		SeedEarlyExit:   0.95,
		TargetEarlyExit: 0.94,
		AcceptanceFloor: 0.24,
		ScanLimit:       12,
	}
}

// SeedScoreFunc rates a recommender search hit against the requested seed.
type SeedScoreFunc func(seed, hit SeedTrack) float64

// TargetScoreFunc rates a target-catalog candidate against a known track.
type TargetScoreFunc func(track SeedTrack, candidate CandidateTrack) float64

// SeedScore confirms that a recommender search hit is the requested seed.
func SeedScore(seed, hit SeedTrack) float64 {
	title := similarity.TextSimilarity(hit.Name, seed.Name)

	artist := neutralArtist
	if seed.PrimaryArtist() != "" {
		artist = similarity.ListSimilarity(hit.Artists, []string{seed.PrimaryArtist()})
	}

	return similarity.Clamp(seedTitleWeight*title + seedArtistWeight*artist)
}

// Signals holds the individual similarities behind a target score.
type Signals struct {
	Title    float64
	Artist   float64
	Album    float64
	Duration float64
	Year     float64
	Flavor   float64
}

// Total combines the signals into a score in [0,1]. Strong title and artist
// agreement each earn a small bonus.
func (s Signals) Total() float64 {
	score := targetTitleWeight*s.Title +
		targetArtistWeight*s.Artist +
		targetAlbumWeight*s.Album +
		targetDurationWeight*s.Duration +
		targetYearWeight*s.Year +
		s.Flavor
	if s.Title > strongSignal {
		score += strongSignalBonus
	}
	if s.Artist > strongSignal {
		score += strongSignalBonus
	}
	return similarity.Clamp(score)
}

// TargetSignals computes each signal for a (track, candidate) pair. Missing
// fields contribute 0.
func TargetSignals(track SeedTrack, candidate CandidateTrack) Signals {
	album := 0.0
	if track.Album != "" && candidate.Album != "" {
		album = similarity.TextSimilarity(candidate.Album, track.Album)
	}

	return Signals{
		Title:    similarity.TextSimilarity(candidate.Name, track.Name),
		Artist:   similarity.ListSimilarity(candidate.Artists, track.Artists),
		Album:    album,
		Duration: similarity.DurationProximity(candidate.DurationSeconds, track.DurationSeconds),
		Year:     similarity.YearProximity(candidate.ReleaseYear(), track.ReleaseYear),
		Flavor: flavor.Adjustment(
			flavor.Detect(track.Name, track.Album),
			flavor.Detect(candidate.Name, candidate.Album),
		),
	}
}

// TargetScore confirms that a target-catalog candidate is the given track.
func TargetScore(track SeedTrack, candidate CandidateTrack) float64 {
	return TargetSignals(track, candidate).Total()
}
