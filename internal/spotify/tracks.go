package spotify

import (
	"context"
	"fmt"

	"github.com/zmb3/spotify/v2"

	"github.com/justestif/go-musichub/internal/match"
)

// SearchTracks runs a track search and returns up to limit results.
func (c *Client) SearchTracks(ctx context.Context, query string, limit int) ([]match.SeedTrack, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	results, err := c.api.Search(ctx, query, spotify.SearchTypeTrack, spotify.Limit(limit))
	if err != nil {
		return nil, fmt.Errorf("searching tracks: %w", err)
	}
	if results.Tracks == nil {
		return nil, nil
	}

	tracks := make([]match.SeedTrack, 0, len(results.Tracks.Tracks))
	for _, t := range results.Tracks.Tracks {
		tracks = append(tracks, convertTrack(t.SimpleTrack, t.Album))
	}
	return tracks, nil
}

// Recommend returns up to limit tracks recommended for the seed track. The
// seed artist, when known, is added as a second seed.
func (c *Client) Recommend(ctx context.Context, seedID string, limit int, seedArtistID string) ([]match.SeedTrack, error) {
	if seedID == "" {
		return nil, ErrNoSeed
	}
	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	seeds := spotify.Seeds{Tracks: []spotify.ID{spotify.ID(seedID)}}
	if seedArtistID != "" {
		seeds.Artists = []spotify.ID{spotify.ID(seedArtistID)}
	}

	recs, err := c.api.GetRecommendations(ctx, seeds, nil, spotify.Limit(limit))
	if err != nil {
		return nil, fmt.Errorf("getting recommendations: %w", err)
	}

	tracks := make([]match.SeedTrack, 0, len(recs.Tracks))
	for _, t := range recs.Tracks {
		if t.ID == "" || t.ID == spotify.ID(seedID) {
			continue
		}
		tracks = append(tracks, convertTrack(t, t.Album))
	}

	c.logger.Debug("recommendations fetched", "seed", seedID, "count", len(tracks))
	return tracks, nil
}

// convertTrack converts a Spotify track and its album to match.SeedTrack.
func convertTrack(t spotify.SimpleTrack, album spotify.SimpleAlbum) match.SeedTrack {
	names := make([]string, 0, len(t.Artists))
	ids := make([]string, 0, len(t.Artists))
	for _, a := range t.Artists {
		names = append(names, a.Name)
		ids = append(ids, a.ID.String())
	}

	return match.SeedTrack{
		ExternalID:      t.ID.String(),
		Name:            t.Name,
		Artists:         names,
		ArtistIDs:       ids,
		Album:           album.Name,
		DurationSeconds: int(t.Duration) / 1000,
		ReleaseYear:     match.ParseYear(album.ReleaseDate),
	}
}
