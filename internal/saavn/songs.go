package saavn

import (
	"encoding/json"
	"html"
	"strconv"
	"strings"

	"github.com/justestif/go-musichub/internal/match"
)

// record is one decoded song object. Mirrors disagree on field names, so each
// attribute has a resolve function that documents its lookup order once.
type record map[string]any

// ParseSongs converts raw song objects into candidates, dropping entries
// without an ID or a name. Each candidate keeps its raw JSON.
func ParseSongs(items []json.RawMessage) []match.CandidateTrack {
	out := make([]match.CandidateTrack, 0, len(items))
	for _, item := range items {
		if c, ok := ParseSong(item); ok {
			out = append(out, c)
		}
	}
	return out
}

// ParseSong converts one raw song object.
func ParseSong(raw json.RawMessage) (match.CandidateTrack, bool) {
	var rec record
	if err := codec.Unmarshal(raw, &rec); err != nil || rec == nil {
		return match.CandidateTrack{}, false
	}

	c := match.CandidateTrack{
		ID:              ResolveID(rec),
		Name:            ResolveName(rec),
		Artists:         ResolveArtists(rec),
		PrimaryArtistID: ResolvePrimaryArtistID(rec),
		Album:           ResolveAlbum(rec),
		DurationSeconds: ResolveDuration(rec),
		Year:            ResolveYear(rec),
		Images:          ResolveImages(rec),
		Raw:             raw,
	}
	if c.ID == "" || c.Name == "" {
		return match.CandidateTrack{}, false
	}
	return c, true
}

// ResolveID: id, songid, songId.
func ResolveID(rec record) string {
	return firstString(rec, "id", "songid", "songId")
}

// ResolveName: name, title, song, songName. HTML entities are decoded.
func ResolveName(rec record) string {
	return html.UnescapeString(firstString(rec, "name", "title", "song", "songName"))
}

// ResolveArtists: artists.primary, artists.featured and artists.all names;
// then the primaryArtists and featuredArtists strings; then artist; then
// more_info.artistMap.primary_artists; then the leading part of subtitle.
// Names are de-duplicated case-insensitively, primary first.
func ResolveArtists(rec record) []string {
	var names []string
	if artists, ok := rec["artists"].(map[string]any); ok {
		for _, group := range []string{"primary", "featured", "all"} {
			names = append(names, objectNames(artists[group])...)
		}
	}
	if len(names) == 0 {
		names = append(names, splitNames(str(rec["primaryArtists"]))...)
		names = append(names, splitNames(str(rec["featuredArtists"]))...)
	}
	if len(names) == 0 {
		names = splitNames(str(rec["artist"]))
	}
	if len(names) == 0 {
		if info, ok := rec["more_info"].(map[string]any); ok {
			if am, ok := info["artistMap"].(map[string]any); ok {
				names = objectNames(am["primary_artists"])
			}
		}
	}
	if len(names) == 0 {
		if sub := str(rec["subtitle"]); sub != "" {
			lead, _, _ := strings.Cut(sub, " - ")
			names = splitNames(lead)
		}
	}
	return dedupeNames(names)
}

// ResolvePrimaryArtistID: artists.primary[0].id, then the first entry of
// primaryArtistsIds / primaryArtistsId.
func ResolvePrimaryArtistID(rec record) string {
	if artists, ok := rec["artists"].(map[string]any); ok {
		if list, ok := artists["primary"].([]any); ok && len(list) > 0 {
			if obj, ok := list[0].(map[string]any); ok {
				if id := str(obj["id"]); id != "" {
					return id
				}
			}
		}
	}
	ids := firstString(rec, "primaryArtistsIds", "primaryArtistsId")
	first, _, _ := strings.Cut(ids, ",")
	return strings.TrimSpace(first)
}

// ResolveAlbum: album.name, album (string), albumName, album_title,
// more_info.album.
func ResolveAlbum(rec record) string {
	if obj, ok := rec["album"].(map[string]any); ok {
		if name := str(obj["name"]); name != "" {
			return html.UnescapeString(name)
		}
	}
	if name := firstString(rec, "album", "albumName", "album_title"); name != "" {
		return html.UnescapeString(name)
	}
	if info, ok := rec["more_info"].(map[string]any); ok {
		return html.UnescapeString(str(info["album"]))
	}
	return ""
}

// ResolveDuration: duration, then more_info.duration, in seconds.
func ResolveDuration(rec record) int {
	v := str(rec["duration"])
	if v == "" {
		if info, ok := rec["more_info"].(map[string]any); ok {
			v = str(info["duration"])
		}
	}
	n, err := strconv.ParseFloat(v, 64)
	if err != nil || n <= 0 {
		return 0
	}
	return int(n)
}

// ResolveYear: year, releaseDate, release_date.
func ResolveYear(rec record) string {
	return firstString(rec, "year", "releaseDate", "release_date")
}

// ResolveImages: image as a list of {quality, url|link} objects or plain
// URLs, or image as a single URL.
func ResolveImages(rec record) []match.Image {
	switch v := rec["image"].(type) {
	case string:
		if v != "" {
			return []match.Image{{URL: v}}
		}
	case []any:
		out := make([]match.Image, 0, len(v))
		for _, item := range v {
			switch img := item.(type) {
			case string:
				if img != "" {
					out = append(out, match.Image{URL: img})
				}
			case map[string]any:
				u := str(img["url"])
				if u == "" {
					u = str(img["link"])
				}
				if u != "" {
					out = append(out, match.Image{Quality: str(img["quality"]), URL: u})
				}
			}
		}
		return out
	}
	return nil
}

func firstString(rec record, keys ...string) string {
	for _, k := range keys {
		if s := strings.TrimSpace(str(rec[k])); s != "" {
			return s
		}
	}
	return ""
}

// str renders strings and numbers; other types yield "".
func str(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	}
	return ""
}

func objectNames(v any) []string {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	var out []string
	for _, item := range list {
		if obj, ok := item.(map[string]any); ok {
			if name := strings.TrimSpace(str(obj["name"])); name != "" {
				out = append(out, html.UnescapeString(name))
			}
		}
	}
	return out
}

func splitNames(s string) []string {
	var out []string
	for _, part := range strings.Split(html.UnescapeString(s), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func dedupeNames(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := names[:0:0]
	for _, n := range names {
		key := strings.ToLower(n)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, n)
	}
	return out
}
