package saavn

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/justestif/go-musichub/internal/match"
)

func TestParseSong(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want match.CandidateTrack
		ok   bool
	}{
		{
			name: "legacy flat record",
			raw: `{"songid":"x1","title":"Tere Liye &amp; Tum","primaryArtists":"Atif Aslam, Shreya Ghoshal",
				"primaryArtistsId":"77, 88","album":"Prince","duration":"242","releaseDate":"2010-04-09",
				"image":"https://c.saavncdn.com/150.jpg"}`,
			want: match.CandidateTrack{
				ID:              "x1",
				Name:            "Tere Liye & Tum",
				Artists:         []string{"Atif Aslam", "Shreya Ghoshal"},
				PrimaryArtistID: "77",
				Album:           "Prince",
				DurationSeconds: 242,
				Year:            "2010-04-09",
				Images:          []match.Image{{URL: "https://c.saavncdn.com/150.jpg"}},
			},
			ok: true,
		},
		{
			name: "more_info record",
			raw: `{"id":"m1","title":"Raabta","subtitle":"Arijit Singh - Agent Vinod",
				"more_info":{"album":"Agent Vinod","duration":"243",
				"artistMap":{"primary_artists":[{"id":"1","name":"Arijit Singh"}]}},
				"image":[{"quality":"500x500","link":"https://img/500.jpg"}]}`,
			want: match.CandidateTrack{
				ID:              "m1",
				Name:            "Raabta",
				Artists:         []string{"Arijit Singh"},
				Album:           "Agent Vinod",
				DurationSeconds: 243,
				Images:          []match.Image{{Quality: "500x500", URL: "https://img/500.jpg"}},
			},
			ok: true,
		},
		{
			name: "subtitle only",
			raw:  `{"id":"s1","song":"Ilahi","subtitle":"Arijit Singh, Pritam - Yeh Jawaani Hai Deewani"}`,
			want: match.CandidateTrack{
				ID:      "s1",
				Name:    "Ilahi",
				Artists: []string{"Arijit Singh", "Pritam"},
			},
			ok: true,
		},
		{
			name: "duplicate artist groups",
			raw: `{"id":"d1","name":"Song","artists":{"primary":[{"name":"A"}],"featured":[{"name":"B"}],
				"all":[{"name":"a"},{"name":"B"},{"name":"C"}]}}`,
			want: match.CandidateTrack{ID: "d1", Name: "Song", Artists: []string{"A", "B", "C"}},
			ok:   true,
		},
		{name: "missing id", raw: `{"name":"Orphan"}`, ok: false},
		{name: "missing name", raw: `{"id":"1"}`, ok: false},
		{name: "not an object", raw: `[1,2]`, ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseSong(json.RawMessage(tt.raw))
			if ok != tt.ok {
				t.Fatalf("ParseSong() ok = %v, want %v", ok, tt.ok)
			}
			if !ok {
				return
			}
			got.Raw = nil
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseSong() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestCandidateBases(t *testing.T) {
	got := candidateBases("https://mirror.example/api/", []string{"https://saavn.dev", "https://mirror.example"})
	want := []string{
		"https://mirror.example/api",
		"https://mirror.example",
		"https://saavn.dev/api",
		"https://saavn.dev",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("candidateBases() = %v, want %v", got, want)
	}

	if got := candidateBases("", nil); got != nil {
		t.Errorf("candidateBases(empty) = %v, want nil", got)
	}
}
