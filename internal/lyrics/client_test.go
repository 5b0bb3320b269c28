package lyrics

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/justestif/go-musichub/internal/cache"
)

func newTestClient(server *httptest.Server, opts ...Option) *Client {
	c := NewClient(Config{BaseURL: server.URL}, opts...)
	c.httpClient = server.Client()
	c.retryDelays = []time.Duration{time.Millisecond, time.Millisecond, time.Millisecond}
	return c
}

func TestGet(t *testing.T) {
	synced := Lyrics{TrackName: "Tum Hi Ho", ArtistName: "Arijit Singh", SyncedLyrics: "[00:12.00] hum tere bin"}
	plain := Lyrics{TrackName: "Tum Hi Ho", ArtistName: "Arijit Singh", PlainLyrics: "hum tere bin"}

	tests := []struct {
		name       string
		query      Query
		getStatus  int
		getBody    any
		searchBody any
		wantPaths  []string
		wantSynced bool
		wantErr    error
	}{
		{
			name:       "strict lookup",
			query:      Query{Track: "Tum Hi Ho", Artist: "Arijit Singh", Album: "Aashiqui 2", DurationSeconds: 262},
			getStatus:  http.StatusOK,
			getBody:    synced,
			wantPaths:  []string{"/get"},
			wantSynced: true,
		},
		{
			name:       "strict miss falls back to search",
			query:      Query{Track: "Tum Hi Ho", Artist: "Arijit Singh", Album: "Aashiqui 2", DurationSeconds: 262},
			getStatus:  http.StatusNotFound,
			searchBody: []Lyrics{plain, synced},
			wantPaths:  []string{"/get", "/search"},
			wantSynced: true,
		},
		{
			name:       "search only without album",
			query:      Query{Track: "Tum Hi Ho", Artist: "Arijit Singh"},
			searchBody: []Lyrics{plain},
			wantPaths:  []string{"/search"},
		},
		{
			name:       "nothing found",
			query:      Query{Track: "Unknown", Artist: "Nobody"},
			searchBody: []Lyrics{},
			wantPaths:  []string{"/search"},
			wantErr:    ErrNotFound,
		},
		{
			name:    "missing artist",
			query:   Query{Track: "Tum Hi Ho", Artist: "  "},
			wantErr: ErrMissingParams,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var paths []string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				paths = append(paths, r.URL.Path)
				if ua := r.Header.Get("User-Agent"); ua != userAgent {
					t.Errorf("User-Agent = %q", ua)
				}
				w.Header().Set("Content-Type", "application/json")

				switch r.URL.Path {
				case "/get":
					if r.URL.Query().Get("duration") != "262" {
						t.Errorf("duration = %q", r.URL.Query().Get("duration"))
					}
					w.WriteHeader(tt.getStatus)
					if tt.getBody != nil {
						json.NewEncoder(w).Encode(tt.getBody)
					}
				case "/search":
					json.NewEncoder(w).Encode(tt.searchBody)
				default:
					t.Fatalf("unexpected path: %s", r.URL.Path)
				}
			}))
			defer server.Close()

			got, err := newTestClient(server).Get(context.Background(), tt.query)

			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Get() error = %v, wantErr %v", err, tt.wantErr)
			}
			if len(paths) != len(tt.wantPaths) {
				t.Fatalf("paths = %v, want %v", paths, tt.wantPaths)
			}
			for i := range paths {
				if paths[i] != tt.wantPaths[i] {
					t.Errorf("paths = %v, want %v", paths, tt.wantPaths)
				}
			}
			if tt.wantErr == nil && (got.SyncedLyrics != "") != tt.wantSynced {
				t.Errorf("Get() synced = %q, wantSynced %v", got.SyncedLyrics, tt.wantSynced)
			}
		})
	}
}

func TestGet_Caching(t *testing.T) {
	var requestCount atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestCount.Add(1)
		json.NewEncoder(w).Encode([]Lyrics{{TrackName: "Raabta", PlainLyrics: "kehte hain"}})
	}))
	defer server.Close()

	c := cache.New(cache.NewMemoryStore(8, time.Hour))
	client := newTestClient(server, WithCache(c))
	q := Query{Track: "Raabta", Artist: "Arijit Singh"}

	for range 2 {
		l, err := client.Get(context.Background(), q)
		if err != nil || l.PlainLyrics != "kehte hain" {
			t.Fatalf("Get() = %+v, %v", l, err)
		}
	}
	if count := requestCount.Load(); count != 1 {
		t.Errorf("Expected 1 request, got %d", count)
	}
}

func TestGet_EmptyLyricsNotCached(t *testing.T) {
	var requestCount atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestCount.Add(1)
		json.NewEncoder(w).Encode([]Lyrics{{TrackName: "Interlude", Instrumental: true}})
	}))
	defer server.Close()

	c := cache.New(cache.NewMemoryStore(8, time.Hour))
	client := newTestClient(server, WithCache(c))
	q := Query{Track: "Interlude", Artist: "Someone"}

	_, _ = client.Get(context.Background(), q)
	_, _ = client.Get(context.Background(), q)

	if count := requestCount.Load(); count != 2 {
		t.Errorf("Expected 2 requests, got %d", count)
	}
}

func TestGet_RateLimitRetry(t *testing.T) {
	var requestCount atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requestCount.Add(1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		json.NewEncoder(w).Encode([]Lyrics{{PlainLyrics: "la la"}})
	}))
	defer server.Close()

	l, err := newTestClient(server).Get(context.Background(), Query{Track: "a", Artist: "b"})
	if err != nil || l.PlainLyrics != "la la" {
		t.Fatalf("Get() = %+v, %v", l, err)
	}
	if count := requestCount.Load(); count != 3 {
		t.Errorf("Expected 3 requests, got %d", count)
	}
}

func TestGet_RateLimitExhausted(t *testing.T) {
	var requestCount atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestCount.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	_, err := newTestClient(server).Get(context.Background(), Query{Track: "a", Artist: "b"})
	if !errors.Is(err, ErrRateLimited) {
		t.Errorf("Get() error = %v, want ErrRateLimited", err)
	}
	// 1 initial + 3 retries
	if count := requestCount.Load(); count != 4 {
		t.Errorf("Expected 4 requests, got %d", count)
	}
}

func TestSanitize(t *testing.T) {
	l := Lyrics{
		PlainLyrics:  "Meraa dil bhii tera",
		SyncedLyrics: "[00:01.00] jindagii aashikii",
	}.Sanitize()

	if l.PlainLyrics != "mera dil bhi tera" {
		t.Errorf("PlainLyrics = %q", l.PlainLyrics)
	}
	if l.SyncedLyrics != "[00:01.00] jindagi aashiki" {
		t.Errorf("SyncedLyrics = %q", l.SyncedLyrics)
	}
}

func TestNewClient(t *testing.T) {
	client := NewClient(Config{})

	if client.httpClient == nil {
		t.Error("NewClient() httpClient is nil")
	}
	if client.baseURL != defaultBaseURL {
		t.Errorf("NewClient() baseURL = %s, want %s", client.baseURL, defaultBaseURL)
	}
	if client.httpClient.Timeout != defaultTimeout {
		t.Errorf("NewClient() timeout = %v, want %v", client.httpClient.Timeout, defaultTimeout)
	}
}
