package lastfm_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"hexfm/internal/lastfm"
	"hexfm/internal/logging"
	"hexfm/internal/testsupport"
)

func newClient(t *testing.T, handler http.Handler) *lastfm.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	cfg := testsupport.NewConfig(t, testsupport.WithLastfmBaseURL(server.URL+"/2.0/"))
	return lastfm.New(cfg, logging.NewNop())
}

func TestRecentTracksParsesFeed(t *testing.T) {
	client := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("method"); got != "user.getRecentTracks" {
			t.Errorf("unexpected method param %q", got)
		}
		if got := r.URL.Query().Get("from"); got != "1700000000" {
			t.Errorf("unexpected from param %q", got)
		}
		fmt.Fprint(w, `{"recenttracks":{"track":[
            {"artist":{"#text":"Seefeel"},"album":{"#text":"Quique"},"name":"Plainsong","@attr":{"nowplaying":"true"}},
            {"artist":{"#text":"Seefeel"},"album":{"#text":"Quique"},"name":"Climactic Phase #3","date":{"uts":"1700000100"}}
        ],"@attr":{"page":"1","totalPages":"1"}}}`)
	}))

	page, err := client.RecentTracks(context.Background(), "listener", 1, 200, 1700000000)
	if err != nil {
		t.Fatalf("RecentTracks: %v", err)
	}
	if page.Page != 1 || page.TotalPages != 1 {
		t.Fatalf("unexpected pagination: %+v", page)
	}
	if len(page.Tracks) != 1 {
		t.Fatalf("expected now-playing row dropped, got %d tracks", len(page.Tracks))
	}
	track := page.Tracks[0]
	if track.Artist != "Seefeel" || track.Name != "Climactic Phase #3" || track.PlayedAt != 1700000100 {
		t.Fatalf("unexpected track: %+v", track)
	}
}

func TestRecentTracksSurfacesAPIError(t *testing.T) {
	client := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"error":10,"message":"Invalid API key"}`)
	}))

	_, err := client.RecentTracks(context.Background(), "listener", 1, 200, 0)
	if err == nil {
		t.Fatal("expected error")
	}
	if got := err.Error(); got != "last.fm error 10: Invalid API key" {
		t.Fatalf("unexpected error text %q", got)
	}
}

func TestPullSinceBackfillsShallowPulls(t *testing.T) {
	var cursored, uncursored atomic.Int64
	client := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("from") != "" {
			cursored.Add(1)
			fmt.Fprint(w, `{"recenttracks":{"track":[
                {"artist":{"#text":"Oval"},"album":{"#text":"94diskont"},"name":"Do While","date":{"uts":"1700000200"}}
            ],"@attr":{"page":"1","totalPages":"1"}}}`)
			return
		}
		uncursored.Add(1)
		fmt.Fprintf(w, `{"recenttracks":{"track":[
            {"artist":{"#text":"Oval"},"album":{"#text":"94diskont"},"name":"Backfill %s","date":{"uts":"1699000000"}}
        ],"@attr":{"page":%q,"totalPages":"40"}}}`, r.URL.Query().Get("page"), r.URL.Query().Get("page"))
	}))

	tracks, err := client.PullSince(context.Background(), "listener", 1700000000)
	if err != nil {
		t.Fatalf("PullSince: %v", err)
	}
	if cursored.Load() != 1 {
		t.Fatalf("expected 1 cursored request, got %d", cursored.Load())
	}
	// Shallow cursor pull (1 page) backfills pages 1 through 4.
	if uncursored.Load() != 4 {
		t.Fatalf("expected 4 backfill requests, got %d", uncursored.Load())
	}
	if len(tracks) != 5 {
		t.Fatalf("expected 5 tracks total, got %d", len(tracks))
	}
}

func TestPullSinceKeepsFetchedPagesOnFailure(t *testing.T) {
	client := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") != "1" {
			w.WriteHeader(http.StatusInternalServerError)
			fmt.Fprint(w, `{"error":8,"message":"Backend down"}`)
			return
		}
		fmt.Fprint(w, `{"recenttracks":{"track":[
            {"artist":{"#text":"Cluster"},"album":{"#text":"Zuckerzeit"},"name":"Hollywood","date":{"uts":"1700000400"}}
        ],"@attr":{"page":"1","totalPages":"5"}}}`)
	}))

	tracks, err := client.PullSince(context.Background(), "listener", 1600000000)
	if err == nil {
		t.Fatal("expected truncation error")
	}
	// The completed first page survives the failed second request.
	if len(tracks) != 1 || tracks[0].Name != "Hollywood" {
		t.Fatalf("expected fetched page kept, got %+v", tracks)
	}
}

func TestPullSinceDeepPullSkipsBackfill(t *testing.T) {
	var requests atomic.Int64
	client := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		if r.URL.Query().Get("from") == "" {
			t.Error("expected every request to carry the cursor")
		}
		page := r.URL.Query().Get("page")
		fmt.Fprintf(w, `{"recenttracks":{"track":[
            {"artist":{"#text":"Pole"},"album":{"#text":"1"},"name":"Page %s","date":{"uts":"170000%s00"}}
        ],"@attr":{"page":%q,"totalPages":"5"}}}`, page, page, page)
	}))

	tracks, err := client.PullSince(context.Background(), "listener", 1600000000)
	if err != nil {
		t.Fatalf("PullSince: %v", err)
	}
	if requests.Load() != 5 {
		t.Fatalf("expected 5 cursored requests, got %d", requests.Load())
	}
	if len(tracks) != 5 {
		t.Fatalf("expected 5 tracks, got %d", len(tracks))
	}
}
