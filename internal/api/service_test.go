package api_test

import (
	"context"
	"testing"

	"hexfm/internal/api"
	"hexfm/internal/config"
	"hexfm/internal/lastfm"
	"hexfm/internal/ledger"
	"hexfm/internal/logging"
	"hexfm/internal/plexdb"
	"hexfm/internal/testsupport"
)

type stubFeed struct {
	tracks []lastfm.Track
}

func (f *stubFeed) PullSince(context.Context, string, int64) ([]lastfm.Track, error) {
	return f.tracks, nil
}

type fixture struct {
	cfg     *config.Config
	store   *ledger.Store
	plex    *plexdb.DB
	path    string
	feed    *stubFeed
	service *api.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	path := testsupport.CreatePlexFixture(t)
	cfg := testsupport.NewConfig(t, testsupport.WithPlexDBFile(path))
	store := testsupport.MustOpenStore(t, cfg)
	plex, err := plexdb.Open(cfg)
	if err != nil {
		t.Fatalf("plexdb.Open: %v", err)
	}
	t.Cleanup(func() { plex.Close() })
	feed := &stubFeed{}
	return &fixture{
		cfg:     cfg,
		store:   store,
		plex:    plex,
		path:    path,
		feed:    feed,
		service: api.NewService(cfg, store, plex, feed, logging.NewNop()),
	}
}

func TestFullReconciliationCycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	testsupport.SeedPlexTrack(t, f.path, 1, "Nina Simone", "Pastel Blues", "Sinnerman", 10)
	f.feed.tracks = []lastfm.Track{
		{Artist: "Nina Simone", Album: "Pastel Blues", Name: "Sinnerman", PlayedAt: 1700000000},
		{Artist: "Nina Simone", Album: "Pastel Blues", Name: "Sinnerman", PlayedAt: 1700001000},
		{Artist: "Someone Else", Album: "Elsewhere", Name: "Unknown", PlayedAt: 1700002000},
	}

	// Catalog first so resolution can see the library.
	catalogSummary, err := f.service.SyncCatalog(ctx)
	if err != nil {
		t.Fatalf("SyncCatalog: %v", err)
	}
	if catalogSummary.Added != 1 {
		t.Fatalf("expected 1 added track, got %+v", catalogSummary)
	}

	pull, err := f.service.Pull(ctx)
	if err != nil {
		t.Fatalf("Pull: %v", err)
	}
	if pull.Inserted != 3 || pull.Catalog != 1 || pull.Existing != 1 || pull.Unresolved != 1 {
		t.Fatalf("unexpected pull summary: %+v", pull)
	}

	process, err := f.service.ProcessMatches(ctx)
	if err != nil {
		t.Fatalf("ProcessMatches: %v", err)
	}
	if process.Plays != 2 || process.Processed != 2 {
		t.Fatalf("unexpected process summary: %+v", process)
	}

	home, err := f.service.Home(ctx)
	if err != nil {
		t.Fatalf("Home: %v", err)
	}
	if home.ScrobbleCount != 3 || home.MatchedCount != 2 || home.UnreviewedCount != 1 || home.PendingCount != 0 {
		t.Fatalf("unexpected home data: %+v", home)
	}

	// A second cycle with no new plays changes nothing.
	again, err := f.service.ProcessMatches(ctx)
	if err != nil {
		t.Fatalf("second ProcessMatches: %v", err)
	}
	if again.Plays != 0 || again.Processed != 0 {
		t.Fatalf("expected idempotent second pass, got %+v", again)
	}
}

func TestNextUnreviewedWithSuggestions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	testsupport.SeedPlexTrack(t, f.path, 1, "Sun Ra", "Lanquidity", "Where Pathways Meet", 3)
	if _, err := f.service.SyncCatalog(ctx); err != nil {
		t.Fatalf("SyncCatalog: %v", err)
	}
	testsupport.InsertScrobble(t, f.store, "Sun Ra", "Lanquidity", "Where Pathways Meet (Alt)", 1700000000)

	item, err := f.service.NextUnreviewed(ctx)
	if err != nil {
		t.Fatalf("NextUnreviewed: %v", err)
	}
	if item == nil {
		t.Fatal("expected a review item")
	}
	if len(item.Suggestions) == 0 {
		t.Fatal("expected at least one suggestion")
	}
	if item.Suggestions[0].Track.Track != "Where Pathways Meet" {
		t.Fatalf("unexpected top suggestion: %+v", item.Suggestions[0])
	}

	// Accept the suggestion and confirm the queue drains.
	if err := f.service.AssignMatch(ctx, item.Scrobble.ConcatKey, item.Suggestions[0].Track.ID); err != nil {
		t.Fatalf("AssignMatch: %v", err)
	}
	drained, err := f.service.NextUnreviewed(ctx)
	if err != nil {
		t.Fatalf("NextUnreviewed after match: %v", err)
	}
	if drained != nil {
		t.Fatalf("expected empty queue, got %+v", drained)
	}
}

func TestDeleteMatchesRequeuesScrobbles(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	testsupport.SeedPlexTrack(t, f.path, 1, "Terry Riley", "A Rainbow in Curved Air", "A Rainbow in Curved Air", 1)
	if _, err := f.service.SyncCatalog(ctx); err != nil {
		t.Fatalf("SyncCatalog: %v", err)
	}
	f.feed.tracks = []lastfm.Track{
		{Artist: "Terry Riley", Album: "A Rainbow in Curved Air", Name: "A Rainbow in Curved Air", PlayedAt: 1700000000},
	}
	if _, err := f.service.Pull(ctx); err != nil {
		t.Fatalf("Pull: %v", err)
	}
	if _, err := f.service.ProcessMatches(ctx); err != nil {
		t.Fatalf("ProcessMatches: %v", err)
	}

	match, err := f.store.MatchByKey(ctx, "Terry Riley --- A Rainbow in Curved Air --- A Rainbow in Curved Air")
	if err != nil || match == nil {
		t.Fatalf("MatchByKey: %+v err=%v", match, err)
	}
	if err := f.service.DeleteMatches(ctx, []int64{match.ID}); err != nil {
		t.Fatalf("DeleteMatches: %v", err)
	}

	home, err := f.service.Home(ctx)
	if err != nil {
		t.Fatalf("Home: %v", err)
	}
	if home.UnreviewedCount != 1 || home.MatchedCount != 0 {
		t.Fatalf("expected requeued scrobble, got %+v", home)
	}
}

func TestNewTracksLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	testsupport.SeedPlexTrack(t, f.path, 1, "Moondog", "Moondog", "Stamping Ground", 1)
	if _, err := f.service.SyncCatalog(ctx); err != nil {
		t.Fatalf("SyncCatalog: %v", err)
	}

	tracks, err := f.service.NewTracks(ctx)
	if err != nil {
		t.Fatalf("NewTracks: %v", err)
	}
	if len(tracks) != 1 || tracks[0].ConcatKey != "Moondog --- Moondog --- Stamping Ground" {
		t.Fatalf("unexpected new tracks: %+v", tracks)
	}

	if err := f.service.AcknowledgeNewTracks(ctx, []int64{tracks[0].AddedID}); err != nil {
		t.Fatalf("AcknowledgeNewTracks: %v", err)
	}
	remaining, err := f.service.NewTracks(ctx)
	if err != nil {
		t.Fatalf("NewTracks after ack: %v", err)
	}
	if len(remaining) != 0 {
		t.Fatalf("expected no markers, got %+v", remaining)
	}
}

func TestQueryFiltersCatalog(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	testsupport.SeedPlexTrack(t, f.path, 1, "Ryuichi Sakamoto", "async", "andata", 1)
	testsupport.SeedPlexTrack(t, f.path, 1, "Ryuichi Sakamoto", "async", "solari", 2)
	if _, err := f.service.SyncCatalog(ctx); err != nil {
		t.Fatalf("SyncCatalog: %v", err)
	}

	results, err := f.service.Query(ctx, "sakamoto andata", 30)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(results) != 1 || results[0].Track != "andata" {
		t.Fatalf("unexpected results: %+v", results)
	}
}
