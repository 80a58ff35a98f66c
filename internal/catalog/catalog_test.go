package catalog_test

import (
	"context"
	"testing"

	"hexfm/internal/catalog"
	"hexfm/internal/config"
	"hexfm/internal/ledger"
	"hexfm/internal/logging"
	"hexfm/internal/plexdb"
	"hexfm/internal/propagate"
	"hexfm/internal/testsupport"
)

type harness struct {
	cfg    *config.Config
	store  *ledger.Store
	plex   *plexdb.DB
	path   string
	syncer *catalog.Syncer
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	path := testsupport.CreatePlexFixture(t)
	cfg := testsupport.NewConfig(t, testsupport.WithPlexDBFile(path))
	store := testsupport.MustOpenStore(t, cfg)
	plex, err := plexdb.Open(cfg)
	if err != nil {
		t.Fatalf("plexdb.Open: %v", err)
	}
	t.Cleanup(func() { plex.Close() })
	prop := propagate.New(cfg, store, plex, logging.NewNop())
	return &harness{
		cfg:    cfg,
		store:  store,
		plex:   plex,
		path:   path,
		syncer: catalog.New(cfg, store, plex, prop, logging.NewNop()),
	}
}

func TestSyncAddsNewTracksWithMarkers(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	testsupport.SeedPlexTrack(t, h.path, 1, "Grouper", "Ruins", "Clearing", 2)
	testsupport.SeedPlexTrack(t, h.path, 1, "Grouper", "Ruins", "Holding", 4)

	result, err := h.syncer.Sync(ctx)
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if result.Added != 2 || result.Removed != 0 || result.Updated != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}

	tracks, err := h.store.AllTracks(ctx)
	if err != nil {
		t.Fatalf("AllTracks: %v", err)
	}
	if len(tracks) != 2 {
		t.Fatalf("expected 2 stored tracks, got %d", len(tracks))
	}
	if tracks[0].ConcatKey != "Grouper --- Ruins --- Clearing" {
		t.Fatalf("unexpected concat key %q", tracks[0].ConcatKey)
	}
	markers, err := h.store.AddedTracks(ctx)
	if err != nil {
		t.Fatalf("AddedTracks: %v", err)
	}
	if len(markers) != 2 {
		t.Fatalf("expected 2 new-track markers, got %d", len(markers))
	}
}

func TestSyncUnchangedIsStable(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	testsupport.SeedPlexTrack(t, h.path, 1, "Hiroshi Yoshimura", "Music for Nine Post Cards", "Water Copy", 1)
	if _, err := h.syncer.Sync(ctx); err != nil {
		t.Fatalf("first Sync: %v", err)
	}

	result, err := h.syncer.Sync(ctx)
	if err != nil {
		t.Fatalf("second Sync: %v", err)
	}
	if result.Added != 0 || result.Updated != 0 || result.Removed != 0 || result.Unchanged != 1 {
		t.Fatalf("expected stable snapshot, got %+v", result)
	}
}

func TestSyncRemovedTrackDissolvesMatches(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	ratingKey := testsupport.SeedPlexTrack(t, h.path, 1, "Charles Mingus", "Ah Um", "Fables of Faubus", 4)
	if _, err := h.syncer.Sync(ctx); err != nil {
		t.Fatalf("initial Sync: %v", err)
	}
	stored, err := h.store.TrackByRatingKey(ctx, ratingKey)
	if err != nil || stored == nil {
		t.Fatalf("TrackByRatingKey: %+v err=%v", stored, err)
	}

	scrobble := testsupport.InsertScrobble(t, h.store, "Charles Mingus", "Ah Um", "Fables of Faubus", 1700000000)
	match, err := h.store.CreateMatch(ctx, scrobble.ConcatKey, stored.ID)
	if err != nil {
		t.Fatalf("CreateMatch: %v", err)
	}
	if err := h.store.BindMatch(ctx, scrobble.ID, match.ID, ledger.StatusMatched); err != nil {
		t.Fatalf("BindMatch: %v", err)
	}

	// Empty the library and resync: the track leaves, matches dissolve.
	wipeFixtureTracks(t, h.path)
	result, err := h.syncer.Sync(ctx)
	if err != nil {
		t.Fatalf("Sync after removal: %v", err)
	}
	if result.Removed != 1 {
		t.Fatalf("expected 1 removal, got %+v", result)
	}

	requeued, err := h.store.ScrobbleByID(ctx, scrobble.ID)
	if err != nil {
		t.Fatalf("ScrobbleByID: %v", err)
	}
	if requeued.MatchID != 0 || requeued.Status != ledger.StatusUnreviewed {
		t.Fatalf("expected requeued scrobble, got %+v", requeued)
	}
	if gone, err := h.store.TrackByRatingKey(ctx, ratingKey); err != nil || gone != nil {
		t.Fatalf("expected stored track deleted, got %+v err=%v", gone, err)
	}
	markers, err := h.store.AddedTracks(ctx)
	if err != nil {
		t.Fatalf("AddedTracks: %v", err)
	}
	if len(markers) != 0 {
		t.Fatalf("expected markers swept with the track, got %+v", markers)
	}
}

func TestSyncUpdatedTrackInvalidatesMatch(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	ratingKey := testsupport.SeedPlexTrack(t, h.path, 1, "Alice Coltrane", "Journey in Satchidananda", "Shiva-Loka", 2)
	if _, err := h.syncer.Sync(ctx); err != nil {
		t.Fatalf("initial Sync: %v", err)
	}
	stored, err := h.store.TrackByRatingKey(ctx, ratingKey)
	if err != nil || stored == nil {
		t.Fatalf("TrackByRatingKey: %+v err=%v", stored, err)
	}

	scrobble := testsupport.InsertScrobble(t, h.store, "Alice Coltrane", "Journey in Satchidananda", "Shiva-Loka", 1700000000)
	match, err := h.store.CreateMatch(ctx, scrobble.ConcatKey, stored.ID)
	if err != nil {
		t.Fatalf("CreateMatch: %v", err)
	}
	if err := h.store.BindMatch(ctx, scrobble.ID, match.ID, ledger.StatusMatched); err != nil {
		t.Fatalf("BindMatch: %v", err)
	}

	renameFixtureTrack(t, h.path, ratingKey, "Shiva-Loka (Remastered)")
	result, err := h.syncer.Sync(ctx)
	if err != nil {
		t.Fatalf("Sync after edit: %v", err)
	}
	if result.Updated != 1 || result.Removed != 0 || result.Added != 0 {
		t.Fatalf("expected 1 update, got %+v", result)
	}

	// The row survives under the same rating key with fresh fields, but the
	// old decision is gone and the play is queued again.
	refreshed, err := h.store.TrackByRatingKey(ctx, ratingKey)
	if err != nil || refreshed == nil {
		t.Fatalf("TrackByRatingKey after edit: %+v err=%v", refreshed, err)
	}
	if refreshed.Track != "Shiva-Loka (Remastered)" {
		t.Fatalf("expected renamed track, got %q", refreshed.Track)
	}
	if still, err := h.store.MatchByID(ctx, match.ID); err != nil || still != nil {
		t.Fatalf("expected match dissolved, got %+v err=%v", still, err)
	}
	requeued, err := h.store.ScrobbleByID(ctx, scrobble.ID)
	if err != nil {
		t.Fatalf("ScrobbleByID: %v", err)
	}
	if requeued.Status != ledger.StatusUnreviewed {
		t.Fatalf("expected requeued scrobble, got %+v", requeued)
	}
}

func TestSyncSweepsOrphanMatches(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	if _, err := h.store.CreateMatch(ctx, "Nobody --- Nothing --- Never", 0); err != nil {
		t.Fatalf("CreateMatch: %v", err)
	}
	result, err := h.syncer.Sync(ctx)
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if result.OrphanMatches != 1 {
		t.Fatalf("expected 1 orphan swept, got %+v", result)
	}
}
