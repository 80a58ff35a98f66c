package ledger_test

import (
	"context"
	"testing"

	"hexfm/internal/ledger"
	"hexfm/internal/testsupport"
)

func TestInsertScrobblesDeduplicatesByHash(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	batch := []ledger.Scrobble{
		testsupport.NewScrobble("Boards of Canada", "Geogaddi", "1969", 1700000000),
		testsupport.NewScrobble("Boards of Canada", "Geogaddi", "1969", 1700000600),
	}

	inserted, err := store.InsertScrobbles(ctx, batch)
	if err != nil {
		t.Fatalf("InsertScrobbles: %v", err)
	}
	if inserted != 2 {
		t.Fatalf("expected 2 inserted, got %d", inserted)
	}

	// Replaying the same batch must not create new rows.
	inserted, err = store.InsertScrobbles(ctx, batch)
	if err != nil {
		t.Fatalf("InsertScrobbles replay: %v", err)
	}
	if inserted != 0 {
		t.Fatalf("expected replay to insert 0, got %d", inserted)
	}

	unreviewed, err := store.Unreviewed(ctx)
	if err != nil {
		t.Fatalf("Unreviewed: %v", err)
	}
	if len(unreviewed) != 2 {
		t.Fatalf("expected 2 unreviewed, got %d", len(unreviewed))
	}
}

func TestInsertScrobblesPreservesOrder(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	batch := []ledger.Scrobble{
		testsupport.NewScrobble("Low", "Things We Lost in the Fire", "Sunflower", 1700000100),
		testsupport.NewScrobble("Low", "Things We Lost in the Fire", "Dinosaur Act", 1700000400),
		testsupport.NewScrobble("Low", "Things We Lost in the Fire", "In Metal", 1700000700),
	}
	if _, err := store.InsertScrobbles(ctx, batch); err != nil {
		t.Fatalf("InsertScrobbles: %v", err)
	}

	unreviewed, err := store.Unreviewed(ctx)
	if err != nil {
		t.Fatalf("Unreviewed: %v", err)
	}
	if len(unreviewed) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(unreviewed))
	}
	for i, scrobble := range unreviewed {
		if scrobble.Track != batch[i].Track {
			t.Fatalf("row %d: expected %q, got %q", i, batch[i].Track, scrobble.Track)
		}
		if i > 0 && unreviewed[i].ID <= unreviewed[i-1].ID {
			t.Fatalf("ids not monotonic: %d then %d", unreviewed[i-1].ID, unreviewed[i].ID)
		}
	}
}

func TestMatchByKeyIsCaseInsensitive(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	created, err := store.CreateMatch(ctx, "Autechre --- Amber --- Foil", 7)
	if err != nil {
		t.Fatalf("CreateMatch: %v", err)
	}

	found, err := store.MatchByKey(ctx, "autechre --- amber --- foil")
	if err != nil {
		t.Fatalf("MatchByKey: %v", err)
	}
	if found == nil {
		t.Fatal("expected case-insensitive lookup to find match")
	}
	if found.ID != created.ID {
		t.Fatalf("expected match %d, got %d", created.ID, found.ID)
	}
}

func TestCreateMatchOverwritesExistingKey(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	first, err := store.CreateMatch(ctx, "Fugazi --- Repeater --- Merchandise", 3)
	if err != nil {
		t.Fatalf("CreateMatch: %v", err)
	}
	second, err := store.CreateMatch(ctx, "Fugazi --- Repeater --- Merchandise", 9)
	if err != nil {
		t.Fatalf("CreateMatch overwrite: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("expected overwrite to reuse row %d, got %d", first.ID, second.ID)
	}
	if second.PlexID != 9 {
		t.Fatalf("expected plex id 9, got %d", second.PlexID)
	}
}

func TestNoMatchSentinelIsNotATrack(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	match, err := store.CreateMatch(ctx, "Unknown Artist --- Bootleg --- Untitled", ledger.NoMatchPlexID)
	if err != nil {
		t.Fatalf("CreateMatch: %v", err)
	}
	if match.HasTrack() {
		t.Fatal("sentinel match must not report a track")
	}
}

func TestBindAndClearMatch(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	scrobble := testsupport.InsertScrobble(t, store, "Neko Case", "Blacklisted", "Deep Red Bells", 1700001000)
	match, err := store.CreateMatch(ctx, scrobble.ConcatKey, 4)
	if err != nil {
		t.Fatalf("CreateMatch: %v", err)
	}

	if err := store.BindMatch(ctx, scrobble.ID, match.ID, ledger.StatusMatched); err != nil {
		t.Fatalf("BindMatch: %v", err)
	}

	bound, err := store.ScrobbleByID(ctx, scrobble.ID)
	if err != nil {
		t.Fatalf("ScrobbleByID: %v", err)
	}
	if bound.MatchID != match.ID || bound.Status != ledger.StatusMatched {
		t.Fatalf("expected bound matched scrobble, got match_id=%d status=%q", bound.MatchID, bound.Status)
	}

	if err := store.ClearMatch(ctx, scrobble.ID); err != nil {
		t.Fatalf("ClearMatch: %v", err)
	}
	cleared, err := store.ScrobbleByID(ctx, scrobble.ID)
	if err != nil {
		t.Fatalf("ScrobbleByID after clear: %v", err)
	}
	if cleared.MatchID != 0 || cleared.Status != ledger.StatusUnreviewed {
		t.Fatalf("expected cleared scrobble, got match_id=%d status=%q", cleared.MatchID, cleared.Status)
	}
}

func TestBindMatchByKeyCoversAllPlays(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	first := testsupport.InsertScrobble(t, store, "Portishead", "Dummy", "Roads", 1700002000)
	testsupport.InsertScrobble(t, store, "Portishead", "Dummy", "Roads", 1700002600)
	testsupport.InsertScrobble(t, store, "Portishead", "Dummy", "Glory Box", 1700003000)

	match, err := store.CreateMatch(ctx, first.ConcatKey, 11)
	if err != nil {
		t.Fatalf("CreateMatch: %v", err)
	}
	updated, err := store.BindMatchByKey(ctx, first.ConcatKey, match.ID, ledger.StatusMatched)
	if err != nil {
		t.Fatalf("BindMatchByKey: %v", err)
	}
	if updated != 2 {
		t.Fatalf("expected 2 bound scrobbles, got %d", updated)
	}

	linked, err := store.ScrobblesForMatch(ctx, match.ID)
	if err != nil {
		t.Fatalf("ScrobblesForMatch: %v", err)
	}
	if len(linked) != 2 {
		t.Fatalf("expected 2 linked scrobbles, got %d", len(linked))
	}
}

func TestMarkProcessed(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	scrobble := testsupport.InsertScrobble(t, store, "Can", "Ege Bamyasi", "Vitamin C", 1700004000)
	match, err := store.CreateMatch(ctx, scrobble.ConcatKey, 5)
	if err != nil {
		t.Fatalf("CreateMatch: %v", err)
	}
	if err := store.BindMatch(ctx, scrobble.ID, match.ID, ledger.StatusMatched); err != nil {
		t.Fatalf("BindMatch: %v", err)
	}
	if err := store.MarkProcessed(ctx, []int64{scrobble.ID}); err != nil {
		t.Fatalf("MarkProcessed: %v", err)
	}

	processed, err := store.ScrobblesByStatus(ctx, ledger.StatusProcessed)
	if err != nil {
		t.Fatalf("ScrobblesByStatus: %v", err)
	}
	if len(processed) != 1 || processed[0].ID != scrobble.ID {
		t.Fatalf("expected scrobble %d processed, got %+v", scrobble.ID, processed)
	}
}

func TestDeleteOrphanMatches(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	scrobble := testsupport.InsertScrobble(t, store, "Wilco", "Yankee Hotel Foxtrot", "Jesus, Etc.", 1700005000)
	kept, err := store.CreateMatch(ctx, scrobble.ConcatKey, 2)
	if err != nil {
		t.Fatalf("CreateMatch kept: %v", err)
	}
	if err := store.BindMatch(ctx, scrobble.ID, kept.ID, ledger.StatusMatched); err != nil {
		t.Fatalf("BindMatch: %v", err)
	}
	orphan, err := store.CreateMatch(ctx, "Wilco --- A Ghost Is Born --- Hummingbird", 8)
	if err != nil {
		t.Fatalf("CreateMatch orphan: %v", err)
	}

	removed, err := store.DeleteOrphanMatches(ctx)
	if err != nil {
		t.Fatalf("DeleteOrphanMatches: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 orphan removed, got %d", removed)
	}
	if still, err := store.MatchByID(ctx, orphan.ID); err != nil || still != nil {
		t.Fatalf("expected orphan gone, got %+v err=%v", still, err)
	}
	if remaining, err := store.MatchByID(ctx, kept.ID); err != nil || remaining == nil {
		t.Fatalf("expected kept match to survive, got %+v err=%v", remaining, err)
	}
}

func TestUpsertTrackReplacesDisplayFields(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	track := testsupport.UpsertTrack(t, store, testsupport.NewCatalogTrack(100, "Slowdive", "Souvlaki", "Alison"))

	renamed := track
	renamed.Track = "Alison (Remastered)"
	renamed.GUID = "plex://track/slowdive/souvlaki/alison-remaster"
	if err := store.UpsertTrack(ctx, renamed); err != nil {
		t.Fatalf("UpsertTrack: %v", err)
	}

	stored, err := store.TrackByRatingKey(ctx, 100)
	if err != nil {
		t.Fatalf("TrackByRatingKey: %v", err)
	}
	if stored.ID != track.ID {
		t.Fatalf("expected upsert to reuse row %d, got %d", track.ID, stored.ID)
	}
	if stored.Track != "Alison (Remastered)" {
		t.Fatalf("expected updated title, got %q", stored.Track)
	}
	if stored.SameIdentity(track) {
		t.Fatal("expected identity comparison to detect the change")
	}
}

func TestSearchTracksMatchesEveryTerm(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	testsupport.UpsertTrack(t, store, testsupport.NewCatalogTrack(1, "Yo La Tengo", "I Can Hear the Heart Beating as One", "Autumn Sweater"))
	testsupport.UpsertTrack(t, store, testsupport.NewCatalogTrack(2, "Yo La Tengo", "Painful", "Big Day Coming"))
	testsupport.UpsertTrack(t, store, testsupport.NewCatalogTrack(3, "Galaxie 500", "On Fire", "Blue Thunder"))

	results, err := store.SearchTracks(ctx, []string{"yo la", "painful"}, 10)
	if err != nil {
		t.Fatalf("SearchTracks: %v", err)
	}
	if len(results) != 1 || results[0].RatingKey != 2 {
		t.Fatalf("expected only rating key 2, got %+v", results)
	}
}

func TestAggregatePlaysPullsInSiblings(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	alison := testsupport.UpsertTrack(t, store, testsupport.NewCatalogTrack(201, "Slowdive", "Souvlaki", "Alison"))
	machineGun := testsupport.UpsertTrack(t, store, testsupport.NewCatalogTrack(202, "Slowdive", "Souvlaki", "Souvlaki Space Station"))

	bind := func(track ledger.CatalogTrack, playedAt int64) {
		scrobble := testsupport.InsertScrobble(t, store, track.Artist, track.Album, track.Track, playedAt)
		match, err := store.CreateMatch(ctx, scrobble.ConcatKey, track.ID)
		if err != nil {
			t.Fatalf("CreateMatch: %v", err)
		}
		if err := store.BindMatch(ctx, scrobble.ID, match.ID, ledger.StatusMatched); err != nil {
			t.Fatalf("BindMatch: %v", err)
		}
	}
	bind(alison, 1700006000)
	bind(alison, 1700006600)
	bind(machineGun, 1700007000)

	// Track aggregation only covers the requested rows.
	trackAggs, err := store.AggregateTrackPlays(ctx, []int64{alison.ID})
	if err != nil {
		t.Fatalf("AggregateTrackPlays: %v", err)
	}
	if len(trackAggs) != 1 || trackAggs[0].Count != 2 || trackAggs[0].LastPlayedAt != 1700006600 {
		t.Fatalf("unexpected track aggregates: %+v", trackAggs)
	}

	// Album aggregation spans sibling tracks sharing the album GUID.
	albumAggs, err := store.AggregateAlbumPlays(ctx, []int64{alison.ID})
	if err != nil {
		t.Fatalf("AggregateAlbumPlays: %v", err)
	}
	if len(albumAggs) != 1 || albumAggs[0].Count != 3 {
		t.Fatalf("unexpected album aggregates: %+v", albumAggs)
	}
	if albumAggs[0].GUID != alison.ParentGUID {
		t.Fatalf("expected album guid %q, got %q", alison.ParentGUID, albumAggs[0].GUID)
	}

	artistAggs, err := store.AggregateArtistPlays(ctx, []int64{machineGun.ID})
	if err != nil {
		t.Fatalf("AggregateArtistPlays: %v", err)
	}
	if len(artistAggs) != 1 || artistAggs[0].Count != 3 {
		t.Fatalf("unexpected artist aggregates: %+v", artistAggs)
	}
}

func TestAddedTrackLifecycle(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	if err := store.InsertAddedTrack(ctx, 301); err != nil {
		t.Fatalf("InsertAddedTrack: %v", err)
	}
	if err := store.InsertAddedTrack(ctx, 302); err != nil {
		t.Fatalf("InsertAddedTrack: %v", err)
	}

	added, err := store.AddedTracks(ctx)
	if err != nil {
		t.Fatalf("AddedTracks: %v", err)
	}
	if len(added) != 2 {
		t.Fatalf("expected 2 markers, got %d", len(added))
	}

	if err := store.DeleteAddedTrack(ctx, added[0].ID); err != nil {
		t.Fatalf("DeleteAddedTrack: %v", err)
	}
	if err := store.DeleteAddedTracksByRatingKey(ctx, 302); err != nil {
		t.Fatalf("DeleteAddedTracksByRatingKey: %v", err)
	}
	remaining, err := store.AddedTracks(ctx)
	if err != nil {
		t.Fatalf("AddedTracks after delete: %v", err)
	}
	if len(remaining) != 0 {
		t.Fatalf("expected no markers, got %+v", remaining)
	}
}

func TestStats(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	track := testsupport.UpsertTrack(t, store, testsupport.NewCatalogTrack(401, "Broadcast", "Tender Buttons", "Black Cat"))
	scrobble := testsupport.InsertScrobble(t, store, "Broadcast", "Tender Buttons", "Black Cat", 1700008000)
	testsupport.InsertScrobble(t, store, "Broadcast", "Tender Buttons", "Corporeal", 1700008600)

	match, err := store.CreateMatch(ctx, scrobble.ConcatKey, track.ID)
	if err != nil {
		t.Fatalf("CreateMatch: %v", err)
	}
	if err := store.BindMatch(ctx, scrobble.ID, match.ID, ledger.StatusMatched); err != nil {
		t.Fatalf("BindMatch: %v", err)
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Scrobbles != 2 || stats.Matched != 1 || stats.Unreviewed != 1 || stats.CatalogSize != 1 || stats.PendingPlays != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestReopenExistingDatabase(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	path := store.Path()
	testsupport.InsertScrobble(t, store, "Stereolab", "Dots and Loops", "Rainbo Conversation", 1700009000)
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := ledger.OpenPath(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	stats, err := reopened.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Scrobbles != 1 {
		t.Fatalf("expected persisted scrobble, got %+v", stats)
	}
}
