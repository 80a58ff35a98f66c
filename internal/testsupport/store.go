package testsupport

import (
	"context"
	"testing"

	"hexfm/internal/config"
	"hexfm/internal/identity"
	"hexfm/internal/ledger"
)

// MustOpenStore opens a ledger.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *ledger.Store {
	t.Helper()

	store, err := ledger.Open(cfg)
	if err != nil {
		t.Fatalf("ledger.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewScrobble builds a scrobble with a derived concat key and content hash.
func NewScrobble(artist, album, track string, playedAt int64) ledger.Scrobble {
	return ledger.Scrobble{
		ConcatKey: identity.ConcatKey(artist, album, track),
		Artist:    artist,
		Album:     album,
		Track:     track,
		PlayedAt:  playedAt,
		Hash:      identity.ContentHash(artist, album, track, playedAt),
	}
}

// InsertScrobble persists one scrobble and returns its stored form.
func InsertScrobble(t testing.TB, store *ledger.Store, artist, album, track string, playedAt int64) ledger.Scrobble {
	t.Helper()

	scrobble := NewScrobble(artist, album, track, playedAt)
	if _, err := store.InsertScrobbles(context.Background(), []ledger.Scrobble{scrobble}); err != nil {
		t.Fatalf("store.InsertScrobbles: %v", err)
	}
	stored, err := store.Unreviewed(context.Background())
	if err != nil {
		t.Fatalf("store.Unreviewed: %v", err)
	}
	for _, s := range stored {
		if s.Hash == scrobble.Hash {
			return s
		}
	}
	t.Fatalf("scrobble %q not found after insert", scrobble.ConcatKey)
	return ledger.Scrobble{}
}

// NewCatalogTrack builds a catalog track with GUIDs derived from its fields.
func NewCatalogTrack(ratingKey int64, artist, album, track string) ledger.CatalogTrack {
	return ledger.CatalogTrack{
		RatingKey:       ratingKey,
		ConcatKey:       identity.ConcatKey(artist, album, track),
		Artist:          artist,
		ArtistFeat:      artist,
		GrandparentGUID: "plex://artist/" + artist,
		Album:           album,
		ParentGUID:      "plex://album/" + artist + "/" + album,
		ParentIndex:     1,
		Track:           track,
		TrackIndex:      1,
		GUID:            "plex://track/" + artist + "/" + album + "/" + track,
	}
}

// UpsertTrack persists a catalog track and returns the stored row.
func UpsertTrack(t testing.TB, store *ledger.Store, track ledger.CatalogTrack) ledger.CatalogTrack {
	t.Helper()

	if err := store.UpsertTrack(context.Background(), track); err != nil {
		t.Fatalf("store.UpsertTrack: %v", err)
	}
	stored, err := store.TrackByRatingKey(context.Background(), track.RatingKey)
	if err != nil {
		t.Fatalf("store.TrackByRatingKey: %v", err)
	}
	if stored == nil {
		t.Fatalf("track %d not found after upsert", track.RatingKey)
	}
	return *stored
}
