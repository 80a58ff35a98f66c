package catalog

import (
	"context"
	"fmt"
	"log/slog"

	"hexfm/internal/config"
	"hexfm/internal/identity"
	"hexfm/internal/ledger"
	"hexfm/internal/logging"
	"hexfm/internal/plexdb"
)

// Unmatcher dissolves every match bound to a catalog track. Satisfied by
// propagate.Propagator.
type Unmatcher interface {
	CascadeUnmatch(ctx context.Context, ratingKey int64, deleteTrack bool, guids []string) error
}

// Syncer reconciles the stored catalog snapshot with the live Plex library.
type Syncer struct {
	store     *ledger.Store
	plex      *plexdb.DB
	unmatcher Unmatcher
	sectionID int64
	logger    *slog.Logger
}

// New builds a syncer.
func New(cfg *config.Config, store *ledger.Store, plex *plexdb.DB, unmatcher Unmatcher, logger *slog.Logger) *Syncer {
	return &Syncer{
		store:     store,
		plex:      plex,
		unmatcher: unmatcher,
		sectionID: cfg.Account.PlexLibrarySectionID,
		logger:    logging.WithComponent(logger, "catalog"),
	}
}

// Result summarizes one catalog sync pass.
type Result struct {
	OrphanMatches int64
	Updated       int
	Removed       int
	Added         int
	Unchanged     int
}

// Sync diffs the live library against the stored snapshot by rating key and
// applies the three partitions in order: changed rows first, then removed,
// then added. Any change to a row's fields dissolves its matches before the
// new row lands, so stale decisions never survive a metadata edit. Orphaned
// matches are swept before diffing.
func (s *Syncer) Sync(ctx context.Context) (Result, error) {
	var result Result

	orphans, err := s.store.DeleteOrphanMatches(ctx)
	if err != nil {
		return result, err
	}
	result.OrphanMatches = orphans

	live, err := s.plex.LoadSnapshot(ctx, s.sectionID)
	if err != nil {
		return result, fmt.Errorf("load library snapshot: %w", err)
	}
	stored, err := s.store.AllTracks(ctx)
	if err != nil {
		return result, fmt.Errorf("load stored snapshot: %w", err)
	}

	liveByKey := make(map[int64]ledger.CatalogTrack, len(live))
	for _, track := range live {
		liveByKey[track.RatingKey] = Convert(track)
	}
	storedByKey := make(map[int64]ledger.CatalogTrack, len(stored))
	for _, track := range stored {
		storedByKey[track.RatingKey] = track
	}

	// Changed rows: unmatch against the fresh GUID chain, then overwrite.
	for ratingKey, incoming := range liveByKey {
		existing, ok := storedByKey[ratingKey]
		if !ok {
			continue
		}
		if existing.SameIdentity(incoming) {
			result.Unchanged++
			continue
		}
		chain := []string{incoming.GrandparentGUID, incoming.ParentGUID, incoming.GUID}
		if err := s.unmatcher.CascadeUnmatch(ctx, ratingKey, false, chain); err != nil {
			return result, fmt.Errorf("unmatch updated track %d: %w", ratingKey, err)
		}
		if err := s.store.UpsertTrack(ctx, incoming); err != nil {
			return result, err
		}
		result.Updated++
	}

	// Removed rows: dissolve matches and drop the row with its markers.
	for ratingKey := range storedByKey {
		if _, ok := liveByKey[ratingKey]; ok {
			continue
		}
		if err := s.unmatcher.CascadeUnmatch(ctx, ratingKey, true, nil); err != nil {
			return result, fmt.Errorf("unmatch removed track %d: %w", ratingKey, err)
		}
		result.Removed++
	}

	// Added rows: store and mark for review.
	for ratingKey, incoming := range liveByKey {
		if _, ok := storedByKey[ratingKey]; ok {
			continue
		}
		if err := s.store.InsertAddedTrack(ctx, ratingKey); err != nil {
			return result, err
		}
		if err := s.store.UpsertTrack(ctx, incoming); err != nil {
			return result, err
		}
		result.Added++
	}

	s.logger.Info("catalog sync complete",
		"orphan_matches", result.OrphanMatches,
		"updated", result.Updated,
		"removed", result.Removed,
		"added", result.Added,
		"unchanged", result.Unchanged,
	)
	return result, nil
}

// Convert derives a ledger catalog track from a library row. The concat key
// uses the per-track credited artist so featurings line up with how the
// remote feed names them.
func Convert(track plexdb.Track) ledger.CatalogTrack {
	return ledger.CatalogTrack{
		RatingKey:       track.RatingKey,
		ConcatKey:       identity.ConcatKey(track.ArtistFeat, track.Album, track.Track),
		Artist:          track.Artist,
		ArtistFeat:      track.ArtistFeat,
		GrandparentGUID: track.GrandparentGUID,
		Album:           track.Album,
		ParentGUID:      track.ParentGUID,
		ParentIndex:     track.ParentIndex,
		Track:           track.Track,
		TrackIndex:      track.TrackIndex,
		GUID:            track.GUID,
	}
}
