package propagate

import (
	"context"
	"fmt"
	"log/slog"

	"hexfm/internal/config"
	"hexfm/internal/ledger"
	"hexfm/internal/logging"
	"hexfm/internal/plexdb"
)

// Propagator moves play counts between the ledger and the Plex database.
// Forward turns matched scrobbles into Plex play history; Reverse folds plays
// Plex clients logged natively back out so forward aggregation stays the
// single source of truth. Reverse always runs before Forward in a sync pass.
type Propagator struct {
	store      *ledger.Store
	plex       *plexdb.DB
	accountID  int64
	sectionID  int64
	deviceName string
	logger     *slog.Logger
}

// New builds a propagator.
func New(cfg *config.Config, store *ledger.Store, plex *plexdb.DB, logger *slog.Logger) *Propagator {
	return &Propagator{
		store:      store,
		plex:       plex,
		accountID:  cfg.Account.PlexAccountID,
		sectionID:  cfg.Account.PlexLibrarySectionID,
		deviceName: cfg.Account.DeviceName,
		logger:     logging.WithComponent(logger, "propagate"),
	}
}

// ForwardResult summarizes one forward propagation pass.
type ForwardResult struct {
	Plays     int
	Tracks    int
	Albums    int
	Artists   int
	Processed int
}

// Forward writes every matched scrobble into the Plex play history under the
// tool's own device, then overwrites the per-GUID counters at track, album,
// and artist level with totals aggregated from the whole ledger. Overwriting
// rather than incrementing keeps repeated passes idempotent.
func (p *Propagator) Forward(ctx context.Context) (ForwardResult, error) {
	deviceID, err := p.plex.EnsureDevice(ctx, p.deviceName)
	if err != nil {
		return ForwardResult{}, fmt.Errorf("ensure device: %w", err)
	}

	pending, err := p.store.ScrobblesByStatus(ctx, ledger.StatusMatched)
	if err != nil {
		return ForwardResult{}, fmt.Errorf("list pending: %w", err)
	}
	if len(pending) == 0 {
		return ForwardResult{}, nil
	}

	var (
		result      ForwardResult
		scrobbleIDs []int64
		plexIDSet   = make(map[int64]struct{})
	)
	for _, scrobble := range pending {
		match, err := p.store.MatchByID(ctx, scrobble.MatchID)
		if err != nil {
			return result, err
		}
		if match == nil || !match.HasTrack() {
			return result, fmt.Errorf("scrobble %d: %w", scrobble.ID, ledger.ErrInconsistent)
		}
		track, err := p.store.TrackByID(ctx, match.PlexID)
		if err != nil {
			return result, err
		}
		if track == nil {
			return result, fmt.Errorf("match %d track row %d: %w", match.ID, match.PlexID, ledger.ErrInconsistent)
		}

		if err := p.plex.InsertPlay(ctx, plexdb.PlayRow{
			AccountID:        p.accountID,
			GUID:             track.GUID,
			MetadataType:     plexdb.TypeTrack,
			LibrarySectionID: p.sectionID,
			GrandparentTitle: track.Artist,
			ParentIndex:      track.ParentIndex,
			ParentTitle:      track.Album,
			Index:            track.TrackIndex,
			Title:            track.Track,
			ViewedAt:         scrobble.PlayedAt,
			GrandparentGUID:  track.GrandparentGUID,
			DeviceID:         deviceID,
		}); err != nil {
			return result, err
		}
		result.Plays++
		scrobbleIDs = append(scrobbleIDs, scrobble.ID)
		plexIDSet[track.ID] = struct{}{}
	}

	plexIDs := make([]int64, 0, len(plexIDSet))
	for id := range plexIDSet {
		plexIDs = append(plexIDs, id)
	}

	trackAggs, err := p.store.AggregateTrackPlays(ctx, plexIDs)
	if err != nil {
		return result, err
	}
	albumAggs, err := p.store.AggregateAlbumPlays(ctx, plexIDs)
	if err != nil {
		return result, err
	}
	artistAggs, err := p.store.AggregateArtistPlays(ctx, plexIDs)
	if err != nil {
		return result, err
	}
	result.Tracks = len(trackAggs)
	result.Albums = len(albumAggs)
	result.Artists = len(artistAggs)

	all := make([]ledger.PlayAggregate, 0, len(trackAggs)+len(albumAggs)+len(artistAggs))
	all = append(all, trackAggs...)
	all = append(all, albumAggs...)
	all = append(all, artistAggs...)
	for _, agg := range all {
		if agg.GUID == "" {
			continue
		}
		if err := p.plex.EnsureSetting(ctx, p.accountID, agg.GUID); err != nil {
			return result, err
		}
		if err := p.plex.SetCounts(ctx, p.accountID, agg.GUID, agg.Count, agg.LastPlayedAt); err != nil {
			return result, err
		}
	}

	if err := p.store.MarkProcessed(ctx, scrobbleIDs); err != nil {
		return result, err
	}
	result.Processed = len(scrobbleIDs)

	p.logger.Info("forward propagation complete",
		"plays", result.Plays,
		"tracks", result.Tracks,
		"albums", result.Albums,
		"artists", result.Artists,
	)
	return result, nil
}

// ReverseResult summarizes one reverse reconciliation pass.
type ReverseResult struct {
	OrphanSettings int64
	FoldedPlays    int
	SkippedAlbums  int
}

// Reverse removes play rows that Plex clients recorded natively, decrementing
// the counter chain for each before deleting the row. Those plays reach
// last.fm through Plex's own scrobbling and come back through ingestion, so
// forward propagation re-counts them; leaving them in place would double
// count. Counter rows whose metadata vanished are swept first.
func (p *Propagator) Reverse(ctx context.Context) (ReverseResult, error) {
	deviceID, err := p.plex.EnsureDevice(ctx, p.deviceName)
	if err != nil {
		return ReverseResult{}, fmt.Errorf("ensure device: %w", err)
	}

	var result ReverseResult
	result.OrphanSettings, err = p.plex.DeleteOrphanSettings(ctx, p.accountID)
	if err != nil {
		return result, err
	}

	foreign, err := p.plex.ForeignPlays(ctx, p.accountID, deviceID)
	if err != nil {
		return result, err
	}

	for _, play := range foreign {
		if err := p.plex.AdjustCount(ctx, p.accountID, play.GUID, -1); err != nil {
			return result, err
		}
		parentGUID, found, err := p.store.LookupParentGUID(ctx, play.GUID, play.GrandparentGUID, play.ParentTitle)
		if err != nil {
			return result, err
		}
		if found {
			if err := p.plex.AdjustCount(ctx, p.accountID, parentGUID, -1); err != nil {
				return result, err
			}
		} else {
			// The stored snapshot no longer carries this track, so the album
			// link cannot be rebuilt from the history row alone.
			result.SkippedAlbums++
			p.logger.Warn("album counter not adjusted for unlinked play",
				"guid", play.GUID,
				"album", play.ParentTitle,
			)
		}
		if play.GrandparentGUID != "" {
			if err := p.plex.AdjustCount(ctx, p.accountID, play.GrandparentGUID, -1); err != nil {
				return result, err
			}
		}
		if err := p.plex.DeletePlay(ctx, play.ID); err != nil {
			return result, err
		}
		result.FoldedPlays++
	}

	p.logger.Info("reverse reconciliation complete",
		"orphan_settings", result.OrphanSettings,
		"folded_plays", result.FoldedPlays,
		"skipped_albums", result.SkippedAlbums,
	)
	return result, nil
}
