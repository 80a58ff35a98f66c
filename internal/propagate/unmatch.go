package propagate

import (
	"context"
	"fmt"

	"hexfm/internal/ledger"
)

// withdrawPlay deletes the propagated play for one processed scrobble and
// decrements the counter chain. The guids slice carries the chain to adjust;
// when empty it is derived from the stored track.
func (p *Propagator) withdrawPlay(ctx context.Context, scrobble ledger.Scrobble, track ledger.CatalogTrack, guids []string) error {
	if len(guids) == 0 {
		guids = track.GUIDChain()
	}
	if _, err := p.plex.DeleteOnePlay(ctx, p.accountID, track.GUID, scrobble.PlayedAt); err != nil {
		return err
	}
	for _, guid := range guids {
		if guid == "" {
			continue
		}
		if err := p.plex.AdjustCount(ctx, p.accountID, guid, -1); err != nil {
			return err
		}
	}
	return nil
}

// UnbindMatch withdraws any propagated plays for the match's processed
// scrobbles, returns every linked scrobble to the review queue, and deletes
// the match itself. The guids slice overrides the counter chain to adjust,
// for callers holding fresher GUIDs than the stored track.
func (p *Propagator) UnbindMatch(ctx context.Context, matchID int64, guids []string) error {
	match, err := p.store.MatchByID(ctx, matchID)
	if err != nil {
		return err
	}
	if match == nil {
		return fmt.Errorf("unbind match: match %d not found", matchID)
	}

	var track *ledger.CatalogTrack
	if match.HasTrack() {
		track, err = p.store.TrackByID(ctx, match.PlexID)
		if err != nil {
			return err
		}
	}

	scrobbles, err := p.store.ScrobblesForMatch(ctx, match.ID)
	if err != nil {
		return err
	}
	for _, scrobble := range scrobbles {
		if scrobble.Status == ledger.StatusProcessed && track != nil {
			if err := p.withdrawPlay(ctx, scrobble, *track, guids); err != nil {
				return err
			}
		}
		if err := p.store.ClearMatch(ctx, scrobble.ID); err != nil {
			return err
		}
	}
	if err := p.store.DeleteMatch(ctx, match.ID); err != nil {
		return err
	}

	p.logger.Info("match unbound", "match", matchID, "scrobbles", len(scrobbles))
	return nil
}

// CascadeUnmatch unbinds every match pointing at the catalog track with the
// given rating key. When deleteTrack is set the track row and its new-track
// markers are removed too, for tracks that left the library. The guids slice
// overrides the counter chain, used when the track's GUIDs just changed and
// the Plex side already carries the new ones.
func (p *Propagator) CascadeUnmatch(ctx context.Context, ratingKey int64, deleteTrack bool, guids []string) error {
	track, err := p.store.TrackByRatingKey(ctx, ratingKey)
	if err != nil {
		return err
	}
	if track == nil {
		// Never recorded, so nothing can be bound to it.
		p.logger.Debug("cascade unmatch skipped, rating key unknown", "rating_key", ratingKey)
		return nil
	}

	matches, err := p.store.MatchesForPlexID(ctx, track.ID)
	if err != nil {
		return err
	}
	for _, match := range matches {
		if err := p.UnbindMatch(ctx, match.ID, guids); err != nil {
			return err
		}
	}

	if deleteTrack {
		if err := p.store.DeleteAddedTracksByRatingKey(ctx, ratingKey); err != nil {
			return err
		}
		if err := p.store.DeleteTrackByRatingKey(ctx, ratingKey); err != nil {
			return err
		}
	}
	return nil
}
