package matching

import (
	"context"
	"fmt"
	"log/slog"

	"hexfm/internal/ledger"
	"hexfm/internal/logging"
)

// Outcome classifies how a scrobble was resolved.
type Outcome string

const (
	// OutcomeExistingMatch means a prior decision for the key was reused.
	OutcomeExistingMatch Outcome = "existing"
	// OutcomeCatalogMatch means the key matched a catalog track exactly.
	OutcomeCatalogMatch Outcome = "catalog"
	// OutcomeUnresolved means the scrobble stays queued for manual review.
	OutcomeUnresolved Outcome = "unresolved"
)

// Resolver binds scrobbles to matches: first by reusing recorded decisions,
// then by exact case-insensitive key equality against the catalog. Anything
// else is left for a human.
type Resolver struct {
	store  *ledger.Store
	logger *slog.Logger
}

// NewResolver builds a resolver over the ledger.
func NewResolver(store *ledger.Store, logger *slog.Logger) *Resolver {
	return &Resolver{store: store, logger: logging.WithComponent(logger, "matching")}
}

// ResolveScrobble attempts to bind one scrobble.
func (r *Resolver) ResolveScrobble(ctx context.Context, scrobble ledger.Scrobble) (Outcome, error) {
	if match, err := r.store.MatchByKey(ctx, scrobble.ConcatKey); err != nil {
		return OutcomeUnresolved, err
	} else if match != nil {
		status := ledger.StatusMatched
		if !match.HasTrack() {
			status = ledger.StatusUnmatched
		}
		if err := r.store.BindMatch(ctx, scrobble.ID, match.ID, status); err != nil {
			return OutcomeUnresolved, err
		}
		return OutcomeExistingMatch, nil
	}

	track, err := r.store.TrackByKey(ctx, scrobble.ConcatKey)
	if err != nil {
		return OutcomeUnresolved, err
	}
	if track == nil {
		return OutcomeUnresolved, nil
	}

	match, err := r.store.CreateMatch(ctx, scrobble.ConcatKey, track.ID)
	if err != nil {
		return OutcomeUnresolved, err
	}
	if err := r.store.BindMatch(ctx, scrobble.ID, match.ID, ledger.StatusMatched); err != nil {
		return OutcomeUnresolved, err
	}
	return OutcomeCatalogMatch, nil
}

// Summary counts resolution outcomes for one pass.
type Summary struct {
	Existing   int
	Catalog    int
	Unresolved int
}

// ResolveAll walks the unreviewed queue in order and binds what it can.
func (r *Resolver) ResolveAll(ctx context.Context) (Summary, error) {
	unreviewed, err := r.store.Unreviewed(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("list unreviewed: %w", err)
	}

	var summary Summary
	for _, scrobble := range unreviewed {
		outcome, err := r.ResolveScrobble(ctx, scrobble)
		if err != nil {
			return summary, fmt.Errorf("resolve scrobble %d: %w", scrobble.ID, err)
		}
		switch outcome {
		case OutcomeExistingMatch:
			summary.Existing++
		case OutcomeCatalogMatch:
			summary.Catalog++
		default:
			summary.Unresolved++
		}
	}

	r.logger.Info("resolution pass complete",
		"existing", summary.Existing,
		"catalog", summary.Catalog,
		"unresolved", summary.Unresolved,
	)
	return summary, nil
}

// AssignTrack records a manual decision binding a concat key to a catalog
// track row, covering every play of the key.
func (r *Resolver) AssignTrack(ctx context.Context, concatKey string, trackID int64) error {
	track, err := r.store.TrackByID(ctx, trackID)
	if err != nil {
		return err
	}
	if track == nil {
		return fmt.Errorf("assign track: catalog row %d not found", trackID)
	}
	match, err := r.store.CreateMatch(ctx, concatKey, track.ID)
	if err != nil {
		return err
	}
	bound, err := r.store.BindMatchByKey(ctx, concatKey, match.ID, ledger.StatusMatched)
	if err != nil {
		return err
	}
	r.logger.Info("manual match recorded", "key", concatKey, "track", track.ConcatKey, "plays", bound)
	return nil
}

// AssignNoMatch records that a concat key has no counterpart in the catalog.
// Its plays settle as unmatched and stop appearing in the review queue.
func (r *Resolver) AssignNoMatch(ctx context.Context, concatKey string) error {
	match, err := r.store.CreateMatch(ctx, concatKey, ledger.NoMatchPlexID)
	if err != nil {
		return err
	}
	bound, err := r.store.BindMatchByKey(ctx, concatKey, match.ID, ledger.StatusUnmatched)
	if err != nil {
		return err
	}
	r.logger.Info("no-match recorded", "key", concatKey, "plays", bound)
	return nil
}
