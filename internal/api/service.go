package api

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"hexfm/internal/catalog"
	"hexfm/internal/config"
	"hexfm/internal/ingest"
	"hexfm/internal/lastfm"
	"hexfm/internal/ledger"
	"hexfm/internal/logging"
	"hexfm/internal/matching"
	"hexfm/internal/plexdb"
	"hexfm/internal/propagate"
)

// Service exposes every reconciliation operation behind one facade. A mutex
// serializes the mutating passes; ingestion, catalog sync, and propagation
// all assume no concurrent writer.
type Service struct {
	cfg      *config.Config
	store    *ledger.Store
	plex     *plexdb.DB
	ingester *ingest.Ingester
	resolver *matching.Resolver
	syncer   *catalog.Syncer
	prop     *propagate.Propagator
	logger   *slog.Logger

	mu sync.Mutex
}

// NewService wires the engine components over an open ledger and Plex
// database. The feed is injectable so callers can substitute the remote
// client.
func NewService(cfg *config.Config, store *ledger.Store, plex *plexdb.DB, feed ingest.Feed, logger *slog.Logger) *Service {
	if feed == nil {
		feed = lastfm.New(cfg, logger)
	}
	prop := propagate.New(cfg, store, plex, logger)
	return &Service{
		cfg:      cfg,
		store:    store,
		plex:     plex,
		ingester: ingest.New(cfg, store, feed, logger),
		resolver: matching.NewResolver(store, logger),
		syncer:   catalog.New(cfg, store, plex, prop, logger),
		prop:     prop,
		logger:   logging.WithComponent(logger, "api"),
	}
}

// Pull ingests the remote feed and auto-resolves the review queue.
func (s *Service) Pull(ctx context.Context) (PullSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ingested, err := s.ingester.Run(ctx)
	if err != nil {
		return PullSummary{}, err
	}
	resolved, err := s.resolver.ResolveAll(ctx)
	if err != nil {
		return PullSummary{}, err
	}
	return PullSummary{
		Fetched:    ingested.Fetched,
		Inserted:   ingested.Inserted,
		Cursor:     ingested.Cursor,
		Truncated:  ingested.Truncated,
		Existing:   resolved.Existing,
		Catalog:    resolved.Catalog,
		Unresolved: resolved.Unresolved,
	}, nil
}

// ImportCSV bulk-loads a last.fm history export and auto-resolves the review
// queue, the same way a feed pull does.
func (s *Service) ImportCSV(ctx context.Context, r io.Reader) (PullSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	imported, err := s.ingester.ImportCSV(ctx, r)
	if err != nil {
		return PullSummary{}, err
	}
	resolved, err := s.resolver.ResolveAll(ctx)
	if err != nil {
		return PullSummary{}, err
	}
	return PullSummary{
		Fetched:    imported.Fetched,
		Inserted:   imported.Inserted,
		Cursor:     imported.Cursor,
		Existing:   resolved.Existing,
		Catalog:    resolved.Catalog,
		Unresolved: resolved.Unresolved,
	}, nil
}

// SyncCatalog reconciles the stored snapshot with the live library.
func (s *Service) SyncCatalog(ctx context.Context) (CatalogSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.syncer.Sync(ctx)
	if err != nil {
		return CatalogSummary{}, err
	}
	return CatalogSummary{
		OrphanMatches: result.OrphanMatches,
		Updated:       result.Updated,
		Removed:       result.Removed,
		Added:         result.Added,
		Unchanged:     result.Unchanged,
	}, nil
}

// ProcessMatches runs reverse reconciliation then forward propagation.
// Reverse must come first so the totals forward writes already account for
// plays folded out of the Plex history.
func (s *Service) ProcessMatches(ctx context.Context) (ProcessSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reverse, err := s.prop.Reverse(ctx)
	if err != nil {
		return ProcessSummary{}, fmt.Errorf("reverse pass: %w", err)
	}
	forward, err := s.prop.Forward(ctx)
	if err != nil {
		return ProcessSummary{}, fmt.Errorf("forward pass: %w", err)
	}
	return ProcessSummary{
		OrphanSettings: reverse.OrphanSettings,
		FoldedPlays:    reverse.FoldedPlays,
		SkippedAlbums:  reverse.SkippedAlbums,
		Plays:          forward.Plays,
		Processed:      forward.Processed,
	}, nil
}

// Home returns dashboard counters.
func (s *Service) Home(ctx context.Context) (HomeData, error) {
	stats, err := s.store.Stats(ctx)
	if err != nil {
		return HomeData{}, err
	}
	return HomeData{
		ScrobbleCount:   stats.Scrobbles,
		MatchedCount:    stats.Matched,
		UnreviewedCount: stats.Unreviewed,
		CatalogCount:    stats.CatalogSize,
		PendingCount:    stats.PendingPlays,
		NewTracksCount:  stats.NewTracks,
	}, nil
}

// ScrobbleDateRange bounds the ledger's play timestamps.
func (s *Service) ScrobbleDateRange(ctx context.Context) (DateRange, error) {
	start, end, err := s.store.PlayedAtRange(ctx)
	if err != nil {
		return DateRange{}, err
	}
	return DateRange{Start: start, End: end}, nil
}

// NextUnreviewed returns the oldest queued scrobble with ranked suggestions,
// or nil when the queue is empty.
func (s *Service) NextUnreviewed(ctx context.Context) (*ReviewItem, error) {
	scrobble, err := s.store.NextUnreviewed(ctx)
	if err != nil {
		return nil, err
	}
	if scrobble == nil {
		return nil, nil
	}
	tracks, err := s.store.AllTracks(ctx)
	if err != nil {
		return nil, err
	}
	suggestions := matching.Suggest(scrobble.ConcatKey, tracks, matching.DefaultThreshold, matching.DefaultLimit)
	item := &ReviewItem{Scrobble: FromScrobble(*scrobble)}
	for _, suggestion := range suggestions {
		item.Suggestions = append(item.Suggestions, SuggestionView{
			Track: FromTrack(suggestion.Track),
			Score: suggestion.Score,
		})
	}
	return item, nil
}

// AssignMatch records a manual decision binding a concat key to a catalog row.
func (s *Service) AssignMatch(ctx context.Context, concatKey string, trackID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resolver.AssignTrack(ctx, concatKey, trackID)
}

// AssignNoMatch records that a concat key has no catalog counterpart.
func (s *Service) AssignNoMatch(ctx context.Context, concatKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resolver.AssignNoMatch(ctx, concatKey)
}

// DeleteMatches unbinds the given matches, withdrawing any propagated plays
// and requeueing their scrobbles.
func (s *Service) DeleteMatches(ctx context.Context, matchIDs []int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range matchIDs {
		if err := s.prop.UnbindMatch(ctx, id, nil); err != nil {
			return fmt.Errorf("delete match %d: %w", id, err)
		}
	}
	return nil
}

// NewTracks lists pending new-track markers joined with their catalog rows.
func (s *Service) NewTracks(ctx context.Context) ([]NewTrackView, error) {
	markers, err := s.store.AddedTracks(ctx)
	if err != nil {
		return nil, err
	}
	views := make([]NewTrackView, 0, len(markers))
	for _, marker := range markers {
		view := NewTrackView{AddedID: marker.ID, RatingKey: marker.RatingKey}
		track, err := s.store.TrackByRatingKey(ctx, marker.RatingKey)
		if err != nil {
			return nil, err
		}
		if track != nil {
			view.ConcatKey = track.ConcatKey
		}
		views = append(views, view)
	}
	return views, nil
}

// AcknowledgeNewTracks removes the given new-track markers.
func (s *Service) AcknowledgeNewTracks(ctx context.Context, ids []int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		if err := s.store.DeleteAddedTrack(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// Query searches catalog tracks by space-separated terms.
func (s *Service) Query(ctx context.Context, filter string, limit int) ([]TrackView, error) {
	tracks, err := s.store.SearchTracks(ctx, splitTerms(filter), limit)
	if err != nil {
		return nil, err
	}
	views := make([]TrackView, 0, len(tracks))
	for _, track := range tracks {
		views = append(views, FromTrack(track))
	}
	return views, nil
}

func splitTerms(filter string) []string {
	return strings.Fields(filter)
}
