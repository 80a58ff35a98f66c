package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"hexfm/internal/config"
	"hexfm/internal/identity"
	"hexfm/internal/lastfm"
	"hexfm/internal/ledger"
	"hexfm/internal/logging"
)

// Feed is the slice of the remote client the ingester needs.
type Feed interface {
	PullSince(ctx context.Context, user string, sinceUTS int64) ([]lastfm.Track, error)
}

// Ingester pulls the remote play feed into the ledger.
type Ingester struct {
	store  *ledger.Store
	feed   Feed
	user   string
	logger *slog.Logger
}

// New builds an ingester.
func New(cfg *config.Config, store *ledger.Store, feed Feed, logger *slog.Logger) *Ingester {
	return &Ingester{
		store:  store,
		feed:   feed,
		user:   cfg.Account.LastfmUser,
		logger: logging.WithComponent(logger, "ingest"),
	}
}

// Result summarizes one ingestion pass. Truncated is set when the feed failed
// partway; the pages fetched before the failure are still committed.
type Result struct {
	Fetched   int
	Inserted  int64
	Cursor    int64
	Truncated bool
}

// Run pulls everything newer than the stored cursor and appends it. The
// cursor is the newest play timestamp already in the ledger; duplicate rows
// from feed overlap are absorbed by the content hash, so a pass can be
// repeated safely. A feed failure truncates the pull but never discards the
// pages already fetched; the next pass resumes from the advanced cursor.
func (i *Ingester) Run(ctx context.Context) (Result, error) {
	cursor, err := i.store.MaxPlayedAt(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("read cursor: %w", err)
	}

	tracks, pullErr := i.feed.PullSince(ctx, i.user, cursor)
	if pullErr != nil {
		i.logger.Warn("feed pull truncated, keeping fetched pages",
			"fetched", len(tracks),
			"error", pullErr,
		)
	}

	scrobbles := Convert(tracks)
	inserted, err := i.store.InsertScrobbles(ctx, scrobbles)
	if err != nil {
		return Result{}, fmt.Errorf("append scrobbles: %w", err)
	}

	newCursor, err := i.store.MaxPlayedAt(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("read new cursor: %w", err)
	}

	i.logger.Info("ingestion pass complete",
		"fetched", len(tracks),
		"inserted", inserted,
		"cursor", newCursor,
		"truncated", pullErr != nil,
	)
	return Result{
		Fetched:   len(tracks),
		Inserted:  inserted,
		Cursor:    newCursor,
		Truncated: pullErr != nil,
	}, nil
}

// Convert derives ledger scrobbles from feed tracks, oldest first so row ids
// grow with play time.
func Convert(tracks []lastfm.Track) []ledger.Scrobble {
	scrobbles := make([]ledger.Scrobble, 0, len(tracks))
	for _, track := range tracks {
		scrobbles = append(scrobbles, ledger.Scrobble{
			ConcatKey: identity.ConcatKey(track.Artist, track.Album, track.Name),
			Artist:    track.Artist,
			Album:     track.Album,
			Track:     track.Name,
			PlayedAt:  track.PlayedAt,
			Hash:      identity.ContentHash(track.Artist, track.Album, track.Name, track.PlayedAt),
		})
	}
	sort.SliceStable(scrobbles, func(a, b int) bool {
		return scrobbles[a].PlayedAt < scrobbles[b].PlayedAt
	})
	return scrobbles
}
