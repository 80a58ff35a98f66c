package api

import "hexfm/internal/ledger"

// ScrobbleView is the API shape of one ledger scrobble.
type ScrobbleView struct {
	ID        int64  `json:"id"`
	ConcatKey string `json:"concatKey"`
	Artist    string `json:"artist"`
	Album     string `json:"album"`
	Track     string `json:"track"`
	PlayedAt  int64  `json:"playedAt"`
	Status    string `json:"status"`
}

// FromScrobble converts a ledger scrobble to its API shape.
func FromScrobble(scrobble ledger.Scrobble) ScrobbleView {
	return ScrobbleView{
		ID:        scrobble.ID,
		ConcatKey: scrobble.ConcatKey,
		Artist:    scrobble.Artist,
		Album:     scrobble.Album,
		Track:     scrobble.Track,
		PlayedAt:  scrobble.PlayedAt,
		Status:    string(scrobble.Status),
	}
}

// TrackView is the API shape of one catalog track.
type TrackView struct {
	ID        int64  `json:"id"`
	RatingKey int64  `json:"ratingKey"`
	ConcatKey string `json:"concatKey"`
	Artist    string `json:"artist"`
	Album     string `json:"album"`
	Track     string `json:"track"`
}

// FromTrack converts a catalog track to its API shape.
func FromTrack(track ledger.CatalogTrack) TrackView {
	return TrackView{
		ID:        track.ID,
		RatingKey: track.RatingKey,
		ConcatKey: track.ConcatKey,
		Artist:    track.Artist,
		Album:     track.Album,
		Track:     track.Track,
	}
}

// SuggestionView pairs a candidate track with its similarity score.
type SuggestionView struct {
	Track TrackView `json:"track"`
	Score int       `json:"score"`
}

// ReviewItem is the next unreviewed scrobble plus ranked candidates.
type ReviewItem struct {
	Scrobble    ScrobbleView     `json:"scrobble"`
	Suggestions []SuggestionView `json:"suggestions"`
}

// HomeData aggregates dashboard counters.
type HomeData struct {
	ScrobbleCount   int `json:"scrobbleCount"`
	MatchedCount    int `json:"matchedCount"`
	UnreviewedCount int `json:"unreviewedCount"`
	CatalogCount    int `json:"catalogCount"`
	PendingCount    int `json:"pendingCount"`
	NewTracksCount  int `json:"newTracksCount"`
}

// DateRange bounds the ledger's play timestamps.
type DateRange struct {
	Start int64 `json:"start"`
	End   int64 `json:"end"`
}

// NewTrackView is a pending new-track marker joined with its catalog row.
type NewTrackView struct {
	AddedID   int64  `json:"addedId"`
	RatingKey int64  `json:"ratingKey"`
	ConcatKey string `json:"concatKey"`
}

// PullSummary reports one ingestion pass plus the resolution that follows it.
// Truncated means the feed failed partway and the pass committed only the
// pages fetched before the failure.
type PullSummary struct {
	Fetched    int   `json:"fetched"`
	Inserted   int64 `json:"inserted"`
	Cursor     int64 `json:"cursor"`
	Truncated  bool  `json:"truncated"`
	Existing   int   `json:"existing"`
	Catalog    int   `json:"catalog"`
	Unresolved int   `json:"unresolved"`
}

// CatalogSummary reports one catalog sync pass.
type CatalogSummary struct {
	OrphanMatches int64 `json:"orphanMatches"`
	Updated       int   `json:"updated"`
	Removed       int   `json:"removed"`
	Added         int   `json:"added"`
	Unchanged     int   `json:"unchanged"`
}

// ProcessSummary reports one reverse-then-forward propagation pass.
type ProcessSummary struct {
	OrphanSettings int64 `json:"orphanSettings"`
	FoldedPlays    int   `json:"foldedPlays"`
	SkippedAlbums  int   `json:"skippedAlbums"`
	Plays          int   `json:"plays"`
	Processed      int   `json:"processed"`
}
