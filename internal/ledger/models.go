package ledger

// Status represents the review lifecycle of a scrobble. The zero value means
// unreviewed (stored as NULL).
type Status string

const (
	StatusUnreviewed Status = ""
	StatusMatched    Status = "matched"
	StatusUnmatched  Status = "unmatched"
	StatusProcessed  Status = "processed"
)

// NoMatchPlexID is the sentinel a Match carries when a human decided the
// concat key has no corresponding catalog track. It is not a row reference.
const NoMatchPlexID = 0

// Scrobble is one remote play event persisted in the ledger. MatchID zero
// means unbound (stored as NULL).
type Scrobble struct {
	ID        int64
	ConcatKey string
	Artist    string
	Album     string
	Track     string
	PlayedAt  int64
	Hash      string
	MatchID   int64
	Status    Status
}

// Match binds one concat key to at most one catalog track row. PlexID zero is
// the explicit no-match sentinel.
type Match struct {
	ID        int64
	ConcatKey string
	PlexID    int64
}

// HasTrack reports whether the match points at a real catalog track.
func (m Match) HasTrack() bool {
	return m.PlexID != NoMatchPlexID
}

// CatalogTrack is one Plex track in the stored snapshot, denormalized with its
// album and artist. RatingKey is the external stable id and the only identity
// anchor across catalog syncs; every other field is mutable display data.
type CatalogTrack struct {
	ID              int64
	RatingKey       int64
	ConcatKey       string
	Artist          string
	ArtistFeat      string
	GrandparentGUID string
	Album           string
	ParentGUID      string
	ParentIndex     int64
	Track           string
	TrackIndex      int64
	GUID            string
}

// SameIdentity reports full-row equality on every tracked field except the
// internal row id. Any difference invalidates matches tied to the old row.
func (t CatalogTrack) SameIdentity(other CatalogTrack) bool {
	return t.RatingKey == other.RatingKey &&
		t.ConcatKey == other.ConcatKey &&
		t.Artist == other.Artist &&
		t.ArtistFeat == other.ArtistFeat &&
		t.GrandparentGUID == other.GrandparentGUID &&
		t.Album == other.Album &&
		t.ParentGUID == other.ParentGUID &&
		t.ParentIndex == other.ParentIndex &&
		t.Track == other.Track &&
		t.TrackIndex == other.TrackIndex &&
		t.GUID == other.GUID
}

// GUIDChain returns the artist, album, and track identity triplet used for
// hierarchical count adjustments.
func (t CatalogTrack) GUIDChain() []string {
	return []string{t.GrandparentGUID, t.ParentGUID, t.GUID}
}

// AddedTrack marks a rating key newly observed in the catalog, pending human
// acknowledgment.
type AddedTrack struct {
	ID        int64
	RatingKey int64
}

// Stats aggregates ledger counters for the dashboard.
type Stats struct {
	Scrobbles    int
	Matched      int
	Unreviewed   int
	CatalogSize  int
	PendingPlays int
	NewTracks    int
}
