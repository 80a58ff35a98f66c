package plexdb

// Metadata types used by the Plex library schema for music rows.
const (
	TypeArtist int64 = 8
	TypeAlbum  int64 = 9
	TypeTrack  int64 = 10
)

// Track is one denormalized track row read from the Plex library, carrying its
// album and artist context. RatingKey is metadata_items.id for the track.
type Track struct {
	RatingKey       int64
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

// PlayRow is one play-history row in metadata_item_views.
type PlayRow struct {
	ID               int64
	AccountID        int64
	GUID             string
	MetadataType     int64
	LibrarySectionID int64
	GrandparentTitle string
	ParentIndex      int64
	ParentTitle      string
	Index            int64
	Title            string
	ViewedAt         int64
	GrandparentGUID  string
	DeviceID         int64
}

// Setting is one per-account counter row in metadata_item_settings. ViewCount
// and LastViewedAt are the fields play propagation owns.
type Setting struct {
	ID           int64
	AccountID    int64
	GUID         string
	ViewCount    int64
	LastViewedAt int64
}
