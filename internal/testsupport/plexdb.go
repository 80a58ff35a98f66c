package testsupport

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"
)

// plexFixtureSchema is the subset of the Plex library schema these tools
// touch, enough to stand in for a real server database in tests.
const plexFixtureSchema = `
CREATE TABLE metadata_items (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    library_section_id INTEGER,
    parent_id INTEGER,
    metadata_type INTEGER,
    guid TEXT,
    title TEXT,
    original_title TEXT,
    "index" INTEGER
);

CREATE TABLE metadata_item_views (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    account_id INTEGER,
    guid TEXT,
    metadata_type INTEGER,
    library_section_id INTEGER,
    grandparent_title TEXT,
    parent_index INTEGER,
    parent_title TEXT,
    "index" INTEGER,
    title TEXT,
    thumb_url TEXT,
    viewed_at INTEGER,
    grandparent_guid TEXT,
    originally_available_at INTEGER,
    device_id INTEGER
);

CREATE TABLE metadata_item_settings (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    account_id INTEGER,
    guid TEXT,
    rating REAL,
    view_offset INTEGER,
    view_count INTEGER,
    last_viewed_at INTEGER,
    created_at INTEGER,
    updated_at INTEGER,
    skip_count INTEGER,
    last_skipped_at INTEGER,
    changed_at INTEGER,
    extra_data TEXT,
    last_rated_at INTEGER
);

CREATE TABLE devices (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    identifier TEXT,
    name TEXT,
    platform TEXT,
    created_at INTEGER,
    updated_at INTEGER
);
`

// CreatePlexFixture writes an empty Plex-shaped database and returns its path.
func CreatePlexFixture(t testing.TB) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "com.plexapp.plugins.library.db")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir plex fixture dir: %v", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open plex fixture: %v", err)
	}
	defer db.Close()
	if _, err := db.Exec(plexFixtureSchema); err != nil {
		t.Fatalf("create plex fixture schema: %v", err)
	}
	return path
}

// SeedPlexTrack inserts an artist, album, and track hierarchy into a Plex
// fixture database, reusing existing artist and album rows by title so
// several tracks can share them. It returns the track's metadata id.
func SeedPlexTrack(t testing.TB, path string, sectionID int64, artist, album, track string, trackIndex int64) int64 {
	t.Helper()

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open plex fixture: %v", err)
	}
	defer db.Close()

	artistID := ensureFixtureItem(t, db, sectionID, 0, 8, artist, "plex://artist/"+artist, 0)
	albumID := ensureFixtureItem(t, db, sectionID, artistID, 9, album, "plex://album/"+artist+"/"+album, 1)
	trackGUID := "plex://track/" + artist + "/" + album + "/" + track
	return ensureFixtureItem(t, db, sectionID, albumID, 10, track, trackGUID, trackIndex)
}

func ensureFixtureItem(t testing.TB, db *sql.DB, sectionID, parentID, metadataType int64, title, guid string, index int64) int64 {
	t.Helper()

	var id int64
	err := db.QueryRow(`SELECT id FROM metadata_items WHERE metadata_type = ? AND guid = ?`, metadataType, guid).Scan(&id)
	if err == nil {
		return id
	}
	if err != sql.ErrNoRows {
		t.Fatalf("find fixture item: %v", err)
	}

	var parent any
	if parentID != 0 {
		parent = parentID
	}
	res, err := db.Exec(
		`INSERT INTO metadata_items (library_section_id, parent_id, metadata_type, guid, title, original_title, "index")
         VALUES (?, ?, ?, ?, ?, NULL, ?)`,
		sectionID, parent, metadataType, guid, title, index,
	)
	if err != nil {
		t.Fatalf("insert fixture item: %v", err)
	}
	id, err = res.LastInsertId()
	if err != nil {
		t.Fatalf("fixture item id: %v", err)
	}
	return id
}
