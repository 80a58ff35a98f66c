package catalog_test

import (
	"database/sql"
	"testing"

	_ "modernc.org/sqlite"
)

func wipeFixtureTracks(t *testing.T, path string) {
	t.Helper()
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open fixture: %v", err)
	}
	defer db.Close()
	if _, err := db.Exec(`DELETE FROM metadata_items WHERE metadata_type = 10`); err != nil {
		t.Fatalf("wipe fixture tracks: %v", err)
	}
}

func renameFixtureTrack(t *testing.T, path string, id int64, title string) {
	t.Helper()
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open fixture: %v", err)
	}
	defer db.Close()
	if _, err := db.Exec(`UPDATE metadata_items SET title = ? WHERE id = ?`, title, id); err != nil {
		t.Fatalf("rename fixture track: %v", err)
	}
}
