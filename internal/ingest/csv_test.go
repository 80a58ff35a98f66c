package ingest_test

import (
	"context"
	"strings"
	"testing"

	"hexfm/internal/ingest"
	"hexfm/internal/logging"
	"hexfm/internal/testsupport"
)

func TestImportCSVInsertsHistoryExport(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ingester := ingest.New(cfg, store, &stubFeed{}, logging.NewNop())

	// Exported column order varies and extra columns appear; both are fine.
	export := strings.Join([]string{
		"uts,utc_time,artist,artist_mbid,album,track",
		`1700000200,"16 Nov 2023","Stereolab",,"Dots and Loops","Brakhage"`,
		`1700000100,"16 Nov 2023","Stereolab",,"Dots and Loops","Miss Modular"`,
		`not-a-timestamp,"","Stereolab",,"Dots and Loops","Prisoner of Mars"`,
	}, "\n")

	result, err := ingester.ImportCSV(context.Background(), strings.NewReader(export))
	if err != nil {
		t.Fatalf("ImportCSV: %v", err)
	}
	if result.Fetched != 2 || result.Inserted != 2 {
		t.Fatalf("expected bad-timestamp row skipped, got %+v", result)
	}
	if result.Cursor != 1700000200 {
		t.Fatalf("unexpected cursor %d", result.Cursor)
	}

	unreviewed, err := store.Unreviewed(context.Background())
	if err != nil {
		t.Fatalf("Unreviewed: %v", err)
	}
	if len(unreviewed) != 2 || unreviewed[0].Track != "Miss Modular" {
		t.Fatalf("expected oldest-first rows, got %+v", unreviewed)
	}
}

func TestImportCSVIsIdempotentWithFeedOverlap(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	testsupport.InsertScrobble(t, store, "Broadcast", "Tender Buttons", "Black Cat", 1700000300)
	ingester := ingest.New(cfg, store, &stubFeed{}, logging.NewNop())

	export := "uts,artist,album,track\n" +
		`1700000300,"Broadcast","Tender Buttons","Black Cat"`

	result, err := ingester.ImportCSV(context.Background(), strings.NewReader(export))
	if err != nil {
		t.Fatalf("ImportCSV: %v", err)
	}
	if result.Fetched != 1 || result.Inserted != 0 {
		t.Fatalf("expected overlap row deduplicated, got %+v", result)
	}
}

func TestImportCSVRejectsMissingColumns(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ingester := ingest.New(cfg, store, &stubFeed{}, logging.NewNop())

	_, err := ingester.ImportCSV(context.Background(), strings.NewReader("artist,album,track\na,b,c"))
	if err == nil || !strings.Contains(err.Error(), `missing column "uts"`) {
		t.Fatalf("expected missing-column error, got %v", err)
	}
}
