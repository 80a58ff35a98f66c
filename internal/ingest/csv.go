package ingest

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"hexfm/internal/lastfm"
)

// csvColumns are the required header names of a last.fm history export. Extra
// columns are ignored and column order does not matter.
var csvColumns = []string{"uts", "artist", "album", "track"}

// ImportCSV bulk-loads a last.fm CSV export into the ledger. Rows go through
// the same hash dedup as feed ingestion, so re-uploading a file, or uploading
// one that overlaps pulled history, inserts nothing twice. Rows with an
// unparseable timestamp are skipped with a warning.
func (i *Ingester) ImportCSV(ctx context.Context, r io.Reader) (Result, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return Result{}, fmt.Errorf("read csv header: %w", err)
	}
	columns := make(map[string]int, len(header))
	for index, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = index
	}
	for _, name := range csvColumns {
		if _, ok := columns[name]; !ok {
			return Result{}, fmt.Errorf("csv missing column %q", name)
		}
	}

	var tracks []lastfm.Track
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Result{}, fmt.Errorf("read csv row: %w", err)
		}
		uts := strings.TrimSpace(field(record, columns["uts"]))
		playedAt, err := strconv.ParseInt(uts, 10, 64)
		if err != nil {
			i.logger.Warn("skipping csv row with bad timestamp", "uts", uts)
			continue
		}
		tracks = append(tracks, lastfm.Track{
			Artist:   field(record, columns["artist"]),
			Album:    field(record, columns["album"]),
			Name:     field(record, columns["track"]),
			PlayedAt: playedAt,
		})
	}

	inserted, err := i.store.InsertScrobbles(ctx, Convert(tracks))
	if err != nil {
		return Result{}, fmt.Errorf("append scrobbles: %w", err)
	}
	cursor, err := i.store.MaxPlayedAt(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("read cursor: %w", err)
	}

	i.logger.Info("csv import complete", "rows", len(tracks), "inserted", inserted)
	return Result{Fetched: len(tracks), Inserted: inserted, Cursor: cursor}, nil
}

func field(record []string, index int) string {
	if index < 0 || index >= len(record) {
		return ""
	}
	return record[index]
}
