package identity

import (
	"crypto/md5"
	"encoding/hex"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
)

// Separator joins the artist, album, and track fields of a concat key.
const Separator = " --- "

var foldCaser = cases.Fold()

// ConcatKey derives the natural-language identity shared by a scrobble and a
// catalog track. Empty fields stay empty strings so keys never fail to build.
func ConcatKey(artist, album, track string) string {
	return artist + Separator + album + Separator + track
}

// FoldKey lowercases a concat key with full Unicode case folding. Matching is
// case-insensitive; folded keys are what lookups compare.
func FoldKey(key string) string {
	return foldCaser.String(key)
}

// EqualKeys reports whether two concat keys match case-insensitively.
func EqualKeys(a, b string) bool {
	return FoldKey(a) == FoldKey(b)
}

// ContentHash derives the deduplication hash of a play event from its
// normalized fields. It is an MD5 over the lowercased, space-joined values of
// (artist, album, track, playedAt); a stable dedup key, not a security
// boundary.
func ContentHash(artist, album, track string, playedAt int64) string {
	joined := strings.ToLower(artist + " " + album + " " + track + " " + strconv.FormatInt(playedAt, 10))
	sum := md5.Sum([]byte(joined))
	return hex.EncodeToString(sum[:])
}
