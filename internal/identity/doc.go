// Package identity builds the two keys every play event carries: the concat
// key used for matching across the scrobble feed and the Plex catalog, and the
// content hash used for deduplicating ingested events. Both are pure functions
// of the play tuple.
package identity
