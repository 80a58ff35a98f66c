// Package plexdb reads and writes a Plex media server library database
// directly: the track/album/artist metadata hierarchy, the play-history table,
// the per-account counter rows, and the device registry. It never creates the
// database; Plex owns the file.
package plexdb
