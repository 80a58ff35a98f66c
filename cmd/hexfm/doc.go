// Command hexfm reconciles a last.fm listening history with a Plex music
// library: it pulls scrobbles, matches them against the library catalog,
// and writes the resulting play history back into the Plex database.
package main
