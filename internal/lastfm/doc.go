// Package lastfm is a minimal client for the last.fm recent-tracks feed.
package lastfm
