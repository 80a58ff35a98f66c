// Package catalog keeps the stored library snapshot aligned with the live
// Plex database, dissolving matches whose underlying tracks changed or
// disappeared.
package catalog
