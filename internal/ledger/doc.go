// Package ledger persists the reconciliation state: ingested scrobbles, the
// concat-key match table, the stored catalog snapshot, and new-track markers.
// It owns the SQLite schema and every query the engine runs against it.
package ledger
