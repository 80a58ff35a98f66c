package ledger

import "errors"

// ErrInconsistent indicates a referential invariant violation that the
// ordering rules should make impossible, such as a scrobble pointing at a
// deleted match. Callers should surface it and advise a full catalog resync.
var ErrInconsistent = errors.New("ledger internal consistency violation")

// ErrSchemaMismatch indicates the database schema version doesn't match the
// expected version.
var ErrSchemaMismatch = errors.New("schema version mismatch")
