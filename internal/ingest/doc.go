// Package ingest appends the remote play feed to the ledger, deriving each
// row's concat key and content hash on the way in.
package ingest
