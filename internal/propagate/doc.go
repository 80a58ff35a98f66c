// Package propagate applies reconciled play history to the Plex database and
// withdraws it again when matches dissolve. Counter updates write absolute
// aggregated totals; decrements clamp at zero.
package propagate
