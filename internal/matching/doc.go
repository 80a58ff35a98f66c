// Package matching binds scrobbles to catalog tracks. Automatic resolution
// reuses recorded decisions and exact key equality; fuzzy suggestions rank
// candidates for the manual review flow.
package matching
