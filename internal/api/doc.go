// Package api fronts the reconciliation engine: a service facade that
// serializes the mutating passes, JSON view types, and an HTTP server for the
// review frontend.
package api
