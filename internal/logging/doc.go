// Package logging builds the slog loggers used across hexfm.
//
// Two output formats are supported: a single-line console format that renders
// the component attribute as a message prefix, and standard JSON for log
// shipping. NewFromConfig tees output to stdout and the configured log file.
package logging
