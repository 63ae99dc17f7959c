// Package logging assembles the structured slog loggers used by the provider
// and its CLI.
//
// It owns the console and JSON handlers, level and output plumbing, the
// standard field keys, and the WARN/ERROR helpers that force every warning to
// state its cause, impact and next step. A no-op logger is provided for tests
// and wiring code that has no logger to hand.
package logging
