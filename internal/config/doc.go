// Package config loads, normalizes, and validates the provider's TOML
// configuration.
//
// It resolves the daemon socket (explicit value, then $XDG_RUNTIME_DIR), the
// identity sent in ui.register, the heartbeat cadence, and logging options.
// Validation enforces that the read timeout stays below the heartbeat interval
// so a single stalled read can never postpone a heartbeat.
package config
