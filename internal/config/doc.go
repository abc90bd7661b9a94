// Package config loads, normalizes, and validates takeoutsync configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), and reads TOML files. The Config type centralizes the run-state
// location, destination batching, metadata tool binaries, and matcher policy so
// the CLI resolves every knob in one pass.
package config
