// Package main hosts the takeoutsync CLI entrypoint and command graph.
//
// The Cobra-based command tree wires configuration, logging, the metadata
// cache, and the destination client into the reconciliation driver, and
// exposes the supporting tools: run history, destination search and
// inspection, duplicate-group mapping, random sampling, and preflight checks.
//
// Keep this package lean: add functionality to the internal packages first,
// then surface it through dedicated commands or flags here.
package main
