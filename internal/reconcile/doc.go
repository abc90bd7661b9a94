// Package reconcile drives one reconciliation run end to end.
//
// The order is fixed: parse albums (or load a previous dump), pair live-photo
// halves per album, attach sidecar manifests, drop lone halves duplicated by
// a pair elsewhere, overlay prior run state, match what is still unresolved,
// write output.json, hand the result to the organizer, and write final.json.
//
// Album parse failures are recorded and the album skipped. Classification
// failures, run-state inconsistencies, and strict-policy misses are
// FatalErrors that stop the run. A Summary is produced either way.
package reconcile
