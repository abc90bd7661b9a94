// Package runstate owns the on-disk artifacts of reconciliation runs and
// overlays them onto a freshly parsed library.
//
// Each run writes to its own directory under the runs root, named so that
// lexical order is chronological. Records are append-only: albums created in
// the destination go to created_albums.json, imported media to the
// newline-delimited imported_images.jsonl. Runs from older releases wrote a
// comma-terminated imported_images.json, which is still read.
//
// The Merger replays every run, oldest first, binding albums and items to
// the destination ids recorded there so they are never matched or imported
// again. Any inconsistency between the records and the library aborts.
package runstate
