// Package matching resolves content items against media already present in
// the destination library.
//
// Every unresolved item gets a search key (filename, timestamp, size) and is
// evaluated through three tiers of decreasing strictness:
//
//  1. filename, size, and timestamp within tolerance
//  2. size and timestamp
//  3. filename alone, ignoring the destination's "name(n).ext" suffix
//
// A tier with one candidate binds the item. A tier with several candidates
// leaves the item unresolved and ambiguous; later tiers are not consulted.
// Items are submitted in chunks and a live-photo pair is never split across
// chunks.
package matching
