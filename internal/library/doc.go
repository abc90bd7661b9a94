// Package library holds the in-memory model the reconciler works on: albums,
// content items, their parts, sidecar manifests, and destination bindings.
//
// A ContentItem is a tagged variant (image only, video only, paired, paired
// with extras). Slots are unexported and an item can only be built from a
// first part, so an item with no parts cannot exist. A second part for an
// occupied slot is demoted to an extra. Once an item is bound to a
// destination id its parts are frozen.
//
// The whole graph round-trips through JSON so a run's output can be fed back
// as input.
package library
