// Package manifest parses Google Takeout sidecar manifests and attaches them
// to the media files they describe.
//
// Every media file may have a per-item JSON manifest next to it and every
// album directory may have an album-level metadata.json. Matching is exact on
// the manifest name first; a title-based heuristic covers the filenames
// Google truncates at 51 UTF-16 code units.
package manifest
