// Package services defines shared utilities consumed by the reconciliation
// stages and the adapters that talk to external tools.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, album titles, stage names, and
//     correlation identifiers for logging.
//   - Structured error markers plus the Wrap helper so failures from exiftool,
//     ffprobe, and the destination library carry consistent classification.
//
// Adapters for individual tools live in subpackages (exiftool, photos).
package services
