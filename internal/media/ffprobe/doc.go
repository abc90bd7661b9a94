// Package ffprobe provides a typed wrapper around ffprobe container output.
//
// Only the format section is requested. Live-photo clips carry their pairing
// identifier and capture time as container tags, exposed through
// ContentIdentifier and CreationTime.
package ffprobe
