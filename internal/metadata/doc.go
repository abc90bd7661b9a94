// Package metadata turns raw exiftool and ffprobe output into the normalized
// library.Metadata the pairer and matchers consume.
//
// Extraction runs album by album. Different albums may be read concurrently
// up to a configured limit; within one album the external tools are invoked
// sequentially. Results are cached by path, size, and modification time.
package metadata
