// Package metacache persists normalized media metadata in SQLite so repeated
// runs over the same export skip the exiftool and ffprobe calls. Entries are
// keyed by path and invalidated when the file's size or modification time
// changes.
package metacache
