// Package takeout walks a Google Takeout export: it finds the "Google Photos"
// directory of every archive part, merges album directories that share a
// leaf name across parts, and classifies the files of each album.
package takeout
