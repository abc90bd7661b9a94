// Package dupegroups reads PhotoSweeper duplicate-group exports and maps the
// takeout side of each group to its album, so duplicates found outside the
// reconciler can be filed into the right destination album.
package dupegroups
