package takeout

import (
	"path/filepath"
)

// Filter selects albums by title using shell glob patterns. An empty include
// list admits every album; excludes always win.
type Filter struct {
	Include []string
	Exclude []string
}

// Allows reports whether the album titled title passes the filter.
func (f Filter) Allows(title string) bool {
	for _, pattern := range f.Exclude {
		if ok, _ := filepath.Match(pattern, title); ok {
			return false
		}
	}
	if len(f.Include) == 0 {
		return true
	}
	for _, pattern := range f.Include {
		if ok, _ := filepath.Match(pattern, title); ok {
			return true
		}
	}
	return false
}
