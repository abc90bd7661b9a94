package library

import "errors"

// AlbumBinding links an album to its destination counterpart.
type AlbumBinding struct {
	ID                string `json:"id"`
	OriginalItemCount int    `json:"originalItemCount"`
}

// Album is one export album, possibly merged from several part directories.
type Album struct {
	Title     string
	Dirs      []string
	Meta      *AlbumManifest
	Items     []*ContentItem
	Manifests []*Manifest
	Remaining []string
	Binding   *AlbumBinding
}

// HasManifests reports whether any sidecar manifest was found for the album.
func (a *Album) HasManifests() bool {
	return len(a.Manifests) > 0
}

// Bind links the album to a destination album. Rebinding to the same id
// refreshes the item count; a different id is a conflict.
func (a *Album) Bind(id string, itemCount int) error {
	if id == "" {
		return errors.New("album: empty destination id")
	}
	if a.Binding != nil && a.Binding.ID != id {
		return &ConflictError{Subject: "album " + a.Title, Existing: a.Binding.ID, Incoming: id}
	}
	a.Binding = &AlbumBinding{ID: id, OriginalItemCount: itemCount}
	return nil
}

// DestinationID returns the bound destination album id, if any.
func (a *Album) DestinationID() (string, bool) {
	if a.Binding == nil {
		return "", false
	}
	return a.Binding.ID, true
}

// FindByPath returns the item with a slot at exactly path.
func (a *Album) FindByPath(path string) *ContentItem {
	for _, item := range a.Items {
		for _, p := range item.Parts() {
			if p.Path == path {
				return item
			}
		}
	}
	return nil
}

// RemoveItems drops the given items, preserving order of the rest.
func (a *Album) RemoveItems(drop map[*ContentItem]struct{}) int {
	if len(drop) == 0 {
		return 0
	}
	kept := a.Items[:0]
	removed := 0
	for _, item := range a.Items {
		if _, ok := drop[item]; ok {
			removed++
			continue
		}
		kept = append(kept, item)
	}
	for i := len(kept); i < len(a.Items); i++ {
		a.Items[i] = nil
	}
	a.Items = kept
	return removed
}

// Counts summarizes the album's items by destination state.
func (a *Album) Counts() (bound, absent, unresolved int) {
	for _, item := range a.Items {
		switch item.Destination().State() {
		case Bound:
			bound++
		case Absent:
			absent++
		default:
			unresolved++
		}
	}
	return bound, absent, unresolved
}
