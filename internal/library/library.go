package library

import (
	"fmt"
	"slices"
)

// Library is the set of albums of one export, keyed by unique title.
type Library struct {
	Albums []*Album
}

// Add appends album, rejecting a duplicate title.
func (l *Library) Add(album *Album) error {
	if l.Album(album.Title) != nil {
		return fmt.Errorf("library: duplicate album title %q", album.Title)
	}
	l.Albums = append(l.Albums, album)
	return nil
}

// Album returns the album with exactly title, or nil.
func (l *Library) Album(title string) *Album {
	for _, album := range l.Albums {
		if album.Title == title {
			return album
		}
	}
	return nil
}

// AlbumByDestinationID returns the album bound to id, or nil.
func (l *Library) AlbumByDestinationID(id string) *Album {
	for _, album := range l.Albums {
		if got, ok := album.DestinationID(); ok && got == id {
			return album
		}
	}
	return nil
}

// ItemCount returns the number of content items across all albums.
func (l *Library) ItemCount() int {
	n := 0
	for _, album := range l.Albums {
		n += len(album.Items)
	}
	return n
}

// Titles returns album titles in library order.
func (l *Library) Titles() []string {
	titles := make([]string, len(l.Albums))
	for i, album := range l.Albums {
		titles[i] = album.Title
	}
	return titles
}

// SortAlbums orders albums by title for stable output.
func (l *Library) SortAlbums() {
	slices.SortStableFunc(l.Albums, func(a, b *Album) int {
		switch {
		case a.Title < b.Title:
			return -1
		case a.Title > b.Title:
			return 1
		default:
			return 0
		}
	})
}
