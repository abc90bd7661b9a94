// Package destination defines the narrow, typed view the reconciler has of
// the destination photo library. Adapters (Apple Photos over osascript, the
// in-memory fake used in tests) implement Client; the engine never sees how
// the library is driven.
package destination

import (
	"context"
	"time"
)

// QueryKind selects how a Search query retrieves candidates.
type QueryKind int

const (
	// ByName retrieves media whose filename matches Name loosely; callers
	// apply exact comparison.
	ByName QueryKind = iota
	// ByTime retrieves media whose date falls within [From, To].
	ByTime
)

func (k QueryKind) String() string {
	if k == ByTime {
		return "time"
	}
	return "name"
}

// Query is one candidate retrieval request.
type Query struct {
	Kind QueryKind
	Name string
	From time.Time
	To   time.Time
}

// PhotoInfo describes a media item already in the destination.
type PhotoInfo struct {
	ID        string    `json:"id"`
	Filename  string    `json:"filename"`
	Size      int64     `json:"size"`
	Timestamp time.Time `json:"timestamp"`
}

// ImportedPhoto is one media item created by an import.
type ImportedPhoto struct {
	PhotoID string `json:"photoId"`
	AlbumID string `json:"albumId"`
}

// Searcher retrieves candidate media for queries. Results align with the
// queries by index.
type Searcher interface {
	Search(ctx context.Context, queries []Query) ([][]PhotoInfo, error)
}

// InfoReader resolves media ids to their properties.
type InfoReader interface {
	GetInfo(ctx context.Context, ids []string) ([]PhotoInfo, error)
}

// AlbumReader reads destination albums.
type AlbumReader interface {
	// AlbumItemCount returns the number of media items in the album, or an
	// error wrapping services.ErrNotFound when the album does not exist.
	AlbumItemCount(ctx context.Context, albumID string) (int, error)
}

// Client is the full destination surface.
type Client interface {
	Searcher
	InfoReader
	AlbumReader
	CreateOrGetAlbum(ctx context.Context, title string) (string, error)
	// AddToAlbum adds media not already in the album and returns how many
	// were added.
	AddToAlbum(ctx context.Context, title string, ids []string) (int, error)
	ImportFiles(ctx context.Context, title string, paths []string) ([]ImportedPhoto, error)
}

// Restarter is implemented by clients whose backing application benefits
// from a periodic restart during long imports.
type Restarter interface {
	Restart(ctx context.Context) error
}
