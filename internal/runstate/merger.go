package runstate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"takeoutsync/internal/destination"
	"takeoutsync/internal/library"
	"takeoutsync/internal/logging"
	"takeoutsync/internal/takeout"
)

// ErrInconsistent marks run records that contradict the parsed library.
var ErrInconsistent = errors.New("run state inconsistent with library")

// MergeError describes one inconsistency. It aborts the merge.
type MergeError struct {
	Run    string
	Kind   string
	Detail string
	Err    error
}

func (e *MergeError) Error() string {
	msg := fmt.Sprintf("run %s: %s: %s", e.Run, e.Kind, e.Detail)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *MergeError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrInconsistent, e.Err}
	}
	return []error{ErrInconsistent}
}

// Stats counts what a merge applied.
type Stats struct {
	Runs     int
	Albums   int
	Images   int
	Filtered int
}

// Merger overlays prior run records onto a library.
type Merger struct {
	albums destination.AlbumReader
	filter takeout.Filter
	logger *slog.Logger
}

// NewMerger constructs a Merger. albums may be nil when the destination is
// unavailable; album bindings then carry a zero item count.
func NewMerger(albums destination.AlbumReader, filter takeout.Filter, logger *slog.Logger) *Merger {
	return &Merger{albums: albums, filter: filter, logger: logging.NewComponentLogger(logger, "runstate")}
}

// Merge replays dirs in order. Album records are applied before image
// records within each run.
func (m *Merger) Merge(ctx context.Context, lib *library.Library, dirs []Dir) (Stats, error) {
	var stats Stats
	filteredAlbumIDs := make(map[string]struct{})
	for _, dir := range dirs {
		albums, err := ReadCreatedAlbums(dir)
		if err != nil {
			return stats, &MergeError{Run: dir.ID, Kind: "unreadable_albums", Detail: CreatedAlbumsFile, Err: err}
		}
		images, err := ReadImportedImages(dir, m.logger)
		if err != nil {
			return stats, &MergeError{Run: dir.ID, Kind: "unreadable_images", Detail: ImportedImagesFile, Err: err}
		}
		stats.Runs++

		for _, rec := range albums {
			if !m.filter.Allows(rec.Title) {
				filteredAlbumIDs[rec.ID] = struct{}{}
				stats.Filtered++
				continue
			}
			if err := m.applyAlbum(ctx, lib, dir, rec); err != nil {
				return stats, err
			}
			stats.Albums++
		}

		for _, rec := range images {
			if _, ok := filteredAlbumIDs[rec.AlbumID]; ok {
				stats.Filtered++
				continue
			}
			album := lib.AlbumByDestinationID(rec.AlbumID)
			if album == nil {
				return stats, &MergeError{Run: dir.ID, Kind: "unknown_album", Detail: fmt.Sprintf("album id %q of %s", rec.AlbumID, rec.MainPath)}
			}
			if !m.filter.Allows(album.Title) {
				stats.Filtered++
				continue
			}
			if err := applyImage(album, dir, rec); err != nil {
				return stats, err
			}
			stats.Images++
		}
	}
	m.logger.Info("run state merged",
		logging.Int("runs", stats.Runs),
		logging.Int("albums", stats.Albums),
		logging.Int("images", stats.Images),
		logging.Int("filtered", stats.Filtered),
	)
	return stats, nil
}

func (m *Merger) applyAlbum(ctx context.Context, lib *library.Library, dir Dir, rec CreatedAlbum) error {
	album := lib.Album(rec.Title)
	if album == nil {
		return &MergeError{Run: dir.ID, Kind: "unknown_album", Detail: fmt.Sprintf("title %q", rec.Title)}
	}
	count := 0
	if m.albums != nil {
		n, err := m.albums.AlbumItemCount(ctx, rec.ID)
		if err != nil {
			return &MergeError{Run: dir.ID, Kind: "album_count", Detail: fmt.Sprintf("album %q (%s)", rec.Title, rec.ID), Err: err}
		}
		count = n
	}
	if err := album.Bind(rec.ID, count); err != nil {
		return &MergeError{Run: dir.ID, Kind: "album_conflict", Detail: rec.Title, Err: err}
	}
	return nil
}

func applyImage(album *library.Album, dir Dir, rec ImportedImage) error {
	item := album.FindByPath(rec.MainPath)
	if item == nil && rec.VideoPath != "" {
		item = album.FindByPath(rec.VideoPath)
	}
	if item == nil {
		return &MergeError{Run: dir.ID, Kind: "unknown_item", Detail: fmt.Sprintf("%s in album %q", rec.MainPath, album.Title)}
	}
	if err := item.Bind(rec.PhotosID); err != nil {
		return &MergeError{Run: dir.ID, Kind: "item_conflict", Detail: rec.MainPath, Err: err}
	}
	item.SetOutcome(library.MatchOutcome{Status: library.MatchBound, Candidates: []string{rec.PhotosID}})
	return nil
}
