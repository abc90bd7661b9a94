// Package organize applies a reconciled library to the destination: it makes
// sure every album exists, adds bound media to its album, and imports media
// confirmed missing. Every destination mutation is recorded in the run
// directory before the next one starts.
package organize

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"takeoutsync/internal/destination"
	"takeoutsync/internal/library"
	"takeoutsync/internal/logging"
	"takeoutsync/internal/matching"
	"takeoutsync/internal/runstate"
	"takeoutsync/internal/services"
	"takeoutsync/internal/textutil"
)

// Options controls the organizer.
type Options struct {
	ChunkSize    int
	RestartEvery int
	// Import imports absent items. Without it they are only reported.
	Import bool
	WhatIf bool
}

// Result counts what Apply did.
type Result struct {
	Albums   int `json:"albums"`
	Added    int `json:"added"`
	Imported int `json:"imported"`
	Unmapped int `json:"unmapped"`
	Skipped  int `json:"skipped"`
}

// Organizer applies library state to a destination.
type Organizer struct {
	client   destination.Client
	recorder *runstate.Recorder
	opts     Options
	logger   *slog.Logger

	sinceRestart int
}

// New constructs an Organizer. In what-if mode the client is wrapped so no
// mutation reaches the destination and nothing is recorded.
func New(client destination.Client, recorder *runstate.Recorder, opts Options, logger *slog.Logger) *Organizer {
	logger = logging.NewComponentLogger(logger, "organize")
	if opts.WhatIf {
		client = destination.WhatIf(client, logger)
	}
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = 200
	}
	return &Organizer{client: client, recorder: recorder, opts: opts, logger: logger}
}

// Apply organizes every album of lib.
func (o *Organizer) Apply(ctx context.Context, lib *library.Library) (Result, error) {
	var res Result
	for _, album := range lib.Albums {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if err := o.applyAlbum(ctx, album, &res); err != nil {
			return res, fmt.Errorf("organize album %q: %w", album.Title, err)
		}
		res.Albums++
	}
	return res, nil
}

func (o *Organizer) applyAlbum(ctx context.Context, album *library.Album, res *Result) error {
	ctx = services.WithAlbum(ctx, album.Title)
	logger := logging.WithContext(ctx, o.logger)

	var bound []string
	var absent []*library.ContentItem
	for _, item := range album.Items {
		switch item.Destination().State() {
		case library.Bound:
			id, _ := item.Destination().ID()
			bound = append(bound, id)
		case library.Absent:
			absent = append(absent, item)
		}
	}
	if len(bound) == 0 && len(absent) == 0 {
		logger.Debug("album has nothing to organize")
		return nil
	}

	albumID, err := o.ensureAlbum(ctx, album)
	if err != nil {
		return err
	}

	if len(bound) > 0 {
		added := 0
		for start := 0; start < len(bound); start += o.opts.ChunkSize {
			end := min(start+o.opts.ChunkSize, len(bound))
			n, err := o.client.AddToAlbum(ctx, album.Title, bound[start:end])
			if err != nil {
				return err
			}
			added += n
		}
		res.Added += added
		logger.Info("bound media added to album",
			logging.Int("bound", len(bound)),
			logging.Int("added", added),
		)
	}

	if len(absent) == 0 {
		return nil
	}
	if !o.opts.Import {
		res.Skipped += len(absent)
		logging.WarnWithContext(logger, "media missing from destination not imported", "organize_absent_skipped",
			logging.Int("count", len(absent)),
			logging.String(logging.FieldImpact, "album is incomplete in the destination"),
			logging.String(logging.FieldErrorHint, "re-run with reconcile.mode = \"import\""),
		)
		return nil
	}
	for idx, chunk := range matching.Chunks(absent, o.opts.ChunkSize) {
		if err := o.maybeRestart(ctx, logger); err != nil {
			return err
		}
		logger.Info("importing chunk", logging.Int("chunk", idx+1), logging.Int("items", len(chunk)))
		if err := o.importChunk(ctx, logger, album, albumID, chunk, res); err != nil {
			return err
		}
	}
	return nil
}

func (o *Organizer) ensureAlbum(ctx context.Context, album *library.Album) (string, error) {
	if id, ok := album.DestinationID(); ok {
		return id, nil
	}
	id, err := o.client.CreateOrGetAlbum(ctx, album.Title)
	if err != nil {
		return "", err
	}
	if id == "" {
		return "", nil
	}
	count, err := o.client.AlbumItemCount(ctx, id)
	if err != nil && !errors.Is(err, services.ErrNotFound) {
		return "", err
	}
	if err := album.Bind(id, count); err != nil {
		return "", err
	}
	if o.recorder != nil && !o.opts.WhatIf {
		if err := o.recorder.RecordAlbum(runstate.CreatedAlbum{Title: album.Title, ID: id}); err != nil {
			return "", err
		}
	}
	return id, nil
}

func (o *Organizer) maybeRestart(ctx context.Context, logger *slog.Logger) error {
	if o.opts.RestartEvery <= 0 || o.sinceRestart < o.opts.RestartEvery {
		return nil
	}
	restarter, ok := o.client.(destination.Restarter)
	if !ok {
		return nil
	}
	logger.Info("restarting destination application", logging.Int("files_since_restart", o.sinceRestart))
	o.sinceRestart = 0
	return restarter.Restart(ctx)
}

func (o *Organizer) importChunk(ctx context.Context, logger *slog.Logger, album *library.Album, albumID string, chunk []*library.ContentItem, res *Result) error {
	var paths []string
	for _, item := range chunk {
		paths = append(paths, item.Paths()...)
	}
	o.sinceRestart += len(paths)

	imported, err := o.client.ImportFiles(ctx, album.Title, paths)
	mapped, unmapped, mapErr := o.mapImported(ctx, chunk, imported)
	for i, item := range chunk {
		photo, ok := mapped[i]
		if !ok {
			continue
		}
		if bindErr := item.Bind(photo.PhotoID); bindErr != nil {
			return bindErr
		}
		item.SetOutcome(library.MatchOutcome{Status: library.MatchBound, Candidates: []string{photo.PhotoID}})
		res.Imported++
		if o.recorder == nil || o.opts.WhatIf {
			continue
		}
		recAlbum := photo.AlbumID
		if recAlbum == "" {
			recAlbum = albumID
		}
		if recErr := o.recorder.RecordImage(importRecord(item, photo.PhotoID, recAlbum)); recErr != nil {
			return recErr
		}
	}
	if unmapped > 0 {
		res.Unmapped += unmapped
		logging.WarnWithContext(logger, "imported media could not be mapped to files", "organize_unmapped",
			logging.Int("count", unmapped),
			logging.String(logging.FieldImpact, "media will be matched on the next run"),
		)
	}
	if err != nil {
		return err
	}
	return mapErr
}

// mapImported pairs import results with chunk items by the filename the
// destination reports for each id. A result naming an item's primary file is
// preferred over one naming its partner; results left over are unmapped.
func (o *Organizer) mapImported(ctx context.Context, chunk []*library.ContentItem, imported []destination.ImportedPhoto) (map[int]destination.ImportedPhoto, int, error) {
	mapped := make(map[int]destination.ImportedPhoto, len(imported))
	if len(imported) == 0 {
		return mapped, 0, nil
	}

	ids := make([]string, len(imported))
	byID := make(map[string]destination.ImportedPhoto, len(imported))
	for i, photo := range imported {
		ids[i] = photo.PhotoID
		byID[photo.PhotoID] = photo
	}
	infos, err := o.client.GetInfo(ctx, ids)
	if err != nil {
		return mapped, len(imported), err
	}

	used := make(map[string]bool, len(infos))
	assign := func(match func(*library.ContentItem, string) bool) {
		for _, info := range infos {
			if used[info.ID] {
				continue
			}
			for i, item := range chunk {
				if _, taken := mapped[i]; taken {
					continue
				}
				if match(item, info.Filename) {
					mapped[i] = byID[info.ID]
					used[info.ID] = true
					break
				}
			}
		}
	}
	assign(func(item *library.ContentItem, name string) bool {
		return textutil.EqualNames(filepath.Base(item.Primary().Path), name)
	})
	assign(itemHasFile)
	return mapped, len(imported) - len(used), nil
}

func itemHasFile(item *library.ContentItem, filename string) bool {
	for _, p := range item.Parts() {
		if textutil.EqualNames(filepath.Base(p.Path), filename) {
			return true
		}
	}
	return false
}

func importRecord(item *library.ContentItem, photoID, albumID string) runstate.ImportedImage {
	rec := runstate.ImportedImage{PhotosID: photoID, AlbumID: albumID}
	if img := item.Image(); img != nil {
		rec.MainPath = img.Path
		if vid := item.Video(); vid != nil {
			rec.VideoPath = vid.Path
		}
		return rec
	}
	rec.MainPath = item.Video().Path
	return rec
}
