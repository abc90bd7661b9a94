package metadata

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"takeoutsync/internal/library"
	"takeoutsync/internal/logging"
	"takeoutsync/internal/metacache"
	"takeoutsync/internal/services"
	"takeoutsync/internal/takeout"
)

// AlbumFiles is the media of one album to read.
type AlbumFiles struct {
	Album string
	Files []takeout.MediaFile
}

// Reader extracts and normalizes metadata for whole albums.
type Reader struct {
	extractor   Extractor
	cache       *metacache.Store
	logger      *slog.Logger
	concurrency int
}

// Option customises the Reader.
type Option func(*Reader)

// WithCache enables the metadata cache.
func WithCache(store *metacache.Store) Option {
	return func(r *Reader) { r.cache = store }
}

// WithConcurrency sets how many albums are read at once.
func WithConcurrency(n int) Option {
	return func(r *Reader) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// NewReader constructs a Reader.
func NewReader(extractor Extractor, logger *slog.Logger, opts ...Option) *Reader {
	r := &Reader{
		extractor:   extractor,
		logger:      logging.NewComponentLogger(logger, "metadata"),
		concurrency: 1,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ReadAlbums returns metadata keyed by path for each album, in input order.
// The first error cancels albums still in flight.
func (r *Reader) ReadAlbums(ctx context.Context, albums []AlbumFiles) ([]map[string]library.Metadata, error) {
	results := make([]map[string]library.Metadata, len(albums))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i, album := range albums {
		g.Go(func() error {
			md, err := r.ReadAlbum(ctx, album)
			if err != nil {
				return err
			}
			results[i] = md
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// ReadAlbum extracts metadata for one album. Every file must yield a record;
// a missing one is a ClassificationError.
func (r *Reader) ReadAlbum(ctx context.Context, album AlbumFiles) (map[string]library.Metadata, error) {
	ctx = services.WithAlbum(ctx, album.Album)
	logger := logging.WithContext(ctx, r.logger)
	out := make(map[string]library.Metadata, len(album.Files))

	var images []takeout.MediaFile
	var videos []takeout.MediaFile
	hits := 0
	for _, file := range album.Files {
		if md, ok := r.cached(ctx, logger, file); ok {
			out[file.Path] = md
			hits++
			continue
		}
		switch file.Kind {
		case library.KindImage:
			images = append(images, file)
		case library.KindVideo:
			videos = append(videos, file)
		default:
			return nil, &ClassificationError{Path: file.Path, Kind: file.Kind, Err: fmt.Errorf("unknown media kind")}
		}
	}

	if len(images) > 0 {
		paths := make([]string, len(images))
		for i, f := range images {
			paths[i] = f.Path
		}
		records, err := r.extractor.Images(ctx, paths)
		if err != nil {
			return nil, fmt.Errorf("read images of %q: %w", album.Album, err)
		}
		for _, file := range images {
			rec, ok := records[file.Path]
			if !ok {
				return nil, &ClassificationError{Path: file.Path, Kind: library.KindImage}
			}
			md := NormalizeImage(file, rec)
			out[file.Path] = md
			r.store(ctx, logger, file, md)
		}
	}

	for _, file := range videos {
		rec, err := r.extractor.Video(ctx, file.Path)
		if err != nil {
			return nil, &ClassificationError{Path: file.Path, Kind: library.KindVideo, Err: err}
		}
		md := NormalizeVideo(file, rec)
		out[file.Path] = md
		r.store(ctx, logger, file, md)
	}

	logger.Debug("album metadata read",
		logging.Int("files", len(album.Files)),
		logging.Int("cache_hits", hits),
		logging.Int("images", len(images)),
		logging.Int("videos", len(videos)),
	)
	return out, nil
}

func (r *Reader) cached(ctx context.Context, logger *slog.Logger, file takeout.MediaFile) (library.Metadata, bool) {
	if r.cache == nil {
		return library.Metadata{}, false
	}
	md, ok, err := r.cache.Get(ctx, keyFor(file), file.Kind)
	if err != nil {
		logger.Debug("metadata cache read failed", logging.String("path", file.Path), logging.Error(err))
		return library.Metadata{}, false
	}
	return md, ok
}

func (r *Reader) store(ctx context.Context, logger *slog.Logger, file takeout.MediaFile, md library.Metadata) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Put(ctx, keyFor(file), file.Kind, md); err != nil {
		logging.WarnWithContext(logger, "metadata cache write failed", "metadata_cache_write",
			logging.String("path", file.Path),
			logging.Error(err),
			logging.String(logging.FieldImpact, "file will be re-read on the next run"),
		)
	}
}

func keyFor(file takeout.MediaFile) metacache.Key {
	return metacache.Key{Path: file.Path, Size: file.Size, MTime: file.ModTime}
}
