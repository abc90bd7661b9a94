package reconcile

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"takeoutsync/internal/config"
	"takeoutsync/internal/destination"
	"takeoutsync/internal/library"
	"takeoutsync/internal/logging"
	"takeoutsync/internal/manifest"
	"takeoutsync/internal/matching"
	"takeoutsync/internal/metadata"
	"takeoutsync/internal/organize"
	"takeoutsync/internal/pairing"
	"takeoutsync/internal/runstate"
	"takeoutsync/internal/services"
	"takeoutsync/internal/takeout"
)

// GeoMismatchDegrees is the planar distance above which manifest and EXIF
// positions are reported as different.
const GeoMismatchDegrees = 0.001

// Options controls one run.
type Options struct {
	Filter   takeout.Filter
	Policy   matching.Policy
	Organize organize.Options
	// SkipOrganize stops after output.json.
	SkipOrganize bool
}

// OptionsFromConfig derives run options from configuration. Import mode
// relaxes the strict manifest policy so missing items can be imported.
func OptionsFromConfig(cfg *config.Config) Options {
	importMode := cfg.ImportMode()
	return Options{
		Filter: takeout.Filter{Include: cfg.Filters.IncludeAlbums, Exclude: cfg.Filters.ExcludeAlbums},
		Policy: matching.Policy{
			Tolerance: time.Duration(cfg.Matching.TimestampToleranceSeconds) * time.Second,
			Strict:    cfg.Matching.StrictManifestMatch && !importMode,
			ChunkSize: cfg.Destination.ChunkSize,
		},
		Organize: organize.Options{
			ChunkSize:    cfg.Destination.ChunkSize,
			RestartEvery: cfg.Destination.RestartEvery,
			Import:       importMode,
			WhatIf:       cfg.Reconcile.WhatIf,
		},
	}
}

// Driver runs the reconciliation pipeline.
type Driver struct {
	client   destination.Client
	reader   *metadata.Reader
	run      *Run
	runsRoot string
	opts     Options
	logger   *slog.Logger
}

// NewDriver constructs a Driver for run. client may be nil when no
// destination is configured; matching and organizing are then skipped.
func NewDriver(run *Run, runsRoot string, client destination.Client, reader *metadata.Reader, opts Options) *Driver {
	return &Driver{
		client:   client,
		reader:   reader,
		run:      run,
		runsRoot: runsRoot,
		opts:     opts,
		logger:   logging.NewComponentLogger(run.Logger(), "reconcile"),
	}
}

// Run reconciles source, a takeout directory or a library dump written by a
// previous run. The returned Summary is never nil.
func (d *Driver) Run(ctx context.Context, source string) (*Summary, error) {
	ctx = services.WithRunID(ctx, d.run.Dir.ID)
	summary := &Summary{RunID: d.run.Dir.ID, Source: source}
	lib, err := d.reconcile(ctx, source, summary)
	summary.tally(lib)
	if err != nil {
		var fe *FatalError
		if errors.As(err, &fe) {
			summary.Fatal = fe.Error()
			logging.ErrorWithContext(d.logger, "reconciliation aborted", "run_fatal",
				logging.String("kind", fe.Kind),
				logging.Error(err),
				logging.Int("unresolved", len(summary.Unresolved)),
				logging.Int("ambiguous", len(summary.Ambiguous)),
			)
		}
		return summary, err
	}
	d.logger.Info("reconciliation complete",
		logging.Args(
			logging.Int("albums", summary.Albums),
			logging.Int("items", summary.Items),
			logging.Int("bound", summary.Bound),
			logging.Int("absent", summary.Absent),
			logging.Int("unresolved", len(summary.Unresolved)),
			logging.Int("ambiguous", len(summary.Ambiguous)),
			logging.Int("failures", len(summary.Failures)),
		)...,
	)
	return summary, nil
}

func (d *Driver) reconcile(ctx context.Context, source string, summary *Summary) (*library.Library, error) {
	var (
		lib *library.Library
		err error
	)
	if strings.EqualFold(filepath.Ext(source), ".json") {
		lib, err = d.loadDump(source)
	} else {
		lib, err = d.build(services.WithStage(ctx, "parse"), source, summary)
	}
	if err != nil {
		return lib, err
	}

	for _, dropped := range pairing.Dedup(lib, d.logger) {
		summary.Dropped++
		d.logger.Debug("dropped duplicate half", logging.String("album", dropped.Album), logging.String("path", dropped.Item.Primary().Path))
	}

	if err := d.merge(services.WithStage(ctx, "merge"), lib); err != nil {
		return lib, err
	}
	if err := d.match(services.WithStage(ctx, "match"), lib); err != nil {
		return lib, err
	}

	summary.Output = d.run.Dir.File(runstate.OutputFile)
	if err := library.Save(summary.Output, lib); err != nil {
		return lib, fatal(KindPersist, err, "write %s", runstate.OutputFile)
	}

	if d.opts.SkipOrganize || d.client == nil {
		d.logger.Info("organize skipped",
			logging.Args(logging.DecisionAttrs("organize", "skipped", skipReason(d.opts.SkipOrganize))...)...)
		return lib, nil
	}
	org := organize.New(d.client, d.run.Recorder, d.opts.Organize, d.run.Logger())
	res, orgErr := org.Apply(services.WithStage(ctx, "organize"), lib)
	summary.Organize = res
	summary.Final = d.run.Dir.File(runstate.FinalFile)
	if err := library.Save(summary.Final, lib); err != nil {
		return lib, fatal(KindPersist, err, "write %s", runstate.FinalFile)
	}
	if orgErr != nil {
		return lib, fatal(KindOrganize, orgErr, "apply to destination")
	}
	return lib, nil
}

func skipReason(disabled bool) string {
	if disabled {
		return "disabled for this run"
	}
	return "no destination client configured"
}

func (d *Driver) loadDump(path string) (*library.Library, error) {
	lib, err := library.Load(path)
	if err != nil {
		return nil, fatal(KindSource, err, "load %s", path)
	}
	kept := lib.Albums[:0]
	for _, album := range lib.Albums {
		if d.opts.Filter.Allows(album.Title) {
			kept = append(kept, album)
		}
	}
	lib.Albums = kept
	d.logger.Info("library dump loaded",
		logging.String("path", path),
		logging.Int("albums", len(lib.Albums)),
		logging.Int("items", lib.ItemCount()),
	)
	return lib, nil
}

type pendingAlbum struct {
	folder    takeout.AlbumFolder
	listing   takeout.Listing
	title     string
	meta      *library.AlbumManifest
	manifests []*library.Manifest
}

// build parses the takeout at root into a library.
func (d *Driver) build(ctx context.Context, root string, summary *Summary) (*library.Library, error) {
	logger := logging.WithContext(ctx, d.logger)
	dirs, err := takeout.PhotosDirs(root, logger)
	if err != nil {
		return nil, fatal(KindSource, err, "locate %s", takeout.PhotosDirName)
	}
	folders, err := takeout.AlbumFolders(dirs)
	if err != nil {
		return nil, fatal(KindSource, err, "list albums")
	}

	var pending []pendingAlbum
	for _, folder := range folders {
		if !d.opts.Filter.Allows(folder.Name) {
			continue
		}
		p, err := parseFolder(folder)
		if err != nil {
			d.recordFailure(summary, folder, err)
			continue
		}
		if p.title != folder.Name && !d.opts.Filter.Allows(p.title) {
			continue
		}
		pending = append(pending, p)
	}

	files := make([]metadata.AlbumFiles, len(pending))
	for i, p := range pending {
		files[i] = metadata.AlbumFiles{Album: p.title, Files: p.listing.Media}
	}
	metas, err := d.reader.ReadAlbums(ctx, files)
	if err != nil {
		if metadata.IsClassification(err) {
			return nil, fatal(KindClassification, err, "read metadata")
		}
		return nil, fatal(KindSource, err, "read metadata")
	}

	lib := &library.Library{}
	for i, p := range pending {
		album, err := d.assemble(ctx, p, metas[i])
		if err != nil {
			return lib, err
		}
		if err := lib.Add(album); err != nil {
			d.recordFailure(summary, p.folder, err)
			continue
		}
	}
	logger.Info("takeout parsed",
		logging.Int("albums", len(lib.Albums)),
		logging.Int("items", lib.ItemCount()),
		logging.Int("failures", len(summary.Failures)),
	)
	return lib, nil
}

func parseFolder(folder takeout.AlbumFolder) (pendingAlbum, error) {
	listing, err := takeout.Scan(folder)
	if err != nil {
		return pendingAlbum{}, err
	}
	p := pendingAlbum{folder: folder, listing: listing, title: folder.Name}
	if len(listing.AlbumManifests) > 0 {
		meta, err := manifest.ParseAlbum(listing.AlbumManifests[0])
		if err != nil {
			return pendingAlbum{}, err
		}
		p.meta = meta
		if meta.Title != "" {
			p.title = meta.Title
		}
	}
	for _, path := range listing.Manifests {
		m, err := manifest.ParseItem(path)
		if err != nil {
			return pendingAlbum{}, err
		}
		p.manifests = append(p.manifests, m)
	}
	return p, nil
}

func (d *Driver) assemble(ctx context.Context, p pendingAlbum, metas map[string]library.Metadata) (*library.Album, error) {
	logger := logging.WithContext(services.WithAlbum(ctx, p.title), d.logger)
	parts := make([]library.Part, 0, len(p.listing.Media))
	for _, file := range p.listing.Media {
		md, ok := metas[file.Path]
		if !ok {
			err := &metadata.ClassificationError{Path: file.Path, Kind: file.Kind, Err: errors.New("no metadata record")}
			return nil, fatal(KindClassification, err, "album %q", p.title)
		}
		parts = append(parts, library.Part{Kind: file.Kind, Path: file.Path, Metadata: md})
	}
	items, _, err := pairing.Pair(p.title, parts, logger)
	if err != nil {
		return nil, fatal(KindClassification, err, "pair album %q", p.title)
	}
	album := &library.Album{
		Title:     p.title,
		Dirs:      p.folder.Dirs,
		Meta:      p.meta,
		Items:     items,
		Manifests: p.manifests,
		Remaining: p.listing.Remaining,
	}
	manifest.NewMatcher(album.Manifests, logger).Attach(album)
	logGeoMismatches(logger, album)
	return album, nil
}

// logGeoMismatches reports image positions that disagree with the manifest.
func logGeoMismatches(logger *slog.Logger, album *library.Album) {
	for _, item := range album.Items {
		img := item.Image()
		if img == nil || img.Manifest == nil || img.Metadata.Location.IsZero() {
			continue
		}
		want := img.Manifest.GeoDataExif
		if want.IsZero() {
			want = img.Manifest.GeoData
		}
		if want.IsZero() {
			continue
		}
		if dist := img.Metadata.Location.Distance(*want); dist > GeoMismatchDegrees {
			logger.Info("manifest location differs from exif",
				logging.String("path", img.Path),
				logging.Float64("distance_degrees", library.Round(dist, 6)),
			)
		}
	}
}

func (d *Driver) recordFailure(summary *Summary, folder takeout.AlbumFolder, err error) {
	dir := ""
	if len(folder.Dirs) > 0 {
		dir = folder.Dirs[0]
	}
	summary.Failures = append(summary.Failures, AlbumFailure{Album: folder.Name, Dir: dir, Error: err.Error()})
	logging.WarnWithContext(d.logger, "album skipped", "album_unreadable",
		logging.String(logging.FieldAlbum, folder.Name),
		logging.String("dir", dir),
		logging.Error(err),
		logging.String(logging.FieldImpact, "album is not reconciled this run"),
		logging.String(logging.FieldErrorHint, services.Hint(err)),
	)
}

func (d *Driver) merge(ctx context.Context, lib *library.Library) error {
	dirs, err := runstate.Discover(d.runsRoot)
	if err != nil {
		return fatal(KindStateMerge, err, "discover runs")
	}
	var albums destination.AlbumReader
	if d.client != nil {
		albums = d.client
	}
	stats, err := runstate.NewMerger(albums, d.opts.Filter, d.run.Logger()).Merge(ctx, lib, dirs)
	if err != nil {
		return fatal(KindStateMerge, err, "merge prior runs")
	}
	d.logger.Info("prior run state applied",
		logging.Int("runs", stats.Runs),
		logging.Int("albums", stats.Albums),
		logging.Int("images", stats.Images),
		logging.Int("filtered", stats.Filtered),
	)
	return nil
}

func (d *Driver) match(ctx context.Context, lib *library.Library) error {
	if d.client == nil {
		logging.WarnWithContext(d.logger, "destination matching skipped", "match_skipped",
			logging.String(logging.FieldImpact, "unresolved items stay unresolved"),
			logging.String(logging.FieldErrorHint, "set destination.client to photos"),
		)
		return nil
	}
	matcher := matching.New(d.client, d.opts.Policy, d.run.Logger())
	for _, album := range lib.Albums {
		if _, err := matcher.MatchAlbum(ctx, album); err != nil {
			var unmatched *matching.UnmatchedError
			if errors.As(err, &unmatched) {
				return fatal(KindUnmatched, err, "album %q", album.Title)
			}
			return fatal(KindDestination, err, "match album %q", album.Title)
		}
	}
	return nil
}
