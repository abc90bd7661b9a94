package manifest

import (
	"log/slog"
	"path/filepath"
	"strings"

	"takeoutsync/internal/library"
	"takeoutsync/internal/logging"
	"takeoutsync/internal/textutil"
)

// TruncatedNameLength is the UTF-16 length at which Google truncates exported
// filenames. Only media basenames of exactly this length use the title
// heuristic.
const TruncatedNameLength = 51

// Strategy names how a candidate was found.
type Strategy string

const (
	StrategyExact     Strategy = "exact"
	StrategyDupe      Strategy = "exact_dupe"
	StrategyTruncated Strategy = "truncated_title"
)

// Candidate is a manifest proposed for a media file.
type Candidate struct {
	Manifest *library.Manifest
	Strategy Strategy
}

// Result summarizes Attach for one album.
type Result struct {
	Attached  int
	Missing   int
	Redundant int
	Unused    []*library.Manifest
}

// Matcher attaches sidecar manifests of one album to its media files. Each
// manifest is consumed by at most one slot.
type Matcher struct {
	logger    *slog.Logger
	manifests []*library.Manifest
	byName    map[string][]*library.Manifest
	consumed  map[*library.Manifest]struct{}
}

// NewMatcher indexes manifests by the media name they are written for.
func NewMatcher(manifests []*library.Manifest, logger *slog.Logger) *Matcher {
	m := &Matcher{
		logger:    logging.NewComponentLogger(logger, "manifest"),
		manifests: manifests,
		byName:    make(map[string][]*library.Manifest, len(manifests)),
		consumed:  make(map[*library.Manifest]struct{}),
	}
	for _, mf := range manifests {
		name := textutil.Normalize(MediaName(mf.Path))
		m.byName[name] = append(m.byName[name], mf)
		if dupe, ok := textutil.ManifestDupeName(name); ok {
			m.byName[dupe] = append(m.byName[dupe], mf)
		}
	}
	return m
}

// Candidates returns unconsumed manifests for the media file at mediaPath,
// exact matches first. The truncation heuristic is tried only when there is
// no exact match, and only when the on-disk name is exactly
// TruncatedNameLength UTF-16 code units before normalization.
func (m *Matcher) Candidates(mediaPath string) []Candidate {
	raw := filepath.Base(mediaPath)
	base := textutil.Normalize(raw)
	var out []Candidate
	for _, mf := range m.byName[base] {
		if m.isConsumed(mf) {
			continue
		}
		strategy := StrategyExact
		if textutil.Normalize(MediaName(mf.Path)) != base {
			strategy = StrategyDupe
		}
		out = append(out, Candidate{Manifest: mf, Strategy: strategy})
	}
	if len(out) > 0 || textutil.UTF16Len(raw) != TruncatedNameLength {
		return out
	}

	stem := textutil.Stem(base)
	ext := textutil.Ext(base)
	for _, mf := range m.manifests {
		if m.isConsumed(mf) || mf.Title == "" {
			continue
		}
		title := textutil.Normalize(mf.Title)
		if strings.Contains(title, stem) && strings.EqualFold(textutil.Ext(title), ext) {
			out = append(out, Candidate{Manifest: mf, Strategy: StrategyTruncated})
		}
	}
	return out
}

func (m *Matcher) isConsumed(mf *library.Manifest) bool {
	_, ok := m.consumed[mf]
	return ok
}

// Attach assigns manifests to every item slot of album that lacks one.
func (m *Matcher) Attach(album *library.Album) Result {
	logger := m.logger.With(logging.String(logging.FieldAlbum, album.Title))
	var res Result
	for _, item := range album.Items {
		for _, part := range item.Parts() {
			if part.Manifest != nil {
				continue
			}
			m.attachSlot(logger, item, part, &res)
		}
		for _, extra := range item.Extras() {
			for _, c := range m.Candidates(extra.Path) {
				res.Redundant++
				logger.Info("manifest for duplicate part discarded",
					logging.String("path", extra.Path),
					logging.String("manifest", c.Manifest.Path),
					logging.String("strategy", string(c.Strategy)),
				)
			}
		}
	}
	for _, mf := range m.manifests {
		if !m.isConsumed(mf) {
			res.Unused = append(res.Unused, mf)
		}
	}
	if len(res.Unused) > 0 {
		logging.WarnWithContext(logger, "manifests without media", "manifest_unused",
			logging.Int("count", len(res.Unused)),
			logging.String("first", res.Unused[0].Path),
			logging.String(logging.FieldImpact, "manifest metadata not applied"),
			logging.String(logging.FieldErrorHint, "check the export for missing media files"),
		)
	}
	return res
}

func (m *Matcher) attachSlot(logger *slog.Logger, item *library.ContentItem, part *library.Part, res *Result) {
	candidates := m.Candidates(part.Path)
	if len(candidates) == 0 {
		res.Missing++
		if partnerHasManifest(item, part.Kind) {
			logger.Info("no manifest for paired part; partner carries one",
				logging.String("path", part.Path),
			)
			return
		}
		logging.WarnWithContext(logger, "no manifest for media file", "manifest_missing",
			logging.String("path", part.Path),
			logging.String(logging.FieldImpact, "falling back to embedded metadata"),
			logging.String(logging.FieldErrorHint, "verify the export contains the sidecar JSON"),
		)
		return
	}
	for i, c := range candidates {
		if i > 0 {
			res.Redundant++
			logging.WarnWithContext(logger, "redundant manifest candidate discarded", "manifest_redundant",
				logging.String("path", part.Path),
				logging.String("manifest", c.Manifest.Path),
				logging.String("strategy", string(c.Strategy)),
				logging.String(logging.FieldImpact, "candidate left for other files"),
			)
			continue
		}
		if err := item.AttachManifest(part.Kind, c.Manifest); err != nil {
			logging.WarnWithContext(logger, "manifest not attached", "manifest_attach_failed",
				logging.String("path", part.Path),
				logging.String("manifest", c.Manifest.Path),
				logging.Error(err),
			)
			continue
		}
		m.consumed[c.Manifest] = struct{}{}
		res.Attached++
		logger.Debug("manifest attached",
			logging.String("path", part.Path),
			logging.String("manifest", c.Manifest.Path),
			logging.String("strategy", string(c.Strategy)),
		)
	}
}

func partnerHasManifest(item *library.ContentItem, kind library.MediaKind) bool {
	other := library.KindVideo
	if kind == library.KindVideo {
		other = library.KindImage
	}
	partner := item.Slot(other)
	return partner != nil && partner.Manifest != nil
}
