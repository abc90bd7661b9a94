package matching

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"takeoutsync/internal/destination"
	"takeoutsync/internal/library"
	"takeoutsync/internal/logging"
	"takeoutsync/internal/services"
	"takeoutsync/internal/textutil"
)

// Tier numbers reported in match outcomes.
const (
	TierNameSizeTime = 1
	TierSizeTime     = 2
	TierName         = 3
)

// ErrUnmatched marks an item that must exist in the destination but was not
// found.
var ErrUnmatched = errors.New("item not found in destination")

// UnmatchedError lists items of a manifest-bearing album that the strict
// policy requires to be present in the destination.
type UnmatchedError struct {
	Album string
	Paths []string
}

func (e *UnmatchedError) Error() string {
	return fmt.Sprintf("%d item(s) of album %q not found in destination: %s", len(e.Paths), e.Album, strings.Join(e.Paths, ", "))
}

func (e *UnmatchedError) Unwrap() error { return ErrUnmatched }

// Policy configures matching.
type Policy struct {
	Tolerance time.Duration
	// Strict makes a miss in an album with manifests fatal. Without it the
	// item is marked absent so it can be imported.
	Strict    bool
	ChunkSize int
}

// Result counts outcomes for one album.
type Result struct {
	Submitted int
	Bound     int
	Absent    int
	Ambiguous int
	ByTier    map[int]int
}

// Matcher resolves album items against the destination.
type Matcher struct {
	client destination.Searcher
	policy Policy
	logger *slog.Logger
}

// New constructs a Matcher.
func New(client destination.Searcher, policy Policy, logger *slog.Logger) *Matcher {
	if policy.ChunkSize <= 0 {
		policy.ChunkSize = 200
	}
	if policy.Tolerance < 0 {
		policy.Tolerance = 0
	}
	return &Matcher{client: client, policy: policy, logger: logging.NewComponentLogger(logger, "matching")}
}

// MatchAlbum submits every unresolved item of album. Bound and absent items
// are left untouched.
func (m *Matcher) MatchAlbum(ctx context.Context, album *library.Album) (Result, error) {
	ctx = services.WithAlbum(ctx, album.Title)
	logger := logging.WithContext(ctx, m.logger)
	res := Result{ByTier: make(map[int]int)}

	var pending []*library.ContentItem
	for _, item := range album.Items {
		if item.Destination().State() == library.Unresolved {
			pending = append(pending, item)
		}
	}
	res.Submitted = len(pending)
	for idx, chunk := range Chunks(pending, m.policy.ChunkSize) {
		logger.Debug("matching chunk", logging.Int("chunk", idx+1), logging.Int("items", len(chunk)))
		if err := m.matchChunk(ctx, logger, album, chunk, &res); err != nil {
			return res, err
		}
	}
	logger.Info("album matched",
		logging.Int("submitted", res.Submitted),
		logging.Int("bound", res.Bound),
		logging.Int("absent", res.Absent),
		logging.Int("ambiguous", res.Ambiguous),
	)
	return res, nil
}

func (m *Matcher) matchChunk(ctx context.Context, logger *slog.Logger, album *library.Album, chunk []*library.ContentItem, res *Result) error {
	keys := make([]Key, len(chunk))
	nameQueries := make([]destination.Query, len(chunk))
	for i, item := range chunk {
		keys[i] = KeyFor(item)
		nameQueries[i] = destination.Query{Kind: destination.ByName, Name: keys[i].Filename}
	}
	byName, err := m.search(ctx, nameQueries)
	if err != nil {
		return err
	}

	open := make([]bool, len(chunk))
	for i := range open {
		open[i] = true
	}

	for i := range chunk {
		ids := filter(byName[i], func(p destination.PhotoInfo) bool {
			return sameName(p.Filename, keys[i].Filename) && m.sizeAndTime(p, keys[i])
		})
		m.decide(logger, chunk[i], TierNameSizeTime, ids, open, i, res)
	}

	var timeIdx []int
	var timeQueries []destination.Query
	for i := range chunk {
		if !open[i] || keys[i].Timestamp.IsZero() || keys[i].Size == 0 {
			continue
		}
		timeIdx = append(timeIdx, i)
		timeQueries = append(timeQueries, destination.Query{
			Kind: destination.ByTime,
			From: keys[i].Timestamp.Add(-m.policy.Tolerance),
			To:   keys[i].Timestamp.Add(m.policy.Tolerance),
		})
	}
	if len(timeQueries) > 0 {
		byTime, err := m.search(ctx, timeQueries)
		if err != nil {
			return err
		}
		for q, i := range timeIdx {
			ids := filter(byTime[q], func(p destination.PhotoInfo) bool {
				return m.sizeAndTime(p, keys[i])
			})
			m.decide(logger, chunk[i], TierSizeTime, ids, open, i, res)
		}
	}

	for i := range chunk {
		if !open[i] {
			continue
		}
		ids := filter(byName[i], func(p destination.PhotoInfo) bool {
			return sameName(textutil.StripDedupSuffix(p.Filename), textutil.StripDedupSuffix(keys[i].Filename))
		})
		m.decide(logger, chunk[i], TierName, ids, open, i, res)
	}

	var unmatched []string
	for i, item := range chunk {
		if !open[i] {
			continue
		}
		item.SetOutcome(library.MatchOutcome{Status: library.MatchNoCandidate})
		switch {
		case !album.HasManifests():
			logging.WarnWithContext(logger, "no destination match in album without manifests", "match_absent",
				logging.String("path", item.Primary().Path),
				logging.String("filename", keys[i].Filename),
				logging.String(logging.FieldImpact, "item treated as missing from destination"),
			)
			item.MarkAbsent()
			res.Absent++
		case m.policy.Strict:
			unmatched = append(unmatched, item.Primary().Path)
		default:
			logger.Info("no destination match; item will be imported",
				logging.String("path", item.Primary().Path),
				logging.String("filename", keys[i].Filename),
			)
			item.MarkAbsent()
			res.Absent++
		}
	}
	if len(unmatched) > 0 {
		return &UnmatchedError{Album: album.Title, Paths: unmatched}
	}
	return nil
}

func (m *Matcher) search(ctx context.Context, queries []destination.Query) ([][]destination.PhotoInfo, error) {
	results, err := m.client.Search(ctx, queries)
	if err != nil {
		return nil, err
	}
	if len(results) != len(queries) {
		return nil, services.Wrap(services.ErrExternalTool, "matching", "search",
			fmt.Sprintf("expected %d results, got %d", len(queries), len(results)), nil)
	}
	return results, nil
}

func (m *Matcher) sizeAndTime(p destination.PhotoInfo, key Key) bool {
	if key.Size == 0 || key.Timestamp.IsZero() || p.Timestamp.IsZero() {
		return false
	}
	if p.Size != key.Size {
		return false
	}
	diff := p.Timestamp.Sub(key.Timestamp)
	if diff < 0 {
		diff = -diff
	}
	return diff <= m.policy.Tolerance
}

func (m *Matcher) decide(logger *slog.Logger, item *library.ContentItem, tier int, ids []string, open []bool, i int, res *Result) {
	if !open[i] || len(ids) == 0 {
		return
	}
	open[i] = false
	if len(ids) > 1 {
		item.SetOutcome(library.MatchOutcome{Status: library.MatchAmbiguous, Tier: tier, Candidates: ids})
		res.Ambiguous++
		logging.WarnWithContext(logger, "ambiguous destination match", "match_ambiguous",
			logging.String("path", item.Primary().Path),
			logging.Int("tier", tier),
			logging.Strings("candidates", ids),
			logging.String(logging.FieldImpact, "item left unresolved"),
			logging.String(logging.FieldErrorHint, "resolve manually with `takeoutsync inspect`"),
		)
		return
	}
	if err := item.Bind(ids[0]); err != nil {
		item.SetOutcome(library.MatchOutcome{Status: library.MatchAmbiguous, Tier: tier, Candidates: ids})
		res.Ambiguous++
		logging.WarnWithContext(logger, "destination match conflicts with binding", "match_conflict",
			logging.String("path", item.Primary().Path),
			logging.Error(err),
		)
		return
	}
	item.SetOutcome(library.MatchOutcome{Status: library.MatchBound, Tier: tier, Candidates: ids})
	res.Bound++
	res.ByTier[tier]++
	logger.Debug("destination match",
		logging.String("path", item.Primary().Path),
		logging.String("destination_id", ids[0]),
		logging.Int("tier", tier),
	)
}

func filter(candidates []destination.PhotoInfo, keep func(destination.PhotoInfo) bool) []string {
	var ids []string
	for _, c := range candidates {
		if c.ID == "" || !keep(c) || slices.Contains(ids, c.ID) {
			continue
		}
		ids = append(ids, c.ID)
	}
	return ids
}

func sameName(a, b string) bool {
	return a != "" && textutil.EqualNames(a, b)
}
