package logging

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"
)

// Retention prunes log files under Root whose base name matches Pattern.
// Files directly in Root and one directory below it are considered, so a
// runs directory holding <run-id>/run.log is swept the same way as a flat
// log directory. Only log files are removed; the rest of a run directory is
// left alone.
type Retention struct {
	Root    string
	Pattern string
	Days    int
	// Keep lists paths that must survive regardless of age.
	Keep []string
}

// Sweep removes expired logs and returns the removed paths. A Days value of
// zero or less disables pruning.
func (r Retention) Sweep(logger *slog.Logger, now time.Time) []string {
	root := strings.TrimSpace(r.Root)
	if r.Days <= 0 || root == "" {
		return nil
	}
	logger = NewComponentLogger(logger, "retention")
	cutoff := now.AddDate(0, 0, -r.Days)
	keep := r.keepSet()

	var removed []string
	for _, path := range r.candidates(root) {
		if keep[absPath(path)] || !modifiedBefore(path, cutoff) {
			continue
		}
		if err := os.Remove(path); err != nil {
			WarnWithContext(logger, "log retention remove failed; file remains", "log_retention_failed",
				String("path", path),
				Error(err),
				String(FieldErrorHint, "check ownership of "+root),
				String(FieldImpact, "old log file remains on disk"),
			)
			continue
		}
		removed = append(removed, path)
	}
	if len(removed) > 0 {
		logger.Info("old logs pruned",
			Int("count", len(removed)),
			String("root", root),
			String(FieldEventType, "log_pruned"),
		)
	}
	return removed
}

func (r Retention) keepSet() map[string]bool {
	keep := make(map[string]bool, len(r.Keep))
	for _, p := range r.Keep {
		if p = strings.TrimSpace(p); p != "" {
			keep[absPath(p)] = true
		}
	}
	return keep
}

func (r Retention) candidates(root string) []string {
	pattern := strings.TrimSpace(r.Pattern)
	if pattern == "" {
		pattern = "*.log"
	}
	var out []string
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() && path != root {
				return fs.SkipDir
			}
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		depth := strings.Count(rel, string(filepath.Separator))
		if d.IsDir() {
			if path != root && depth >= 1 {
				return fs.SkipDir
			}
			return nil
		}
		if ok, _ := filepath.Match(pattern, d.Name()); ok {
			out = append(out, path)
		}
		return nil
	})
	slices.Sort(out)
	return out
}

func modifiedBefore(path string, cutoff time.Time) bool {
	info, err := os.Lstat(path)
	return err == nil && info.Mode().IsRegular() && info.ModTime().Before(cutoff)
}

func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return filepath.Clean(p)
}
