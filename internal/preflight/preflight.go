package preflight

import (
	"fmt"

	"takeoutsync/internal/config"
	"takeoutsync/internal/deps"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
// source is checked when non-empty.
func RunAll(cfg *config.Config, source string) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result
	results = append(results, CheckDirectoryAccess("Runs directory", cfg.Paths.RunsDir))
	if cfg.Metadata.CacheEnabled {
		results = append(results, CheckDirectoryAccess("Cache directory", cfg.Paths.CacheDir))
	}
	for _, status := range CheckSystemDeps(cfg) {
		results = append(results, fromStatus(status))
	}
	if source != "" {
		results = append(results, CheckSource(source))
	}
	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed {
			out = append(out, r)
		}
	}
	return out
}

func fromStatus(s deps.Status) Result {
	if s.Available {
		return Result{Name: s.Name, Passed: true, Detail: s.Resolved}
	}
	detail := s.Detail
	if s.Description != "" {
		detail = fmt.Sprintf("%s (%s)", detail, s.Description)
	}
	return Result{Name: s.Name, Passed: s.Optional, Detail: detail}
}
