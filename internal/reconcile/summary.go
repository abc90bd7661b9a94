package reconcile

import (
	"takeoutsync/internal/library"
	"takeoutsync/internal/organize"
)

// ItemRef points at one item that still needs attention.
type ItemRef struct {
	Album      string   `json:"album"`
	Path       string   `json:"path"`
	Candidates []string `json:"candidates,omitempty"`
}

// AlbumFailure records an album skipped because its files could not be read.
type AlbumFailure struct {
	Album string `json:"album"`
	Dir   string `json:"dir"`
	Error string `json:"error"`
}

// Summary reports the state of a run. It is produced even when the run ends
// with a FatalError.
type Summary struct {
	RunID      string          `json:"runId"`
	Source     string          `json:"source"`
	Albums     int             `json:"albums"`
	Items      int             `json:"items"`
	Bound      int             `json:"bound"`
	Absent     int             `json:"absent"`
	Unresolved []ItemRef       `json:"unresolved,omitempty"`
	Ambiguous  []ItemRef       `json:"ambiguous,omitempty"`
	Failures   []AlbumFailure  `json:"failures,omitempty"`
	Dropped    int             `json:"dropped"`
	Remaining  []string        `json:"remaining,omitempty"`
	Organize   organize.Result `json:"organize"`
	Output     string          `json:"output,omitempty"`
	Final      string          `json:"final,omitempty"`
	Fatal      string          `json:"fatal,omitempty"`
}

// tally recomputes item counts from lib. Ambiguous items are listed
// separately from plain unresolved ones.
func (s *Summary) tally(lib *library.Library) {
	if lib == nil {
		return
	}
	s.Albums = len(lib.Albums)
	s.Items = 0
	s.Bound, s.Absent = 0, 0
	s.Unresolved, s.Ambiguous = nil, nil
	s.Remaining = nil
	for _, album := range lib.Albums {
		s.Remaining = append(s.Remaining, album.Remaining...)
		for _, item := range album.Items {
			s.Items++
			switch item.Destination().State() {
			case library.Bound:
				s.Bound++
				continue
			case library.Absent:
				s.Absent++
				continue
			}
			ref := ItemRef{Album: album.Title, Path: item.Primary().Path}
			if outcome := item.Outcome(); outcome.Status == library.MatchAmbiguous {
				ref.Candidates = outcome.Candidates
				s.Ambiguous = append(s.Ambiguous, ref)
				continue
			}
			s.Unresolved = append(s.Unresolved, ref)
		}
	}
}

// OK reports whether the run finished without a fatal error.
func (s *Summary) OK() bool {
	return s != nil && s.Fatal == ""
}
