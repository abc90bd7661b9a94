package library

import "fmt"

// DestinationState is the resolution state of a content item against the
// destination library.
type DestinationState int

const (
	// Unresolved items have not been matched, or matched ambiguously.
	Unresolved DestinationState = iota
	// Bound items are known to exist in the destination under an id.
	Bound
	// Absent items were searched for and confirmed missing.
	Absent
)

func (s DestinationState) String() string {
	switch s {
	case Bound:
		return "bound"
	case Absent:
		return "absent"
	default:
		return "unresolved"
	}
}

// DestinationID is the tri-state destination identifier of a content item.
type DestinationID struct {
	state DestinationState
	id    string
}

// BoundTo returns a bound destination id.
func BoundTo(id string) DestinationID {
	return DestinationID{state: Bound, id: id}
}

// AbsentID returns the intentionally-null destination id.
func AbsentID() DestinationID {
	return DestinationID{state: Absent}
}

// State returns the resolution state.
func (d DestinationID) State() DestinationState { return d.state }

// ID returns the bound id and whether the item is bound.
func (d DestinationID) ID() (string, bool) {
	return d.id, d.state == Bound
}

func (d DestinationID) String() string {
	if d.state == Bound {
		return d.id
	}
	return d.state.String()
}

// MatchStatus is the outcome of the last destination match attempt.
type MatchStatus string

const (
	MatchNone        MatchStatus = ""
	MatchBound       MatchStatus = "bound"
	MatchNoCandidate MatchStatus = "no_candidate"
	MatchAmbiguous   MatchStatus = "ambiguous"
)

// MatchOutcome records how the destination matcher resolved an item. It is a
// value attached to the item, never an error.
type MatchOutcome struct {
	Status     MatchStatus `json:"status,omitempty"`
	Tier       int         `json:"tier,omitempty"`
	Candidates []string    `json:"candidates,omitempty"`
}

// ConflictError reports an attempt to bind something already bound elsewhere.
type ConflictError struct {
	Subject  string
	Existing string
	Incoming string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s already bound to %q, refusing %q", e.Subject, e.Existing, e.Incoming)
}
