package reconcile

import (
	"errors"
	"fmt"
)

// ErrFatal marks errors that abort a run.
var ErrFatal = errors.New("reconciliation aborted")

// Fatal error kinds.
const (
	KindSource         = "source"
	KindClassification = "classification"
	KindStateMerge     = "state_merge"
	KindUnmatched      = "unmatched"
	KindOrganize       = "organize"
	KindDestination    = "destination"
	KindPersist        = "persist"
)

// FatalError aborts the remaining processing of a run.
type FatalError struct {
	Kind   string
	Detail string
	Err    error
}

func (e *FatalError) Error() string {
	msg := "fatal " + e.Kind
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FatalError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrFatal, e.Err}
	}
	return []error{ErrFatal}
}

func fatal(kind string, err error, format string, args ...any) *FatalError {
	return &FatalError{Kind: kind, Detail: fmt.Sprintf(format, args...), Err: err}
}
