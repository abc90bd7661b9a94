package reconcile

import (
	"fmt"
	"log/slog"
	"time"

	"takeoutsync/internal/config"
	"takeoutsync/internal/logging"
	"takeoutsync/internal/runstate"
)

// Run is the lifecycle of one reconciliation run: the runs-root lock, the
// run directory, and the run's logging session. Open it before driving and
// Close it when done.
type Run struct {
	Dir      runstate.Dir
	Session  *logging.Session
	Recorder *runstate.Recorder
	lock     *runstate.Lock
}

// OpenRun locks the runs root, creates a new run directory, and opens the
// run log in it.
func OpenRun(cfg *config.Config, base *slog.Logger, now time.Time) (*Run, error) {
	lock, err := runstate.Acquire(cfg.Paths.RunsDir)
	if err != nil {
		return nil, err
	}
	id := runstate.NewRunID(now)
	dir, err := runstate.Create(cfg.Paths.RunsDir, id)
	if err != nil {
		_ = lock.Release()
		return nil, err
	}
	session, err := logging.OpenSession(base, id, dir.File(runstate.LogFile), cfg.Logging.Level)
	if err != nil {
		_ = lock.Release()
		return nil, fmt.Errorf("open run log: %w", err)
	}
	return &Run{Dir: dir, Session: session, Recorder: runstate.NewRecorder(dir), lock: lock}, nil
}

// Logger returns the run-scoped logger.
func (r *Run) Logger() *slog.Logger {
	if r == nil || r.Session == nil {
		return logging.NewNop()
	}
	return r.Session.Logger
}

// Close ends the logging session and releases the lock.
func (r *Run) Close() error {
	if r == nil {
		return nil
	}
	sessErr := r.Session.Close()
	lockErr := r.lock.Release()
	if sessErr != nil {
		return sessErr
	}
	return lockErr
}
