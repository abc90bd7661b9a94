package logging

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"takeoutsync/internal/services"
)

// Session is the logging context of one reconciliation run. Its Logger sends
// every record to the base logger and, as JSON, to the run's log file. Each
// record carries run_id, plus the album and stage held by the context when
// the call site did not set them. Records logged after Close still reach the
// base logger.
type Session struct {
	Logger *slog.Logger
	RunID  string

	path string
	file *sessionFile
}

// OpenSession starts a run-scoped logging session writing JSON records at
// level to path.
func OpenSession(base *slog.Logger, runID, path, level string) (*Session, error) {
	f, err := openLogFile(path)
	if err != nil {
		return nil, err
	}
	file := &sessionFile{f: f}
	levelVar := new(slog.LevelVar)
	levelVar.Set(parseLevel(level))

	h := &sessionHandler{file: jsonHandler(file, levelVar, false), runID: runID}
	if base != nil {
		h.console = base.Handler()
	}
	return &Session{Logger: slog.New(h), RunID: runID, path: path, file: file}, nil
}

// Path returns the session log file location.
func (s *Session) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// Close flushes and releases the session log file. It is safe to call twice.
func (s *Session) Close() error {
	if s == nil || s.file == nil {
		return nil
	}
	return s.file.Close()
}

// sessionHandler fans records out to the console and file handlers, each
// applying its own level.
type sessionHandler struct {
	console slog.Handler
	file    slog.Handler
	runID   string
	// bound holds top-level keys already attached through WithAttrs.
	bound map[string]bool
	group bool
}

func (h *sessionHandler) handlers() []slog.Handler {
	if h.console == nil {
		return []slog.Handler{h.file}
	}
	return []slog.Handler{h.console, h.file}
}

func (h *sessionHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range h.handlers() {
		if handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (h *sessionHandler) Handle(ctx context.Context, record slog.Record) error {
	if !h.group {
		record.AddAttrs(h.stampedAttrs(ctx, record)...)
	}
	var firstErr error
	for _, handler := range h.handlers() {
		if !handler.Enabled(ctx, record.Level) {
			continue
		}
		if err := handler.Handle(ctx, record.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (h *sessionHandler) stampedAttrs(ctx context.Context, record slog.Record) []slog.Attr {
	present := make(map[string]bool, record.NumAttrs())
	record.Attrs(func(a slog.Attr) bool {
		present[a.Key] = true
		return true
	})
	var out []slog.Attr
	add := func(key, value string, ok bool) {
		if ok && !present[key] && !h.bound[key] {
			out = append(out, slog.String(key, value))
		}
	}
	add(FieldRunID, h.runID, h.runID != "")
	if ctx == nil {
		return out
	}
	album, ok := services.AlbumFromContext(ctx)
	add(FieldAlbum, album, ok)
	stage, ok := services.StageFromContext(ctx)
	add(FieldStage, stage, ok)
	return out
}

func (h *sessionHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := h.derive(func(handler slog.Handler) slog.Handler { return handler.WithAttrs(attrs) })
	if !h.group {
		next.bound = make(map[string]bool, len(h.bound)+len(attrs))
		for key := range h.bound {
			next.bound[key] = true
		}
		for _, a := range attrs {
			next.bound[a.Key] = true
		}
	}
	return next
}

func (h *sessionHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	if !h.group && h.runID != "" && !h.bound[FieldRunID] {
		h = h.WithAttrs([]slog.Attr{slog.String(FieldRunID, h.runID)}).(*sessionHandler)
	}
	next := h.derive(func(handler slog.Handler) slog.Handler { return handler.WithGroup(name) })
	next.group = true
	return next
}

func (h *sessionHandler) derive(apply func(slog.Handler) slog.Handler) *sessionHandler {
	next := &sessionHandler{file: apply(h.file), runID: h.runID, bound: h.bound, group: h.group}
	if h.console != nil {
		next.console = apply(h.console)
	}
	return next
}

// sessionFile drops writes once closed so loggers that outlive the run do
// not fail.
type sessionFile struct {
	mu     sync.Mutex
	f      *os.File
	closed bool
}

func (s *sessionFile) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return len(p), nil
	}
	return s.f.Write(p)
}

func (s *sessionFile) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	syncErr := s.f.Sync()
	if err := s.f.Close(); err != nil {
		return fmt.Errorf("close session log: %w", err)
	}
	if syncErr != nil {
		return fmt.Errorf("sync session log: %w", syncErr)
	}
	return nil
}
