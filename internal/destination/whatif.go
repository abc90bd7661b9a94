package destination

import (
	"context"
	"log/slog"

	"takeoutsync/internal/logging"
)

// WhatIf wraps a client so reads pass through and mutations are only logged.
func WhatIf(client Client, logger *slog.Logger) Client {
	return &whatIf{Client: client, logger: logging.NewComponentLogger(logger, "what-if")}
}

type whatIf struct {
	Client
	logger *slog.Logger
}

func (w *whatIf) CreateOrGetAlbum(_ context.Context, title string) (string, error) {
	w.logger.Info("would create or reuse album", logging.String(logging.FieldAlbum, title))
	return "", nil
}

func (w *whatIf) AddToAlbum(_ context.Context, title string, ids []string) (int, error) {
	w.logger.Info("would add media to album",
		logging.String(logging.FieldAlbum, title),
		logging.Int("count", len(ids)),
	)
	return 0, nil
}

func (w *whatIf) ImportFiles(_ context.Context, title string, paths []string) ([]ImportedPhoto, error) {
	w.logger.Info("would import files",
		logging.String(logging.FieldAlbum, title),
		logging.Int("count", len(paths)),
	)
	for _, p := range paths {
		w.logger.Debug("would import file", logging.String("path", p))
	}
	return nil, nil
}

func (w *whatIf) Restart(context.Context) error {
	w.logger.Info("would restart destination application")
	return nil
}
