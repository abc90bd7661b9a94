package testsupport

import (
	"testing"

	"takeoutsync/internal/config"
	"takeoutsync/internal/metacache"
)

// MustOpenCache opens the metadata cache for tests and registers cleanup.
func MustOpenCache(t testing.TB, cfg *config.Config) *metacache.Store {
	t.Helper()

	store, err := metacache.Open(cfg.MetadataCachePath())
	if err != nil {
		t.Fatalf("metacache.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}
