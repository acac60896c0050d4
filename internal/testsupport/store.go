package testsupport

import (
	"context"
	"testing"

	"cuetrack/internal/cache"
	"cuetrack/internal/config"
	"cuetrack/internal/cue"
)

// MustOpenCache opens a cache.Store for tests and registers cleanup.
func MustOpenCache(t testing.TB, cfg *config.Config) *cache.Store {
	t.Helper()

	store, err := cache.Open(cfg)
	if err != nil {
		t.Fatalf("cache.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// PutDocument stores cues for url in the cache.
func PutDocument(t testing.TB, store *cache.Store, url string, cues []cue.Cue) {
	t.Helper()

	if err := store.Put(context.Background(), url, cues); err != nil {
		t.Fatalf("store.Put: %v", err)
	}
}
