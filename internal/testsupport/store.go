package testsupport

import (
	"testing"

	"backlog/internal/lookupcache"
)

// MustOpenCache opens a lookup cache for tests and registers cleanup. An
// empty path yields an in-memory cache.
func MustOpenCache(t testing.TB, path string) *lookupcache.Store {
	t.Helper()

	store, err := lookupcache.Open(path, nil)
	if err != nil {
		t.Fatalf("lookupcache.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

// SeedCache merges entry under name.
func SeedCache(t testing.TB, store *lookupcache.Store, name string, entry lookupcache.Entry) {
	t.Helper()

	if err := store.Merge(name, entry); err != nil {
		t.Fatalf("seed cache %q: %v", name, err)
	}
}
