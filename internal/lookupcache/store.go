package lookupcache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/gofrs/flock"

	"backlog/internal/catalog"
	"backlog/internal/fileutil"
	"backlog/internal/logging"
)

// ErrLocked is returned by Open when another process holds the cache lock.
var ErrLocked = errors.New("lookup cache is in use by another backlog process")

// Item is a cache entry together with its key.
type Item struct {
	Name  string
	Entry Entry
}

// Store provides thread-safe, write-through access to the lookup cache.
type Store struct {
	path    string
	logger  *slog.Logger
	lock    *flock.Flock
	mu      sync.RWMutex
	entries map[string]Entry
}

// Open loads the cache at path and takes the cross-process lock. A missing
// file starts an empty cache; an unreadable or corrupt one is logged and
// replaced on the next flush. An empty path yields an in-memory store that
// never touches disk.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.NewComponentLogger(logger, "lookupcache")

	s := &Store{
		path:    strings.TrimSpace(path),
		logger:  logger,
		entries: make(map[string]Entry),
	}
	if s.path == "" {
		return s, nil
	}

	if err := s.acquire(); err != nil {
		return nil, err
	}

	if err := s.load(); err != nil {
		logging.WarnWithContext(logger, "failed to load lookup cache", "lookupcache_load_failed",
			logging.Error(err),
			logging.String("path", s.path),
			logging.String(logging.FieldErrorHint, "cache will start empty; inspect or delete the file"),
			logging.String(logging.FieldImpact, "previously cached games will be looked up again"))
	}
	return s, nil
}

func (s *Store) acquire() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}
	lock := flock.New(s.path + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("lock cache: %w", err)
	}
	if !locked {
		return ErrLocked
	}
	s.lock = lock
	return nil
}

// Path returns the cache file location.
func (s *Store) Path() string {
	return s.path
}

// Get returns the entry cached for name.
func (s *Store) Get(name string) (Entry, bool) {
	key := catalog.NameKey(name)
	if key == "" {
		return Entry{}, false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, found := s.entries[key]
	return entry, found
}

// Merge overlays the known fields of update onto the entry for name and
// flushes the whole cache. Fields absent from update keep their cached value.
func (s *Store) Merge(name string, update Entry) error {
	key := catalog.NameKey(name)
	if key == "" {
		return errors.New("game name cannot be empty")
	}
	if update.IsEmpty() {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = s.entries[key].merge(update)
	if err := s.flushLocked(); err != nil {
		return fmt.Errorf("persist cache: %w", err)
	}

	s.logger.Debug("cached lookup result",
		logging.String(logging.FieldGame, name),
		logging.Any("fields", update.fields()))
	return nil
}

// MergeMany applies several merges and flushes once.
func (s *Store) MergeMany(updates map[string]Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := 0
	for name, update := range updates {
		key := catalog.NameKey(name)
		if key == "" || update.IsEmpty() {
			continue
		}
		s.entries[key] = s.entries[key].merge(update)
		changed++
	}
	if changed == 0 {
		return nil
	}
	if err := s.flushLocked(); err != nil {
		return fmt.Errorf("persist cache: %w", err)
	}
	s.logger.Debug("cached batch results", logging.Int("entry_count", changed))
	return nil
}

// Flush rewrites the cache file from memory.
func (s *Store) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flushLocked()
}

// Remove deletes the entry for name and persists the change.
func (s *Store) Remove(name string) error {
	key := catalog.NameKey(name)
	if key == "" {
		return errors.New("game name cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[key]; !exists {
		return fmt.Errorf("game %q not found in cache", name)
	}
	delete(s.entries, key)

	if err := s.flushLocked(); err != nil {
		return fmt.Errorf("persist cache: %w", err)
	}
	s.logger.Debug("removed game from cache", logging.String(logging.FieldGame, key))
	return nil
}

// List returns all entries sorted by name.
func (s *Store) List() []Item {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]Item, 0, len(s.entries))
	for name, entry := range s.entries {
		items = append(items, Item{Name: name, Entry: entry})
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].Name < items[j].Name
	})
	return items
}

// Clear removes all entries and persists the empty cache.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make(map[string]Entry)
	if err := s.flushLocked(); err != nil {
		return fmt.Errorf("persist cache: %w", err)
	}
	s.logger.Debug("cleared lookup cache")
	return nil
}

// Count returns the number of cached names.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Close releases the cross-process lock.
func (s *Store) Close() error {
	if s == nil || s.lock == nil {
		return nil
	}
	err := s.lock.Unlock()
	s.lock = nil
	return err
}

func (s *Store) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read cache file: %w", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil
	}

	var raw map[string]Entry
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parse cache file: %w", err)
	}

	entries := make(map[string]Entry, len(raw))
	for name, entry := range raw {
		key := catalog.NameKey(name)
		if key == "" || entry.IsEmpty() {
			continue
		}
		entries[key] = entries[key].merge(entry)
	}
	s.entries = entries

	s.logger.Debug("loaded lookup cache",
		logging.Int("entry_count", len(s.entries)),
		logging.String("path", s.path))
	return nil
}

// flushLocked writes the cache atomically. Callers hold s.mu.
func (s *Store) flushLocked() error {
	if s.path == "" {
		return nil
	}
	// encoding/json sorts map keys, so output is deterministic.
	data, err := json.MarshalIndent(s.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal cache: %w", err)
	}
	data = append(data, '\n')
	return fileutil.WriteFileAtomic(s.path, data, 0o644)
}
