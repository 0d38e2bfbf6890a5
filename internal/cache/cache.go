// Package cache remembers extracted document text keyed by a cheap file fingerprint,
// in memory and in a durable Store.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/joseph-ayodele/case-analyzer/constants"
	"github.com/joseph-ayodele/case-analyzer/internal/metrics"
)

// MinCachedChars is the length in characters a text must exceed to be written
// or trusted from disk.
const MinCachedChars = 100

// Entry is a cached extraction: the text and the strategy that produced it.
// Source is empty for entries written before sources were recorded.
type Entry struct {
	Text   string
	Source constants.Source
}

// Chars counts the text in characters, not bytes.
func (e Entry) Chars() int { return utf8.RuneCountInString(e.Text) }

// Fingerprint identifies a file revision without hashing its content.
type Fingerprint struct {
	BaseName              string
	ByteSize              int64
	ModifiedAtEpochMillis int64
}

// Key renders the fingerprint as <base>_<size>_<mtimeMillis>.
func (f Fingerprint) Key() string {
	return fmt.Sprintf("%s_%d_%d", f.BaseName, f.ByteSize, f.ModifiedAtEpochMillis)
}

// FingerprintOf stats path. Any change to size or mtime yields a new key.
func FingerprintOf(path string) (Fingerprint, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return Fingerprint{}, err
	}
	return Fingerprint{
		BaseName:              filepath.Base(path),
		ByteSize:              fi.Size(),
		ModifiedAtEpochMillis: fi.ModTime().UnixMilli(),
	}, nil
}

// Store is the durable tier behind the in-memory map.
type Store interface {
	Load(ctx context.Context, key string) (Entry, bool, error)
	Save(ctx context.Context, key string, e Entry) error
}

type Cache struct {
	mu      sync.RWMutex
	mem     map[string]Entry
	store   Store
	metrics *metrics.Metrics
	logger  *slog.Logger
}

type Option func(*Cache)

func WithMetrics(m *metrics.Metrics) Option { return func(c *Cache) { c.metrics = m } }

func WithLogger(l *slog.Logger) Option { return func(c *Cache) { c.logger = l } }

// New returns a cache backed by store. A nil store keeps the cache memory-only.
func New(store Store, opts ...Option) *Cache {
	c := &Cache{
		mem:    make(map[string]Entry),
		store:  store,
		logger: slog.Default(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Get returns the cached entry for fp. Store hits are copied into memory.
func (c *Cache) Get(ctx context.Context, fp Fingerprint) (Entry, bool) {
	key := fp.Key()

	c.mu.RLock()
	e, ok := c.mem[key]
	c.mu.RUnlock()
	c.metrics.CacheLookup("memory", ok)
	if ok {
		c.logger.Debug("cache.hit", "tier", "memory", "key", key, "chars", e.Chars())
		return e, true
	}

	if c.store == nil {
		return Entry{}, false
	}
	e, ok, err := c.store.Load(ctx, key)
	if err != nil {
		c.logger.Warn("cache.store.load_failed", "key", key, "error", err)
		c.metrics.CacheLookup("store", false)
		return Entry{}, false
	}
	if !ok || e.Chars() <= MinCachedChars {
		c.metrics.CacheLookup("store", false)
		return Entry{}, false
	}
	c.metrics.CacheLookup("store", true)

	c.mu.Lock()
	c.mem[key] = e
	c.mu.Unlock()
	c.logger.Debug("cache.hit", "tier", "store", "key", key, "chars", e.Chars())
	return e, true
}

// Put stores e under fp when its text is longer than MinCachedChars characters.
// It reports whether the entry was accepted; store failures are logged only.
func (c *Cache) Put(ctx context.Context, fp Fingerprint, e Entry) bool {
	if e.Chars() <= MinCachedChars {
		c.metrics.CachePut("skipped")
		return false
	}
	key := fp.Key()

	c.mu.Lock()
	c.mem[key] = e
	c.mu.Unlock()

	if c.store != nil {
		if err := c.store.Save(ctx, key, e); err != nil {
			c.logger.Warn("cache.store.save_failed", "key", key, "error", err)
			c.metrics.CachePut("memory_only")
			return true
		}
	}
	c.metrics.CachePut("stored")
	c.logger.Debug("cache.put", "key", key, "source", e.Source, "chars", e.Chars())
	return true
}

// Len reports the number of in-memory entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.mem)
}

// DirStore keeps one <key>.txt file per entry. The first line records the
// source as "source: <name>"; files without it load with an empty Source.
type DirStore struct {
	dir string
}

const sourceHeader = "source: "

// NewDirStore creates dir if needed.
func NewDirStore(dir string) (*DirStore, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("cache dir is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &DirStore{dir: dir}, nil
}

func (s *DirStore) path(key string) string {
	return filepath.Join(s.dir, key+".txt")
}

func (s *DirStore) Load(_ context.Context, key string) (Entry, bool, error) {
	b, err := os.ReadFile(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return Entry{}, false, nil
		}
		return Entry{}, false, err
	}
	raw := string(b)
	if rest, ok := strings.CutPrefix(raw, sourceHeader); ok {
		if src, text, found := strings.Cut(rest, "\n"); found {
			return Entry{Text: text, Source: constants.Source(strings.TrimSpace(src))}, true, nil
		}
	}
	return Entry{Text: raw}, true, nil
}

func (s *DirStore) Save(_ context.Context, key string, e Entry) error {
	return os.WriteFile(s.path(key), []byte(sourceHeader+string(e.Source)+"\n"+e.Text), 0o644)
}
