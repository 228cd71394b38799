package mcpserver

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/erraggy/aptos/document"
	"github.com/erraggy/aptos/schema"
)

// maxInlineSize bounds inline schema and instance content.
const maxInlineSize = 10 << 20

// schemaInput represents the three ways a schema document can be provided to
// a tool. Exactly one of File, URL, or Content must be set.
type schemaInput struct {
	File    string `json:"file,omitempty"    jsonschema:"Path to a JSON Schema or OpenAPI file on disk"`
	URL     string `json:"url,omitempty"     jsonschema:"URL to fetch a JSON Schema or OpenAPI document from"`
	Content string `json:"content,omitempty" jsonschema:"Inline schema document content (JSON or YAML)"`
}

// loadedDoc is a parsed schema document and where its external file
// references resolve.
type loadedDoc struct {
	raw     any
	baseDir string
	docName string
}

// cacheEntry holds a cached document with LRU ordering and TTL expiry.
type cacheEntry struct {
	doc       *loadedDoc
	insertAt  time.Time
	expiresAt time.Time
}

// docCache is a session-scoped cache of parsed documents. File inputs are
// keyed by (absolutePath, modTime), content inputs by a SHA-256 hash and
// URL inputs by the URL.
type docCache struct {
	mu             sync.Mutex
	entries        map[string]*cacheEntry
	maxSize        int
	ttl            time.Duration
	sweeperStarted atomic.Bool
}

func newDocCache(maxSize int, ttl time.Duration) *docCache {
	return &docCache{entries: make(map[string]*cacheEntry), maxSize: maxSize, ttl: ttl}
}

// get returns a cached document or nil. Expired entries are lazily removed.
func (c *docCache) get(key string) *loadedDoc {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil
	}
	if time.Now().After(e.expiresAt) {
		delete(c.entries, key)
		return nil
	}
	e.insertAt = time.Now()
	return e.doc
}

// put stores a document, evicting the least recently used entry if at
// capacity.
func (c *docCache) put(key string, doc *loadedDoc) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	entry := &cacheEntry{doc: doc, insertAt: now, expiresAt: now.Add(c.ttl)}
	if _, ok := c.entries[key]; !ok && len(c.entries) >= c.maxSize {
		var oldestKey string
		var oldestTime time.Time
		for k, e := range c.entries {
			if oldestKey == "" || e.insertAt.Before(oldestTime) {
				oldestKey = k
				oldestTime = e.insertAt
			}
		}
		delete(c.entries, oldestKey)
	}
	c.entries[key] = entry
}

// sweep removes all expired entries.
func (c *docCache) sweep() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now()
	for k, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, k)
		}
	}
}

// startSweeper periodically removes expired entries until ctx is
// cancelled. Only the first call spawns a sweeper.
func (c *docCache) startSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 || !c.sweeperStarted.CompareAndSwap(false, true) {
		return
	}
	go func() {
		defer c.sweeperStarted.Store(false)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.sweep()
			}
		}
	}()
}

func (c *docCache) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// cacheKey returns the cache key for s, or "" when s cannot be cached.
func (s schemaInput) cacheKey() string {
	switch {
	case s.File != "":
		absPath, err := filepath.Abs(s.File)
		if err != nil {
			return ""
		}
		info, err := os.Stat(absPath)
		if err != nil {
			return ""
		}
		return fmt.Sprintf("file:%s:%d", absPath, info.ModTime().UnixNano())
	case s.Content != "":
		h := sha256.Sum256([]byte(s.Content))
		return "content:" + hex.EncodeToString(h[:])
	case s.URL != "":
		return "url:" + s.URL
	}
	return ""
}

func (s schemaInput) check() error {
	count := 0
	for _, v := range []string{s.File, s.URL, s.Content} {
		if v != "" {
			count++
		}
	}
	if count != 1 {
		return fmt.Errorf("exactly one of file, url, or content must be provided (got %d)", count)
	}
	if len(s.Content) > maxInlineSize {
		return fmt.Errorf("inline content size %d bytes exceeds maximum %d bytes; use file input instead",
			len(s.Content), maxInlineSize)
	}
	return nil
}

// load returns the parsed document for s, using the cache when enabled.
func (ts *toolset) load(ctx context.Context, s schemaInput) (*loadedDoc, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	var key string
	if ts.cache != nil {
		key = s.cacheKey()
	}
	if key != "" {
		if doc := ts.cache.get(key); doc != nil {
			return doc, nil
		}
	}

	doc := &loadedDoc{baseDir: "."}
	var err error
	switch {
	case s.File != "":
		doc.raw, err = document.Load(s.File)
		doc.baseDir, doc.docName = filepath.Dir(s.File), filepath.Base(s.File)
	case s.URL != "":
		doc.raw, err = ts.fetch.FetchDocument(ctx, s.URL)
	default:
		doc.raw, err = document.Parse([]byte(s.Content))
	}
	if err != nil {
		return nil, err
	}

	if key != "" {
		ts.cache.put(key, doc)
	}
	return doc, nil
}

// compile loads s and compiles the schema at pointer.
func (ts *toolset) compile(ctx context.Context, s schemaInput, pointer string) (*schema.Schema, error) {
	doc, err := ts.load(ctx, s)
	if err != nil {
		return nil, err
	}
	opts := ts.cfg.SchemaOptions(ts.logger)
	opts = append(opts,
		schema.WithBaseDir(doc.baseDir),
		schema.WithDocName(doc.docName),
		schema.WithPointer(pointer),
	)
	return schema.Compile(doc.raw, opts...)
}
