// Package image resolves the images a page references into inline data
// URIs, resizing and re-encoding them on the way, with a disk cache so
// unchanged images are not re-processed across builds.
package image

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// cacheManifestVersion is bumped when the cache format changes.
const cacheManifestVersion = "2"

// Cache stores encoded images on disk keyed by source. All methods are safe
// for concurrent use.
type Cache struct {
	mu       sync.Mutex
	dir      string        // e.g. .cardforge/imagecache/
	manifest CacheManifest // loaded from manifest.json
}

// CacheManifest is the top-level structure persisted as manifest.json.
type CacheManifest struct {
	Version string                 `json:"version"`
	Entries map[string]*CacheEntry `json:"entries"` // keyed by source path or URL
}

// CacheEntry records the processing state of a single source image.
type CacheEntry struct {
	ContentHash string `json:"contentHash"` // SHA-256 of the source bytes
	MaxWidth    int    `json:"maxWidth"`
	Format      string `json:"format"`
	Quality     int    `json:"quality"`
	MIME        string `json:"mime"`
	Filename    string `json:"filename"` // stored in the cache dir
}

// NewCache creates a Cache rooted at cacheDir. If a manifest.json already
// exists there it is loaded; otherwise an empty manifest is initialised.
func NewCache(cacheDir string) (*Cache, error) {
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	c := &Cache{
		dir: cacheDir,
		manifest: CacheManifest{
			Version: cacheManifestVersion,
			Entries: make(map[string]*CacheEntry),
		},
	}

	data, err := os.ReadFile(filepath.Join(cacheDir, "manifest.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return c, nil
		}
		return nil, fmt.Errorf("reading cache manifest: %w", err)
	}

	var m CacheManifest
	if err := json.Unmarshal(data, &m); err != nil {
		// Corrupt manifest, start fresh.
		return c, nil
	}
	if m.Version != cacheManifestVersion {
		return c, nil
	}
	if m.Entries == nil {
		m.Entries = make(map[string]*CacheEntry)
	}
	c.manifest = m
	return c, nil
}

// Lookup returns the cached encoding of source when the content hash and
// processing parameters all match and the cached file still exists.
func (c *Cache) Lookup(source, contentHash string, opts Options) ([]byte, string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.manifest.Entries[source]
	if !ok {
		return nil, "", false
	}
	if entry.ContentHash != contentHash || entry.MaxWidth != opts.MaxWidth ||
		entry.Format != opts.Format || entry.Quality != opts.Quality {
		return nil, "", false
	}
	data, err := os.ReadFile(filepath.Join(c.dir, entry.Filename))
	if err != nil {
		return nil, "", false
	}
	return data, entry.MIME, true
}

// Store writes the encoded image and persists the manifest.
func (c *Cache) Store(source, contentHash string, opts Options, mime string, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	filename := contentHash[:16] + "-" + opts.key() + formatExtension(opts.Format)
	if err := os.WriteFile(filepath.Join(c.dir, filename), data, 0o644); err != nil {
		return fmt.Errorf("writing cached image: %w", err)
	}
	c.manifest.Entries[source] = &CacheEntry{
		ContentHash: contentHash,
		MaxWidth:    opts.MaxWidth,
		Format:      opts.Format,
		Quality:     opts.Quality,
		MIME:        mime,
		Filename:    filename,
	}
	return c.saveManifest()
}

// Len returns the number of cached sources.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.manifest.Entries)
}

// saveManifest writes the current manifest to manifest.json in the cache
// directory. Callers hold c.mu.
func (c *Cache) saveManifest() error {
	data, err := json.MarshalIndent(c.manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling cache manifest: %w", err)
	}
	return os.WriteFile(filepath.Join(c.dir, "manifest.json"), data, 0o644)
}

// HashBytes computes the SHA-256 hex digest of data.
func HashBytes(data []byte) string {
	return fmt.Sprintf("%x", sha256.Sum256(data))
}
