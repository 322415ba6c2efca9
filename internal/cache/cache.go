// Package cache stores rendered pages keyed by everything that affects the
// output, so unchanged pages are not re-rendered across builds and preview
// requests.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aellingwood/cardforge/internal/config"
	"github.com/aellingwood/cardforge/internal/content"
	"github.com/aellingwood/cardforge/internal/theme"
)

// Cache is a render cache. Implementations are safe for concurrent use.
// A miss is reported as ok == false with a nil error.
type Cache interface {
	Get(ctx context.Context, key string) (data []byte, ok bool, err error)
	Set(ctx context.Context, key string, data []byte) error
	Close() error
}

// keyVersion is mixed into every key and bumped when rendered output
// changes for identical inputs.
const keyVersion = "cardforge-render-1"

// Key derives the cache key for rendering doc with the given template,
// theme and effects. A nil fx means the document's own effects.
func Key(templateID string, t theme.Theme, doc *content.Document, fx *theme.Effects) (string, error) {
	payload := struct {
		Version  string            `json:"v"`
		Template string            `json:"template"`
		Theme    theme.Theme       `json:"theme"`
		Doc      *content.Document `json:"doc"`
		Effects  *theme.Effects    `json:"effects,omitempty"`
	}{keyVersion, templateID, t, doc, fx}

	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encoding cache key: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// New creates the cache selected by cfg.Driver. An empty driver selects
// the in-memory cache.
func New(cfg config.CacheConfig) (Cache, error) {
	switch cfg.Driver {
	case config.CacheMemory, "":
		return NewMemory(cfg.TTL), nil
	case config.CacheRedis:
		return NewRedis(cfg)
	case config.CacheNone:
		return None{}, nil
	default:
		return nil, fmt.Errorf("unknown cache driver %q", cfg.Driver)
	}
}

// None never stores anything.
type None struct{}

func (None) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (None) Set(context.Context, string, []byte) error         { return nil }
func (None) Close() error                                      { return nil }

// expiry returns the absolute expiry for ttl, or the zero time when ttl
// is not positive.
func expiry(now time.Time, ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return now.Add(ttl)
}
