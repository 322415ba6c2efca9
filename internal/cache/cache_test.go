package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aellingwood/cardforge/internal/config"
	"github.com/aellingwood/cardforge/internal/content"
	"github.com/aellingwood/cardforge/internal/theme"
)

func TestKeyIsStable(t *testing.T) {
	doc := content.Normalize(map[string]any{"title": "Valve", "template_id": "dark-tech"})

	a, err := Key("dark-tech", theme.Default(), doc, nil)
	require.NoError(t, err)
	b, err := Key("dark-tech", theme.Default(), doc.Clone(), nil)
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
}

func TestKeyChangesWithInputs(t *testing.T) {
	doc := content.Normalize(map[string]any{"title": "Valve"})
	base, err := Key("dark-tech", theme.Default(), doc, nil)
	require.NoError(t, err)

	other := content.Normalize(map[string]any{"title": "Pump"})
	green, _ := theme.Preset("industrial-green")
	fx := theme.DefaultEffects()
	fx.GrainEnabled = true

	variants := map[string]func() (string, error){
		"template": func() (string, error) { return Key("event-poster", theme.Default(), doc, nil) },
		"theme":    func() (string, error) { return Key("dark-tech", green, doc, nil) },
		"content":  func() (string, error) { return Key("dark-tech", theme.Default(), other, nil) },
		"effects":  func() (string, error) { return Key("dark-tech", theme.Default(), doc, &fx) },
	}
	for name, fn := range variants {
		t.Run(name, func(t *testing.T) {
			k, err := fn()
			require.NoError(t, err)
			assert.NotEqual(t, base, k)
		})
	}
}

func TestMemory(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(0)

	_, ok, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	data := []byte("<html>")
	require.NoError(t, m.Set(ctx, "k", data))
	data[0] = 'X'

	got, ok, err := m.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "<html>", string(got), "stored bytes must not alias the caller's slice")
}

func TestMemoryTTL(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewMemory(time.Minute)
	m.now = func() time.Time { return now }

	require.NoError(t, m.Set(ctx, "k", []byte("v")))
	_, ok, _ := m.Get(ctx, "k")
	assert.True(t, ok)

	now = now.Add(2 * time.Minute)
	_, ok, _ = m.Get(ctx, "k")
	assert.False(t, ok)
	assert.Equal(t, 0, m.Len())
}

func TestNone(t *testing.T) {
	ctx := context.Background()
	var c Cache = None{}
	require.NoError(t, c.Set(ctx, "k", []byte("v")))
	_, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNew(t *testing.T) {
	c, err := New(config.CacheConfig{Driver: config.CacheMemory})
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, c)

	c, err = New(config.CacheConfig{Driver: config.CacheNone})
	require.NoError(t, err)
	assert.IsType(t, None{}, c)

	_, err = New(config.CacheConfig{Driver: "memcached"})
	assert.Error(t, err)
}

// TestRedis runs against a live server when CARDFORGE_TEST_REDIS is set to
// its address.
func TestRedis(t *testing.T) {
	addr := os.Getenv("CARDFORGE_TEST_REDIS")
	if addr == "" {
		t.Skip("CARDFORGE_TEST_REDIS not set")
	}
	ctx := context.Background()
	c, err := New(config.CacheConfig{Driver: config.CacheRedis, Addr: addr, TTL: time.Minute, Prefix: "cardforge-test:"})
	require.NoError(t, err)
	defer c.Close()

	_, ok, err := c.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "page", []byte("<html>")))
	got, ok, err := c.Get(ctx, "page")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "<html>", string(got))
}
