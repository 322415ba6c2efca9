package image

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	"github.com/gen2brain/webp"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"

	"github.com/aellingwood/cardforge/internal/content"
)

// maxSourceBytes caps the size of a source image read from disk or fetched
// over HTTP.
const maxSourceBytes = 32 << 20

// Options controls how images are re-encoded.
type Options struct {
	// MaxWidth is the widest an inlined image may be. Wider images are
	// downscaled; narrower ones are never upscaled. Zero keeps the width.
	MaxWidth int
	// Format is jpeg, png or webp.
	Format  string
	Quality int
	// Timeout and Retries apply to remote fetches.
	Timeout time.Duration
	Retries int
}

func (o Options) key() string {
	return o.Format + strconv.Itoa(o.MaxWidth) + "q" + strconv.Itoa(o.Quality)
}

// Inliner replaces file and URL image references with inline data URIs.
// It is safe for concurrent use.
type Inliner struct {
	opts   Options
	cache  *Cache
	client *retryablehttp.Client
	log    zerolog.Logger

	mu   sync.Mutex
	memo map[string]string // source -> data URI, per process
}

// NewInliner creates an Inliner. The build cache is initialised at
// cacheDir; an empty cacheDir disables it.
func NewInliner(opts Options, cacheDir string, log zerolog.Logger) *Inliner {
	opts.Format = normalizeFormat(opts.Format)
	if opts.Quality <= 0 || opts.Quality > 100 {
		opts.Quality = 85
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}

	var cache *Cache
	if cacheDir != "" {
		c, err := NewCache(cacheDir)
		if err != nil {
			// Caching is a best-effort optimisation.
			log.Warn().Err(err).Str("dir", cacheDir).Msg("image cache disabled")
		} else {
			cache = c
		}
	}

	client := retryablehttp.NewClient()
	client.RetryMax = max(opts.Retries, 0)
	client.HTTPClient.Timeout = opts.Timeout
	client.Logger = nil // suppress retryablehttp's default logging

	return &Inliner{
		opts:   opts,
		cache:  cache,
		client: client,
		log:    log,
		memo:   make(map[string]string),
	}
}

// Inline returns ref as a data URI. Existing data URIs and empty refs are
// returned unchanged. Relative paths resolve against baseDir.
func (in *Inliner) Inline(ctx context.Context, ref, baseDir string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" || strings.HasPrefix(strings.ToLower(ref), "data:") {
		return ref, nil
	}

	source := ref
	remote := isRemote(ref)
	if !remote && !filepath.IsAbs(ref) {
		source = filepath.Join(baseDir, filepath.FromSlash(ref))
	}

	in.mu.Lock()
	uri, ok := in.memo[source]
	in.mu.Unlock()
	if ok {
		return uri, nil
	}

	var raw []byte
	var err error
	if remote {
		raw, err = in.fetch(ctx, source)
	} else {
		raw, err = readLimited(source)
	}
	if err != nil {
		return "", err
	}

	hash := HashBytes(raw)
	data, mime, hit := []byte(nil), "", false
	if in.cache != nil {
		data, mime, hit = in.cache.Lookup(source, hash, in.opts)
	}
	if !hit {
		data, mime, err = in.encode(raw)
		if err != nil {
			return "", fmt.Errorf("processing image %s: %w", ref, err)
		}
		if in.cache != nil {
			if err := in.cache.Store(source, hash, in.opts, mime, data); err != nil {
				in.log.Warn().Err(err).Str("source", source).Msg("image cache write failed")
			}
		}
	}

	uri = "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
	in.mu.Lock()
	in.memo[source] = uri
	in.mu.Unlock()
	in.log.Debug().Str("source", source).Bool("cached", hit).Int("bytes", len(data)).Msg("image inlined")
	return uri, nil
}

// InlineDocument returns a copy of doc with the primary image and every
// overlay image inlined. References that cannot be resolved are left as
// they are; their errors are joined into the returned error.
func (in *Inliner) InlineDocument(ctx context.Context, doc *content.Document, baseDir string) (*content.Document, error) {
	out := doc.Clone()
	var errs []error

	if uri, err := in.Inline(ctx, out.ImageData, baseDir); err != nil {
		errs = append(errs, err)
	} else {
		out.ImageData = uri
	}
	for i := range out.Overlays {
		uri, err := in.Inline(ctx, out.Overlays[i].ImageData, baseDir)
		if err != nil {
			errs = append(errs, fmt.Errorf("overlay %s: %w", out.Overlays[i].ID, err))
			continue
		}
		out.Overlays[i].ImageData = uri
	}
	return out, errors.Join(errs...)
}

func (in *Inliner) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", url, err)
	}
	resp, err := in.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching %s: status %d", url, resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxSourceBytes))
}

// encode decodes raw, downscales it to the configured width and encodes it
// in the configured format.
func (in *Inliner) encode(raw []byte) ([]byte, string, error) {
	img, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
	if err != nil {
		return nil, "", fmt.Errorf("decoding: %w", err)
	}
	if w := img.Bounds().Dx(); in.opts.MaxWidth > 0 && w > in.opts.MaxWidth {
		img = imaging.Resize(img, in.opts.MaxWidth, 0, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := encodeImage(&buf, img, in.opts.Format, in.opts.Quality); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), mimeType(in.opts.Format), nil
}

func readLimited(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening image: %w", err)
	}
	defer f.Close()
	return io.ReadAll(io.LimitReader(f, maxSourceBytes))
}

func isRemote(ref string) bool {
	lower := strings.ToLower(ref)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// normalizeFormat maps format names to jpeg, png or webp.
func normalizeFormat(format string) string {
	switch strings.ToLower(format) {
	case "png":
		return "png"
	case "webp":
		return "webp"
	default:
		return "jpeg"
	}
}

// formatExtension returns the file extension for a format name.
func formatExtension(format string) string {
	switch format {
	case "webp":
		return ".webp"
	case "png":
		return ".png"
	default:
		return ".jpg"
	}
}

func mimeType(format string) string {
	return "image/" + normalizeFormat(format)
}

// encodeImage writes img to w in the specified format.
func encodeImage(w io.Writer, img image.Image, format string, quality int) error {
	switch format {
	case "webp":
		if err := webp.Encode(w, img, webp.Options{Quality: quality}); err != nil {
			return fmt.Errorf("encoding webp: %w", err)
		}
	case "png":
		if err := png.Encode(w, img); err != nil {
			return fmt.Errorf("encoding png: %w", err)
		}
	default: // jpeg
		if err := jpeg.Encode(w, img, &jpeg.Options{Quality: quality}); err != nil {
			return fmt.Errorf("encoding jpeg: %w", err)
		}
	}
	return nil
}
