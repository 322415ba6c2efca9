package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/aellingwood/cardforge/internal/config"
)

// maxOutputBytes caps a single rasterized file.
const maxOutputBytes = 256 << 20

// Request is the body posted to the rasterizer.
type Request struct {
	HTML     string  `json:"html"`
	Format   string  `json:"format"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Unit     string  `json:"unit"`
	Optimize bool    `json:"optimize"`
}

// Rasterizer converts a rendered page into the requested format.
type Rasterizer interface {
	Rasterize(ctx context.Context, req Request) ([]byte, error)
}

// HTTPRasterizer talks to a rasterizer service exposing POST /render.
type HTTPRasterizer struct {
	endpoint string
	client   *retryablehttp.Client
}

// NewHTTPRasterizer creates a client for the rasterizer at cfg.RasterizerURL.
// Transient failures (connection errors, 5xx, 429) are retried cfg.Retries
// times.
func NewHTTPRasterizer(cfg config.ExportConfig) *HTTPRasterizer {
	client := retryablehttp.NewClient()
	client.RetryMax = max(cfg.Retries, 0)
	client.RetryWaitMin = 500 * time.Millisecond
	client.RetryWaitMax = 5 * time.Second
	client.HTTPClient.Timeout = cfg.Timeout
	client.Logger = nil // suppress retryablehttp's default logging

	return &HTTPRasterizer{
		endpoint: strings.TrimRight(cfg.RasterizerURL, "/") + "/render",
		client:   client,
	}
}

// Rasterize posts req and returns the response body.
func (r *HTTPRasterizer) Rasterize(ctx context.Context, req Request) ([]byte, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encoding rasterizer request: %w", err)
	}
	httpReq, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building rasterizer request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("calling rasterizer: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxOutputBytes))
	if err != nil {
		return nil, fmt.Errorf("reading rasterizer response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		msg := strings.TrimSpace(string(data))
		if len(msg) > 200 {
			msg = msg[:200]
		}
		return nil, fmt.Errorf("rasterizer returned %d: %s", resp.StatusCode, msg)
	}
	return data, nil
}
