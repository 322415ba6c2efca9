// Package security builds the Content Security Policy and related headers
// the preview server sends with rendered pages.
package security

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"

	"github.com/aellingwood/cardforge/internal/config"
)

// Font origins of the stylesheet every template imports.
const (
	fontStylesOrigin = "https://fonts.googleapis.com"
	fontFilesOrigin  = "https://fonts.gstatic.com"
)

// GenerateNonce produces a 16-byte cryptographically random nonce,
// returned as a base64-encoded string.
func GenerateNonce() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating nonce: %w", err)
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

// CSPPolicy holds the directives for a Content-Security-Policy header.
type CSPPolicy struct {
	DefaultSrc []string
	ScriptSrc  []string
	StyleSrc   []string
	ImgSrc     []string
	FontSrc    []string
	ConnectSrc []string
	BaseURI    []string
	FormAction []string
	FrameAnc   []string
}

// String serializes the policy to a CSP header value.
func (p *CSPPolicy) String() string {
	var directives []string
	add := func(name string, values []string) {
		if len(values) > 0 {
			directives = append(directives, name+" "+strings.Join(values, " "))
		}
	}
	add("default-src", p.DefaultSrc)
	add("script-src", p.ScriptSrc)
	add("style-src", p.StyleSrc)
	add("img-src", p.ImgSrc)
	add("font-src", p.FontSrc)
	add("connect-src", p.ConnectSrc)
	add("base-uri", p.BaseURI)
	add("form-action", p.FormAction)
	add("frame-ancestors", p.FrameAnc)
	return strings.Join(directives, "; ")
}

// PreviewPolicy returns the policy for a rendered card or catalog page.
// Cards style themselves inline and may show remote or inlined images, so
// styles allow 'unsafe-inline' and images allow https: and data:. With a
// nonce, inline scripts carrying it may run and the live reload socket on
// port may connect; without one no script runs at all. Extra sources from
// config are appended.
func PreviewPolicy(nonce string, port int, extra *config.CSPConfig) *CSPPolicy {
	p := &CSPPolicy{
		DefaultSrc: []string{"'none'"},
		ScriptSrc:  []string{"'none'"},
		StyleSrc:   []string{"'self'", "'unsafe-inline'", fontStylesOrigin},
		ImgSrc:     []string{"'self'", "data:", "blob:", "https:"},
		FontSrc:    []string{"'self'", "data:", fontFilesOrigin},
		ConnectSrc: []string{"'self'"},
		BaseURI:    []string{"'self'"},
		FormAction: []string{"'self'"},
		// The editor embeds previews in an iframe on the same origin.
		FrameAnc: []string{"'self'"},
	}
	if nonce != "" {
		p.ScriptSrc = []string{"'self'", fmt.Sprintf("'nonce-%s'", nonce)}
		p.ConnectSrc = append(p.ConnectSrc,
			fmt.Sprintf("ws://localhost:%d", port),
			fmt.Sprintf("ws://127.0.0.1:%d", port))
	}
	if extra != nil {
		p.StyleSrc = append(p.StyleSrc, extra.StyleSrc...)
		p.ImgSrc = append(p.ImgSrc, extra.ImgSrc...)
		p.FontSrc = append(p.FontSrc, extra.FontSrc...)
		p.ConnectSrc = append(p.ConnectSrc, extra.ConnectSrc...)
	}
	return p
}

// SetHTMLHeaders sets the policy and the companion headers sent with HTML
// documents.
func SetHTMLHeaders(h http.Header, p *CSPPolicy) {
	h.Set("Content-Security-Policy", p.String())
	h.Set("X-Frame-Options", "SAMEORIGIN")
	h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
	h.Set("Permissions-Policy", "camera=(), microphone=(), geolocation=()")
}

// SetCommonHeaders sets the headers sent with every response.
func SetCommonHeaders(h http.Header) {
	h.Set("X-Content-Type-Options", "nosniff")
}
