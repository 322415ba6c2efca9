package security

import (
	"encoding/base64"
	"net/http"
	"strings"
	"testing"

	"github.com/aellingwood/cardforge/internal/config"
)

func TestGenerateNonce_Length(t *testing.T) {
	nonce, err := GenerateNonce()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 16 bytes base64-encoded = 24 characters.
	decoded, err := base64.StdEncoding.DecodeString(nonce)
	if err != nil {
		t.Fatalf("nonce is not valid base64: %v", err)
	}
	if len(decoded) != 16 {
		t.Errorf("expected 16 decoded bytes, got %d", len(decoded))
	}
}

func TestGenerateNonce_Unique(t *testing.T) {
	n1, err := GenerateNonce()
	if err != nil {
		t.Fatal(err)
	}
	n2, err := GenerateNonce()
	if err != nil {
		t.Fatal(err)
	}
	if n1 == n2 {
		t.Error("two consecutive nonces should not be equal")
	}
}

func TestCSPPolicy_String(t *testing.T) {
	p := &CSPPolicy{
		DefaultSrc: []string{"'none'"},
		ScriptSrc:  []string{"'self'"},
		ImgSrc:     []string{"'self'", "data:"},
	}
	s := p.String()
	if s != "default-src 'none'; script-src 'self'; img-src 'self' data:" {
		t.Errorf("unexpected policy %q", s)
	}
}

func TestCSPPolicy_String_Empty(t *testing.T) {
	p := &CSPPolicy{}
	if p.String() != "" {
		t.Errorf("expected empty string for empty policy, got %q", p.String())
	}
}

func TestPreviewPolicy_WithNonce(t *testing.T) {
	s := PreviewPolicy("testNonce123", 1414, nil).String()

	for _, want := range []string{
		"default-src 'none'",
		"script-src 'self' 'nonce-testNonce123'",
		"ws://localhost:1414",
		"style-src 'self' 'unsafe-inline' https://fonts.googleapis.com",
		"font-src 'self' data: https://fonts.gstatic.com",
		"img-src 'self' data: blob: https:",
		"frame-ancestors 'self'",
	} {
		if !strings.Contains(s, want) {
			t.Errorf("policy missing %q: %s", want, s)
		}
	}
}

func TestPreviewPolicy_WithoutNonce(t *testing.T) {
	s := PreviewPolicy("", 1414, nil).String()

	if !strings.Contains(s, "script-src 'none'") {
		t.Errorf("scripts should be blocked without a nonce: %s", s)
	}
	if strings.Contains(s, "ws://") {
		t.Error("no live reload socket without a nonce")
	}
}

func TestPreviewPolicy_WithExtras(t *testing.T) {
	extra := &config.CSPConfig{
		StyleSrc:   []string{"https://styles.example.com"},
		ImgSrc:     []string{"https://images.example.com"},
		FontSrc:    []string{"https://fonts.example.com"},
		ConnectSrc: []string{"https://api.example.com"},
	}
	s := PreviewPolicy("n", 8080, extra).String()

	for _, want := range []string{
		"https://styles.example.com",
		"https://images.example.com",
		"https://fonts.example.com",
		"https://api.example.com",
	} {
		if !strings.Contains(s, want) {
			t.Errorf("expected extra source %q in policy", want)
		}
	}
}

func TestCSPPolicy_DirectiveOrder(t *testing.T) {
	parts := strings.Split(PreviewPolicy("test", 1414, nil).String(), "; ")
	if len(parts) < 5 {
		t.Errorf("expected at least 5 directive parts, got %d", len(parts))
	}
	if !strings.HasPrefix(parts[0], "default-src") {
		t.Errorf("expected default-src as first directive, got %q", parts[0])
	}
}

func TestSetHeaders(t *testing.T) {
	h := http.Header{}
	SetCommonHeaders(h)
	SetHTMLHeaders(h, PreviewPolicy("", 1414, nil))

	if h.Get("X-Content-Type-Options") != "nosniff" {
		t.Error("expected X-Content-Type-Options: nosniff")
	}
	if h.Get("X-Frame-Options") != "SAMEORIGIN" {
		t.Error("expected X-Frame-Options: SAMEORIGIN")
	}
	if h.Get("Referrer-Policy") != "strict-origin-when-cross-origin" {
		t.Error("expected Referrer-Policy header")
	}
	if h.Get("Permissions-Policy") == "" {
		t.Error("expected Permissions-Policy header")
	}
	if !strings.HasPrefix(h.Get("Content-Security-Policy"), "default-src") {
		t.Error("expected Content-Security-Policy header")
	}
}
