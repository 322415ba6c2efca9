package server

import (
	"bytes"
	"testing"
)

func TestInjectLiveReload_BeforeBody(t *testing.T) {
	html := []byte("<html><body><p>Hello</p></body></html>")
	result := InjectLiveReload(html, 1414, "testnonce", "")

	if !bytes.Contains(result, []byte(":1414/__cardforge/ws")) {
		t.Error("expected port 1414 in WebSocket URL")
	}

	bodyIdx := bytes.Index(result, []byte("</body>"))
	scriptIdx := bytes.Index(result, []byte(`<script nonce="testnonce">`))
	if scriptIdx == -1 || bodyIdx == -1 {
		t.Fatal("expected both <script nonce=...> and </body> in result")
	}
	if scriptIdx >= bodyIdx {
		t.Error("expected script to be injected before </body>")
	}
}

func TestInjectLiveReload_MissingBody(t *testing.T) {
	result := InjectLiveReload([]byte("<html><p>No body tag</p></html>"), 8080, "testnonce", "")

	if !bytes.Contains(result, []byte(":8080/__cardforge/ws")) {
		t.Error("expected port 8080 in WebSocket URL")
	}
	if !bytes.HasSuffix(result, []byte("</script>")) {
		t.Error("expected script to be appended at end when no </body> tag")
	}
}

func TestInjectLiveReload_EmptyHTML(t *testing.T) {
	result := InjectLiveReload([]byte{}, 1414, "testnonce", "")
	if !bytes.Contains(result, []byte("<script nonce=")) {
		t.Error("expected script to be added even to empty HTML")
	}
}

func TestInjectLiveReload_LastBody(t *testing.T) {
	// A card may quote "</body>" in its text; only the real closing tag counts.
	html := []byte("<html><body><p>&lt;/body&gt;</p><pre></body></pre></body></html>")
	result := InjectLiveReload(html, 1414, "n", "valve")
	if bytes.LastIndex(result, []byte("<script")) < bytes.Index(result, []byte("</pre>")) {
		t.Error("script should be injected before the last </body>")
	}
}

func TestInjectLiveReload_PageSubscription(t *testing.T) {
	result := InjectLiveReload([]byte("<body></body>"), 1414, "n", `ball "valve"`)
	if !bytes.Contains(result, []byte(`var page = "ball \"valve\""`)) {
		t.Errorf("page id should be quoted into the script: %s", result)
	}
	if !bytes.Contains(result, []byte("?page=")) {
		t.Error("the socket URL should carry the page")
	}
}

func TestInjectScriptNonces_InlineScript(t *testing.T) {
	result := InjectScriptNonces([]byte(`<body><script>alert("hi")</script></body>`), "abc123")
	if !bytes.Contains(result, []byte(`<script nonce="abc123">`)) {
		t.Errorf("expected nonce in inline script, got: %s", result)
	}
}

func TestInjectScriptNonces_MultipleScripts(t *testing.T) {
	html := []byte(`<script>inline()</script><script src="/ext.js"></script><script nonce="existing">x()</script><script>another()</script>`)
	result := InjectScriptNonces(html, "xyz")
	expected := `<script nonce="xyz">inline()</script><script src="/ext.js"></script><script nonce="existing">x()</script><script nonce="xyz">another()</script>`
	if string(result) != expected {
		t.Errorf("unexpected result:\ngot:  %s\nwant: %s", result, expected)
	}
}

func TestInjectScriptNonces_NoScripts(t *testing.T) {
	html := []byte(`<html><body><p>Hello</p></body></html>`)
	if string(InjectScriptNonces(html, "abc")) != string(html) {
		t.Error("should not modify HTML without script tags")
	}
}

func TestInjectScriptNonces_Types(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantNonce bool
	}{
		{"application/json", `<script type="application/json">{"key":"val"}</script>`, false},
		{"application/ld+json", `<script type="application/ld+json">{"@type":"Product"}</script>`, false},
		{"text/template", `<script type="text/template"><div>{{.}}</div></script>`, false},
		{"text/javascript", `<script type="text/javascript">code()</script>`, true},
		{"module", `<script type="module">import x from './x'</script>`, true},
		{"uppercase", `<SCRIPT>code()</SCRIPT>`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := InjectScriptNonces([]byte(tt.input), "abc123")
			if got := bytes.Contains(result, []byte(`nonce="abc123"`)); got != tt.wantNonce {
				t.Errorf("nonce added = %v, want %v: %s", got, tt.wantNonce, result)
			}
		})
	}
}
