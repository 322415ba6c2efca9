package server

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
)

// reloadScript subscribes the tab to reloads for its page and keeps the
// scroll position across them. Verbs: nonce, WebSocket port, quoted page id.
const reloadScript = `<script nonce="%s">
(function() {
  var page = %[3]s, key = "cardforge-scroll:" + location.pathname;
  var saved = sessionStorage.getItem(key);
  if (saved !== null) {
    sessionStorage.removeItem(key);
    addEventListener("load", function() { scrollTo(0, +saved); });
  }
  function connect() {
    var ws = new WebSocket("ws://" + location.hostname + ":%[2]d/__cardforge/ws?page=" + encodeURIComponent(page));
    ws.onmessage = function(e) {
      var msg = JSON.parse(e.data);
      if (msg.type === "reload") {
        sessionStorage.setItem(key, String(scrollY));
        location.reload();
      }
    };
    ws.onclose = function() { setTimeout(connect, 1000); };
  }
  connect();
})();
</script>`

// InjectLiveReload adds the reload script for the tab showing pageID, the
// empty string for the catalog index, before the closing body tag.
func InjectLiveReload(html []byte, port int, nonce, pageID string) []byte {
	script := fmt.Appendf(nil, reloadScript, nonce, port, strconv.Quote(pageID))
	return insertBefore(html, []byte("</body>"), script)
}

// insertBefore returns html with snippet inserted before the last
// occurrence of marker, or appended when marker is absent.
func insertBefore(html, marker, snippet []byte) []byte {
	at := bytes.LastIndex(html, marker)
	if at < 0 {
		at = len(html)
	}
	var buf bytes.Buffer
	buf.Grow(len(html) + len(snippet))
	buf.Write(html[:at])
	buf.Write(snippet)
	buf.Write(html[at:])
	return buf.Bytes()
}

var (
	openScriptRe = regexp.MustCompile(`(?i)<script\b[^>]*>`)
	srcAttrRe    = regexp.MustCompile(`(?i)\s(src|nonce)\s*=`)
	typeAttrRe   = regexp.MustCompile(`(?i)\stype\s*=\s*["']?([^"'\s>]+)`)
)

// InjectScriptNonces gives every inline executable script without a nonce
// the page nonce, so scripts in override templates pass the preview CSP.
// External scripts and data blocks are left alone.
func InjectScriptNonces(html []byte, nonce string) []byte {
	attr := []byte(` nonce="` + nonce + `"`)
	return openScriptRe.ReplaceAllFunc(html, func(tag []byte) []byte {
		if srcAttrRe.Match(tag) {
			return tag
		}
		if m := typeAttrRe.FindSubmatch(tag); m != nil && !executableType(string(bytes.ToLower(m[1]))) {
			return tag
		}
		return insertBefore(tag, []byte(">"), attr)
	})
}

func executableType(t string) bool {
	switch t {
	case "text/javascript", "application/javascript", "module":
		return true
	}
	return false
}
