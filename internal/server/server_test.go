package server

import (
	"encoding/json"
	"fmt"
	"image/color"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/gorilla/websocket"

	"github.com/aellingwood/cardforge/internal/build"
	"github.com/aellingwood/cardforge/internal/cache"
	"github.com/aellingwood/cardforge/internal/config"
	"github.com/aellingwood/cardforge/internal/logger"
	tmpl "github.com/aellingwood/cardforge/internal/template"
	"github.com/aellingwood/cardforge/internal/theme"
)

// ---------- Helpers ----------

func writeTestFile(t *testing.T, dir, name, content string) {
	t.Helper()
	fullPath := filepath.Join(dir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(fullPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// newTestServer creates a project with two published pages and a draft and
// returns a server over it.
func newTestServer(t *testing.T, opts ServeOptions) (*Server, string) {
	t.Helper()
	root := t.TempDir()
	writeTestFile(t, root, "pages/valve.yaml", `id: valve
name: Ball Valve
order: 1
content:
  template_id: tech-data-sheet
  title: Ball Valve
  bullet_points: ["Body: Brass"]
`)
	writeTestFile(t, root, "pages/pump.json", `{"id": "pump", "order": 2, "theme_id": "dark-tech", "title": "Pump"}`)
	writeTestFile(t, root, "pages/wip.yaml", "id: wip\ndraft: true\ntitle: WIP\n")
	writeTestFile(t, root, "static/logo.svg", "<svg></svg>")

	cfg := config.Default()
	cfg.Title = "Spring Catalog"
	cfg.Description = "All **new** valves."
	b := build.NewBuilder(cfg, build.Options{ProjectRoot: root, Cache: cache.NewMemory(0), Logger: logger.Nop()})
	if opts.Port == 0 {
		opts.Port = 1414
	}
	return NewServer(b, opts, logger.Nop()), root
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, target, nil))
	return rr
}

func post(t *testing.T, h http.Handler, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, target, strings.NewReader(body)))
	return rr
}

// ---------- Pages ----------

func TestIndex(t *testing.T) {
	srv, _ := newTestServer(t, ServeOptions{NoLiveReload: true})
	rr := get(t, srv.Handler(), "/")

	if rr.Code != http.StatusOK {
		t.Fatalf("status %d", rr.Code)
	}
	body := rr.Body.String()
	for _, want := range []string{"Spring Catalog", "<strong>new</strong>", `href="/pages/valve"`, `href="/pages/pump"`} {
		if !strings.Contains(body, want) {
			t.Errorf("index missing %q", want)
		}
	}
	if strings.Contains(body, "/pages/wip") {
		t.Error("drafts should not be listed")
	}
}

func TestPage(t *testing.T) {
	srv, _ := newTestServer(t, ServeOptions{NoLiveReload: true})
	rr := get(t, srv.Handler(), "/pages/valve")

	if rr.Code != http.StatusOK {
		t.Fatalf("status %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "text/html; charset=utf-8" {
		t.Errorf("Content-Type = %q", ct)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "Ball Valve") || !strings.Contains(body, "Brass") {
		t.Error("rendered page should contain the document text")
	}
	if strings.Contains(body, "<script") {
		t.Error("no script should be injected without live reload")
	}
}

func TestPage_Overrides(t *testing.T) {
	srv, _ := newTestServer(t, ServeOptions{NoLiveReload: true})
	h := srv.Handler()

	plain := get(t, h, "/pages/pump").Body.String()
	green, _ := theme.Preset("industrial-green")
	over := get(t, h, "/pages/pump?theme=industrial-green&template=minimal-premium").Body.String()

	if plain == over {
		t.Error("template and theme query parameters should change the output")
	}
	if !strings.Contains(strings.ToLower(over), strings.ToLower(green.PrimaryColor)) {
		t.Error("theme override not applied")
	}
}

func TestPage_NotFound(t *testing.T) {
	srv, _ := newTestServer(t, ServeOptions{NoLiveReload: true})
	for _, target := range []string{"/pages/missing", "/pages/wip", "/pages/missing/source"} {
		if rr := get(t, srv.Handler(), target); rr.Code != http.StatusNotFound {
			t.Errorf("%s: status %d, want 404", target, rr.Code)
		}
	}
}

func TestPage_LiveReload(t *testing.T) {
	srv, _ := newTestServer(t, ServeOptions{})
	h := srv.Handler()

	rr1 := get(t, h, "/pages/valve")
	rr2 := get(t, h, "/pages/valve")

	body := rr1.Body.String()
	if !strings.Contains(body, "/__cardforge/ws") {
		t.Error("expected live reload script")
	}
	csp := rr1.Header().Get("Content-Security-Policy")
	if !strings.Contains(csp, "'nonce-") {
		t.Errorf("expected nonce in CSP, got %q", csp)
	}
	if csp == rr2.Header().Get("Content-Security-Policy") {
		t.Error("expected a fresh nonce per request")
	}
}

func TestSource(t *testing.T) {
	srv, _ := newTestServer(t, ServeOptions{NoLiveReload: true})
	rr := get(t, srv.Handler(), "/pages/valve/source")

	if rr.Code != http.StatusOK {
		t.Fatalf("status %d", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "tech-data-sheet") {
		t.Error("source view should show the canonical document")
	}
	for _, want := range []string{`<meta charset="utf-8">`, "<style>", ".chroma", `class="chroma"`} {
		if !strings.Contains(body, want) {
			t.Errorf("source view missing %q", want)
		}
	}
	if strings.Contains(body, "<pre style=") {
		t.Error("highlighting should use the page stylesheet, not inline styles")
	}
}

func TestPage_InlinesImages(t *testing.T) {
	srv, root := newTestServer(t, ServeOptions{NoLiveReload: true})
	srv.builder.Config().Build.InlineImages = true
	img := imaging.New(40, 20, color.NRGBA{R: 200, A: 255})
	if err := os.MkdirAll(filepath.Join(root, "pages", "photos"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := imaging.Save(img, filepath.Join(root, "pages", "photos", "valve.png")); err != nil {
		t.Fatal(err)
	}
	writeTestFile(t, root, "pages/photo.yaml", "id: photo\ntitle: Photo\nimage_data: photos/valve.png\n")

	body := get(t, srv.Handler(), "/pages/photo").Body.String()
	if !strings.Contains(body, "data:image/jpeg;base64,") {
		t.Error("expected the page image to be inlined")
	}
	if strings.Contains(body, "photos/valve.png") {
		t.Error("the file reference should be replaced")
	}
}

// ---------- API ----------

func TestAPI_Templates(t *testing.T) {
	srv, _ := newTestServer(t, ServeOptions{NoLiveReload: true})
	rr := get(t, srv.Handler(), "/api/templates")

	var infos []tmpl.Info
	if err := json.Unmarshal(rr.Body.Bytes(), &infos); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if len(infos) != 10 {
		t.Errorf("expected 10 templates, got %d", len(infos))
	}
}

func TestAPI_Themes(t *testing.T) {
	srv, _ := newTestServer(t, ServeOptions{NoLiveReload: true})
	rr := get(t, srv.Handler(), "/api/themes")

	var themes []theme.Theme
	if err := json.Unmarshal(rr.Body.Bytes(), &themes); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if len(themes) < 4 {
		t.Errorf("expected the preset themes, got %d", len(themes))
	}
}

func TestAPI_Pages(t *testing.T) {
	srv, _ := newTestServer(t, ServeOptions{NoLiveReload: true})
	rr := get(t, srv.Handler(), "/api/pages")

	var pages []map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &pages); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if len(pages) != 2 || pages[0]["id"] != "valve" {
		t.Errorf("unexpected pages: %v", pages)
	}
}

func TestAPI_Normalize(t *testing.T) {
	srv, _ := newTestServer(t, ServeOptions{NoLiveReload: true})
	rr := post(t, srv.Handler(), "/api/normalize", `{"description": "Hello", "features": ["a"]}`)

	if rr.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rr.Code, rr.Body)
	}
	var doc map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &doc); err != nil {
		t.Fatal(err)
	}
	if doc["body"] != "Hello" {
		t.Errorf("alias not resolved: body = %v", doc["body"])
	}
	if _, ok := doc["layer_groups"]; !ok {
		t.Error("canonical document should carry layer groups")
	}
}

func TestAPI_NormalizeBadJSON(t *testing.T) {
	srv, _ := newTestServer(t, ServeOptions{NoLiveReload: true})
	for _, body := range []string{`{not json`, `[1,2]`} {
		if rr := post(t, srv.Handler(), "/api/normalize", body); rr.Code != http.StatusBadRequest {
			t.Errorf("%q: status %d, want 400", body, rr.Code)
		}
	}
	if rr := post(t, srv.Handler(), "/api/normalize", ""); rr.Code != http.StatusOK {
		t.Errorf("empty body: status %d, want 200", rr.Code)
	}
}

func TestAPI_Render(t *testing.T) {
	srv, _ := newTestServer(t, ServeOptions{NoLiveReload: true})
	rr := post(t, srv.Handler(), "/api/render?template=event-poster&theme=dark-tech", `{"title": "Open Day"}`)

	if rr.Code != http.StatusOK {
		t.Fatalf("status %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "Open Day") {
		t.Error("rendered document should contain the title")
	}
	if rr.Header().Get("Content-Security-Policy") == "" {
		t.Error("HTML responses carry a CSP")
	}
}

func TestAPI_MethodNotAllowed(t *testing.T) {
	srv, _ := newTestServer(t, ServeOptions{NoLiveReload: true})
	if rr := get(t, srv.Handler(), "/api/render"); rr.Code == http.StatusOK {
		t.Error("GET /api/render should not succeed")
	}
}

// ---------- Static files and headers ----------

func TestStatic(t *testing.T) {
	srv, _ := newTestServer(t, ServeOptions{NoLiveReload: true})
	h := srv.Handler()

	rr := get(t, h, "/logo.svg")
	if rr.Code != http.StatusOK || rr.Body.String() != "<svg></svg>" {
		t.Fatalf("status %d body %q", rr.Code, rr.Body)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "image/svg+xml" {
		t.Errorf("Content-Type = %q", ct)
	}
	if rr.Header().Get("Content-Security-Policy") != "" {
		t.Error("non-HTML responses should not carry a CSP")
	}
	if rr.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("every response should carry nosniff")
	}

	if rr := get(t, h, "/missing.png"); rr.Code != http.StatusNotFound {
		t.Errorf("missing file: status %d", rr.Code)
	}
}

func TestResolveFilePath_Traversal(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, root, "static/a.txt", "a")
	writeTestFile(t, root, "secret.txt", "s")
	static := filepath.Join(root, "static")

	if got := resolveFilePath(static, "/a.txt"); got == "" {
		t.Error("expected a.txt to resolve")
	}
	for _, p := range []string{"/../secret.txt", "/..%2fsecret.txt", "/", ""} {
		if got := resolveFilePath(static, p); got != "" && !strings.HasPrefix(got, static) {
			t.Errorf("%q escaped the root: %s", p, got)
		}
	}
	if got := resolveFilePath(static, "/"); got != "" {
		t.Error("directories should not resolve")
	}
}

// ---------- WebSocket Hub ----------

// dialTab connects a preview tab for page and waits until the hub has it.
func dialTab(t *testing.T, srv *Server, ts *httptest.Server, page string) *websocket.Conn {
	t.Helper()
	want := srv.hub.ClientCount() + 1
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/__cardforge/ws?page=" + page
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	for deadline := time.Now().Add(time.Second); srv.hub.ClientCount() < want && time.Now().Before(deadline); {
		time.Sleep(5 * time.Millisecond)
	}
	if srv.hub.ClientCount() < want {
		t.Fatalf("expected %d tabs, got %d", want, srv.hub.ClientCount())
	}
	return conn
}

func readReload(t *testing.T, conn *websocket.Conn, wait time.Duration) (Reload, bool) {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(wait))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return Reload{}, false
	}
	var r Reload
	if err := json.Unmarshal(msg, &r); err != nil {
		t.Fatalf("bad reload message %q: %v", msg, err)
	}
	return r, true
}

func TestHub_NotifyReachesTabs(t *testing.T) {
	srv, _ := newTestServer(t, ServeOptions{})
	defer srv.hub.Stop()
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	conn := dialTab(t, srv, ts, "valve")
	srv.NotifyReload()

	r, ok := readReload(t, conn, time.Second)
	if !ok {
		t.Fatal("expected a reload message")
	}
	if r.Type != "reload" || !r.Full {
		t.Errorf("message = %+v, want a full reload", r)
	}
}

func TestHub_PageScopedReload(t *testing.T) {
	srv, _ := newTestServer(t, ServeOptions{})
	defer srv.hub.Stop()
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	valve := dialTab(t, srv, ts, "valve")
	pump := dialTab(t, srv, ts, "pump")
	index := dialTab(t, srv, ts, "")

	if n := srv.hub.Notify(Reload{Pages: []string{"valve"}}); n != 2 {
		t.Errorf("notified %d tabs, want 2 (valve and index)", n)
	}
	if r, ok := readReload(t, valve, time.Second); !ok || len(r.Pages) != 1 || r.Pages[0] != "valve" {
		t.Errorf("valve tab got %+v (%v)", r, ok)
	}
	if _, ok := readReload(t, index, time.Second); !ok {
		t.Error("the index tab should reload")
	}
	if _, ok := readReload(t, pump, 100*time.Millisecond); ok {
		t.Error("the pump tab should not reload")
	}
}

func TestHub_NotifyDoesNotBlock(t *testing.T) {
	hub := NewHub(logger.Nop())
	defer hub.Stop()

	done := make(chan struct{})
	go func() {
		for range 1000 {
			hub.Notify(Reload{Full: true})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Error("Notify blocked")
	}
}

func TestHub_StopIsIdempotent(t *testing.T) {
	hub := NewHub(logger.Nop())
	hub.Stop()
	hub.Stop()
	if n := hub.Notify(Reload{Full: true}); n != 0 {
		t.Errorf("stopped hub notified %d tabs", n)
	}
}

func TestReload_Affects(t *testing.T) {
	tests := []struct {
		reload Reload
		page   string
		want   bool
	}{
		{Reload{Full: true}, "pump", true},
		{Reload{}, "pump", true},
		{Reload{Pages: []string{"valve"}}, "valve", true},
		{Reload{Pages: []string{"valve"}}, "pump", false},
		{Reload{Pages: []string{"valve"}}, "", true},
	}
	for _, tt := range tests {
		if got := tt.reload.affects(tt.page); got != tt.want {
			t.Errorf("%+v.affects(%q) = %v, want %v", tt.reload, tt.page, got, tt.want)
		}
	}
}

// ---------- Watcher ----------

func TestWatcher_DebouncesIntoOneChange(t *testing.T) {
	dir := t.TempDir()
	testFile := filepath.Join(dir, "page.yaml")
	if err := os.WriteFile(testFile, []byte("title: a"), 0o644); err != nil {
		t.Fatal(err)
	}

	var calls atomic.Int32
	changes := make(chan Change, 8)
	w := NewWatcher([]Root{{Path: dir, Kind: ChangePages}}, 100*time.Millisecond, func(c Change) {
		calls.Add(1)
		changes <- c
	}, logger.Nop())
	go func() { _ = w.Start() }()
	time.Sleep(50 * time.Millisecond)

	for i := range 5 {
		if err := os.WriteFile(testFile, fmt.Appendf(nil, "title: %d", i), 0o644); err != nil {
			t.Fatal(err)
		}
		time.Sleep(10 * time.Millisecond)
	}
	time.Sleep(300 * time.Millisecond)
	w.Stop()

	count := calls.Load()
	if count == 0 {
		t.Fatal("expected at least one change")
	}
	if count >= 5 {
		t.Errorf("expected debouncing to reduce callbacks, got %d for 5 writes", count)
	}
	c := <-changes
	if !c.Has(ChangePages) || c.Has(ChangeTemplates) {
		t.Errorf("kinds = %v, want pages", c.Kinds)
	}
	if len(c.Paths) != 1 || c.Paths[0] != testFile {
		t.Errorf("paths = %v, want [%s]", c.Paths, testFile)
	}
}

func TestWatcher_Classify(t *testing.T) {
	root := t.TempDir()
	pages := filepath.Join(root, "pages")
	w := NewWatcher([]Root{
		{Path: pages, Kind: ChangePages},
		{Path: filepath.Join(pages, "templates"), Kind: ChangeTemplates},
		{Path: filepath.Join(root, "cardforge.yaml"), Kind: ChangeConfig},
	}, time.Second, func(Change) {}, logger.Nop())

	tests := map[string]ChangeKind{
		filepath.Join(pages, "valve.yaml"):                    ChangePages,
		filepath.Join(pages, "sub", "pump.md"):                ChangePages,
		filepath.Join(pages, "templates", "cards", "x.gohtml"): ChangeTemplates,
		filepath.Join(root, "cardforge.yaml"):                 ChangeConfig,
		filepath.Join(root, "README.md"):                      0,
	}
	for path, want := range tests {
		if got := w.classify(path); got != want {
			t.Errorf("classify(%s) = %v, want %v", path, got, want)
		}
	}
}

func TestChangeKind_String(t *testing.T) {
	if got := (ChangePages | ChangeConfig).String(); got != "pages+config" {
		t.Errorf("String() = %q", got)
	}
	if got := ChangeKind(0).String(); got != "none" {
		t.Errorf("String() = %q", got)
	}
}

func TestWatcher_IgnoredFiles(t *testing.T) {
	for name, want := range map[string]bool{
		"page.yaml":      false,
		"page.yaml~":     true,
		".page.yaml.swp": true,
		".#page.yaml":    true,
		".DS_Store":      true,
		"4913":           true,
	} {
		if got := ignoredFile(filepath.Join("pages", name)); got != want {
			t.Errorf("ignoredFile(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestWatcher_NonexistentPathsAndStop(t *testing.T) {
	w := NewWatcher([]Root{{Path: "/nonexistent/path/that/does/not/exist", Kind: ChangePages}}, 100*time.Millisecond, func(Change) {}, logger.Nop())
	go func() { _ = w.Start() }()
	time.Sleep(50 * time.Millisecond)
	w.Stop()
	w.Stop()
}

func TestOnChange_PageEditReloadsThatPage(t *testing.T) {
	srv, root := newTestServer(t, ServeOptions{})
	defer srv.hub.Stop()
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	valve := dialTab(t, srv, ts, "valve")
	pump := dialTab(t, srv, ts, "pump")

	srv.onChange(Change{Kinds: ChangePages, Paths: []string{filepath.Join(root, "pages", "valve.yaml")}})
	if r, ok := readReload(t, valve, time.Second); !ok || r.Full {
		t.Errorf("valve tab got %+v (%v), want a page reload", r, ok)
	}
	if _, ok := readReload(t, pump, 100*time.Millisecond); ok {
		t.Error("the pump tab should not reload")
	}
}

func TestOnChange_NewPageReloadsEverything(t *testing.T) {
	srv, root := newTestServer(t, ServeOptions{})
	defer srv.hub.Stop()
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	pump := dialTab(t, srv, ts, "pump")
	srv.onChange(Change{Kinds: ChangePages, Paths: []string{filepath.Join(root, "pages", "gate.yaml")}})
	if r, ok := readReload(t, pump, time.Second); !ok || !r.Full {
		t.Errorf("pump tab got %+v (%v), want a full reload", r, ok)
	}
}

func TestOnChange_TemplateReloadsEverything(t *testing.T) {
	srv, root := newTestServer(t, ServeOptions{})
	defer srv.hub.Stop()
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	pump := dialTab(t, srv, ts, "pump")
	srv.onChange(Change{Kinds: ChangeTemplates, Paths: []string{filepath.Join(root, "templates", "cards", "dark-tech.gohtml")}})
	if r, ok := readReload(t, pump, time.Second); !ok || !r.Full {
		t.Errorf("pump tab got %+v (%v), want a full reload", r, ok)
	}
}

// ---------- Server lifecycle ----------

func TestNewServer(t *testing.T) {
	srv, _ := newTestServer(t, ServeOptions{Port: 1414, Bind: "localhost"})
	if srv.hub == nil {
		t.Error("expected hub to be initialized")
	}
	if srv.options.Debounce <= 0 {
		t.Error("expected a default debounce")
	}
}

func TestStartAndStop(t *testing.T) {
	srv, _ := newTestServer(t, ServeOptions{Port: 0, Bind: "127.0.0.1", NoLiveReload: true})
	srv.options.Port = freePort(t)

	errc := make(chan error, 1)
	go func() { errc <- srv.Start(t.Context()) }()

	url := fmt.Sprintf("http://127.0.0.1:%d/api/templates", srv.options.Port)
	var resp *http.Response
	var err error
	for deadline := time.Now().Add(2 * time.Second); time.Now().Before(deadline); time.Sleep(20 * time.Millisecond) {
		if resp, err = http.Get(url); err == nil {
			break
		}
	}
	if err != nil {
		t.Fatalf("server did not come up: %v", err)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	if err := srv.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	select {
	case err := <-errc:
		if err != nil {
			t.Errorf("Start returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Error("Start did not return after Stop")
	}
}

func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()
	return ln.Addr().(*net.TCPAddr).Port
}
