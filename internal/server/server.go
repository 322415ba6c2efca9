// Package server is the local preview server. It renders catalog pages on
// request, serves a small JSON API for the editor and tells open tabs to
// reload when page files or templates change.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/aellingwood/cardforge/internal/build"
	"github.com/aellingwood/cardforge/internal/config"
	"github.com/aellingwood/cardforge/internal/content"
	"github.com/aellingwood/cardforge/internal/search"
	"github.com/aellingwood/cardforge/internal/security"
	tmpl "github.com/aellingwood/cardforge/internal/template"
)

// maxBodyBytes caps API request bodies. Documents may carry inline images.
const maxBodyBytes = 32 << 20

// ServeOptions contains the configurable settings for the preview server.
type ServeOptions struct {
	Port         int
	Bind         string
	NoLiveReload bool
	// Debounce is how long the watcher waits for changes to settle.
	Debounce time.Duration
}

// Server renders catalog pages for the browser.
type Server struct {
	builder *build.Builder
	options ServeOptions
	hub     *Hub
	watcher *Watcher
	server  *http.Server
	log     zerolog.Logger
}

// NewServer creates a Server rendering the pages of b.
func NewServer(b *build.Builder, opts ServeOptions, log zerolog.Logger) *Server {
	if opts.Debounce <= 0 {
		opts.Debounce = 150 * time.Millisecond
	}
	return &Server{
		builder: b,
		options: opts,
		hub:     NewHub(log),
		log:     log,
	}
}

// Handler returns the HTTP routes of the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /__cardforge/ws", s.hub.HandleWS)
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /pages/{id}", s.handlePage)
	mux.HandleFunc("GET /pages/{id}/source", s.handleSource)
	mux.HandleFunc("GET /api/templates", s.handleTemplates)
	mux.HandleFunc("GET /api/themes", s.handleThemes)
	mux.HandleFunc("GET /api/pages", s.handlePages)
	mux.HandleFunc("POST /api/normalize", s.handleNormalize)
	mux.HandleFunc("POST /api/render", s.handleRender)
	mux.HandleFunc("GET /", s.handleStatic)
	return s.withCommonHeaders(mux)
}

// Start serves until ctx is cancelled. Unless live reload is disabled it
// also watches the catalog and pushes reloads to open tabs.
func (s *Server) Start(ctx context.Context) error {
	addr := net.JoinHostPort(s.options.Bind, fmt.Sprint(s.options.Port))
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	if !s.options.NoLiveReload {
		s.watcher = NewWatcher(s.watchRoots(), s.options.Debounce, s.onChange, s.log)
		go func() {
			if err := s.watcher.Start(); err != nil {
				s.log.Error().Err(err).Msg("watcher stopped")
			}
		}()
	}

	go func() {
		<-ctx.Done()
		_ = s.Stop()
	}()

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	s.log.Info().Str("url", "http://"+addr).Bool("live_reload", !s.options.NoLiveReload).Msg("serving catalog preview")

	if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// watchRoots lists the catalog locations the preview reacts to.
func (s *Server) watchRoots() []Root {
	cfg := s.builder.Config()
	roots := []Root{
		{Path: s.builder.Path(cfg.ContentDir), Kind: ChangePages},
		{Path: s.builder.Path("static"), Kind: ChangeStatic},
	}
	if cfg.TemplateDir != "" {
		roots = append(roots, Root{Path: s.builder.Path(cfg.TemplateDir), Kind: ChangeTemplates})
	}
	for _, name := range config.FileNames {
		roots = append(roots, Root{Path: s.builder.Path(name), Kind: ChangeConfig})
	}
	return roots
}

// Stop gracefully shuts down the server, watcher, and hub.
func (s *Server) Stop() error {
	if s.watcher != nil {
		s.watcher.Stop()
	}
	s.hub.Stop()
	if s.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.server.Shutdown(ctx)
	}
	return nil
}

// NotifyReload tells every connected tab to reload.
func (s *Server) NotifyReload() {
	s.hub.Notify(Reload{Full: true})
}

// onChange reloads only the tabs showing edited pages when nothing but
// existing page files changed. Template, static and config changes, and
// added or removed pages, reload every tab.
func (s *Server) onChange(c Change) {
	if c.Has(ChangeTemplates) {
		s.builder.ReloadTemplates()
	}
	if c.Has(ChangeConfig) {
		s.log.Warn().Msg("configuration changed; restart the server to apply it")
	}

	r := Reload{Full: c.Has(ChangeTemplates | ChangeStatic | ChangeConfig)}
	if !r.Full {
		ids, ok := s.changedPages(c.Paths)
		r.Pages, r.Full = ids, !ok
	}
	n := s.hub.Notify(r)
	s.log.Info().Stringer("kind", c.Kinds).Strs("pages", r.Pages).Int("tabs", n).Msg("catalog changed, reloading")
}

// changedPages maps changed page files to page ids. It reports false when
// a path belongs to no current page, as when a page is added or removed.
func (s *Server) changedPages(paths []string) ([]string, bool) {
	pages, err := s.builder.LoadPages()
	if err != nil {
		return nil, false
	}
	contentDir := s.builder.Path(s.builder.Config().ContentDir)
	bySource := make(map[string]string, len(pages))
	for _, p := range pages {
		bySource[p.SourcePath] = p.ID
	}

	ids := make([]string, 0, len(paths))
	for _, path := range paths {
		rel, err := filepath.Rel(contentDir, path)
		if err != nil {
			return nil, false
		}
		id, ok := bySource[filepath.ToSlash(rel)]
		if !ok {
			return nil, false
		}
		ids = append(ids, id)
	}
	return ids, true
}

func (s *Server) withCommonHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		security.SetCommonHeaders(w.Header())
		w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		next.ServeHTTP(w, r)
	})
}

// findPage returns the page with id among the pages the build would
// publish.
func (s *Server) findPage(id string) (*content.Page, error) {
	pages, err := s.builder.PublishedPages()
	if err != nil {
		return nil, err
	}
	for _, p := range pages {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, nil
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	pages, err := s.builder.PublishedPages()
	if err != nil {
		s.serverError(w, err)
		return
	}
	entries := make([]search.IndexEntry, len(pages))
	for i, p := range pages {
		entries[i] = search.EntryFor(p, "/pages/"+p.ID, s.builder.Config().DefaultTemplate)
	}
	out, err := build.RenderIndex(s.builder.Config(), entries)
	if err != nil {
		s.serverError(w, err)
		return
	}
	s.writeHTML(w, out, "")
}

// handlePage renders one page. The template and theme query parameters
// override the page's own.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	page, err := s.findPage(r.PathValue("id"))
	if err != nil {
		s.serverError(w, err)
		return
	}
	if page == nil {
		http.NotFound(w, r)
		return
	}

	templateID := r.URL.Query().Get("template")
	if templateID == "" {
		templateID = page.TemplateID(s.builder.Config().DefaultTemplate)
	}
	themeID := r.URL.Query().Get("theme")
	if themeID == "" {
		themeID = s.builder.ThemeID(page)
	}
	inlined, err := s.builder.InlineImages(r.Context(), page)
	if err != nil {
		s.log.Warn().Err(err).Str("page", page.ID).Msg("some images could not be inlined")
	}
	out, cached := s.builder.RenderDocument(r.Context(), templateID, themeID, inlined.Content, nil)
	s.log.Debug().Str("page", page.ID).Str("template", templateID).Bool("cached", cached).Msg("rendered")
	s.writeHTML(w, out, page.ID)
}

func (s *Server) handleSource(w http.ResponseWriter, r *http.Request) {
	page, err := s.findPage(r.PathValue("id"))
	if err != nil {
		s.serverError(w, err)
		return
	}
	if page == nil {
		http.NotFound(w, r)
		return
	}
	out, err := HighlightDocument(page.Content)
	if err != nil {
		s.serverError(w, err)
		return
	}
	s.writeHTML(w, out, page.ID)
}

func (s *Server) handleTemplates(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, tmpl.List())
}

func (s *Server) handleThemes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.builder.Themes().All())
}

func (s *Server) handlePages(w http.ResponseWriter, r *http.Request) {
	pages, err := s.builder.PublishedPages()
	if err != nil {
		s.serverError(w, err)
		return
	}
	entries := make([]search.IndexEntry, len(pages))
	for i, p := range pages {
		entries[i] = search.EntryFor(p, "/pages/"+p.ID, s.builder.Config().DefaultTemplate)
		entries[i].Content = ""
	}
	writeJSON(w, http.StatusOK, entries)
}

// handleNormalize returns the canonical form of the posted document.
func (s *Server) handleNormalize(w http.ResponseWriter, r *http.Request) {
	raw, ok := readDocument(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, content.Normalize(raw))
}

// handleRender renders the posted document. The template query parameter
// overrides the document's template_id; theme selects the theme.
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	raw, ok := readDocument(w, r)
	if !ok {
		return
	}
	doc := content.Normalize(raw)
	themeID := r.URL.Query().Get("theme")
	if themeID == "" {
		themeID = s.builder.Config().DefaultTheme
	}
	out, _ := s.builder.RenderDocument(r.Context(), r.URL.Query().Get("template"), themeID, doc, nil)
	s.writeHTML(w, out, "")
}

// handleStatic serves files from the project's static directory so pages
// can reference logos and images by relative path.
func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	filePath := resolveFilePath(s.builder.Path("static"), r.URL.Path)
	if filePath == "" {
		http.NotFound(w, r)
		return
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	contentType := mime.TypeByExtension(filepath.Ext(filePath))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	_, _ = w.Write(data)
}

// writeHTML sends an HTML document with a fresh nonce. When live reload is
// on, the reload script is injected and inline scripts get the nonce.
func (s *Server) writeHTML(w http.ResponseWriter, html []byte, pageID string) {
	cfg := s.builder.Config()
	nonce := ""
	if !s.options.NoLiveReload {
		n, err := security.GenerateNonce()
		if err != nil {
			s.serverError(w, err)
			return
		}
		nonce = n
		html = InjectScriptNonces(html, nonce)
		html = InjectLiveReload(html, s.options.Port, nonce, pageID)
	}
	security.SetHTMLHeaders(w.Header(), security.PreviewPolicy(nonce, s.options.Port, &cfg.Security.CSP))
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(html)
}

func (s *Server) serverError(w http.ResponseWriter, err error) {
	s.log.Error().Err(err).Msg("request failed")
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
}

// readDocument decodes a JSON object from the request body. On failure it
// writes a 400 response and returns false.
func readDocument(w http.ResponseWriter, r *http.Request) (map[string]any, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "request body too large"})
		return nil, false
	}
	var raw map[string]any
	if len(strings.TrimSpace(string(body))) == 0 {
		return map[string]any{}, true
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON document: " + err.Error()})
		return nil, false
	}
	if raw == nil {
		raw = map[string]any{}
	}
	return raw, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

// resolveFilePath maps a URL path to a file inside root. It returns "" for
// directories, missing files and paths escaping root.
func resolveFilePath(root, urlPath string) string {
	if root == "" {
		return ""
	}
	cleaned := filepath.Clean("/" + urlPath)
	if strings.Contains(cleaned, "..") {
		return ""
	}
	fullPath := filepath.Join(root, filepath.FromSlash(cleaned))
	info, err := os.Stat(fullPath)
	if err != nil || info.IsDir() {
		return ""
	}
	return fullPath
}
