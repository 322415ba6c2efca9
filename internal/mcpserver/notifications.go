package mcpserver

import (
	"context"
	"path/filepath"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/aellingwood/cardforge/internal/config"
	"github.com/aellingwood/cardforge/internal/server"
)

// startWatcher starts a file watcher that marks the catalog context dirty
// and sends resource update notifications when project files change.
// Watching is best-effort; a failure only disables the notifications.
func (s *Server) startWatcher(ctx context.Context) {
	cfg := config.Default()
	if cc, err := s.ctx.Load(); err == nil {
		cfg, _, _ = cc.Snapshot()
	}
	roots := []server.Root{{Path: filepath.Join(s.dir, cfg.ContentDir), Kind: server.ChangePages}}
	if cfg.TemplateDir != "" {
		roots = append(roots, server.Root{Path: filepath.Join(s.dir, cfg.TemplateDir), Kind: server.ChangeTemplates})
	}
	for _, name := range config.FileNames {
		roots = append(roots, server.Root{Path: filepath.Join(s.dir, name), Kind: server.ChangeConfig})
	}

	watcher := server.NewWatcher(roots, 500*time.Millisecond, func(c server.Change) {
		s.ctx.MarkDirty()
		uris := []string{"cardforge://pages"}
		if c.Has(server.ChangeConfig | server.ChangeTemplates) {
			uris = append(uris, "cardforge://config", "cardforge://templates")
		}
		for _, uri := range uris {
			if err := s.server.ResourceUpdated(ctx, &mcp.ResourceUpdatedNotificationParams{URI: uri}); err != nil {
				s.log.Debug().Err(err).Str("uri", uri).Msg("resource update notification failed")
			}
		}
	}, s.log)

	go func() {
		<-ctx.Done()
		watcher.Stop()
	}()
	go func() {
		// Start blocks until Stop.
		if err := watcher.Start(); err != nil {
			s.log.Warn().Err(err).Msg("file watching disabled")
		}
	}()
}
