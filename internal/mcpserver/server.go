package mcpserver

import (
	"context"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"
)

// Server is the MCP server for one cardforge catalog project.
type Server struct {
	server  *mcp.Server
	dir     string
	ctx     *CatalogContext
	version string
	log     zerolog.Logger

	mu        sync.Mutex
	lastBuild *BuildResultDetail
}

// New creates a new Server for the catalog project in dir.
func New(dir, version string, log zerolog.Logger) *Server {
	s := &Server{
		dir:     dir,
		version: version,
		log:     log.With().Str("component", "mcp").Logger(),
	}
	s.ctx = NewCatalogContext(dir, s.log)

	s.server = mcp.NewServer(
		&mcp.Implementation{
			Name:    "cardforge",
			Version: version,
		},
		nil,
	)

	s.registerResources()
	s.registerTools()
	s.registerPrompts()

	return s
}

// Run starts the MCP server on the given transport.
func (s *Server) Run(ctx context.Context, transport mcp.Transport) error {
	s.startWatcher(ctx)
	return s.server.Run(ctx, transport)
}

func (s *Server) setLastBuild(d *BuildResultDetail) {
	s.mu.Lock()
	s.lastBuild = d
	s.mu.Unlock()
}

func (s *Server) buildStatus() BuildStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return BuildStatus{LastBuild: s.lastBuild}
}

func ptr[T any](v T) *T {
	return &v
}

func toolError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{IsError: true, Content: []mcp.Content{&mcp.TextContent{Text: msg}}}
}
