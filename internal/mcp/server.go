package mcp

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/signal"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/nvandessel/epigraph/internal/config"
	"github.com/nvandessel/epigraph/internal/ratelimit"
	"github.com/nvandessel/epigraph/internal/store"
)

// Server wraps the MCP SDK server and provides epigraph-specific functionality.
type Server struct {
	server       *sdk.Server
	store        store.RunStore
	settings     *config.EpigraphConfig
	logger       *slog.Logger
	audit        *AuditLogger
	toolLimiters ratelimit.ToolLimiters
	root         string
}

// Config holds server configuration.
type Config struct {
	Name    string // Server name (e.g., "epigraph")
	Version string // Server version
	Root    string // Project root directory

	// Settings supplies defaults for simulation parameters the client omits.
	// Nil means config.Default().
	Settings *config.EpigraphConfig

	// Logger receives operational logs. It must not write to stdout, which
	// carries the protocol. Nil discards logs.
	Logger *slog.Logger
}

// NewServer creates a new MCP server with epigraph tools.
func NewServer(cfg *Config) (*Server, error) {
	runStore, err := store.NewSQLiteRunStore(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to create run store: %w", err)
	}

	settings := cfg.Settings
	if settings == nil {
		settings = config.Default()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	mcpServer := sdk.NewServer(&sdk.Implementation{
		Name:    cfg.Name,
		Version: cfg.Version,
	}, &sdk.ServerOptions{
		InitializedHandler: func(ctx context.Context, req *sdk.InitializedRequest) {
			logger.Debug("mcp client initialized")
		},
	})

	s := &Server{
		server:       mcpServer,
		store:        runStore,
		settings:     settings,
		logger:       logger,
		audit:        NewAuditLogger(store.LocalPath(cfg.Root)),
		toolLimiters: ratelimit.NewToolLimiters(),
		root:         cfg.Root,
	}

	s.registerTools()

	return s, nil
}

// Run starts the MCP server over stdio transport.
// This blocks until the client disconnects or the context is cancelled.
// The caller still owns the server and must Close it.
func (s *Server) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, shutdownSignals...)
	defer stop()

	return s.server.Run(ctx, &sdk.StdioTransport{})
}

// Close closes the server and releases resources.
func (s *Server) Close() error {
	s.audit.Close()
	return s.store.Close()
}
