// Package server provides the MCP server for the mock map providers.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"sort"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/NERVsystems/mapmcp/pkg/cache"
	"github.com/NERVsystems/mapmcp/pkg/config"
	"github.com/NERVsystems/mapmcp/pkg/dataset"
	"github.com/NERVsystems/mapmcp/pkg/maperr"
	"github.com/NERVsystems/mapmcp/pkg/metrics"
	"github.com/NERVsystems/mapmcp/pkg/ratelimit"
	"github.com/NERVsystems/mapmcp/pkg/tools"
	"github.com/NERVsystems/mapmcp/pkg/tools/prompts"
	"github.com/NERVsystems/mapmcp/pkg/version"
)

// Server encapsulates the MCP server with the map tools.
type Server struct {
	cfg     *config.Config
	logger  *slog.Logger
	store   *dataset.Store
	srv     *server.MCPServer
	metrics *metrics.Metrics
	limiter *ratelimit.RateLimiter
	results *cache.TTLCache[string, *mcp.CallToolResult]

	mu       sync.RWMutex
	handlers map[string]server.ToolHandlerFunc
}

// NewServer creates a map MCP server over store with all tools and prompts
// registered.
func NewServer(cfg *config.Config, store *dataset.Store, logger *slog.Logger) (*Server, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if store == nil {
		return nil, fmt.Errorf("new server: %w", &maperr.DataUnavailableError{Dataset: "all", Err: os.ErrNotExist})
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("initializing map MCP server",
		"name", version.Name,
		"version", version.BuildVersion)

	s := &Server{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		metrics:  metrics.New(),
		limiter:  ratelimit.New(cfg.RateLimit.RPS, cfg.RateLimit.Burst),
		handlers: make(map[string]server.ToolHandlerFunc),
	}
	if cfg.Cache.Enabled {
		s.results = cache.NewTTLCache[string, *mcp.CallToolResult](cfg.Cache.Size, cfg.Cache.TTL)
	}
	s.metrics.SetDatasetCounts(store.Counts())

	s.srv = server.NewMCPServer(
		version.Name,
		version.BuildVersion,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)

	registry := tools.NewRegistry(logger, store, cfg.Services())
	registry.RegisterTools(s.srv, s.record, s.observe, s.cached, s.limited)
	prompts.RegisterMapPrompts(s.srv)

	return s, nil
}

// MCPServer returns the underlying MCP server.
func (s *Server) MCPServer() *server.MCPServer { return s.srv }

// Metrics returns the collectors of this server.
func (s *Server) Metrics() *metrics.Metrics { return s.metrics }

// ToolNames returns the registered tool names in sorted order.
func (s *Server) ToolNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.handlers))
	for name := range s.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CallTool runs a tool through the same middleware chain as MCP requests.
func (s *Server) CallTool(ctx context.Context, name string, arguments map[string]any) (*mcp.CallToolResult, error) {
	s.mu.RLock()
	handler, ok := s.handlers[name]
	s.mu.RUnlock()
	if !ok {
		return tools.ErrorResponse(maperr.InvalidParameter("tool", name, "unknown tool")), nil
	}
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = arguments
	return handler(ctx, req)
}

// Health reports the server state for the ops endpoint.
func (s *Server) Health() metrics.Health {
	h := metrics.Health{
		Status:   "ok",
		Version:  version.Info(),
		Datasets: s.store.Counts(),
		Tools:    s.ToolNames(),
	}
	if s.results != nil {
		hits, misses := s.results.Stats()
		h.Cache = &metrics.CacheHealth{Entries: s.results.Count(), Hits: hits, Misses: misses}
	}
	return h
}

// Run serves MCP over the configured transport until ctx is canceled or,
// for stdio, the client closes stdin. The ops endpoint runs alongside when
// metrics.addr is set.
func (s *Server) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if addr := s.cfg.Metrics.Addr; addr != "" {
		go func() {
			s.logger.Info("starting ops endpoint", "addr", addr)
			if err := metrics.Serve(ctx, addr, metrics.NewRouter(s.metrics, s.Health)); err != nil {
				s.logger.Error("ops endpoint failed", "error", err)
			}
		}()
	}

	switch s.cfg.Server.Transport {
	case config.TransportSSE:
		return s.runSSE(ctx)
	default:
		return s.runStdio(ctx)
	}
}

func (s *Server) runStdio(ctx context.Context) error {
	stdio := server.NewStdioServer(s.srv)
	stdio.SetErrorLogger(log.New(os.Stderr, "", log.LstdFlags))
	s.logger.Info("serving MCP over stdio")
	if err := stdio.Listen(ctx, os.Stdin, os.Stdout); err != nil && ctx.Err() == nil {
		return fmt.Errorf("stdio transport: %w", err)
	}
	return nil
}

func (s *Server) runSSE(ctx context.Context) error {
	sse := server.NewSSEServer(s.srv, server.WithBaseURL(s.cfg.Server.BaseURL))

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("serving MCP over SSE", "addr", s.cfg.Server.SSEAddr, "base_url", s.cfg.Server.BaseURL)
		errCh <- sse.Start(s.cfg.Server.SSEAddr)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("sse transport %s: %w", s.cfg.Server.SSEAddr, err)
		}
		return nil
	case <-ctx.Done():
		s.logger.Info("shutting down SSE transport")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return sse.Shutdown(shutdownCtx)
	}
}
