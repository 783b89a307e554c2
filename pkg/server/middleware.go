package server

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/NERVsystems/mapmcp/pkg/cache"
	"github.com/NERVsystems/mapmcp/pkg/tools"
)

const (
	// rateLimitWait bounds how long a call queues for a rate limit token
	// before it is refused.
	rateLimitWait = time.Second

	shutdownTimeout = 5 * time.Second
)

type callIDKey struct{}

// CallID returns the ID assigned to the tool call running under ctx.
func CallID(ctx context.Context) string {
	id, _ := ctx.Value(callIDKey{}).(string)
	return id
}

// record keeps the wrapped handler so CallTool goes through the same chain
// as the MCP transport.
func (s *Server) record(def tools.ToolDefinition, next server.ToolHandlerFunc) server.ToolHandlerFunc {
	s.mu.Lock()
	s.handlers[def.Name] = next
	s.mu.Unlock()
	return next
}

// observe tags each call with an ID, logs it and records its metrics.
func (s *Server) observe(def tools.ToolDefinition, next server.ToolHandlerFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		callID := uuid.NewString()
		ctx = context.WithValue(ctx, callIDKey{}, callID)
		logger := s.logger.With("tool", def.Name, "call_id", callID)
		logger.Debug("tool call started", "arguments", req.Params.Arguments)

		start := time.Now()
		result, err := next(ctx, req)
		elapsed := time.Since(start)

		status := resultStatus(result, err)
		s.metrics.ObserveCall(def.Name, status, elapsed)
		if err != nil {
			logger.Error("tool call failed", "error", err, "duration", elapsed)
		} else {
			logger.Info("tool call finished", "status", status, "duration", elapsed)
		}
		return result, err
	}
}

// cached serves repeated calls from the result cache. Only ok and
// no_result envelopes are stored; errors are always recomputed.
func (s *Server) cached(def tools.ToolDefinition, next server.ToolHandlerFunc) server.ToolHandlerFunc {
	if s.results == nil {
		return next
	}
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		key, err := cache.Key(def.Name, req.Params.Arguments)
		if err != nil {
			s.logger.Debug("uncacheable arguments", "tool", def.Name, "error", err)
			return next(ctx, req)
		}
		if result, ok := s.results.Get(key); ok {
			s.metrics.CacheHit(def.Name)
			return result, nil
		}
		s.metrics.CacheMiss(def.Name)

		result, err := next(ctx, req)
		if err == nil && result != nil && !result.IsError {
			s.results.Set(key, result)
		}
		return result, err
	}
}

// limited applies the per-tool rate limit.
func (s *Server) limited(def tools.ToolDefinition, next server.ToolHandlerFunc) server.ToolHandlerFunc {
	if !s.limiter.Enabled() {
		return next
	}
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		waitCtx, cancel := context.WithTimeout(ctx, rateLimitWait)
		defer cancel()
		if err := s.limiter.Wait(waitCtx, def.Name); err != nil {
			s.metrics.RateLimited(def.Name)
			return tools.ErrorResponse(&tools.ToolError{
				Code:        tools.CodeRateLimited,
				Message:     "rate limit exceeded for " + def.Name,
				Recoverable: true,
				Guidance:    tools.GuidanceRateLimit,
			}), nil
		}
		return next(ctx, req)
	}
}

// resultStatus reads the envelope status of a result for metrics and logs.
func resultStatus(result *mcp.CallToolResult, err error) string {
	if err != nil || result == nil {
		return string(tools.StatusError)
	}
	for _, content := range result.Content {
		text, ok := content.(mcp.TextContent)
		if !ok {
			continue
		}
		var env struct {
			Status tools.Status `json:"status"`
		}
		if json.Unmarshal([]byte(text.Text), &env) == nil && env.Status != "" {
			return string(env.Status)
		}
	}
	if result.IsError {
		return string(tools.StatusError)
	}
	return string(tools.StatusOK)
}
