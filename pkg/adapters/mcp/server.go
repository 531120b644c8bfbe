// Package mcp exposes document commands as MCP tools. Each tool forwards its
// arguments to the host through a Sender and relays progress events to the
// MCP client as progress notifications.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/quill"
	"github.com/aretw0/quill/internal/logging"
	"github.com/aretw0/quill/pkg/domain"
	"github.com/aretw0/quill/pkg/relay"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Sender delivers a command to the host and waits for its result.
type Sender interface {
	SendWithProgress(ctx context.Context, command string, params map[string]any, timeout time.Duration, onProgress relay.ProgressFunc) (json.RawMessage, error)
}

// Server wraps an MCP server whose tools are backed by a Sender.
type Server struct {
	sender    Sender
	timeouts  relay.Timeouts
	logger    *slog.Logger
	mcpServer *server.MCPServer
	tools     []string
}

type Option func(*Server)

func WithTimeouts(t relay.Timeouts) Option {
	return func(s *Server) { s.timeouts = t }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// NewServer registers every tool and resource.
func NewServer(sender Sender, opts ...Option) *Server {
	s := &Server{
		sender: sender,
		timeouts: relay.Timeouts{
			Light: 10 * time.Second,
			Text:  30 * time.Second,
			Batch: 60 * time.Second,
		},
		logger: logging.NewNop(),
		mcpServer: server.NewMCPServer("quill-mcp", quill.Version,
			server.WithToolCapabilities(false),
			server.WithResourceCapabilities(false, false),
		),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer exposes the underlying server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// Tools lists the registered tool names in registration order.
func (s *Server) Tools() []string {
	return s.tools
}

// ServeStdio serves on stdin and stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the SSE transport on addr until ctx ends.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
	sse := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sse.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sse.MessageHandler()))
	httpServer := &http.Server{Addr: addr, Handler: mux}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// forward builds the handler of a tool that maps one to one onto command.
func (s *Server) forward(command string) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		params := request.GetArguments()
		if params == nil {
			params = map[string]any{}
		}

		start := time.Now()
		data, err := s.sender.SendWithProgress(ctx, command, params, s.timeouts.For(command), s.progress(ctx, request))
		if err != nil {
			s.logger.Warn("tool failed", "tool", command, "kind", domain.KindOf(err), "error", err, "elapsed", time.Since(start))
			return mcp.NewToolResultError(toolError(command, err)), nil
		}
		return mcp.NewToolResultText(string(data)), nil
	}
}

// progress returns a callback that turns host progress events into MCP
// progress notifications, or nil when the caller sent no progress token.
func (s *Server) progress(ctx context.Context, request mcp.CallToolRequest) relay.ProgressFunc {
	if request.Params.Meta == nil || request.Params.Meta.ProgressToken == nil {
		return nil
	}
	token := request.Params.Meta.ProgressToken
	srv := server.ServerFromContext(ctx)
	if srv == nil {
		return nil
	}
	return func(ev domain.ProgressEvent) {
		err := srv.SendNotificationToClient(ctx, "notifications/progress", map[string]any{
			"progressToken": token,
			"progress":      ev.Progress,
			"total":         100,
			"message":       ev.Message,
		})
		if err != nil {
			s.logger.Debug("progress notification dropped", "command", ev.CommandType, "error", err)
		}
	}
}

// toolError renders a failure as one readable sentence for the agent.
func toolError(command string, err error) string {
	switch domain.KindOf(err) {
	case domain.KindTimeout:
		return fmt.Sprintf("%s timed out: %v. The host may still be working; check its state before retrying.", command, err)
	case domain.KindConnectionLost:
		return fmt.Sprintf("%s failed: the host connection was lost (%v).", command, err)
	default:
		return fmt.Sprintf("Error in %s: %v", command, err)
	}
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource("quill://document", "Current document outline",
		mcp.WithResourceDescription("Top levels of the document the host is editing"),
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		data, err := s.sender.SendWithProgress(ctx, "get_document_info", map[string]any{}, s.timeouts.For("get_document_info"), nil)
		if err != nil {
			return nil, fmt.Errorf("failed to read document: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "quill://document",
				MIMEType: "application/json",
				Text:     string(data),
			},
		}, nil
	})
}
