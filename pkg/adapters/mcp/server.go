// Package mcp exposes the topic tree tools to MCP clients, so an external agent
// can explore the tree with the same token-bounded operations the built-in
// conversation uses.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/canopy"
	"github.com/aretw0/canopy/internal/logging"
	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/tools"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// ToolsResourceURI serves the tool schemas as JSON.
const ToolsResourceURI = "canopy://tools"

// Server wraps the Explorer and exposes it as an MCP Server.
type Server struct {
	explorer  *canopy.Explorer
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// NewServer creates a new MCP Server instance.
func NewServer(exp *canopy.Explorer, opts ...Option) *Server {
	s := &Server{
		explorer:  exp,
		mcpServer: server.NewMCPServer("canopy-mcp", canopy.Version),
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer exposes the underlying server, mainly for in-process clients.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves MCP over SSE on addr until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("Shutting down MCP server")
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

func (s *Server) registerTools() {
	pathOpt := func(required bool) mcp.ToolOption {
		opts := []mcp.PropertyOption{mcp.Description("Slash-delimited topic path, matched literally")}
		if required {
			opts = append(opts, mcp.Required())
		}
		return mcp.WithString("path", opts...)
	}

	s.mcpServer.AddTool(mcp.NewTool(tools.OpDescribe,
		mcp.WithDescription("Current value, retained flag, message and child counts of a topic."),
		pathOpt(true),
	), s.toolHandler(tools.OpDescribe))

	s.mcpServer.AddTool(mcp.NewTool(tools.OpHistory,
		mcp.WithDescription("Recent values of a topic, oldest first."),
		pathOpt(true),
		mcp.WithNumber("limit", mcp.Description(fmt.Sprintf("Number of values (default %d, max %d)", tools.HistoryDefaultLimit, tools.HistoryMaxLimit))),
	), s.toolHandler(tools.OpHistory))

	s.mcpServer.AddTool(mcp.NewTool(tools.OpChildren,
		mcp.WithDescription("Direct children of a topic. An empty path lists the top-level topics."),
		pathOpt(false),
		mcp.WithNumber("limit", mcp.Description(fmt.Sprintf("Number of children (default %d, max %d)", tools.ChildrenDefaultLimit, tools.ChildrenMaxLimit))),
	), s.toolHandler(tools.OpChildren))

	s.mcpServer.AddTool(mcp.NewTool(tools.OpParents,
		mcp.WithDescription("Ancestor hierarchy of a topic."),
		pathOpt(true),
	), s.toolHandler(tools.OpParents))

	s.mcpServer.AddTool(mcp.NewTool("digest",
		mcp.WithDescription("Compact context of a topic: its value plus the most relevant neighbours."),
		pathOpt(false),
	), s.handleDigest)

	s.mcpServer.AddTool(mcp.NewTool("ask",
		mcp.WithDescription("Ask the built-in assistant a question about the tree. Conversations are kept per session."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Conversation identifier")),
		mcp.WithString("text", mcp.Required(), mcp.Description("The question")),
		mcp.WithString("focus", mcp.Description("Topic the question is about (optional)")),
	), s.handleAsk)
}

// toolHandler forwards the MCP arguments to the dispatcher unchanged, so the
// same parsing and validation applies as for model tool calls.
func (s *Server) toolHandler(op string) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		raw, err := json.Marshal(request.GetArguments())
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
		}
		res := s.explorer.Invoke(ctx, domain.ToolInvocation{Name: op, Arguments: string(raw)})[0]
		if res.IsError {
			return mcp.NewToolResultError(res.Content), nil
		}
		return mcp.NewToolResultText(res.Content), nil
	}
}

func (s *Server) handleDigest(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	d, err := s.explorer.Digest(request.GetString("path", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(d), nil
}

func (s *Server) handleAsk(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	text, err := request.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	res, err := s.explorer.Ask(ctx, sessionID, text, request.GetString("focus", ""))
	if err != nil {
		s.logger.Warn("MCP ask failed", "session_id", sessionID, "err", err)
		return mcp.NewToolResultError(err.Error()), nil
	}
	if res.Status == domain.TurnLimitReached {
		return mcp.NewToolResultText(res.FinalText + "\n\n(stopped after the maximum number of tool rounds)"), nil
	}
	return mcp.NewToolResultText(res.FinalText), nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(ToolsResourceURI, "Tree tool schemas",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		data, err := json.Marshal(tools.Definitions())
		if err != nil {
			return nil, fmt.Errorf("failed to encode tool schemas: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      ToolsResourceURI,
				MIMEType: "application/json",
				Text:     string(data),
			},
		}, nil
	})
}
