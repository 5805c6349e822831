// Package mcp exposes a library of stories to Model Context Protocol
// clients: an agent can list stories, start a reading and play it.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/aretw0/storytree"
	"github.com/aretw0/storytree/internal/logging"
	"github.com/aretw0/storytree/internal/presentation/graph"
	"github.com/aretw0/storytree/pkg/domain"
	"github.com/aretw0/storytree/pkg/library"
	"github.com/aretw0/storytree/pkg/runner"
)

// StoriesURI is the resource listing the loaded stories.
const StoriesURI = "storytree://stories"

// RenderResponse is the structured result of the session tools.
type RenderResponse struct {
	State    *domain.State          `json:"state,omitempty" jsonschema_description:"The reading session"`
	Actions  []domain.ActionRequest `json:"actions" jsonschema_description:"Content to show and options to choose from"`
	Terminal bool                   `json:"terminal" jsonschema_description:"True when the story is over"`
}

// Server exposes a Library as an MCP server.
type Server struct {
	lib       *library.Library
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(lib *library.Library, opts ...Option) *Server {
	s := &Server{
		lib:       lib,
		logger:    logging.NewNop(),
		mcpServer: server.NewMCPServer("storytree-mcp", strings.TrimSpace(storytree.Version)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying protocol server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the protocol over SSE on addr until ctx is done.
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

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("list_stories",
		mcp.WithDescription("List the stories that can be read."),
	), s.handleListStories)

	s.mcpServer.AddTool(mcp.NewTool("get_graph",
		mcp.WithDescription("Get the nodes and choices of a story as a Mermaid flowchart."),
		mcp.WithString("story_id", mcp.Required(), mcp.Description("Story ID")),
	), s.handleGetGraph)

	startTool := mcp.NewTool("start_session",
		mcp.WithDescription("Start reading a story, or resume an existing session of it."),
		mcp.WithString("story_id", mcp.Required(), mcp.Description("Story ID from list_stories")),
		mcp.WithString("session_id", mcp.Description("Session to resume or create (optional, random when omitted)")),
		mcp.WithOutputSchema[RenderResponse](),
	)
	s.mcpServer.AddTool(startTool, mcp.NewStructuredToolHandler(s.handleStartSession))

	renderTool := mcp.NewTool("render_session",
		mcp.WithDescription("Show the current node of a session and its options."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID")),
		mcp.WithOutputSchema[RenderResponse](),
	)
	s.mcpServer.AddTool(renderTool, mcp.NewStructuredToolHandler(s.handleRenderSession))

	chooseTool := mcp.NewTool("choose_option",
		mcp.WithDescription("Choose an option of the current node, by its index or its text."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID")),
		mcp.WithNumber("option", mcp.Description("1-based option index")),
		mcp.WithString("text", mcp.Description("Option text, used when option is omitted")),
		mcp.WithOutputSchema[RenderResponse](),
	)
	s.mcpServer.AddTool(chooseTool, mcp.NewStructuredToolHandler(s.handleChooseOption))
}

func (s *Server) handleListStories(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(s.lib.Stories())
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) handleGetGraph(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, _ := request.GetArguments()["story_id"].(string)
	st, err := s.lib.Story(id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(graph.Mermaid(st, nil)), nil
}

func (s *Server) handleStartSession(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (RenderResponse, error) {
	storyID, _ := args["story_id"].(string)
	sessionID, _ := args["session_id"].(string)
	view, err := s.lib.Start(ctx, storyID, sessionID)
	if err != nil {
		return RenderResponse{}, fmt.Errorf("start failed: %w", err)
	}
	return response(view), nil
}

func (s *Server) handleRenderSession(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (RenderResponse, error) {
	sessionID, _ := args["session_id"].(string)
	view, err := s.lib.Render(ctx, sessionID)
	if err != nil {
		return RenderResponse{}, fmt.Errorf("render failed: %w", err)
	}
	return response(view), nil
}

func (s *Server) handleChooseOption(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (RenderResponse, error) {
	sessionID, _ := args["session_id"].(string)

	var input any
	if n, ok := args["option"].(float64); ok {
		input = n
	} else if text, ok := args["text"].(string); ok {
		clean, err := runner.SanitizeInput(text)
		if err != nil {
			s.logger.Warn("MCP choose: Input rejected", "err", err, "size", len(text))
			return RenderResponse{}, fmt.Errorf("input rejected: %w", err)
		}
		input = clean
	} else {
		return RenderResponse{}, errors.New(`choose_option needs "option" or "text"`)
	}

	view, _, err := s.lib.Choose(ctx, sessionID, input)
	if err != nil {
		return RenderResponse{}, fmt.Errorf("choose failed: %w", err)
	}
	return response(view), nil
}

func response(v *library.View) RenderResponse {
	return RenderResponse{State: v.State, Actions: v.Actions, Terminal: v.Terminal}
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(StoriesURI, "Loaded stories",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		data, err := json.Marshal(s.lib.Stories())
		if err != nil {
			return nil, fmt.Errorf("failed to list stories: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      StoriesURI,
				MIMEType: "application/json",
				Text:     string(data),
			},
		}, nil
	})
}
