// Package mcptest provides tool hosts for tests: a real MCP server served
// over streamable HTTP, and canned hosts that answer every request with a
// fixed body.
package mcptest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"sync"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Call is one tools/call the test server handled.
type Call struct {
	Tool      string
	Arguments map[string]any
}

// Server is a configurable MCP tool host
type Server struct {
	config *ServerConfig
	server *sdk.Server
	http   *httptest.Server

	mu      sync.Mutex
	calls   []Call
	headers []http.Header
}

// NewServer creates a new configurable MCP test server
func NewServer(config *ServerConfig) *Server {
	return &Server{config: config}
}

// Start registers the configured tools and serves them over streamable HTTP
// on a loopback port. Sessions are stateless, so a bare tools/call works
// without an initialize handshake.
func (s *Server) Start() error {
	log.Printf("[TestServer] Initializing %s v%s", s.config.Name, s.config.Version)

	s.server = sdk.NewServer(&sdk.Implementation{
		Name:    s.config.Name,
		Version: s.config.Version,
	}, nil)

	for _, tool := range s.config.Tools {
		s.server.AddTool(&sdk.Tool{
			Name:        tool.Name,
			Description: tool.Description,
			InputSchema: tool.InputSchema,
		}, s.toolHandler(tool))
	}

	handler := sdk.NewStreamableHTTPHandler(func(*http.Request) *sdk.Server {
		return s.server
	}, &sdk.StreamableHTTPOptions{Stateless: true})

	s.http = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			s.mu.Lock()
			s.headers = append(s.headers, r.Header.Clone())
			s.mu.Unlock()
		}
		handler.ServeHTTP(w, r)
	}))

	log.Printf("[TestServer] Server %s listening on %s (tools: %d)", s.config.Name, s.http.URL, len(s.config.Tools))
	return nil
}

func (s *Server) toolHandler(tool ToolConfig) sdk.ToolHandler {
	return func(ctx context.Context, req *sdk.CallToolRequest) (*sdk.CallToolResult, error) {
		var args map[string]any
		if len(req.Params.Arguments) > 0 {
			if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
				return errorResult(fmt.Sprintf("failed to parse arguments: %v", err)), nil
			}
		}

		s.mu.Lock()
		s.calls = append(s.calls, Call{Tool: tool.Name, Arguments: args})
		s.mu.Unlock()

		result, err := tool.Handler(args)
		if err != nil {
			return errorResult(err.Error()), nil
		}
		return result, nil
	}
}

func errorResult(text string) *sdk.CallToolResult {
	return &sdk.CallToolResult{
		IsError: true,
		Content: []sdk.Content{&sdk.TextContent{Text: text}},
	}
}

// URL returns the endpoint clients post JSON-RPC to.
func (s *Server) URL() string {
	return s.http.URL
}

// Calls returns the tool calls handled so far.
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// Headers returns the headers of every POST the host received.
func (s *Server) Headers() []http.Header {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]http.Header(nil), s.headers...)
}

// GetServer returns the underlying SDK server
func (s *Server) GetServer() *sdk.Server {
	return s.server
}

// Stop shuts the HTTP listener down.
func (s *Server) Stop() {
	if s.http != nil {
		s.http.Close()
	}
}

// NewCannedHost starts a host that answers every request with status and
// body, for exercising malformed or unusual tool host replies.
func NewCannedHost(status int, contentType, body string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		if contentType != "" {
			w.Header().Set("Content-Type", contentType)
		}
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
}
