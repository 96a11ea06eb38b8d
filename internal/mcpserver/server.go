// Package mcpserver exposes core.Core to LLM agents over the Model
// Context Protocol: two resources for read-only tree inspection
// (allio://snapshot, allio://tree/{window_id}) and a tool per core
// operation (get, children, parent, window_root, element_at, set,
// perform, watch, unwatch, observe, unobserve).
package mcpserver

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/watchcask/allio/pkg/allio/core"
)

type toolHandler func(context.Context, *mcp.CallToolRequest) (*mcp.CallToolResult, error)

// Server wraps an MCP SDK server around a Core, registering every
// resource and tool at construction time.
type Server struct {
	core   *core.Core
	server *mcp.Server
	tools  map[string]toolHandler
}

// New builds a Server and registers its resources and tools. The server
// isn't listening on any transport yet; call StartStdio to do that.
func New(c *core.Core) *Server {
	impl := &mcp.Implementation{Name: "allio", Version: "1.0.0"}
	s := &Server{
		core:   c,
		server: mcp.NewServer(impl, &mcp.ServerOptions{}),
		tools:  make(map[string]toolHandler),
	}
	s.registerResources()
	s.registerTools()
	return s
}

func (s *Server) addTool(tool *mcp.Tool, handler toolHandler) {
	s.server.AddTool(tool, handler)
	s.tools[tool.Name] = handler
}

// CallTool invokes a registered tool's handler directly, bypassing the
// transport layer. Used by tests and by callers embedding the server in
// the same process as its caller.
func (s *Server) CallTool(ctx context.Context, name string, arguments []byte) (*mcp.CallToolResult, error) {
	handler, ok := s.tools[name]
	if !ok {
		return nil, fmt.Errorf("mcpserver: unknown tool %q", name)
	}
	return handler(ctx, &mcp.CallToolRequest{Params: &mcp.CallToolParamsRaw{Name: name, Arguments: arguments}})
}

// ReadResource reads a registered resource directly, bypassing the
// transport layer, matching uri against "allio://snapshot" and the
// "allio://tree/{window_id}" template.
func (s *Server) ReadResource(ctx context.Context, uri string) (*mcp.ReadResourceResult, error) {
	req := &mcp.ReadResourceRequest{Params: &mcp.ReadResourceParams{URI: uri}}
	if uri == "allio://snapshot" {
		return s.readSnapshot(ctx, req)
	}
	if strings.HasPrefix(uri, "allio://tree/") {
		return s.readTree(ctx, req)
	}
	return nil, fmt.Errorf("mcpserver: unknown resource %q", uri)
}
