package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/watchcask/allio/pkg/allio/recency"
	"github.com/watchcask/allio/pkg/allio/types"
)

const maxTreeDepth = 64

// treeNode is the shape returned by allio://tree/{window_id}: an element
// plus its already-known or freshly-fetched children, recursively.
type treeNode struct {
	Element  types.Element `json:"element"`
	Children []*treeNode   `json:"children,omitempty"`
}

func (s *Server) registerResources() {
	s.server.AddResource(
		&mcp.Resource{
			URI:         "allio://snapshot",
			Name:        "snapshot",
			Description: "Full current state: windows, elements, focus, selection, mouse position",
			MIMEType:    "application/json",
		},
		s.readSnapshot,
	)

	s.server.AddResourceTemplate(
		&mcp.ResourceTemplate{
			URITemplate: "allio://tree/{window_id}",
			Name:        "tree",
			Description: "Accessibility tree rooted at a window, by window id",
			MIMEType:    "application/json",
		},
		s.readTree,
	)
}

func (s *Server) readSnapshot(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	data, err := json.Marshal(s.core.Snapshot())
	if err != nil {
		return nil, fmt.Errorf("mcpserver: marshal snapshot: %w", err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{
			{URI: req.Params.URI, MIMEType: "application/json", Text: string(data)},
		},
	}, nil
}

func (s *Server) readTree(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	windowID, ok := extractWindowID(req.Params.URI)
	if !ok {
		return nil, fmt.Errorf("mcpserver: invalid tree URI: %s", req.Params.URI)
	}

	rootID, err := s.core.WindowRoot(windowID, recency.Any)
	if err != nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	root, err := s.buildTree(rootID, 0)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(root)
	if err != nil {
		return nil, fmt.Errorf("mcpserver: marshal tree: %w", err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{
			{URI: req.Params.URI, MIMEType: "application/json", Text: string(data)},
		},
	}, nil
}

func (s *Server) buildTree(id types.ElementId, depth int) (*treeNode, error) {
	elem, err := s.core.Get(id, recency.Any)
	if err != nil {
		return nil, err
	}
	node := &treeNode{Element: elem}
	if depth >= maxTreeDepth {
		return node, nil
	}

	children, err := s.core.Children(id, recency.Any)
	if err != nil {
		return node, nil
	}
	for _, childID := range children {
		child, err := s.buildTree(childID, depth+1)
		if err != nil {
			continue
		}
		node.Children = append(node.Children, child)
	}
	return node, nil
}

// extractWindowID parses the {window_id} segment out of an
// allio://tree/{window_id} URI.
func extractWindowID(uri string) (types.WindowId, bool) {
	const prefix = "allio://tree/"
	if !strings.HasPrefix(uri, prefix) {
		return 0, false
	}
	raw := strings.TrimPrefix(uri, prefix)
	parsed, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return types.WindowId(parsed), true
}
