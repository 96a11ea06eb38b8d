package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/watchcask/allio/pkg/allio/recency"
	"github.com/watchcask/allio/pkg/allio/subscriptions"
	"github.com/watchcask/allio/pkg/allio/types"
)

// toolParams covers every tool's argument shape; a given tool only reads
// the fields its JSON schema declares.
type toolParams struct {
	ElementID   types.ElementId `json:"element_id"`
	WindowID    types.WindowId  `json:"window_id"`
	X           float64         `json:"x"`
	Y           float64         `json:"y"`
	Recency     string          `json:"recency"`
	MaxAgeMS    int             `json:"max_age_ms"`
	Value       types.Value     `json:"value"`
	Action      types.Action    `json:"action"`
	Depth       int             `json:"depth"`
	WaitBetween int             `json:"wait_between_ms"`
}

func parseToolParams(req *mcp.CallToolRequest) (toolParams, error) {
	var p toolParams
	if len(req.Params.Arguments) == 0 {
		return p, nil
	}
	if err := json.Unmarshal(req.Params.Arguments, &p); err != nil {
		return p, fmt.Errorf("mcpserver: invalid arguments: %w", err)
	}
	return p, nil
}

func (p toolParams) recency() recency.Recency {
	switch p.Recency {
	case "current":
		return recency.Current
	case "max_age":
		return recency.MaxAgeMS(p.MaxAgeMS)
	default:
		return recency.Any
	}
}

func errorResult(format string, args ...interface{}) (*mcp.CallToolResult, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf(format, args...)}},
		IsError: true,
	}, nil
}

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return errorResult("failed to marshal result: %v", err)
	}
	return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: string(data)}}}, nil
}

func (s *Server) registerTools() {
	s.addTool(&mcp.Tool{
		Name:        "snapshot",
		Description: "Return the full current state: windows, elements, focus, selection, mouse position.",
		InputSchema: map[string]interface{}{"type": "object", "properties": map[string]interface{}{}},
	}, s.toolSnapshot)

	s.addTool(&mcp.Tool{
		Name:        "get",
		Description: "Fetch an element by id.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"element_id": map[string]interface{}{"type": "integer"},
				"recency":    map[string]interface{}{"type": "string", "enum": []string{"any", "current", "max_age"}},
				"max_age_ms": map[string]interface{}{"type": "integer"},
			},
			"required": []string{"element_id"},
		},
	}, s.toolGet)

	s.addTool(&mcp.Tool{
		Name:        "children",
		Description: "List an element's children.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"element_id": map[string]interface{}{"type": "integer"},
				"recency":    map[string]interface{}{"type": "string"},
				"max_age_ms": map[string]interface{}{"type": "integer"},
			},
			"required": []string{"element_id"},
		},
	}, s.toolChildren)

	s.addTool(&mcp.Tool{
		Name:        "parent",
		Description: "Fetch an element's parent id, if linked.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"element_id": map[string]interface{}{"type": "integer"},
				"recency":    map[string]interface{}{"type": "string"},
				"max_age_ms": map[string]interface{}{"type": "integer"},
			},
			"required": []string{"element_id"},
		},
	}, s.toolParent)

	s.addTool(&mcp.Tool{
		Name:        "window_root",
		Description: "Resolve a window's root accessibility element.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"window_id": map[string]interface{}{"type": "integer"},
				"recency":   map[string]interface{}{"type": "string"},
			},
			"required": []string{"window_id"},
		},
	}, s.toolWindowRoot)

	s.addTool(&mcp.Tool{
		Name:        "element_at",
		Description: "Hit-test the element at a screen point.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"x": map[string]interface{}{"type": "number"},
				"y": map[string]interface{}{"type": "number"},
			},
			"required": []string{"x", "y"},
		},
	}, s.toolElementAt)

	s.addTool(&mcp.Tool{
		Name:        "set",
		Description: "Write a value to an element. Requires the element's role to be writable and the value's kind to match.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"element_id": map[string]interface{}{"type": "integer"},
				"value":      map[string]interface{}{"type": "object"},
			},
			"required": []string{"element_id", "value"},
		},
	}, s.toolSet)

	s.addTool(&mcp.Tool{
		Name:        "perform",
		Description: "Perform an action on an element (press, expand, raise, ...).",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"element_id": map[string]interface{}{"type": "integer"},
				"action":     map[string]interface{}{"type": "string"},
			},
			"required": []string{"element_id", "action"},
		},
	}, s.toolPerform)

	s.addTool(&mcp.Tool{
		Name:        "watch",
		Description: "Subscribe to an element's role-appropriate change notifications.",
		InputSchema: map[string]interface{}{
			"type":       "object",
			"properties": map[string]interface{}{"element_id": map[string]interface{}{"type": "integer"}},
			"required":   []string{"element_id"},
		},
	}, s.toolWatch)

	s.addTool(&mcp.Tool{
		Name:        "unwatch",
		Description: "Remove an element's watch.",
		InputSchema: map[string]interface{}{
			"type":       "object",
			"properties": map[string]interface{}{"element_id": map[string]interface{}{"type": "integer"}},
			"required":   []string{"element_id"},
		},
	}, s.toolUnwatch)

	s.addTool(&mcp.Tool{
		Name:        "observe",
		Description: "Start polling observation of a subtree, emitting subtree:changed events as it drifts.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"element_id":      map[string]interface{}{"type": "integer"},
				"depth":           map[string]interface{}{"type": "integer"},
				"wait_between_ms": map[string]interface{}{"type": "integer"},
			},
			"required": []string{"element_id"},
		},
	}, s.toolObserve)

	s.addTool(&mcp.Tool{
		Name:        "unobserve",
		Description: "Stop observing a subtree.",
		InputSchema: map[string]interface{}{
			"type":       "object",
			"properties": map[string]interface{}{"element_id": map[string]interface{}{"type": "integer"}},
			"required":   []string{"element_id"},
		},
	}, s.toolUnobserve)
}

func (s *Server) toolSnapshot(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.core.Snapshot())
}

func (s *Server) toolGet(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, err := parseToolParams(req)
	if err != nil {
		return errorResult("%v", err)
	}
	elem, err := s.core.Get(p.ElementID, p.recency())
	if err != nil {
		return errorResult("%v", err)
	}
	return jsonResult(elem)
}

func (s *Server) toolChildren(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, err := parseToolParams(req)
	if err != nil {
		return errorResult("%v", err)
	}
	children, err := s.core.Children(p.ElementID, p.recency())
	if err != nil {
		return errorResult("%v", err)
	}
	return jsonResult(children)
}

func (s *Server) toolParent(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, err := parseToolParams(req)
	if err != nil {
		return errorResult("%v", err)
	}
	parentID, ok, err := s.core.Parent(p.ElementID, p.recency())
	if err != nil {
		return errorResult("%v", err)
	}
	return jsonResult(struct {
		ParentID types.ElementId `json:"parent_id"`
		Ok       bool            `json:"ok"`
	}{parentID, ok})
}

func (s *Server) toolWindowRoot(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, err := parseToolParams(req)
	if err != nil {
		return errorResult("%v", err)
	}
	rootID, err := s.core.WindowRoot(p.WindowID, p.recency())
	if err != nil {
		return errorResult("%v", err)
	}
	return jsonResult(rootID)
}

func (s *Server) toolElementAt(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, err := parseToolParams(req)
	if err != nil {
		return errorResult("%v", err)
	}
	elem, err := s.core.ElementAtPoint(p.X, p.Y)
	if err != nil {
		return errorResult("%v", err)
	}
	return jsonResult(elem)
}

func (s *Server) toolSet(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, err := parseToolParams(req)
	if err != nil {
		return errorResult("%v", err)
	}
	if err := s.core.Set(p.ElementID, p.Value); err != nil {
		return errorResult("%v", err)
	}
	return jsonResult(struct {
		Ok bool `json:"ok"`
	}{true})
}

func (s *Server) toolPerform(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, err := parseToolParams(req)
	if err != nil {
		return errorResult("%v", err)
	}
	if err := s.core.Perform(p.ElementID, p.Action); err != nil {
		return errorResult("%v", err)
	}
	return jsonResult(struct {
		Ok bool `json:"ok"`
	}{true})
}

func (s *Server) toolWatch(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, err := parseToolParams(req)
	if err != nil {
		return errorResult("%v", err)
	}
	if err := s.core.Watch(p.ElementID); err != nil {
		return errorResult("%v", err)
	}
	return jsonResult(struct {
		Ok bool `json:"ok"`
	}{true})
}

func (s *Server) toolUnwatch(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, err := parseToolParams(req)
	if err != nil {
		return errorResult("%v", err)
	}
	if err := s.core.Unwatch(p.ElementID); err != nil {
		return errorResult("%v", err)
	}
	return jsonResult(struct {
		Ok bool `json:"ok"`
	}{true})
}

func (s *Server) toolObserve(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, err := parseToolParams(req)
	if err != nil {
		return errorResult("%v", err)
	}
	cfg := subscriptions.ObserveConfig{
		Depth:       p.Depth,
		WaitBetween: msToDuration(p.WaitBetween),
	}
	if err := s.core.Observe(p.ElementID, cfg); err != nil {
		return errorResult("%v", err)
	}
	return jsonResult(struct {
		Ok bool `json:"ok"`
	}{true})
}

func (s *Server) toolUnobserve(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, err := parseToolParams(req)
	if err != nil {
		return errorResult("%v", err)
	}
	s.core.Unobserve(p.ElementID)
	return jsonResult(struct {
		Ok bool `json:"ok"`
	}{true})
}
