package wsrpc

import (
	"encoding/json"

	"github.com/watchcask/allio/pkg/allio/core"
	"github.com/watchcask/allio/pkg/allio/subscriptions"
	"github.com/watchcask/allio/pkg/allio/types"
)

// dispatch runs one JSON-RPC request against c and returns the response to
// write back. The response always carries req.ID, whatever it was.
func dispatch(c *core.Core, req request) response {
	result, err := call(c, req.Method, req.Params)
	if err != nil {
		return response{ID: req.ID, Error: err.Error()}
	}
	return response{ID: req.ID, Result: result}
}

func call(c *core.Core, method string, raw json.RawMessage) (interface{}, error) {
	var p params
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, err
		}
	}

	switch method {
	case "snapshot":
		return c.Snapshot(), nil

	case "element_at":
		el, err := c.ElementAtPoint(p.X, p.Y)
		if err != nil {
			return nil, err
		}
		return el, nil

	case "get":
		rec, err := parseRecency(p.Recency)
		if err != nil {
			return nil, err
		}
		return c.Get(p.ElementID, rec)

	case "window_root":
		rec, err := parseRecency(p.Recency)
		if err != nil {
			return nil, err
		}
		return c.WindowRoot(p.WindowID, rec)

	case "children":
		rec, err := parseRecency(p.Recency)
		if err != nil {
			return nil, err
		}
		children, err := c.Children(p.ElementID, rec)
		if err != nil {
			return nil, err
		}
		if p.MaxChildren != nil && *p.MaxChildren >= 0 && *p.MaxChildren < len(children) {
			children = children[:*p.MaxChildren]
		}
		return children, nil

	case "parent":
		rec, err := parseRecency(p.Recency)
		if err != nil {
			return nil, err
		}
		parentID, ok, err := c.Parent(p.ElementID, rec)
		if err != nil {
			return nil, err
		}
		return struct {
			ParentID types.ElementId `json:"parent_id"`
			Ok       bool            `json:"ok"`
		}{parentID, ok}, nil

	case "set":
		return nil, c.Set(p.ElementID, p.Value)

	case "perform":
		return nil, c.Perform(p.ElementID, p.Action)

	case "watch":
		return nil, c.Watch(p.ElementID)

	case "unwatch":
		return nil, c.Unwatch(p.ElementID)

	case "observe":
		cfg := subscriptions.ObserveConfig{}
		if p.Depth != nil {
			cfg.Depth = *p.Depth
		}
		if p.WaitBetween != nil {
			cfg.WaitBetween = msToDuration(*p.WaitBetween)
		}
		return nil, c.Observe(p.ElementID, cfg)

	case "unobserve":
		c.Unobserve(p.ElementID)
		return nil, nil

	default:
		return nil, unknownMethodError(method)
	}
}
