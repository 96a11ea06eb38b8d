// Package wsrpc exposes core.Core over a JSON-RPC-over-WebSocket
// transport: one connection per client, request/response pairs keyed by
// an id the client supplies, plus a push channel of incremental events
// starting with a sync:init snapshot on connect.
package wsrpc

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/watchcask/allio/pkg/allio/recency"
	"github.com/watchcask/allio/pkg/allio/types"
)

func msToDuration(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

func unknownMethodError(method string) error {
	return fmt.Errorf("wsrpc: unknown method %q", method)
}

// request is a client-to-server JSON-RPC call:
// {"id": 1, "method": "get", "params": {...}}.
type request struct {
	ID     json.RawMessage `json:"id"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params"`
}

// response is a server-to-client reply: at most one of Result/Error is
// set. {"id": 1, "result": {...}} or {"id": 1, "error": "..."}; a call
// that succeeds without returning data (set, perform, watch, unwatch,
// observe, unobserve) sets neither: {"id": 1}.
type response struct {
	ID     json.RawMessage `json:"id"`
	Result interface{}     `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// eventMessage is a server-pushed event: {"event": "element:changed",
// "data": {...}}.
type eventMessage struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

func newEventMessage(event types.Event) eventMessage {
	return eventMessage{Event: event.Kind.String(), Data: event}
}

// parseRecency decodes the three recency wire forms: "any", "current", or
// {"max_age_ms": N}.
func parseRecency(raw json.RawMessage) (recency.Recency, error) {
	if len(raw) == 0 {
		return recency.Any, nil
	}

	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		switch asString {
		case "", "any":
			return recency.Any, nil
		case "current":
			return recency.Current, nil
		default:
			return recency.Recency{}, fmt.Errorf("wsrpc: unknown recency %q", asString)
		}
	}

	var asObject struct {
		MaxAgeMS int `json:"max_age_ms"`
	}
	if err := json.Unmarshal(raw, &asObject); err != nil {
		return recency.Recency{}, fmt.Errorf("wsrpc: invalid recency: %w", err)
	}
	return recency.MaxAgeMS(asObject.MaxAgeMS), nil
}

// Params shapes for each method in the JSON-RPC surface. Fields absent
// from a given method's wire payload are simply never populated.
type params struct {
	X           float64         `json:"x"`
	Y           float64         `json:"y"`
	ElementID   types.ElementId `json:"element_id"`
	WindowID    types.WindowId  `json:"window_id"`
	Recency     json.RawMessage `json:"recency"`
	MaxChildren *int            `json:"max_children"`
	Value       types.Value     `json:"value"`
	Action      types.Action    `json:"action"`
	Depth       *int            `json:"depth"`
	WaitBetween *int            `json:"wait_between_ms"`
}
