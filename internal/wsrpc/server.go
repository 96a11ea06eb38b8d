package wsrpc

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/watchcask/allio/pkg/allio/core"
	"github.com/watchcask/allio/pkg/allio/types"
)

// Server upgrades incoming HTTP requests to WebSocket connections, each
// backed by the same Core: on connect it pushes a sync:init snapshot, then
// forwards every subsequent bus event while concurrently reading and
// dispatching JSON-RPC requests from the client.
type Server struct {
	core     *core.Core
	logger   *log.Logger
	upgrader websocket.Upgrader
}

// New builds a Server around c. A nil logger defaults to log.Default().
func New(c *core.Core, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{
		core:   c,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// ServeHTTP implements http.Handler, upgrading the request and running the
// connection until the client disconnects or the write side errs out.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Printf("wsrpc: upgrade failed: %v", err)
		return
	}
	connID := uuid.NewString()
	s.logger.Printf("wsrpc: connection %s opened", connID)
	defer func() {
		conn.Close()
		s.logger.Printf("wsrpc: connection %s closed", connID)
	}()

	s.handle(connID, conn)
}

// writeJSON serializes v as one WebSocket text message, guarded by mu so
// the read loop's responses and the event-forwarding goroutine's pushes
// never interleave mid-write on the same connection.
func writeJSON(conn *websocket.Conn, mu *sync.Mutex, v interface{}) error {
	mu.Lock()
	defer mu.Unlock()
	return conn.WriteJSON(v)
}

func (s *Server) handle(connID string, conn *websocket.Conn) {
	var writeMu sync.Mutex

	subID, events, unsubscribe := s.core.Subscribe()
	defer unsubscribe()
	s.logger.Printf("wsrpc: connection %s subscribed as %d", connID, subID)

	initEvent := eventMessage{
		Event: types.EventSyncInit.String(),
		Data:  s.core.Snapshot(),
	}
	if err := writeJSON(conn, &writeMu, initEvent); err != nil {
		s.logger.Printf("wsrpc: connection %s: sync:init write failed: %v", connID, err)
		return
	}

	done := make(chan struct{})
	go s.forwardEvents(connID, conn, &writeMu, events, done)
	defer close(done)

	s.readLoop(connID, conn, &writeMu)
}

// forwardEvents pushes bus events to the client until done closes or the
// event channel itself closes (the subscription was torn down).
func (s *Server) forwardEvents(connID string, conn *websocket.Conn, writeMu *sync.Mutex, events <-chan types.Event, done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := writeJSON(conn, writeMu, newEventMessage(event)); err != nil {
				s.logger.Printf("wsrpc: connection %s: event write failed: %v", connID, err)
				return
			}
		}
	}
}

// readLoop reads JSON-RPC requests from the client and dispatches each to
// the core, writing back a response. Returns once the connection errs out
// or the client closes it.
func (s *Server) readLoop(connID string, conn *websocket.Conn, writeMu *sync.Mutex) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var req request
		if err := json.Unmarshal(data, &req); err != nil {
			s.logger.Printf("wsrpc: connection %s: malformed request: %v", connID, err)
			continue
		}

		resp := dispatch(s.core, req)
		if err := writeJSON(conn, writeMu, resp); err != nil {
			s.logger.Printf("wsrpc: connection %s: response write failed: %v", connID, err)
			return
		}
	}
}
