package mcpserver

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func msToDuration(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

// StartStdio runs the server over stdin/stdout until the client
// disconnects or ctx is canceled.
func (s *Server) StartStdio(ctx context.Context) error {
	transport := &mcp.StdioTransport{}
	session, err := s.server.Connect(ctx, transport, nil)
	if err != nil {
		return fmt.Errorf("mcpserver: connect stdio transport: %w", err)
	}
	if err := session.Wait(); err != nil {
		return fmt.Errorf("mcpserver: stdio session ended: %w", err)
	}
	return nil
}
