package mcpserver_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/watchcask/allio/internal/mcpserver"
	"github.com/watchcask/allio/pkg/allio/core"
	"github.com/watchcask/allio/pkg/allio/platform"
	"github.com/watchcask/allio/pkg/allio/platform/mock"
	"github.com/watchcask/allio/pkg/allio/role"
	"github.com/watchcask/allio/pkg/allio/types"
)

func newTestCore(t *testing.T) (*core.Core, *mock.Adapter) {
	t.Helper()
	adapter := mock.New()
	c, err := core.New(adapter, core.Config{})
	require.NoError(t, err)
	return c, adapter
}

func setupWindow(adapter *mock.Adapter, r role.Role) (types.WindowId, mock.Handle) {
	rootHandle := mock.NewHandle(1, "root")
	adapter.Windows = []types.Window{{ID: 1, ProcessID: 1, Title: "Test"}}
	adapter.WindowHandles[1] = rootHandle
	adapter.AddNode(&mock.Node{Handle: rootHandle, Attrs: platform.ElementAttributes{Role: r}})
	return 1, rootHandle
}

func TestNewRegistersWithoutError(t *testing.T) {
	c, _ := newTestCore(t)
	s := mcpserver.New(c)
	assert.NotNil(t, s)
}

func TestSnapshotToolReturnsCurrentState(t *testing.T) {
	c, adapter := newTestCore(t)
	setupWindow(adapter, role.Window)
	s := mcpserver.New(c)

	result, err := s.CallTool(context.Background(), "snapshot", nil)
	require.NoError(t, err)
	require.False(t, result.IsError)
}

func TestGetToolUnknownElementReturnsErrorResult(t *testing.T) {
	c, _ := newTestCore(t)
	s := mcpserver.New(c)

	args, err := json.Marshal(map[string]interface{}{"element_id": 999})
	require.NoError(t, err)

	result, err := s.CallTool(context.Background(), "get", args)
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestWindowRootToolResolvesRoot(t *testing.T) {
	c, adapter := newTestCore(t)
	windowID, _ := setupWindow(adapter, role.Window)
	s := mcpserver.New(c)

	args, err := json.Marshal(map[string]interface{}{"window_id": windowID})
	require.NoError(t, err)

	result, err := s.CallTool(context.Background(), "window_root", args)
	require.NoError(t, err)
	require.False(t, result.IsError)
}
