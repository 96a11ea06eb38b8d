package registry_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/watchcask/allio/pkg/allio/registry"
	"github.com/watchcask/allio/pkg/allio/types"
)

type closeTrackingHandle struct{ closed bool }

func (h *closeTrackingHandle) Close() error {
	h.closed = true
	return nil
}

func TestUpsertAndHasProcess(t *testing.T) {
	r, _ := newRegistry(t)
	assert.False(t, r.HasProcess(1))

	r.UpsertProcess(1, &registry.CachedProcess{})
	assert.True(t, r.HasProcess(1))

	p, ok := r.Process(1)
	require.True(t, ok)
	assert.NotNil(t, p)
}

func TestRemoveProcessClosesAppNotifications(t *testing.T) {
	r, _ := newRegistry(t)
	handle := &closeTrackingHandle{}
	r.UpsertProcess(1, &registry.CachedProcess{AppNotifications: handle})

	r.RemoveProcess(1)

	assert.False(t, r.HasProcess(1))
	assert.True(t, handle.closed)
}

func TestRemoveProcessUnknownIsNoop(t *testing.T) {
	r, _ := newRegistry(t)
	r.RemoveProcess(types.ProcessId(404)) // must not panic
}
