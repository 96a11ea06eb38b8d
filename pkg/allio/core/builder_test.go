package core_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/watchcask/allio/pkg/allio/core"
	"github.com/watchcask/allio/pkg/allio/platform/mock"
	"github.com/watchcask/allio/pkg/allio/types"
)

func TestBuilderBuildsAnEquivalentCore(t *testing.T) {
	adapter := mock.New()

	c, err := core.NewBuilder().
		FilterFullscreen(true).
		FilterOffscreen(true).
		IntervalMS(5).
		UseDisplayLink(true).
		EventChannelCapacity(256).
		Build(adapter)

	require.NoError(t, err)
	assert.NotNil(t, c)
}

func TestBuilderExcludePIDFiltersItsOwnWindowFromSnapshot(t *testing.T) {
	adapter := mock.New()
	pid := types.ProcessId(42)
	adapter.Windows = []types.Window{
		{ID: 1, ProcessID: pid, Title: "self"},
		{ID: 2, ProcessID: 99, Title: "other"},
	}

	c, err := core.NewBuilder().ExcludePID(pid).IntervalMS(5).Build(adapter)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	c.Start(ctx)
	defer func() {
		cancel()
		c.Close()
	}()

	require.Eventually(t, func() bool {
		return len(c.Snapshot().Windows) == 1
	}, time.Second, 5*time.Millisecond)

	snapshot := c.Snapshot()
	assert.Equal(t, types.WindowId(2), snapshot.Windows[0].ID)
}

func TestBuilderRejectsAdapterWithoutPermissions(t *testing.T) {
	adapter := mock.New()
	adapter.Permissions = false

	_, err := core.NewBuilder().Build(adapter)
	require.Error(t, err)
}
