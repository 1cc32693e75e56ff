package ingest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jewsh1r/kanban-api/internal/yougile"
)

// countingSource counts fetch calls so tests can observe passes running.
type countingSource struct {
	mu    sync.Mutex
	calls int
}

func (c *countingSource) bump() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
}

func (c *countingSource) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func (c *countingSource) GetEmployees(_ context.Context, _ int) ([]yougile.RawUser, error) {
	c.bump()
	return nil, nil
}

func (c *countingSource) GetProjects(_ context.Context, _ int) ([]yougile.RawProject, error) {
	return nil, nil
}

func (c *countingSource) GetTasks(_ context.Context, _ int) ([]yougile.RawTask, error) {
	return nil, nil
}

func TestCoordinatorRunsInitialPassAndStops(t *testing.T) {
	t.Parallel()

	source := &countingSource{}
	coordinator := NewCoordinator(NewIngestor(source, &fakeStore{}), time.Hour)

	errCh := make(chan error, 1)
	go func() {
		errCh <- coordinator.Start(context.Background())
	}()

	// The initial pass runs on startup, well before the first tick.
	require.Eventually(t, func() bool {
		return source.count() >= 1
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, coordinator.Stop())

	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("coordinator did not stop in time")
	}
}

func TestCoordinatorRunsPeriodicPasses(t *testing.T) {
	t.Parallel()

	source := &countingSource{}
	coordinator := NewCoordinator(NewIngestor(source, &fakeStore{}), 20*time.Millisecond)

	go func() {
		_ = coordinator.Start(context.Background())
	}()

	// Initial pass plus at least one tick-driven pass.
	require.Eventually(t, func() bool {
		return source.count() >= 2
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, coordinator.Stop())
}

func TestCoordinatorStopWithoutStart(t *testing.T) {
	t.Parallel()

	coordinator := NewCoordinator(NewIngestor(&countingSource{}, &fakeStore{}), time.Hour)
	assert.NoError(t, coordinator.Stop())
}

func TestCoordinatorStartHonoursParentContext(t *testing.T) {
	t.Parallel()

	source := &countingSource{}
	coordinator := NewCoordinator(NewIngestor(source, &fakeStore{}), time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- coordinator.Start(ctx)
	}()

	require.Eventually(t, func() bool {
		return source.count() >= 1
	}, 2*time.Second, 10*time.Millisecond)

	cancel()

	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("coordinator did not honour context cancellation")
	}
}
