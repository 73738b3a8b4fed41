package pool_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlexsanderHamir/dbpool/internal/pool"
	"github.com/AlexsanderHamir/dbpool/internal/poolerr"
	"github.com/AlexsanderHamir/dbpool/internal/settings"
)

func TestNewNullArguments(t *testing.T) {
	s, err := settings.NewDefaultProvider()
	require.NoError(t, err)

	_, err = pool.New(nil, &fakeFactory{})
	assert.ErrorIs(t, err, poolerr.ErrNullArgument)

	_, err = pool.New(s, nil)
	assert.ErrorIs(t, err, poolerr.ErrNullArgument)
}

func TestNewFillsInitialSessions(t *testing.T) {
	s, err := settings.NewBuilder().
		BaselineCapacity(4).
		InitialFill(2).
		Build()
	require.NoError(t, err)

	f := &fakeFactory{}
	p, err := pool.New(s, f)
	require.NoError(t, err)

	assert.Equal(t, 2, p.FreeCount())
	assert.Equal(t, int64(4), p.Capacity())
}

func TestAcquireReleaseRoundTrip(t *testing.T) {
	s, err := settings.NewBuilder().
		BaselineCapacity(2).
		InitialFill(2).
		Build()
	require.NoError(t, err)

	f := &fakeFactory{}
	p, err := pool.New(s, f)
	require.NoError(t, err)

	ctx := context.Background()
	got, err := p.Acquire(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, p.IsActive(got))
	assert.Equal(t, int64(1), p.ActiveCount())
	assert.Equal(t, 1, p.FreeCount())

	require.NoError(t, p.Release(got))
	assert.False(t, p.IsActive(got))
	assert.Equal(t, int64(0), p.ActiveCount())
	assert.Equal(t, 2, p.FreeCount())
}

func TestReleaseNullArgument(t *testing.T) {
	s, err := settings.NewDefaultProvider()
	require.NoError(t, err)
	p, err := pool.New(s, &fakeFactory{})
	require.NoError(t, err)

	assert.ErrorIs(t, p.Release(nil), poolerr.ErrNullArgument)
}

// TestAcquireTopsUpWhenFreeQueueEmptyAtMaxCapacity: top-up is bounded
// by the free queue's length, not by free plus active, so a second
// borrower on a capacity-1 pool gets a freshly opened session.
func TestAcquireTopsUpWhenFreeQueueEmptyAtMaxCapacity(t *testing.T) {
	s, err := settings.NewBuilder().
		BaselineCapacity(1).
		InitialFill(1).
		MaxCapacity(1).
		AcquireTimeout(20 * time.Millisecond).
		Build()
	require.NoError(t, err)

	f := &fakeFactory{}
	p, err := pool.New(s, f)
	require.NoError(t, err)

	ctx := context.Background()
	first, err := p.Acquire(ctx)
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := p.Acquire(ctx)
	require.NoError(t, err)
	assert.NotSame(t, first, second)
	assert.Equal(t, int64(2), p.ActiveCount())
	assert.Equal(t, int64(1), p.Capacity())
}

func TestAcquireInterruptedByContext(t *testing.T) {
	s, err := settings.NewBuilder().
		BaselineCapacity(1).
		InitialFill(1).
		MaxCapacity(1).
		AcquireTimeout(time.Second).
		Build()
	require.NoError(t, err)

	f := &fakeFactory{}
	p, err := pool.New(s, f)
	require.NoError(t, err)

	ctx := context.Background()
	_, err = p.Acquire(ctx)
	require.NoError(t, err)

	cancelCtx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.Acquire(cancelCtx)
	assert.ErrorIs(t, err, poolerr.ErrInterrupted)
}

func TestValidationAtHandoutReplacesDeadSession(t *testing.T) {
	s, err := settings.NewBuilder().
		BaselineCapacity(1).
		InitialFill(1).
		Build()
	require.NoError(t, err)

	f := &fakeFactory{}
	p, err := pool.New(s, f)
	require.NoError(t, err)

	got0, err := p.Acquire(context.Background())
	require.NoError(t, err)
	require.NoError(t, p.Release(got0))

	dead := got0.(*fakeSession)
	dead.setAlive(false)

	got1, err := p.Acquire(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, dead, got1)
	assert.True(t, dead.closed.Load())
}

func TestValidationAtReleaseClosesDeadSession(t *testing.T) {
	s, err := settings.NewBuilder().
		BaselineCapacity(1).
		InitialFill(1).
		Build()
	require.NoError(t, err)

	f := &fakeFactory{}
	p, err := pool.New(s, f)
	require.NoError(t, err)

	got, err := p.Acquire(context.Background())
	require.NoError(t, err)
	got.(*fakeSession).setAlive(false)

	require.NoError(t, p.Release(got))
	assert.True(t, got.(*fakeSession).closed.Load())
	assert.Equal(t, 0, p.FreeCount())
}

func TestShutdownClosesEverything(t *testing.T) {
	s, err := settings.NewBuilder().
		BaselineCapacity(2).
		InitialFill(2).
		Build()
	require.NoError(t, err)

	f := &fakeFactory{}
	p, err := pool.New(s, f)
	require.NoError(t, err)

	got, err := p.Acquire(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- p.Shutdown(ctx) }()

	time.Sleep(10 * time.Millisecond)
	require.NoError(t, p.Release(got))

	require.NoError(t, <-done)
	assert.True(t, got.(*fakeSession).closed.Load())
}
