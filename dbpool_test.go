package dbpool

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memSession struct {
	alive atomic.Bool
}

func (s *memSession) IsAlive(ctx context.Context, timeout time.Duration) bool { return s.alive.Load() }
func (s *memSession) Close() error                                            { return nil }

func memDialer(ctx context.Context, creds Credentials) (Session, error) {
	s := &memSession{}
	s.alive.Store(true)
	return s, nil
}

func testSettings(t *testing.T) Settings {
	t.Helper()
	s, err := DefaultSettings()
	require.NoError(t, err)
	return s
}

func TestInitializeNullArguments(t *testing.T) {
	defer resetForTest()

	err := Initialize(nil, Credentials{}, memDialer)
	assert.ErrorIs(t, err, ErrNullArgument)

	err = Initialize(testSettings(t), Credentials{}, nil)
	assert.ErrorIs(t, err, ErrNullArgument)
}

func TestInstanceBeforeInitialize(t *testing.T) {
	defer resetForTest()

	_, err := Instance()
	assert.ErrorIs(t, err, ErrNotInitialized)
}

func TestInitializeIsIdempotent(t *testing.T) {
	defer resetForTest()

	require.NoError(t, Initialize(testSettings(t), Credentials{User: "u", Password: "p", URL: "url"}, memDialer))
	p1, err := Instance()
	require.NoError(t, err)

	// Second Initialize must not replace the existing singleton.
	require.NoError(t, Initialize(testSettings(t), Credentials{}, memDialer))
	p2, err := Instance()
	require.NoError(t, err)
	assert.Same(t, p1, p2)
}

func TestAcquireReleaseThroughPublicAPI(t *testing.T) {
	defer resetForTest()

	require.NoError(t, Initialize(testSettings(t), Credentials{User: "u", Password: "p", URL: "url"}, memDialer))
	p, err := Instance()
	require.NoError(t, err)

	sess, err := p.Acquire(context.Background())
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.True(t, p.IsActive(sess))

	require.NoError(t, p.Release(sess))
	assert.False(t, p.IsActive(sess))
}

func TestInitializeWithClockOptionArmsLeakScanOnAcquire(t *testing.T) {
	defer resetForTest()

	fixed := time.Unix(0, 0)
	require.NoError(t, Initialize(
		testSettings(t),
		Credentials{User: "u", Password: "p", URL: "url"},
		memDialer,
		WithClock(func() time.Time { return fixed }),
	))
	p, err := Instance()
	require.NoError(t, err)
	assert.False(t, p.IsLeakScanArmed())

	_, err = p.Acquire(context.Background())
	require.NoError(t, err)
	assert.True(t, p.IsLeakScanArmed())
}

func TestShutdownThroughPublicAPI(t *testing.T) {
	defer resetForTest()

	require.NoError(t, Initialize(testSettings(t), Credentials{User: "u", Password: "p", URL: "url"}, memDialer))
	p, err := Instance()
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, p.Shutdown(ctx))
}
