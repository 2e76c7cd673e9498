package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThrottle_EnforcesDelay(t *testing.T) {
	th := NewThrottle(50 * time.Millisecond)
	ctx := context.Background()

	require.NoError(t, th.Wait(ctx))

	start := time.Now()
	require.NoError(t, th.Wait(ctx))
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}

func TestThrottle_FirstCallIsImmediate(t *testing.T) {
	th := NewThrottle(time.Second)

	start := time.Now()
	require.NoError(t, th.Wait(context.Background()))
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestThrottle_ZeroDelay(t *testing.T) {
	th := NewThrottle(0)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 10; i++ {
		require.NoError(t, th.Wait(ctx))
	}
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestThrottle_ContextCancellation(t *testing.T) {
	th := NewThrottle(time.Minute)
	require.NoError(t, th.Wait(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := th.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestThrottle_Delay(t *testing.T) {
	assert.Equal(t, 250*time.Millisecond, NewThrottle(250*time.Millisecond).Delay())
}
