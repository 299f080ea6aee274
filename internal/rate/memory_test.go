package rate

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemoryLimiterEnforcesWindow(t *testing.T) {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	now := base
	lim := NewMemoryLimiter(3, time.Minute).WithClock(func() time.Time { return now })
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		res, err := lim.Allow(ctx, "k")
		require.NoError(t, err)
		require.True(t, res.Allowed, "hit %d", i)
		require.Equal(t, int64(2-i), res.Remaining)
	}

	res, err := lim.Allow(ctx, "k")
	require.NoError(t, err)
	require.False(t, res.Allowed)
	require.Equal(t, int64(0), res.Remaining)
	require.Greater(t, res.RetryAfter, time.Duration(0))
	require.LessOrEqual(t, res.RetryAfter, time.Minute)
}

func TestMemoryLimiterSlides(t *testing.T) {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	now := base
	lim := NewMemoryLimiter(2, time.Minute).WithClock(func() time.Time { return now })
	ctx := context.Background()

	res, _ := lim.Allow(ctx, "k")
	require.True(t, res.Allowed)

	now = base.Add(40 * time.Second)
	res, _ = lim.Allow(ctx, "k")
	require.True(t, res.Allowed)

	now = base.Add(50 * time.Second)
	res, _ = lim.Allow(ctx, "k")
	require.False(t, res.Allowed)

	// El primer hit sale de la ventana; vuelve a haber cupo.
	now = base.Add(61 * time.Second)
	res, _ = lim.Allow(ctx, "k")
	require.True(t, res.Allowed)
}

func TestMemoryLimiterKeysAreIndependent(t *testing.T) {
	lim := NewMemoryLimiter(1, time.Minute)
	ctx := context.Background()

	res, _ := lim.Allow(ctx, "a")
	require.True(t, res.Allowed)
	res, _ = lim.Allow(ctx, "a")
	require.False(t, res.Allowed)

	res, _ = lim.Allow(ctx, "b")
	require.True(t, res.Allowed)
}
