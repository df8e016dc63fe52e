package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetOrFetchCachesWithinTTL(t *testing.T) {
	c := New[string]()
	ctx := context.Background()

	var calls int
	fetch := func(context.Context) (string, error) {
		calls++
		return "value", nil
	}

	for range 5 {
		v, err := c.GetOrFetch(ctx, "k", time.Minute, fetch)
		require.NoError(t, err)
		assert.Equal(t, "value", v)
	}
	assert.Equal(t, 1, calls, "reads within TTL must short-circuit the fetcher")
}

func TestGetOrFetchExpiryForcesRefetch(t *testing.T) {
	c := New[int]()
	ctx := context.Background()

	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return clock }

	var calls int
	fetch := func(context.Context) (int, error) {
		calls++
		return calls, nil
	}

	v, err := c.GetOrFetch(ctx, "k", 2*time.Minute, fetch)
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	clock = clock.Add(time.Minute)
	v, _ = c.GetOrFetch(ctx, "k", 2*time.Minute, fetch)
	assert.Equal(t, 1, v, "still fresh")

	clock = clock.Add(2 * time.Minute)
	v, err = c.GetOrFetch(ctx, "k", 2*time.Minute, fetch)
	require.NoError(t, err)
	assert.Equal(t, 2, v, "expired entry must refetch")
}

func TestGetOrFetchErrorNotCached(t *testing.T) {
	c := New[string]()
	ctx := context.Background()

	var calls int
	_, err := c.GetOrFetch(ctx, "k", time.Minute, func(context.Context) (string, error) {
		calls++
		return "", eris.New("backend down")
	})
	require.Error(t, err)

	v, err := c.GetOrFetch(ctx, "k", time.Minute, func(context.Context) (string, error) {
		calls++
		return "recovered", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "recovered", v)
	assert.Equal(t, 2, calls)
}

func TestInvalidate(t *testing.T) {
	c := New[string]()
	ctx := context.Background()

	var calls int
	fetch := func(context.Context) (string, error) {
		calls++
		return "v", nil
	}

	_, _ = c.GetOrFetch(ctx, "a", time.Minute, fetch)
	_, _ = c.GetOrFetch(ctx, "b", time.Minute, fetch)
	require.Equal(t, 2, calls)

	c.Invalidate("a")
	_, _ = c.GetOrFetch(ctx, "a", time.Minute, fetch)
	_, _ = c.GetOrFetch(ctx, "b", time.Minute, fetch)
	assert.Equal(t, 3, calls, "only the invalidated key refetches")

	c.InvalidateAll()
	_, _ = c.GetOrFetch(ctx, "a", time.Minute, fetch)
	_, _ = c.GetOrFetch(ctx, "b", time.Minute, fetch)
	assert.Equal(t, 5, calls)
}

func TestConcurrentFetchesCoalesce(t *testing.T) {
	c := New[int]()
	ctx := context.Background()

	var calls atomic.Int32
	release := make(chan struct{})
	fetch := func(context.Context) (int, error) {
		calls.Add(1)
		<-release
		return 42, nil
	}

	const workers = 20
	var wg sync.WaitGroup
	results := make([]int, workers)
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := c.GetOrFetch(ctx, "hot", time.Minute, fetch)
			require.NoError(t, err)
			results[i] = v
		}()
	}

	// Give the goroutines time to pile onto the same key, then release.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.LessOrEqual(t, calls.Load(), int32(2), "concurrent callers must coalesce")
	for _, v := range results {
		assert.Equal(t, 42, v)
	}
}
