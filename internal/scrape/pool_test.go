package scrape

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPoolSubmitReturnsResult(t *testing.T) {
	t.Parallel()

	pool := NewPool(2)
	defer pool.Close()

	got, err := pool.Submit(context.Background(), func() (Extraction, error) {
		return Extraction{Content: "hello", Title: "title"}, nil
	})
	require.NoError(t, err)
	require.Equal(t, "hello", got.Content)
	require.Equal(t, "title", got.Title)
}

func TestPoolSubmitPropagatesErrors(t *testing.T) {
	t.Parallel()

	pool := NewPool(1)
	defer pool.Close()

	boom := errors.New("remote said no")
	_, err := pool.Submit(context.Background(), func() (Extraction, error) {
		return Extraction{}, boom
	})
	require.ErrorIs(t, err, boom)
}

func TestPoolSubmitRecoversPanic(t *testing.T) {
	t.Parallel()

	pool := NewPool(1)
	defer pool.Close()

	_, err := pool.Submit(context.Background(), func() (Extraction, error) {
		panic("bad parse")
	})
	require.Error(t, err)
	require.ErrorContains(t, err, "panic")

	// The worker survived the panic and keeps serving tasks.
	got, err := pool.Submit(context.Background(), func() (Extraction, error) {
		return Extraction{Content: "still alive"}, nil
	})
	require.NoError(t, err)
	require.Equal(t, "still alive", got.Content)
}

func TestPoolSubmitHonorsContextWhileQueued(t *testing.T) {
	t.Parallel()

	pool := NewPool(1)
	defer pool.Close()

	release := make(chan struct{})
	var occupied sync.WaitGroup
	occupied.Add(1)
	go func() {
		defer occupied.Done()
		_, _ = pool.Submit(context.Background(), func() (Extraction, error) {
			<-release
			return Extraction{}, nil
		})
	}()

	// Give the blocker time to take the only worker.
	time.Sleep(10 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := pool.Submit(ctx, func() (Extraction, error) {
		return Extraction{}, nil
	})
	require.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
	occupied.Wait()
}

func TestPoolSizeFloor(t *testing.T) {
	t.Parallel()

	pool := NewPool(0)
	defer pool.Close()

	got, err := pool.Submit(context.Background(), func() (Extraction, error) {
		return Extraction{Content: "ran"}, nil
	})
	require.NoError(t, err)
	require.Equal(t, "ran", got.Content)
}

func TestThrottleLimits(t *testing.T) {
	t.Parallel()

	th := NewThrottle(2)
	require.Equal(t, 2, th.Limit())

	ctx := context.Background()
	require.NoError(t, th.Acquire(ctx))
	require.NoError(t, th.Acquire(ctx))

	full, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, th.Acquire(full), context.DeadlineExceeded)

	th.Release()
	require.NoError(t, th.Acquire(ctx))
	th.Release()
	th.Release()
}

func TestThrottleFloor(t *testing.T) {
	t.Parallel()

	th := NewThrottle(-5)
	require.Equal(t, 1, th.Limit())
	require.NoError(t, th.Acquire(context.Background()))
	th.Release()
}
