package browser

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aberhamm/gpt-researcher/internal/scrape"
)

func TestNewAppliesTimeoutDefault(t *testing.T) {
	t.Parallel()

	s, err := New(Config{})
	require.NoError(t, err)
	defer s.Close()

	require.Equal(t, 45*time.Second, s.cfg.NavigationTimeout)
	require.Equal(t, scrape.KeyBrowser, s.Key())
}

func TestPropagateCancel(t *testing.T) {
	t.Parallel()

	ctx, cancelCaller := context.WithCancel(context.Background())
	canceled := make(chan struct{})
	stop := propagateCancel(ctx, func() { close(canceled) })
	defer stop()

	cancelCaller()
	select {
	case <-canceled:
	case <-time.After(time.Second):
		t.Fatal("page cancel did not follow caller cancel")
	}
}

func TestPropagateCancelStopReleasesWatcher(t *testing.T) {
	t.Parallel()

	ctx, cancelCaller := context.WithCancel(context.Background())
	defer cancelCaller()

	fired := make(chan struct{}, 1)
	stop := propagateCancel(ctx, func() { fired <- struct{}{} })
	stop()
	cancelCaller()

	select {
	case <-fired:
		t.Fatal("cancel fired after stop")
	case <-time.After(50 * time.Millisecond):
	}
}
