package logging

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewBuildsBothModes(t *testing.T) {
	t.Parallel()

	dev, err := New(true)
	require.NoError(t, err)
	require.NotNil(t, dev)

	prod, err := New(false)
	require.NoError(t, err)
	require.NotNil(t, prod)
}

func TestForStrategyTagsEntries(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.InfoLevel)
	ForStrategy(zap.New(core), "web_loader").Info("page extracted")

	entries := logs.All()
	require.Len(t, entries, 1)
	require.Equal(t, "web_loader", entries[0].ContextMap()["strategy"])
}

func TestForStrategyNilLogger(t *testing.T) {
	t.Parallel()

	require.NotPanics(t, func() {
		ForStrategy(nil, "pdf").Info("ignored")
	})
}
