package headless

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aberhamm/gpt-researcher/internal/scrape"
)

func TestKey(t *testing.T) {
	t.Parallel()

	require.Equal(t, scrape.KeyHeadless, (&Strategy{}).Key())
}
