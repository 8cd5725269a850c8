package scrape

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConfigErrorMessage(t *testing.T) {
	t.Parallel()

	err := NewConfigError("strategy %q missing", "pdf")
	require.EqualError(t, err, `scrape config: strategy "pdf" missing`)
}

func TestPersistenceErrorUnwrap(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection reset")
	err := &PersistenceError{Op: "insert page", Err: cause}
	require.ErrorIs(t, err, cause)
	require.EqualError(t, err, "persistence insert page: connection reset")
}
