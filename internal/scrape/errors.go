package scrape

import "fmt"

// ConfigError reports an unresolvable strategy key or a missing required
// credential. It is fatal to the single task it occurs in, never to the batch.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "scrape config: " + e.Reason
}

// NewConfigError formats a ConfigError.
func NewConfigError(format string, args ...any) *ConfigError {
	return &ConfigError{Reason: fmt.Sprintf(format, args...)}
}

// PersistenceError wraps a sink write failure. The orchestrator logs and
// swallows these; they never downgrade an already accepted outcome.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
