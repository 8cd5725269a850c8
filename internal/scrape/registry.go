package scrape

import (
	"net/url"
	"strings"
)

// Registry holds the closed set of registered strategies and resolves one per
// target. Registration is validated up front so an unresolvable default key
// is a construction-time error, not a per-request surprise.
type Registry struct {
	strategies map[StrategyKey]Strategy
	defaultKey StrategyKey
}

// NewRegistry builds a Registry from the given strategies. Every strategy
// must implement exactly one of Extractor or BlockingExtractor, and the
// default key must be registered.
func NewRegistry(defaultKey StrategyKey, strategies ...Strategy) (*Registry, error) {
	if defaultKey == "" {
		return nil, NewConfigError("default strategy key is required")
	}
	entries := make(map[StrategyKey]Strategy, len(strategies))
	for _, s := range strategies {
		key := s.Key()
		if key == "" {
			return nil, NewConfigError("strategy with empty key")
		}
		if _, dup := entries[key]; dup {
			return nil, NewConfigError("strategy %q registered twice", key)
		}
		_, ctxAware := s.(Extractor)
		_, blocking := s.(BlockingExtractor)
		switch {
		case ctxAware && blocking:
			return nil, NewConfigError("strategy %q implements both extractor variants", key)
		case !ctxAware && !blocking:
			return nil, NewConfigError("strategy %q implements neither extractor variant", key)
		}
		entries[key] = s
	}
	if _, ok := entries[defaultKey]; !ok {
		return nil, NewConfigError("default strategy %q is not registered", defaultKey)
	}
	return &Registry{strategies: entries, defaultKey: defaultKey}, nil
}

// Select resolves the strategy for a target. Resolution is total and
// deterministic: arXiv URLs always get the arxiv strategy (even when the
// path ends in .pdf), other PDF paths get the pdf strategy, and everything
// else falls through to the target override or the batch default.
func (r *Registry) Select(target Target) (Strategy, error) {
	key := r.resolveKey(target)
	s, ok := r.strategies[key]
	if !ok {
		return nil, NewConfigError("no strategy registered for key %q", key)
	}
	return s, nil
}

func (r *Registry) resolveKey(target Target) StrategyKey {
	u, err := url.Parse(target.URL)
	if err == nil {
		if strings.Contains(strings.ToLower(u.Host), "arxiv.org") {
			return KeyArxiv
		}
		if strings.HasSuffix(strings.ToLower(u.Path), ".pdf") {
			return KeyPDF
		}
	}
	if target.Override != "" {
		return target.Override
	}
	return r.defaultKey
}

// Keys returns the registered strategy keys, for logging and diagnostics.
func (r *Registry) Keys() []StrategyKey {
	keys := make([]StrategyKey, 0, len(r.strategies))
	for k := range r.strategies {
		keys = append(keys, k)
	}
	return keys
}
