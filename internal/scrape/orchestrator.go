package scrape

import (
	"context"
	"fmt"
	"sync"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/aberhamm/gpt-researcher/internal/metrics"
)

// Defaults applied when Config leaves a knob unset. The thresholds mirror the
// long-standing behavior of the scraper: pages under 100 characters are noise.
const (
	DefaultConcurrency      = 10
	DefaultMinContentLength = 100
)

// Config controls one Orchestrator.
type Config struct {
	// Concurrency bounds simultaneous extractions and sizes the worker pool
	// that absorbs blocking strategies.
	Concurrency int
	// MinContentLength is the content-quality gate, counted in characters
	// rather than bytes: shorter extractions are reclassified Rejected and
	// their content discarded.
	MinContentLength int
	// JobID, when set together with a sink, enables persistence of accepted
	// pages under that job.
	JobID string
}

// Orchestrator fans a batch of targets out to per-URL tasks, contains each
// task's failures, and assembles outcomes in submission order. It exclusively
// owns the outcome slice for the lifetime of one Run call.
type Orchestrator struct {
	registry *Registry
	throttle *Throttle
	pool     *Pool
	sink     Sink
	cfg      Config
	logger   *zap.Logger
}

// NewOrchestrator builds an Orchestrator. The sink may be nil, which disables
// persistence entirely. The caller owns the sink's lifecycle.
func NewOrchestrator(registry *Registry, sink Sink, cfg Config, logger *zap.Logger) *Orchestrator {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	if cfg.MinContentLength <= 0 {
		cfg.MinContentLength = DefaultMinContentLength
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		registry: registry,
		throttle: NewThrottle(cfg.Concurrency),
		pool:     NewPool(cfg.Concurrency),
		sink:     sink,
		cfg:      cfg,
		logger:   logger,
	}
}

// Close shuts down the worker pool. Call after the last Run.
func (o *Orchestrator) Close() {
	o.pool.Close()
}

// Run extracts every target and returns exactly one outcome per target, in
// submission order regardless of completion order. Tasks never abort the
// batch: errors surface as Failed outcomes. Run itself errs only on
// malformed input.
func (o *Orchestrator) Run(ctx context.Context, targets []Target) ([]Outcome, error) {
	for i, t := range targets {
		if t.URL == "" {
			return nil, fmt.Errorf("target %d: empty url", i)
		}
	}

	o.logEvent(ctx, "info", "batch started", map[string]any{"targets": len(targets)})

	outcomes := make([]Outcome, len(targets))
	var running sync.WaitGroup
	for i, t := range targets {
		running.Add(1)
		go func(i int, t Target) {
			defer running.Done()
			outcomes[i] = o.process(ctx, t)
		}(i, t)
	}
	running.Wait()

	o.logEvent(ctx, "info", "batch finished", map[string]any{
		"targets":  len(targets),
		"accepted": len(Accepted(outcomes)),
	})
	return outcomes, nil
}

// process runs one task end to end. Nothing escapes it: panics and errors are
// converted to a Failed outcome at this boundary.
func (o *Orchestrator) process(ctx context.Context, target Target) (outcome Outcome) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("task panic", zap.String("url", target.URL), zap.Any("panic", r))
			outcome = o.failed(target, "", fmt.Errorf("task panic: %v", r))
		}
	}()

	strategy, err := o.registry.Select(target)
	if err != nil {
		o.logger.Warn("strategy selection failed", zap.String("url", target.URL), zap.Error(err))
		return o.failed(target, "", err)
	}
	key := strategy.Key()

	if err := o.throttle.Acquire(ctx); err != nil {
		return o.failed(target, key, fmt.Errorf("throttle wait: %w", err))
	}
	metrics.IncInFlight()
	defer func() {
		o.throttle.Release()
		metrics.DecInFlight()
	}()

	start := time.Now()
	extraction, err := o.invoke(ctx, strategy, target)
	metrics.ObserveExtraction(string(key), time.Since(start))
	if err != nil {
		o.logger.Warn("extraction failed",
			zap.String("url", target.URL),
			zap.String("strategy", string(key)),
			zap.Error(err),
		)
		return o.failed(target, key, err)
	}

	if utf8.RuneCountInString(extraction.Content) < o.cfg.MinContentLength {
		o.logger.Debug("content too short",
			zap.String("url", target.URL),
			zap.String("strategy", string(key)),
			zap.Int("chars", utf8.RuneCountInString(extraction.Content)),
		)
		metrics.RecordOutcome(string(key), string(StatusRejected))
		return Outcome{
			URL:       target.URL,
			Status:    StatusRejected,
			ImageURLs: []string{},
			Title:     extraction.Title,
			Strategy:  key,
		}
	}

	outcome = Outcome{
		URL:        target.URL,
		Status:     StatusAccepted,
		RawContent: extraction.Content,
		ImageURLs:  nonNil(extraction.ImageURLs),
		Title:      extraction.Title,
		Strategy:   key,
	}
	o.logger.Info("page extracted",
		zap.String("url", target.URL),
		zap.String("strategy", string(key)),
		zap.String("title", outcome.Title),
		zap.Int("content_length", utf8.RuneCountInString(outcome.RawContent)),
		zap.Int("images", len(outcome.ImageURLs)),
	)
	metrics.RecordOutcome(string(key), string(StatusAccepted))
	metrics.AddContentBytes(string(key), len(outcome.RawContent))

	o.persist(ctx, outcome)
	return outcome
}

// invoke dispatches by the variant the strategy declares: context-aware
// extractors run inline on the task goroutine, blocking ones go through the
// bounded worker pool.
func (o *Orchestrator) invoke(ctx context.Context, strategy Strategy, target Target) (Extraction, error) {
	switch s := strategy.(type) {
	case Extractor:
		return s.Extract(ctx, target)
	case BlockingExtractor:
		return o.pool.Submit(ctx, func() (Extraction, error) {
			return s.ExtractBlocking(target)
		})
	default:
		// The registry validates variants at construction; this is unreachable
		// for registered strategies.
		return Extraction{}, NewConfigError("strategy %q has no extractor variant", strategy.Key())
	}
}

// persist forwards an accepted outcome to the sink. Writes are fire-and-
// forget: a sink failure is logged and swallowed, never downgrading the
// outcome.
func (o *Orchestrator) persist(ctx context.Context, outcome Outcome) {
	if o.sink == nil || o.cfg.JobID == "" {
		return
	}
	page := PageRecord{
		JobID:   o.cfg.JobID,
		URL:     outcome.URL,
		Title:   outcome.Title,
		Content: outcome.RawContent,
		Metadata: PageMetadata{
			Strategy:      outcome.Strategy,
			ImageURLs:     outcome.ImageURLs,
			ContentLength: utf8.RuneCountInString(outcome.RawContent),
		},
	}
	if _, err := o.sink.InsertPage(ctx, page); err != nil {
		perr := &PersistenceError{Op: "insert page", Err: err}
		o.logger.Warn("sink write failed", zap.String("url", outcome.URL), zap.Error(perr))
		metrics.RecordSinkFailure()
	}
}

// logEvent mirrors a batch-level event into the sink's log table when a job
// is configured. Best-effort, like every other sink write.
func (o *Orchestrator) logEvent(ctx context.Context, level, message string, details map[string]any) {
	if o.sink == nil || o.cfg.JobID == "" {
		return
	}
	if _, err := o.sink.InsertLog(ctx, o.cfg.JobID, level, message, details); err != nil {
		o.logger.Debug("sink log write failed", zap.Error(err))
	}
}

func (o *Orchestrator) failed(target Target, key StrategyKey, err error) Outcome {
	metrics.RecordOutcome(string(key), string(StatusFailed))
	return Outcome{
		URL:       target.URL,
		Status:    StatusFailed,
		ImageURLs: []string{},
		Strategy:  key,
		Err:       err,
	}
}

func nonNil(urls []string) []string {
	if urls == nil {
		return []string{}
	}
	return urls
}
