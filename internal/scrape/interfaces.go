package scrape

import "context"

// Strategy is the base capability shared by every extraction strategy. A
// concrete strategy additionally implements exactly one of Extractor or
// BlockingExtractor; the registry rejects anything else at construction.
type Strategy interface {
	Key() StrategyKey
}

// Extractor is the context-aware form. Implementations honor ctx across
// network I/O and are run inline on the task goroutine.
//
// Extract must not return an error for "no content found"; it returns an
// empty Extraction instead. Errors are reserved for genuine failures.
type Extractor interface {
	Strategy
	Extract(ctx context.Context, target Target) (Extraction, error)
}

// BlockingExtractor is the synchronous form for strategies whose underlying
// client offers no cancellation. The orchestrator dispatches these to a
// bounded worker pool so a slow call cannot stall the goroutines driving
// the rest of the batch.
type BlockingExtractor interface {
	Strategy
	ExtractBlocking(target Target) (Extraction, error)
}

// Sink is the external persistence collaborator receiving accepted results
// and job bookkeeping. All writes issued by the orchestrator are best-effort
// and at-most-once per event; the orchestrator never retries sink failures.
type Sink interface {
	CreateJob(ctx context.Context, query string, meta JobMeta) (string, error)
	InsertPage(ctx context.Context, page PageRecord) (PageRecord, error)
	UpdateJob(ctx context.Context, jobID string, update JobUpdate) (JobRecord, error)
	GetJob(ctx context.Context, jobID string) (JobRecord, bool, error)
	GetPages(ctx context.Context, jobID string) ([]PageRecord, error)
	InsertLog(ctx context.Context, jobID, level, message string, details map[string]any) (LogRecord, error)
}
