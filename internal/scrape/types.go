// Package scrape defines the core types and orchestration for batch content
// extraction. One batch run fans out over a set of URLs, resolves a strategy
// per URL, and collects normalized text/image/title outcomes.
package scrape

import (
	"time"
)

// Status classifies the result produced for a single target.
type Status string

// Outcome status values.
const (
	// StatusAccepted means the strategy produced content that passed the
	// minimum-length gate.
	StatusAccepted Status = "accepted"
	// StatusRejected means the strategy ran but the content was too short to
	// be usable. A short page is a non-result, not an error.
	StatusRejected Status = "rejected"
	// StatusFailed means the task hit an error; the cause is in Outcome.Err.
	StatusFailed Status = "failed"
)

// StrategyKey identifies one registered extraction strategy.
type StrategyKey string

// The closed set of strategy keys.
const (
	KeyPDF         StrategyKey = "pdf"
	KeyArxiv       StrategyKey = "arxiv"
	KeyLocalHTML   StrategyKey = "local_html"
	KeyWebLoader   StrategyKey = "web_loader"
	KeyBrowser     StrategyKey = "browser"
	KeyHeadless    StrategyKey = "headless"
	KeyScraperAPI  StrategyKey = "scraperapi"
	KeyScrapingBee StrategyKey = "scrapingbee"
	KeyZenRows     StrategyKey = "zenrows"
)

// Target is one URL submitted for extraction. Override, when set, bypasses
// the batch default during strategy selection (PDF and arXiv rules still win).
type Target struct {
	URL      string
	Override StrategyKey
}

// Extraction is what a strategy returns for one target.
type Extraction struct {
	Content   string
	ImageURLs []string
	Title     string
}

// Outcome is the per-target result emitted by the orchestrator. Exactly one
// outcome exists per submitted target and none is mutated after emission.
//
// Invariant: Status == StatusAccepted implies RawContent is non-empty and at
// least the configured minimum length; otherwise RawContent is empty.
type Outcome struct {
	URL        string
	Status     Status
	RawContent string
	ImageURLs  []string
	Title      string
	Strategy   StrategyKey
	Err        error
}

// Accepted filters outcomes down to the ones with usable content, preserving
// order. This is the read mode downstream consumers want; Run returns the
// full sequence for diagnostics.
func Accepted(outcomes []Outcome) []Outcome {
	kept := make([]Outcome, 0, len(outcomes))
	for _, o := range outcomes {
		if o.Status == StatusAccepted {
			kept = append(kept, o)
		}
	}
	return kept
}

// JobStatus values persisted for a scraping job.
const (
	JobStatusInProgress = "in_progress"
	JobStatusCompleted  = "completed"
	JobStatusFailed     = "failed"
)

// JobMeta carries optional descriptive fields recorded when a job is created.
type JobMeta struct {
	Agent          string
	Role           string
	ReportType     string
	AdditionalInfo map[string]any
}

// JobRecord is the persisted state of one scraping job.
type JobRecord struct {
	ID             string
	Query          string
	Agent          string
	Role           string
	ReportType     string
	Status         string
	StartedAt      time.Time
	FinishedAt     *time.Time
	ResearchCosts  float64
	VisitedURLs    []string
	Report         string
	ErrorText      string
	AdditionalInfo map[string]any
}

// JobUpdate captures the fields updated when a job finishes or changes state.
// Nil pointer fields are left untouched.
type JobUpdate struct {
	Status        string
	ResearchCosts *float64
	VisitedURLs   []string
	Report        *string
	ErrorText     string
}

// PageMetadata is the per-page metadata stored alongside accepted content.
type PageMetadata struct {
	Strategy      StrategyKey `json:"scraper"`
	ImageURLs     []string    `json:"image_urls"`
	ContentLength int         `json:"content_length"`
}

// PageRecord is persisted for each accepted page.
type PageRecord struct {
	ID        string
	JobID     string
	URL       string
	Title     string
	Content   string
	Metadata  PageMetadata
	ScrapedAt time.Time
}

// LogRecord is a structured log line persisted for a job.
type LogRecord struct {
	ID        string
	JobID     string
	Level     string
	Message   string
	Details   map[string]any
	CreatedAt time.Time
}
