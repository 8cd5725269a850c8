package database

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aberhamm/gpt-researcher/internal/scrape"
)

// Memory is a process-local scrape.Sink for development and tests. All
// methods are safe for concurrent use.
type Memory struct {
	mu    sync.Mutex
	jobs  map[string]scrape.JobRecord
	pages map[string][]scrape.PageRecord
	logs  map[string][]scrape.LogRecord
}

// NewMemory builds an empty in-memory sink.
func NewMemory() *Memory {
	return &Memory{
		jobs:  make(map[string]scrape.JobRecord),
		pages: make(map[string][]scrape.PageRecord),
		logs:  make(map[string][]scrape.LogRecord),
	}
}

// CreateJob implements scrape.Sink.
func (m *Memory) CreateJob(_ context.Context, query string, meta scrape.JobMeta) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := uuid.NewString()
	m.jobs[id] = scrape.JobRecord{
		ID:             id,
		Query:          query,
		Agent:          meta.Agent,
		Role:           meta.Role,
		ReportType:     meta.ReportType,
		Status:         scrape.JobStatusInProgress,
		StartedAt:      time.Now().UTC(),
		AdditionalInfo: meta.AdditionalInfo,
	}
	return id, nil
}

// InsertPage implements scrape.Sink.
func (m *Memory) InsertPage(_ context.Context, page scrape.PageRecord) (scrape.PageRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.jobs[page.JobID]; !ok {
		return scrape.PageRecord{}, fmt.Errorf("job %s not found", page.JobID)
	}
	page.ID = uuid.NewString()
	page.ScrapedAt = time.Now().UTC()
	m.pages[page.JobID] = append(m.pages[page.JobID], page)
	return page, nil
}

// UpdateJob implements scrape.Sink.
func (m *Memory) UpdateJob(_ context.Context, jobID string, update scrape.JobUpdate) (scrape.JobRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, ok := m.jobs[jobID]
	if !ok {
		return scrape.JobRecord{}, fmt.Errorf("job %s not found", jobID)
	}
	now := time.Now().UTC()
	job.Status = update.Status
	job.FinishedAt = &now
	job.ErrorText = update.ErrorText
	if update.ResearchCosts != nil {
		job.ResearchCosts = *update.ResearchCosts
	}
	if update.VisitedURLs != nil {
		job.VisitedURLs = update.VisitedURLs
	}
	if update.Report != nil {
		job.Report = *update.Report
	}
	m.jobs[jobID] = job
	return job, nil
}

// GetJob implements scrape.Sink.
func (m *Memory) GetJob(_ context.Context, jobID string) (scrape.JobRecord, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, ok := m.jobs[jobID]
	return job, ok, nil
}

// GetPages implements scrape.Sink.
func (m *Memory) GetPages(_ context.Context, jobID string) ([]scrape.PageRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	pages := make([]scrape.PageRecord, len(m.pages[jobID]))
	copy(pages, m.pages[jobID])
	return pages, nil
}

// InsertLog implements scrape.Sink.
func (m *Memory) InsertLog(_ context.Context, jobID, level, message string, details map[string]any) (scrape.LogRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec := scrape.LogRecord{
		ID:        uuid.NewString(),
		JobID:     jobID,
		Level:     level,
		Message:   message,
		Details:   details,
		CreatedAt: time.Now().UTC(),
	}
	m.logs[jobID] = append(m.logs[jobID], rec)
	return rec, nil
}

// Logs returns a copy of the log lines stored for a job.
func (m *Memory) Logs(jobID string) []scrape.LogRecord {
	m.mu.Lock()
	defer m.mu.Unlock()

	logs := make([]scrape.LogRecord, len(m.logs[jobID]))
	copy(logs, m.logs[jobID])
	return logs
}
