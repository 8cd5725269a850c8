// Package database provides persistence sink implementations over the
// jobs/pages/logs schema used for scraping runs.
package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aberhamm/gpt-researcher/internal/scrape"
)

// PostgresConfig controls the connection pool behind the Postgres sink.
type PostgresConfig struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type pgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// Postgres implements scrape.Sink on a pgx connection pool.
//
// Expected schema:
//
//	CREATE TABLE jobs (
//		id UUID PRIMARY KEY,
//		query TEXT NOT NULL,
//		agent TEXT,
//		role TEXT,
//		report_type TEXT,
//		status TEXT NOT NULL,
//		started_at TIMESTAMPTZ NOT NULL,
//		finished_at TIMESTAMPTZ,
//		research_costs DOUBLE PRECISION NOT NULL DEFAULT 0,
//		visited_urls JSONB NOT NULL DEFAULT '[]',
//		report TEXT,
//		error_message TEXT,
//		additional_info JSONB NOT NULL DEFAULT '{}'
//	);
//	CREATE TABLE pages (
//		id UUID PRIMARY KEY,
//		job_id UUID NOT NULL REFERENCES jobs(id),
//		url TEXT NOT NULL,
//		title TEXT,
//		content TEXT NOT NULL,
//		metadata JSONB NOT NULL DEFAULT '{}',
//		scraped_at TIMESTAMPTZ NOT NULL
//	);
//	CREATE TABLE logs (
//		id UUID PRIMARY KEY,
//		job_id UUID NOT NULL REFERENCES jobs(id),
//		level TEXT NOT NULL,
//		message TEXT NOT NULL,
//		details JSONB NOT NULL DEFAULT '{}',
//		created_at TIMESTAMPTZ NOT NULL
//	);
type Postgres struct {
	pool pgxPool
}

// NewPostgres connects a pool and builds the sink.
func NewPostgres(ctx context.Context, cfg PostgresConfig) (*Postgres, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("database dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

// NewPostgresWithPool constructs the sink from an existing pool, primarily
// for testing with pgxmock.
func NewPostgresWithPool(pool pgxPool) (*Postgres, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	return &Postgres{pool: pool}, nil
}

// Close releases the pool.
func (p *Postgres) Close() {
	if p == nil || p.pool == nil {
		return
	}
	p.pool.Close()
}

// CreateJob inserts a new job in in_progress status and returns its ID.
func (p *Postgres) CreateJob(ctx context.Context, query string, meta scrape.JobMeta) (string, error) {
	infoJSON, err := marshalMap(meta.AdditionalInfo)
	if err != nil {
		return "", fmt.Errorf("marshal additional info: %w", err)
	}
	id := uuid.NewString()
	const stmt = `
INSERT INTO jobs (
	id, query, agent, role, report_type, status, started_at,
	research_costs, visited_urls, report, error_message, additional_info
) VALUES ($1,$2,$3,$4,$5,$6,$7,0,'[]',NULL,NULL,$8)`
	_, err = p.pool.Exec(ctx, stmt,
		id, query, meta.Agent, meta.Role, meta.ReportType,
		scrape.JobStatusInProgress, time.Now().UTC(), infoJSON,
	)
	if err != nil {
		return "", fmt.Errorf("insert job: %w", err)
	}
	return id, nil
}

// InsertPage persists one accepted page and returns the stored record.
func (p *Postgres) InsertPage(ctx context.Context, page scrape.PageRecord) (scrape.PageRecord, error) {
	if page.JobID == "" {
		return scrape.PageRecord{}, fmt.Errorf("page job id is required")
	}
	metaJSON, err := json.Marshal(page.Metadata)
	if err != nil {
		return scrape.PageRecord{}, fmt.Errorf("marshal page metadata: %w", err)
	}
	page.ID = uuid.NewString()
	page.ScrapedAt = time.Now().UTC()
	const stmt = `
INSERT INTO pages (id, job_id, url, title, content, metadata, scraped_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)`
	_, err = p.pool.Exec(ctx, stmt,
		page.ID, page.JobID, page.URL, page.Title, page.Content, metaJSON, page.ScrapedAt,
	)
	if err != nil {
		return scrape.PageRecord{}, fmt.Errorf("insert page: %w", err)
	}
	return page, nil
}

// UpdateJob applies a terminal or intermediate status change and returns the
// updated record. Nil optional fields leave their columns untouched.
func (p *Postgres) UpdateJob(ctx context.Context, jobID string, update scrape.JobUpdate) (scrape.JobRecord, error) {
	set := []string{"status = $1", "finished_at = $2", "error_message = $3"}
	args := []any{update.Status, time.Now().UTC(), nullableText(update.ErrorText)}
	next := 4

	if update.ResearchCosts != nil {
		set = append(set, fmt.Sprintf("research_costs = $%d", next))
		args = append(args, *update.ResearchCosts)
		next++
	}
	if update.VisitedURLs != nil {
		urlsJSON, err := json.Marshal(update.VisitedURLs)
		if err != nil {
			return scrape.JobRecord{}, fmt.Errorf("marshal visited urls: %w", err)
		}
		set = append(set, fmt.Sprintf("visited_urls = $%d", next))
		args = append(args, urlsJSON)
		next++
	}
	if update.Report != nil {
		set = append(set, fmt.Sprintf("report = $%d", next))
		args = append(args, *update.Report)
		next++
	}
	args = append(args, jobID)

	stmt := fmt.Sprintf(`UPDATE jobs SET %s WHERE id = $%d RETURNING %s`,
		joinSet(set), next, jobColumns)
	row := p.pool.QueryRow(ctx, stmt, args...)
	job, err := scanJob(row)
	if err != nil {
		return scrape.JobRecord{}, fmt.Errorf("update job: %w", err)
	}
	return job, nil
}

// GetJob fetches one job; the bool reports whether it exists.
func (p *Postgres) GetJob(ctx context.Context, jobID string) (scrape.JobRecord, bool, error) {
	stmt := fmt.Sprintf(`SELECT %s FROM jobs WHERE id = $1`, jobColumns)
	row := p.pool.QueryRow(ctx, stmt, jobID)
	job, err := scanJob(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return scrape.JobRecord{}, false, nil
	}
	if err != nil {
		return scrape.JobRecord{}, false, fmt.Errorf("get job: %w", err)
	}
	return job, true, nil
}

// GetPages lists every page stored for a job in scrape order.
func (p *Postgres) GetPages(ctx context.Context, jobID string) ([]scrape.PageRecord, error) {
	const stmt = `
SELECT id, job_id, url, title, content, metadata, scraped_at
FROM pages WHERE job_id = $1 ORDER BY scraped_at`
	rows, err := p.pool.Query(ctx, stmt, jobID)
	if err != nil {
		return nil, fmt.Errorf("get pages: %w", err)
	}
	defer rows.Close()

	var pages []scrape.PageRecord
	for rows.Next() {
		var (
			page     scrape.PageRecord
			metaJSON []byte
		)
		if err := rows.Scan(
			&page.ID, &page.JobID, &page.URL, &page.Title,
			&page.Content, &metaJSON, &page.ScrapedAt,
		); err != nil {
			return nil, fmt.Errorf("scan page: %w", err)
		}
		if len(metaJSON) > 0 {
			if err := json.Unmarshal(metaJSON, &page.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshal page metadata: %w", err)
			}
		}
		pages = append(pages, page)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pages: %w", err)
	}
	return pages, nil
}

// InsertLog persists one structured log line for a job.
func (p *Postgres) InsertLog(ctx context.Context, jobID, level, message string, details map[string]any) (scrape.LogRecord, error) {
	detailsJSON, err := marshalMap(details)
	if err != nil {
		return scrape.LogRecord{}, fmt.Errorf("marshal log details: %w", err)
	}
	rec := scrape.LogRecord{
		ID:        uuid.NewString(),
		JobID:     jobID,
		Level:     level,
		Message:   message,
		Details:   details,
		CreatedAt: time.Now().UTC(),
	}
	const stmt = `
INSERT INTO logs (id, job_id, level, message, details, created_at)
VALUES ($1,$2,$3,$4,$5,$6)`
	_, err = p.pool.Exec(ctx, stmt,
		rec.ID, rec.JobID, rec.Level, rec.Message, detailsJSON, rec.CreatedAt,
	)
	if err != nil {
		return scrape.LogRecord{}, fmt.Errorf("insert log: %w", err)
	}
	return rec, nil
}

const jobColumns = `id, query, agent, role, report_type, status, started_at,
finished_at, research_costs, visited_urls, report, error_message, additional_info`

func scanJob(row pgx.Row) (scrape.JobRecord, error) {
	var (
		job      scrape.JobRecord
		agent    *string
		role     *string
		repType  *string
		report   *string
		errText  *string
		urlsJSON []byte
		infoJSON []byte
	)
	err := row.Scan(
		&job.ID, &job.Query, &agent, &role, &repType, &job.Status,
		&job.StartedAt, &job.FinishedAt, &job.ResearchCosts,
		&urlsJSON, &report, &errText, &infoJSON,
	)
	if err != nil {
		return scrape.JobRecord{}, err
	}
	job.Agent = deref(agent)
	job.Role = deref(role)
	job.ReportType = deref(repType)
	job.Report = deref(report)
	job.ErrorText = deref(errText)
	if len(urlsJSON) > 0 {
		if err := json.Unmarshal(urlsJSON, &job.VisitedURLs); err != nil {
			return scrape.JobRecord{}, fmt.Errorf("unmarshal visited urls: %w", err)
		}
	}
	if len(infoJSON) > 0 {
		if err := json.Unmarshal(infoJSON, &job.AdditionalInfo); err != nil {
			return scrape.JobRecord{}, fmt.Errorf("unmarshal additional info: %w", err)
		}
	}
	return job, nil
}

func marshalMap(m map[string]any) ([]byte, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

func nullableText(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func joinSet(parts []string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += ", "
		}
		out += p
	}
	return out
}
