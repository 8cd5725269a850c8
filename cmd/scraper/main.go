// Package main wires together the scraper service binary.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/aberhamm/gpt-researcher/internal/api"
	"github.com/aberhamm/gpt-researcher/internal/config"
	"github.com/aberhamm/gpt-researcher/internal/database"
	"github.com/aberhamm/gpt-researcher/internal/logging"
	"github.com/aberhamm/gpt-researcher/internal/metrics"
	"github.com/aberhamm/gpt-researcher/internal/scrape"
	"github.com/aberhamm/gpt-researcher/internal/strategy/arxiv"
	"github.com/aberhamm/gpt-researcher/internal/strategy/browser"
	"github.com/aberhamm/gpt-researcher/internal/strategy/headless"
	"github.com/aberhamm/gpt-researcher/internal/strategy/localhtml"
	"github.com/aberhamm/gpt-researcher/internal/strategy/pdfdoc"
	"github.com/aberhamm/gpt-researcher/internal/strategy/remote"
	"github.com/aberhamm/gpt-researcher/internal/strategy/webloader"
)

func main() {
	cfgPath := flag.String("config", "", "Path to config file")
	query := flag.String("query", "", "Research query recorded on the job")
	urlList := flag.String("urls", "", "Comma-separated URLs to scrape")
	strategyOverride := flag.String("strategy", "", "Force one strategy key for every URL")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()
	zap.ReplaceGlobals(logger)

	metrics.Init()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	targets := parseTargets(*urlList, flag.Args())
	if len(targets) == 0 {
		logger.Fatal("no urls given; pass -urls or positional arguments")
	}

	var sink scrape.Sink
	if cfg.DB.DSN != "" {
		pg, err := database.NewPostgres(ctx, database.PostgresConfig{
			DSN:      cfg.DB.DSN,
			MaxConns: int32(cfg.DB.MaxConns),
			MinConns: int32(cfg.DB.MinConns),
		})
		if err != nil {
			logger.Fatal("postgres sink init failed", zap.Error(err))
		}
		defer pg.Close()
		sink = pg
	}

	registry, cleanup, err := buildRegistry(cfg, logger)
	if err != nil {
		logger.Fatal("strategy registry init failed", zap.Error(err))
	}
	defer cleanup()

	jobID := ""
	if sink != nil {
		jobID, err = sink.CreateJob(ctx, *query, scrape.JobMeta{})
		if err != nil {
			logger.Fatal("create job failed", zap.Error(err))
		}
		logger.Info("job created", zap.String("job_id", jobID))
	}

	orch := scrape.NewOrchestrator(registry, sink, scrape.Config{
		Concurrency:      cfg.Scraper.Concurrency,
		MinContentLength: cfg.Scraper.MinContentLength,
		JobID:            jobID,
	}, logger.Named("scrape"))
	defer orch.Close()

	srv := startDiagnostics(cfg, sink, logger, stop)

	outcomes, runErr := orch.Run(ctx, applyOverride(targets, *strategyOverride))

	if sink != nil {
		finishJob(ctx, sink, jobID, outcomes, runErr, logger)
	}
	if runErr != nil {
		logger.Error("scrape run failed", zap.Error(runErr))
	} else {
		printOutcomes(outcomes)
	}

	if srv != nil {
		logger.Info("scrape finished; diagnostics server running until signal")
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown error", zap.Error(err))
		}
	}
	if runErr != nil {
		os.Exit(1)
	}
}

// buildRegistry constructs every available strategy. Remote adapters whose
// API key is absent are skipped rather than failing startup.
func buildRegistry(cfg config.Config, logger *zap.Logger) (*scrape.Registry, func(), error) {
	client := &http.Client{Timeout: cfg.HTTPTimeout()}
	closers := []func(){}
	cleanup := func() {
		for _, c := range closers {
			c()
		}
	}

	strategies := []scrape.Strategy{
		localhtml.New(client, cfg.Scraper.UserAgent),
		webloader.New(webloader.Config{UserAgent: cfg.Scraper.UserAgent, Timeout: cfg.HTTPTimeout()}),
		pdfdoc.New(client, cfg.Scraper.UserAgent),
		arxiv.New(client, ""),
	}

	chrome, err := browser.New(browser.Config{
		UserAgent:         cfg.Scraper.UserAgent,
		NavigationTimeout: cfg.NavTimeout(),
	})
	if err != nil {
		logging.ForStrategy(logger, string(scrape.KeyBrowser)).Warn("strategy init failed", zap.Error(err))
	} else {
		closers = append(closers, chrome.Close)
		strategies = append(strategies, chrome)
	}

	rodBrowser, err := headless.New(headless.Config{
		UserAgent:  cfg.Scraper.UserAgent,
		MaxPages:   cfg.Headless.MaxPages,
		NavTimeout: cfg.NavTimeout(),
	})
	if err != nil {
		logging.ForStrategy(logger, string(scrape.KeyHeadless)).Warn("strategy init failed", zap.Error(err))
	} else {
		closers = append(closers, func() { _ = rodBrowser.Close() })
		strategies = append(strategies, rodBrowser)
	}

	if cfg.Remote.ScraperAPIKey != "" {
		s, err := remote.NewScraperAPI(remote.ScraperAPIConfig{
			APIKey:      cfg.Remote.ScraperAPIKey,
			MaxAttempts: cfg.Remote.ScraperAPIAttempts,
			Client:      client,
		})
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		strategies = append(strategies, s)
	}
	if cfg.Remote.ScrapingBeeKey != "" {
		s, err := remote.NewScrapingBee(remote.ScrapingBeeConfig{
			APIKey:  cfg.Remote.ScrapingBeeKey,
			Retries: cfg.Remote.ScrapingBeeRetries,
			Client:  client,
		})
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		strategies = append(strategies, s)
	}
	if cfg.Remote.ZenRowsKey != "" {
		s, err := remote.NewZenRows(remote.ZenRowsConfig{
			APIKey: cfg.Remote.ZenRowsKey,
			Client: client,
		})
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		strategies = append(strategies, s)
	}

	registry, err := scrape.NewRegistry(scrape.StrategyKey(cfg.Scraper.DefaultStrategy), strategies...)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return registry, cleanup, nil
}

func startDiagnostics(cfg config.Config, sink scrape.Sink, logger *zap.Logger, stop func()) *http.Server {
	if !cfg.Server.Enabled {
		return nil
	}
	apiServer := api.NewServer(sink, logger.Named("api"))
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("diagnostics server started", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("diagnostics server error", zap.Error(err))
			stop()
		}
	}()
	return srv
}

func finishJob(ctx context.Context, sink scrape.Sink, jobID string, outcomes []scrape.Outcome, runErr error, logger *zap.Logger) {
	visited := make([]string, 0, len(outcomes))
	for _, o := range outcomes {
		if o.Status == scrape.StatusAccepted {
			visited = append(visited, o.URL)
		}
	}
	update := scrape.JobUpdate{Status: scrape.JobStatusCompleted, VisitedURLs: visited}
	if runErr != nil {
		update.Status = scrape.JobStatusFailed
		update.ErrorText = runErr.Error()
	}
	if _, err := sink.UpdateJob(ctx, jobID, update); err != nil {
		logger.Error("update job failed", zap.String("job_id", jobID), zap.Error(err))
	}
}

func printOutcomes(outcomes []scrape.Outcome) {
	type line struct {
		URL      string `json:"url"`
		Status   string `json:"status"`
		Strategy string `json:"scraper,omitempty"`
		Length   int    `json:"content_length"`
		Title    string `json:"title,omitempty"`
		Error    string `json:"error,omitempty"`
	}
	enc := json.NewEncoder(os.Stdout)
	for _, o := range outcomes {
		l := line{
			URL:      o.URL,
			Status:   string(o.Status),
			Strategy: string(o.Strategy),
			Length:   utf8.RuneCountInString(o.RawContent),
			Title:    o.Title,
		}
		if o.Err != nil {
			l.Error = o.Err.Error()
		}
		_ = enc.Encode(l)
	}
}

func parseTargets(urlList string, args []string) []scrape.Target {
	raw := []string{}
	for _, part := range strings.Split(urlList, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			raw = append(raw, trimmed)
		}
	}
	raw = append(raw, args...)

	targets := make([]scrape.Target, 0, len(raw))
	for _, u := range raw {
		targets = append(targets, scrape.Target{URL: u})
	}
	return targets
}

func applyOverride(targets []scrape.Target, override string) []scrape.Target {
	if override == "" {
		return targets
	}
	for i := range targets {
		targets[i].Override = scrape.StrategyKey(override)
	}
	return targets
}
