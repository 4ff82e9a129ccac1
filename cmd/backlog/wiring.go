package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"backlog/internal/catalog"
	"backlog/internal/config"
	"backlog/internal/cost"
	"backlog/internal/duration"
	"backlog/internal/enrich"
	"backlog/internal/genre"
	"backlog/internal/history"
	"backlog/internal/logging"
	"backlog/internal/lookupcache"
	"backlog/internal/services/hltb"
	"backlog/internal/services/llm"
)

// enrichResources holds everything one enrichment run needs. history is nil
// when the ledger could not be opened.
type enrichResources struct {
	engine  *enrich.Engine
	cache   *lookupcache.Store
	history *history.Store
	file    catalog.File
	logger  *slog.Logger
}

func newLLMClient(cfg *config.Config, opts ...llm.Option) *llm.Client {
	llmCfg := cfg.GetLLM()
	return llm.NewClient(llm.Config{
		APIKey:         llmCfg.APIKey,
		BaseURL:        llmCfg.BaseURL,
		Model:          llmCfg.Model,
		Referer:        llmCfg.Referer,
		Title:          llmCfg.Title,
		TimeoutSeconds: llmCfg.TimeoutSeconds,
	}, opts...)
}

func openEnrichResources(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*enrichResources, error) {
	cache, err := lookupcache.Open(cfg.Paths.Cache, logger)
	if err != nil {
		if errors.Is(err, lookupcache.ErrLocked) {
			return nil, fmt.Errorf("%w (%s)", err, cfg.Paths.Cache)
		}
		return nil, fmt.Errorf("open lookup cache: %w", err)
	}

	usage := cost.NewAccountant()
	classifier, err := genre.NewClassifier(newLLMClient(cfg), cache, genre.Options{
		Allowed:   cfg.Genres.Allowed,
		BatchSize: cfg.Enrichment.ClassificationBatchSize,
		Usage:     usage,
		Logger:    logger,
	})
	if err != nil {
		_ = cache.Close()
		return nil, err
	}

	lookup, err := newDurationClient(cfg, cache, logger)
	if err != nil {
		_ = cache.Close()
		return nil, err
	}

	file := catalog.File{
		InputPath:  cfg.Paths.Input,
		OutputPath: cfg.OutputPath(),
		Backup:     cfg.Enrichment.BackupInput,
	}
	engine, err := enrich.NewEngine(enrich.Deps{
		Source:     file,
		Sink:       file,
		Classifier: classifier,
		Lookup:     lookup,
		Cache:      cache,
		Usage:      usage,
		Pricing:    cost.PricingFromConfig(cfg.Pricing),
		Logger:     logger,
	}, enrich.Options{
		MaxRecordsPerRun:     cfg.Enrichment.MaxRecordsPerRun,
		MaxConcurrentLookups: cfg.Enrichment.MaxConcurrentLookups,
	})
	if err != nil {
		_ = cache.Close()
		return nil, err
	}

	res := &enrichResources{engine: engine, cache: cache, file: file, logger: logger}
	if cfg.Paths.HistoryDB != "" {
		store, err := history.Open(ctx, cfg.Paths.HistoryDB)
		if err != nil {
			logging.WarnWithContext(logger, "run history unavailable", "history_open_failed",
				logging.Error(err),
				logging.String("path", cfg.Paths.HistoryDB),
				logging.String(logging.FieldErrorHint, "check paths.history_db"),
				logging.String(logging.FieldImpact, "this run will not appear in 'backlog history'"))
		} else {
			res.history = store
		}
	}
	return res, nil
}

func newDurationClient(cfg *config.Config, cache duration.Cache, logger *slog.Logger) (*duration.Client, error) {
	searcher, err := hltb.New(cfg.Lookup.BaseURL, cfg.Lookup.UserAgent, hltb.WithTimeout(cfg.LookupTimeout()))
	if err != nil {
		return nil, err
	}
	return duration.NewClient(searcher, cache, duration.Options{
		Threshold:         &cfg.Lookup.SimilarityThreshold,
		ExcludedPlatforms: cfg.Lookup.ExcludedPlatforms,
		Logger:            logger,
	})
}

func (r *enrichResources) recordRun(ctx context.Context, summary enrich.Summary, runErr error) {
	if r.history == nil {
		return
	}
	run := history.Run{
		RunID:          summary.RunID,
		StartedAt:      summary.StartedAt,
		FinishedAt:     summary.FinishedAt,
		State:          summary.State.String(),
		InputPath:      r.file.InputPath,
		OutputPath:     r.file.OutputPath,
		Loaded:         summary.Loaded,
		Duplicates:     summary.Duplicates,
		Queued:         summary.Queued,
		Remaining:      summary.Remaining,
		GenresAccepted: summary.Genres.Accepted(),
		LookupsFound:   summary.Lookups[duration.KindFound] + summary.Lookups[duration.KindCacheHit],
		Requests:       summary.Cost.Requests,
		InputTokens:    summary.Cost.InputTokens,
		OutputTokens:   summary.Cost.OutputTokens,
		EstimatedCost:  summary.Cost.EstimatedCost,
	}
	if runErr != nil {
		run.ErrorMessage = runErr.Error()
	}
	if err := r.history.Record(context.WithoutCancel(ctx), run); err != nil {
		logging.WarnWithContext(r.logger, "failed to record run history", "history_write_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check paths.history_db"),
			logging.String(logging.FieldImpact, "this run will not appear in 'backlog history'"))
	}
}

func (r *enrichResources) Close() {
	if r.history != nil {
		_ = r.history.Close()
	}
	if r.cache != nil {
		_ = r.cache.Close()
	}
}
