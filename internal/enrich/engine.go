package enrich

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"backlog/internal/catalog"
	"backlog/internal/cost"
	"backlog/internal/duration"
	"backlog/internal/genre"
	"backlog/internal/logging"
)

const defaultMaxConcurrentLookups = 5

// Source loads the catalog to enrich.
type Source interface {
	Load(ctx context.Context) ([]catalog.Record, error)
}

// Sink persists the enriched catalog.
type Sink interface {
	Save(ctx context.Context, records []catalog.Record) error
}

// Classifier fills missing genres.
type Classifier interface {
	Classify(ctx context.Context, records []*catalog.Record) (genre.Report, error)
}

// Resolver fills missing lookup fields for a single record.
type Resolver interface {
	Resolve(ctx context.Context, rec *catalog.Record) duration.Outcome
}

// Flusher persists buffered cache state.
type Flusher interface {
	Flush() error
}

// Deps carries the collaborators of an Engine. Classifier, Lookup and Cache
// are optional; a nil value skips that phase.
type Deps struct {
	Source     Source
	Sink       Sink
	Classifier Classifier
	Lookup     Resolver
	Cache      Flusher
	Usage      *cost.Accountant
	Pricing    cost.Pricing
	Logger     *slog.Logger
}

// Options bounds the work done by one run.
type Options struct {
	// MaxRecordsPerRun caps the queue; zero means unbounded.
	MaxRecordsPerRun     int
	MaxConcurrentLookups int
}

// Summary describes a finished run.
type Summary struct {
	RunID      string
	State      State
	StartedAt  time.Time
	FinishedAt time.Time
	Loaded     int
	Duplicates int
	Queued     int
	Remaining  int
	Genres     genre.Report
	Lookups    duration.Tally
	Cost       cost.Summary
}

// Duration returns the wall time of the run.
func (s Summary) Duration() time.Duration {
	if s.FinishedAt.IsZero() {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}

// Engine orchestrates enrichment runs.
type Engine struct {
	deps   Deps
	opts   Options
	logger *slog.Logger
}

// NewEngine validates deps and returns an engine.
func NewEngine(deps Deps, opts Options) (*Engine, error) {
	if deps.Source == nil {
		return nil, errors.New("enrich: source required")
	}
	if deps.Sink == nil {
		return nil, errors.New("enrich: sink required")
	}
	if opts.MaxRecordsPerRun < 0 {
		return nil, fmt.Errorf("enrich: max records per run must be >= 0 (got %d)", opts.MaxRecordsPerRun)
	}
	if opts.MaxConcurrentLookups <= 0 {
		opts.MaxConcurrentLookups = defaultMaxConcurrentLookups
	}
	if deps.Usage == nil {
		deps.Usage = cost.NewAccountant()
	}
	return &Engine{
		deps:   deps,
		opts:   opts,
		logger: logging.NewComponentLogger(deps.Logger, "enrich"),
	}, nil
}

// Run executes one pass. The returned error wraps ErrFatalIO or ErrSave for
// the matching terminal states, or is the context error when the run was
// interrupted. Per-record and per-batch service failures never surface here.
func (e *Engine) Run(ctx context.Context) (Summary, error) {
	summary := Summary{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
		Lookups:   duration.Tally{},
	}
	ctx = logging.WithRunID(ctx, summary.RunID)
	logger := logging.WithContext(ctx, e.logger)

	finish := func(state State) Summary {
		summary.State = state
		summary.FinishedAt = time.Now()
		summary.Cost = e.deps.Usage.Summary(e.deps.Pricing)
		return summary
	}

	records, err := e.deps.Source.Load(ctx)
	if err != nil {
		logging.ErrorWithContext(logger, "failed to load catalog", "catalog_load_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check paths.input and the file header"))
		return finish(StateFatalLoadError), fmt.Errorf("%w: %w", ErrFatalIO, err)
	}
	summary.Loaded = len(records)

	records, summary.Duplicates = catalog.Deduplicate(records)
	if summary.Duplicates > 0 {
		logger.Info("removed duplicate records",
			logging.Int("removed", summary.Duplicates),
			logging.Int("kept", len(records)))
	}
	catalog.NormalizeAll(records)

	queue := selectQueue(records, e.opts.MaxRecordsPerRun)
	summary.Queued = len(queue)
	if len(queue) == 0 {
		logger.Info("catalog already complete; nothing to enrich", logging.Int("records", len(records)))
		return finish(StateNoOp), nil
	}
	logger.Info("enrichment queue built",
		logging.Int("records", len(records)),
		logging.Int("queued", len(queue)),
		logging.Int("limit", e.opts.MaxRecordsPerRun))

	queued := make([]*catalog.Record, len(queue))
	for i, idx := range queue {
		queued[i] = &records[idx]
	}

	runErr := e.classify(ctx, logger, queued, &summary)
	if runErr == nil {
		runErr = e.lookup(ctx, logger, queued, &summary)
	}

	if e.deps.Cache != nil {
		if err := e.deps.Cache.Flush(); err != nil {
			logging.WarnWithContext(logger, "failed to flush lookup cache", "cache_flush_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check permissions on the cache file"),
				logging.String(logging.FieldImpact, "results from this run may be looked up again"))
		}
	}

	for i := range records {
		if records[i].NeedsEnrichment() {
			summary.Remaining++
		}
	}

	// An interrupted run still writes what it has merged so far.
	if err := e.deps.Sink.Save(context.WithoutCancel(ctx), records); err != nil {
		logging.ErrorWithContext(logger, "failed to save enriched catalog", "catalog_save_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the output path; enriched values are in the cache"))
		return finish(StateSaveError), fmt.Errorf("%w: %w", ErrSave, err)
	}

	if runErr != nil {
		logger.Warn("enrichment interrupted; partial results saved",
			logging.Error(runErr),
			logging.String(logging.FieldEventType, "run_cancelled"),
			logging.String(logging.FieldErrorHint, "rerun to continue from the cache"),
			logging.String(logging.FieldImpact, "remaining records stay Unknown"))
		return finish(StateCancelled), runErr
	}

	result := finish(StateSuccess)
	logger.Info("enrichment complete",
		logging.Int("queued", result.Queued),
		logging.Int("remaining", result.Remaining),
		logging.Int("genre_cache_hits", result.Genres.CacheHits),
		logging.Int("genres_accepted", result.Genres.Accepted()),
		logging.Int("lookups_found", result.Lookups[duration.KindFound]),
		logging.Int("lookups_cached", result.Lookups[duration.KindCacheHit]),
		logging.Int("requests", result.Cost.Requests),
		logging.Float64("estimated_cost_usd", result.Cost.EstimatedCost),
		logging.Duration("elapsed", result.Duration()))
	return result, nil
}

func (e *Engine) classify(ctx context.Context, logger *slog.Logger, queued []*catalog.Record, summary *Summary) error {
	if e.deps.Classifier == nil {
		return ctx.Err()
	}
	report, err := e.deps.Classifier.Classify(ctx, queued)
	summary.Genres = report
	if err != nil {
		return err
	}
	if failed := report.Failed(); failed > 0 {
		logger.Info("genre classification finished with failed batches",
			logging.Int("failed_batches", failed),
			logging.Int("batches", len(report.Batches)))
	}
	return nil
}

func (e *Engine) lookup(ctx context.Context, logger *slog.Logger, queued []*catalog.Record, summary *Summary) error {
	if e.deps.Lookup == nil {
		return ctx.Err()
	}

	var (
		mu      sync.Mutex
		done    int
		sampler = logging.NewProgressSampler(10)
		total   = len(queued)
	)

	var g errgroup.Group
	g.SetLimit(e.opts.MaxConcurrentLookups)
	for _, rec := range queued {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			outcome := e.deps.Lookup.Resolve(ctx, rec)

			mu.Lock()
			defer mu.Unlock()
			summary.Lookups.Add(outcome)
			done++
			if sampler.ShouldLog(done, total) {
				logger.Info(fmt.Sprintf("processed %d/%d", done, total),
					logging.Int("done", done),
					logging.Int("total", total))
			}
			return nil
		})
	}
	_ = g.Wait()
	return ctx.Err()
}
