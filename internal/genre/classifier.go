package genre

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"backlog/internal/catalog"
	"backlog/internal/logging"
	"backlog/internal/lookupcache"
	"backlog/internal/services"
	"backlog/internal/services/llm"
)

const defaultBatchSize = 20

// Completer issues JSON chat completions.
type Completer interface {
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (llm.Completion, error)
}

// Cache is the part of the lookup cache the classifier reads and writes.
type Cache interface {
	Get(name string) (lookupcache.Entry, bool)
	MergeMany(updates map[string]lookupcache.Entry) error
}

// UsageRecorder receives the token usage of each completion.
type UsageRecorder interface {
	Add(inputTokens, outputTokens int)
}

// BatchResult is the outcome of one classification request. Accepted and
// Rejected map the requested title to the label the model returned.
type BatchResult struct {
	Index    int
	Titles   int
	Accepted map[string]string
	Rejected map[string]string
	Missing  []string
	Err      error
}

// Report summarizes a Classify call.
type Report struct {
	CacheHits int
	Batches   []BatchResult
}

// Accepted returns the number of titles labelled by the model.
func (r Report) Accepted() int {
	total := 0
	for _, b := range r.Batches {
		total += len(b.Accepted)
	}
	return total
}

// Failed returns the number of batches that produced no usable response.
func (r Report) Failed() int {
	failed := 0
	for _, b := range r.Batches {
		if b.Err != nil {
			failed++
		}
	}
	return failed
}

// Classifier labels records missing a genre.
type Classifier struct {
	client    Completer
	cache     Cache
	usage     UsageRecorder
	labels    *Labels
	batchSize int
	logger    *slog.Logger
}

// Options configures a Classifier.
type Options struct {
	Allowed   []string
	BatchSize int
	Usage     UsageRecorder
	Logger    *slog.Logger
}

// NewClassifier constructs a classifier. A nil cache disables cache reads and
// writes.
func NewClassifier(client Completer, cache Cache, opts Options) (*Classifier, error) {
	if client == nil {
		return nil, errors.New("genre classifier: completion client required")
	}
	labels := NewLabels(opts.Allowed)
	if labels.Len() == 0 {
		return nil, errors.New("genre classifier: at least one allowed label required")
	}
	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &Classifier{
		client:    client,
		cache:     cache,
		usage:     opts.Usage,
		labels:    labels,
		batchSize: batchSize,
		logger:    logging.NewComponentLogger(opts.Logger, "genre"),
	}, nil
}

// Classify fills Genre on every record in records that still needs one. Only
// context cancellation is returned as an error; service failures are recorded
// per batch in the report.
func (c *Classifier) Classify(ctx context.Context, records []*catalog.Record) (Report, error) {
	logger := logging.WithContext(ctx, c.logger)
	var report Report

	// Records sharing a name share one prompt entry and one answer.
	groups := make(map[string][]*catalog.Record)
	var order []string
	for _, rec := range records {
		if rec == nil || !rec.NeedsGenre() {
			continue
		}
		if c.cache != nil {
			if entry, ok := c.cache.Get(rec.Name); ok && catalog.IsKnown(entry.Genre) {
				rec.Genre = entry.Genre
				report.CacheHits++
				continue
			}
		}
		key := catalog.NameKey(rec.Name)
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], rec)
	}

	if report.CacheHits > 0 {
		logger.Info("genres served from cache", logging.Int("count", report.CacheHits))
	}

	for start := 0; start < len(order); start += c.batchSize {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		end := min(start+c.batchSize, len(order))
		result := c.classifyBatch(ctx, logger, len(report.Batches)+1, order[start:end], groups)
		report.Batches = append(report.Batches, result)
		if result.Err != nil && ctx.Err() != nil {
			return report, ctx.Err()
		}
	}
	return report, nil
}

func (c *Classifier) classifyBatch(ctx context.Context, logger *slog.Logger, index int, keys []string, groups map[string][]*catalog.Record) BatchResult {
	result := BatchResult{
		Index:    index,
		Titles:   len(keys),
		Accepted: map[string]string{},
		Rejected: map[string]string{},
	}
	batchLogger := logger.With(logging.Int(logging.FieldBatch, index))

	items := make([]promptItem, 0, len(keys))
	for _, key := range keys {
		first := groups[key][0]
		item := promptItem{Title: first.Name}
		if catalog.IsKnown(first.Platform) {
			item.Platform = first.Platform
		}
		items = append(items, item)
	}

	userPrompt, err := buildUserPrompt(items)
	if err != nil {
		result.Err = err
		c.warnBatch(batchLogger, result)
		return result
	}

	completion, err := c.client.CompleteJSON(ctx, buildSystemPrompt(c.labels), userPrompt)
	c.recordUsage(completion, err == nil)
	if err != nil {
		result.Err = services.Wrap(completionMarker(err), "genre", "classify", fmt.Sprintf("batch %d", index), err)
		if ctx.Err() != nil {
			result.Err = ctx.Err()
			return result
		}
		c.warnBatch(batchLogger, result)
		return result
	}
	answers, err := parseResponse(completion.Content)
	if err != nil {
		result.Err = services.Wrap(services.ErrMalformedResponse, "genre", "classify", fmt.Sprintf("batch %d", index), err)
		c.warnBatch(batchLogger, result)
		return result
	}

	byKey := make(map[string]string, len(answers))
	for title, label := range answers {
		byKey[catalog.NameKey(title)] = label
	}

	updates := make(map[string]lookupcache.Entry, len(keys))
	for _, key := range keys {
		title := groups[key][0].Name
		label, answered := byKey[key]
		if !answered {
			result.Missing = append(result.Missing, title)
			continue
		}
		canonical, ok := c.labels.Canonical(label)
		if !ok {
			result.Rejected[title] = label
			batchLogger.Debug("genre label rejected",
				logging.Args(append(logging.DecisionAttrs("genre_label", "rejected", "label not in allowed set"),
					logging.String(logging.FieldGame, title),
					logging.String("label", label))...)...)
			continue
		}
		result.Accepted[title] = canonical
		for _, rec := range groups[key] {
			rec.Genre = canonical
		}
		updates[title] = lookupcache.Entry{Genre: canonical}
	}

	if c.cache != nil && len(updates) > 0 {
		if err := c.cache.MergeMany(updates); err != nil {
			logging.WarnWithContext(batchLogger, "failed to cache genre labels", "genre_cache_write_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check permissions on the cache file"),
				logging.String(logging.FieldImpact, "labels apply to this run but will be requested again next run"))
		}
	}

	batchLogger.Info("genre batch classified",
		logging.Int("titles", result.Titles),
		logging.Int("accepted", len(result.Accepted)),
		logging.Int("rejected", len(result.Rejected)),
		logging.Int("missing", len(result.Missing)),
		logging.Int("prompt_tokens", completion.Usage.PromptTokens),
		logging.Int("completion_tokens", completion.Usage.CompletionTokens))
	return result
}

func (c *Classifier) warnBatch(logger *slog.Logger, result BatchResult) {
	logging.WarnWithContext(logger, "genre batch failed", "genre_batch_failed",
		logging.Error(result.Err),
		logging.Int("titles", result.Titles),
		logging.String(logging.FieldErrorHint, services.Hint(result.Err)),
		logging.String(logging.FieldImpact, "titles in this batch keep Unknown genre and are retried next run"))
}

// recordUsage reports one request per answered attempt. A successful
// completion without per-attempt figures counts as a single request.
func (c *Classifier) recordUsage(completion llm.Completion, succeeded bool) {
	if c.usage == nil {
		return
	}
	attempts := completion.Attempts
	if len(attempts) == 0 && succeeded {
		attempts = []llm.Usage{completion.Usage}
	}
	for _, u := range attempts {
		c.usage.Add(u.PromptTokens, u.CompletionTokens)
	}
}

func completionMarker(err error) error {
	if code, ok := llm.StatusCode(err); ok {
		return services.StatusMarker(code)
	}
	return services.ErrTransient
}
