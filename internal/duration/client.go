package duration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"golang.org/x/sync/singleflight"

	"backlog/internal/catalog"
	"backlog/internal/logging"
	"backlog/internal/lookupcache"
	"backlog/internal/services"
	"backlog/internal/services/hltb"
)

// DefaultThreshold is the minimum similarity for accepting a candidate.
const DefaultThreshold = 0.85

// Cache is the part of the lookup cache the client reads and writes.
type Cache interface {
	Get(name string) (lookupcache.Entry, bool)
	Merge(name string, update lookupcache.Entry) error
}

// Options configures a Client.
type Options struct {
	// Threshold overrides DefaultThreshold when non-nil. Zero accepts every
	// candidate.
	Threshold         *float64
	ExcludedPlatforms []string
	Logger            *slog.Logger
}

// Client resolves lookup fields for catalog records. It is safe for
// concurrent use as long as each call owns its record.
type Client struct {
	searcher  hltb.Searcher
	cache     Cache
	threshold float64
	excluded  []string
	inflight  singleflight.Group
	logger    *slog.Logger
}

// NewClient constructs a lookup client. A nil cache disables caching.
func NewClient(searcher hltb.Searcher, cache Cache, opts Options) (*Client, error) {
	if searcher == nil {
		return nil, errors.New("duration client: searcher required")
	}
	threshold := DefaultThreshold
	if opts.Threshold != nil {
		threshold = *opts.Threshold
	}
	if threshold < 0 || threshold > 1 {
		return nil, fmt.Errorf("duration client: threshold %.2f out of range", threshold)
	}
	excluded := make([]string, 0, len(opts.ExcludedPlatforms))
	for _, platform := range opts.ExcludedPlatforms {
		if platform = strings.ToLower(strings.TrimSpace(platform)); platform != "" {
			excluded = append(excluded, platform)
		}
	}
	return &Client{
		searcher:  searcher,
		cache:     cache,
		threshold: threshold,
		excluded:  excluded,
		logger:    logging.NewComponentLogger(opts.Logger, "duration"),
	}, nil
}

// Threshold returns the acceptance threshold in use.
func (c *Client) Threshold() float64 {
	return c.threshold
}

// Accepts reports whether similarity reaches the threshold.
func (c *Client) Accepts(similarity float64) bool {
	return similarity >= c.threshold
}

// Excluded reports whether platform matches an excluded platform pattern.
func (c *Client) Excluded(platform string) bool {
	platform = strings.ToLower(platform)
	for _, pattern := range c.excluded {
		if strings.Contains(platform, pattern) {
			return true
		}
	}
	return false
}

// Search returns the service candidates for name ranked by similarity.
func (c *Client) Search(ctx context.Context, name string) ([]hltb.Candidate, error) {
	candidates, err := c.search(ctx, name)
	if err != nil {
		return nil, err
	}
	return Rank(candidates), nil
}

// Resolve fills the unknown lookup fields of rec. Service failures are
// reported in the outcome and logged, never returned.
func (c *Client) Resolve(ctx context.Context, rec *catalog.Record) Outcome {
	logger := logging.WithContext(ctx, c.logger).With(
		logging.String(logging.FieldGame, rec.Name),
		logging.String(logging.FieldPlatform, rec.Platform),
	)

	if c.Excluded(rec.Platform) {
		return c.decide(logger, Outcome{Kind: KindSkipped, Reason: "platform excluded"})
	}
	if !rec.NeedsLookup() {
		return c.decide(logger, Outcome{Kind: KindSkipped, Reason: "fields already known"})
	}

	if c.cache != nil {
		if entry, ok := c.cache.Get(rec.Name); ok && entry.HasMatch() {
			fill(rec, entry)
			return c.decide(logger, Outcome{Kind: KindCacheHit, Reason: "cached match"})
		}
	}

	candidates, err := c.search(ctx, rec.Name)
	if err != nil {
		if ctx.Err() != nil {
			return Outcome{Kind: KindFailed, Reason: "cancelled", Err: ctx.Err()}
		}
		logging.WarnWithContext(logger, "duration lookup failed", "duration_lookup_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, services.Hint(err)),
			logging.String(logging.FieldImpact, "lookup fields stay Unknown; retried on next run"))
		return Outcome{Kind: KindFailed, Reason: "search failed", Err: err}
	}

	best, ok := SelectBest(candidates)
	if !ok {
		return c.decide(logger, Outcome{Kind: KindNotFound, Reason: "no candidates"})
	}
	if !c.Accepts(best.Similarity) {
		return c.decide(logger, Outcome{
			Kind:      KindLowSimilarity,
			Reason:    fmt.Sprintf("best %q scored %.2f below %.2f", best.Name, best.Similarity, c.threshold),
			Candidate: &best,
		})
	}

	entry := entryFromCandidate(best)
	fill(rec, entry)
	if c.cache != nil {
		if err := c.cache.Merge(rec.Name, entry); err != nil {
			logging.WarnWithContext(logger, "failed to cache lookup result", "duration_cache_write_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check permissions on the cache file"),
				logging.String(logging.FieldImpact, "match applies to this run but will be searched again next run"))
		}
	}
	return c.decide(logger, Outcome{
		Kind:      KindFound,
		Reason:    fmt.Sprintf("matched %q at %.2f", best.Name, best.Similarity),
		Candidate: &best,
	})
}

func (c *Client) search(ctx context.Context, name string) ([]hltb.Candidate, error) {
	key := catalog.NameKey(name)
	value, err, _ := c.inflight.Do(key, func() (any, error) {
		return c.searcher.Search(ctx, name)
	})
	if err != nil {
		return nil, err
	}
	candidates, _ := value.([]hltb.Candidate)
	return candidates, nil
}

func (c *Client) decide(logger *slog.Logger, outcome Outcome) Outcome {
	attrs := logging.DecisionAttrs("duration_match", outcome.Kind.String(), outcome.Reason)
	if outcome.Candidate != nil {
		attrs = append(attrs,
			logging.String("candidate", outcome.Candidate.Name),
			logging.Float64("similarity", outcome.Candidate.Similarity))
	}
	level := slog.LevelDebug
	switch outcome.Kind {
	case KindFound, KindNotFound, KindLowSimilarity:
		level = slog.LevelInfo
	}
	logger.Log(context.Background(), level, "duration lookup decision", logging.Args(attrs...)...)
	return outcome
}

func entryFromCandidate(candidate hltb.Candidate) lookupcache.Entry {
	entry := lookupcache.Entry{
		ExternalID:    catalog.NormalizeInteger(candidate.ExternalID),
		Year:          catalog.Unknown,
		DurationHours: catalog.Unknown,
		Score:         catalog.Unknown,
	}
	if candidate.ReleaseYear > 0 {
		entry.Year = strconv.Itoa(candidate.ReleaseYear)
	}
	if candidate.HasDuration() {
		entry.DurationHours = catalog.FormatHours(candidate.MainHours)
	}
	if candidate.ReviewScore > 0 {
		entry.Score = strconv.Itoa(candidate.ReviewScore)
	}
	return entry
}

// fill copies known entry fields into the record's unknown lookup fields.
func fill(rec *catalog.Record, entry lookupcache.Entry) {
	if !catalog.IsKnown(rec.Year) && catalog.IsKnown(entry.Year) {
		rec.Year = entry.Year
	}
	if !catalog.IsKnown(rec.ExternalID) && catalog.IsKnown(entry.ExternalID) {
		rec.ExternalID = entry.ExternalID
	}
	if !catalog.IsKnown(rec.DurationHours) && catalog.IsKnown(entry.DurationHours) {
		rec.DurationHours = entry.DurationHours
	}
	if !catalog.IsKnown(rec.Score) && catalog.IsKnown(entry.Score) {
		rec.Score = entry.Score
	}
}
