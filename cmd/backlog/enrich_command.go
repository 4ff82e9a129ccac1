package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"backlog/internal/catalog"
	"backlog/internal/config"
	"backlog/internal/duration"
	"backlog/internal/enrich"
)

type enrichFlags struct {
	input       string
	output      string
	overwrite   bool
	maxRecords  int
	concurrency int
	batchSize   int
	threshold   float64
}

func newEnrichCommand(ctx *commandContext) *cobra.Command {
	var flags enrichFlags

	cmd := &cobra.Command{
		Use:   "enrich",
		Short: "Fill missing genres, years, completion times and scores",
		Long: `Run one enrichment pass over the configured catalog.

Records that already have every field are left alone and cost nothing.
Results are cached, so an interrupted or partial run can simply be repeated.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := applyEnrichFlags(cmd, cfg, flags); err != nil {
				return err
			}

			logger, err := ctx.newLogger(cfg)
			if err != nil {
				return err
			}
			res, err := openEnrichResources(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer res.Close()

			summary, runErr := res.engine.Run(cmd.Context())
			res.recordRun(cmd.Context(), summary, runErr)

			if ctx.JSONMode() {
				if err := writeJSON(cmd, newSummaryView(summary, res.file)); err != nil {
					return err
				}
			} else {
				printSummary(cmd.OutOrStdout(), summary, res.file)
			}
			return runErr
		},
	}

	cmd.Flags().StringVarP(&flags.input, "input", "i", "", "Catalog to enrich (overrides paths.input)")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "Where to write the result (overrides paths.output)")
	cmd.Flags().BoolVar(&flags.overwrite, "overwrite", false, "Write results back into the input file")
	cmd.Flags().IntVar(&flags.maxRecords, "max-records", 0, "Process at most this many records (0 = all)")
	cmd.Flags().IntVar(&flags.concurrency, "concurrency", 0, "Concurrent duration lookups")
	cmd.Flags().IntVar(&flags.batchSize, "batch-size", 0, "Titles per genre classification request")
	cmd.Flags().Float64Var(&flags.threshold, "threshold", 0, "Minimum similarity for accepting a lookup result")
	return cmd
}

func applyEnrichFlags(cmd *cobra.Command, cfg *config.Config, flags enrichFlags) error {
	changed := cmd.Flags().Changed
	if changed("input") {
		path, err := config.ExpandPath(strings.TrimSpace(flags.input))
		if err != nil {
			return fmt.Errorf("resolve --input: %w", err)
		}
		cfg.Paths.Input = path
	}
	if changed("output") {
		path, err := config.ExpandPath(strings.TrimSpace(flags.output))
		if err != nil {
			return fmt.Errorf("resolve --output: %w", err)
		}
		cfg.Paths.Output = path
	}
	if changed("overwrite") {
		cfg.Enrichment.OverwriteInput = flags.overwrite
	}
	if changed("max-records") {
		cfg.Enrichment.MaxRecordsPerRun = flags.maxRecords
	}
	if changed("concurrency") {
		cfg.Enrichment.MaxConcurrentLookups = flags.concurrency
	}
	if changed("batch-size") {
		cfg.Enrichment.ClassificationBatchSize = flags.batchSize
	}
	if changed("threshold") {
		cfg.Lookup.SimilarityThreshold = flags.threshold
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	return cfg.ValidateForRun()
}

type summaryView struct {
	RunID          string         `json:"run_id"`
	State          string         `json:"state"`
	Input          string         `json:"input"`
	Output         string         `json:"output"`
	Loaded         int            `json:"loaded"`
	Duplicates     int            `json:"duplicates_removed"`
	Queued         int            `json:"queued"`
	Remaining      int            `json:"remaining"`
	GenreCacheHits int            `json:"genre_cache_hits"`
	GenresAccepted int            `json:"genres_accepted"`
	FailedBatches  int            `json:"failed_batches"`
	Lookups        map[string]int `json:"lookups"`
	Requests       int            `json:"requests"`
	InputTokens    int64          `json:"input_tokens"`
	OutputTokens   int64          `json:"output_tokens"`
	EstimatedCost  float64        `json:"estimated_cost_usd"`
	ElapsedSeconds float64        `json:"elapsed_seconds"`
}

func newSummaryView(summary enrich.Summary, file catalog.File) summaryView {
	lookups := make(map[string]int, len(summary.Lookups))
	for kind, count := range summary.Lookups {
		lookups[kind.String()] = count
	}
	return summaryView{
		RunID:          summary.RunID,
		State:          summary.State.String(),
		Input:          file.InputPath,
		Output:         outputTarget(file),
		Loaded:         summary.Loaded,
		Duplicates:     summary.Duplicates,
		Queued:         summary.Queued,
		Remaining:      summary.Remaining,
		GenreCacheHits: summary.Genres.CacheHits,
		GenresAccepted: summary.Genres.Accepted(),
		FailedBatches:  summary.Genres.Failed(),
		Lookups:        lookups,
		Requests:       summary.Cost.Requests,
		InputTokens:    summary.Cost.InputTokens,
		OutputTokens:   summary.Cost.OutputTokens,
		EstimatedCost:  summary.Cost.EstimatedCost,
		ElapsedSeconds: summary.Duration().Seconds(),
	}
}

func outputTarget(file catalog.File) string {
	if strings.TrimSpace(file.OutputPath) != "" {
		return file.OutputPath
	}
	return catalog.DefaultOutputPath(file.InputPath)
}

func printSummary(out io.Writer, summary enrich.Summary, file catalog.File) {
	colorize := shouldColorize(out)

	kind, message := statusOK, "catalog written to "+outputTarget(file)
	switch summary.State {
	case enrich.StateNoOp:
		kind, message = statusInfo, "nothing to enrich; output not written"
	case enrich.StateFatalLoadError:
		kind, message = statusError, "could not read "+file.InputPath
	case enrich.StateSaveError:
		kind, message = statusError, "could not write "+outputTarget(file)
	case enrich.StateCancelled:
		kind, message = statusWarn, "interrupted; partial results written"
	}
	fmt.Fprintln(out, renderStatusLine("Enrichment", kind, message, colorize))
	if summary.State == enrich.StateFatalLoadError {
		return
	}

	rows := [][]string{
		{"Records", strconv.Itoa(summary.Loaded - summary.Duplicates)},
		{"Duplicates removed", strconv.Itoa(summary.Duplicates)},
		{"Queued", strconv.Itoa(summary.Queued)},
		{"Still incomplete", strconv.Itoa(summary.Remaining)},
		{"Genres from cache", strconv.Itoa(summary.Genres.CacheHits)},
		{"Genres classified", strconv.Itoa(summary.Genres.Accepted())},
		{"Failed genre batches", strconv.Itoa(summary.Genres.Failed())},
		{"Lookups from cache", strconv.Itoa(summary.Lookups[duration.KindCacheHit])},
		{"Lookups matched", strconv.Itoa(summary.Lookups[duration.KindFound])},
		{"Lookups below threshold", strconv.Itoa(summary.Lookups[duration.KindLowSimilarity])},
		{"Lookups not found", strconv.Itoa(summary.Lookups[duration.KindNotFound])},
		{"Lookups failed", strconv.Itoa(summary.Lookups[duration.KindFailed])},
		{"Classification requests", strconv.Itoa(summary.Cost.Requests)},
		{"Tokens (in/out)", fmt.Sprintf("%d / %d", summary.Cost.InputTokens, summary.Cost.OutputTokens)},
		{"Estimated cost", fmt.Sprintf("$%.4f", summary.Cost.EstimatedCost)},
		{"Elapsed", summary.Duration().Round(100 * time.Millisecond).String()},
	}
	fmt.Fprintln(out, renderTable([]string{"Metric", "Value"}, rows, []columnAlignment{alignLeft, alignRight}))
}
