package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"backlog/internal/catalog"
	"backlog/internal/duration"
	"backlog/internal/logging"
)

type candidateView struct {
	Rank       int     `json:"rank"`
	Name       string  `json:"name"`
	GameID     string  `json:"game_id"`
	Year       int     `json:"year,omitempty"`
	Hours      string  `json:"time_to_beat"`
	Score      int     `json:"score,omitempty"`
	Similarity float64 `json:"similarity"`
	Accepted   bool    `json:"accepted"`
}

func newLookupCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "lookup <name>",
		Short: "Search the lookup service for one game",
		Long: `Search the lookup service for one game and print ranked candidates.

The first candidate is the one an enrichment run would pick; it is applied only
when its similarity reaches lookup.similarity_threshold. The cache is neither
read nor written.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.newLogger(cfg)
			if err != nil {
				return err
			}
			client, err := newDurationClient(cfg, nil, logger)
			if err != nil {
				return err
			}

			name := strings.Join(args, " ")
			candidates, err := client.Search(cmd.Context(), name)
			if err != nil {
				logging.WarnWithContext(logger, "lookup search failed", "lookup_command_failed", logging.Error(err))
				return err
			}
			if limit > 0 && len(candidates) > limit {
				candidates = candidates[:limit]
			}

			views := make([]candidateView, 0, len(candidates))
			for i, c := range candidates {
				hours := catalog.Unknown
				if c.HasDuration() {
					hours = catalog.FormatHours(c.MainHours)
				}
				views = append(views, candidateView{
					Rank:       i + 1,
					Name:       c.Name,
					GameID:     c.ExternalID,
					Year:       c.ReleaseYear,
					Hours:      hours,
					Score:      c.ReviewScore,
					Similarity: c.Similarity,
					Accepted:   i == 0 && client.Accepts(c.Similarity),
				})
			}
			if ctx.JSONMode() {
				return writeJSON(cmd, views)
			}

			out := cmd.OutOrStdout()
			if len(views) == 0 {
				fmt.Fprintf(out, "No results for %q\n", name)
				return nil
			}
			rows := make([][]string, 0, len(views))
			for _, v := range views {
				rows = append(rows, []string{
					strconv.Itoa(v.Rank),
					v.Name,
					v.GameID,
					orDash(v.Year),
					v.Hours,
					orDash(v.Score),
					fmt.Sprintf("%.3f", v.Similarity),
					yesNo(v.Accepted),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"#", "Name", "Game Id", "Year", "Hours", "Score", "Similarity", "Accepted"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight, alignLeft},
			))
			best := views[0]
			colorize := shouldColorize(out)
			if best.Accepted {
				fmt.Fprintln(out, renderStatusLine("Best match", statusOK, best.Name, colorize))
			} else {
				fmt.Fprintln(out, renderStatusLine("Best match", statusWarn,
					fmt.Sprintf("%.3f is below the %.2f threshold", best.Similarity, client.Threshold()), colorize))
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Number of candidates to show (0 = all)")
	return cmd
}
