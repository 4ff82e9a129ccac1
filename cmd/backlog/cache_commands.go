package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"backlog/internal/catalog"
	"backlog/internal/lookupcache"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and manage the lookup cache",
		Long: `Inspect and manage the lookup cache.

The lookup cache stores genres and lookup matches per game name so repeated
runs skip the classification and lookup services.

Commands:
  list     - List all cached games
  show     - Show the cached fields for one game
  remove   - Remove an entry by name or by number (see 'list' for numbers)
  clear    - Remove all cached entries`,
	}

	cacheCmd.AddCommand(newCacheListCommand(ctx))
	cacheCmd.AddCommand(newCacheShowCommand(ctx))
	cacheCmd.AddCommand(newCacheRemoveCommand(ctx))
	cacheCmd.AddCommand(newCacheClearCommand(ctx))

	return cacheCmd
}

type cacheItemView struct {
	Name  string            `json:"name"`
	Entry lookupcache.Entry `json:"entry"`
}

func newCacheListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all cached games",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openCache()
			if err != nil {
				return err
			}
			defer store.Close()

			items := store.List()
			if ctx.JSONMode() {
				views := make([]cacheItemView, 0, len(items))
				for _, item := range items {
					views = append(views, cacheItemView{Name: item.Name, Entry: item.Entry})
				}
				return writeJSON(cmd, views)
			}

			out := cmd.OutOrStdout()
			if len(items) == 0 {
				fmt.Fprintln(out, "Lookup cache: empty")
				return nil
			}
			fmt.Fprintf(out, "Lookup cache: %d entries (%s)\n", len(items), store.Path())

			rows := make([][]string, 0, len(items))
			for i, item := range items {
				rows = append(rows, []string{
					strconv.Itoa(i + 1),
					item.Name,
					cacheValue(item.Entry.Genre),
					cacheValue(item.Entry.Year),
					cacheValue(item.Entry.ExternalID),
					cacheValue(item.Entry.DurationHours),
					cacheValue(item.Entry.Score),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"#", "Game", catalog.ColumnGenre, catalog.ColumnYear, catalog.ColumnGameID, catalog.ColumnTimeToBeat, catalog.ColumnScore},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight},
			))
			return nil
		},
	}
}

func newCacheShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <name>",
		Short: "Show the cached fields for one game",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openCache()
			if err != nil {
				return err
			}
			defer store.Close()

			name := strings.Join(args, " ")
			entry, ok := store.Get(name)
			if !ok {
				return fmt.Errorf("no cache entry for %q", name)
			}
			if ctx.JSONMode() {
				return writeJSON(cmd, cacheItemView{Name: catalog.NameKey(name), Entry: entry})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s\n", catalog.NameKey(name))
			for _, field := range []struct{ label, value string }{
				{catalog.ColumnGenre, entry.Genre},
				{catalog.ColumnYear, entry.Year},
				{catalog.ColumnGameID, entry.ExternalID},
				{catalog.ColumnTimeToBeat, entry.DurationHours},
				{catalog.ColumnScore, entry.Score},
			} {
				fmt.Fprintf(out, "  %-14s %s\n", field.label+":", cacheValue(field.value))
			}
			fmt.Fprintf(out, "  %-14s %s\n", "Lookup match:", yesNo(entry.HasMatch()))
			return nil
		},
	}
}

func newCacheRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <name|number>",
		Short: "Remove a cache entry",
		Long: `Remove a cache entry by game name or by its number from 'backlog cache list'.

The next enrichment run classifies and looks up that game again.

Example:
  backlog cache list           # Shows numbered list of cached games
  backlog cache remove 2       # Removes entry #2 from the list
  backlog cache remove Growl   # Removes the entry for "growl"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openCache()
			if err != nil {
				return err
			}
			defer store.Close()

			name, err := resolveCacheName(store, strings.Join(args, " "))
			if err != nil {
				return err
			}
			if err := store.Remove(name); err != nil {
				return err
			}

			if ctx.JSONMode() {
				return writeJSON(cmd, map[string]any{"removed": true, "name": name})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed cache entry %q\n", name)
			return nil
		},
	}
}

func newCacheClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all cache entries",
		Long:  "Delete every cached genre and lookup match. The cache is repopulated by the next enrichment run.",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openCache()
			if err != nil {
				return err
			}
			defer store.Close()

			count := store.Count()
			if count == 0 {
				if ctx.JSONMode() {
					return writeJSON(cmd, map[string]any{"removed": 0})
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Lookup cache is already empty")
				return nil
			}

			if err := store.Clear(); err != nil {
				return fmt.Errorf("clear cache: %w", err)
			}

			if ctx.JSONMode() {
				return writeJSON(cmd, map[string]any{"removed": count})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d cache entries\n", count)
			return nil
		},
	}
}

// resolveCacheName maps a list number or a game name onto a cache key.
func resolveCacheName(store *lookupcache.Store, arg string) (string, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return "", errors.New("cache entry name or number is required")
	}
	if number, err := strconv.Atoi(arg); err == nil {
		items := store.List()
		if number >= 1 && number <= len(items) {
			return items[number-1].Name, nil
		}
		if _, ok := store.Get(arg); !ok {
			return "", fmt.Errorf("cache entry %d out of range (only %d entries exist)", number, len(items))
		}
	}
	if _, ok := store.Get(arg); !ok {
		return "", fmt.Errorf("no cache entry for %q", arg)
	}
	return catalog.NameKey(arg), nil
}

func cacheValue(value string) string {
	if !catalog.IsKnown(value) {
		return "-"
	}
	return value
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
