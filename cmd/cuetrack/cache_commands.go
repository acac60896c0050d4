package main

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"cuetrack/internal/cache"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and manage cached caption documents",
	}

	cacheCmd.AddCommand(newCacheListCommand(ctx))
	cacheCmd.AddCommand(newCacheShowCommand(ctx))
	cacheCmd.AddCommand(newCacheDeleteCommand(ctx))
	cacheCmd.AddCommand(newCacheClearCommand(ctx))
	return cacheCmd
}

// withCache opens the cache for the duration of fn.
func withCache(ctx *commandContext, fn func(*cache.Store) error) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	store, err := cache.Open(cfg)
	if errors.Is(err, cache.ErrDisabled) {
		return errors.New("cue cache is disabled (set source.cache_enabled = true)")
	}
	if err != nil {
		return fmt.Errorf("open cue cache: %w", err)
	}
	defer store.Close()
	return fn(store)
}

func newCacheListCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List cached documents",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCache(ctx, func(store *cache.Store) error {
				entries, err := store.List(cmd.Context())
				if err != nil {
					return err
				}
				if asJSON {
					if entries == nil {
						entries = []cache.Entry{}
					}
					return writeJSON(cmd, entries)
				}
				out := cmd.OutOrStdout()
				if len(entries) == 0 {
					fmt.Fprintln(out, "Cache is empty")
					return nil
				}
				rows := make([][]string, 0, len(entries))
				for _, e := range entries {
					rows = append(rows, []string{
						e.URL,
						strconv.Itoa(e.CueCount),
						e.FetchedAt.Local().Format(time.DateTime),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"URL", "Cues", "Fetched"},
					rows,
					[]columnAlignment{alignLeft, alignRight, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

func newCacheShowCommand(ctx *commandContext) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "show <url>",
		Short: "Print the cues of a cached document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCache(ctx, func(store *cache.Store) error {
				doc, err := store.Get(cmd.Context(), args[0])
				if errors.Is(err, cache.ErrNotFound) {
					return fmt.Errorf("no cached document for %s", args[0])
				}
				if err != nil {
					return err
				}
				return writeCues(cmd, doc.Cues, format)
			})
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", formatTable, "Output format: table, json, yaml or vtt")
	return cmd
}

func newCacheDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <url>",
		Short: "Remove one cached document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCache(ctx, func(store *cache.Store) error {
				removed, err := store.Delete(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if !removed {
					fmt.Fprintf(out, "No cached document for %s\n", args[0])
					return nil
				}
				fmt.Fprintf(out, "Removed %s\n", args[0])
				return nil
			})
		},
	}
}

func newCacheClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached document",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCache(ctx, func(store *cache.Store) error {
				removed, err := store.Clear(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d cached document(s)\n", removed)
				return nil
			})
		},
	}
}
