package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"beatframe/internal/beatcache"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and manage the beat analysis cache",
	}
	cacheCmd.AddCommand(newCacheListCommand(ctx))
	cacheCmd.AddCommand(newCacheClearCommand(ctx))
	return cacheCmd
}

// withCacheDB opens the cache database even when analysis caching is
// disabled so stale entries can still be listed and removed.
func withCacheDB(ctx *commandContext, fn func(*beatcache.Cache) error) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := ctx.ensureLogger()
	if err != nil {
		return err
	}
	cache, err := beatcache.Open(cfg.Cache.Path, logger)
	if err != nil {
		if errors.Is(err, beatcache.ErrSchemaMismatch) {
			return fmt.Errorf("%w; run `beatframe cache clear --purge` to rebuild it", err)
		}
		return fmt.Errorf("open beat cache: %w", err)
	}
	defer cache.Close()
	return fn(cache)
}

func newCacheListCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List cached beat timelines",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCacheDB(ctx, func(cache *beatcache.Cache) error {
				entries, err := cache.List(cmd.Context())
				if err != nil {
					return err
				}
				if jsonOut {
					if entries == nil {
						entries = []beatcache.Entry{}
					}
					return writeJSON(cmd, entries)
				}
				out := cmd.OutOrStdout()
				if len(entries) == 0 {
					fmt.Fprintf(out, "Beat cache is empty (%s)\n", cache.Path())
					return nil
				}
				fmt.Fprintln(out, cacheTable(entries))
				fmt.Fprintf(out, "%d cached timelines in %s\n", len(entries), cache.Path())
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print entries as JSON")
	return cmd
}

func newCacheClearCommand(ctx *commandContext) *cobra.Command {
	var purge bool
	cmd := &cobra.Command{
		Use:   "clear [KEY...]",
		Short: "Remove cached timelines (all of them when no key is given)",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if purge {
				cfg, err := ctx.ensureConfig()
				if err != nil {
					return err
				}
				removed := 0
				for _, suffix := range []string{"", "-wal", "-shm"} {
					err := os.Remove(cfg.Cache.Path + suffix)
					if err == nil {
						removed++
						continue
					}
					if !os.IsNotExist(err) {
						return fmt.Errorf("remove cache database: %w", err)
					}
				}
				if removed == 0 {
					fmt.Fprintf(out, "No cache database at %s\n", cfg.Cache.Path)
					return nil
				}
				fmt.Fprintf(out, "Deleted cache database %s\n", cfg.Cache.Path)
				return nil
			}

			return withCacheDB(ctx, func(cache *beatcache.Cache) error {
				if len(args) == 0 {
					n, err := cache.Clear(cmd.Context())
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "Removed %d cached timelines\n", n)
					return nil
				}
				entries, err := cache.List(cmd.Context())
				if err != nil {
					return err
				}
				for _, arg := range args {
					key, err := resolveCacheKey(entries, arg)
					if err != nil {
						return err
					}
					removed, err := cache.Remove(cmd.Context(), key)
					if err != nil {
						return err
					}
					if !removed {
						return fmt.Errorf("no cached timeline with key %q", key)
					}
					fmt.Fprintf(out, "Removed %s\n", shortKey(key))
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&purge, "purge", false, "Delete the cache database file instead of emptying it")
	return cmd
}

func cacheTable(entries []beatcache.Entry) string {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			shortKey(e.Key),
			e.AudioPath,
			e.Method,
			strconv.Itoa(e.Beats),
			formatTempo(e.Tempo),
			formatSeconds(e.Duration),
			humanize.Time(e.LastUsed),
		})
	}
	return renderTable(
		[]string{"Key", "Audio", "Method", "Beats", "Tempo", "Duration", "Last used"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft},
	)
}

// resolveCacheKey expands a key prefix, as printed by `cache list`, to the
// full key of exactly one entry.
func resolveCacheKey(entries []beatcache.Entry, prefix string) (string, error) {
	prefix = strings.ToLower(strings.TrimSpace(prefix))
	if prefix == "" {
		return "", errors.New("empty cache key")
	}
	var match string
	for _, e := range entries {
		if !strings.HasPrefix(e.Key, prefix) {
			continue
		}
		if match != "" {
			return "", fmt.Errorf("cache key %q is ambiguous", prefix)
		}
		match = e.Key
	}
	if match == "" {
		return "", fmt.Errorf("no cached timeline with key %q", prefix)
	}
	return match, nil
}

func shortKey(key string) string {
	if len(key) > 12 {
		return key[:12]
	}
	return key
}
