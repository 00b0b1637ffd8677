package preflight

import (
	"context"
	"strings"

	"beatframe/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
// The beat cache check only runs when the cache is enabled.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	results = append(results, CheckDirectoryAccess("Cache directory", cfg.Paths.CacheDir))
	if strings.TrimSpace(cfg.Paths.LogDir) != "" {
		results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	}

	// Output directory is created on first export.
	results = append(results, CheckCreatableDirectory("Output directory", cfg.Paths.OutputDir))

	if cfg.Cache.Enabled {
		results = append(results, CheckBeatCache(ctx, cfg.Cache.Path))
	}

	results = append(results, CheckExportEncoders(ctx, cfg))

	return results
}

// Failed reports whether any result did not pass.
func Failed(results []Result) bool {
	for _, r := range results {
		if !r.Passed {
			return true
		}
	}
	return false
}
