package preflight

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"

	"beatframe/internal/beatcache"
	"beatframe/internal/config"
	"beatframe/internal/deps"
	"beatframe/internal/logging"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckCreatableDirectory passes when path is an accessible directory or when
// its nearest existing ancestor allows creating it.
func CheckCreatableDirectory(name, path string) Result {
	if strings.TrimSpace(path) == "" {
		return Result{Name: name, Detail: "(error: not configured)"}
	}
	if _, err := os.Stat(path); err == nil {
		return CheckDirectoryAccess(name, path)
	}

	ancestor := filepath.Dir(path)
	for {
		info, err := os.Stat(ancestor)
		if err == nil {
			if !info.IsDir() {
				return Result{Name: name, Detail: fmt.Sprintf("%s (error: %s is not a directory)", path, ancestor)}
			}
			break
		}
		parent := filepath.Dir(ancestor)
		if parent == ancestor {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: no existing parent)", path)}
		}
		ancestor = parent
	}
	if err := unix.Access(ancestor, unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: cannot create under %s: %v)", path, ancestor, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (created on first export)", path)}
}

// CheckBeatCache opens the beat cache database and reports how many
// timelines it holds.
func CheckBeatCache(ctx context.Context, path string) Result {
	const name = "Beat cache"
	cache, err := beatcache.Open(path, logging.NewNop())
	if err != nil {
		detail := fmt.Sprintf("%s (error: %v)", path, err)
		if errors.Is(err, beatcache.ErrSchemaMismatch) {
			detail = fmt.Sprintf("%s (error: schema mismatch, run `beatframe cache clear --purge`)", path)
		}
		return Result{Name: name, Detail: detail}
	}
	defer cache.Close()

	entries, err := cache.List(ctx)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%d timelines)", path, len(entries))}
}

// CheckExportEncoders verifies the configured ffmpeg carries the encoders for
// the configured export format.
func CheckExportEncoders(ctx context.Context, cfg *config.Config) Result {
	name := fmt.Sprintf("Encoders (%s)", cfg.Export.Format)
	var wanted []deps.Encoder
	for _, enc := range deps.ExportEncoders {
		if enc.Format == cfg.Export.Format {
			wanted = append(wanted, enc)
		}
	}
	statuses, err := deps.CheckEncoders(ctx, cfg.FFmpegBinary(), wanted)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("error: %v", err)}
	}
	var missing, found []string
	for _, s := range statuses {
		if s.Available {
			found = append(found, s.Name)
		} else {
			missing = append(missing, s.Name)
		}
	}
	if len(missing) > 0 {
		return Result{Name: name, Detail: "missing " + strings.Join(missing, ", ")}
	}
	return Result{Name: name, Passed: true, Detail: strings.Join(found, ", ")}
}

// CheckSystemDeps evaluates the external binaries beatframe executes.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	return deps.CheckBinaries(deps.MediaTools(cfg.FFmpegBinary(), cfg.FFprobeBinary()))
}
