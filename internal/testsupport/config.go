package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"beatframe/internal/config"
)

// ConfigOption adjusts a test configuration after its directories are set.
type ConfigOption func(t testing.TB, base string, cfg *config.Config)

// NewConfig returns the default configuration rooted in a fresh temp
// directory: output, cache and logs live under it and the preview server binds
// an ephemeral port.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths = config.Paths{
		OutputDir: filepath.Join(base, "output"),
		CacheDir:  filepath.Join(base, "cache"),
		LogDir:    filepath.Join(base, "logs"),
	}
	cfg.Cache.Path = filepath.Join(cfg.Paths.CacheDir, "beats.db")
	cfg.Preview.Bind = "127.0.0.1:0"

	for _, opt := range opts {
		opt(t, base, &cfg)
	}
	return &cfg
}

// WithCacheDisabled turns the beat cache off.
func WithCacheDisabled() ConfigOption {
	return func(_ testing.TB, _ string, cfg *config.Config) {
		cfg.Cache.Enabled = false
	}
}

// WithDetection overrides the detector method and window size.
func WithDetection(method string, window int) ConfigOption {
	return func(_ testing.TB, _ string, cfg *config.Config) {
		cfg.Detection.Method = method
		cfg.Detection.WindowSize = window
	}
}

// WithStubbedBinaries points export.ffmpeg and export.ffprobe at executables
// that exit 0 without doing anything. Useful for dependency checks that only
// need the binaries to resolve.
func WithStubbedBinaries() ConfigOption {
	return func(t testing.TB, base string, cfg *config.Config) {
		t.Helper()
		binDir := filepath.Join(base, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			t.Fatalf("mkdir bin dir: %v", err)
		}
		stub := func(name string) string {
			target := filepath.Join(binDir, name)
			if err := os.WriteFile(target, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
				t.Fatalf("write stub %s: %v", name, err)
			}
			return target
		}
		cfg.Export.FFmpeg = stub("ffmpeg")
		cfg.Export.FFprobe = stub("ffprobe")
	}
}
