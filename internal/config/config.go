package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	OutputDir string `toml:"output_dir"`
	CacheDir  string `toml:"cache_dir"`
	LogDir    string `toml:"log_dir"`
}

// Detection contains beat detection tuning.
type Detection struct {
	// Method selects the detector: energy, amplitude, or spectral.
	Method         string  `toml:"method"`
	SampleRate     int     `toml:"sample_rate"`
	WindowSize     int     `toml:"window_size"`
	HistoryWindows int     `toml:"history_windows"`
	Sensitivity    float64 `toml:"sensitivity"`
	// Threshold is the absolute amplitude floor in [0, 1].
	Threshold     float64 `toml:"threshold"`
	MinIntervalMS int     `toml:"min_interval_ms"`
	// OffsetMS shifts every detected beat; negative values pull changes earlier.
	OffsetMS int `toml:"offset_ms"`
}

// Slideshow contains beat-to-image mapping settings.
type Slideshow struct {
	BeatsPerImage      int `toml:"beats_per_image"`
	MinSlideMS         int `toml:"min_slide_ms"`
	FallbackIntervalMS int `toml:"fallback_interval_ms"`
	FPS                int `toml:"fps"`
}

// Export contains video encoding settings.
type Export struct {
	Format       string `toml:"format"`
	Width        int    `toml:"width"`
	Height       int    `toml:"height"`
	CRF          int    `toml:"crf"`
	Preset       string `toml:"preset"`
	AudioBitrate string `toml:"audio_bitrate"`
	ArchiveAV1   bool   `toml:"archive_av1"`
	FFmpeg       string `toml:"ffmpeg"`
	FFprobe      string `toml:"ffprobe"`
}

// Preview contains the browser preview server settings.
type Preview struct {
	Bind string `toml:"bind"`
}

// Cache contains configuration for the beat analysis cache.
type Cache struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"` // Default: <cache_dir>/beats.db
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for beatframe.
//
// Configuration sections by subsystem:
//   - Paths: output, cache, and log directories
//   - Detection: beat detector method and thresholds
//   - Slideshow: beat grouping, minimum slide length, frame rate
//   - Export: container, resolution, encoder quality, tool binaries
//   - Preview: browser preview bind address
//   - Cache: beat analysis cache
//   - Logging: log format and level
type Config struct {
	Paths     Paths     `toml:"paths"`
	Detection Detection `toml:"detection"`
	Slideshow Slideshow `toml:"slideshow"`
	Export    Export    `toml:"export"`
	Preview   Preview   `toml:"preview"`
	Cache     Cache     `toml:"cache"`
	Logging   Logging   `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return ExpandPath(defaultConfigPath)
}

// Load reads the configuration from path, or when path is empty from the
// first of ~/.config/beatframe/config.toml and ./beatframe.toml that exists.
// Missing files yield defaults. It returns the config, the file it
// considered, and whether that file existed. Unknown keys are rejected.
func Load(path string) (*Config, string, bool, error) {
	resolved, exists, err := locate(path)
	if err != nil {
		return nil, "", false, err
	}

	cfg := Default()
	if exists {
		if err := decodeFile(resolved, &cfg); err != nil {
			return nil, "", false, err
		}
	}
	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolved, exists, nil
}

func decodeFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return fmt.Errorf("parse config %s: %s", path, strict.String())
		}
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// locate resolves an explicit path as given. Without one it walks the
// candidate list and falls back to the default location.
func locate(explicit string) (string, bool, error) {
	candidates := []string{explicit}
	if strings.TrimSpace(explicit) == "" {
		candidates = []string{defaultConfigPath, "beatframe.toml"}
	}
	var first string
	for _, candidate := range candidates {
		abs, err := ExpandPath(candidate)
		if err != nil {
			return "", false, err
		}
		if first == "" {
			first = abs
		}
		info, err := os.Stat(abs)
		switch {
		case err == nil && !info.IsDir():
			return abs, true, nil
		case err == nil, errors.Is(err, fs.ErrNotExist):
			continue
		case explicit != "":
			return "", false, fmt.Errorf("stat config: %w", err)
		}
	}
	return first, false, nil
}

// EnsureDirectories creates the cache and log directories. The output
// directory is created lazily by the exporter so read-only commands never
// touch it.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.CacheDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// FFmpegBinary returns the ffmpeg executable used for decoding and export.
func (c *Config) FFmpegBinary() string {
	if c == nil || strings.TrimSpace(c.Export.FFmpeg) == "" {
		return "ffmpeg"
	}
	return c.Export.FFmpeg
}

// FFprobeBinary returns the ffprobe executable used for media inspection.
func (c *Config) FFprobeBinary() string {
	if c == nil || strings.TrimSpace(c.Export.FFprobe) == "" {
		return "ffprobe"
	}
	return c.Export.FFprobe
}

// MinInterval returns the detection debounce as a duration.
func (d Detection) MinInterval() time.Duration {
	return time.Duration(d.MinIntervalMS) * time.Millisecond
}

// Offset returns the beat latency compensation as a duration.
func (d Detection) Offset() time.Duration {
	return time.Duration(d.OffsetMS) * time.Millisecond
}

// MinSlide returns the shortest permitted slide as a duration.
func (s Slideshow) MinSlide() time.Duration {
	return time.Duration(s.MinSlideMS) * time.Millisecond
}

// FallbackInterval returns the slide length used when no beats are found.
func (s Slideshow) FallbackInterval() time.Duration {
	return time.Duration(s.FallbackIntervalMS) * time.Millisecond
}

// ExpandPath resolves a leading ~ to the home directory and returns an
// absolute, cleaned path. Empty input stays empty.
func ExpandPath(p string) (string, error) {
	if p == "" {
		return "", nil
	}
	if p == "~" || strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		p = home + p[1:]
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", p, err)
	}
	return abs, nil
}

func defaultCacheDir() string {
	if base, ok := os.LookupEnv("XDG_CACHE_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "beatframe")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "~/.cache/beatframe"
	}
	return filepath.Join(home, ".cache", "beatframe")
}

// CreateSample writes the commented sample configuration to path, creating
// parent directories.
func CreateSample(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// Encode renders the effective configuration as TOML.
func (c *Config) Encode() ([]byte, error) {
	return toml.Marshal(c)
}
