package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeDetection()
	c.normalizeSlideshow()
	c.normalizeExport()
	if err := c.normalizeCache(); err != nil {
		return err
	}
	c.normalizePreview()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		c.Paths.OutputDir = defaultOutputDir
	}
	if c.Paths.OutputDir, err = ExpandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.CacheDir) == "" {
		c.Paths.CacheDir = defaultCacheDir()
	}
	if c.Paths.CacheDir, err = ExpandPath(c.Paths.CacheDir); err != nil {
		return fmt.Errorf("paths.cache_dir: %w", err)
	}
	if c.Paths.LogDir, err = ExpandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeDetection() {
	c.Detection.Method = strings.ToLower(strings.TrimSpace(c.Detection.Method))
	if c.Detection.Method == "" {
		c.Detection.Method = defaultDetectionMethod
	}
	if c.Detection.SampleRate == 0 {
		c.Detection.SampleRate = defaultSampleRate
	}
	if c.Detection.WindowSize == 0 {
		c.Detection.WindowSize = defaultWindowSize
	}
	if c.Detection.HistoryWindows == 0 {
		c.Detection.HistoryWindows = defaultHistoryWindows
	}
	if c.Detection.Sensitivity == 0 {
		c.Detection.Sensitivity = defaultSensitivity
	}
}

func (c *Config) normalizeSlideshow() {
	if c.Slideshow.BeatsPerImage == 0 {
		c.Slideshow.BeatsPerImage = defaultBeatsPerImage
	}
	if c.Slideshow.FallbackIntervalMS == 0 {
		c.Slideshow.FallbackIntervalMS = defaultFallbackIntervalMS
	}
	if c.Slideshow.FPS == 0 {
		c.Slideshow.FPS = defaultFPS
	}
}

func (c *Config) normalizeExport() {
	c.Export.Format = strings.ToLower(strings.TrimSpace(c.Export.Format))
	if c.Export.Format == "" {
		c.Export.Format = defaultExportFormat
	}
	c.Export.Preset = strings.TrimSpace(c.Export.Preset)
	if c.Export.Preset == "" {
		c.Export.Preset = defaultExportPreset
	}
	c.Export.AudioBitrate = strings.TrimSpace(c.Export.AudioBitrate)
	if c.Export.AudioBitrate == "" {
		c.Export.AudioBitrate = defaultExportAudioBitrate
	}
	c.Export.FFmpeg = strings.TrimSpace(c.Export.FFmpeg)
	if c.Export.FFmpeg == "" {
		if value, ok := os.LookupEnv("BEATFRAME_FFMPEG"); ok {
			c.Export.FFmpeg = strings.TrimSpace(value)
		}
	}
	c.Export.FFprobe = strings.TrimSpace(c.Export.FFprobe)
	if c.Export.FFprobe == "" {
		if value, ok := os.LookupEnv("BEATFRAME_FFPROBE"); ok {
			c.Export.FFprobe = strings.TrimSpace(value)
		}
	}
}

func (c *Config) normalizeCache() error {
	var err error
	if strings.TrimSpace(c.Cache.Path) == "" {
		c.Cache.Path = filepath.Join(c.Paths.CacheDir, defaultCacheFileName)
	}
	if c.Cache.Path, err = ExpandPath(c.Cache.Path); err != nil {
		return fmt.Errorf("cache.path: %w", err)
	}
	return nil
}

func (c *Config) normalizePreview() {
	c.Preview.Bind = strings.TrimSpace(c.Preview.Bind)
	if c.Preview.Bind == "" {
		c.Preview.Bind = defaultPreviewBind
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
