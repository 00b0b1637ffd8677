package config

import (
	"errors"
	"fmt"
	"net"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateDetection(); err != nil {
		return err
	}
	if err := c.validateSlideshow(); err != nil {
		return err
	}
	if err := c.validateExport(); err != nil {
		return err
	}
	if err := c.validatePreview(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateDetection() error {
	d := c.Detection
	switch d.Method {
	case "energy", "amplitude", "spectral":
	default:
		return fmt.Errorf("detection.method must be one of energy, amplitude, spectral (got %q)", d.Method)
	}
	if d.SampleRate < minDetectionSampleRate || d.SampleRate > maxDetectionSampleRate {
		return fmt.Errorf("detection.sample_rate must be between %d and %d", minDetectionSampleRate, maxDetectionSampleRate)
	}
	if d.WindowSize < 64 || d.WindowSize&(d.WindowSize-1) != 0 {
		return errors.New("detection.window_size must be a power of two >= 64")
	}
	if d.HistoryWindows < 1 || d.HistoryWindows > maxDetectionHistoryWindows {
		return fmt.Errorf("detection.history_windows must be between 1 and %d", maxDetectionHistoryWindows)
	}
	if d.Sensitivity < 1 {
		return errors.New("detection.sensitivity must be >= 1")
	}
	if d.Threshold < 0 || d.Threshold > 1 {
		return errors.New("detection.threshold must be between 0 and 1")
	}
	if d.MinIntervalMS < 0 {
		return errors.New("detection.min_interval_ms must be >= 0")
	}
	return nil
}

func (c *Config) validateSlideshow() error {
	if err := ensurePositiveMap(map[string]int{
		"slideshow.beats_per_image":      c.Slideshow.BeatsPerImage,
		"slideshow.fallback_interval_ms": c.Slideshow.FallbackIntervalMS,
		"slideshow.fps":                  c.Slideshow.FPS,
	}); err != nil {
		return err
	}
	if c.Slideshow.MinSlideMS < 0 {
		return errors.New("slideshow.min_slide_ms must be >= 0")
	}
	if c.Slideshow.FPS > maxFPS {
		return fmt.Errorf("slideshow.fps must be <= %d", maxFPS)
	}
	return nil
}

func (c *Config) validateExport() error {
	switch c.Export.Format {
	case "mp4", "webm":
	default:
		return fmt.Errorf("export.format must be mp4 or webm (got %q)", c.Export.Format)
	}
	if err := ensurePositiveMap(map[string]int{
		"export.width":  c.Export.Width,
		"export.height": c.Export.Height,
	}); err != nil {
		return err
	}
	if c.Export.Width > maxExportDimension || c.Export.Height > maxExportDimension {
		return fmt.Errorf("export dimensions must be <= %d", maxExportDimension)
	}
	if c.Export.Width%2 != 0 || c.Export.Height%2 != 0 {
		return errors.New("export.width and export.height must be even")
	}
	if c.Export.CRF < 0 || c.Export.CRF > 63 {
		return errors.New("export.crf must be between 0 and 63")
	}
	return nil
}

func (c *Config) validatePreview() error {
	if _, _, err := net.SplitHostPort(c.Preview.Bind); err != nil {
		return fmt.Errorf("preview.bind: %w", err)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
