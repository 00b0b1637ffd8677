package config

const (
	defaultConfigPath          = "~/.config/beatframe/config.toml"
	defaultOutputDir           = "~/Videos/beatframe"
	defaultLogDir              = "~/.local/share/beatframe/logs"
	defaultCacheFileName       = "beats.db"
	defaultDetectionMethod     = "energy"
	defaultSampleRate          = 22050
	defaultWindowSize          = 1024
	defaultHistoryWindows      = 43
	defaultSensitivity         = 1.4
	defaultThreshold           = 0.02
	defaultMinIntervalMS       = 250
	defaultBeatsPerImage       = 1
	defaultMinSlideMS          = 250
	defaultFallbackIntervalMS  = 2000
	defaultFPS                 = 30
	defaultExportFormat        = "mp4"
	defaultExportWidth         = 1280
	defaultExportHeight        = 720
	defaultExportCRF           = 23
	defaultExportPreset        = "medium"
	defaultExportAudioBitrate  = "192k"
	defaultPreviewBind         = "127.0.0.1:7489"
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
	maxFPS                     = 120
	maxExportDimension         = 7680
	minDetectionSampleRate     = 8000
	maxDetectionSampleRate     = 96000
	maxDetectionHistoryWindows = 1024
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputDir: defaultOutputDir,
			CacheDir:  defaultCacheDir(),
			LogDir:    defaultLogDir,
		},
		Detection: Detection{
			Method:         defaultDetectionMethod,
			SampleRate:     defaultSampleRate,
			WindowSize:     defaultWindowSize,
			HistoryWindows: defaultHistoryWindows,
			Sensitivity:    defaultSensitivity,
			Threshold:      defaultThreshold,
			MinIntervalMS:  defaultMinIntervalMS,
		},
		Slideshow: Slideshow{
			BeatsPerImage:      defaultBeatsPerImage,
			MinSlideMS:         defaultMinSlideMS,
			FallbackIntervalMS: defaultFallbackIntervalMS,
			FPS:                defaultFPS,
		},
		Export: Export{
			Format:       defaultExportFormat,
			Width:        defaultExportWidth,
			Height:       defaultExportHeight,
			CRF:          defaultExportCRF,
			Preset:       defaultExportPreset,
			AudioBitrate: defaultExportAudioBitrate,
		},
		Preview: Preview{
			Bind: defaultPreviewBind,
		},
		Cache: Cache{
			Enabled: true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
