package project

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"beatframe/internal/beatcache"
	"beatframe/internal/beats"
	"beatframe/internal/config"
	"beatframe/internal/images"
	"beatframe/internal/logging"
	"beatframe/internal/media/ffprobe"
	"beatframe/internal/media/pcm"
	"beatframe/internal/midibeats"
	"beatframe/internal/services"
	"beatframe/internal/slideshow"
)

// Inputs are the user's files and tuning for one session.
type Inputs struct {
	AudioPath  string
	ImagePaths []string
	// MIDIPath imports beats from a MIDI file instead of detecting them.
	MIDIPath string
	MIDI     midibeats.Options
	// Order lists 1-based image positions to move to the front.
	Order   []int
	Shuffle bool
	Seed    uint64

	Detection  beats.Options
	SampleRate int
	Offset     time.Duration
	Slideshow  slideshow.Options
	NoCache    bool
}

// InputsFromConfig seeds Inputs with the configured tuning.
func InputsFromConfig(cfg *config.Config) Inputs {
	return Inputs{
		Detection: beats.Options{
			Method:         cfg.Detection.Method,
			WindowSize:     cfg.Detection.WindowSize,
			HistoryWindows: cfg.Detection.HistoryWindows,
			Sensitivity:    cfg.Detection.Sensitivity,
			Threshold:      cfg.Detection.Threshold,
			MinInterval:    cfg.Detection.MinInterval(),
		},
		SampleRate: cfg.Detection.SampleRate,
		Offset:     cfg.Detection.Offset(),
		Slideshow: slideshow.Options{
			BeatsPerImage:    cfg.Slideshow.BeatsPerImage,
			MinSlide:         cfg.Slideshow.MinSlide(),
			FallbackInterval: cfg.Slideshow.FallbackInterval(),
			FPS:              cfg.Slideshow.FPS,
		},
		MIDI: midibeats.Options{Channel: -1, Note: -1, MinVelocity: 1, MinInterval: cfg.Detection.MinInterval()},
	}
}

// Session is one assembled slideshow.
type Session struct {
	ID        string
	Title     string
	AudioPath string
	Probe     ffprobe.Result
	Images    []images.Image
	Timeline  beats.Timeline
	Plan      slideshow.Plan
	CacheHit  bool
	CreatedAt time.Time
}

// Analysis is the outcome of obtaining a beat timeline for one track.
type Analysis struct {
	Timeline beats.Timeline
	Probe    ffprobe.Result
	CacheHit bool
}

type (
	probeFunc  func(ctx context.Context, binary, path string) (ffprobe.Result, error)
	decodeFunc func(ctx context.Context, path string, opts pcm.DecodeOptions) (pcm.Buffer, error)
)

// Builder assembles sessions.
type Builder struct {
	ffmpeg  string
	ffprobe string
	cache   *beatcache.Cache
	logger  *slog.Logger

	probe  probeFunc
	decode decodeFunc
}

// Option configures a Builder.
type Option func(*Builder)

// WithCache enables the beat cache.
func WithCache(cache *beatcache.Cache) Option {
	return func(b *Builder) { b.cache = cache }
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Builder) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithBinaries overrides the ffmpeg and ffprobe executables.
func WithBinaries(ffmpegBin, ffprobeBin string) Option {
	return func(b *Builder) {
		if strings.TrimSpace(ffmpegBin) != "" {
			b.ffmpeg = ffmpegBin
		}
		if strings.TrimSpace(ffprobeBin) != "" {
			b.ffprobe = ffprobeBin
		}
	}
}

// NewBuilder constructs a Builder.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{
		ffmpeg:  "ffmpeg",
		ffprobe: "ffprobe",
		logger:  logging.NewNop(),
		probe:   ffprobe.Inspect,
		decode:  pcm.Decode,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.logger = logging.NewComponentLogger(b.logger, "project")
	return b
}

// Build runs the full pipeline for in.
func (b *Builder) Build(ctx context.Context, in Inputs) (*Session, error) {
	id := uuid.NewString()
	ctx = services.WithSessionID(ctx, id)
	logger := logging.WithContext(ctx, b.logger)

	list, err := b.collectImages(in)
	if err != nil {
		return nil, err
	}

	analysis, err := b.Timeline(ctx, in)
	if err != nil {
		return nil, err
	}
	timeline := analysis.Timeline.Shift(in.Offset)

	plan, err := slideshow.Build(timeline, len(list), in.Slideshow)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "plan", "build slideshow", "", err)
	}
	if plan.Source == beats.MethodGrid {
		logging.WarnWithContext(logger, "no beats detected; using fixed interval", "no_beats_detected",
			logging.Duration("interval", in.Slideshow.FallbackInterval),
			logging.String(logging.FieldErrorHint, "lower detection.sensitivity or detection.threshold"),
			logging.String(logging.FieldImpact, "images change on a fixed grid instead of the music"))
	}

	session := &Session{
		ID:        id,
		Title:     sessionTitle(analysis.Probe, in.AudioPath),
		AudioPath: in.AudioPath,
		Probe:     analysis.Probe,
		Images:    list,
		Timeline:  timeline,
		Plan:      plan,
		CacheHit:  analysis.CacheHit,
		CreatedAt: time.Now(),
	}
	logger.Info("session ready",
		logging.String("title", session.Title),
		logging.Int("images", len(list)),
		logging.Int("beats", len(timeline.Beats)),
		logging.Int("slides", len(plan.Slides)),
		logging.Float64("tempo_bpm", timeline.Tempo()),
		logging.Bool("cache_hit", analysis.CacheHit))
	return session, nil
}

func (b *Builder) collectImages(in Inputs) ([]images.Image, error) {
	list, err := images.Collect(in.ImagePaths)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "images", "collect", "", err)
	}
	if len(in.Order) > 0 {
		if list, err = images.Reorder(list, in.Order); err != nil {
			return nil, services.Wrap(services.ErrValidation, "images", "reorder", "", err)
		}
	}
	if in.Shuffle {
		list = images.Shuffle(list, in.Seed)
	}
	return list, nil
}

// Timeline returns the beat timeline for in, imported from in.MIDIPath when
// set and detected from the audio otherwise.
func (b *Builder) Timeline(ctx context.Context, in Inputs) (Analysis, error) {
	if strings.TrimSpace(in.MIDIPath) == "" {
		return b.Analyze(ctx, in)
	}
	probe, _, err := b.inspect(ctx, in.AudioPath)
	if err != nil {
		return Analysis{}, err
	}
	opts := in.MIDI
	opts.Duration = probe.DurationSeconds()
	timeline, err := midibeats.Load(in.MIDIPath, opts)
	if err != nil {
		return Analysis{}, services.Wrap(services.ErrValidation, "analyze", "load midi", "", err)
	}
	return Analysis{Timeline: timeline, Probe: probe}, nil
}

// Analyze returns the detected beat timeline for in.AudioPath, consulting the
// beat cache when one is configured.
func (b *Builder) Analyze(ctx context.Context, in Inputs) (Analysis, error) {
	ctx = services.WithStage(ctx, "analyze")
	logger := logging.WithContext(ctx, b.logger)

	probe, stream, err := b.inspect(ctx, in.AudioPath)
	if err != nil {
		return Analysis{}, err
	}

	var key string
	if b.cache != nil && !in.NoCache {
		key, err = beatcache.Key(in.AudioPath, in.Detection, in.SampleRate)
		if err != nil {
			return Analysis{}, services.Wrap(services.ErrNotFound, "analyze", "hash audio", in.AudioPath, err)
		}
		timeline, ok, lookupErr := b.cache.Lookup(ctx, key)
		if lookupErr != nil {
			logging.WarnWithContext(logger, "beat cache lookup failed", "beatcache_lookup_failed",
				logging.Error(lookupErr),
				logging.String(logging.FieldImpact, "beats are detected again"))
		} else if ok {
			timeline.Source = in.AudioPath
			return Analysis{Timeline: timeline, Probe: probe, CacheHit: true}, nil
		}
	}

	started := time.Now()
	buf, err := b.decode(ctx, in.AudioPath, pcm.DecodeOptions{Binary: b.ffmpeg, SampleRate: in.SampleRate, Stream: stream})
	if err != nil {
		if errors.Is(err, pcm.ErrNoAudio) {
			return Analysis{}, services.Wrap(services.ErrValidation, "analyze", "decode audio", in.AudioPath, err)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Analysis{}, ctxErr
		}
		return Analysis{}, services.Wrap(services.ErrExternalTool, "analyze", "decode audio", in.AudioPath, err)
	}
	timeline, err := beats.Detect(buf, in.Detection)
	if err != nil {
		return Analysis{}, services.Wrap(services.ErrConfiguration, "analyze", "detect beats", "", err)
	}
	timeline.Source = in.AudioPath
	logger.Info("beats detected",
		logging.String("method", timeline.Method),
		logging.Int("beats", len(timeline.Beats)),
		logging.Seconds("duration_seconds", timeline.Duration),
		logging.Duration("elapsed", time.Since(started)))

	if key != "" {
		if err := b.cache.Store(ctx, key, in.AudioPath, timeline); err != nil {
			logging.WarnWithContext(logger, "beat cache store failed", "beatcache_store_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "the next run detects beats again"))
		}
	}
	return Analysis{Timeline: timeline, Probe: probe}, nil
}

func (b *Builder) inspect(ctx context.Context, path string) (ffprobe.Result, int, error) {
	if strings.TrimSpace(path) == "" {
		return ffprobe.Result{}, 0, services.Wrap(services.ErrValidation, "analyze", "inspect audio", "audio path required", nil)
	}
	probe, err := b.probe(ctx, b.ffprobe, path)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ffprobe.Result{}, 0, ctxErr
		}
		return ffprobe.Result{}, 0, services.Wrap(services.ErrExternalTool, "analyze", "inspect audio", path, err)
	}
	_, ordinal, ok := probe.PrimaryAudio()
	if !ok {
		return ffprobe.Result{}, 0, services.Wrap(services.ErrValidation, "analyze", "inspect audio",
			fmt.Sprintf("%s has no audio stream", path), slideshow.ErrNoAudio)
	}
	if n := probe.AudioStreamCount(); n > 1 {
		b.logger.Debug("multiple audio streams; using primary", logging.Int("streams", n), logging.Int("ordinal", ordinal))
	}
	return probe, ordinal, nil
}

func sessionTitle(probe ffprobe.Result, audioPath string) string {
	if title := strings.TrimSpace(probe.Title()); title != "" {
		return title
	}
	return deriveTitle(audioPath)
}

func deriveTitle(sourcePath string) string {
	if sourcePath == "" {
		return "Untitled Slideshow"
	}
	base := filepath.Base(sourcePath)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	cleaned := strings.Builder{}
	prevSpace := false
	for _, r := range base {
		switch {
		case unicode.IsLetter(r) || unicode.IsNumber(r):
			cleaned.WriteRune(r)
			prevSpace = false
		case unicode.IsSpace(r) || r == '-' || r == '_' || r == '.':
			if !prevSpace {
				cleaned.WriteRune(' ')
				prevSpace = true
			}
		}
	}
	title := strings.TrimSpace(cleaned.String())
	if title == "" {
		return "Untitled Slideshow"
	}
	return cases.Title(language.Und).String(title)
}
