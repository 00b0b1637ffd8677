package slideshow

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"beatframe/internal/beats"
)

var (
	// ErrNoImages reports an empty image set.
	ErrNoImages = errors.New("no images to show")
	// ErrNoAudio reports a timeline without any playable duration.
	ErrNoAudio = errors.New("audio has no duration")
	// ErrInvalidOptions reports slideshow options outside their valid range.
	ErrInvalidOptions = errors.New("invalid slideshow options")
)

// Slide is one image held between two change points.
type Slide struct {
	Index      int     `json:"index"`
	ImageIndex int     `json:"image"`
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
}

// Length returns the slide length in seconds.
func (s Slide) Length() float64 { return s.End - s.Start }

// Plan is the full slide table for one track.
type Plan struct {
	Slides     []Slide `json:"slides"`
	Duration   float64 `json:"duration"`
	FPS        int     `json:"fps"`
	ImageCount int     `json:"image_count"`
	// Source is the timeline method, or "grid" when no beats were available.
	Source string `json:"source"`
}

// Options controls beat grouping and timing.
type Options struct {
	BeatsPerImage    int
	MinSlide         time.Duration
	FallbackInterval time.Duration
	FPS              int
}

// Validate rejects option values Build cannot honour.
func (o Options) Validate() error {
	switch {
	case o.BeatsPerImage < 1:
		return fmt.Errorf("%w: beats per image %d", ErrInvalidOptions, o.BeatsPerImage)
	case o.MinSlide < 0:
		return fmt.Errorf("%w: min slide %s", ErrInvalidOptions, o.MinSlide)
	case o.FallbackInterval < 0:
		return fmt.Errorf("%w: fallback interval %s", ErrInvalidOptions, o.FallbackInterval)
	case o.FPS <= 0:
		return fmt.Errorf("%w: fps %d", ErrInvalidOptions, o.FPS)
	}
	return nil
}

// DefaultOptions mirrors the configuration defaults.
func DefaultOptions() Options {
	return Options{
		BeatsPerImage:    1,
		MinSlide:         250 * time.Millisecond,
		FallbackInterval: 2 * time.Second,
		FPS:              30,
	}
}

// Build computes the slide plan for imageCount images over timeline.
func Build(timeline beats.Timeline, imageCount int, opts Options) (Plan, error) {
	if imageCount <= 0 {
		return Plan{}, ErrNoImages
	}
	if timeline.Duration <= 0 || math.IsNaN(timeline.Duration) {
		return Plan{}, ErrNoAudio
	}
	if err := opts.Validate(); err != nil {
		return Plan{}, err
	}

	plan := Plan{
		Duration:   timeline.Duration,
		FPS:        opts.FPS,
		ImageCount: imageCount,
		Source:     timeline.Method,
	}

	var changes []float64
	switch {
	case imageCount == 1:
		// One image never changes.
	case len(timeline.Beats) == 0:
		plan.Source = beats.MethodGrid
		changes = gridChanges(timeline.Duration, opts.FallbackInterval)
	default:
		changes = beatChanges(timeline, opts)
	}

	start := 0.0
	for k := 0; k <= len(changes); k++ {
		end := timeline.Duration
		if k < len(changes) {
			end = changes[k]
		}
		plan.Slides = append(plan.Slides, Slide{
			Index:      k,
			ImageIndex: k % imageCount,
			Start:      start,
			End:        end,
		})
		start = end
	}
	return plan, nil
}

func beatChanges(timeline beats.Timeline, opts Options) []float64 {
	minSlide := opts.MinSlide.Seconds()
	prev := 0.0
	var out []float64
	for i := opts.BeatsPerImage - 1; i < len(timeline.Beats); i += opts.BeatsPerImage {
		t := timeline.Beats[i].Time
		if t <= prev || t >= timeline.Duration || t-prev < minSlide {
			continue
		}
		out = append(out, t)
		prev = t
	}
	return out
}

func gridChanges(duration float64, interval time.Duration) []float64 {
	step := interval.Seconds()
	if step <= 0 {
		return nil
	}
	var out []float64
	for k := 1; ; k++ {
		t := float64(k) * step
		if t >= duration {
			break
		}
		out = append(out, t)
	}
	return out
}

// ImageAt returns the image shown at t seconds.
func (p Plan) ImageAt(t float64) int {
	if len(p.Slides) == 0 {
		return -1
	}
	if t < 0 {
		return p.Slides[0].ImageIndex
	}
	i := sort.Search(len(p.Slides), func(i int) bool { return p.Slides[i].End > t })
	if i >= len(p.Slides) {
		i = len(p.Slides) - 1
	}
	return p.Slides[i].ImageIndex
}

// SlideAt returns the index of the slide shown at t seconds.
func (p Plan) SlideAt(t float64) int {
	if len(p.Slides) == 0 {
		return -1
	}
	i := sort.Search(len(p.Slides), func(i int) bool { return p.Slides[i].End > t })
	return min(i, len(p.Slides)-1)
}

// Changes returns the start time of every slide after the first.
func (p Plan) Changes() []float64 {
	if len(p.Slides) < 2 {
		return nil
	}
	out := make([]float64, 0, len(p.Slides)-1)
	for _, s := range p.Slides[1:] {
		out = append(out, s.Start)
	}
	return out
}
