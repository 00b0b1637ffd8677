package beats

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"beatframe/internal/media/pcm"
)

// Detector method names.
const (
	MethodEnergy    = "energy"
	MethodAmplitude = "amplitude"
	MethodSpectral  = "spectral"
	// MethodMIDI marks timelines imported from a MIDI file rather than detected.
	MethodMIDI = "midi"
	// MethodGrid marks plans built without beats on a fixed interval.
	MethodGrid = "grid"
)

// ErrInvalidOptions reports detector options outside their valid range.
var ErrInvalidOptions = errors.New("invalid beat detection options")

// Beat is a single detected onset.
type Beat struct {
	Time     float64 `json:"time"`
	Strength float64 `json:"strength"`
}

// Timeline is an ordered list of beats over a track of known length.
type Timeline struct {
	Beats    []Beat  `json:"beats"`
	Duration float64 `json:"duration"`
	Method   string  `json:"method"`
	Source   string  `json:"source,omitempty"`
}

// Options tunes the detectors.
type Options struct {
	Method         string
	WindowSize     int
	HistoryWindows int
	Sensitivity    float64
	Threshold      float64
	MinInterval    time.Duration
}

// DefaultOptions mirrors the configuration defaults.
func DefaultOptions() Options {
	return Options{
		Method:         MethodEnergy,
		WindowSize:     1024,
		HistoryWindows: 43,
		Sensitivity:    1.4,
		Threshold:      0.02,
		MinInterval:    250 * time.Millisecond,
	}
}

// Methods lists the detector names accepted by Detect.
func Methods() []string {
	return []string{MethodEnergy, MethodAmplitude, MethodSpectral}
}

// Len returns the number of beats.
func (t Timeline) Len() int { return len(t.Beats) }

// Times returns beat times in seconds.
func (t Timeline) Times() []float64 {
	out := make([]float64, len(t.Beats))
	for i, b := range t.Beats {
		out[i] = b.Time
	}
	return out
}

// Tempo estimates beats per minute from the median inter-beat interval.
// It returns 0 when fewer than two beats are present.
func (t Timeline) Tempo() float64 {
	if len(t.Beats) < 2 {
		return 0
	}
	intervals := make([]float64, 0, len(t.Beats)-1)
	for i := 1; i < len(t.Beats); i++ {
		intervals = append(intervals, t.Beats[i].Time-t.Beats[i-1].Time)
	}
	slices.Sort(intervals)
	mid := len(intervals) / 2
	median := intervals[mid]
	if len(intervals)%2 == 0 {
		median = (intervals[mid-1] + intervals[mid]) / 2
	}
	if median <= 0 {
		return 0
	}
	return 60 / median
}

// Shift moves every beat by offset and drops beats that fall outside
// [0, Duration).
func (t Timeline) Shift(offset time.Duration) Timeline {
	if offset == 0 {
		return t
	}
	delta := offset.Seconds()
	out := t
	out.Beats = make([]Beat, 0, len(t.Beats))
	for _, b := range t.Beats {
		b.Time += delta
		if b.Time < 0 || b.Time >= t.Duration {
			continue
		}
		out.Beats = append(out.Beats, b)
	}
	return out
}

// Detect runs the detector selected by opts.Method over buf.
func Detect(buf pcm.Buffer, opts Options) (Timeline, error) {
	method, err := opts.validate()
	if err != nil {
		return Timeline{}, err
	}
	if buf.SampleRate <= 0 {
		return Timeline{}, fmt.Errorf("%w: sample rate %d", ErrInvalidOptions, buf.SampleRate)
	}

	timeline := Timeline{Duration: buf.Seconds(), Method: method, Beats: []Beat{}}
	if len(buf.Samples) < opts.WindowSize {
		return timeline, nil
	}

	var found []Beat
	switch method {
	case MethodAmplitude:
		found = detectAmplitude(buf, opts)
	case MethodSpectral:
		found = detectSpectral(buf, opts)
	default:
		found = detectEnergy(buf, opts)
	}
	if found != nil {
		timeline.Beats = found
	}
	return timeline, nil
}

// Validate reports whether Detect would accept opts.
func (o Options) Validate() error {
	_, err := o.validate()
	return err
}

func (o Options) validate() (string, error) {
	method := strings.ToLower(strings.TrimSpace(o.Method))
	if method == "" {
		method = MethodEnergy
	}
	if !slices.Contains(Methods(), method) {
		return "", fmt.Errorf("%w: unknown method %q", ErrInvalidOptions, o.Method)
	}
	if o.WindowSize < 2 {
		return "", fmt.Errorf("%w: window size %d", ErrInvalidOptions, o.WindowSize)
	}
	if method != MethodAmplitude {
		if o.HistoryWindows < 1 {
			return "", fmt.Errorf("%w: history windows %d", ErrInvalidOptions, o.HistoryWindows)
		}
		if o.Sensitivity <= 0 || math.IsNaN(o.Sensitivity) {
			return "", fmt.Errorf("%w: sensitivity %v", ErrInvalidOptions, o.Sensitivity)
		}
	}
	if o.Threshold < 0 || o.Threshold > 1 || math.IsNaN(o.Threshold) {
		return "", fmt.Errorf("%w: threshold %v", ErrInvalidOptions, o.Threshold)
	}
	if o.MinInterval < 0 {
		return "", fmt.Errorf("%w: min interval %s", ErrInvalidOptions, o.MinInterval)
	}
	return method, nil
}

// gate enforces the minimum spacing between accepted beats.
type gate struct {
	minInterval float64
	last        float64
	seen        bool
}

func newGate(minInterval time.Duration) *gate {
	return &gate{minInterval: minInterval.Seconds()}
}

func (g *gate) accept(t float64) bool {
	if g.seen && t-g.last < g.minInterval {
		return false
	}
	g.last = t
	g.seen = true
	return true
}

// rolling keeps the mean of the most recent n values.
type rolling struct {
	values []float64
	next   int
	filled int
	sum    float64
}

func newRolling(n int) *rolling {
	return &rolling{values: make([]float64, n)}
}

func (r *rolling) mean() float64 {
	if r.filled == 0 {
		return 0
	}
	return r.sum / float64(r.filled)
}

func (r *rolling) push(v float64) {
	if r.filled == len(r.values) {
		r.sum -= r.values[r.next]
	} else {
		r.filled++
	}
	r.values[r.next] = v
	r.sum += v
	r.next = (r.next + 1) % len(r.values)
}

func windowStart(index, size, sampleRate int) float64 {
	return float64(index*size) / float64(sampleRate)
}
