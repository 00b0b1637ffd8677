package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"beatframe/internal/config"
	"beatframe/internal/project"
	"beatframe/internal/services"
)

// detectionFlags carries the detector overrides shared by analyze, plan,
// export, and preview. Only flags set on the command line override config.
type detectionFlags struct {
	method        string
	sensitivity   float64
	threshold     float64
	window        int
	minIntervalMS int
	offsetMS      int
	midi          string
	midiNote      int
	midiChannel   int
	noCache       bool
}

func (f *detectionFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&f.method, "method", "", "Beat detector: energy, amplitude, or spectral")
	flags.Float64Var(&f.sensitivity, "sensitivity", 0, "Energy multiple over the local average that counts as a beat")
	flags.Float64Var(&f.threshold, "threshold", 0, "Absolute amplitude floor in [0, 1]")
	flags.IntVar(&f.window, "window", 0, "Analysis window size in samples (power of two)")
	flags.IntVar(&f.minIntervalMS, "min-interval", 0, "Minimum milliseconds between beats")
	flags.IntVar(&f.offsetMS, "offset", 0, "Shift every beat by this many milliseconds")
	flags.StringVar(&f.midi, "midi", "", "Import beats from a MIDI file instead of detecting them")
	flags.IntVar(&f.midiNote, "midi-note", -1, "Only use this MIDI note number (-1 for any)")
	flags.IntVar(&f.midiChannel, "midi-channel", -1, "Only use this MIDI channel, 0-15 (-1 for any)")
	flags.BoolVar(&f.noCache, "no-cache", false, "Skip the beat cache")
}

// slideshowFlags carries image ordering and mapping overrides.
type slideshowFlags struct {
	beatsPerImage int
	minSlideMS    int
	fps           int
	order         string
	shuffle       bool
	seed          uint64
}

func (f *slideshowFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.IntVar(&f.beatsPerImage, "beats-per-image", 0, "Change image every N beats")
	flags.IntVar(&f.minSlideMS, "min-slide", 0, "Shortest slide in milliseconds")
	flags.IntVar(&f.fps, "fps", 0, "Frame rate used to snap slide edges")
	flags.StringVar(&f.order, "order", "", "Comma separated 1-based image positions to show first, e.g. 3,1")
	flags.BoolVar(&f.shuffle, "shuffle", false, "Shuffle images")
	flags.Uint64Var(&f.seed, "seed", 0, "Shuffle seed (0 picks one from the clock)")
}

// buildInputs layers flags the user actually set over the configured tuning
// and rejects values the detector or planner would refuse.
func buildInputs(cmd *cobra.Command, cfg *config.Config, audio string, imagePaths []string, det *detectionFlags, show *slideshowFlags) (project.Inputs, error) {
	in := project.InputsFromConfig(cfg)
	in.AudioPath = audio
	in.ImagePaths = imagePaths
	changed := cmd.Flags().Changed

	if det != nil {
		if changed("method") {
			in.Detection.Method = strings.ToLower(strings.TrimSpace(det.method))
		}
		if changed("sensitivity") {
			in.Detection.Sensitivity = det.sensitivity
		}
		if changed("threshold") {
			in.Detection.Threshold = det.threshold
		}
		if changed("window") {
			in.Detection.WindowSize = det.window
		}
		if changed("min-interval") {
			in.Detection.MinInterval = time.Duration(det.minIntervalMS) * time.Millisecond
			in.MIDI.MinInterval = in.Detection.MinInterval
		}
		if changed("offset") {
			in.Offset = time.Duration(det.offsetMS) * time.Millisecond
		}
		in.MIDIPath = strings.TrimSpace(det.midi)
		in.MIDI.Note = det.midiNote
		in.MIDI.Channel = det.midiChannel
		in.NoCache = det.noCache
		if err := in.Detection.Validate(); err != nil {
			return project.Inputs{}, services.Wrap(services.ErrValidation, "inputs", "detection flags", "", err)
		}
	}

	if show != nil {
		if changed("beats-per-image") {
			in.Slideshow.BeatsPerImage = show.beatsPerImage
		}
		if changed("min-slide") {
			in.Slideshow.MinSlide = time.Duration(show.minSlideMS) * time.Millisecond
		}
		if changed("fps") {
			in.Slideshow.FPS = show.fps
		}
		if err := in.Slideshow.Validate(); err != nil {
			return project.Inputs{}, services.Wrap(services.ErrValidation, "inputs", "slideshow flags", "", err)
		}
		order, err := parseOrder(show.order)
		if err != nil {
			return project.Inputs{}, err
		}
		in.Order = order
		in.Shuffle = show.shuffle
		in.Seed = show.seed
		if in.Shuffle && in.Seed == 0 {
			in.Seed = uint64(time.Now().UnixNano())
		}
	}
	return in, nil
}

// parseOrder reads "3,1,2" into 1-based positions.
func parseOrder(value string) ([]int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	parts := strings.Split(value, ",")
	order := make([]int, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("invalid --order entry %q: expected a positive image number", part)
		}
		order = append(order, n)
	}
	return order, nil
}
