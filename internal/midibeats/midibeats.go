// Package midibeats builds beat timelines from Standard MIDI Files so a
// slideshow can follow an existing drum or click track instead of detection.
package midibeats

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"gitlab.com/gomidi/midi/v2/smf"

	"beatframe/internal/beats"
)

// ErrNoNotes reports a MIDI file without any matching note-on events.
var ErrNoNotes = errors.New("no matching note-on events")

// Options filters which notes count as beats.
type Options struct {
	// Channel restricts beats to one MIDI channel (0-15); negative accepts all.
	Channel int
	// Note restricts beats to one key number; negative accepts all.
	Note        int
	MinVelocity int
	MinInterval time.Duration
	// Duration is the length of the accompanying audio in seconds. When zero
	// the timeline ends at the last MIDI event.
	Duration float64
}

// DefaultOptions accepts every note on every channel.
func DefaultOptions() Options {
	return Options{Channel: -1, Note: -1, MinVelocity: 1}
}

type onset struct {
	at       float64
	velocity uint8
}

// Load reads path and converts matching note-on events into a beat timeline.
func Load(path string, opts Options) (beats.Timeline, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return beats.Timeline{}, errors.New("midi load: empty path")
	}
	f, err := os.Open(path)
	if err != nil {
		return beats.Timeline{}, fmt.Errorf("open midi: %w", err)
	}
	defer f.Close()

	var (
		onsets []onset
		end    float64
	)
	reader := smf.ReadTracksFrom(f)
	reader.Do(func(ev smf.TrackEvent) {
		at := float64(ev.AbsMicroSeconds) / 1_000_000
		if at > end {
			end = at
		}
		var ch, key, vel uint8
		if !ev.Message.GetNoteStart(&ch, &key, &vel) {
			return
		}
		if opts.Channel >= 0 && int(ch) != opts.Channel {
			return
		}
		if opts.Note >= 0 && int(key) != opts.Note {
			return
		}
		if int(vel) < opts.MinVelocity {
			return
		}
		onsets = append(onsets, onset{at: at, velocity: vel})
	})
	if err := reader.Error(); err != nil {
		return beats.Timeline{}, fmt.Errorf("parse midi %s: %w", path, err)
	}
	if len(onsets) == 0 {
		return beats.Timeline{}, fmt.Errorf("%s: %w", path, ErrNoNotes)
	}

	// Tracks are read one after another, so merge them by time.
	slices.SortStableFunc(onsets, func(a, b onset) int {
		switch {
		case a.at < b.at:
			return -1
		case a.at > b.at:
			return 1
		default:
			return 0
		}
	})

	duration := opts.Duration
	if duration <= 0 {
		duration = end
	}

	timeline := beats.Timeline{Duration: duration, Method: beats.MethodMIDI, Source: path, Beats: []beats.Beat{}}
	minGap := opts.MinInterval.Seconds()
	for _, o := range onsets {
		if o.at >= duration {
			break
		}
		if n := len(timeline.Beats); n > 0 {
			last := timeline.Beats[n-1].Time
			if o.at <= last || o.at-last < minGap {
				continue
			}
		}
		timeline.Beats = append(timeline.Beats, beats.Beat{Time: o.at, Strength: float64(o.velocity) / 127})
	}
	return timeline, nil
}
