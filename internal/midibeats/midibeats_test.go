package midibeats

import (
	"errors"
	"math"
	"path/filepath"
	"testing"
	"time"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"beatframe/internal/beats"
)

// writeDrumFile writes a 120 bpm file with a kick (36) on every quarter note
// and a hi-hat (42) on every eighth, both on channel 9.
func writeDrumFile(t *testing.T, quarters int) string {
	t.Helper()

	ticks := smf.MetricTicks(960)
	s := smf.New()
	s.TimeFormat = ticks
	var tr smf.Track
	tr.Add(0, smf.MetaTempo(120))
	eighth := uint32(ticks.Ticks8th())
	for i := 0; i < quarters; i++ {
		tr.Add(0, midi.NoteOn(9, 36, 100))
		tr.Add(0, midi.NoteOn(9, 42, 60))
		tr.Add(eighth, midi.NoteOff(9, 36))
		tr.Add(0, midi.NoteOff(9, 42))
		tr.Add(0, midi.NoteOn(9, 42, 60))
		tr.Add(eighth, midi.NoteOff(9, 42))
	}
	tr.Close(0)
	if err := s.Add(tr); err != nil {
		t.Fatalf("add track: %v", err)
	}
	path := filepath.Join(t.TempDir(), "drums.mid")
	if err := s.WriteFile(path); err != nil {
		t.Fatalf("write midi: %v", err)
	}
	return path
}

func TestLoadFiltersByNote(t *testing.T) {
	path := writeDrumFile(t, 4)
	opts := DefaultOptions()
	opts.Note = 36

	timeline, err := Load(path, opts)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if timeline.Method != beats.MethodMIDI || timeline.Source != path {
		t.Fatalf("unexpected metadata %+v", timeline)
	}
	if len(timeline.Beats) != 4 {
		t.Fatalf("expected 4 kicks, got %d: %+v", len(timeline.Beats), timeline.Beats)
	}
	for i, b := range timeline.Beats {
		if math.Abs(b.Time-float64(i)*0.5) > 1e-6 {
			t.Fatalf("kick %d at %v", i, b.Time)
		}
	}
	if math.Abs(timeline.Tempo()-120) > 1e-6 {
		t.Fatalf("expected 120 bpm, got %v", timeline.Tempo())
	}
	if math.Abs(timeline.Duration-2) > 1e-6 {
		t.Fatalf("expected duration to end at last event, got %v", timeline.Duration)
	}
}

func TestLoadMergesChordsAndDebounces(t *testing.T) {
	path := writeDrumFile(t, 4)

	all, err := Load(path, DefaultOptions())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	// Kick and hat share a start on every quarter; eighths add the offbeats.
	if len(all.Beats) != 8 {
		t.Fatalf("expected 8 onsets, got %d", len(all.Beats))
	}

	opts := DefaultOptions()
	opts.MinInterval = 400 * time.Millisecond
	sparse, err := Load(path, opts)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(sparse.Beats) != 4 {
		t.Fatalf("expected debounce to keep quarters, got %d", len(sparse.Beats))
	}

	opts = DefaultOptions()
	opts.Duration = 1.2
	clipped, err := Load(path, opts)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if clipped.Duration != 1.2 || len(clipped.Beats) != 5 {
		t.Fatalf("expected beats clipped to audio length, got %d over %v", len(clipped.Beats), clipped.Duration)
	}
}

func TestLoadNoMatchingNotes(t *testing.T) {
	path := writeDrumFile(t, 2)
	opts := DefaultOptions()
	opts.Channel = 3
	if _, err := Load(path, opts); !errors.Is(err, ErrNoNotes) {
		t.Fatalf("expected ErrNoNotes, got %v", err)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.mid"), DefaultOptions()); err == nil {
		t.Fatal("expected error for missing file")
	}
}
