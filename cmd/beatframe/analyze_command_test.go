package main

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"beatframe/internal/beats"
	"beatframe/internal/services"
)

func TestAnalyzePrintsBeatTable(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, env, "analyze", env.audioPath)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	requireContains(t, out, "Method:    energy")
	requireContains(t, out, "Beats:     8")
	requireContains(t, out, "117.2 BPM")
	requireContains(t, out, "Cache hit: no")
	requireContains(t, out, "Strength")
}

func TestAnalyzeJSONUsesCacheOnSecondRun(t *testing.T) {
	env := setupCLITestEnv(t)

	first := analyzeJSON(t, env)
	if first.Beats != 8 || first.CacheHit {
		t.Fatalf("unexpected first analysis: %+v", first)
	}
	if first.Timeline.Duration != 4 {
		t.Fatalf("unexpected duration %v", first.Timeline.Duration)
	}

	second := analyzeJSON(t, env)
	if !second.CacheHit || second.Beats != first.Beats {
		t.Fatalf("expected cache hit with same beats, got %+v", second)
	}

	third := analyzeJSON(t, env, "--no-cache")
	if third.CacheHit {
		t.Fatal("--no-cache should bypass the cache")
	}
}

func TestAnalyzeOffsetDropsLeadingBeat(t *testing.T) {
	env := setupCLITestEnv(t)
	got := analyzeJSON(t, env, "--offset=-100")
	if got.Beats != 7 {
		t.Fatalf("expected the beat at 0s to fall off, got %d beats", got.Beats)
	}
}

func TestAnalyzeRejectsUnknownMethod(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := runCLI(t, env, "analyze", env.audioPath, "--method", "magic", "--no-cache"); err == nil {
		t.Fatal("expected unknown detector to fail")
	}
}

func TestAnalyzeMissingMIDIFails(t *testing.T) {
	env := setupCLITestEnv(t)
	_, _, err := runCLI(t, env, "analyze", env.audioPath, "--midi", filepath.Join(env.baseDir, "missing.mid"))
	if err == nil {
		t.Fatal("expected missing MIDI file to fail")
	}
}

func analyzeJSON(t *testing.T, env *cliTestEnv, extra ...string) analyzeOutput {
	t.Helper()
	args := append([]string{"analyze", env.audioPath, "--json"}, extra...)
	out, _, err := runCLI(t, env, args...)
	if err != nil {
		t.Fatalf("analyze --json: %v", err)
	}
	var payload analyzeOutput
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatalf("decode analyze output: %v\n%s", err, out)
	}
	return payload
}

func TestInvalidDetectionFlagsAreRejected(t *testing.T) {
	env := setupCLITestEnv(t)
	tests := [][]string{
		{"--sensitivity", "-2"},
		{"--threshold=-0.5"},
		{"--window", "-7"},
		{"--min-interval=-100"},
		{"--threshold", "1.5"},
	}
	for _, flags := range tests {
		t.Run(strings.Join(flags, " "), func(t *testing.T) {
			args := append([]string{"analyze", env.audioPath, "--no-cache"}, flags...)
			_, _, err := runCLI(t, env, args...)
			if !errors.Is(err, beats.ErrInvalidOptions) {
				t.Fatalf("expected ErrInvalidOptions, got %v", err)
			}
			if !errors.Is(err, services.ErrValidation) {
				t.Fatalf("expected validation kind for the CLI hint, got %v", err)
			}
		})
	}
}

func TestZeroThresholdFlagIsHonoured(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := runCLI(t, env, "analyze", env.audioPath, "--no-cache", "--threshold", "0", "--min-interval", "0"); err != nil {
		t.Fatalf("explicit zero values are valid: %v", err)
	}
}
