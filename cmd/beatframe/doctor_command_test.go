package main

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"beatframe/internal/deps"
)

func TestDoctorPassesWithWorkingTools(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, env, "doctor")
	if err != nil {
		t.Fatalf("doctor: %v\n%s", err, out)
	}
	requireContains(t, out, "== Dependencies ==")
	requireContains(t, out, "FFmpeg:")
	requireContains(t, out, "Encoders (mp4):")
	requireContains(t, out, "libx264, aac")
	if strings.Contains(out, "[ERROR]") {
		t.Fatalf("unexpected error line in doctor output:\n%s", out)
	}
}

func TestDoctorReportsMissingFFmpeg(t *testing.T) {
	env := setupCLITestEnv(t)
	env.cfg.Export.FFmpeg = filepath.Join(env.baseDir, "no-such-ffmpeg")
	writeTestConfig(t, env.configPath, env.cfg)

	out, _, err := runCLI(t, env, "doctor")
	if !errors.Is(err, errDoctorFailed) {
		t.Fatalf("expected errDoctorFailed, got %v", err)
	}
	requireContains(t, out, "[ERROR]")
	requireContains(t, out, "Missing dependencies")
}

func TestDependencyLines(t *testing.T) {
	statuses := []deps.Status{
		{Requirement: deps.Requirement{Name: "FFmpeg", Command: "/usr/bin/ffmpeg"}, Available: true},
		{Requirement: deps.Requirement{Name: "FFprobe"}, Detail: `binary "ffprobe" not found`},
		{Requirement: deps.Requirement{Name: "Extra", Optional: true}},
	}
	lines := dependencyLines(statuses, false)
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d", len(lines))
	}
	if !strings.Contains(lines[0], "[OK] Ready (command: /usr/bin/ffmpeg)") {
		t.Fatalf("unexpected ready line %q", lines[0])
	}
	if !strings.Contains(lines[1], "[ERROR] binary") {
		t.Fatalf("unexpected missing line %q", lines[1])
	}
	if !strings.Contains(lines[2], "[WARN] not available") {
		t.Fatalf("optional dependency should warn, got %q", lines[2])
	}
	if !strings.Contains(lines[3], "FFprobe, Extra") {
		t.Fatalf("unexpected summary %q", lines[3])
	}
	if !missingRequired(statuses) {
		t.Fatal("missingRequired should report the absent ffprobe")
	}
}
