package main

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"beatframe/internal/config"
	"beatframe/internal/testsupport"
)

const testSampleRate = 8000

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string
	audioPath  string
	imageDir   string
}

// setupCLITestEnv writes a config pointing at fake ffmpeg and ffprobe
// scripts. The fake ffmpeg streams a click track with a beat every 0.512s
// when asked to decode, lists encoders, and writes a stub video when asked
// to export.
func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	t.Setenv("BEATFRAME_FFMPEG", "")
	t.Setenv("BEATFRAME_FFPROBE", "")

	cfg := testsupport.NewConfig(t, testsupport.WithDetection("energy", 256))
	cfg.Detection.SampleRate = testSampleRate
	cfg.Logging.Level = "error"

	binDir := filepath.Join(base, "bin")
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		t.Fatalf("mkdir bin: %v", err)
	}
	rawPath := filepath.Join(base, "clicks.s16le")
	writeClickPCM(t, rawPath)
	cfg.Export.FFmpeg = writeScript(t, filepath.Join(binDir, "ffmpeg"), fakeFFmpeg(rawPath))
	cfg.Export.FFprobe = writeScript(t, filepath.Join(binDir, "ffprobe"), fakeFFprobe)

	env := &cliTestEnv{
		cfg:        cfg,
		configPath: filepath.Join(homeDir, ".config", "beatframe", "config.toml"),
		baseDir:    base,
		audioPath:  filepath.Join(base, "media", "night_drive.flac"),
		imageDir:   filepath.Join(base, "media", "photos"),
	}
	testsupport.WriteFile(t, env.audioPath, []byte("fLaC fake audio payload"))
	for _, name := range []string{"img1.png", "img2.png", "img10.png"} {
		testsupport.WriteImage(t, filepath.Join(env.imageDir, name), 8, 8)
	}
	writeTestConfig(t, env.configPath, cfg)
	return env
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := cfg.Encode()
	if err != nil {
		t.Fatalf("encode config: %v", err)
	}
	testsupport.WriteFile(t, path, data)
}

func writeClickPCM(t *testing.T, path string) {
	t.Helper()
	buf := testsupport.ClickTrack(testSampleRate, 4*testSampleRate, 4096, 256)
	var raw bytes.Buffer
	for _, s := range buf.Samples {
		_ = binary.Write(&raw, binary.LittleEndian, int16(math.Round(s*32767)))
	}
	testsupport.WriteFile(t, path, raw.Bytes())
}

func writeScript(t *testing.T, path, body string) string {
	t.Helper()
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatalf("write script %s: %v", path, err)
	}
	return path
}

func fakeFFmpeg(rawPath string) string {
	return fmt.Sprintf(`progress=""
last=""
for arg in "$@"; do
  case "$arg" in
    -encoders)
      cat <<'OUT'
Encoders:
 V..... = Video
 ------
 V....D libx264              H.264
 V....D libvpx-vp9           VP9
 A....D aac                  AAC
 A....D libopus              Opus
OUT
      exit 0
      ;;
    -progress) progress=1 ;;
  esac
  last="$arg"
done
if [ -n "$progress" ]; then
  printf 'frame=30\nout_time_ms=1000000\nspeed=2x\nprogress=continue\nframe=120\nout_time_ms=4000000\nspeed=2x\nprogress=end\n'
  printf 'video' > "$last"
  exit 0
fi
cat '%s'
`, rawPath)
}

const fakeFFprobe = `cat <<'OUT'
{"streams":[{"index":0,"codec_type":"audio","codec_name":"flac","sample_rate":"44100","channels":2,"duration":"4.000000"}],
 "format":{"duration":"4.000000","size":"23","tags":{"TITLE":"Night Drive"}}}
OUT
`

func runCLI(t *testing.T, env *cliTestEnv, args ...string) (string, string, error) {
	t.Helper()
	return runCLIContext(context.Background(), env, &bytes.Buffer{}, args...)
}

func runCLIContext(ctx context.Context, env *cliTestEnv, stdout *bytes.Buffer, args ...string) (string, string, error) {
	cmd := newRootCommand()
	var stderr bytes.Buffer
	cmd.SetOut(stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--config", env.configPath}, args...))
	err := cmd.ExecuteContext(ctx)
	return stdout.String(), stderr.String(), err
}

// syncBuffer guards a bytes.Buffer written by a running command.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func waitFor(t *testing.T, duration time.Duration, fn func() bool) {
	t.Helper()
	deadline := time.Now().Add(duration)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("condition not met within %s", duration)
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
