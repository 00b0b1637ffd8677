package pcm

import (
	"context"
	"encoding/binary"
	"errors"
	"os"
	"os/exec"
	"slices"
	"strings"
	"testing"
	"time"
)

func TestFromBytesNormalizesAndDropsOddByte(t *testing.T) {
	data := make([]byte, 7)
	binary.LittleEndian.PutUint16(data[0:], uint16(0x4000))           // 16384
	binary.LittleEndian.PutUint16(data[2:], uint16(int16ToU(-32768))) // -1
	binary.LittleEndian.PutUint16(data[4:], 0)
	data[6] = 0xff

	buf := FromBytes(data, 8000)
	if len(buf.Samples) != 3 {
		t.Fatalf("expected 3 samples, got %d", len(buf.Samples))
	}
	if buf.Samples[0] != 0.5 || buf.Samples[1] != -1 || buf.Samples[2] != 0 {
		t.Fatalf("unexpected samples %v", buf.Samples)
	}
}

func TestBufferDuration(t *testing.T) {
	buf := Buffer{Samples: make([]float64, 22050), SampleRate: 44100}
	if buf.Duration() != 500*time.Millisecond {
		t.Fatalf("unexpected duration %v", buf.Duration())
	}
	if buf.Seconds() != 0.5 {
		t.Fatalf("unexpected seconds %v", buf.Seconds())
	}
	if (Buffer{}).Duration() != 0 {
		t.Fatal("zero buffer should have zero duration")
	}
}

func TestDecodeBuildsArgsAndParsesOutput(t *testing.T) {
	orig := commandContext
	t.Cleanup(func() { commandContext = orig })
	var gotName string
	var gotArgs []string
	commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		gotName, gotArgs = name, args
		cmd := exec.CommandContext(ctx, os.Args[0], "-test.run=TestHelperProcess")
		cmd.Env = append(os.Environ(), "GO_WANT_HELPER_PROCESS=1", "PCM_HELPER_MODE=samples")
		return cmd
	}

	buf, err := Decode(context.Background(), "track.flac", DecodeOptions{SampleRate: 22050, Stream: 1})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if gotName != "ffmpeg" {
		t.Fatalf("expected default binary, got %q", gotName)
	}
	for _, want := range []string{"0:a:1", "22050", "s16le", "pipe:1"} {
		if !slices.Contains(gotArgs, want) {
			t.Fatalf("expected %q in args %v", want, gotArgs)
		}
	}
	if buf.SampleRate != 22050 || len(buf.Samples) != 4 {
		t.Fatalf("unexpected buffer rate=%d len=%d", buf.SampleRate, len(buf.Samples))
	}
}

func TestDecodeReportsEmptyOutput(t *testing.T) {
	orig := commandContext
	t.Cleanup(func() { commandContext = orig })
	commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		cmd := exec.CommandContext(ctx, os.Args[0], "-test.run=TestHelperProcess")
		cmd.Env = append(os.Environ(), "GO_WANT_HELPER_PROCESS=1", "PCM_HELPER_MODE=empty")
		return cmd
	}
	if _, err := Decode(context.Background(), "silence.wav", DecodeOptions{SampleRate: 8000, Stream: -1}); !errors.Is(err, ErrNoAudio) {
		t.Fatalf("expected ErrNoAudio, got %v", err)
	}
}

func TestDecodeSurfacesStderr(t *testing.T) {
	orig := commandContext
	t.Cleanup(func() { commandContext = orig })
	commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		cmd := exec.CommandContext(ctx, os.Args[0], "-test.run=TestHelperProcess")
		cmd.Env = append(os.Environ(), "GO_WANT_HELPER_PROCESS=1", "PCM_HELPER_MODE=failure")
		return cmd
	}
	_, err := Decode(context.Background(), "broken.mp3", DecodeOptions{SampleRate: 8000})
	if err == nil {
		t.Fatal("expected error")
	}
	if got := err.Error(); !containsAll(got, "broken.mp3", "Invalid data found") {
		t.Fatalf("unexpected error text %q", got)
	}
}

func TestDecodeValidatesInput(t *testing.T) {
	if _, err := Decode(context.Background(), "", DecodeOptions{SampleRate: 8000}); err == nil {
		t.Fatal("expected error for empty path")
	}
	if _, err := Decode(context.Background(), "a.wav", DecodeOptions{}); err == nil {
		t.Fatal("expected error for zero sample rate")
	}
}

func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	switch os.Getenv("PCM_HELPER_MODE") {
	case "samples":
		_, _ = os.Stdout.Write([]byte{0, 0, 0, 0x40, 0, 0xc0, 0xff, 0x7f})
		os.Exit(0)
	case "failure":
		_, _ = os.Stderr.WriteString("broken.mp3: Invalid data found when processing input\n")
		os.Exit(1)
	default:
		os.Exit(0)
	}
}

func int16ToU(v int16) uint16 { return uint16(v) }

func containsAll(s string, parts ...string) bool {
	for _, p := range parts {
		if !strings.Contains(s, p) {
			return false
		}
	}
	return true
}
