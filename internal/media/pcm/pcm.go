package pcm

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

var commandContext = exec.CommandContext

// ErrNoAudio reports that decoding produced no samples.
var ErrNoAudio = errors.New("no audio samples decoded")

// Buffer holds mono samples normalized to [-1, 1].
type Buffer struct {
	Samples    []float64
	SampleRate int
}

// Duration returns the playback length of the buffer.
func (b Buffer) Duration() time.Duration {
	if b.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(len(b.Samples)) / float64(b.SampleRate) * float64(time.Second))
}

// Seconds returns the playback length in seconds.
func (b Buffer) Seconds() float64 {
	if b.SampleRate <= 0 {
		return 0
	}
	return float64(len(b.Samples)) / float64(b.SampleRate)
}

// DecodeOptions controls how ffmpeg decodes the track.
type DecodeOptions struct {
	Binary     string
	SampleRate int
	// Stream is the audio-relative stream ordinal (ffmpeg -map 0:a:N); negative selects ffmpeg's default.
	Stream int
}

// Decode runs ffmpeg to decode path into a mono Buffer.
func Decode(ctx context.Context, path string, opts DecodeOptions) (Buffer, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Buffer{}, errors.New("pcm decode: empty path")
	}
	if opts.SampleRate <= 0 {
		return Buffer{}, fmt.Errorf("pcm decode: invalid sample rate %d", opts.SampleRate)
	}
	binaryName := strings.TrimSpace(opts.Binary)
	if binaryName == "" {
		binaryName = "ffmpeg"
	}

	args := []string{"-nostdin", "-hide_banner", "-loglevel", "error", "-i", path}
	if opts.Stream >= 0 {
		args = append(args, "-map", "0:a:"+strconv.Itoa(opts.Stream))
	} else {
		args = append(args, "-vn")
	}
	args = append(args,
		"-ac", "1",
		"-ar", strconv.Itoa(opts.SampleRate),
		"-f", "s16le",
		"-acodec", "pcm_s16le",
		"pipe:1",
	)

	cmd := commandContext(ctx, binaryName, args...) //nolint:gosec
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Buffer{}, ctxErr
		}
		return Buffer{}, fmt.Errorf("ffmpeg decode %s: %w: %s", path, err, strings.TrimSpace(stderr.String()))
	}
	buf := FromBytes(out, opts.SampleRate)
	if len(buf.Samples) == 0 {
		return Buffer{}, ErrNoAudio
	}
	return buf, nil
}

// FromBytes converts little-endian signed 16-bit PCM into a Buffer. A trailing
// odd byte is ignored.
func FromBytes(data []byte, sampleRate int) Buffer {
	n := len(data) / 2
	samples := make([]int16, n)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(data[i*2:]))
	}
	return FromInt16(samples, sampleRate)
}

// FromInt16 normalizes 16-bit samples into a Buffer.
func FromInt16(samples []int16, sampleRate int) Buffer {
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = float64(s) / 32768
	}
	return Buffer{Samples: out, SampleRate: sampleRate}
}
