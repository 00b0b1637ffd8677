package deps

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

var commandContext = exec.CommandContext

// Encoder names an ffmpeg encoder and the export format that needs it.
type Encoder struct {
	Name   string
	Format string
}

// ExportEncoders lists the encoders used by the mp4 and webm export paths.
var ExportEncoders = []Encoder{
	{Name: "libx264", Format: "mp4"},
	{Name: "aac", Format: "mp4"},
	{Name: "libvpx-vp9", Format: "webm"},
	{Name: "libopus", Format: "webm"},
}

// CheckEncoders asks ffmpeg for its encoder list and reports which of the
// wanted encoders are missing.
func CheckEncoders(ctx context.Context, ffmpegBinary string, wanted []Encoder) ([]Status, error) {
	binary := strings.TrimSpace(ffmpegBinary)
	if binary == "" {
		binary = "ffmpeg"
	}
	cmd := commandContext(ctx, binary, "-hide_banner", "-encoders")
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("list ffmpeg encoders: %w", err)
	}
	available := parseEncoders(stdout.Bytes())

	results := make([]Status, 0, len(wanted))
	for _, enc := range wanted {
		status := Status{
			Requirement: Requirement{
				Name:        enc.Name,
				Command:     binary,
				Description: fmt.Sprintf("Encoder for %s export", enc.Format),
			},
			Available: available[enc.Name],
		}
		if !status.Available {
			status.Detail = fmt.Sprintf("ffmpeg build lacks %s", enc.Name)
		}
		results = append(results, status)
	}
	return results, nil
}

// parseEncoders reads `ffmpeg -encoders` output. Encoder rows start with a
// six-character capability field such as "V....D" followed by the name.
func parseEncoders(out []byte) map[string]bool {
	found := make(map[string]bool)
	scanner := bufio.NewScanner(bytes.NewReader(out))
	listing := false
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, "------") {
			listing = true
			continue
		}
		if !listing {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 || len(fields[0]) != 6 {
			continue
		}
		found[fields[1]] = true
	}
	return found
}
