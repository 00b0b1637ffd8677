package render

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"beatframe/internal/images"
	"beatframe/internal/slideshow"
)

// Output container formats.
const (
	FormatMP4  = "mp4"
	FormatWebM = "webm"
)

// ErrOutputExists reports a destination that would be overwritten.
var ErrOutputExists = errors.New("output file already exists")

// Request describes one export.
type Request struct {
	Plan         slideshow.Plan
	Images       []images.Image
	AudioPath    string
	OutputPath   string
	Width        int
	Height       int
	Format       string
	CRF          int
	Preset       string
	AudioBitrate string
	Overwrite    bool
	// ArchiveDir receives the AV1 archive when the exporter has an archiver.
	ArchiveDir string
	Progress   func(Progress)
}

// Progress is one ffmpeg progress report.
type Progress struct {
	Stage   string
	Percent float64
	OutTime time.Duration
	Frame   int
	Speed   string
	Done    bool
}

// Result summarizes a finished export.
type Result struct {
	// CorrelationID tags every log line of this export.
	CorrelationID string        `json:"correlation_id"`
	OutputPath    string        `json:"output_path"`
	Bytes         int64         `json:"bytes"`
	Frames        int           `json:"frames"`
	Spans         int           `json:"spans"`
	Duration      float64       `json:"duration"`
	Elapsed       time.Duration `json:"elapsed"`
	ArchivePath   string        `json:"archive_path,omitempty"`
}

// FormatForPath infers the container from an output extension, defaulting to mp4.
func FormatForPath(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".webm") {
		return FormatWebM
	}
	return FormatMP4
}

func (r *Request) normalize() error {
	r.OutputPath = strings.TrimSpace(r.OutputPath)
	if r.OutputPath == "" {
		return errors.New("output path required")
	}
	if strings.TrimSpace(r.AudioPath) == "" {
		return errors.New("audio path required")
	}
	r.Format = strings.ToLower(strings.TrimSpace(r.Format))
	if r.Format == "" {
		r.Format = FormatForPath(r.OutputPath)
	}
	if r.Format != FormatMP4 && r.Format != FormatWebM {
		return fmt.Errorf("unsupported format %q", r.Format)
	}
	if r.Width <= 0 || r.Height <= 0 || r.Width%2 != 0 || r.Height%2 != 0 {
		return fmt.Errorf("invalid size %dx%d: dimensions must be positive and even", r.Width, r.Height)
	}
	if r.CRF < 0 || r.CRF > 63 {
		return fmt.Errorf("invalid crf %d: must be between 0 and 63", r.CRF)
	}
	if r.Plan.FPS <= 0 || r.Plan.TotalFrames() == 0 {
		return errors.New("plan has no frames")
	}
	if len(r.Images) < r.Plan.ImageCount {
		return fmt.Errorf("plan expects %d images, got %d", r.Plan.ImageCount, len(r.Images))
	}
	if r.Preset == "" {
		r.Preset = "medium"
	}
	if r.AudioBitrate == "" {
		r.AudioBitrate = "192k"
	}
	return nil
}
