package drapto

import (
	"context"
	"time"
)

// Event types carried by ProgressUpdate.
const (
	EventTypeStage    = "stage"
	EventTypeEncoding = "encoding"
	EventTypeWarning  = "warning"
	EventTypeError    = "error"
	EventTypeComplete = "complete"
)

// ProgressUpdate is a flattened view of Drapto reporter events.
type ProgressUpdate struct {
	Type    string
	Percent float64
	Stage   string
	Message string
	Speed   float64
	FPS     float64
	ETA     time.Duration
	// OutputPath is set on completion.
	OutputPath string
}

// EncodeOptions carries optional Drapto settings.
type EncodeOptions struct {
	Progress func(ProgressUpdate)
}

// Client encodes a finished slideshow into an AV1 archive.
type Client interface {
	Encode(ctx context.Context, inputPath, outputDir string, opts EncodeOptions) (string, error)
}
