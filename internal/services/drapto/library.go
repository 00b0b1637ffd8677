package drapto

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	draptolib "github.com/five82/drapto"

	"beatframe/internal/services"
)

// Library archives slideshows in-process through the Drapto Go library.
// Encoders run with Drapto's responsive profile so an archive does not
// starve the preview server of CPU.
type Library struct{}

// NewLibrary constructs a Library client.
func NewLibrary() *Library {
	return &Library{}
}

// Encode re-encodes the exported slideshow at inputPath into an AV1 archive
// under outputDir, creating the directory when needed.
func (l *Library) Encode(ctx context.Context, inputPath, outputDir string, opts EncodeOptions) (string, error) {
	inputPath = strings.TrimSpace(inputPath)
	outputDir = strings.TrimSpace(outputDir)
	if inputPath == "" {
		return "", services.Wrap(services.ErrValidation, "archive", "drapto", "input path required", nil)
	}
	if outputDir == "" {
		return "", services.Wrap(services.ErrValidation, "archive", "drapto", "output directory required", nil)
	}
	if _, err := os.Stat(inputPath); err != nil {
		return "", services.Wrap(services.ErrNotFound, "archive", "drapto", "exported video missing", err)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", services.Wrap(services.ErrConfiguration, "archive", "drapto", "create archive directory", err)
	}

	encoder, err := draptolib.New(draptolib.WithResponsive())
	if err != nil {
		return "", services.Wrap(services.ErrExternalTool, "archive", "drapto", "initialize encoder", err)
	}

	// Drapto reports its real output path on completion; prefer it over the
	// name we predict.
	archive := ArchivePath(inputPath, outputDir)
	rep := newArchiveReporter(func(u ProgressUpdate) {
		if u.Type == EventTypeComplete && u.OutputPath != "" {
			archive = u.OutputPath
		}
		if opts.Progress != nil {
			opts.Progress(u)
		}
	})
	if _, err := encoder.EncodeWithReporter(ctx, inputPath, outputDir, rep); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", services.Wrap(services.ErrExternalTool, "archive", "drapto", fmt.Sprintf("encode %s", filepath.Base(inputPath)), err)
	}
	return archive, nil
}

// ArchivePath returns where the archive for a given export lands:
// <outputDir>/<export stem>.mkv.
func ArchivePath(inputPath, outputDir string) string {
	stem := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	if stem == "" || stem == "." {
		stem = "slideshow"
	}
	return filepath.Join(strings.TrimSpace(outputDir), stem+".mkv")
}

var _ Client = (*Library)(nil)
