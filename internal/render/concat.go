package render

import (
	"fmt"
	"io"
	"strings"

	"beatframe/internal/images"
	"beatframe/internal/slideshow"
)

// WriteConcatScript writes an ffconcat script holding each frame span for
// its exact frame count. The last file is listed twice because the concat
// demuxer ignores the duration of the final entry.
func WriteConcatScript(w io.Writer, plan slideshow.Plan, list []images.Image) (int, error) {
	spans := plan.Frames()
	if len(spans) == 0 {
		return 0, fmt.Errorf("plan has no frames")
	}
	if _, err := io.WriteString(w, "ffconcat version 1.0\n"); err != nil {
		return 0, err
	}
	var last string
	for _, span := range spans {
		if span.ImageIndex < 0 || span.ImageIndex >= len(list) {
			return 0, fmt.Errorf("span references image %d of %d", span.ImageIndex, len(list))
		}
		last = quoteConcatPath(list[span.ImageIndex].Path)
		if _, err := fmt.Fprintf(w, "file %s\nduration %.6f\n", last, span.Seconds(plan.FPS)); err != nil {
			return 0, err
		}
	}
	if _, err := fmt.Fprintf(w, "file %s\n", last); err != nil {
		return 0, err
	}
	return len(spans), nil
}

func quoteConcatPath(path string) string {
	return "'" + strings.ReplaceAll(path, "'", `'\''`) + "'"
}
