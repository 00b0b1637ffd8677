package slideshow

import (
	"math"
	"sort"
)

// FrameSpan is a run of output frames showing the same image.
type FrameSpan struct {
	ImageIndex int `json:"image"`
	// StartFrame is inclusive, EndFrame exclusive.
	StartFrame int `json:"start_frame"`
	EndFrame   int `json:"end_frame"`
}

// Frames returns the number of frames in the span.
func (f FrameSpan) Frames() int { return f.EndFrame - f.StartFrame }

// Seconds returns the span length at fps.
func (f FrameSpan) Seconds(fps int) float64 {
	if fps <= 0 {
		return 0
	}
	return float64(f.Frames()) / float64(fps)
}

// TotalFrames is the frame count of the whole plan at its FPS.
func (p Plan) TotalFrames() int {
	if p.FPS <= 0 || p.Duration <= 0 {
		return 0
	}
	return int(math.Round(p.Duration * float64(p.FPS)))
}

// Frames quantizes the plan to frame boundaries. Slide edges are rounded to
// the nearest frame, zero-length spans disappear, and neighbouring spans that
// end up showing the same image are merged. Spans are contiguous from frame 0
// to TotalFrames.
func (p Plan) Frames() []FrameSpan {
	total := p.TotalFrames()
	if total == 0 || len(p.Slides) == 0 {
		return nil
	}
	fps := float64(p.FPS)
	var spans []FrameSpan
	for i, s := range p.Slides {
		start := int(math.Round(s.Start * fps))
		end := int(math.Round(s.End * fps))
		if i == 0 {
			start = 0
		}
		if i == len(p.Slides)-1 || end > total {
			end = total
		}
		if end <= start {
			continue
		}
		if n := len(spans); n > 0 {
			// Rounding is monotonic, but pin the edge so spans stay contiguous.
			start = spans[n-1].EndFrame
			if spans[n-1].ImageIndex == s.ImageIndex {
				spans[n-1].EndFrame = end
				continue
			}
		}
		spans = append(spans, FrameSpan{ImageIndex: s.ImageIndex, StartFrame: start, EndFrame: end})
	}
	return spans
}

// FrameImage returns the image shown on frame n.
func (p Plan) FrameImage(n int) int {
	spans := p.Frames()
	if len(spans) == 0 {
		return -1
	}
	if n < 0 {
		return spans[0].ImageIndex
	}
	i := sort.Search(len(spans), func(i int) bool { return spans[i].EndFrame > n })
	if i >= len(spans) {
		i = len(spans) - 1
	}
	return spans[i].ImageIndex
}
