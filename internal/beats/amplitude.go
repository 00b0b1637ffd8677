package beats

import (
	"math"

	"beatframe/internal/media/pcm"
)

func detectAmplitude(buf pcm.Buffer, opts Options) []Beat {
	g := newGate(opts.MinInterval)
	windows := len(buf.Samples) / opts.WindowSize

	var out []Beat
	for w := 0; w < windows; w++ {
		frame := buf.Samples[w*opts.WindowSize : (w+1)*opts.WindowSize]
		var peak float64
		for _, s := range frame {
			peak = math.Max(peak, math.Abs(s))
		}
		if peak <= opts.Threshold {
			continue
		}
		t := windowStart(w, opts.WindowSize, buf.SampleRate)
		if !g.accept(t) {
			continue
		}
		out = append(out, Beat{Time: t, Strength: ratio(peak, opts.Threshold, 0)})
	}
	return out
}
