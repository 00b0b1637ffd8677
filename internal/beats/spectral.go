package beats

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"

	"beatframe/internal/media/pcm"
)

func detectSpectral(buf pcm.Buffer, opts Options) []Beat {
	size := opts.WindowSize
	hann := window.Hann(size)

	floor := opts.Threshold * opts.Threshold
	history := newRolling(opts.HistoryWindows)
	g := newGate(opts.MinInterval)
	windows := len(buf.Samples) / size
	prev := make([]float64, size/2)
	frame := make([]float64, size)

	var out []Beat
	for w := 0; w < windows; w++ {
		raw := buf.Samples[w*size : (w+1)*size]
		for i := range frame {
			frame[i] = raw[i] * hann[i]
		}
		spectrum := fft.FFTReal(frame)

		var flux float64
		for j := range prev {
			mag := cmplx.Abs(spectrum[j])
			if d := mag - prev[j]; d > 0 {
				flux += d
			}
			prev[j] = mag
		}

		avg := history.mean()
		history.push(flux)

		// Quiet windows never count, whatever their flux.
		if meanSquare(raw) < floor || flux <= opts.Sensitivity*avg {
			continue
		}
		t := windowStart(w, size, buf.SampleRate)
		if !g.accept(t) {
			continue
		}
		out = append(out, Beat{Time: t, Strength: ratio(flux, avg, 0)})
	}
	return out
}
