package beats

import "beatframe/internal/media/pcm"

func detectEnergy(buf pcm.Buffer, opts Options) []Beat {
	floor := opts.Threshold * opts.Threshold
	history := newRolling(opts.HistoryWindows)
	g := newGate(opts.MinInterval)
	windows := len(buf.Samples) / opts.WindowSize

	var out []Beat
	for w := 0; w < windows; w++ {
		frame := buf.Samples[w*opts.WindowSize : (w+1)*opts.WindowSize]
		energy := meanSquare(frame)
		avg := history.mean()
		history.push(energy)

		if energy < floor || energy <= opts.Sensitivity*avg {
			continue
		}
		t := windowStart(w, opts.WindowSize, buf.SampleRate)
		if !g.accept(t) {
			continue
		}
		out = append(out, Beat{Time: t, Strength: ratio(energy, avg, floor)})
	}
	return out
}

func meanSquare(frame []float64) float64 {
	var sum float64
	for _, s := range frame {
		sum += s * s
	}
	return sum / float64(len(frame))
}

// ratio reports value relative to base, falling back to the noise floor when
// there is no history yet. The result is never below 1.
func ratio(value, base, floor float64) float64 {
	if base <= 0 {
		base = floor
	}
	if base <= 0 {
		return 1
	}
	r := value / base
	if r < 1 {
		return 1
	}
	return r
}
