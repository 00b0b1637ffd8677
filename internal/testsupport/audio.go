package testsupport

import (
	"math"

	"beatframe/internal/media/pcm"
)

// ClickTrack synthesizes a low-noise signal with a loud 440 Hz burst of
// clickLen samples starting at every multiple of interval samples. The noise
// floor alternates +/-0.01 so its energy stays well below typical thresholds.
func ClickTrack(sampleRate, total, interval, clickLen int) pcm.Buffer {
	samples := make([]float64, total)
	for i := range samples {
		if i%2 == 0 {
			samples[i] = 0.01
		} else {
			samples[i] = -0.01
		}
	}
	if interval > 0 {
		for start := 0; start < total; start += interval {
			for j := 0; j < clickLen && start+j < total; j++ {
				samples[start+j] = 0.8 * math.Sin(2*math.Pi*440*float64(j)/float64(sampleRate))
			}
		}
	}
	return pcm.Buffer{Samples: samples, SampleRate: sampleRate}
}

// Silence returns total zero samples.
func Silence(sampleRate, total int) pcm.Buffer {
	return pcm.Buffer{Samples: make([]float64, total), SampleRate: sampleRate}
}
