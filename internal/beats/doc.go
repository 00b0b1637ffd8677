// Package beats finds rhythmic onsets in decoded audio.
//
// Three detectors share one contract: they scan consecutive fixed-size
// windows of a pcm.Buffer and emit a strictly increasing Timeline whose
// beats are at least Options.MinInterval apart.
//
//   - energy compares each window's mean-square energy against the rolling
//     average of the preceding HistoryWindows windows.
//   - amplitude is the plain peak-over-threshold scan.
//   - spectral tracks positive spectral flux of a Hann-windowed FFT.
//
// Detect never fails on short or silent input; it returns an empty Timeline.
package beats
