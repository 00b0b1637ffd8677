// Package pcm decodes audio tracks into mono floating-point sample buffers
// for beat analysis.
//
// Decoding shells out to ffmpeg, which handles every container and codec
// the user might hand us, and asks for signed 16-bit little-endian mono PCM
// at the analysis sample rate. The result is normalized to [-1, 1].
package pcm
