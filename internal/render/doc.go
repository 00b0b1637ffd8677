// Package render exports a slideshow plan to a video file with ffmpeg.
//
// The exporter writes an ffmpeg concat script from the plan's frame-quantized
// spans, so every image change lands on the same frame the preview shows,
// then encodes the stills against the original audio track. Output is
// written to a hidden partial file beside the destination and renamed into
// place once ffmpeg succeeds; a file lock next to the destination keeps two
// exports from racing on the same path.
//
// Optionally the finished export is handed to Drapto for an AV1 archive copy.
package render
