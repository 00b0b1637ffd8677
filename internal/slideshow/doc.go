// Package slideshow maps a beat timeline onto an image sequence.
//
// Build groups beats into change points and cycles through the images, so
// slide k always shows image k mod N. The resulting Plan is the single
// source of truth for both the browser preview (ImageAt on the audio clock)
// and the exporter (Frames quantized to the output frame rate), which keeps
// the two in agreement.
package slideshow
