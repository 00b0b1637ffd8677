// Package ffprobe runs ffprobe against a soundtrack and decodes its JSON
// report.
//
// Inspect returns a Result whose helpers pick the audio stream a slideshow is
// cut to, read its duration, and surface tags such as TITLE that name the
// exported video.
package ffprobe
