// Package drapto wraps the Drapto Go library to produce AV1 archive copies of
// exported slideshows.
//
// Client is the narrow interface the exporter depends on. Library calls
// Drapto in-process and adapts its Reporter callbacks into ProgressUpdate
// values, so tests can substitute a fake without running an encoder.
package drapto
