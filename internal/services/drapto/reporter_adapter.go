package drapto

import (
	draptolib "github.com/five82/drapto"
)

// archiveReporter forwards the Drapto events an export cares about. Hardware,
// crop, and batch chatter is dropped.
type archiveReporter struct {
	callback func(ProgressUpdate)
}

func newArchiveReporter(callback func(ProgressUpdate)) *archiveReporter {
	return &archiveReporter{callback: callback}
}

func (r *archiveReporter) Hardware(draptolib.HardwareSummary) {}

func (r *archiveReporter) Initialization(draptolib.InitializationSummary) {}

func (r *archiveReporter) StageProgress(s draptolib.StageProgress) {
	update := ProgressUpdate{
		Type:    EventTypeStage,
		Percent: float64(s.Percent),
		Stage:   s.Stage,
		Message: s.Message,
	}
	if s.ETA != nil {
		update.ETA = *s.ETA
	}
	r.callback(update)
}

func (r *archiveReporter) CropResult(draptolib.CropSummary) {}

func (r *archiveReporter) EncodingConfig(draptolib.EncodingConfigSummary) {}

func (r *archiveReporter) EncodingStarted(uint64) {
	r.callback(ProgressUpdate{Type: EventTypeEncoding, Stage: "encoding"})
}

func (r *archiveReporter) EncodingProgress(s draptolib.ProgressSnapshot) {
	r.callback(ProgressUpdate{
		Type:    EventTypeEncoding,
		Percent: float64(s.Percent),
		Stage:   "encoding",
		Speed:   float64(s.Speed),
		FPS:     float64(s.FPS),
		ETA:     s.ETA,
	})
}

func (r *archiveReporter) ValidationComplete(draptolib.ValidationSummary) {}

func (r *archiveReporter) EncodingComplete(s draptolib.EncodingOutcome) {
	r.callback(ProgressUpdate{
		Type:       EventTypeComplete,
		Percent:    100,
		Stage:      "complete",
		OutputPath: s.OutputPath,
	})
}

func (r *archiveReporter) Warning(message string) {
	r.callback(ProgressUpdate{Type: EventTypeWarning, Message: message})
}

func (r *archiveReporter) Error(e draptolib.ReporterError) {
	r.callback(ProgressUpdate{Type: EventTypeError, Stage: e.Title, Message: e.Message})
}

func (r *archiveReporter) OperationComplete(message string) {
	r.callback(ProgressUpdate{Type: EventTypeComplete, Message: message})
}

func (r *archiveReporter) BatchStarted(draptolib.BatchStartInfo) {}

func (r *archiveReporter) FileProgress(draptolib.FileProgressContext) {}

func (r *archiveReporter) BatchComplete(draptolib.BatchSummary) {}

var _ draptolib.Reporter = (*archiveReporter)(nil)
