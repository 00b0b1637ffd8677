package logging

import "strings"

// ProgressSampler thins export progress logging to one line per step of
// completion within a stage ("render", "archive"). Moving to a new stage
// always logs.
type ProgressSampler struct {
	step  float64
	stage string
	next  float64
}

// NewProgressSampler returns a sampler that logs every step percent; a
// non-positive step means 10.
func NewProgressSampler(step float64) *ProgressSampler {
	if step <= 0 {
		step = 10
	}
	return &ProgressSampler{step: step}
}

// ShouldLog reports whether an update at percent within stage deserves a log
// line. Negative percent means the encoder has not reported a position yet.
// A nil sampler logs everything.
func (s *ProgressSampler) ShouldLog(percent float64, stage string) bool {
	if s == nil {
		return true
	}
	stageChanged := false
	if stage = strings.TrimSpace(stage); stage != "" && stage != s.stage {
		s.stage = stage
		s.next = 0
		stageChanged = true
	}
	if percent < 0 || percent < s.next {
		return stageChanged
	}
	percent = min(percent, 100)
	s.next = (float64(int(percent/s.step)) + 1) * s.step
	return true
}
