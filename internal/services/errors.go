package services

import (
	"errors"
	"strings"
)

// Error kinds. Every error beatframe surfaces to the user is tagged with one
// of these so the CLI can suggest a next step.
var (
	ErrExternalTool  = errors.New("external tool error")
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
	ErrInternal      = errors.New("internal error")
)

// StageError records where in the pipeline (analyze, plan, export, ...) a
// failure happened alongside its kind and underlying cause.
type StageError struct {
	Kind      error
	Stage     string
	Operation string
	Message   string
	Err       error
}

func (e *StageError) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.Error())
	b.WriteString(": ")
	n := b.Len()
	for _, part := range []string{e.Stage, e.Operation, e.Message} {
		if part == "" {
			continue
		}
		if b.Len() > n {
			b.WriteString(": ")
		}
		b.WriteString(part)
	}
	if b.Len() == n {
		b.WriteString("unspecified failure")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *StageError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Wrap tags err with kind and the stage/operation it came from. A nil kind
// is treated as ErrInternal; err may be nil for failures detected locally.
func Wrap(kind error, stage, operation, message string, err error) error {
	if kind == nil {
		kind = ErrInternal
	}
	return &StageError{
		Kind:      kind,
		Stage:     strings.TrimSpace(stage),
		Operation: strings.TrimSpace(operation),
		Message:   strings.TrimSpace(message),
		Err:       err,
	}
}

// StageOf reports the pipeline stage recorded on the outermost StageError in
// err's chain.
func StageOf(err error) (string, bool) {
	var se *StageError
	if errors.As(err, &se) && se.Stage != "" {
		return se.Stage, true
	}
	return "", false
}

var hints = []struct {
	kind error
	hint string
}{
	{ErrExternalTool, "run `beatframe doctor` to verify ffmpeg and ffprobe"},
	{ErrConfiguration, "run `beatframe config validate` and fix the reported key"},
	{ErrValidation, "check the input files and flags"},
	{ErrNotFound, "check the input files and flags"},
}

// Hint maps an error to the next step a user should take, or "" when the
// error is not classified.
func Hint(err error) string {
	if err == nil {
		return ""
	}
	for _, h := range hints {
		if errors.Is(err, h.kind) {
			return h.hint
		}
	}
	return ""
}
