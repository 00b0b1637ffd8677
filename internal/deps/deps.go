package deps

import (
	"fmt"
	"os/exec"
	"strings"
)

// Requirement names an external program beatframe shells out to.
type Requirement struct {
	Name        string
	Command     string
	Description string
	// Optional requirements downgrade a missing binary to a warning.
	Optional bool
}

// Status is the outcome of checking one Requirement. For available binaries
// Command holds the resolved path.
type Status struct {
	Requirement
	Available bool
	Detail    string
}

var lookPath = exec.LookPath

// MediaTools returns the requirements for the configured ffmpeg and ffprobe
// binaries.
func MediaTools(ffmpegBinary, ffprobeBinary string) []Requirement {
	return []Requirement{
		{Name: "FFmpeg", Command: ffmpegBinary, Description: "Required for audio decoding and export"},
		{Name: "FFprobe", Command: ffprobeBinary, Description: "Required for media inspection"},
	}
}

// CheckBinaries resolves every requirement on PATH (or as given, when it is
// already a path).
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, len(requirements))
	for i, req := range requirements {
		results[i] = checkBinary(req)
	}
	return results
}

func checkBinary(req Requirement) Status {
	req.Command = strings.TrimSpace(req.Command)
	req.Description = strings.TrimSpace(req.Description)
	st := Status{Requirement: req}
	if req.Command == "" {
		st.Detail = "command not configured"
		return st
	}
	resolved, err := lookPath(req.Command)
	if err != nil {
		st.Detail = fmt.Sprintf("binary %q not found", req.Command)
		return st
	}
	st.Command = resolved
	st.Available = true
	return st
}
