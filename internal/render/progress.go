package render

import (
	"bufio"
	"io"
	"strconv"
	"strings"
	"time"
)

// readProgress parses ffmpeg -progress key=value blocks from r and emits one
// Progress per block. total is the expected output length.
func readProgress(r io.Reader, total time.Duration, emit func(Progress)) error {
	scanner := bufio.NewScanner(r)
	var current Progress
	current.Stage = "encoding"
	for scanner.Scan() {
		key, value, ok := strings.Cut(strings.TrimSpace(scanner.Text()), "=")
		if !ok {
			continue
		}
		switch key {
		case "out_time_us", "out_time_ms":
			// ffmpeg reports out_time_ms in microseconds as well.
			if us, err := strconv.ParseInt(value, 10, 64); err == nil && us >= 0 {
				current.OutTime = time.Duration(us) * time.Microsecond
			}
		case "frame":
			if n, err := strconv.Atoi(value); err == nil {
				current.Frame = n
			}
		case "speed":
			current.Speed = strings.TrimSpace(value)
		case "progress":
			current.Done = value == "end"
			current.Percent = percentOf(current.OutTime, total)
			if current.Done {
				current.Percent = 100
			}
			if emit != nil {
				emit(current)
			}
		}
	}
	return scanner.Err()
}

func percentOf(done, total time.Duration) float64 {
	if total <= 0 {
		return 0
	}
	p := float64(done) / float64(total) * 100
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	default:
		return p
	}
}
