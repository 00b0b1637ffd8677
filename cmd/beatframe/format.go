package main

import (
	"fmt"
	"time"
)

func formatSeconds(seconds float64) string {
	return fmt.Sprintf("%.3fs", seconds)
}

func formatTempo(bpm float64) string {
	if bpm <= 0 {
		return "n/a"
	}
	return fmt.Sprintf("%.1f BPM", bpm)
}

func formatElapsed(d time.Duration) string {
	return d.Round(100 * time.Millisecond).String()
}
