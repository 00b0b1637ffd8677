package textutil

import "testing"

func TestSanitizeFileName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Summer Night Mix", "Summer Night Mix"},
		{"  AC/DC: Live?  ", "AC-DC- Live"},
		{"a*b<c>d|e\"f", "a-bcdef"},
		{"   ", ""},
	}
	for _, tt := range tests {
		if got := SanitizeFileName(tt.in); got != tt.want {
			t.Errorf("SanitizeFileName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestOutputFileName(t *testing.T) {
	tests := []struct {
		title, fallback, ext, want string
	}{
		{"Night Drive", "slideshow", "mp4", "Night Drive.mp4"},
		{"Night Drive", "slideshow", ".webm", "Night Drive.webm"},
		{"???", "slideshow", "mp4", "slideshow.mp4"},
		{"..", "slideshow", "mp4", "slideshow.mp4"},
		{"Intro", "slideshow", "", "Intro"},
	}
	for _, tt := range tests {
		if got := OutputFileName(tt.title, tt.fallback, tt.ext); got != tt.want {
			t.Errorf("OutputFileName(%q) = %q, want %q", tt.title, got, tt.want)
		}
	}
}
