package textutil

import (
	"path/filepath"
	"strings"
)

// fileNameReplacer replaces filesystem-unsafe characters with safe alternatives.
var fileNameReplacer = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	":", "-",
	"*", "-",
	"?", "",
	"\"", "",
	"<", "",
	">", "",
	"|", "",
)

// SanitizeFileName replaces filesystem-unsafe characters in a filename.
// Slashes, backslashes, colons, and asterisks become dashes; other unsafe
// characters are removed. The result is trimmed of leading/trailing whitespace.
func SanitizeFileName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	return strings.TrimSpace(fileNameReplacer.Replace(name))
}

// OutputFileName builds "<title>.<ext>" from a slideshow title, falling back
// to fallback when the title sanitizes to nothing.
func OutputFileName(title, fallback, ext string) string {
	stem := SanitizeFileName(title)
	stem = strings.Trim(stem, ".")
	if stem == "" {
		stem = fallback
	}
	ext = strings.TrimPrefix(strings.TrimSpace(ext), ".")
	if ext == "" {
		return filepath.Base(stem)
	}
	return filepath.Base(stem) + "." + ext
}
