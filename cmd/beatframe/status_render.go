package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

const (
	statusLabelWidth = 20
	statusIndent     = "  "
)

// statusStyles is indexed by statusKind.
var statusStyles = [...]struct {
	label string
	color color.Attribute
}{
	statusInfo:  {"INFO", color.FgBlue},
	statusOK:    {"OK", color.FgGreen},
	statusWarn:  {"WARN", color.FgYellow},
	statusError: {"ERROR", color.FgRed},
}

// renderStatusLine formats one doctor row: "  Label:   [KIND] message".
func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	style := statusStyles[kind]
	badge := "[" + style.label + "]"
	if message != "" {
		badge += " " + message
	}
	line := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, label+":", badge)
	if colorize {
		return paint(style.color, line)
	}
	return line
}

func renderSectionHeader(title string, colorize bool) []string {
	heading := "== " + strings.TrimSpace(title) + " =="
	lines := []string{heading, strings.Repeat("-", len(heading))}
	if colorize {
		for i := range lines {
			lines[i] = paint(color.FgBlue, lines[i])
		}
	}
	return lines
}

// paint forces colour on; callers decide via shouldColorize.
func paint(attr color.Attribute, text string) string {
	c := color.New(attr)
	c.EnableColor()
	return c.Sprint(text)
}

// shouldColorize honours NO_COLOR and only colours terminals.
func shouldColorize(w io.Writer) bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	return isTerminalWriter(w)
}

func isTerminalWriter(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
