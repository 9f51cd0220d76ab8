// Package ui renders terminal output for the spinner CLI.
package ui

import "fmt"

// ANSI256 color codes.
const (
	colorAccent  = 74  // blue
	colorWinner  = 114 // green
	colorWarning = 179 // amber
	colorCmd     = 250 // light gray
	colorMuted   = 245 // medium gray
)

var noColor bool

func render(code int, s string) string {
	if noColor || s == "" {
		return s
	}
	return fmt.Sprintf("\x1b[38;5;%dm%s\x1b[0m", code, s)
}

// RenderAccent returns s in the accent color, used for section headers.
func RenderAccent(s string) string { return render(colorAccent, s) }

// RenderWinner highlights the participant picked by a spin.
func RenderWinner(s string) string {
	if noColor || s == "" {
		return s
	}
	return fmt.Sprintf("\x1b[1;38;5;%dm%s\x1b[0m", colorWinner, s)
}

// RenderWarning returns s in the warning color.
func RenderWarning(s string) string { return render(colorWarning, s) }

// RenderMuted returns s in the muted color.
func RenderMuted(s string) string { return render(colorMuted, s) }

// RenderCommand returns s styled as a command name.
func RenderCommand(s string) string { return render(colorCmd, s) }

// RenderTrend colors a week-over-week trend label such as "+12%" or "-3%".
// Flat or unparseable labels are muted.
func RenderTrend(label string) string {
	switch {
	case label == "+0%":
		return RenderMuted(label)
	case len(label) > 1 && label[0] == '+':
		return render(colorWinner, label)
	case len(label) > 1 && label[0] == '-':
		return render(colorWarning, label)
	default:
		return RenderMuted(label)
	}
}

// SetColor enables or disables color output.
func SetColor(enabled bool) {
	noColor = !enabled
}
