package ui

import (
	"strings"
	"testing"
)

func withColor(t *testing.T, enabled bool) {
	t.Helper()
	prev := noColor
	SetColor(enabled)
	t.Cleanup(func() { noColor = prev })
}

func TestRender_NoColor(t *testing.T) {
	withColor(t, false)
	for _, fn := range []func(string) string{RenderAccent, RenderWinner, RenderWarning, RenderMuted, RenderCommand, RenderTrend} {
		if got := fn("ada"); got != "ada" {
			t.Errorf("got %q, want plain text", got)
		}
	}
}

func TestRender_Color(t *testing.T) {
	withColor(t, true)

	if got := RenderAccent("x"); got != "\x1b[38;5;74mx\x1b[0m" {
		t.Errorf("RenderAccent = %q", got)
	}
	if got := RenderWinner("Ada"); !strings.HasPrefix(got, "\x1b[1;") || !strings.Contains(got, "Ada") {
		t.Errorf("RenderWinner = %q, want bold escape", got)
	}
	if got := RenderMuted(""); got != "" {
		t.Errorf("empty input should stay empty, got %q", got)
	}
}

func TestRenderTrend(t *testing.T) {
	withColor(t, true)
	for _, tc := range []struct {
		label string
		want  string
	}{
		{"+25%", render(colorWinner, "+25%")},
		{"-10%", render(colorWarning, "-10%")},
		{"+0%", render(colorMuted, "+0%")},
		{"n/a", render(colorMuted, "n/a")},
	} {
		if got := RenderTrend(tc.label); got != tc.want {
			t.Errorf("RenderTrend(%q) = %q, want %q", tc.label, got, tc.want)
		}
	}
}

func TestColorFromEnv(t *testing.T) {
	for _, tc := range []struct {
		name string
		env  map[string]string
		tty  bool
		want bool
	}{
		{"TTY", nil, true, true},
		{"Pipe", nil, false, false},
		{"NoColorWins", map[string]string{"NO_COLOR": "1", "CLICOLOR_FORCE": "1"}, true, false},
		{"Forced", map[string]string{"CLICOLOR_FORCE": "1"}, false, true},
		{"CliColorOff", map[string]string{"CLICOLOR": "0"}, true, false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			getenv := func(k string) string { return tc.env[k] }
			if got := colorFromEnv(getenv, func() bool { return tc.tty }); got != tc.want {
				t.Errorf("colorFromEnv = %v, want %v", got, tc.want)
			}
		})
	}
}
