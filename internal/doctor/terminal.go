package doctor

import (
	"fmt"
	"os"

	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/termenv"
	"github.com/rileyhilliard/indica/internal/config"
	"github.com/rileyhilliard/indica/pkg/surface"
)

// minLineWidth is the narrowest line that fits a default bar with its
// percentage.
const minLineWidth = 40

// ProfileName returns a readable name for a colour profile.
func ProfileName(p termenv.Profile) string {
	switch p {
	case termenv.TrueColor:
		return "true colour"
	case termenv.ANSI256:
		return "256 colours"
	case termenv.ANSI:
		return "16 colours"
	default:
		return "no colour"
	}
}

// TerminalCheck reports whether indicators can redraw in place.
type TerminalCheck struct {
	Surface *surface.Surface
}

func (c *TerminalCheck) Name() string     { return "terminal" }
func (c *TerminalCheck) Category() string { return "TERMINAL" }

func (c *TerminalCheck) Run() CheckResult {
	if !c.Surface.Interactive() {
		return CheckResult{
			Status:     StatusWarn,
			Message:    "Output is not a terminal, indicators print one line when they finish",
			Suggestion: "Run indica directly in a terminal to see live updates",
		}
	}
	return CheckResult{
		Status:  StatusPass,
		Message: "Interactive terminal, indicators redraw in place",
	}
}

func (c *TerminalCheck) Fix() error { return nil }

// ColorCheck reports the colour profile in use.
type ColorCheck struct {
	Surface *surface.Surface
	Mode    string // output.color setting
}

func (c *ColorCheck) Name() string     { return "color" }
func (c *ColorCheck) Category() string { return "TERMINAL" }

func (c *ColorCheck) Run() CheckResult {
	profile := c.Surface.Profile()
	msg := fmt.Sprintf("Colour profile: %s", ProfileName(profile))

	if profile == termenv.Ascii && c.Surface.Interactive() && c.Mode != "never" {
		suggestion := "Set COLORTERM=truecolor if your terminal supports colour"
		if os.Getenv("NO_COLOR") != "" {
			suggestion = "NO_COLOR is set in the environment"
		}
		return CheckResult{
			Status:     StatusWarn,
			Message:    msg,
			Suggestion: suggestion,
		}
	}
	return CheckResult{Status: StatusPass, Message: msg}
}

func (c *ColorCheck) Fix() error { return nil }

// SizeCheck reports whether the window can hold indicator rows.
type SizeCheck struct {
	Surface *surface.Surface
}

func (c *SizeCheck) Name() string     { return "size" }
func (c *SizeCheck) Category() string { return "TERMINAL" }

func (c *SizeCheck) Run() CheckResult {
	width, height := c.Surface.Size()
	msg := fmt.Sprintf("Window: %d columns, %d rows", width, height)

	switch {
	case height < 2:
		return CheckResult{
			Status:     StatusFail,
			Message:    msg,
			Suggestion: "Indicators need at least two rows, make the window taller",
		}
	case width < minLineWidth:
		return CheckResult{
			Status:     StatusWarn,
			Message:    msg,
			Suggestion: fmt.Sprintf("Lines are truncated below %d columns", minLineWidth),
		}
	}
	return CheckResult{
		Status:  StatusPass,
		Message: fmt.Sprintf("%s, up to %d indicators visible", msg, height-1),
	}
}

func (c *SizeCheck) Fix() error { return nil }

// GlyphCheck reports bar and spinner glyphs that don't occupy exactly one
// column, which makes bars and spinner frames change width. Widths are
// measured the way rows are rendered. With EastAsian set (a CJK locale)
// glyphs of ambiguous width are flagged too, since such terminals usually
// draw them two columns wide.
type GlyphCheck struct {
	Config    *config.Config
	EastAsian bool
}

func (c *GlyphCheck) Name() string     { return "glyphs" }
func (c *GlyphCheck) Category() string { return "CONFIG" }

func (c *GlyphCheck) Run() CheckResult {
	bar := c.Config.Bar
	for _, g := range []struct{ key, glyph string }{
		{"bar.fill", bar.Fill},
		{"bar.empty", bar.Empty},
	} {
		if w := ansi.StringWidth(g.glyph); w != 1 {
			return CheckResult{
				Status:     StatusWarn,
				Message:    fmt.Sprintf("%s %q is %d columns wide", g.key, g.glyph, w),
				Suggestion: "Use a single-column glyph so bars keep their width",
			}
		}
		if c.EastAsian && ambiguous(g.glyph) {
			return CheckResult{
				Status:     StatusWarn,
				Message:    fmt.Sprintf("%s %q may be drawn two columns wide in this locale", g.key, g.glyph),
				Suggestion: "Use ASCII glyphs (for example fill: \"#\", empty: \"-\") or set RUNEWIDTH_EASTASIAN=0",
			}
		}
	}

	frames := c.Config.Spinner.Frames
	if len(frames) == 0 {
		return CheckResult{Status: StatusPass, Message: "Glyph widths are consistent"}
	}
	want := ansi.StringWidth(frames[0])
	for _, f := range frames[1:] {
		if ansi.StringWidth(f) != want {
			return CheckResult{
				Status:     StatusWarn,
				Message:    fmt.Sprintf("Spinner frame %q is not %d columns wide", f, want),
				Suggestion: "Pad spinner frames to the same width so the line doesn't jitter",
			}
		}
	}
	return CheckResult{Status: StatusPass, Message: "Glyph widths are consistent"}
}

func (c *GlyphCheck) Fix() error { return nil }

// EastAsianLocale reports whether the locale makes ambiguous-width runes
// two columns wide (RUNEWIDTH_EASTASIAN, LC_ALL, LC_CTYPE, LANG).
func EastAsianLocale() bool {
	return runewidth.DefaultCondition.EastAsianWidth
}

func ambiguous(s string) bool {
	for _, r := range s {
		if runewidth.IsAmbiguousWidth(r) {
			return true
		}
	}
	return false
}
