package indicator

import (
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
)

// DefaultSpinnerFrames is a braille scan pattern.
var DefaultSpinnerFrames = []string{"⣾", "⣽", "⣻", "⢿", "⡿", "⣟", "⣯", "⣷"}

// Named frame sets. Most come from the bubbles spinner package so CLI
// spinners match the ones in Bubble Tea programs.
var spinnerPresets = map[string]spinner.Spinner{
	"braille":   {Frames: DefaultSpinnerFrames, FPS: 80 * time.Millisecond},
	"quarter":   {Frames: []string{"◐", "◓", "◑", "◒"}, FPS: time.Second / 10},
	"line":      spinner.Line,
	"dot":       spinner.Dot,
	"minidot":   spinner.MiniDot,
	"jump":      spinner.Jump,
	"pulse":     spinner.Pulse,
	"points":    spinner.Points,
	"globe":     spinner.Globe,
	"moon":      spinner.Moon,
	"monkey":    spinner.Monkey,
	"meter":     spinner.Meter,
	"hamburger": spinner.Hamburger,
	"ellipsis":  spinner.Ellipsis,
}

// SpinnerPreset returns a copy of the frames and the frame interval of a
// named preset.
func SpinnerPreset(name string) (frames []string, interval time.Duration, ok bool) {
	p, ok := spinnerPresets[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, 0, false
	}
	return append([]string(nil), p.Frames...), p.FPS, true
}

// SpinnerPresetNames lists the preset names in sorted order.
func SpinnerPresetNames() []string {
	names := make([]string, 0, len(spinnerPresets))
	for name := range spinnerPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SpinnerState is the animation part of an indicator: a frame counter that
// cycles modulo the frame count while the indicator is running.
type SpinnerState struct {
	Frames   []string
	Index    int
	Interval time.Duration
}

// Current returns the glyph for the current frame.
func (s SpinnerState) Current() string {
	if len(s.Frames) == 0 {
		return ""
	}
	return s.Frames[s.Index%len(s.Frames)]
}
