package format

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/x/ansi"
	"github.com/dustin/go-humanize"
)

// Ellipsis marks truncated text fields.
const Ellipsis = "…"

// Fit shortens s to at most width columns, ending with an ellipsis when
// something was cut.
func Fit(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if ansi.StringWidth(s) <= width {
		return s
	}
	return ansi.Truncate(s, width, Ellipsis)
}

// PadRight pads a possibly styled string with spaces to width visible
// columns, or cuts it when it is wider.
func PadRight(s string, width int) string {
	w := ansi.StringWidth(s)
	switch {
	case w == width:
		return s
	case w > width:
		s = ansi.Truncate(s, width, "")
		w = ansi.StringWidth(s)
	}
	if w < width {
		s += strings.Repeat(" ", width-w)
	}
	return s
}

// sanitize keeps a text field on one line.
func sanitize(s string) string {
	if !strings.ContainsAny(s, "\r\n\t") {
		return s
	}
	return strings.NewReplacer("\r", "", "\n", " ", "\t", " ").Replace(s)
}

// FormatDuration renders a duration as "MMm:SSs", or "HHh:MMm:SSs" from one hour up.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	if h > 0 {
		return fmt.Sprintf("%02dh:%02dm:%02ds", h, m, s)
	}
	return fmt.Sprintf("%02dm:%02ds", m, s)
}

// timeSegment builds " [elapsed<remaining]" according to the flags.
func timeSegment(elapsed, remaining time.Duration, showElapsed, showRemaining bool) string {
	switch {
	case showElapsed && showRemaining:
		return " [" + FormatDuration(elapsed) + "<" + FormatDuration(remaining) + "]"
	case showElapsed:
		return " [" + FormatDuration(elapsed) + "]"
	case showRemaining:
		return " [" + FormatDuration(remaining) + "]"
	}
	return ""
}

// formatNumber prints integral values without a decimal point.
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// formatBytes renders a byte count in SI units ("3.0 MB").
func formatBytes(v float64) string {
	if v < 0 {
		v = 0
	}
	return humanize.Bytes(uint64(v))
}

// Summary renders the line that stands in for rows that did not fit on
// screen. A width of zero or less disables padding.
func Summary(hidden, width int) string {
	line := fmt.Sprintf("+%d more", hidden)
	if width <= 0 {
		return line
	}
	return PadRight(Fit(line, width), width)
}
