package format

import (
	"math"
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// blockLeads are the eighth-cell glyphs used by block bars. Index 0 is the
// "nothing yet" glyph and is replaced by the configured empty glyph.
var blockLeads = []string{" ", "▏", "▎", "▍", "▌", "▋", "▊", "▉"}

// BarCounts returns the number of filled and empty cells for a bar of the
// given width: filled = floor(progress/max * width). Zero progress fills
// nothing and progress >= max fills every cell.
func BarCounts(progress, max float64, width int) (filled, empty int) {
	if width <= 0 {
		return 0, 0
	}
	if max <= 0 || progress <= 0 || math.IsNaN(progress) {
		return 0, width
	}
	if progress >= max {
		return width, 0
	}
	// Multiply before dividing so integral inputs stay exact.
	filled = int(math.Floor(progress * float64(width) / max))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return filled, width - filled
}

// Percent returns floor(progress/max * 100) limited to [0, 100].
func Percent(progress, max float64) int {
	if max <= 0 || progress <= 0 || math.IsNaN(progress) {
		return 0
	}
	if progress >= max {
		return 100
	}
	return int(math.Floor(progress * 100 / max))
}

// barCells describes the cells between the brackets before styling.
type barCells struct {
	filled int    // leading cells drawn with the fill glyph
	lead   string // optional in-progress glyph after the filled cells
	rest   int    // trailing cells drawn with the empty glyph
	before int    // indeterminate: empty cells before the lead
}

// standardCells lays out a whole-cell bar. The lead glyph takes the place of
// the first empty cell and only shows while progress is strictly between 0
// and max.
func standardCells(progress, max float64, width int, lead string) barCells {
	filled, empty := BarCounts(progress, max, width)
	if lead == "" || empty == 0 || progress <= 0 {
		return barCells{filled: filled, rest: empty}
	}
	return barCells{filled: filled, lead: lead, rest: empty - 1}
}

// blockCells lays out a bar with an eighth-cell lead glyph.
func blockCells(progress, max float64, width int, empty string) barCells {
	filled, rest := BarCounts(progress, max, width)
	if rest == 0 {
		return barCells{filled: filled}
	}
	exact := 0.0
	if max > 0 && progress > 0 {
		exact = progress * float64(width) / max
	}
	part := int(math.Floor((exact - float64(filled)) * float64(len(blockLeads))))
	if part < 0 {
		part = 0
	}
	if part >= len(blockLeads) {
		part = len(blockLeads) - 1
	}
	lead := blockLeads[part]
	if part == 0 {
		lead = empty
	}
	return barCells{filled: filled, lead: lead, rest: rest - 1}
}

// indeterminateCells places the lead at a position bouncing between the
// brackets, driven by the animation frame.
func indeterminateCells(frame, width int, lead string) barCells {
	leadWidth := ansi.StringWidth(lead)
	span := width - leadWidth
	if span < 0 {
		return barCells{lead: ansi.Truncate(lead, width, "")}
	}
	pos := 0
	if span > 0 {
		period := 2 * span
		f := frame % period
		if f < 0 {
			f += period
		}
		if f <= span {
			pos = f
		} else {
			pos = period - f
		}
	}
	return barCells{before: pos, lead: lead, rest: span - pos}
}

// plain joins the cells with the given glyphs, no styling.
func (c barCells) plain(fill, empty string) string {
	var sb strings.Builder
	sb.WriteString(strings.Repeat(empty, c.before))
	sb.WriteString(strings.Repeat(fill, c.filled))
	sb.WriteString(c.lead)
	sb.WriteString(strings.Repeat(empty, c.rest))
	return sb.String()
}
