package format

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/rileyhilliard/indica/pkg/indicator"
)

// Palette using ANSI colour codes for broad terminal compatibility.
const (
	ColorSuccess   lipgloss.Color = "2" // Green
	ColorError     lipgloss.Color = "1" // Red
	ColorWarning   lipgloss.Color = "3" // Yellow
	ColorSecondary lipgloss.Color = "4" // Blue
	ColorMuted     lipgloss.Color = "8" // Gray (bright black)
)

var fixedColors = map[indicator.ColorStyle]lipgloss.Color{
	indicator.ColorGrey:    "8",
	indicator.ColorRed:     "1",
	indicator.ColorGreen:   "2",
	indicator.ColorYellow:  "3",
	indicator.ColorBlue:    "4",
	indicator.ColorMagenta: "5",
	indicator.ColorCyan:    "6",
	indicator.ColorWhite:   "7",
}

// Gradient end points for ColorGradient.
const (
	GradientStart = "#5A56E0"
	GradientEnd   = "#EE6FF8"
)

// Style is the resolved look of one indicator: lipgloss styles computed
// once from its Config. A Style is immutable after NewStyle, so Line and
// Plain are pure functions of their arguments.
type Style struct {
	cfg indicator.Config

	text     lipgloss.Style   // prefix, postfix, metrics
	bar      lipgloss.Style   // fixed colour for filled cells and spinner frames
	colored  bool             // bar carries a colour
	cells    []lipgloss.Style // ColorGradient: one style per cell
	low      lipgloss.Style   // ColorThreshold tiers
	mid      lipgloss.Style
	high     lipgloss.Style
	success  lipgloss.Style
	failure  lipgloss.Style
	barWidth int
}

// NewStyle resolves the colour variant and style flags of cfg against a
// renderer. A nil renderer uses the lipgloss default renderer.
func NewStyle(cfg indicator.Config, r *lipgloss.Renderer) *Style {
	if r == nil {
		r = lipgloss.DefaultRenderer()
	}
	if cfg.BarWidth <= 0 {
		cfg.BarWidth = indicator.DefaultBarWidth
	}

	base := r.NewStyle()
	if cfg.Styles.Has(indicator.StyleBold) {
		base = base.Bold(true)
	}
	if cfg.Styles.Has(indicator.StyleFaint) {
		base = base.Faint(true)
	}
	if cfg.Styles.Has(indicator.StyleItalic) {
		base = base.Italic(true)
	}
	if cfg.Styles.Has(indicator.StyleUnderline) {
		base = base.Underline(true)
	}
	if cfg.Styles.Has(indicator.StyleBlink) {
		base = base.Blink(true)
	}
	if cfg.Styles.Has(indicator.StyleReverse) {
		base = base.Reverse(true)
	}
	if cfg.Styles.Has(indicator.StyleStrikethrough) {
		base = base.Strikethrough(true)
	}

	st := &Style{
		cfg:      cfg,
		text:     base,
		bar:      base,
		low:      base.Foreground(ColorSecondary),
		mid:      base.Foreground(ColorWarning),
		high:     base.Foreground(ColorSuccess),
		success:  base.Foreground(ColorSuccess),
		failure:  base.Foreground(ColorError),
		barWidth: cfg.BarWidth,
	}

	switch cfg.Color {
	case indicator.ColorNone:
	case indicator.ColorThreshold:
		st.colored = true
	case indicator.ColorGradient:
		st.colored = true
		st.cells = gradientStyles(base, cfg.BarWidth)
		st.bar = st.cells[0]
	default:
		if c, ok := fixedColors[cfg.Color]; ok {
			st.bar = base.Foreground(c)
			st.colored = true
		}
	}
	return st
}

// gradientStyles blends GradientStart to GradientEnd across n cells.
func gradientStyles(base lipgloss.Style, n int) []lipgloss.Style {
	start, _ := colorful.Hex(GradientStart)
	end, _ := colorful.Hex(GradientEnd)
	styles := make([]lipgloss.Style, n)
	for i := range styles {
		t := 0.0
		if n > 1 {
			t = float64(i) / float64(n-1)
		}
		styles[i] = base.Foreground(lipgloss.Color(start.BlendLuv(end, t).Clamped().Hex()))
	}
	return styles
}

// Config returns the configuration the style was resolved from.
func (s *Style) Config() indicator.Config {
	return s.cfg
}

// segment is one piece of a line with its style.
type segment struct {
	text  string
	plain string // unstyled text, set when raw
	style *lipgloss.Style
	raw   bool // text is already styled
}

func (seg segment) width() int {
	if seg.raw {
		return ansi.StringWidth(seg.plain)
	}
	return ansi.StringWidth(seg.text)
}

// Line renders a snapshot as exactly width visible columns: text fields
// are truncated when the line would overflow and the line is right-padded
// otherwise. A width of zero or less renders the full line without padding.
func (s *Style) Line(snap indicator.Snapshot, width int) string {
	prefix := sanitize(snap.Prefix)
	postfix := sanitize(snap.Postfix)

	head, body, tail := s.fixedSegments(snap)

	if width > 0 {
		fixed := 0
		for _, seg := range append(append(append([]segment{}, head...), body...), tail...) {
			fixed += seg.width()
		}
		avail := width - fixed
		if avail < 0 {
			avail = 0
		}
		prefix = Fit(prefix, avail)
		avail -= ansi.StringWidth(prefix)
		if postfix != "" {
			if avail > 1 {
				postfix = Fit(postfix, avail-1)
			} else {
				postfix = ""
			}
		}
	}

	var sb strings.Builder
	for _, seg := range head {
		sb.WriteString(seg.render())
	}
	sb.WriteString(render(s.text, prefix))
	for _, seg := range body {
		sb.WriteString(seg.render())
	}
	for _, seg := range tail {
		sb.WriteString(seg.render())
	}
	if postfix != "" {
		sb.WriteString(render(s.text, " "+postfix))
	}

	line := sb.String()
	if width <= 0 {
		return line
	}
	return PadRight(line, width)
}

// Plain renders the full line without padding or truncation, for output
// that is not redrawn in place.
func (s *Style) Plain(snap indicator.Snapshot) string {
	return s.Line(snap, 0)
}

// fixedSegments returns the parts of a line that are never truncated:
// the spinner symbol (head), the bar (body) and the metrics (tail).
func (s *Style) fixedSegments(snap indicator.Snapshot) (head, body, tail []segment) {
	cfg := s.cfg

	if snap.Kind == indicator.KindSpinner {
		head = append(head, s.spinnerSymbol(snap), segment{text: " ", style: &s.text})
	} else {
		body = append(body, s.barSegment(snap))
	}

	var metrics strings.Builder
	if cfg.ShowPercentage {
		metrics.WriteString(fmt.Sprintf(" %3d%%", Percent(snap.Progress, snap.Max)))
	}
	switch cfg.Count {
	case indicator.CountPlain:
		metrics.WriteString(" " + formatNumber(snap.Progress) + "/" + formatNumber(snap.Max))
	case indicator.CountBytes:
		metrics.WriteString(" " + formatBytes(snap.Progress) + "/" + formatBytes(snap.Max))
	}
	metrics.WriteString(timeSegment(snap.Elapsed, snap.Remaining, cfg.ShowElapsedTime, cfg.ShowRemainingTime))
	if metrics.Len() > 0 {
		tail = append(tail, segment{text: metrics.String(), style: &s.text})
	}
	return head, body, tail
}

func (s *Style) spinnerSymbol(snap indicator.Snapshot) segment {
	switch snap.Status {
	case indicator.StatusCompleted:
		return segment{text: s.cfg.CompletedSymbol, style: &s.success}
	case indicator.StatusStopped:
		return segment{text: s.cfg.StoppedSymbol, style: &s.failure}
	}
	return segment{text: snap.Spinner.Current(), style: s.frameStyle(snap)}
}

// frameStyle picks the colour for spinner frames and filled cells.
func (s *Style) frameStyle(snap indicator.Snapshot) *lipgloss.Style {
	switch {
	case s.cfg.Color == indicator.ColorThreshold:
		f := snap.Fraction()
		switch {
		case f >= 0.8:
			return &s.high
		case f >= 0.5:
			return &s.mid
		default:
			return &s.low
		}
	case len(s.cells) > 0 && snap.Kind == indicator.KindSpinner:
		return &s.cells[snap.Spinner.Index%len(s.cells)]
	}
	return &s.bar
}

func (s *Style) barSegment(snap indicator.Snapshot) segment {
	cfg := s.cfg
	width := s.barWidth

	var cells barCells
	switch snap.Kind {
	case indicator.KindBlock:
		cells = blockCells(snap.Progress, snap.Max, width, cfg.Empty)
	case indicator.KindIndeterminate:
		if snap.Status == indicator.StatusCompleted {
			cells = barCells{filled: width}
		} else {
			cells = indeterminateCells(snap.Spinner.Index, width, cfg.Lead)
		}
	default:
		cells = standardCells(snap.Progress, snap.Max, width, cfg.Lead)
	}

	plain := cfg.Start + cells.plain(cfg.Fill, cfg.Empty) + cfg.End
	if !s.colored {
		return segment{text: plain, style: &s.text}
	}

	var sb strings.Builder
	sb.WriteString(render(s.text, cfg.Start))
	sb.WriteString(render(s.text, strings.Repeat(cfg.Empty, cells.before)))
	if len(s.cells) > 0 {
		for i := 0; i < cells.filled && i < len(s.cells); i++ {
			sb.WriteString(render(s.cells[i], cfg.Fill))
		}
		if cells.lead != "" {
			idx := cells.before + cells.filled
			if idx >= len(s.cells) {
				idx = len(s.cells) - 1
			}
			sb.WriteString(render(s.cells[idx], cells.lead))
		}
	} else {
		fs := s.frameStyle(snap)
		sb.WriteString(render(*fs, strings.Repeat(cfg.Fill, cells.filled)+cells.lead))
	}
	sb.WriteString(render(s.text, strings.Repeat(cfg.Empty, cells.rest)))
	sb.WriteString(render(s.text, cfg.End))
	return segment{text: sb.String(), raw: true, plain: plain}
}

func (seg segment) render() string {
	if seg.raw {
		return seg.text
	}
	return render(*seg.style, seg.text)
}

// render skips empty strings so no bare escape sequences are emitted.
func render(st lipgloss.Style, s string) string {
	if s == "" {
		return ""
	}
	return st.Render(s)
}
