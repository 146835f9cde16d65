package indicator

import (
	"fmt"
	"strings"
	"time"

	"github.com/rileyhilliard/indica/internal/errors"
	"github.com/rileyhilliard/indica/internal/logger"
)

// Kind selects how an indicator is drawn.
type Kind int

const (
	KindBar           Kind = iota // [████░░░░] with whole-cell fill
	KindBlock                     // [███▍    ] with eighth-cell lead glyphs
	KindIndeterminate             // [  <==>  ] bouncing lead, no known progress
	KindSpinner                   // ⣾ animated frame
)

var kindNames = map[Kind]string{
	KindBar:           "bar",
	KindBlock:         "block",
	KindIndeterminate: "indeterminate",
	KindSpinner:       "spinner",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind maps a kind name ("bar", "block", "indeterminate", "spinner") to a Kind.
func ParseKind(name string) (Kind, error) {
	for k, n := range kindNames {
		if strings.EqualFold(n, strings.TrimSpace(name)) {
			return k, nil
		}
	}
	return KindBar, errors.New(errors.ErrConfig,
		fmt.Sprintf("Unknown indicator kind %q", name),
		"Use one of: bar, block, indeterminate, spinner")
}

// ColorStyle is the closed set of colour treatments an indicator can use.
// It is resolved to concrete terminal styles once, when the indicator is
// registered with a render engine.
type ColorStyle int

const (
	ColorNone ColorStyle = iota
	ColorGrey
	ColorRed
	ColorGreen
	ColorYellow
	ColorBlue
	ColorMagenta
	ColorCyan
	ColorWhite
	ColorThreshold // blue below 50%, yellow below 80%, green above
	ColorGradient  // per-cell blend across the filled part of the bar
)

var colorNames = []string{
	ColorNone:      "none",
	ColorGrey:      "grey",
	ColorRed:       "red",
	ColorGreen:     "green",
	ColorYellow:    "yellow",
	ColorBlue:      "blue",
	ColorMagenta:   "magenta",
	ColorCyan:      "cyan",
	ColorWhite:     "white",
	ColorThreshold: "threshold",
	ColorGradient:  "gradient",
}

func (c ColorStyle) String() string {
	if int(c) >= 0 && int(c) < len(colorNames) {
		return colorNames[c]
	}
	return fmt.Sprintf("ColorStyle(%d)", int(c))
}

// ParseColorStyle maps a colour name to a ColorStyle. "gray" is accepted as
// an alias for grey and the empty string means none.
func ParseColorStyle(name string) (ColorStyle, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	switch n {
	case "":
		return ColorNone, nil
	case "gray":
		return ColorGrey, nil
	}
	for i, cn := range colorNames {
		if cn == n {
			return ColorStyle(i), nil
		}
	}
	return ColorNone, errors.New(errors.ErrConfig,
		fmt.Sprintf("Unknown color style %q", name),
		"Use one of: "+strings.Join(colorNames, ", "))
}

// StyleFlags is a set of text attributes applied to the whole line.
type StyleFlags uint8

const (
	StyleBold StyleFlags = 1 << iota
	StyleFaint
	StyleItalic
	StyleUnderline
	StyleBlink
	StyleReverse
	StyleStrikethrough
)

var styleNames = map[string]StyleFlags{
	"bold":          StyleBold,
	"faint":         StyleFaint,
	"dim":           StyleFaint,
	"italic":        StyleItalic,
	"underline":     StyleUnderline,
	"blink":         StyleBlink,
	"reverse":       StyleReverse,
	"strikethrough": StyleStrikethrough,
	"crossed":       StyleStrikethrough,
}

// Has reports whether every flag in f is set.
func (s StyleFlags) Has(f StyleFlags) bool {
	return s&f == f
}

// ParseStyleFlags combines named attributes into a StyleFlags set.
func ParseStyleFlags(names []string) (StyleFlags, error) {
	var flags StyleFlags
	for _, name := range names {
		f, ok := styleNames[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return 0, errors.New(errors.ErrConfig,
				fmt.Sprintf("Unknown style %q", name),
				"Use any of: bold, faint, italic, underline, blink, reverse, strikethrough")
		}
		flags |= f
	}
	return flags, nil
}

// CountUnit controls the optional "done/total" segment.
type CountUnit int

const (
	CountNone  CountUnit = iota
	CountPlain           // 3/10
	CountBytes           // 3.0 MB/10 MB
)

// ParseCountUnit maps "", "none", "plain" and "bytes" to a CountUnit.
func ParseCountUnit(name string) (CountUnit, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "none":
		return CountNone, nil
	case "plain", "count":
		return CountPlain, nil
	case "bytes":
		return CountBytes, nil
	}
	return CountNone, errors.New(errors.ErrConfig,
		fmt.Sprintf("Unknown count unit %q", name),
		"Use one of: none, plain, bytes")
}

// Default glyphs and symbols.
const (
	DefaultFill            = "█"
	DefaultEmpty           = "░"
	DefaultStart           = "["
	DefaultEnd             = "]"
	DefaultIndeterminate   = "<==>"
	DefaultCompletedSymbol = "✓"
	DefaultStoppedSymbol   = "✗"
	DefaultBarWidth        = 30
	DefaultMax             = 100.0
)

// Config is the immutable display configuration of an indicator.
type Config struct {
	Kind              Kind
	BarWidth          int
	Fill              string // glyph for a filled cell
	Empty             string // glyph for an empty cell
	Lead              string // in-progress glyph drawn after the filled cells
	Start             string
	End               string
	ShowPercentage    bool
	ShowElapsedTime   bool
	ShowRemainingTime bool
	Count             CountUnit
	SpinnerFrames     []string
	Interval          time.Duration // spinner / indeterminate frame interval
	Color             ColorStyle
	Styles            StyleFlags
	Max               float64
	Prefix            string
	Postfix           string
	CompletedSymbol   string
	StoppedSymbol     string
}

// DefaultConfig returns the defaults for a kind.
func DefaultConfig(kind Kind) Config {
	cfg := Config{
		Kind:            kind,
		BarWidth:        DefaultBarWidth,
		Fill:            DefaultFill,
		Empty:           DefaultEmpty,
		Start:           DefaultStart,
		End:             DefaultEnd,
		ShowPercentage:  true,
		SpinnerFrames:   DefaultSpinnerFrames,
		Interval:        80 * time.Millisecond,
		Max:             DefaultMax,
		CompletedSymbol: DefaultCompletedSymbol,
		StoppedSymbol:   DefaultStoppedSymbol,
	}

	switch kind {
	case KindBlock:
		cfg.Empty = " "
	case KindIndeterminate:
		cfg.Empty = " "
		cfg.Lead = DefaultIndeterminate
		cfg.ShowPercentage = false
	case KindSpinner:
		cfg.ShowPercentage = false
	}
	return cfg
}

// settings collects everything an Option can touch.
type settings struct {
	cfg   Config
	clock func() time.Time
	log   logger.Logger
}

// Option configures an indicator at construction.
type Option func(*settings)

// WithBarWidth sets the number of cells between the brackets. Values below 1 are ignored.
func WithBarWidth(width int) Option {
	return func(s *settings) {
		if width > 0 {
			s.cfg.BarWidth = width
		}
	}
}

// WithFill sets the filled-cell glyph (fillChar).
func WithFill(glyph string) Option {
	return func(s *settings) { s.cfg.Fill = glyph }
}

// WithEmpty sets the empty-cell glyph (emptyChar).
func WithEmpty(glyph string) Option {
	return func(s *settings) { s.cfg.Empty = glyph }
}

// WithLead sets the in-progress glyph for bars, or the bouncing marker for
// indeterminate bars.
func WithLead(glyph string) Option {
	return func(s *settings) { s.cfg.Lead = glyph }
}

// WithBrackets sets the strings drawn around the bar.
func WithBrackets(start, end string) Option {
	return func(s *settings) {
		s.cfg.Start = start
		s.cfg.End = end
	}
}

// WithShowPercentage toggles the "NN%" segment.
func WithShowPercentage(show bool) Option {
	return func(s *settings) { s.cfg.ShowPercentage = show }
}

// WithShowElapsedTime toggles the "[MMm:SSs" segment.
func WithShowElapsedTime(show bool) Option {
	return func(s *settings) { s.cfg.ShowElapsedTime = show }
}

// WithShowRemainingTime toggles the remaining-time estimate.
func WithShowRemainingTime(show bool) Option {
	return func(s *settings) { s.cfg.ShowRemainingTime = show }
}

// WithShowCount enables the "done/total" segment.
func WithShowCount(unit CountUnit) Option {
	return func(s *settings) { s.cfg.Count = unit }
}

// WithSpinnerFrames sets the spinner animation frames. An empty list is ignored.
func WithSpinnerFrames(frames ...string) Option {
	return func(s *settings) {
		if len(frames) > 0 {
			s.cfg.SpinnerFrames = append([]string(nil), frames...)
		}
	}
}

// WithSpinnerPreset selects a named frame set (see SpinnerPresetNames). The
// preset also sets the frame interval. Unknown names are ignored.
func WithSpinnerPreset(name string) Option {
	return func(s *settings) {
		frames, interval, ok := SpinnerPreset(name)
		if !ok {
			return
		}
		s.cfg.SpinnerFrames = frames
		s.cfg.Interval = interval
	}
}

// WithInterval sets the frame interval for spinners and indeterminate bars.
func WithInterval(d time.Duration) Option {
	return func(s *settings) {
		if d > 0 {
			s.cfg.Interval = d
		}
	}
}

// WithColorStyle sets the colour treatment.
func WithColorStyle(c ColorStyle) Option {
	return func(s *settings) { s.cfg.Color = c }
}

// WithStyleFlags sets text attributes for the line.
func WithStyleFlags(f StyleFlags) Option {
	return func(s *settings) { s.cfg.Styles = f }
}

// WithMax sets the initial maximum. Non-positive values are ignored.
func WithMax(max float64) Option {
	return func(s *settings) {
		if max > 0 {
			s.cfg.Max = max
		}
	}
}

// WithPrefix sets the initial prefix text.
func WithPrefix(text string) Option {
	return func(s *settings) { s.cfg.Prefix = text }
}

// WithPostfix sets the initial postfix text.
func WithPostfix(text string) Option {
	return func(s *settings) { s.cfg.Postfix = text }
}

// WithSymbols overrides the glyphs spinners show once completed or stopped.
func WithSymbols(completed, stopped string) Option {
	return func(s *settings) {
		s.cfg.CompletedSymbol = completed
		s.cfg.StoppedSymbol = stopped
	}
}

// WithConfig replaces the whole display configuration. Later options still apply.
func WithConfig(cfg Config) Option {
	return func(s *settings) { s.cfg = cfg }
}

// WithClock injects the time source. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(s *settings) {
		if now != nil {
			s.clock = now
		}
	}
}

// WithLogger sets the logger used for recovered InvalidRange conditions.
func WithLogger(l logger.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.log = l
		}
	}
}
