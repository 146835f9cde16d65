package config

import (
	"github.com/muesli/termenv"
	"github.com/rileyhilliard/indica/internal/logger"
	"github.com/rileyhilliard/indica/pkg/indicator"
	"github.com/rileyhilliard/indica/pkg/render"
	"github.com/rileyhilliard/indica/pkg/surface"
)

// Kind returns the configured indicator kind. Call Validate first; an
// invalid kind falls back to a bar.
func (c *Config) Kind() indicator.Kind {
	k, err := indicator.ParseKind(c.Bar.Kind)
	if err != nil {
		return indicator.KindBar
	}
	return k
}

// IndicatorOptions maps the bar and spinner sections to indicator options
// for the given kind. Kind-specific defaults (such as the block bar's blank
// track) win over the generic bar section when the file leaves them at
// their defaults.
func (c *Config) IndicatorOptions(kind indicator.Kind) ([]indicator.Option, error) {
	color, err := indicator.ParseColorStyle(c.Bar.Color)
	if err != nil {
		return nil, err
	}
	styles, err := indicator.ParseStyleFlags(c.Bar.Styles)
	if err != nil {
		return nil, err
	}
	count, err := indicator.ParseCountUnit(c.Bar.Count)
	if err != nil {
		return nil, err
	}

	d := DefaultConfig().Bar
	kindDefaults := indicator.DefaultConfig(kind)

	opts := []indicator.Option{
		indicator.WithBarWidth(c.Bar.Width),
		indicator.WithFill(c.Bar.Fill),
		indicator.WithBrackets(c.Bar.Start, c.Bar.End),
		indicator.WithShowElapsedTime(c.Bar.ShowElapsed),
		indicator.WithShowRemainingTime(c.Bar.ShowRemaining),
		indicator.WithShowCount(count),
		indicator.WithColorStyle(color),
		indicator.WithStyleFlags(styles),
	}
	if c.Bar.Empty != d.Empty {
		opts = append(opts, indicator.WithEmpty(c.Bar.Empty))
	}
	if c.Bar.Lead != "" {
		opts = append(opts, indicator.WithLead(c.Bar.Lead))
	}
	if kindDefaults.ShowPercentage {
		opts = append(opts, indicator.WithShowPercentage(c.Bar.ShowPercentage))
	}

	switch {
	case len(c.Spinner.Frames) > 0:
		opts = append(opts, indicator.WithSpinnerFrames(c.Spinner.Frames...))
	case c.Spinner.Preset != "":
		opts = append(opts, indicator.WithSpinnerPreset(c.Spinner.Preset))
	}
	if c.Spinner.Interval > 0 {
		opts = append(opts, indicator.WithInterval(c.Spinner.Interval))
	}
	return opts, nil
}

// SurfaceOptions maps the output section to surface options.
func (c *Config) SurfaceOptions() []surface.Option {
	var opts []surface.Option
	switch c.Output.Color {
	case "never":
		opts = append(opts, surface.WithNoColor(true))
	case "always":
		opts = append(opts, surface.WithColorProfile(termenv.ANSI256))
	}
	if c.Output.Width > 0 {
		opts = append(opts, surface.WithSize(c.Output.Width, 0))
	}
	return opts
}

// EngineOptions maps the top-level settings to render engine options.
func (c *Config) EngineOptions(log logger.Logger) []render.Option {
	return []render.Option{
		render.WithInterval(c.Interval),
		render.WithStopTimeout(c.StopTimeout),
		render.WithRemoveCompleted(c.RemoveCompleted),
		render.WithLogger(log),
	}
}
