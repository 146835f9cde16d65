package config

import "time"

// CurrentConfigVersion is the schema version for the config file.
// Increment when making breaking changes to the config structure.
const CurrentConfigVersion = 1

// Config represents the complete .indica.yaml configuration file.
type Config struct {
	Version int `yaml:"version" mapstructure:"version"`

	// Interval is the render tick interval.
	Interval time.Duration `yaml:"interval" mapstructure:"interval"`

	// StopTimeout bounds how long stopping waits for an in-flight frame.
	StopTimeout time.Duration `yaml:"stop_timeout" mapstructure:"stop_timeout"`

	// RemoveCompleted drops finished indicators from the live block.
	RemoveCompleted bool `yaml:"remove_completed" mapstructure:"remove_completed"`

	Bar     BarConfig     `yaml:"bar" mapstructure:"bar"`
	Spinner SpinnerConfig `yaml:"spinner" mapstructure:"spinner"`
	Output  OutputConfig  `yaml:"output" mapstructure:"output"`
}

// BarConfig is the look of every indicator created from the config.
type BarConfig struct {
	// Kind is one of: bar, block, indeterminate, spinner.
	Kind string `yaml:"kind" mapstructure:"kind"`

	Width int    `yaml:"width" mapstructure:"width"`
	Fill  string `yaml:"fill" mapstructure:"fill"`
	Empty string `yaml:"empty" mapstructure:"empty"`
	Lead  string `yaml:"lead,omitempty" mapstructure:"lead"`
	Start string `yaml:"start" mapstructure:"start"`
	End   string `yaml:"end" mapstructure:"end"`

	ShowPercentage bool `yaml:"show_percentage" mapstructure:"show_percentage"`
	ShowElapsed    bool `yaml:"show_elapsed" mapstructure:"show_elapsed"`
	ShowRemaining  bool `yaml:"show_remaining" mapstructure:"show_remaining"`

	// Count shows "progress/max": none, plain, or bytes.
	Count string `yaml:"count" mapstructure:"count"`

	// Color is a named colour, "threshold", "gradient" or "none".
	Color string `yaml:"color" mapstructure:"color"`

	// Styles are text attributes: bold, faint, italic, underline, blink,
	// reverse, strikethrough.
	Styles []string `yaml:"styles,omitempty" mapstructure:"styles"`
}

// SpinnerConfig selects the spinner animation.
type SpinnerConfig struct {
	// Preset names a built-in frame set. Ignored when Frames is set.
	Preset string `yaml:"preset" mapstructure:"preset"`

	Frames []string `yaml:"frames,omitempty" mapstructure:"frames"`

	// Interval is the time between frames. Zero uses the preset's rate.
	Interval time.Duration `yaml:"interval,omitempty" mapstructure:"interval"`
}

// OutputConfig controls how the terminal is used.
type OutputConfig struct {
	// Color: auto, always, never.
	Color string `yaml:"color" mapstructure:"color"`

	// Width forces the line width. Zero uses the terminal width.
	Width int `yaml:"width" mapstructure:"width"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Version:     CurrentConfigVersion,
		Interval:    100 * time.Millisecond,
		StopTimeout: time.Second,
		Bar: BarConfig{
			Kind:           "bar",
			Width:          30,
			Fill:           "█",
			Empty:          "░",
			Start:          "[",
			End:            "]",
			ShowPercentage: true,
			Count:          "none",
			Color:          "none",
		},
		Spinner: SpinnerConfig{
			Preset: "braille",
		},
		Output: OutputConfig{
			Color: "auto",
		},
	}
}
