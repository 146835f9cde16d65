package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/rileyhilliard/indica/internal/errors"
	"github.com/rileyhilliard/indica/pkg/indicator"
)

// Limits for numeric settings.
const (
	MinInterval = 10 * time.Millisecond
	MaxBarWidth = 500
)

// ValidColorModes are the accepted output.color values.
var ValidColorModes = []string{"auto", "always", "never"}

// Validate checks the config for errors and returns structured error messages.
func Validate(cfg *Config) error {
	if cfg.Version > CurrentConfigVersion {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("This config is from the future (version %d, but indica only knows up to %d)", cfg.Version, CurrentConfigVersion),
			"Upgrade indica, or lower the version in "+ConfigFileName)
	}

	if cfg.Interval < MinInterval {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("interval %s is too short", cfg.Interval),
			fmt.Sprintf("Use at least %s, e.g. 'interval: 100ms'.", MinInterval))
	}

	if cfg.StopTimeout <= 0 {
		return errors.New(errors.ErrConfig,
			"stop_timeout must be positive",
			"Try something like 'stop_timeout: 1s'.")
	}

	if err := validateBar(cfg.Bar); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, err.Error(), "Check the 'bar' section in your "+ConfigFileName+".")
	}

	if err := validateSpinner(cfg.Spinner); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, err.Error(), "Check the 'spinner' section in your "+ConfigFileName+".")
	}

	if err := validateOutput(cfg.Output); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, err.Error(), "Check the 'output' section in your "+ConfigFileName+".")
	}

	return nil
}

func validateBar(bar BarConfig) error {
	if _, err := indicator.ParseKind(bar.Kind); err != nil {
		return err
	}
	if bar.Width < 1 || bar.Width > MaxBarWidth {
		return fmt.Errorf("bar.width must be between 1 and %d, got %d", MaxBarWidth, bar.Width)
	}
	if bar.Fill == "" {
		return fmt.Errorf("bar.fill can't be empty")
	}
	if bar.Empty == "" {
		return fmt.Errorf("bar.empty can't be empty; use a space for a blank track")
	}
	if _, err := indicator.ParseCountUnit(bar.Count); err != nil {
		return err
	}
	if _, err := indicator.ParseColorStyle(bar.Color); err != nil {
		return err
	}
	if _, err := indicator.ParseStyleFlags(bar.Styles); err != nil {
		return err
	}
	return nil
}

func validateSpinner(sp SpinnerConfig) error {
	if len(sp.Frames) == 0 && sp.Preset != "" {
		if _, _, ok := indicator.SpinnerPreset(sp.Preset); !ok {
			return fmt.Errorf("unknown spinner preset %q (available: %s)",
				sp.Preset, strings.Join(indicator.SpinnerPresetNames(), ", "))
		}
	}
	for i, f := range sp.Frames {
		if f == "" {
			return fmt.Errorf("spinner.frames[%d] is empty", i)
		}
	}
	if sp.Interval < 0 {
		return fmt.Errorf("spinner.interval can't be negative")
	}
	return nil
}

func validateOutput(out OutputConfig) error {
	valid := false
	for _, m := range ValidColorModes {
		if out.Color == m {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("output.color must be one of %s, got %q", strings.Join(ValidColorModes, ", "), out.Color)
	}
	if out.Width < 0 {
		return fmt.Errorf("output.width can't be negative")
	}
	return nil
}
