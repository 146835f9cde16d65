package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rileyhilliard/indica/internal/errors"
	"github.com/spf13/viper"
)

const (
	// ConfigFileName is the default config file name.
	ConfigFileName = ".indica.yaml"
	// GlobalConfigDir is the directory for global config.
	GlobalConfigDir = ".config/indica"
	// GlobalConfigFile is the global config file name.
	GlobalConfigFile = "config.yaml"
	// EnvPrefix prefixes environment overrides, e.g. INDICA_BAR_WIDTH=40.
	EnvPrefix = "INDICA"
)

// Load reads config from the specified path. An empty path loads the
// defaults with environment overrides applied.
func Load(path string) (*Config, error) {
	v := newViper()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			if os.IsNotExist(err) {
				return nil, errors.WrapWithCode(err, errors.ErrConfig,
					"Config file not found",
					"Run 'indica config init' to create a config file, or specify one with --config")
			}
			return nil, errors.WrapWithCode(err, errors.ErrConfig,
				"Failed to read config file",
				"Check the file exists and is valid YAML")
		}
	}

	return parseConfig(v, path)
}

// Find locates the config file using the search order:
// 1. Explicit path (from --config flag)
// 2. .indica.yaml in current directory
// 3. .indica.yaml in parent directories (stops at git root or home)
// 4. ~/.config/indica/config.yaml (global defaults)
//
// Returns the path to the config file, or empty string if not found.
func Find(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			if os.IsNotExist(err) {
				return "", errors.WrapWithCode(err, errors.ErrConfig,
					"Specified config file not found: "+explicit,
					"Check the path is correct")
			}
			return "", errors.WrapWithCode(err, errors.ErrConfig,
				"Cannot access config file: "+explicit,
				"Check file permissions")
		}
		return explicit, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", errors.WrapWithCode(err, errors.ErrConfig,
			"Cannot determine current directory",
			"Check directory permissions")
	}

	home, _ := os.UserHomeDir()
	if path := findUpward(cwd, home); path != "" {
		return path, nil
	}

	if home != "" {
		globalConfig := filepath.Join(home, GlobalConfigDir, GlobalConfigFile)
		if _, err := os.Stat(globalConfig); err == nil {
			return globalConfig, nil
		}
	}

	return "", nil
}

// findUpward looks for ConfigFileName in dir and its parents. The walk stops
// after the git root, and never goes above home.
func findUpward(dir, home string) string {
	for {
		configPath := filepath.Join(dir, ConfigFileName)
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		if isGitRoot(dir) {
			return ""
		}
		parent := filepath.Dir(dir)
		if parent == dir || (home != "" && parent == home) {
			return ""
		}
		dir = parent
	}
}

// LoadOrDefault loads config from the found path, or returns defaults if not found.
func LoadOrDefault(explicit string) (*Config, string, error) {
	path, err := Find(explicit)
	if err != nil {
		return nil, "", err
	}
	cfg, err := Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

// parseConfig converts viper config to our Config struct with defaults merged in.
func parseConfig(v *viper.Viper, path string) (*Config, error) {
	cfg := DefaultConfig()

	if err := v.Unmarshal(cfg); err != nil {
		source := "the environment"
		if path != "" {
			source = path
		}
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Invalid config format",
			"Check the YAML syntax in "+source)
	}

	return cfg, nil
}

// setDefaults registers every key so environment overrides apply even when
// the file leaves them out. Viper only consults the environment for keys it
// knows about.
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("version", d.Version)
	v.SetDefault("interval", d.Interval)
	v.SetDefault("stop_timeout", d.StopTimeout)
	v.SetDefault("remove_completed", d.RemoveCompleted)
	v.SetDefault("bar.kind", d.Bar.Kind)
	v.SetDefault("bar.width", d.Bar.Width)
	v.SetDefault("bar.fill", d.Bar.Fill)
	v.SetDefault("bar.empty", d.Bar.Empty)
	v.SetDefault("bar.lead", d.Bar.Lead)
	v.SetDefault("bar.start", d.Bar.Start)
	v.SetDefault("bar.end", d.Bar.End)
	v.SetDefault("bar.show_percentage", d.Bar.ShowPercentage)
	v.SetDefault("bar.show_elapsed", d.Bar.ShowElapsed)
	v.SetDefault("bar.show_remaining", d.Bar.ShowRemaining)
	v.SetDefault("bar.count", d.Bar.Count)
	v.SetDefault("bar.color", d.Bar.Color)
	v.SetDefault("bar.styles", d.Bar.Styles)
	v.SetDefault("spinner.preset", d.Spinner.Preset)
	v.SetDefault("spinner.frames", d.Spinner.Frames)
	v.SetDefault("spinner.interval", d.Spinner.Interval)
	v.SetDefault("output.color", d.Output.Color)
	v.SetDefault("output.width", d.Output.Width)
}

// isGitRoot checks if a directory is a git repository root.
func isGitRoot(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ".git"))
	return err == nil
}
