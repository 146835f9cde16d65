package doctor

import (
	"fmt"

	"github.com/rileyhilliard/indica/internal/config"
)

// ConfigFileCheck reports which config file is in use.
type ConfigFileCheck struct {
	ConfigPath string // Explicit path, or empty to search
	InitPath   string // Where Fix writes a default file
}

func (c *ConfigFileCheck) Name() string     { return "config_file" }
func (c *ConfigFileCheck) Category() string { return "CONFIG" }

func (c *ConfigFileCheck) Run() CheckResult {
	path, err := config.Find(c.ConfigPath)
	if err != nil {
		return CheckResult{
			Status:     StatusFail,
			Message:    fmt.Sprintf("Error finding config: %v", err),
			Suggestion: "Check the --config path",
		}
	}
	if path == "" {
		return CheckResult{
			Status:     StatusWarn,
			Message:    "No config file found, using defaults",
			Suggestion: "Run 'indica config init' or 'indica doctor --fix' to create " + config.ConfigFileName,
			Fixable:    true,
		}
	}
	return CheckResult{
		Status:  StatusPass,
		Message: fmt.Sprintf("Config file: %s", path),
	}
}

// Fix writes a default config file when none exists.
func (c *ConfigFileCheck) Fix() error {
	path, err := config.Find(c.ConfigPath)
	if err != nil || path != "" {
		return err
	}
	target := c.InitPath
	if target == "" {
		target = config.ConfigFileName
	}
	return config.WriteDefault(target, false)
}

// ConfigSchemaCheck verifies the effective settings load and validate.
type ConfigSchemaCheck struct {
	ConfigPath string
}

func (c *ConfigSchemaCheck) Name() string     { return "config_schema" }
func (c *ConfigSchemaCheck) Category() string { return "CONFIG" }

func (c *ConfigSchemaCheck) Run() CheckResult {
	cfg, _, err := config.LoadOrDefault(c.ConfigPath)
	if err != nil {
		return CheckResult{
			Status:     StatusFail,
			Message:    fmt.Sprintf("Failed to load config: %v", err),
			Suggestion: "Check the YAML syntax in your config file",
		}
	}
	if err := config.Validate(cfg); err != nil {
		return CheckResult{
			Status:     StatusFail,
			Message:    fmt.Sprintf("Schema error: %v", err),
			Suggestion: "Fix the settings named above, or run 'indica config show'",
		}
	}
	return CheckResult{Status: StatusPass, Message: "Settings valid"}
}

func (c *ConfigSchemaCheck) Fix() error { return nil }
