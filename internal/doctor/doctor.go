// Package doctor diagnoses why indicators might not draw the way you expect:
// whether output is a terminal, which colours it supports, how many rows
// fit, and whether the settings load and use well-behaved glyphs.
package doctor

import (
	"github.com/rileyhilliard/indica/internal/config"
	"github.com/rileyhilliard/indica/pkg/surface"
)

// All returns every check for settings cfg drawn on surf. configPath is the
// --config value, empty to search.
func All(cfg *config.Config, configPath string, surf *surface.Surface) []Check {
	return []Check{
		&TerminalCheck{Surface: surf},
		&ColorCheck{Surface: surf, Mode: cfg.Output.Color},
		&SizeCheck{Surface: surf},
		&ConfigFileCheck{ConfigPath: configPath},
		&ConfigSchemaCheck{ConfigPath: configPath},
		&GlyphCheck{Config: cfg, EastAsian: EastAsianLocale()},
	}
}
