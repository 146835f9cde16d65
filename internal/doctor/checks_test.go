package doctor

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/muesli/termenv"
	"github.com/rileyhilliard/indica/internal/config"
	"github.com/rileyhilliard/indica/pkg/surface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckStatusString(t *testing.T) {
	assert.Equal(t, "pass", StatusPass.String())
	assert.Equal(t, "warn", StatusWarn.String())
	assert.Equal(t, "fail", StatusFail.String())
	assert.Equal(t, "unknown", CheckStatus(99).String())
}

// mockCheck is a test implementation of Check.
type mockCheck struct {
	name     string
	category string
	result   CheckResult
}

func (m *mockCheck) Name() string     { return m.name }
func (m *mockCheck) Category() string { return m.category }
func (m *mockCheck) Run() CheckResult { return m.result }
func (m *mockCheck) Fix() error       { return nil }

func mockChecks() []Check {
	return []Check{
		&mockCheck{name: "one", category: "TERMINAL", result: CheckResult{Status: StatusPass}},
		&mockCheck{name: "two", category: "CONFIG", result: CheckResult{Status: StatusWarn, Fixable: true}},
		&mockCheck{name: "three", category: "TERMINAL", result: CheckResult{Status: StatusFail}},
	}
}

func TestRunAllFillsNameAndCategory(t *testing.T) {
	for name, runner := range map[string]func([]Check) []CheckResult{
		"sequential": RunAll,
		"parallel":   RunAllParallel,
	} {
		t.Run(name, func(t *testing.T) {
			results := runner(mockChecks())
			require.Len(t, results, 3)
			assert.Equal(t, "one", results[0].Name)
			assert.Equal(t, "CONFIG", results[1].Category)
			assert.Equal(t, StatusFail, results[2].Status)
		})
	}
}

func TestGroupByCategory(t *testing.T) {
	order, grouped := GroupByCategory(RunAll(mockChecks()))
	assert.Equal(t, []string{"TERMINAL", "CONFIG"}, order)
	assert.Len(t, grouped["TERMINAL"], 2)
	assert.Len(t, grouped["CONFIG"], 1)
}

func TestCounts(t *testing.T) {
	results := RunAll(mockChecks())
	assert.True(t, HasFailures(results))
	assert.Equal(t, 1, FixableCount(results))
	assert.Equal(t, "2 issues found", Summary(results))
	assert.Equal(t, "1 issue found", Summary(results[1:2]))
	assert.Equal(t, "Everything looks good", Summary(results[:1]))
	assert.False(t, HasFailures(results[:2]))
}

func ttySurface(width, height int, profile termenv.Profile) *surface.Surface {
	return surface.New(io.Discard,
		surface.WithInteractive(true),
		surface.WithSize(width, height),
		surface.WithColorProfile(profile),
	)
}

func TestTerminalCheck(t *testing.T) {
	r := (&TerminalCheck{Surface: ttySurface(80, 24, termenv.ANSI256)}).Run()
	assert.Equal(t, StatusPass, r.Status)

	plain := surface.New(io.Discard, surface.WithInteractive(false))
	r = (&TerminalCheck{Surface: plain}).Run()
	assert.Equal(t, StatusWarn, r.Status)
	assert.NotEmpty(t, r.Suggestion)
}

func TestColorCheck(t *testing.T) {
	t.Setenv("NO_COLOR", "")

	r := (&ColorCheck{Surface: ttySurface(80, 24, termenv.TrueColor), Mode: "auto"}).Run()
	assert.Equal(t, StatusPass, r.Status)
	assert.Contains(t, r.Message, "true colour")

	r = (&ColorCheck{Surface: ttySurface(80, 24, termenv.Ascii), Mode: "auto"}).Run()
	assert.Equal(t, StatusWarn, r.Status)

	r = (&ColorCheck{Surface: ttySurface(80, 24, termenv.Ascii), Mode: "never"}).Run()
	assert.Equal(t, StatusPass, r.Status)
}

func TestSizeCheck(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
		want          CheckStatus
	}{
		{"roomy", 120, 40, StatusPass},
		{"narrow", 20, 40, StatusWarn},
		{"one row", 120, 1, StatusFail},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := (&SizeCheck{Surface: ttySurface(tt.width, tt.height, termenv.Ascii)}).Run()
			assert.Equal(t, tt.want, r.Status)
		})
	}

	r := (&SizeCheck{Surface: ttySurface(100, 10, termenv.Ascii)}).Run()
	assert.Contains(t, r.Message, "up to 9 indicators")
}

func TestGlyphCheck(t *testing.T) {
	cfg := config.DefaultConfig()
	assert.Equal(t, StatusPass, (&GlyphCheck{Config: cfg}).Run().Status)

	wide := config.DefaultConfig()
	wide.Bar.Fill = "██"
	r := (&GlyphCheck{Config: wide}).Run()
	assert.Equal(t, StatusWarn, r.Status)
	assert.Contains(t, r.Message, "bar.fill")

	jitter := config.DefaultConfig()
	jitter.Spinner.Frames = []string{"-", "--"}
	assert.Equal(t, StatusWarn, (&GlyphCheck{Config: jitter}).Run().Status)

	blocks := config.DefaultConfig()
	blocks.Bar.Fill = "█"
	blocks.Bar.Empty = "░"
	assert.Equal(t, StatusPass, (&GlyphCheck{Config: blocks}).Run().Status)
	r = (&GlyphCheck{Config: blocks, EastAsian: true}).Run()
	assert.Equal(t, StatusWarn, r.Status)
	assert.Contains(t, r.Message, "two columns wide in this locale")

	ascii := config.DefaultConfig()
	ascii.Bar.Fill = "#"
	ascii.Bar.Empty = "-"
	assert.Equal(t, StatusPass, (&GlyphCheck{Config: ascii, EastAsian: true}).Run().Status)
}

func TestConfigChecks(t *testing.T) {
	dir := t.TempDir()

	good := filepath.Join(dir, "good.yaml")
	require.NoError(t, os.WriteFile(good, []byte("bar:\n  width: 20\n"), 0644))
	assert.Equal(t, StatusPass, (&ConfigFileCheck{ConfigPath: good}).Run().Status)
	assert.Equal(t, StatusPass, (&ConfigSchemaCheck{ConfigPath: good}).Run().Status)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("bar:\n  width: 0\n"), 0644))
	r := (&ConfigSchemaCheck{ConfigPath: bad}).Run()
	assert.Equal(t, StatusFail, r.Status)

	missing := filepath.Join(dir, "missing.yaml")
	assert.Equal(t, StatusFail, (&ConfigFileCheck{ConfigPath: missing}).Run().Status)
}

func TestConfigFileCheckFix(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	require.NoError(t, os.Mkdir(filepath.Join(dir, ".git"), 0755))
	t.Chdir(dir)

	check := &ConfigFileCheck{InitPath: filepath.Join(dir, config.ConfigFileName)}
	r := check.Run()
	assert.Equal(t, StatusWarn, r.Status)
	assert.True(t, r.Fixable)

	require.NoError(t, check.Fix())
	assert.FileExists(t, check.InitPath)
	assert.Equal(t, StatusPass, check.Run().Status)

	// Nothing to do once a file exists.
	assert.NoError(t, check.Fix())
}

func TestAll(t *testing.T) {
	checks := All(config.DefaultConfig(), "", ttySurface(80, 24, termenv.ANSI))
	names := make([]string, 0, len(checks))
	for _, c := range checks {
		names = append(names, c.Name())
	}
	assert.Equal(t, []string{"terminal", "color", "size", "config_file", "config_schema", "glyphs"}, names)
}

func TestProfileName(t *testing.T) {
	assert.Equal(t, "16 colours", ProfileName(termenv.ANSI))
	assert.Equal(t, "no colour", ProfileName(termenv.Ascii))
}
