package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/rileyhilliard/indica/internal/config"
	"github.com/rileyhilliard/indica/internal/doctor"
	"github.com/rileyhilliard/indica/internal/errors"
	"github.com/rileyhilliard/indica/pkg/surface"
	"github.com/spf13/cobra"
)

var doctorFixFlag bool

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the terminal and settings",
	Long: `Check whether indicators can draw in this terminal and whether the
settings load cleanly.

With --fix, issues that can be addressed automatically are fixed (for
example, writing a default .indica.yaml when none exists).`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := config.LoadOrDefault(cfgFile)
		if err != nil {
			// The schema check reports this with context.
			cfg = config.DefaultConfig()
		}
		out := cmd.OutOrStdout()
		surf := surface.New(out, cfg.SurfaceOptions()...)
		return runDoctor(out, doctor.All(cfg, cfgFile, surf), surf.Renderer(), doctorFixFlag)
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd)
	doctorCmd.Flags().BoolVar(&doctorFixFlag, "fix", false, "fix issues that can be fixed automatically")
}

func runDoctor(w io.Writer, checks []doctor.Check, r *lipgloss.Renderer, fix bool) error {
	results := doctor.RunAllParallel(checks)

	if fix && doctor.FixableCount(results) > 0 {
		for i, res := range results {
			if !res.Fixable || res.Status == doctor.StatusPass {
				continue
			}
			if err := checks[i].Fix(); err != nil {
				return err
			}
			results[i] = doctor.RunAll(checks[i : i+1])[0]
		}
	}

	printResults(w, results, r)

	if doctor.HasFailures(results) {
		return errors.New(errors.ErrTerminal, doctor.Summary(results), "See the suggestions above.")
	}
	return nil
}

func printResults(w io.Writer, results []doctor.CheckResult, r *lipgloss.Renderer) {
	pass := r.NewStyle().Foreground(lipgloss.Color("2"))
	warn := r.NewStyle().Foreground(lipgloss.Color("3"))
	fail := r.NewStyle().Foreground(lipgloss.Color("1"))
	header := r.NewStyle().Bold(true)
	muted := r.NewStyle().Faint(true)

	order, grouped := doctor.GroupByCategory(results)
	for _, category := range order {
		fmt.Fprintln(w, header.Render(category))
		for _, res := range grouped[category] {
			var symbol string
			switch res.Status {
			case doctor.StatusPass:
				symbol = pass.Render("✓")
			case doctor.StatusWarn:
				symbol = warn.Render("⚠")
			default:
				symbol = fail.Render("✗")
			}
			fmt.Fprintf(w, "  %s %s\n", symbol, res.Message)
			if res.Suggestion != "" && res.Status != doctor.StatusPass {
				fmt.Fprintf(w, "    %s\n", muted.Render(res.Suggestion))
			}
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, doctor.Summary(results))
	if n := doctor.FixableCount(results); n > 0 {
		fmt.Fprintf(w, "Run 'indica doctor --fix' to address %d of them.\n", n)
	}
}
