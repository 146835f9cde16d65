package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rileyhilliard/indica/internal/config"
	"github.com/rileyhilliard/indica/internal/errors"
	"github.com/rileyhilliard/indica/internal/logger"
	"github.com/rileyhilliard/indica/pkg/render"
	"github.com/rileyhilliard/indica/pkg/surface"
	"github.com/spf13/cobra"
)

// Global flags
var (
	cfgFile      string
	noColor      bool
	intervalFlag string
	widthFlag    int
)

// rootCmd is the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "indica",
	Short: "Concurrent terminal progress indicators",
	Long: `indica draws progress bars and spinners that update in place.

Feed it progress from a script with 'indica pipe', or try the built-in
indicators with 'indica demo'. Settings come from .indica.yaml (see
'indica config init') and INDICA_* environment variables.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: search for "+config.ConfigFileName+")")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colour output")
	rootCmd.PersistentFlags().StringVar(&intervalFlag, "interval", "", "render interval (e.g. 100ms)")
	rootCmd.PersistentFlags().IntVar(&widthFlag, "width", 0, "line width (default: terminal width)")
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprint(os.Stderr, err.Error())
		os.Exit(1)
	}
}

// globalFlags is the flag state applied on top of the config file.
type globalFlags struct {
	Config   string
	NoColor  bool
	Interval string
	Width    int
}

func currentFlags() globalFlags {
	return globalFlags{
		Config:   cfgFile,
		NoColor:  noColor,
		Interval: intervalFlag,
		Width:    widthFlag,
	}
}

// loadSettings finds and loads the config, applies flag overrides and
// validates the result.
func loadSettings(flags globalFlags) (*config.Config, error) {
	cfg, _, err := config.LoadOrDefault(flags.Config)
	if err != nil {
		return nil, err
	}

	if flags.NoColor {
		cfg.Output.Color = "never"
	}
	if flags.Width > 0 {
		cfg.Output.Width = flags.Width
	}
	if flags.Interval != "" {
		d, err := time.ParseDuration(flags.Interval)
		if err != nil {
			return nil, errors.WrapWithCode(err, errors.ErrConfig,
				fmt.Sprintf("'%s' doesn't look like a valid interval", flags.Interval),
				"Try something like 50ms, 100ms, or 1s.")
		}
		cfg.Interval = d
	}

	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newEngine builds a render engine on out from the settings.
func newEngine(cfg *config.Config, out io.Writer, log logger.Logger, extra ...surface.Option) *render.Engine {
	// signalContext owns SIGINT and SIGTERM; the guard only restores the
	// cursor so the engine can still draw its final frame.
	base := append(cfg.SurfaceOptions(), surface.WithSignalRedelivery(false))
	surf := surface.New(out, append(base, extra...)...)
	opts := append(cfg.EngineOptions(log), render.WithSurface(surf))
	return render.New(out, opts...)
}

// signalContext returns a context cancelled on SIGINT or SIGTERM. The
// handler stays registered until the returned cancel runs, so a signal
// arriving while the engine draws its final frame does not end the process.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigChan:
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(sigChan)
		cancel()
	}
}
