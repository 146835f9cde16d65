package cli

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/rileyhilliard/indica/internal/config"
	"github.com/rileyhilliard/indica/internal/errors"
	"github.com/rileyhilliard/indica/internal/logger"
	"github.com/rileyhilliard/indica/pkg/indicator"
	"github.com/rileyhilliard/indica/pkg/render"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// DemoNames are the accepted demo arguments.
var DemoNames = []string{"bar", "block", "spinner", "indeterminate", "multi"}

var (
	demoDurationFlag time.Duration
	demoWorkersFlag  int
)

var demoCmd = &cobra.Command{
	Use:   "demo [bar|block|spinner|indeterminate|multi]",
	Short: "Show the indicators with synthetic work",
	Long: `Run synthetic tasks that drive indicators concurrently.

The single-kind demos draw three indicators of that kind. The multi demo
mixes every kind and runs more tasks than workers, so rows are added and
finished while others are still moving.

Examples:
  indica demo
  indica demo spinner --duration 5s
  indica demo multi --workers 3 --no-color`,
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: DemoNames,
	RunE: func(cmd *cobra.Command, args []string) error {
		name := "multi"
		if len(args) == 1 {
			name = args[0]
		}

		cfg, err := loadSettings(currentFlags())
		if err != nil {
			return err
		}

		ctx, cancel := signalContext(cmd.Context())
		defer cancel()

		log := logger.NewEnvLogger("demo")
		eng := newEngine(cfg, cmd.OutOrStdout(), log)
		return runDemo(ctx, cfg, eng, name, demoDurationFlag, demoWorkersFlag)
	},
}

func init() {
	rootCmd.AddCommand(demoCmd)
	demoCmd.Flags().DurationVar(&demoDurationFlag, "duration", 3*time.Second, "how long each task runs")
	demoCmd.Flags().IntVar(&demoWorkersFlag, "workers", 4, "concurrent tasks in the multi demo")
}

// demoTask is one synthetic unit of work.
type demoTask struct {
	kind  indicator.Kind
	label string
	max   float64
	fail  bool
}

func demoTasks(name string) ([]demoTask, error) {
	switch name {
	case "bar", "block", "spinner", "indeterminate":
		kind, err := indicator.ParseKind(name)
		if err != nil {
			return nil, err
		}
		return []demoTask{
			{kind: kind, label: "fetch", max: 100},
			{kind: kind, label: "build", max: 250},
			{kind: kind, label: "test", max: 60},
		}, nil
	case "multi":
		return []demoTask{
			{kind: indicator.KindBar, label: "download", max: 48_000_000},
			{kind: indicator.KindBlock, label: "extract", max: 1200},
			{kind: indicator.KindSpinner, label: "resolve"},
			{kind: indicator.KindIndeterminate, label: "index"},
			{kind: indicator.KindBar, label: "compile", max: 340},
			{kind: indicator.KindBlock, label: "link", max: 20, fail: true},
			{kind: indicator.KindSpinner, label: "upload"},
		}, nil
	}
	return nil, errors.New(errors.ErrConfig,
		fmt.Sprintf("Unknown demo %q", name),
		fmt.Sprintf("Pick one of: %v", DemoNames))
}

// runDemo drives the demo tasks through eng, at most workers at a time.
func runDemo(ctx context.Context, cfg *config.Config, eng *render.Engine, name string, duration time.Duration, workers int) error {
	tasks, err := demoTasks(name)
	if err != nil {
		return err
	}
	if workers < 1 {
		workers = 1
	}
	if duration <= 0 {
		duration = time.Second
	}

	return eng.Run(ctx, func(ctx context.Context) error {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(workers)

		for i, task := range tasks {
			opts, err := cfg.IndicatorOptions(task.kind)
			if err != nil {
				return err
			}
			opts = append(opts, indicator.WithPrefix(fmt.Sprintf("%-9s ", task.label)))
			if task.max > 0 {
				opts = append(opts, indicator.WithMax(task.max))
			}
			if name == "multi" && task.label == "download" {
				opts = append(opts, indicator.WithShowCount(indicator.CountBytes))
			}

			st := indicator.New(task.kind, opts...)
			eng.Register(st)

			task := task
			seed := int64(i + 1)
			g.Go(func() error {
				return driveTask(gctx, st, task, duration, seed)
			})
		}
		return g.Wait()
	})
}

// driveTask advances st in uneven steps until it completes or ctx ends.
func driveTask(ctx context.Context, st *indicator.State, task demoTask, duration time.Duration, seed int64) error {
	rng := rand.New(rand.NewSource(seed))
	const steps = 40
	step := duration / steps

	defer st.Stop()
	for i := 1; i <= steps; i++ {
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(step + time.Duration(rng.Int63n(int64(step)+1))/2):
		}

		switch task.kind {
		case indicator.KindBar, indicator.KindBlock:
			st.SetProgress(task.max * float64(i) / steps)
		default:
			st.SetPostfix(fmt.Sprintf("%d/%d", i, steps))
		}

		if task.fail && i == steps/2 {
			st.SetPostfix("failed")
			return nil
		}
	}
	st.MarkCompleted()
	return nil
}
