package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rileyhilliard/indica/internal/config"
	"github.com/rileyhilliard/indica/internal/errors"
	"github.com/rileyhilliard/indica/internal/logger"
	"github.com/rileyhilliard/indica/pkg/indicator"
	"github.com/rileyhilliard/indica/pkg/render"
	"github.com/spf13/cobra"
)

var (
	pipeKindFlag   string
	pipeRemoveFlag bool
)

var pipeCmd = &cobra.Command{
	Use:   "pipe",
	Short: "Draw indicators from progress lines on stdin",
	Long: `Read progress updates from stdin and draw one indicator per name.

Each line is one of:
  <name> <value> [max]     set progress (and optionally the maximum)
  <name> postfix <text>    set the text after the bar
  <name> prefix <text>     set the text before the bar
  <name> done              mark the indicator completed
  <name> fail              mark the indicator stopped

Blank lines and lines starting with '#' are ignored. Unknown lines are
logged and skipped. At end of input every indicator still running is
stopped.

Examples:
  ./build.sh | indica pipe
  printf 'fetch 30\nfetch 100\nfetch done\n' | indica pipe --kind block`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadSettings(currentFlags())
		if err != nil {
			return err
		}
		if pipeKindFlag != "" {
			cfg.Bar.Kind = pipeKindFlag
		}
		if pipeRemoveFlag {
			cfg.RemoveCompleted = true
		}
		if err := config.Validate(cfg); err != nil {
			return err
		}

		ctx, cancel := signalContext(cmd.Context())
		defer cancel()

		log := logger.NewEnvLogger("pipe")
		eng := newEngine(cfg, cmd.OutOrStdout(), log)
		return runPipe(ctx, cfg, eng, cmd.InOrStdin(), log)
	},
}

func init() {
	rootCmd.AddCommand(pipeCmd)
	pipeCmd.Flags().StringVar(&pipeKindFlag, "kind", "", "indicator kind: bar, block, indeterminate, spinner")
	pipeCmd.Flags().BoolVar(&pipeRemoveFlag, "remove-completed", false, "drop finished indicators from the live block")
}

// pipeOp is the action of one protocol line.
type pipeOp int

const (
	opProgress pipeOp = iota
	opPostfix
	opPrefix
	opDone
	opFail
)

// pipeLine is one parsed protocol line.
type pipeLine struct {
	Name   string
	Op     pipeOp
	Value  float64
	Max    float64 // zero when not given
	Text   string
	HasMax bool
}

// parsePipeLine parses one protocol line. ok is false for blank lines and
// comments.
func parsePipeLine(line string) (pl pipeLine, ok bool, err error) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return pipeLine{}, false, nil
	}

	fields := strings.Fields(trimmed)
	if len(fields) < 2 {
		return pipeLine{}, false, fmt.Errorf("expected '<name> <value>', got %q", trimmed)
	}
	pl.Name = fields[0]

	switch strings.ToLower(fields[1]) {
	case "done":
		pl.Op = opDone
		return pl, true, nil
	case "fail":
		pl.Op = opFail
		return pl, true, nil
	case "postfix", "prefix":
		pl.Op = opPostfix
		if strings.EqualFold(fields[1], "prefix") {
			pl.Op = opPrefix
		}
		pl.Text = restAfterFields(trimmed, 2)
		return pl, true, nil
	}

	if len(fields) > 3 {
		return pipeLine{}, false, fmt.Errorf("too many fields in %q", trimmed)
	}
	pl.Op = opProgress
	if pl.Value, err = strconv.ParseFloat(fields[1], 64); err != nil {
		return pipeLine{}, false, fmt.Errorf("invalid value %q for %s", fields[1], pl.Name)
	}
	if len(fields) == 3 {
		if pl.Max, err = strconv.ParseFloat(fields[2], 64); err != nil {
			return pipeLine{}, false, fmt.Errorf("invalid max %q for %s", fields[2], pl.Name)
		}
		pl.HasMax = true
	}
	return pl, true, nil
}

// restAfterFields returns s after its first n whitespace-separated fields,
// keeping the spacing inside the remainder.
func restAfterFields(s string, n int) string {
	rest := s
	for i := 0; i < n; i++ {
		rest = strings.TrimLeft(rest, " \t")
		idx := strings.IndexAny(rest, " \t")
		if idx < 0 {
			return ""
		}
		rest = rest[idx:]
	}
	return strings.TrimLeft(rest, " \t")
}

// pipeSession maps names to indicators as they first appear.
type pipeSession struct {
	eng  *render.Engine
	log  logger.Logger
	kind indicator.Kind
	opts []indicator.Option

	states map[string]*indicator.State
}

func newPipeSession(cfg *config.Config, eng *render.Engine, log logger.Logger) (*pipeSession, error) {
	kind := cfg.Kind()
	opts, err := cfg.IndicatorOptions(kind)
	if err != nil {
		return nil, err
	}
	return &pipeSession{
		eng:    eng,
		log:    log,
		kind:   kind,
		opts:   opts,
		states: make(map[string]*indicator.State),
	}, nil
}

func (s *pipeSession) state(name string) *indicator.State {
	if st, ok := s.states[name]; ok {
		return st
	}
	opts := append(append([]indicator.Option{}, s.opts...),
		indicator.WithPrefix(name+" "),
		indicator.WithLogger(s.log),
	)
	st := indicator.New(s.kind, opts...)
	s.states[name] = st
	s.eng.Register(st)
	return st
}

func (s *pipeSession) apply(pl pipeLine) {
	st := s.state(pl.Name)
	switch pl.Op {
	case opProgress:
		if pl.HasMax {
			st.SetMax(pl.Max)
		}
		st.SetProgress(pl.Value)
	case opPostfix:
		st.SetPostfix(pl.Text)
	case opPrefix:
		st.SetPrefix(pl.Text)
	case opDone:
		if s.kind != indicator.KindSpinner && s.kind != indicator.KindIndeterminate {
			st.SetProgress(st.Max())
		}
		st.MarkCompleted()
	case opFail:
		st.Stop()
	}
}

// stopRunning stops every indicator that has not finished.
func (s *pipeSession) stopRunning() {
	for _, st := range s.states {
		st.Stop()
	}
}

// runPipe reads protocol lines from in until EOF or ctx is done.
func runPipe(ctx context.Context, cfg *config.Config, eng *render.Engine, in io.Reader, log logger.Logger) error {
	session, err := newPipeSession(cfg, eng, log)
	if err != nil {
		return err
	}

	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- scanner.Err()
	}()

	return eng.Run(ctx, func(ctx context.Context) error {
		defer session.stopRunning()
		for {
			select {
			case <-ctx.Done():
				return nil
			case line, ok := <-lines:
				if !ok {
					select {
					case err := <-readErr:
						if err != nil {
							return errors.Wrap(err, "Failed to read input")
						}
					default:
					}
					return nil
				}
				pl, ok, err := parsePipeLine(line)
				if err != nil {
					log.Warn("skipping line: %v", err)
					continue
				}
				if ok {
					session.apply(pl)
				}
			}
		}
	})
}
