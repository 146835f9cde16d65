package surface

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"
	"github.com/rileyhilliard/indica/internal/errors"
	"golang.org/x/term"
)

// Fallback size when the output is not a terminal or its size is unknown.
const (
	DefaultWidth  = 80
	DefaultHeight = 24
)

// ErrTerminalUnavailable matches (via errors.Is) every error returned for
// operations that need an interactive terminal.
var ErrTerminalUnavailable = errors.New(errors.ErrTerminal,
	"output is not an interactive terminal",
	"Progress is printed as plain lines instead")

// fder is implemented by *os.File and anything else backed by a descriptor.
type fder interface {
	Fd() uintptr
}

// Surface owns the terminal the rows are drawn on. It knows how many rows it
// drew last time (the block below the anchor) so each redraw can move back
// up over them and rewrite them in place.
//
// Writes to the underlying writer are serialized by wmu, which also owns the
// scratch buffer. The block state (lines, epoch, holds, guard) sits under mu,
// which is never held across a write, so Commit and Lines return even while
// a write is stuck. Lock order is wmu then mu.
type Surface struct {
	wmu sync.Mutex
	mu  sync.Mutex

	w           io.Writer
	fd          int
	hasFd       bool
	interactive bool
	width       int // forced size, 0 means detect
	height      int
	profile     termenv.Profile
	noColor     bool
	profileSet  bool
	redeliver   bool

	renderer *lipgloss.Renderer
	scratch  bytes.Buffer
	seq      *termenv.Output // writes escape sequences into scratch

	lines int    // rows drawn below the anchor
	epoch uint64 // bumped by Commit
	holds int    // active Acquire calls
	guard *signalGuard
}

// Option configures a Surface.
type Option func(*Surface)

// WithInteractive overrides terminal detection.
func WithInteractive(interactive bool) Option {
	return func(s *Surface) {
		s.interactive = interactive
	}
}

// WithSize forces the reported terminal size.
func WithSize(width, height int) Option {
	return func(s *Surface) {
		s.width = width
		s.height = height
	}
}

// WithNoColor drops all colour and style sequences from rendered rows.
func WithNoColor(noColor bool) Option {
	return func(s *Surface) {
		s.noColor = noColor
	}
}

// WithColorProfile forces the colour profile instead of detecting it.
func WithColorProfile(p termenv.Profile) Option {
	return func(s *Surface) {
		s.profile = p
		s.profileSet = true
	}
}

// WithSignalRedelivery controls what the interrupt guard does after it has
// shown the cursor: re-deliver the signal with default handling (the
// default, which ends the process) or leave the signal to the caller's own
// signal.Notify handler so it can stop the engine and draw a final frame.
func WithSignalRedelivery(redeliver bool) Option {
	return func(s *Surface) {
		s.redeliver = redeliver
	}
}

// New creates a surface writing to w. Interactivity is detected when w is
// backed by a file descriptor; anything else is treated as a plain stream.
func New(w io.Writer, opts ...Option) *Surface {
	s := &Surface{w: w, redeliver: true}
	if f, ok := w.(fder); ok {
		s.fd = int(f.Fd())
		s.hasFd = true
		s.interactive = term.IsTerminal(s.fd)
	}
	for _, opt := range opts {
		opt(s)
	}

	switch {
	case !s.interactive || s.noColor:
		s.profile = termenv.Ascii
	case !s.profileSet:
		s.profile = termenv.NewOutput(w).EnvColorProfile()
	}

	s.renderer = lipgloss.NewRenderer(w)
	s.renderer.SetColorProfile(s.profile)
	s.seq = termenv.NewOutput(&s.scratch, termenv.WithProfile(s.profile))
	return s
}

// Interactive reports whether rows are redrawn in place.
func (s *Surface) Interactive() bool {
	return s.interactive
}

// Profile returns the colour profile rows are rendered with.
func (s *Surface) Profile() termenv.Profile {
	return s.profile
}

// Renderer returns a lipgloss renderer bound to the surface colour profile.
func (s *Surface) Renderer() *lipgloss.Renderer {
	return s.renderer
}

// Size returns the terminal size, falling back to 80x24.
func (s *Surface) Size() (width, height int) {
	width, height = s.width, s.height
	if (width <= 0 || height <= 0) && s.hasFd && s.interactive {
		if w, h, err := term.GetSize(s.fd); err == nil {
			if width <= 0 {
				width = w
			}
			if height <= 0 {
				height = h
			}
		}
	}
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	return width, height
}

// Lines returns the number of rows currently drawn below the anchor.
func (s *Surface) Lines() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lines
}

// Redraw moves back to the anchor and rewrites the block with lines in a
// single write. Rows left over from a taller previous block are cleared.
// The cursor ends on the row below the block.
func (s *Surface) Redraw(lines []string) error {
	if !s.interactive {
		return ErrTerminalUnavailable
	}

	s.wmu.Lock()
	defer s.wmu.Unlock()
	prev, epoch := s.block()

	s.scratch.Reset()
	if prev > 0 {
		s.seq.CursorPrevLine(prev)
	}
	for _, line := range lines {
		s.seq.ClearLine()
		s.scratch.WriteString(line)
		s.scratch.WriteByte('\n')
	}
	if extra := prev - len(lines); extra > 0 {
		for i := 0; i < extra; i++ {
			s.seq.ClearLine()
			s.scratch.WriteByte('\n')
		}
		s.seq.CursorPrevLine(extra)
	}

	if _, err := s.w.Write(s.scratch.Bytes()); err != nil {
		return errors.WrapWithCode(err, errors.ErrRender, "failed to write frame", "")
	}
	s.drew(epoch, len(lines))
	return nil
}

// Println writes one line. On a plain stream escape sequences are stripped.
// On a terminal the line is printed above the drawn block, which the next
// Redraw draws again below it.
func (s *Surface) Println(line string) error {
	s.wmu.Lock()
	defer s.wmu.Unlock()

	s.scratch.Reset()
	if !s.interactive {
		s.scratch.WriteString(ansi.Strip(line))
		s.scratch.WriteByte('\n')
		if _, err := s.w.Write(s.scratch.Bytes()); err != nil {
			return errors.WrapWithCode(err, errors.ErrRender, "failed to write line", "")
		}
		return nil
	}

	prev, epoch := s.block()
	if prev > 0 {
		s.seq.CursorPrevLine(prev)
	}
	s.seq.ClearLine()
	s.scratch.WriteString(line)
	s.scratch.WriteByte('\n')
	// Erase what is left of the old block below the printed line.
	fmt.Fprintf(&s.scratch, termenv.CSI+termenv.EraseDisplaySeq, 0)

	if _, err := s.w.Write(s.scratch.Bytes()); err != nil {
		return errors.WrapWithCode(err, errors.ErrRender, "failed to write line", "")
	}
	s.drew(epoch, 0)
	return nil
}

// block returns the rows below the anchor and the commit epoch they belong to.
func (s *Surface) block() (lines int, epoch uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lines, s.epoch
}

// drew records the block left by a finished write. A Commit that happened
// while the write was in flight wins.
func (s *Surface) drew(epoch uint64, lines int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch == epoch {
		s.lines = lines
	}
}

// Commit leaves the drawn block on screen and forgets it, so the next
// Redraw starts a new block below.
func (s *Surface) Commit() {
	s.mu.Lock()
	s.lines = 0
	s.epoch++
	s.mu.Unlock()
}

// Acquire hides the cursor and installs the interrupt guard. The returned
// release shows the cursor again and is safe to call more than once.
// Non-interactive outputs return ErrTerminalUnavailable and a no-op release.
func (s *Surface) Acquire() (release func(), err error) {
	if !s.interactive {
		return func() {}, ErrTerminalUnavailable
	}

	s.wmu.Lock()
	defer s.wmu.Unlock()

	s.mu.Lock()
	s.holds++
	first := s.holds == 1
	if first {
		s.guard = newSignalGuard(s.restoreCursor, s.redeliver)
	}
	s.mu.Unlock()

	if first {
		s.writeSeq(func() { s.seq.HideCursor() })
	}

	var once sync.Once
	return func() {
		once.Do(s.release)
	}, nil
}

// release blocks while another write is stuck in the writer.
func (s *Surface) release() {
	s.wmu.Lock()
	s.mu.Lock()
	s.holds--
	var g *signalGuard
	if s.holds == 0 {
		g = s.guard
		s.guard = nil
	}
	s.mu.Unlock()
	if g != nil {
		s.writeSeq(func() { s.seq.ShowCursor() })
	}
	s.wmu.Unlock()

	if g != nil {
		g.stop()
	}
}

// restoreCursor is the interrupt path: it shows the cursor without waiting
// for the write lock, which the interrupted tick may hold.
func (s *Surface) restoreCursor() {
	_, _ = io.WriteString(s.w, termenv.CSI+termenv.ShowCursorSeq)
}

// writeSeq must be called with wmu held.
func (s *Surface) writeSeq(emit func()) {
	s.scratch.Reset()
	emit()
	_, _ = s.w.Write(s.scratch.Bytes())
}

// WithHiddenCursor runs fn with the cursor hidden. The cursor is shown again
// when fn returns, when it panics (the panic continues after the restore)
// and when the process is interrupted. On a plain stream fn simply runs.
func (s *Surface) WithHiddenCursor(fn func() error) error {
	release, err := s.Acquire()
	if err != nil && !errors.IsCode(err, errors.ErrTerminal) {
		return err
	}
	defer release()
	return fn()
}
