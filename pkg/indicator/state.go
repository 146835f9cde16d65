package indicator

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/rileyhilliard/indica/internal/errors"
	"github.com/rileyhilliard/indica/internal/logger"
)

// Status is the lifecycle status of an indicator. Transitions only go
// forward: Running -> Completed or Running -> Stopped.
type Status int32

const (
	StatusRunning Status = iota
	StatusCompleted
	StatusStopped
)

func (s Status) String() string {
	switch s {
	case StatusRunning:
		return "running"
	case StatusCompleted:
		return "completed"
	case StatusStopped:
		return "stopped"
	}
	return fmt.Sprintf("Status(%d)", int32(s))
}

// Terminal reports whether the status is Completed or Stopped.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusStopped
}

// ErrInvalidRange matches (via errors.Is) every clamp reported by Clamp.
var ErrInvalidRange = errors.New(errors.ErrRange, "progress value out of range", "")

// Clamp limits v to [0, max]. NaN becomes 0. The returned error is non-nil
// (and matches ErrInvalidRange) when v had to be changed. Callers recover
// from it locally; it is never propagated to the application.
func Clamp(v, max float64) (float64, error) {
	switch {
	case math.IsNaN(v):
		return 0, errors.New(errors.ErrRange, "progress is NaN, using 0", "")
	case v < 0:
		return 0, errors.New(errors.ErrRange, fmt.Sprintf("progress %g is negative, using 0", v), "")
	case v > max:
		return max, errors.New(errors.ErrRange, fmt.Sprintf("progress %g is above max %g, using %g", v, max, max), "")
	}
	return v, nil
}

// State is the mutable progress data of one indicator, owned by whichever
// goroutine drives the task. Every method is safe for concurrent use; none
// of them performs terminal I/O.
type State struct {
	cfg Config
	now func() time.Time
	log logger.Logger

	mu        sync.Mutex
	progress  float64
	max       float64
	prefix    string
	postfix   string
	status    Status
	start     time.Time
	end       time.Time
	frame     int
	lastFrame time.Time
	done      chan struct{}
	hooks     map[uint64]func(Status)
	nextHook  uint64
}

// New creates a running indicator of the given kind.
func New(kind Kind, opts ...Option) *State {
	s := &settings{
		cfg:   DefaultConfig(kind),
		clock: time.Now,
		log:   logger.Noop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.cfg.Kind = kind
	if s.cfg.Max <= 0 {
		s.cfg.Max = DefaultMax
	}
	if len(s.cfg.SpinnerFrames) == 0 {
		s.cfg.SpinnerFrames = DefaultSpinnerFrames
	}
	if s.cfg.BarWidth <= 0 {
		s.cfg.BarWidth = DefaultBarWidth
	}

	start := s.clock()
	return &State{
		cfg:       s.cfg,
		now:       s.clock,
		log:       s.log,
		max:       s.cfg.Max,
		prefix:    s.cfg.Prefix,
		postfix:   s.cfg.Postfix,
		status:    StatusRunning,
		start:     start,
		lastFrame: start,
		done:      make(chan struct{}),
		hooks:     make(map[uint64]func(Status)),
	}
}

// Config returns the display configuration the indicator was built with.
func (s *State) Config() Config {
	return s.cfg
}

// Kind returns the indicator kind.
func (s *State) Kind() Kind {
	return s.cfg.Kind
}

// SetProgress stores min(v, max) for positive v and 0 for negative v.
// Ignored once the indicator reached a terminal status.
func (s *State) SetProgress(v float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status.Terminal() {
		return
	}
	s.progress = s.clampLocked(v)
}

// Increment adds delta to the progress with the same clamping as SetProgress.
func (s *State) Increment(delta float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status.Terminal() {
		return
	}
	s.progress = s.clampLocked(s.progress + delta)
}

// SetMax changes the maximum. Non-positive values are an InvalidRange
// condition and are ignored. The current progress is re-clamped.
func (s *State) SetMax(max float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status.Terminal() {
		return
	}
	if max <= 0 || math.IsNaN(max) || math.IsInf(max, 0) {
		s.log.Debug("%s", errors.Short(errors.New(errors.ErrRange,
			fmt.Sprintf("max %g must be positive, keeping %g", max, s.max), "")))
		return
	}
	s.max = max
	s.progress = s.clampLocked(s.progress)
}

// clampLocked applies Clamp and logs the recovered InvalidRange. Must be
// called with lock held.
func (s *State) clampLocked(v float64) float64 {
	clamped, err := Clamp(v, s.max)
	if err != nil {
		s.log.Debug("%s", errors.Short(err))
	}
	return clamped
}

// SetPrefix replaces the text drawn before the bar.
func (s *State) SetPrefix(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prefix = text
}

// SetPostfix replaces the text drawn after the bar.
func (s *State) SetPostfix(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.postfix = text
}

// Tick advances a spinner or indeterminate bar by one frame. For bars it
// adds one unit of progress.
func (s *State) Tick() {
	switch s.cfg.Kind {
	case KindSpinner, KindIndeterminate:
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.status.Terminal() {
			return
		}
		s.frame++
		s.lastFrame = s.now()
	default:
		s.Increment(1)
	}
}

// Animate advances the frame when at least one frame interval passed since
// the last advance. Only running spinners and indeterminate bars animate.
// Returns true when the frame changed.
func (s *State) Animate(now time.Time) bool {
	if s.cfg.Kind != KindSpinner && s.cfg.Kind != KindIndeterminate {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status.Terminal() || now.Sub(s.lastFrame) < s.cfg.Interval {
		return false
	}
	s.frame++
	s.lastFrame = now
	return true
}

// MarkCompleted moves a running indicator to Completed. Calling it again,
// or after Stop, has no effect. Returns true when the status changed.
func (s *State) MarkCompleted() bool {
	return s.transition(StatusCompleted)
}

// Stop moves a running indicator to Stopped. Returns true when the status changed.
func (s *State) Stop() bool {
	return s.transition(StatusStopped)
}

// MarkStopped is an alias for Stop.
func (s *State) MarkStopped() bool {
	return s.Stop()
}

func (s *State) transition(to Status) bool {
	s.mu.Lock()
	if s.status.Terminal() {
		s.mu.Unlock()
		return false
	}
	s.status = to
	s.end = s.now()
	close(s.done)
	hooks := make([]func(Status), 0, len(s.hooks))
	for _, fn := range s.hooks {
		hooks = append(hooks, fn)
	}
	s.mu.Unlock()

	// Hooks run without the state lock so they may take other locks.
	for _, fn := range hooks {
		fn(to)
	}
	return true
}

// OnStatusChange registers fn to be called after every status transition.
// The returned function removes the hook.
func (s *State) OnStatusChange(fn func(Status)) (remove func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextHook
	s.nextHook++
	s.hooks[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.hooks, id)
	}
}

// Done returns a channel closed when the indicator reaches a terminal status.
func (s *State) Done() <-chan struct{} {
	return s.done
}

// Status returns the current status.
func (s *State) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// IsTerminal reports whether the indicator is Completed or Stopped.
func (s *State) IsTerminal() bool {
	return s.Status().Terminal()
}

// Progress returns the stored progress.
func (s *State) Progress() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.progress
}

// Max returns the current maximum.
func (s *State) Max() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.max
}

// Snapshot is a point-in-time copy of the display-relevant fields of a State.
type Snapshot struct {
	Kind      Kind
	Progress  float64
	Max       float64
	Prefix    string
	Postfix   string
	Status    Status
	Spinner   SpinnerState
	Elapsed   time.Duration
	Remaining time.Duration // zero when unknown or done
}

// Fraction returns progress/max limited to [0, 1].
func (s Snapshot) Fraction() float64 {
	if s.Max <= 0 {
		return 0
	}
	f := s.Progress / s.Max
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// Snapshot copies the state under its lock. Elapsed time freezes at the
// terminal transition.
func (s *State) Snapshot(now time.Time) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	end := now
	if s.status.Terminal() {
		end = s.end
	}
	elapsed := end.Sub(s.start)
	if elapsed < 0 {
		elapsed = 0
	}

	var remaining time.Duration
	if !s.status.Terminal() && s.progress > 0 && s.progress < s.max {
		remaining = time.Duration(float64(elapsed) * (s.max - s.progress) / s.progress)
	}

	return Snapshot{
		Kind:     s.cfg.Kind,
		Progress: s.progress,
		Max:      s.max,
		Prefix:   s.prefix,
		Postfix:  s.postfix,
		Status:   s.status,
		Spinner: SpinnerState{
			Frames:   s.cfg.SpinnerFrames,
			Index:    s.frame,
			Interval: s.cfg.Interval,
		},
		Elapsed:   elapsed,
		Remaining: remaining,
	}
}
