package render

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rileyhilliard/indica/internal/errors"
	"github.com/rileyhilliard/indica/internal/logger"
	"github.com/rileyhilliard/indica/pkg/indicator"
	"github.com/rileyhilliard/indica/pkg/surface"
	"golang.org/x/time/rate"
)

// Defaults for engine options.
const (
	DefaultInterval    = 100 * time.Millisecond
	DefaultStopTimeout = time.Second
)

// ErrCapacityExceeded matches (via errors.Is) the condition where more rows
// are registered than the terminal can show.
var ErrCapacityExceeded = errors.New(errors.ErrCapacity,
	"more indicators than terminal rows",
	"Rows that do not fit are summarized; enlarge the terminal to see them")

// engineState is the Idle -> Running -> Stopping -> Idle lifecycle.
type engineState int

const (
	stateIdle engineState = iota
	stateRunning
	stateStopping
)

func (s engineState) String() string {
	switch s {
	case stateRunning:
		return "running"
	case stateStopping:
		return "stopping"
	default:
		return "idle"
	}
}

// Stats counts render activity since the engine was created.
type Stats struct {
	Frames  uint64 // frames written
	Skipped uint64 // ticks dropped because the previous one was still pending
}

// Engine redraws every registered indicator on a fixed interval from one
// background worker. Producers only touch indicator state and never block
// on the terminal.
type Engine struct {
	mu     sync.Mutex
	status engineState
	cancel context.CancelFunc
	sched  chan struct{} // closed when the scheduler exits
	work   chan struct{} // closed when the worker exits
	unlock func()        // releases the surface
	queued []string      // Println lines waiting for the worker

	reg     *Registry
	surface *surface.Surface
	log     logger.Logger
	now     func() time.Time

	interval        time.Duration
	redrawLimit     time.Duration
	stopTimeout     time.Duration
	removeCompleted bool

	limiter *rate.Limiter
	pending chan struct{} // at most one queued tick

	// Worker-owned: touched only by the worker goroutine and by the final
	// render in Stop, which runs after the worker exited.
	plain   bool
	printed map[Handle]bool

	frames         atomic.Uint64
	skipped        atomic.Uint64
	tickErrLogged  atomic.Bool
	capacityLogged atomic.Bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithInterval sets the render tick interval.
func WithInterval(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.interval = d
		}
	}
}

// WithLogger sets the logger used for recovered conditions.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithSurface draws on an existing surface instead of creating one.
func WithSurface(s *surface.Surface) Option {
	return func(e *Engine) {
		e.surface = s
	}
}

// WithRemoveCompleted unregisters indicators once they are Completed or
// Stopped. Their final line is printed above the block so it stays visible.
func WithRemoveCompleted(remove bool) Option {
	return func(e *Engine) {
		e.removeCompleted = remove
	}
}

// WithRedrawLimit sets the minimum gap between redraws requested outside
// the regular tick. Defaults to the tick interval.
func WithRedrawLimit(d time.Duration) Option {
	return func(e *Engine) {
		e.redrawLimit = d
	}
}

// WithStopTimeout bounds how long Stop waits for an in-flight tick.
func WithStopTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.stopTimeout = d
		}
	}
}

// WithClock overrides the time source (for tests).
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// New creates an idle engine drawing on out.
func New(out io.Writer, opts ...Option) *Engine {
	e := &Engine{
		log:         logger.Noop(),
		now:         time.Now,
		interval:    DefaultInterval,
		stopTimeout: DefaultStopTimeout,
		pending:     make(chan struct{}, 1),
		printed:     make(map[Handle]bool),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.surface == nil {
		e.surface = surface.New(out)
	}
	if e.redrawLimit <= 0 {
		e.redrawLimit = e.interval
	}
	e.limiter = rate.NewLimiter(rate.Every(e.redrawLimit), 1)
	e.reg = NewRegistry(e.surface.Renderer())
	return e
}

// Registry returns the coordinator holding the engine's rows.
func (e *Engine) Registry() *Registry {
	return e.reg
}

// Surface returns the surface the engine draws on.
func (e *Engine) Surface() *surface.Surface {
	return e.surface
}

// Register adds st as the last row.
func (e *Engine) Register(st *indicator.State) Handle {
	h := e.reg.Register(st)
	e.RequestRedraw()
	return h
}

// Unregister removes a row. The rows below move up on the next frame.
func (e *Engine) Unregister(h Handle) bool {
	if !e.reg.Unregister(h) {
		return false
	}
	e.RequestRedraw()
	return true
}

// Wait blocks until every registered indicator is Completed or Stopped, or
// ctx is done.
func (e *Engine) Wait(ctx context.Context) error {
	return e.reg.Wait(ctx)
}

// AllCompleted reports whether every registered indicator is terminal.
func (e *Engine) AllCompleted() bool {
	return e.reg.AllCompleted()
}

// Println prints a line above the indicator block. While the engine runs
// the line is queued and written by the render worker ahead of the next
// frame, so the caller never touches the terminal. An idle engine writes
// it at once.
func (e *Engine) Println(line string) error {
	e.mu.Lock()
	if e.status != stateIdle {
		e.queued = append(e.queued, line)
		e.mu.Unlock()
		e.RequestRedraw()
		return nil
	}
	defer e.mu.Unlock()
	return e.surface.Println(line)
}

// Stats returns the frame and skipped tick counters.
func (e *Engine) Stats() Stats {
	return Stats{
		Frames:  e.frames.Load(),
		Skipped: e.skipped.Load(),
	}
}

// Running reports whether the engine is between Start and Stop.
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status == stateRunning
}

// Start begins rendering in the background. It is a no-op unless the
// engine is idle. When the output is not an interactive terminal the engine
// prints one plain line per finished indicator instead of redrawing.
// Cancelling ctx stops the ticks; Stop is still needed for the final frame.
func (e *Engine) Start(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.status != stateIdle {
		return
	}

	release, err := e.surface.Acquire()
	e.plain = err != nil
	if err != nil {
		e.log.Debug("%s, using plain output", errors.Short(err))
	}
	e.unlock = release

	ctx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	e.sched = make(chan struct{})
	e.work = make(chan struct{})
	e.status = stateRunning

	go e.schedule(ctx, e.sched)
	go e.worker(ctx, e.work)
	e.log.Debug("render engine started (interval %s)", e.interval)
}

// Stop cancels the ticks, waits up to the stop timeout for an in-flight
// tick, draws the final frame and releases the terminal. It is a no-op
// unless the engine is running.
func (e *Engine) Stop() {
	e.mu.Lock()
	if e.status != stateRunning {
		e.mu.Unlock()
		return
	}
	e.status = stateStopping
	cancel, sched, work, release := e.cancel, e.sched, e.work, e.unlock
	e.mu.Unlock()

	cancel()
	<-sched

	timer := time.NewTimer(e.stopTimeout)
	defer timer.Stop()
	finished := true
	select {
	case <-work:
		e.drainPending()
		e.safeRender(true)
	case <-timer.C:
		finished = false
		e.log.Warn("render tick still running after %s, skipping final frame", e.stopTimeout)
	}

	e.surface.Commit()
	if finished {
		release()
	} else {
		// The cursor comes back once the stuck write returns.
		go release()
	}

	e.mu.Lock()
	late := e.queued
	e.status = stateIdle
	e.cancel = nil
	e.unlock = nil
	e.queued = nil
	e.mu.Unlock()

	switch {
	case !finished && len(late) > 0:
		e.log.Warn("dropped %d printed lines behind a stuck render tick", len(late))
	case finished:
		// Lines printed while the final frame was being drawn.
		for _, line := range late {
			if err := e.surface.Println(line); err != nil {
				e.log.Debug("%s", errors.Short(err))
				break
			}
		}
	}
	e.log.Debug("render engine stopped (%d frames, %d skipped ticks)", e.frames.Load(), e.skipped.Load())
}

// Run starts the engine, calls fn and stops the engine on every exit path,
// including a panic in fn.
func (e *Engine) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	e.Start(ctx)
	defer e.Stop()
	return fn(ctx)
}

// RequestRedraw asks for a frame before the next tick. Requests are rate
// limited and never queue more than one pending tick.
func (e *Engine) RequestRedraw() {
	if !e.limiter.Allow() {
		return
	}
	select {
	case e.pending <- struct{}{}:
	default:
	}
}

// schedule hands one tick per interval to the worker. A tick that finds the
// previous one still pending is dropped and counted.
func (e *Engine) schedule(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	e.enqueue()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.enqueue()
		}
	}
}

func (e *Engine) enqueue() {
	select {
	case e.pending <- struct{}{}:
	default:
		e.skipped.Add(1)
	}
}

func (e *Engine) drainPending() {
	select {
	case <-e.pending:
	default:
	}
}

func (e *Engine) worker(ctx context.Context, done chan struct{}) {
	defer close(done)
	for {
		select {
		case <-ctx.Done():
			return
		case <-e.pending:
			e.safeRender(false)
		}
	}
}

// safeRender draws one frame. Panics and write errors are recovered and
// logged once; the frame is skipped.
func (e *Engine) safeRender(final bool) {
	defer func() {
		if r := recover(); r != nil {
			e.reportTickError(errors.New(errors.ErrRender, fmt.Sprintf("render tick panicked: %v", r), ""))
		}
	}()
	if err := e.render(final); err != nil {
		e.reportTickError(err)
	}
}

func (e *Engine) reportTickError(err error) {
	if e.tickErrLogged.CompareAndSwap(false, true) {
		e.log.Error("%s", errors.Short(err))
		return
	}
	e.log.Debug("%s", errors.Short(err))
}

// flushQueued writes the lines queued by Println above the block.
func (e *Engine) flushQueued() error {
	e.mu.Lock()
	lines := e.queued
	e.queued = nil
	e.mu.Unlock()

	for i, line := range lines {
		if err := e.surface.Println(line); err != nil {
			e.log.Debug("dropped %d printed lines", len(lines)-i)
			return err
		}
	}
	return nil
}

func (e *Engine) render(final bool) error {
	if err := e.flushQueued(); err != nil {
		return err
	}

	now := e.now()
	entries := e.reg.copyEntries()
	if !final {
		for _, en := range entries {
			en.state.Animate(now)
		}
	}

	width, height := e.surface.Size()
	snap := snapshotOf(entries, now, width, height)

	if e.removeCompleted {
		var err error
		snap.Rows, err = e.retireCompleted(snap)
		if err != nil {
			return err
		}
	}

	if e.plain {
		return e.renderPlain(snap, final)
	}

	if _, hidden := snap.Visible(); hidden > 0 && e.capacityLogged.CompareAndSwap(false, true) {
		e.log.Warn("%s: %d rows, %d fit", errors.Short(ErrCapacityExceeded), len(snap.Rows), snap.Capacity())
	}

	if err := e.surface.Redraw(snap.Lines()); err != nil {
		return err
	}
	e.frames.Add(1)
	return nil
}

// retireCompleted prints the final line of every terminal row, unregisters
// it and returns the rows that remain.
func (e *Engine) retireCompleted(snap Snapshot) ([]Row, error) {
	kept := snap.Rows[:0:0]
	for _, row := range snap.Rows {
		if !row.State.Status.Terminal() {
			kept = append(kept, row)
			continue
		}
		line := row.Style.Plain(row.State)
		if !e.plain {
			line = row.Line(snap.Width)
		}
		if err := e.surface.Println(line); err != nil {
			return snap.Rows, err
		}
		e.printed[row.Handle] = true
		e.reg.Unregister(row.Handle)
	}
	return kept, nil
}

// renderPlain prints each indicator once, when it finishes. The final
// render also prints the rows that are still running.
func (e *Engine) renderPlain(snap Snapshot, final bool) error {
	for _, row := range snap.Rows {
		if e.printed[row.Handle] {
			continue
		}
		if !final && !row.State.Status.Terminal() {
			continue
		}
		if err := e.surface.Println(row.Style.Plain(row.State)); err != nil {
			return err
		}
		e.printed[row.Handle] = true
		e.frames.Add(1)
	}
	return nil
}
