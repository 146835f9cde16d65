package render

import (
	"bytes"
	"context"
	stderrors "errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/muesli/termenv"
	"github.com/rileyhilliard/indica/internal/logger"
	"github.com/rileyhilliard/indica/pkg/indicator"
	"github.com/rileyhilliard/indica/pkg/surface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syncBuffer is a bytes.Buffer safe for the render worker and the test to share.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// slowWriter takes longer per frame than the tick interval. Cursor
// sequences, which carry no newline, go through at once.
type slowWriter struct {
	delay time.Duration
}

func (w slowWriter) Write(p []byte) (int, error) {
	if bytes.Contains(p, []byte("\n")) {
		time.Sleep(w.delay)
	}
	return len(p), nil
}

// panicWriter panics on every frame write but lets cursor sequences through.
type panicWriter struct{}

func (panicWriter) Write(p []byte) (int, error) {
	if bytes.Contains(p, []byte("\n")) {
		panic("writer exploded")
	}
	return len(p), nil
}

// stuckWriter blocks frame writes until unblock is closed. Cursor sequences
// go through at once.
type stuckWriter struct {
	entered chan struct{}
	unblock chan struct{}
}

func newStuckWriter(t *testing.T) *stuckWriter {
	w := &stuckWriter{entered: make(chan struct{}, 1), unblock: make(chan struct{})}
	t.Cleanup(func() { close(w.unblock) })
	return w
}

func (w *stuckWriter) Write(p []byte) (int, error) {
	if bytes.Contains(p, []byte("\n")) {
		select {
		case w.entered <- struct{}{}:
		default:
		}
		<-w.unblock
	}
	return len(p), nil
}

func (w *stuckWriter) waitEntered(t *testing.T) {
	t.Helper()
	select {
	case <-w.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("no frame reached the writer")
	}
}

func newTTYEngine(w io.Writer, opts ...Option) *Engine {
	s := surface.New(w,
		surface.WithInteractive(true),
		surface.WithSize(30, 10),
		surface.WithColorProfile(termenv.Ascii),
	)
	opts = append([]Option{WithSurface(s), WithInterval(5 * time.Millisecond)}, opts...)
	return New(w, opts...)
}

func TestEngineRendersInPlace(t *testing.T) {
	var out syncBuffer
	eng := newTTYEngine(&out)

	bar := newBar("job ")
	eng.Register(bar)

	eng.Start(context.Background())
	bar.SetProgress(40)
	time.Sleep(50 * time.Millisecond)
	bar.MarkCompleted()
	eng.Stop()

	got := out.String()
	assert.True(t, strings.HasPrefix(got, "\x1b[?25l"), "cursor hidden on start")
	assert.True(t, strings.HasSuffix(got, "\x1b[?25h"), "cursor shown on stop")
	assert.Contains(t, got, "job [####------]")
	assert.Contains(t, got, "\x1b[1F", "later frames move back over the block")
	assert.Greater(t, eng.Stats().Frames, uint64(1))
	assert.Equal(t, 0, eng.Surface().Lines(), "stop leaves the block behind")
}

func TestEngineDoubleStartStop(t *testing.T) {
	var out syncBuffer
	eng := newTTYEngine(&out)

	eng.Stop()
	assert.False(t, eng.Running())

	eng.Start(context.Background())
	eng.Start(context.Background())
	assert.True(t, eng.Running())

	eng.Stop()
	eng.Stop()
	assert.False(t, eng.Running())
	assert.Equal(t, 1, strings.Count(out.String(), "\x1b[?25l"))
	assert.Equal(t, 1, strings.Count(out.String(), "\x1b[?25h"))

	// A stopped engine can be started again.
	eng.Start(context.Background())
	assert.True(t, eng.Running())
	eng.Stop()
}

func TestEngineSkipsTicksBehindSlowWriter(t *testing.T) {
	eng := newTTYEngine(slowWriter{delay: 40 * time.Millisecond}, WithInterval(2*time.Millisecond))
	eng.Register(newBar("slow"))

	eng.Start(context.Background())
	time.Sleep(150 * time.Millisecond)
	assert.LessOrEqual(t, len(eng.pending), 1, "never more than one queued tick")
	eng.Stop()

	stats := eng.Stats()
	assert.Greater(t, stats.Skipped, uint64(0))
	assert.Greater(t, stats.Frames, uint64(0))
}

func TestEngineStopTimeout(t *testing.T) {
	const timeout = 20 * time.Millisecond
	log := logger.NewBufferLogger()
	w := newStuckWriter(t)
	eng := newTTYEngine(w, WithStopTimeout(timeout), WithLogger(log))
	eng.Register(newBar("stuck"))

	eng.Start(context.Background())
	w.waitEntered(t)

	stopped := make(chan struct{})
	go func() {
		eng.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(10 * timeout):
		t.Fatal("Stop blocked behind a stuck writer")
	}

	assert.False(t, eng.Running())
	assert.Equal(t, 0, eng.Surface().Lines(), "the block is committed")
	assert.True(t, log.HasLevel("warn"), "the skipped final frame is reported")
}

func TestEngineRecoversFromPanics(t *testing.T) {
	log := logger.NewBufferLogger()
	eng := newTTYEngine(panicWriter{}, WithLogger(log))
	eng.Register(newBar("boom"))

	eng.Start(context.Background())
	time.Sleep(40 * time.Millisecond)
	eng.Stop()

	assert.Equal(t, 1, log.Count("error"), "the first failure is logged once")
	assert.True(t, log.HasLevel("debug"), "repeats are demoted")
	assert.Contains(t, joinMessages(log), "writer exploded")
}

func joinMessages(log *logger.BufferLogger) string {
	var sb strings.Builder
	for _, m := range log.Entries() {
		sb.WriteString(m.Message)
		sb.WriteString("\n")
	}
	return sb.String()
}

func TestEnginePlainMode(t *testing.T) {
	var out syncBuffer
	eng := New(&out, WithInterval(5*time.Millisecond))
	require.False(t, eng.Surface().Interactive())

	first := newBar("first ")
	second := newBar("second ")
	eng.Register(first)
	eng.Register(second)

	eng.Start(context.Background())
	first.SetProgress(100)
	first.MarkCompleted()
	time.Sleep(40 * time.Millisecond)

	got := out.String()
	assert.Equal(t, "first [##########]\n", got, "finished rows are printed as they finish")

	second.SetProgress(50)
	eng.Stop()

	got = out.String()
	assert.NotContains(t, got, "\x1b", "no escape sequences on plain streams")
	assert.Equal(t, 1, strings.Count(got, "first "))
	assert.Contains(t, got, "second [#####-----]\n", "stop prints the rows still running")
}

func TestEngineRemoveCompleted(t *testing.T) {
	var out syncBuffer
	eng := newTTYEngine(&out, WithRemoveCompleted(true))

	done := newBar("done ")
	busy := newBar("busy ")
	eng.Register(done)
	busyHandle := eng.Register(busy)

	eng.Start(context.Background())
	done.SetProgress(100)
	done.MarkCompleted()

	require.Eventually(t, func() bool {
		return eng.Registry().Len() == 1
	}, time.Second, 5*time.Millisecond)

	row, ok := eng.Registry().Row(busyHandle)
	require.True(t, ok)
	assert.Equal(t, 0, row, "remaining rows move up")

	busy.Stop()
	eng.Stop()
	assert.Contains(t, out.String(), "done [##########]")
}

func TestEngineCapacityLoggedOnce(t *testing.T) {
	var out syncBuffer
	log := logger.NewBufferLogger()
	s := surface.New(&out,
		surface.WithInteractive(true),
		surface.WithSize(30, 4),
		surface.WithColorProfile(termenv.Ascii),
	)
	eng := New(&out, WithSurface(s), WithInterval(5*time.Millisecond), WithLogger(log))
	for i := 0; i < 6; i++ {
		eng.Register(newBar("row "))
	}

	eng.Start(context.Background())
	time.Sleep(40 * time.Millisecond)
	eng.Stop()

	assert.Equal(t, 1, log.Count("warn"))
	assert.Contains(t, out.String(), "+4 more")
	assert.Equal(t, 0, s.Lines())
}

func TestEngineUnregisterRedraws(t *testing.T) {
	var out syncBuffer
	eng := newTTYEngine(&out, WithInterval(time.Hour), WithRedrawLimit(time.Millisecond))

	a := eng.Register(newBar("a "))
	eng.Register(newBar("b "))

	eng.Start(context.Background())
	require.Eventually(t, func() bool { return eng.Stats().Frames >= 1 }, time.Second, time.Millisecond)

	time.Sleep(5 * time.Millisecond)
	require.True(t, eng.Unregister(a))
	require.Eventually(t, func() bool { return eng.Stats().Frames >= 2 }, time.Second, time.Millisecond,
		"unregister requests a frame without waiting for the tick")
	assert.False(t, eng.Unregister(a))
	eng.Stop()
}

func TestEngineRun(t *testing.T) {
	var out syncBuffer
	eng := newTTYEngine(&out)
	boom := stderrors.New("boom")

	err := eng.Run(context.Background(), func(ctx context.Context) error {
		assert.True(t, eng.Running())
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.False(t, eng.Running())

	assert.Panics(t, func() {
		_ = eng.Run(context.Background(), func(ctx context.Context) error {
			panic("inside run")
		})
	})
	assert.False(t, eng.Running(), "stopped on panic")
	assert.True(t, strings.HasSuffix(out.String(), "\x1b[?25h"))
}

func TestEngineWait(t *testing.T) {
	var out syncBuffer
	eng := newTTYEngine(&out)

	states := []*indicator.State{newBar("a "), newBar("b ")}
	for _, st := range states {
		eng.Register(st)
	}

	err := eng.Run(context.Background(), func(ctx context.Context) error {
		for _, st := range states {
			go func(st *indicator.State) {
				for i := 0; i < 5; i++ {
					st.Increment(20)
					time.Sleep(time.Millisecond)
				}
				st.MarkCompleted()
			}(st)
		}
		return eng.Wait(ctx)
	})
	require.NoError(t, err)
	assert.True(t, eng.AllCompleted())
	assert.Contains(t, out.String(), "a [##########]")
}

func TestEnginePrintln(t *testing.T) {
	var out syncBuffer
	eng := New(&out)

	require.NoError(t, eng.Println("\x1b[1mhello\x1b[0m"))
	assert.Equal(t, "hello\n", out.String())
}

func TestEnginePrintlnWhileRunning(t *testing.T) {
	t.Run("written ahead of the next frame", func(t *testing.T) {
		var out syncBuffer
		eng := newTTYEngine(&out)
		eng.Register(newBar("job "))

		eng.Start(context.Background())
		require.NoError(t, eng.Println("note"))
		require.Eventually(t, func() bool {
			return strings.Contains(out.String(), "note\n")
		}, 2*time.Second, 5*time.Millisecond)
		eng.Stop()

		got := out.String()
		assert.Less(t, strings.LastIndex(got, "note\n"), strings.LastIndex(got, "job ["), "the block is drawn again below the line")
	})

	t.Run("flushed by Stop", func(t *testing.T) {
		var out syncBuffer
		eng := New(&out, WithInterval(time.Hour), WithRedrawLimit(time.Hour))

		eng.Start(context.Background())
		require.NoError(t, eng.Println("last words"))
		eng.Stop()

		assert.Equal(t, "last words\n", out.String())
	})

	t.Run("caller does not wait on the terminal", func(t *testing.T) {
		log := logger.NewBufferLogger()
		w := newStuckWriter(t)
		eng := newTTYEngine(w, WithStopTimeout(20*time.Millisecond), WithLogger(log))
		eng.Register(newBar("stuck"))

		eng.Start(context.Background())
		w.waitEntered(t)

		printed := make(chan error, 1)
		go func() { printed <- eng.Println("queued") }()
		select {
		case err := <-printed:
			require.NoError(t, err)
		case <-time.After(time.Second):
			t.Fatal("Println blocked behind a stuck writer")
		}

		eng.Stop()
		assert.Contains(t, joinMessages(log), "dropped 1 printed lines")
	})
}
