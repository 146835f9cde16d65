package cli

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rileyhilliard/indica/internal/config"
	"github.com/rileyhilliard/indica/internal/errors"
	"github.com/rileyhilliard/indica/internal/logger"
	"github.com/rileyhilliard/indica/pkg/render"
	"github.com/rileyhilliard/indica/pkg/surface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syncBuffer lets the render worker and the test share output.
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

func plainEngine(t *testing.T, cfg *config.Config, out io.Writer, log logger.Logger) *render.Engine {
	t.Helper()
	cfg.Interval = 10 * time.Millisecond
	require.NoError(t, config.Validate(cfg))
	return newEngine(cfg, out, log, surface.WithInteractive(false))
}

func TestParsePipeLine(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		want    pipeLine
		wantOK  bool
		wantErr bool
	}{
		{name: "blank", line: "   ", wantOK: false},
		{name: "comment", line: "# progress follows", wantOK: false},
		{name: "value", line: "fetch 30", want: pipeLine{Name: "fetch", Op: opProgress, Value: 30}, wantOK: true},
		{name: "value and max", line: "fetch 3 10", want: pipeLine{Name: "fetch", Op: opProgress, Value: 3, Max: 10, HasMax: true}, wantOK: true},
		{name: "fractional", line: "  io 0.5 ", want: pipeLine{Name: "io", Op: opProgress, Value: 0.5}, wantOK: true},
		{name: "done", line: "fetch done", want: pipeLine{Name: "fetch", Op: opDone}, wantOK: true},
		{name: "fail upper case", line: "fetch FAIL", want: pipeLine{Name: "fetch", Op: opFail}, wantOK: true},
		{name: "postfix keeps spacing", line: "fetch postfix 3 files  left", want: pipeLine{Name: "fetch", Op: opPostfix, Text: "3 files  left"}, wantOK: true},
		{name: "prefix", line: "fetch prefix step 1:", want: pipeLine{Name: "fetch", Op: opPrefix, Text: "step 1:"}, wantOK: true},
		{name: "empty postfix", line: "fetch postfix", want: pipeLine{Name: "fetch", Op: opPostfix}, wantOK: true},
		{name: "name only", line: "fetch", wantErr: true},
		{name: "bad value", line: "fetch lots", wantErr: true},
		{name: "bad max", line: "fetch 1 many", wantErr: true},
		{name: "too many fields", line: "fetch 1 2 3", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok, err := parsePipeLine(tt.line)
			if tt.wantErr {
				assert.Error(t, err)
				assert.False(t, ok)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestRestAfterFields(t *testing.T) {
	assert.Equal(t, "c  d", restAfterFields("a b c  d", 2))
	assert.Equal(t, "", restAfterFields("a b", 2))
	assert.Equal(t, "b", restAfterFields("a\tb", 1))
}

func TestRunPipe(t *testing.T) {
	input := strings.Join([]string{
		"# build log",
		"fetch 30 100",
		"fetch postfix downloading",
		"build 5 10",
		"not-a-number x",
		"fetch done",
		"build fail",
		"lint 2 4",
		"",
	}, "\n")

	cfg := config.DefaultConfig()
	cfg.Bar.Fill = "#"
	cfg.Bar.Empty = "-"
	var out syncBuffer
	log := logger.NewBufferLogger()
	eng := plainEngine(t, cfg, &out, log)

	require.NoError(t, runPipe(context.Background(), cfg, eng, strings.NewReader(input), log))

	lines := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
	require.Len(t, lines, 3, "one line per indicator: %q", out.String())

	byName := map[string]string{}
	for _, line := range lines {
		byName[strings.Fields(line)[0]] = line
	}
	assert.Contains(t, byName["fetch"], "100%")
	assert.Contains(t, byName["fetch"], "downloading")
	assert.Contains(t, byName["build"], " 50%")
	assert.Contains(t, byName["lint"], " 50%")

	assert.Equal(t, 1, log.Count("warn"), "the malformed line is logged")
	assert.False(t, eng.Running())
	assert.True(t, eng.AllCompleted(), "indicators left running are stopped at end of input")
}

func TestRunPipeCancelled(t *testing.T) {
	cfg := config.DefaultConfig()
	var out syncBuffer
	eng := plainEngine(t, cfg, &out, logger.Noop())

	pr, pw := io.Pipe()
	defer pw.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- runPipe(ctx, cfg, eng, pr, logger.Noop())
	}()

	_, err := pw.Write([]byte("job 1 2\n"))
	require.NoError(t, err)
	require.Eventually(t, func() bool { return eng.Registry().Len() == 1 }, 2*time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("runPipe did not return after cancel")
	}
	assert.Contains(t, out.String(), "job")
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, io.ErrUnexpectedEOF }

func TestRunPipeReadError(t *testing.T) {
	cfg := config.DefaultConfig()
	eng := plainEngine(t, cfg, io.Discard, logger.Noop())

	err := runPipe(context.Background(), cfg, eng, failingReader{}, logger.Noop())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrRender))
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}
