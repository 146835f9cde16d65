//go:build unix

package cli

import (
	"context"
	"io"
	"os"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/rileyhilliard/indica/internal/config"
	"github.com/rileyhilliard/indica/internal/logger"
	"github.com/rileyhilliard/indica/pkg/surface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignalContextInterrupt(t *testing.T) {
	ctx, cancel := signalContext(context.Background())
	defer cancel()

	require.NoError(t, syscall.Kill(os.Getpid(), syscall.SIGINT))
	select {
	case <-ctx.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("context not cancelled by SIGINT")
	}

	// The handler is still registered, so a second interrupt during
	// shutdown is absorbed instead of ending the process.
	require.NoError(t, syscall.Kill(os.Getpid(), syscall.SIGINT))
	time.Sleep(20 * time.Millisecond)
}

func TestInterruptDrawsFinalFrame(t *testing.T) {
	ctx, cancel := signalContext(context.Background())
	defer cancel()

	cfg := config.DefaultConfig()
	cfg.Interval = 10 * time.Millisecond
	var out syncBuffer
	eng := newEngine(cfg, &out, logger.Noop(), surface.WithInteractive(true), surface.WithSize(60, 10))

	pr, pw := io.Pipe()
	defer pw.Close()

	done := make(chan error, 1)
	go func() {
		done <- runPipe(ctx, cfg, eng, pr, logger.Noop())
	}()

	_, err := pw.Write([]byte("job 1 2\n"))
	require.NoError(t, err)
	require.Eventually(t, func() bool { return eng.Registry().Len() == 1 }, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, syscall.Kill(os.Getpid(), syscall.SIGINT))

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("runPipe did not return after SIGINT")
	}

	got := out.String()
	assert.Contains(t, got, "job")
	assert.True(t, strings.HasSuffix(got, "\x1b[?25h"), "cursor shown once the engine stops")
	assert.False(t, eng.Running())
}
