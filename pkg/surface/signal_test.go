//go:build unix

package surface

import (
	"os"
	"os/signal"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignalGuardRestoresCursor(t *testing.T) {
	tests := []struct {
		name      string
		redeliver bool
		caught    int
	}{
		{name: "left to the caller", redeliver: false, caught: 1},
		{name: "re-delivered", redeliver: true, caught: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Our own handler keeps SIGINT from ending the test binary.
			caught := make(chan os.Signal, 4)
			signal.Notify(caught, syscall.SIGINT)
			t.Cleanup(func() { signal.Stop(caught) })

			var buf lockedBuffer
			s := New(&buf, WithInteractive(true), WithSignalRedelivery(tt.redeliver))
			release, err := s.Acquire()
			require.NoError(t, err)
			defer release()
			require.Equal(t, hideCursor, buf.String())

			require.NoError(t, syscall.Kill(os.Getpid(), syscall.SIGINT))

			require.Eventually(t, func() bool {
				return strings.Contains(buf.String(), showCursor)
			}, 2*time.Second, 5*time.Millisecond, "the guard shows the cursor")
			require.Eventually(t, func() bool {
				return len(caught) == tt.caught
			}, 2*time.Second, 5*time.Millisecond)
			assert.Len(t, caught, tt.caught)
		})
	}
}

func TestSignalGuardStop(t *testing.T) {
	restored := false
	g := newSignalGuard(func() { restored = true }, true)
	g.stop()
	g.stop()
	assert.False(t, restored)
}
