package surface

import (
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// signalGuard restores the terminal when SIGINT or SIGTERM arrives while the
// cursor is hidden. With redeliver set it then re-delivers the signal with
// the default handling back in place; otherwise the signal is left to the
// other handlers registered with signal.Notify.
type signalGuard struct {
	sigChan  chan os.Signal
	stopChan chan struct{}
	doneChan chan struct{}
	once     sync.Once
}

func newSignalGuard(restore func(), redeliver bool) *signalGuard {
	g := &signalGuard{
		sigChan:  make(chan os.Signal, 1),
		stopChan: make(chan struct{}),
		doneChan: make(chan struct{}),
	}
	signal.Notify(g.sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer close(g.doneChan)
		select {
		case sig := <-g.sigChan:
			restore()
			signal.Stop(g.sigChan)
			if !redeliver {
				return
			}
			if p, err := os.FindProcess(os.Getpid()); err == nil {
				_ = p.Signal(sig)
			}
		case <-g.stopChan:
			signal.Stop(g.sigChan)
		}
	}()
	return g
}

// stop uninstalls the guard and waits for its goroutine to exit.
func (g *signalGuard) stop() {
	g.once.Do(func() {
		close(g.stopChan)
	})
	<-g.doneChan
}
