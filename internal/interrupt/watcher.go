// Package interrupt waits for the external signals that end a run early.
package interrupt

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// DefaultSignals end a run: Ctrl+C, kill (and awake -k), terminal hangup.
var DefaultSignals = []os.Signal{syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP}

// Watcher delivers the first interrupt signal received after Start.
type Watcher struct {
	signals []os.Signal
	// Buffer of 1 so signal.Notify never drops the first signal.
	sigCh chan os.Signal

	startOnce sync.Once
	stopOnce  sync.Once
	fireOnce  sync.Once
	fired     chan struct{}
	sig       os.Signal
}

// New returns a Watcher for sigs, or DefaultSignals when none are given.
func New(sigs ...os.Signal) *Watcher {
	if len(sigs) == 0 {
		sigs = DefaultSignals
	}
	return &Watcher{
		signals: sigs,
		sigCh:   make(chan os.Signal, 1),
		fired:   make(chan struct{}),
	}
}

// Start registers for the signals. Until Stop is called, the default action
// of those signals (process termination) no longer applies.
func (w *Watcher) Start() {
	w.startOnce.Do(func() {
		signal.Notify(w.sigCh, w.signals...)
	})
}

// Stop unregisters the signals.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		signal.Stop(w.sigCh)
	})
}

// Wait blocks until the first signal arrives or ctx is done. Once a signal
// has been observed every call returns it immediately.
func (w *Watcher) Wait(ctx context.Context) (os.Signal, error) {
	select {
	case <-w.fired:
		return w.sig, nil
	default:
	}

	select {
	case sig := <-w.sigCh:
		w.fire(sig)
		<-w.fired
		return w.sig, nil
	case <-w.fired:
		return w.sig, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (w *Watcher) fire(sig os.Signal) {
	w.fireOnce.Do(func() {
		w.sig = sig
		close(w.fired)
	})
}

// deliver simulates a received signal without going through the OS.
func (w *Watcher) deliver(sig os.Signal) {
	select {
	case w.sigCh <- sig:
	default:
	}
}
