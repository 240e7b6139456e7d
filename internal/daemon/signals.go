package daemon

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// SignalHandler separates the daemon's two signal concerns: SIGINT and
// SIGTERM ask for shutdown, SIGHUP asks for a schedule reload so newly
// registered medicines fire without a restart.
type SignalHandler struct {
	signals  chan os.Signal
	done     chan struct{}
	onReload func()
}

// NewSignalHandler creates a signal handler. The reload callback runs on
// each SIGHUP; nil means SIGHUP is ignored.
func NewSignalHandler(onReload func()) *SignalHandler {
	return &SignalHandler{
		signals:  make(chan os.Signal, 1),
		done:     make(chan struct{}),
		onReload: onReload,
	}
}

// Setup registers the signal notifications.
func (h *SignalHandler) Setup() {
	signal.Notify(h.signals,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGHUP,
	)
}

// Wait blocks until a shutdown signal arrives or the context is canceled.
// Reload signals are handled in place and do not end the wait.
func (h *SignalHandler) Wait(ctx context.Context) os.Signal {
	for {
		select {
		case sig := <-h.signals:
			if sig == syscall.SIGHUP {
				if h.onReload != nil {
					h.onReload()
				}
				continue
			}
			return sig
		case <-ctx.Done():
			return nil
		case <-h.done:
			return nil
		}
	}
}

// Stop stops waiting for signals.
func (h *SignalHandler) Stop() {
	signal.Stop(h.signals)
	close(h.done)
}

// Cleanup unregisters the signal notifications.
func (h *SignalHandler) Cleanup() {
	signal.Stop(h.signals)
}
