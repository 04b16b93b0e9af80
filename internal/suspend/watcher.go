package suspend

import (
	"sync/atomic"

	"codeberg.org/voltshift/stitchd/internal/logger"
)

// Watcher is the wait-for-resume primitive handed to each hardware-control
// loop. Wait blocks its caller from the suspend edge to the wake edge. Once
// the feeding channel closes the watcher is disabled for the rest of the
// process lifetime and Wait never returns.
type Watcher struct {
	ch    <-chan bool
	state atomic.Int32
}

func newWatcher(ch <-chan bool) *Watcher {
	w := &Watcher{ch: ch}
	w.state.Store(int32(StateActive))

	return w
}

func (w *Watcher) State() State {
	return State(w.state.Load())
}

// Wait blocks until a suspend edge has been followed by a wake edge. A wake
// edge without a preceding suspend returns immediately. There is no timeout
// and no cancellation; a disabled watcher parks its caller forever.
func (w *Watcher) Wait() {
	w.state.Store(int32(StateWaitingForSuspend))

	entering, ok := <-w.ch
	if !ok {
		w.disable()
	}

	if !entering {
		logger.Warn().Msg("Wake event without suspend")
		w.state.Store(int32(StateActive))

		return
	}

	logger.Info().Msg("Suspended; holding hardware writes until wake")
	w.state.Store(int32(StateSuspended))

	for {
		entering, ok := <-w.ch
		if !ok {
			w.disable()
		}

		if entering {
			logger.Debug().Msg("Repeated suspend event while suspended")
			continue
		}

		logger.Info().Msg("Woken up; resuming hardware writes")
		w.state.Store(int32(StateActive))

		return
	}
}

// disable parks the calling goroutine permanently; the empty select never
// returns
func (w *Watcher) disable() {
	w.state.Store(int32(StateDisabled))
	logger.Warn().Msg("Suspend events stopped; watcher disabled")

	select {}
}
