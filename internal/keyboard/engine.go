package keyboard

import (
	"math"
	"sync"
	"time"

	"codeberg.org/voltshift/stitchd/internal/errors"
	"codeberg.org/voltshift/stitchd/internal/logger"
	"codeberg.org/voltshift/stitchd/internal/suspend"
)

const frameInterval = 100 * time.Millisecond

// Engine drives the keyboard backlight from the applied profile. Steady
// colors are written once; animated profiles run on their own goroutine at
// a fixed frame cadence. A wake guard waits on the suspend watcher and
// re-applies the last state after wake. Device writes stop entirely while
// suspended.
type Engine struct {
	cfg     Config
	device  Backlight
	watcher *suspend.Watcher
	log     logger.Logger

	mu       sync.Mutex
	profile  ColorProfile
	override bool
	current  Color
	animStop chan struct{}
	animDone chan struct{}

	stopOnce sync.Once
	stopChan chan struct{}
}

func NewEngine(cfg Config, device Backlight, watcher *suspend.Watcher, log logger.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &Engine{
		cfg:      cfg,
		device:   device,
		watcher:  watcher,
		log:      log,
		profile:  DefaultProfile(),
		stopChan: make(chan struct{}),
	}, nil
}

// Start launches the wake guard. Animations start on demand from Apply.
func (e *Engine) Start() {
	if e.cfg.Monitor {
		e.log.Info().Msg("Monitor mode: backlight colors are logged, never written")
	}

	go e.wakeGuard()
}

// Stop ends any running animation. The wake guard stays parked if the
// suspend subsystem disabled itself; it holds no resources.
func (e *Engine) Stop() {
	e.stopOnce.Do(func() {
		close(e.stopChan)
	})
	e.stopAnimation()
}

func (e *Engine) wakeGuard() {
	for {
		e.watcher.Wait()

		select {
		case <-e.stopChan:
			return
		default:
		}

		e.log.Debug().Msg("Reapplying backlight state after wake")
		e.reapply()
	}
}

// Apply installs a new lighting profile and clears any override. While
// suspended the profile is only installed; the wake guard applies it
// afterwards. Implements the coordinator's keyboard applier.
func (e *Engine) Apply(data []byte) error {
	profile, err := ParseProfile(data)
	if err != nil {
		return err
	}

	e.mu.Lock()
	e.override = false
	e.mu.Unlock()

	return e.install(profile)
}

// Override latches a manual color until the next Apply, stopping any
// running animation.
func (e *Engine) Override(c Color) error {
	e.stopAnimation()

	e.mu.Lock()
	e.override = true
	e.mu.Unlock()

	return e.setSteady(c)
}

// State returns a snapshot for logging and metrics
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()

	return State{
		Color:      e.current,
		Animating:  e.animStop != nil,
		Overridden: e.override,
		Suspended:  e.watcher.State() == suspend.StateSuspended,
	}
}

func (e *Engine) install(profile ColorProfile) error {
	e.stopAnimation()

	e.mu.Lock()
	e.profile = profile
	e.mu.Unlock()

	switch {
	case profile.Single != nil:
		return e.setSteady(*profile.Single)
	case len(profile.Multiple) > 0:
		e.startAnimation(profile.Multiple)
		return nil
	default:
		// "None" turns the backlight off
		return e.setSteady(Color{})
	}
}

func (e *Engine) reapply() {
	e.mu.Lock()
	override := e.override
	current := e.current
	profile := e.profile
	e.mu.Unlock()

	if override {
		if err := e.setSteady(current); err != nil {
			e.log.Error().Err(err).Msg("Failed to reapply backlight override after wake")
		}
		return
	}

	if err := e.install(profile); err != nil {
		e.log.Error().Err(err).Msg("Failed to reapply backlight profile after wake")
	}
}

func (e *Engine) setSteady(c Color) error {
	e.mu.Lock()
	e.current = c
	e.mu.Unlock()

	if e.cfg.Monitor || e.watcher.State() == suspend.StateSuspended {
		return nil
	}

	if err := e.device.SetColor(c); err != nil {
		return errors.New().Wrap(ErrSetColorFailed, err)
	}

	return nil
}

// startAnimation hands the point loop to a fresh goroutine. Callers must
// have stopped the previous animation first.
func (e *Engine) startAnimation(points []ColorPoint) {
	stop := make(chan struct{})
	done := make(chan struct{})

	e.mu.Lock()
	e.animStop = stop
	e.animDone = done
	from := e.current
	e.mu.Unlock()

	go e.animate(points, from, stop, done)
}

func (e *Engine) stopAnimation() {
	e.mu.Lock()
	stop, done := e.animStop, e.animDone
	e.animStop, e.animDone = nil, nil
	e.mu.Unlock()

	if stop == nil {
		return
	}

	close(stop)
	<-done
}

func (e *Engine) animate(points []ColorPoint, from Color, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	current := from
	for {
		for _, pt := range points {
			select {
			case <-stop:
				return
			default:
			}

			hold := time.Duration(pt.TransitionTime) * time.Millisecond

			if pt.Transition == TransitionLinear {
				next, ok := e.fade(current, pt.Color, hold, stop)
				current = next
				if !ok {
					return
				}
				continue
			}

			e.writeFrame(pt.Color)
			current = pt.Color

			if !sleepFor(hold, stop) {
				return
			}
		}
	}
}

// fade walks from one color to the next in frame-sized steps. It returns
// the last color written and whether the fade ran to completion.
func (e *Engine) fade(from, to Color, duration time.Duration, stop <-chan struct{}) (Color, bool) {
	steps := int(duration / frameInterval)
	if steps < 1 {
		steps = 1
	}

	last := from
	for s := 1; s <= steps; s++ {
		if !sleepFor(duration/time.Duration(steps), stop) {
			return last, false
		}

		last = lerp(from, to, float64(s)/float64(steps))
		e.writeFrame(last)
	}

	return to, true
}

func (e *Engine) writeFrame(c Color) {
	e.mu.Lock()
	e.current = c
	e.mu.Unlock()

	if e.cfg.Monitor || e.watcher.State() == suspend.StateSuspended {
		return
	}

	if err := e.device.SetColor(c); err != nil {
		e.log.Debug().Err(err).Msg("Backlight frame write failed")
	}
}

func sleepFor(d time.Duration, stop <-chan struct{}) bool {
	select {
	case <-stop:
		return false
	case <-time.After(d):
		return true
	}
}

func lerp(from, to Color, frac float64) Color {
	step := func(a, b uint8) uint8 {
		return uint8(math.Round(float64(a) + frac*(float64(b)-float64(a))))
	}

	return Color{R: step(from.R, to.R), G: step(from.G, to.G), B: step(from.B, to.B)}
}
