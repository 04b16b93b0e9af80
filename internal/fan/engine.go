package fan

import (
	"sync"
	"time"

	"codeberg.org/voltshift/stitchd/internal/errors"
	"codeberg.org/voltshift/stitchd/internal/logger"
	"codeberg.org/voltshift/stitchd/internal/suspend"
)

const temperatureWindow = 5

// Engine drives the fan from the applied curve. One goroutine ticks the
// control loop; a second waits on the suspend watcher and re-applies the
// last state after wake. Device writes stop entirely while suspended.
type Engine struct {
	cfg     Config
	device  Controller
	watcher *suspend.Watcher
	log     logger.Logger

	mu        sync.Mutex
	curve     Curve
	override  bool
	lastSpeed uint8
	haveSpeed bool
	tempHist  []float64
	state     State

	stopOnce sync.Once
	stopChan chan struct{}
	doneChan chan struct{}
}

func NewEngine(cfg Config, device Controller, watcher *suspend.Watcher, log logger.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &Engine{
		cfg:      cfg,
		device:   device,
		watcher:  watcher,
		log:      log,
		curve:    DefaultCurve(),
		stopChan: make(chan struct{}),
		doneChan: make(chan struct{}),
	}, nil
}

// Start launches the control loop and the wake guard
func (e *Engine) Start() {
	go e.run()
	go e.wakeGuard()
}

// Stop ends the control loop. The wake guard stays parked if the suspend
// subsystem disabled itself; it holds no resources.
func (e *Engine) Stop() {
	e.stopOnce.Do(func() {
		close(e.stopChan)
	})
	<-e.doneChan
}

func (e *Engine) run() {
	defer close(e.doneChan)

	ticker := time.NewTicker(time.Duration(e.cfg.Interval) * time.Second)
	defer ticker.Stop()

	if e.cfg.Monitor {
		e.log.Info().Msg("Monitor mode: fan speed is logged, never written")
	}

	for {
		select {
		case <-e.stopChan:
			return
		case <-ticker.C:
			e.step()
		}
	}
}

func (e *Engine) wakeGuard() {
	for {
		e.watcher.Wait()

		select {
		case <-e.stopChan:
			return
		default:
		}

		e.log.Debug().Msg("Reapplying fan state after wake")
		e.reapply()
	}
}

func (e *Engine) step() {
	if e.watcher.State() == suspend.StateSuspended {
		return
	}

	temp, err := e.device.Temperature()
	if err != nil {
		e.log.ErrorWithCode(errors.New().Wrap(ErrTemperatureReadFailed, err)).
			Msg("Skipping fan update")
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	avg := e.updateTemperatureHistory(temp)
	e.state.Temperature = temp
	e.state.AverageTemperature = avg

	if e.override {
		return
	}

	target := e.curve.SpeedAt(avg)
	e.state.TargetSpeed = target

	if e.haveSpeed && withinHysteresis(target, e.lastSpeed, e.cfg.Hysteresis) {
		return
	}

	if e.cfg.Monitor {
		return
	}

	if err := e.writeSpeed(target); err != nil {
		e.log.Error().Err(err).Msg("Failed to set fan speed")
	}
}

// Apply installs a new curve, clears any override, and applies the curve at
// the current temperature. While suspended the curve is only installed; the
// wake guard applies it afterwards. Implements the coordinator's fan
// applier.
func (e *Engine) Apply(data []byte) error {
	curve, err := ParseCurve(data)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.curve = curve
	e.override = false

	if e.watcher.State() == suspend.StateSuspended {
		return nil
	}

	temp, err := e.device.Temperature()
	if err != nil {
		// The next tick picks the new curve up
		e.log.Warn().Err(err).Msg("Deferred curve apply; temperature read failed")
		return nil
	}

	avg := e.updateTemperatureHistory(temp)
	e.state.Temperature = temp
	e.state.AverageTemperature = avg

	target := e.curve.SpeedAt(avg)
	e.state.TargetSpeed = target

	if e.cfg.Monitor {
		return nil
	}

	return e.writeSpeed(target)
}

// Override latches a manual speed until the next Apply. The control loop
// keeps updating temperatures but stops following the curve.
func (e *Engine) Override(speed uint8) error {
	errFactory := errors.New()

	if speed > maxFanSpeed {
		return errFactory.WithData(ErrInvalidSpeed, speed)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.override = true
	e.state.TargetSpeed = speed

	if e.cfg.Monitor || e.watcher.State() == suspend.StateSuspended {
		return nil
	}

	return e.writeSpeed(speed)
}

// State returns a snapshot for logging and metrics
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := e.state
	s.Overridden = e.override
	s.Suspended = e.watcher.State() == suspend.StateSuspended

	return s
}

func (e *Engine) reapply() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.cfg.Monitor {
		return
	}

	speed := e.state.TargetSpeed
	if !e.override {
		temp, err := e.device.Temperature()
		if err == nil {
			avg := e.updateTemperatureHistory(temp)
			e.state.Temperature = temp
			e.state.AverageTemperature = avg
			speed = e.curve.SpeedAt(avg)
			e.state.TargetSpeed = speed
		}
	}

	if err := e.writeSpeed(speed); err != nil {
		e.log.Error().Err(err).Msg("Failed to reapply fan speed after wake")
	}
}

// writeSpeed requires e.mu
func (e *Engine) writeSpeed(speed uint8) error {
	if err := e.device.SetSpeed(speed); err != nil {
		return errors.New().Wrap(ErrSetSpeedFailed, err)
	}

	if e.haveSpeed && e.lastSpeed != speed {
		e.log.Debug().Msgf("Fan speed changed from %d to %d", e.lastSpeed, speed)
	}

	e.lastSpeed = speed
	e.haveSpeed = true
	e.state.CurrentSpeed = speed

	return nil
}

func (e *Engine) updateTemperatureHistory(temp float64) float64 {
	e.tempHist = append(e.tempHist, temp)
	if len(e.tempHist) > temperatureWindow {
		e.tempHist = e.tempHist[1:]
	}

	sum := 0.0
	for _, t := range e.tempHist {
		sum += t
	}

	return sum / float64(len(e.tempHist))
}

func withinHysteresis(target, current uint8, hysteresis int) bool {
	diff := int(target) - int(current)
	if diff < 0 {
		diff = -diff
	}

	return diff <= hysteresis
}
