package suspend

import (
	"time"

	"codeberg.org/voltshift/stitchd/internal/errors"
	"codeberg.org/voltshift/stitchd/internal/logger"
)

// Producer bridges the operating-system sleep signal into the hub. It owns
// the reconnect budget: each stream failure costs one attempt and a fixed
// delay, a clean stream end costs the attempt without the delay, and once
// the budget is spent the hub is closed for good.
type Producer struct {
	cfg    Config
	source Source
	hub    *Hub
}

func NewProducer(cfg Config, source Source, hub *Hub) (*Producer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &Producer{
		cfg:    cfg,
		source: source,
		hub:    hub,
	}, nil
}

// Run blocks until the attempt budget is spent; call it on its own
// goroutine. The retry sleep happens here and never on a consumer path.
func (p *Producer) Run() {
	errFactory := errors.New()

	for attempt := 1; attempt <= p.cfg.Attempts; attempt++ {
		logger.Info().Int("attempt", attempt).Msg("Connecting to sleep signal source")

		if err := p.source.Stream(p.hub.Publish); err != nil {
			logger.ErrorWithCode(errFactory.Wrap(ErrSourceUnreachable, err)).
				Int("attempt", attempt).
				Msg("Sleep signal stream failed")
			time.Sleep(p.cfg.RetryDelay)
		}
	}

	logger.Warn().
		Str("error_code", string(ErrWatchExhausted)).
		Msg("Stopping suspend watch after repeated signal failures")
	p.hub.Close()
}
