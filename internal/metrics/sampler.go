package metrics

import (
	"context"
	"sync"
	"time"

	"codeberg.org/voltshift/stitchd/internal/logger"
)

// CollectFunc builds a snapshot of the current system state
type CollectFunc func() *MetricsSnapshot

// Sampler periodically collects a snapshot and hands it to the collector
type Sampler struct {
	collector MetricsCollector
	collect   CollectFunc
	interval  time.Duration
	log       logger.Logger

	stopOnce sync.Once
	stopChan chan struct{}
	doneChan chan struct{}
}

func NewSampler(cfg Config, collector MetricsCollector, collect CollectFunc, log logger.Logger) *Sampler {
	return &Sampler{
		collector: collector,
		collect:   collect,
		interval:  time.Duration(cfg.Interval) * time.Second,
		log:       log,
		stopChan:  make(chan struct{}),
		doneChan:  make(chan struct{}),
	}
}

func (s *Sampler) Start() {
	go s.run()
}

// Stop ends sampling. The collector is closed separately.
func (s *Sampler) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
	})
	<-s.doneChan
}

func (s *Sampler) run() {
	defer close(s.doneChan)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.sample()
		}
	}
}

func (s *Sampler) sample() {
	snapshot := s.collect()
	if snapshot == nil {
		return
	}

	if snapshot.Timestamp.IsZero() {
		snapshot.Timestamp = time.Now()
	}

	if err := s.collector.Record(context.Background(), snapshot); err != nil {
		s.log.Error().Err(err).Msg("Failed to record metrics sample")
	}
}
