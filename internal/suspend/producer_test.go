package suspend_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/voltshift/stitchd/internal/errors"
	"codeberg.org/voltshift/stitchd/internal/suspend"
)

// fakeSource scripts one Stream outcome per connection attempt. Each call
// publishes its events and then returns the scripted error, nil meaning a
// clean stream end.
type fakeSource struct {
	mu      sync.Mutex
	calls   int
	events  [][]bool
	results []error
}

func (s *fakeSource) Stream(publish func(entering bool)) error {
	s.mu.Lock()
	call := s.calls
	s.calls++
	s.mu.Unlock()

	if call < len(s.events) {
		for _, entering := range s.events[call] {
			publish(entering)
		}
	}

	if call < len(s.results) {
		return s.results[call]
	}

	return nil
}

func (s *fakeSource) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.calls
}

func TestRunRetriesUntilBudgetSpent(t *testing.T) {
	errFactory := errors.New()
	hub := suspend.NewHub()
	source := &fakeSource{
		results: []error{
			errFactory.New(suspend.ErrSourceUnreachable),
			errFactory.New(suspend.ErrSourceUnreachable),
			errFactory.New(suspend.ErrSourceUnreachable),
		},
	}

	producer, err := suspend.NewProducer(suspend.Config{Attempts: 3, RetryDelay: time.Millisecond}, source, hub)
	require.NoError(t, err)

	producer.Run()

	assert.Equal(t, 3, source.callCount(), "Expected one Stream call per attempt")

	// The spent budget closes the hub, disabling any later subscriber
	watcher := hub.Subscribe()
	done := waitInBackground(watcher)

	assert.Eventually(t, func() bool {
		return watcher.State() == suspend.StateDisabled
	}, eventuallyTimeout, pollInterval, "Expected the hub closed after the last attempt")

	assertBlocked(t, done, "Expected a disabled watcher to never return from Wait")
}

func TestRunCleanEndSkipsRetryDelay(t *testing.T) {
	hub := suspend.NewHub()
	source := &fakeSource{results: []error{nil, nil, nil}}

	producer, err := suspend.NewProducer(suspend.Config{Attempts: 3, RetryDelay: time.Minute}, source, hub)
	require.NoError(t, err)

	start := time.Now()
	producer.Run()

	assert.Equal(t, 3, source.callCount())
	assert.Less(t, time.Since(start), 10*time.Second, "Expected no retry sleep after clean stream ends")
}

func TestRunForwardsEventsToHub(t *testing.T) {
	hub := suspend.NewHub()
	watcher := hub.Subscribe()
	source := &fakeSource{
		events:  [][]bool{{true, false}},
		results: []error{nil},
	}

	producer, err := suspend.NewProducer(suspend.Config{Attempts: 1, RetryDelay: time.Millisecond}, source, hub)
	require.NoError(t, err)

	producer.Run()

	// Both edges are buffered ahead of the close, so the cycle completes
	done := waitInBackground(watcher)

	assertReturns(t, done, "Expected the buffered suspend cycle to complete")
	assert.Equal(t, suspend.StateActive, watcher.State())
}

func TestNewProducerValidatesConfig(t *testing.T) {
	hub := suspend.NewHub()

	_, err := suspend.NewProducer(suspend.Config{Attempts: 0, RetryDelay: time.Second}, &fakeSource{}, hub)
	assert.True(t, errors.HasCode(err, errors.ErrInvalidConfig))

	_, err = suspend.NewProducer(suspend.Config{Attempts: 1, RetryDelay: -time.Second}, &fakeSource{}, hub)
	assert.True(t, errors.HasCode(err, errors.ErrInvalidConfig))
}

func TestDefaultConfigValid(t *testing.T) {
	cfg := suspend.DefaultConfig()

	assert.NoError(t, cfg.Validate())
	assert.Equal(t, 3, cfg.Attempts)
	assert.Equal(t, 10*time.Second, cfg.RetryDelay)
}
