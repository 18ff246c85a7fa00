package sensors

import (
	"sync"
	"time"

	"github.com/google/overtop/internal/logger"
)

// DefaultPeriod is the reference polling cadence.
const DefaultPeriod = 750 * time.Millisecond

// Poller is the aggregator surface the scheduler drives.
type Poller interface {
	Poll() error
}

// Scheduler drives a Poller on a fixed period from a dedicated
// goroutine, keeping sensor I/O off the display loop entirely.
type Scheduler struct {
	poller Poller
	done   chan struct{}
	wg     sync.WaitGroup

	startOnce sync.Once
	stopOnce  sync.Once
}

func NewScheduler(p Poller) *Scheduler {
	return &Scheduler{poller: p, done: make(chan struct{})}
}

// Start begins ticking. Non-positive periods fall back to DefaultPeriod.
// Subsequent calls are no-ops.
func (s *Scheduler) Start(period time.Duration) {
	if period <= 0 {
		period = DefaultPeriod
	}
	s.startOnce.Do(func() {
		s.wg.Add(1)
		go s.run(period)
	})
}

func (s *Scheduler) run(period time.Duration) {
	defer s.wg.Done()

	select {
	case <-s.done:
		return
	default:
	}
	// Poll immediately so the display has data before the first period
	// elapses.
	s.pollOnce()

	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			// Re-check so a Stop racing the tick wins.
			select {
			case <-s.done:
				return
			default:
			}
			s.pollOnce()
		}
	}
}

func (s *Scheduler) pollOnce() {
	if err := s.poller.Poll(); err != nil {
		logger.Debug().Err(err).Msg("poll skipped")
	}
}

// Stop halts the tick loop and waits for it to exit: after Stop returns
// no further poll begins, though one already in flight completes first.
// Safe to call from any goroutine, any number of times, including before
// Start.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.done)
	})
	s.wg.Wait()
}
