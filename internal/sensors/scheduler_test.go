package sensors

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingPoller struct {
	mu     sync.Mutex
	n      int
	polled chan struct{}
}

func newCountingPoller() *countingPoller {
	return &countingPoller{polled: make(chan struct{}, 64)}
}

func (p *countingPoller) Poll() error {
	p.mu.Lock()
	p.n++
	p.mu.Unlock()
	select {
	case p.polled <- struct{}{}:
	default:
	}
	return nil
}

func (p *countingPoller) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.n
}

func waitForPolls(t *testing.T, p *countingPoller, want int) {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for i := 0; i < want; i++ {
		select {
		case <-p.polled:
		case <-deadline:
			t.Fatalf("timed out waiting for %d polls, got %d", want, p.count())
		}
	}
}

func TestSchedulerDrivesPolls(t *testing.T) {
	p := newCountingPoller()
	s := NewScheduler(p)
	s.Start(5 * time.Millisecond)
	defer s.Stop()

	waitForPolls(t, p, 3)
	assert.GreaterOrEqual(t, p.count(), 3)
}

func TestNoPollBeginsAfterStop(t *testing.T) {
	p := newCountingPoller()
	s := NewScheduler(p)
	s.Start(time.Millisecond)
	waitForPolls(t, p, 2)

	s.Stop()
	settled := p.count()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, settled, p.count(), "no poll may begin after Stop returns")
}

func TestSchedulerStopIdempotent(t *testing.T) {
	p := newCountingPoller()
	s := NewScheduler(p)
	s.Start(time.Millisecond)
	waitForPolls(t, p, 1)

	s.Stop()
	s.Stop()
}

func TestSchedulerStopWithoutStart(t *testing.T) {
	s := NewScheduler(newCountingPoller())
	s.Stop()
}

func TestSchedulerStopFromAnotherGoroutine(t *testing.T) {
	p := newCountingPoller()
	s := NewScheduler(p)
	s.Start(time.Millisecond)
	waitForPolls(t, p, 1)

	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Stop did not return")
	}
}

func TestSchedulerDefaultPeriod(t *testing.T) {
	p := newCountingPoller()
	s := NewScheduler(p)
	// Non-positive periods fall back to the default rather than panic.
	s.Start(0)
	waitForPolls(t, p, 1)
	s.Stop()
	require.GreaterOrEqual(t, p.count(), 1)
}
