// Package sensors orchestrates the metric providers on a fixed cadence
// and publishes the latest snapshot for display-side readers.
package sensors

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/overtop/internal/logger"
	"github.com/google/overtop/internal/metrics"
)

// Sampler is one provider family: a pair of related readings sampled
// together each tick. CPU and GPU pairs are (temperature, usage); the
// network pair is (bytes in, bytes out) per second.
type Sampler interface {
	Init() error
	Sample() (metrics.MetricValue, metrics.MetricValue)
	Shutdown()
}

type state int

const (
	stateUninitialized state = iota
	stateReady
	statePolling
	stateStopped
)

// ErrNotStarted is returned by Poll outside the Ready and Polling
// states.
var ErrNotStarted = errors.New("aggregator not started")

// Aggregator owns the providers and the shared latest-snapshot slot.
// All sensor I/O happens on the goroutine calling Poll; readers load the
// slot at any cadence without ever blocking on sensor queries.
type Aggregator struct {
	cpu, gpu, net       Sampler
	cpuUp, gpuUp, netUp bool

	mu     sync.Mutex
	st     state
	lastTS time.Time

	latest atomic.Pointer[metrics.Snapshot]
}

func NewAggregator(cpu, gpu, net Sampler) *Aggregator {
	return &Aggregator{cpu: cpu, gpu: gpu, net: net}
}

// Start initializes every provider. A provider that fails stays
// permanently degraded, its metrics reading unavailable, without holding
// up its siblings.
func (a *Aggregator) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.st != stateUninitialized {
		return nil
	}
	a.cpuUp = initProvider("cpu", a.cpu)
	a.gpuUp = initProvider("gpu", a.gpu)
	a.netUp = initProvider("net", a.net)
	a.st = stateReady
	return nil
}

func initProvider(name string, s Sampler) bool {
	if err := s.Init(); err != nil {
		logger.Warn().Err(err).Str("provider", name).Msg("provider init failed, metrics degraded")
		return false
	}
	return true
}

// Poll samples every provider and publishes a fresh snapshot whole. A
// metric whose source fails this tick comes back unavailable; the
// snapshot itself always publishes.
func (a *Aggregator) Poll() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	switch a.st {
	case stateReady:
		a.st = statePolling
	case statePolling:
	default:
		return ErrNotStarted
	}

	ts := time.Now()
	if ts.Before(a.lastTS) {
		// Keep published timestamps non-decreasing across clock steps.
		ts = a.lastTS
	}
	a.lastTS = ts

	snap := metrics.Snapshot{Timestamp: ts}
	snap.CPUTempC, snap.CPUUsagePct = sampleProvider(a.cpuUp, a.cpu)
	snap.GPUTempC, snap.GPUUsagePct = sampleProvider(a.gpuUp, a.gpu)
	snap.NetInBps, snap.NetOutBps = sampleProvider(a.netUp, a.net)
	a.latest.Store(&snap)
	return nil
}

func sampleProvider(up bool, s Sampler) (metrics.MetricValue, metrics.MetricValue) {
	if !up {
		down := metrics.Unavailable(metrics.ReasonProviderDown)
		return down, down
	}
	return s.Sample()
}

// Stop shuts every provider down. Idempotent; previously published
// snapshots stay readable.
func (a *Aggregator) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.st == stateStopped {
		return
	}
	if a.st != stateUninitialized {
		if a.cpuUp {
			a.cpu.Shutdown()
		}
		if a.gpuUp {
			a.gpu.Shutdown()
		}
		if a.netUp {
			a.net.Shutdown()
		}
	}
	a.st = stateStopped
}

// Latest returns the most recently published snapshot, or a fully
// unavailable one before the first poll. Never blocks.
func (a *Aggregator) Latest() metrics.Snapshot {
	if snap := a.latest.Load(); snap != nil {
		return *snap
	}
	return metrics.UnavailableSnapshot(time.Time{}, metrics.ReasonNotPolled)
}
