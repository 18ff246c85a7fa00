// Package counters abstracts the native performance-counter subsystem:
// open a counter by path, refresh the shared query session, read
// formatted values, close. On Windows this is backed by PDH; elsewhere a
// portable backend serves the same contract from host sensors.
package counters

import (
	"errors"
	"fmt"
	"time"
)

// Canonical counter paths for the curated metric set.
const (
	ThermalZoneTemperature = `\Thermal Zone Information(*)\Temperature`
	ProcessorTime          = `\Processor(_Total)\% Processor Time`
	GPUEngineUtilization   = `\GPU Engine(*)\Utilization Percentage`
	NetworkBytesReceived   = `\Network Interface(*)\Bytes Received/sec`
	NetworkBytesSent       = `\Network Interface(*)\Bytes Sent/sec`
)

// ErrCounterUnavailable reports that a counter path does not exist on
// this machine. Absent hardware or a missing driver is expected on
// heterogeneous hosts, not a fault.
var ErrCounterUnavailable = errors.New("counter unavailable")

// ReadError reports a transient failure reading an already-open counter.
// The next refresh retries naturally; no retry loop is needed.
type ReadError struct {
	Path string
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("reading counter %s: %v", e.Path, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

// Instance is one expansion of a wildcard counter path. Names are
// reported lowercased.
type Instance struct {
	Name  string
	Value float64
}

// Handle is an open counter bound to a single path. A handle is owned by
// the provider that opened it and is only meaningful to the Registry
// that issued it.
type Handle struct {
	path string
	impl any
}

// NewHandle returns a handle bound to path with no backing resource.
// Registry implementations in this package attach their own state; test
// fakes key off Path.
func NewHandle(path string) *Handle { return &Handle{path: path} }

func (h *Handle) Path() string { return h.path }

// Registry owns one underlying query session shared by every handle
// opened through it. Read and ReadInstances return values collected by
// the most recent Refresh, so a provider refreshes once per tick and
// then reads its whole batch of handles before the next refresh.
type Registry interface {
	// Open binds a counter path. ErrCounterUnavailable means the path
	// does not exist on this host.
	Open(path string) (*Handle, error)
	// Refresh collects fresh data for every handle in the session.
	Refresh() error
	// Read returns the formatted value of a single-instance counter.
	Read(h *Handle) (float64, error)
	// ReadInstances expands a wildcard counter into its instances.
	ReadInstances(h *Handle) ([]Instance, error)
	// Close releases the session. Idempotent.
	Close()
}

// counterDelta converts two cumulative readings into a per-second rate.
// A counter reset (current below previous) yields 0, never a negative
// rate.
func counterDelta(current, previous uint64, elapsed time.Duration) float64 {
	if elapsed <= 0 || current < previous {
		return 0
	}
	return float64(current-previous) / elapsed.Seconds()
}
