// Package metrics defines the sensor value model and the providers that
// sample it.
package metrics

import (
	"time"
)

// Reason explains why a metric slot carries no value.
type Reason string

const (
	ReasonNone           Reason = ""
	ReasonNotPolled      Reason = "not_polled"
	ReasonCounterMissing Reason = "counter_missing"
	ReasonReadFailed     Reason = "read_failed"
	ReasonVendorAPI      Reason = "vendor_api"
	ReasonProviderDown   Reason = "provider_down"
)

// MetricValue is a single reading that is either present or explicitly
// unavailable. Unavailable is always distinguishable from a zero
// reading.
type MetricValue struct {
	value   float64
	present bool
	reason  Reason
}

// Present returns a metric carrying the given reading.
func Present(v float64) MetricValue {
	return MetricValue{value: v, present: true}
}

// Unavailable returns a metric with no reading and the reason it is
// missing.
func Unavailable(r Reason) MetricValue {
	return MetricValue{reason: r}
}

// Value returns the reading and whether one is present.
func (m MetricValue) Value() (float64, bool) {
	return m.value, m.present
}

// Available reports whether a reading is present.
func (m MetricValue) Available() bool {
	return m.present
}

// Why returns the unavailability reason, or ReasonNone for a present
// value.
func (m MetricValue) Why() Reason {
	return m.reason
}

// Snapshot bundles every tracked metric at one poll tick. Snapshots are
// values: built whole, published by replacement, never mutated.
type Snapshot struct {
	Timestamp   time.Time
	CPUTempC    MetricValue // degrees Celsius
	CPUUsagePct MetricValue // percent, 0-100
	GPUTempC    MetricValue // degrees Celsius
	GPUUsagePct MetricValue // percent, 0-100
	NetInBps    MetricValue // bytes per second
	NetOutBps   MetricValue // bytes per second
}

// UnavailableSnapshot returns a snapshot with every metric marked
// unavailable for the given reason.
func UnavailableSnapshot(ts time.Time, r Reason) Snapshot {
	u := Unavailable(r)
	return Snapshot{
		Timestamp:   ts,
		CPUTempC:    u,
		CPUUsagePct: u,
		GPUTempC:    u,
		GPUUsagePct: u,
		NetInBps:    u,
		NetOutBps:   u,
	}
}
