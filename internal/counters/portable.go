package counters

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	gopsnet "github.com/shirou/gopsutil/v3/net"
)

type portableKind int

const (
	kindCPUUsage portableKind = iota
	kindThermal
	kindNetRecv
	kindNetSent
)

// portableRegistry serves the Registry contract from portable host
// sensors. The network counters underneath are cumulative totals, so
// per-second rates are derived by differencing successive refreshes; a
// counter reset yields a zero rate for that tick. GPU engine counters
// have no portable source and report ErrCounterUnavailable at Open.
type portableRegistry struct {
	wantCPU, wantThermal, wantNet bool

	cpuPct  float64
	cpuErr  error
	temps   []host.TemperatureStat
	tempErr error

	netPrev     map[string]gopsnet.IOCountersStat
	netCur      map[string]gopsnet.IOCountersStat
	netElapsed  time.Duration
	netErr      error
	lastRefresh time.Time

	closed bool
}

func newPortableRegistry() *portableRegistry {
	return &portableRegistry{}
}

func (r *portableRegistry) Open(path string) (*Handle, error) {
	switch path {
	case ProcessorTime:
		// Interval 0 reports usage since the previous call, which lines
		// up with one sample per refresh.
		if _, err := cpu.Percent(0, false); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrCounterUnavailable, path, err)
		}
		r.wantCPU = true
		return &Handle{path: path, impl: kindCPUUsage}, nil
	case ThermalZoneTemperature:
		temps, err := host.SensorsTemperatures()
		if err != nil || len(temps) == 0 {
			return nil, fmt.Errorf("%w: %s: no thermal sensors", ErrCounterUnavailable, path)
		}
		r.wantThermal = true
		return &Handle{path: path, impl: kindThermal}, nil
	case NetworkBytesReceived, NetworkBytesSent:
		counters, err := gopsnet.IOCounters(true)
		if err != nil || len(counters) == 0 {
			return nil, fmt.Errorf("%w: %s: no adapters", ErrCounterUnavailable, path)
		}
		if !r.wantNet {
			r.wantNet = true
			r.netPrev = indexCounters(counters)
			r.lastRefresh = time.Now()
		}
		kind := kindNetRecv
		if path == NetworkBytesSent {
			kind = kindNetSent
		}
		return &Handle{path: path, impl: kind}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrCounterUnavailable, path)
	}
}

func (r *portableRegistry) Refresh() error {
	if r.wantCPU {
		pcts, err := cpu.Percent(0, false)
		if err != nil || len(pcts) == 0 {
			r.cpuErr = sampleFailure("cpu sample failed", err)
		} else {
			r.cpuPct, r.cpuErr = pcts[0], nil
		}
	}
	if r.wantThermal {
		r.temps, r.tempErr = host.SensorsTemperatures()
	}
	if r.wantNet {
		now := time.Now()
		counters, err := gopsnet.IOCounters(true)
		if err != nil {
			r.netErr = err
		} else {
			if r.netCur != nil {
				r.netPrev = r.netCur
			}
			r.netCur = indexCounters(counters)
			r.netElapsed = now.Sub(r.lastRefresh)
			r.netErr = nil
		}
		r.lastRefresh = now
	}
	return nil
}

func (r *portableRegistry) Read(h *Handle) (float64, error) {
	if h.impl.(portableKind) != kindCPUUsage {
		return 0, &ReadError{Path: h.path, Err: fmt.Errorf("not a single-instance counter")}
	}
	if r.cpuErr != nil {
		return 0, &ReadError{Path: h.path, Err: r.cpuErr}
	}
	return r.cpuPct, nil
}

func (r *portableRegistry) ReadInstances(h *Handle) ([]Instance, error) {
	switch h.impl.(portableKind) {
	case kindThermal:
		if r.tempErr != nil {
			return nil, &ReadError{Path: h.path, Err: r.tempErr}
		}
		out := make([]Instance, 0, len(r.temps))
		for _, t := range r.temps {
			out = append(out, Instance{Name: strings.ToLower(t.SensorKey), Value: t.Temperature})
		}
		return out, nil
	case kindNetRecv, kindNetSent:
		if r.netErr != nil {
			return nil, &ReadError{Path: h.path, Err: r.netErr}
		}
		sent := h.impl.(portableKind) == kindNetSent
		out := make([]Instance, 0, len(r.netCur))
		for name, cur := range r.netCur {
			prev, ok := r.netPrev[name]
			if !ok {
				continue
			}
			var rate float64
			if sent {
				rate = counterDelta(cur.BytesSent, prev.BytesSent, r.netElapsed)
			} else {
				rate = counterDelta(cur.BytesRecv, prev.BytesRecv, r.netElapsed)
			}
			out = append(out, Instance{Name: strings.ToLower(name), Value: rate})
		}
		return out, nil
	default:
		return nil, &ReadError{Path: h.path, Err: fmt.Errorf("not a wildcard counter")}
	}
}

func (r *portableRegistry) Close() {
	r.closed = true
}

// sampleFailure builds a read failure that tolerates a nil cause. A
// sensor call can report no data without an error, such as an empty
// sample slice.
func sampleFailure(msg string, err error) error {
	if err == nil {
		return errors.New(msg + ": no data")
	}
	return fmt.Errorf("%s: %w", msg, err)
}

func indexCounters(counters []gopsnet.IOCountersStat) map[string]gopsnet.IOCountersStat {
	m := make(map[string]gopsnet.IOCountersStat, len(counters))
	for _, c := range counters {
		m[c.Name] = c
	}
	return m
}
