package metrics

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/overtop/internal/counters"
	"github.com/google/overtop/internal/logger"
)

// NetProvider aggregates throughput across physical network adapters.
// The underlying counters already report bytes per second, so no
// differencing happens here; the portable registry backend derives rates
// from cumulative totals itself.
type NetProvider struct {
	reg  counters.Registry
	recv *counters.Handle
	sent *counters.Handle
}

func NewNetProvider() *NetProvider {
	return &NetProvider{}
}

func (p *NetProvider) Init() error {
	if p.reg == nil {
		reg, err := counters.New()
		if err != nil {
			return fmt.Errorf("network provider: %w", err)
		}
		p.reg = reg
	}

	var err error
	p.recv, err = p.reg.Open(counters.NetworkBytesReceived)
	if err != nil {
		logger.Debug().Err(err).Msg("bytes received counter unavailable")
		p.recv = nil
	}
	p.sent, err = p.reg.Open(counters.NetworkBytesSent)
	if err != nil {
		logger.Debug().Err(err).Msg("bytes sent counter unavailable")
		p.sent = nil
	}
	if p.recv == nil && p.sent == nil {
		p.reg.Close()
		return errors.New("network provider: no usable counters")
	}

	if err := p.reg.Refresh(); err != nil {
		logger.Debug().Err(err).Msg("network baseline collection failed")
	}
	return nil
}

func (p *NetProvider) Sample() (in, out MetricValue) {
	if err := p.reg.Refresh(); err != nil {
		logger.Debug().Err(err).Msg("network counter refresh failed")
		return Unavailable(ReasonReadFailed), Unavailable(ReasonReadFailed)
	}
	return p.sumAdapters(p.recv), p.sumAdapters(p.sent)
}

func (p *NetProvider) sumAdapters(h *counters.Handle) MetricValue {
	if h == nil {
		return Unavailable(ReasonCounterMissing)
	}
	instances, err := p.reg.ReadInstances(h)
	if err != nil {
		logger.Debug().Err(err).Msg("adapter read failed")
		return Unavailable(ReasonReadFailed)
	}

	var total float64
	var n int
	for _, in := range instances {
		if skipAdapter(in.Name) {
			continue
		}
		total += in.Value
		n++
	}
	if n == 0 {
		return Unavailable(ReasonCounterMissing)
	}
	return Present(total)
}

// skipAdapter filters instances that would double-count or misreport
// real traffic: the _Total aggregate, loopback, and tunnel or virtual
// switch adapters.
func skipAdapter(name string) bool {
	if name == "lo" {
		return true
	}
	for _, marker := range []string{"_total", "loopback", "isatap", "teredo", "vethernet"} {
		if strings.Contains(name, marker) {
			return true
		}
	}
	return false
}

func (p *NetProvider) Shutdown() {
	if p.reg != nil {
		p.reg.Close()
	}
}
