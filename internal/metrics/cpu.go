package metrics

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/overtop/internal/counters"
	"github.com/google/overtop/internal/logger"
)

// Thermal-zone counters report Kelvin; anything above this is converted
// to Celsius.
const kelvinFloor = 200

func toCelsius(raw float64) float64 {
	if raw > kelvinFloor {
		return raw - 273.15
	}
	return raw
}

// clampPercent bounds a percentage to [0, 100]. Utilization counters can
// transiently report slightly above 100 from sampling jitter.
func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// CPUProvider samples processor utilization and thermal-zone temperature
// through its own counter registry.
type CPUProvider struct {
	reg     counters.Registry
	thermal *counters.Handle
	usage   *counters.Handle
}

func NewCPUProvider() *CPUProvider {
	return &CPUProvider{}
}

func (p *CPUProvider) Init() error {
	if p.reg == nil {
		reg, err := counters.New()
		if err != nil {
			return fmt.Errorf("cpu provider: %w", err)
		}
		p.reg = reg
	}

	var err error
	p.thermal, err = p.reg.Open(counters.ThermalZoneTemperature)
	if err != nil {
		// Common on hosts that expose no thermal zones.
		logger.Debug().Err(err).Msg("thermal zone counter unavailable")
		p.thermal = nil
	}
	p.usage, err = p.reg.Open(counters.ProcessorTime)
	if err != nil {
		logger.Debug().Err(err).Msg("processor time counter unavailable")
		p.usage = nil
	}
	if p.thermal == nil && p.usage == nil {
		p.reg.Close()
		return errors.New("cpu provider: no usable counters")
	}

	// Rate counters need a baseline collection before the first read.
	if err := p.reg.Refresh(); err != nil {
		logger.Debug().Err(err).Msg("cpu baseline collection failed")
	}
	return nil
}

func (p *CPUProvider) Sample() (temp, usage MetricValue) {
	if err := p.reg.Refresh(); err != nil {
		logger.Debug().Err(err).Msg("cpu counter refresh failed")
		return Unavailable(ReasonReadFailed), Unavailable(ReasonReadFailed)
	}
	return p.sampleTemp(), p.sampleUsage()
}

func (p *CPUProvider) sampleUsage() MetricValue {
	if p.usage == nil {
		return Unavailable(ReasonCounterMissing)
	}
	v, err := p.reg.Read(p.usage)
	if err != nil {
		logger.Debug().Err(err).Msg("processor time read failed")
		return Unavailable(ReasonReadFailed)
	}
	return Present(clampPercent(v))
}

// sampleTemp prefers a zone named after the CPU; otherwise it averages
// every reporting zone.
func (p *CPUProvider) sampleTemp() MetricValue {
	if p.thermal == nil {
		return Unavailable(ReasonCounterMissing)
	}
	zones, err := p.reg.ReadInstances(p.thermal)
	if err != nil {
		logger.Debug().Err(err).Msg("thermal zone read failed")
		return Unavailable(ReasonReadFailed)
	}

	var sum float64
	var n int
	for _, z := range zones {
		if z.Value == 0 {
			continue
		}
		c := toCelsius(z.Value)
		if strings.Contains(z.Name, "cpu") {
			return Present(c)
		}
		sum += c
		n++
	}
	if n == 0 {
		return Unavailable(ReasonCounterMissing)
	}
	return Present(sum / float64(n))
}

func (p *CPUProvider) Shutdown() {
	if p.reg != nil {
		p.reg.Close()
	}
}
