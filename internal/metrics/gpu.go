package metrics

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/overtop/internal/counters"
	"github.com/google/overtop/internal/logger"
)

// GPUProvider samples temperature through the vendor strategy selected
// at startup and utilization through the generic GPU engine counters.
// The two metrics fail independently: a vendor error never takes down
// the utilization reading, and vice versa.
type GPUProvider struct {
	reg      counters.Registry
	engines  *counters.Handle
	strategy VendorStrategy

	// engineNames pins the instance set after the first good read so a
	// transient instance appearing later does not skew the sum.
	engineNames map[string]struct{}
}

func NewGPUProvider() *GPUProvider {
	return &GPUProvider{}
}

func (p *GPUProvider) Init() error {
	if p.strategy == nil {
		p.strategy = DetectVendor()
	}
	logger.Info().Str("vendor", string(p.strategy.Vendor())).Msg("gpu vendor selected")

	if p.reg == nil {
		reg, err := counters.New()
		if err != nil {
			p.strategy.Shutdown()
			return fmt.Errorf("gpu provider: %w", err)
		}
		p.reg = reg
	}

	h, err := p.reg.Open(counters.GPUEngineUtilization)
	if err != nil {
		logger.Debug().Err(err).Msg("gpu engine counter unavailable")
	} else {
		p.engines = h
	}
	p.engineNames = make(map[string]struct{})

	if err := p.reg.Refresh(); err != nil {
		logger.Debug().Err(err).Msg("gpu baseline collection failed")
	}
	return nil
}

func (p *GPUProvider) Sample() (temp, usage MetricValue) {
	return p.sampleTemp(), p.sampleUsage()
}

func (p *GPUProvider) sampleTemp() MetricValue {
	t, err := p.strategy.Temperature()
	if err != nil {
		if !errors.Is(err, ErrNoVendorGPU) {
			logger.Debug().Err(err).Str("vendor", string(p.strategy.Vendor())).Msg("vendor temperature query failed")
		}
		return Unavailable(ReasonVendorAPI)
	}
	return Present(t)
}

// sampleUsage sums utilization over the engine instances that belong to
// the active adapter's 3D, compute, and copy queues.
func (p *GPUProvider) sampleUsage() MetricValue {
	if p.engines == nil {
		return Unavailable(ReasonCounterMissing)
	}
	if err := p.reg.Refresh(); err != nil {
		logger.Debug().Err(err).Msg("gpu counter refresh failed")
		return Unavailable(ReasonReadFailed)
	}
	instances, err := p.reg.ReadInstances(p.engines)
	if err != nil {
		logger.Debug().Err(err).Msg("gpu engine read failed")
		return Unavailable(ReasonReadFailed)
	}

	var sum float64
	var n int
	if len(p.engineNames) == 0 {
		for _, in := range instances {
			if !isActiveEngine(in.Name) {
				continue
			}
			p.engineNames[in.Name] = struct{}{}
			sum += in.Value
			n++
		}
	} else {
		for _, in := range instances {
			if _, ok := p.engineNames[in.Name]; !ok {
				continue
			}
			sum += in.Value
			n++
		}
	}
	if n == 0 {
		return Unavailable(ReasonCounterMissing)
	}
	return Present(clampPercent(sum))
}

func isActiveEngine(name string) bool {
	return strings.Contains(name, "engtype_3d") ||
		strings.Contains(name, "engtype_compute") ||
		strings.Contains(name, "engtype_copy") ||
		strings.Contains(name, "_total")
}

func (p *GPUProvider) Shutdown() {
	if p.strategy != nil {
		p.strategy.Shutdown()
	}
	if p.reg != nil {
		p.reg.Close()
	}
}
