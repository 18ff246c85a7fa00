package metrics

import (
	"errors"

	"github.com/google/overtop/internal/logger"
)

// Vendor identifies the GPU family detected at startup.
type Vendor string

const (
	VendorNVIDIA Vendor = "nvidia"
	VendorAMD    Vendor = "amd"
	// VendorNone covers Intel, integrated, and unrecognized adapters.
	// Their thermal exposure is too inconsistent to query, so the
	// strategy reports unavailable rather than guessing from the first
	// thermal zone that happens to exist.
	VendorNone Vendor = "integrated"
)

// ErrNoVendorGPU marks strategies that have no native thermal source.
var ErrNoVendorGPU = errors.New("no vendor thermal source")

// VendorStrategy is the vendor-specific temperature path. Utilization is
// vendor-independent and comes from the generic engine counters, so the
// strategy carries only the thermal query.
type VendorStrategy interface {
	Vendor() Vendor
	// Temperature returns degrees Celsius, averaged across adapters
	// when more than one answers.
	Temperature() (float64, error)
	Shutdown()
}

// vendorProbes is ordered by thermal-source reliability: NVML first,
// then ADL. Each probe has a platform-specific definition.
var vendorProbes = []func() (VendorStrategy, error){probeNVIDIA, probeAMD}

// DetectVendor probes vendor libraries once at startup and falls back to
// the integrated strategy when none answers. The selection is not
// re-evaluated at runtime.
func DetectVendor() VendorStrategy {
	for _, probe := range vendorProbes {
		s, err := probe()
		if err == nil {
			return s
		}
		logger.Debug().Err(err).Msg("vendor probe failed")
	}
	return noneStrategy{}
}

type noneStrategy struct{}

func (noneStrategy) Vendor() Vendor { return VendorNone }

func (noneStrategy) Temperature() (float64, error) { return 0, ErrNoVendorGPU }

func (noneStrategy) Shutdown() {}
