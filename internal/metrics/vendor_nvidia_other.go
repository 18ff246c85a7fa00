//go:build !windows

package metrics

import (
	"errors"

	"github.com/mindprince/gonvml"
)

// probeNVIDIA loads libnvidia-ml through gonvml, which dlopens the
// driver's shared library at runtime.
func probeNVIDIA() (VendorStrategy, error) {
	if err := gonvml.Initialize(); err != nil {
		return nil, err
	}
	count, err := gonvml.DeviceCount()
	if err != nil || count == 0 {
		gonvml.Shutdown()
		if err == nil {
			err = errors.New("no nvidia devices")
		}
		return nil, err
	}
	return &nvidiaStrategy{count: count}, nil
}

type nvidiaStrategy struct {
	count uint
}

func (s *nvidiaStrategy) Vendor() Vendor { return VendorNVIDIA }

func (s *nvidiaStrategy) Temperature() (float64, error) {
	var sum float64
	var n int
	for i := uint(0); i < s.count; i++ {
		dev, err := gonvml.DeviceHandleByIndex(i)
		if err != nil {
			continue
		}
		t, err := dev.Temperature()
		if err != nil {
			continue
		}
		sum += float64(t)
		n++
	}
	if n == 0 {
		return 0, errors.New("nvml temperature query failed")
	}
	return sum / float64(n), nil
}

func (s *nvidiaStrategy) Shutdown() {
	gonvml.Shutdown() //nolint:errcheck
}
