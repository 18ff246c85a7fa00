//go:build windows

package metrics

import (
	"errors"
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

const (
	nvmlOK             = 0
	nvmlTemperatureGPU = 0
)

type nvidiaStrategy struct {
	shutdown       *windows.LazyProc
	handleByIndex  *windows.LazyProc
	temperatureGet *windows.LazyProc
	count          uint32
}

// probeNVIDIA loads the driver's NVML runtime. The DLL ships with the
// display driver into System32, so a plain system load finds it.
func probeNVIDIA() (VendorStrategy, error) {
	mod := windows.NewLazySystemDLL("nvml.dll")
	if err := mod.Load(); err != nil {
		return nil, fmt.Errorf("nvml library not present: %w", err)
	}

	init := mod.NewProc("nvmlInit_v2")
	shutdown := mod.NewProc("nvmlShutdown")
	countGet := mod.NewProc("nvmlDeviceGetCount_v2")
	handleByIndex := mod.NewProc("nvmlDeviceGetHandleByIndex_v2")
	temperatureGet := mod.NewProc("nvmlDeviceGetTemperature")
	for _, proc := range []*windows.LazyProc{init, shutdown, countGet, handleByIndex, temperatureGet} {
		if err := proc.Find(); err != nil {
			return nil, fmt.Errorf("nvml symbol missing: %w", err)
		}
	}

	if ret, _, _ := init.Call(); int32(ret) != nvmlOK {
		return nil, fmt.Errorf("nvmlInit: %d", int32(ret))
	}

	s := &nvidiaStrategy{
		shutdown:       shutdown,
		handleByIndex:  handleByIndex,
		temperatureGet: temperatureGet,
	}
	if ret, _, _ := countGet.Call(uintptr(unsafe.Pointer(&s.count))); int32(ret) != nvmlOK || s.count == 0 {
		s.Shutdown()
		return nil, errors.New("no nvidia devices")
	}
	return s, nil
}

func (s *nvidiaStrategy) Vendor() Vendor { return VendorNVIDIA }

func (s *nvidiaStrategy) Temperature() (float64, error) {
	var sum float64
	var n int
	for i := uint32(0); i < s.count; i++ {
		var dev uintptr
		ret, _, _ := s.handleByIndex.Call(uintptr(i), uintptr(unsafe.Pointer(&dev)))
		if int32(ret) != nvmlOK {
			continue
		}
		var temp uint32
		ret, _, _ = s.temperatureGet.Call(dev, nvmlTemperatureGPU, uintptr(unsafe.Pointer(&temp)))
		if int32(ret) != nvmlOK {
			continue
		}
		sum += float64(temp)
		n++
	}
	if n == 0 {
		return 0, errors.New("nvml temperature query failed")
	}
	return sum / float64(n), nil
}

func (s *nvidiaStrategy) Shutdown() {
	s.shutdown.Call() //nolint:errcheck
}
