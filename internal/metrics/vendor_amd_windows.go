//go:build windows

package metrics

import (
	"errors"
	"fmt"
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"
)

const adlOK = 0

// ADLTemperature; iTemperature is millidegrees Celsius.
type adlTemperature struct {
	Size        int32
	Temperature int32
}

var (
	modkernel32    = windows.NewLazySystemDLL("kernel32.dll")
	procLocalAlloc = modkernel32.NewProc("LocalAlloc")
)

// adlAlloc is the memory callback ADL requires at init. The calls made
// here fill caller-provided structs and never allocate through it, but
// ADL_Main_Control_Create still wants one.
var adlAlloc = syscall.NewCallback(func(size uintptr) uintptr {
	const lptr = 0x0040
	mem, _, _ := procLocalAlloc.Call(lptr, size)
	return mem
})

type amdStrategy struct {
	destroy        *windows.LazyProc
	temperatureGet *windows.LazyProc
	adapters       int32
}

func probeAMD() (VendorStrategy, error) {
	mod := windows.NewLazySystemDLL("atiadlxx.dll")
	if err := mod.Load(); err != nil {
		// 32-bit driver installs ship the xy variant only.
		mod = windows.NewLazySystemDLL("atiadlxy.dll")
		if err := mod.Load(); err != nil {
			return nil, fmt.Errorf("adl library not present: %w", err)
		}
	}

	create := mod.NewProc("ADL_Main_Control_Create")
	countGet := mod.NewProc("ADL_Adapter_NumberOfAdapters_Get")
	destroy := mod.NewProc("ADL_Main_Control_Destroy")
	temperatureGet := mod.NewProc("ADL_Overdrive5_Temperature_Get")
	for _, proc := range []*windows.LazyProc{create, countGet, destroy, temperatureGet} {
		if err := proc.Find(); err != nil {
			return nil, fmt.Errorf("adl symbol missing: %w", err)
		}
	}

	if ret, _, _ := create.Call(adlAlloc, 1); int32(ret) != adlOK {
		return nil, fmt.Errorf("ADL_Main_Control_Create: %d", int32(ret))
	}

	s := &amdStrategy{destroy: destroy, temperatureGet: temperatureGet}
	if ret, _, _ := countGet.Call(uintptr(unsafe.Pointer(&s.adapters))); int32(ret) != adlOK || s.adapters == 0 {
		s.Shutdown()
		return nil, errors.New("no adl adapters")
	}
	return s, nil
}

func (s *amdStrategy) Vendor() Vendor { return VendorAMD }

func (s *amdStrategy) Temperature() (float64, error) {
	var sum float64
	var n int
	for i := int32(0); i < s.adapters; i++ {
		t := adlTemperature{Size: int32(unsafe.Sizeof(adlTemperature{}))}
		// Thermal controller 0 is the GPU core sensor.
		ret, _, _ := s.temperatureGet.Call(uintptr(i), 0, uintptr(unsafe.Pointer(&t)))
		if int32(ret) != adlOK {
			continue
		}
		sum += float64(t.Temperature) / 1000.0
		n++
	}
	if n == 0 {
		return 0, errors.New("adl temperature query failed")
	}
	return sum / float64(n), nil
}

func (s *amdStrategy) Shutdown() {
	s.destroy.Call() //nolint:errcheck
}
