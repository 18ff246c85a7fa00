package metrics

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/google/overtop/internal/counters"
)

// fakeRegistry implements counters.Registry from scripted data, keyed by
// counter path.
type fakeRegistry struct {
	values     map[string]float64
	instances  map[string][]counters.Instance
	missing    map[string]bool
	readErr    map[string]error
	refreshErr error
	refreshes  int
	closes     int
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{
		values:    make(map[string]float64),
		instances: make(map[string][]counters.Instance),
		missing:   make(map[string]bool),
		readErr:   make(map[string]error),
	}
}

func (f *fakeRegistry) Open(path string) (*counters.Handle, error) {
	if f.missing[path] {
		return nil, fmt.Errorf("%w: %s", counters.ErrCounterUnavailable, path)
	}
	return counters.NewHandle(path), nil
}

func (f *fakeRegistry) Refresh() error {
	f.refreshes++
	return f.refreshErr
}

func (f *fakeRegistry) Read(h *counters.Handle) (float64, error) {
	if err := f.readErr[h.Path()]; err != nil {
		return 0, err
	}
	return f.values[h.Path()], nil
}

func (f *fakeRegistry) ReadInstances(h *counters.Handle) ([]counters.Instance, error) {
	if err := f.readErr[h.Path()]; err != nil {
		return nil, err
	}
	return f.instances[h.Path()], nil
}

func (f *fakeRegistry) Close() {
	f.closes++
}

// fakeStrategy scripts the vendor temperature path.
type fakeStrategy struct {
	vendor    Vendor
	temp      float64
	err       error
	shutdowns int
}

func (f *fakeStrategy) Vendor() Vendor { return f.vendor }

func (f *fakeStrategy) Temperature() (float64, error) {
	if f.err != nil {
		return 0, f.err
	}
	return f.temp, nil
}

func (f *fakeStrategy) Shutdown() { f.shutdowns++ }

func TestCPUUsageClamped(t *testing.T) {
	reg := newFakeRegistry()
	reg.missing[counters.ThermalZoneTemperature] = true
	reg.values[counters.ProcessorTime] = 100.7

	p := &CPUProvider{reg: reg}
	require.NoError(t, p.Init())

	_, usage := p.Sample()
	v, ok := usage.Value()
	require.True(t, ok)
	assert.Equal(t, 100.0, v)
}

func TestCPUTempKelvinConversion(t *testing.T) {
	reg := newFakeRegistry()
	reg.values[counters.ProcessorTime] = 12
	reg.instances[counters.ThermalZoneTemperature] = []counters.Instance{
		{Name: `\thermal zone information(\_tz.tz01)\temperature`, Value: 300.65},
	}

	p := &CPUProvider{reg: reg}
	require.NoError(t, p.Init())

	temp, _ := p.Sample()
	v, ok := temp.Value()
	require.True(t, ok)
	assert.InDelta(t, 27.5, v, 0.01)
}

func TestCPUTempPrefersCPUZone(t *testing.T) {
	reg := newFakeRegistry()
	reg.values[counters.ProcessorTime] = 12
	reg.instances[counters.ThermalZoneTemperature] = []counters.Instance{
		{Name: `\thermal zone information(\_tz.tz01)\temperature`, Value: 330.15},
		{Name: `\thermal zone information(\_tz.cpuz)\temperature`, Value: 320.15},
	}

	p := &CPUProvider{reg: reg}
	require.NoError(t, p.Init())

	temp, _ := p.Sample()
	v, ok := temp.Value()
	require.True(t, ok)
	assert.InDelta(t, 47.0, v, 0.01)
}

func TestCPUNoThermalZones(t *testing.T) {
	reg := newFakeRegistry()
	reg.missing[counters.ThermalZoneTemperature] = true
	reg.values[counters.ProcessorTime] = 42.5

	p := &CPUProvider{reg: reg}
	require.NoError(t, p.Init())

	// Every sample keeps temperature unavailable while usage flows.
	for i := 0; i < 3; i++ {
		temp, usage := p.Sample()
		assert.False(t, temp.Available())
		assert.Equal(t, ReasonCounterMissing, temp.Why())
		v, ok := usage.Value()
		require.True(t, ok)
		assert.Equal(t, 42.5, v)
	}
}

func TestCPUReadErrorDegradesTick(t *testing.T) {
	reg := newFakeRegistry()
	reg.missing[counters.ThermalZoneTemperature] = true
	reg.readErr[counters.ProcessorTime] = &counters.ReadError{Path: counters.ProcessorTime, Err: errors.New("busy")}

	p := &CPUProvider{reg: reg}
	require.NoError(t, p.Init())

	_, usage := p.Sample()
	assert.False(t, usage.Available())
	assert.Equal(t, ReasonReadFailed, usage.Why())
}

func TestCPUInitFailsWithNoCounters(t *testing.T) {
	reg := newFakeRegistry()
	reg.missing[counters.ThermalZoneTemperature] = true
	reg.missing[counters.ProcessorTime] = true

	p := &CPUProvider{reg: reg}
	require.Error(t, p.Init())
	assert.Equal(t, 1, reg.closes)
}

func TestGPUMetricsFailIndependently(t *testing.T) {
	reg := newFakeRegistry()
	reg.instances[counters.GPUEngineUtilization] = []counters.Instance{
		{Name: `pid_1234_engtype_3d`, Value: 31.5},
	}
	strat := &fakeStrategy{vendor: VendorNVIDIA, err: errors.New("nvml lost device")}

	p := &GPUProvider{reg: reg, strategy: strat}
	require.NoError(t, p.Init())

	temp, usage := p.Sample()
	assert.False(t, temp.Available())
	assert.Equal(t, ReasonVendorAPI, temp.Why())
	v, ok := usage.Value()
	require.True(t, ok)
	assert.Equal(t, 31.5, v)
}

func TestGPUEngineFilteringAndClamp(t *testing.T) {
	reg := newFakeRegistry()
	reg.instances[counters.GPUEngineUtilization] = []counters.Instance{
		{Name: `pid_1_engtype_3d`, Value: 60},
		{Name: `pid_2_engtype_compute`, Value: 45},
		{Name: `pid_3_engtype_videodecode`, Value: 90},
	}
	strat := &fakeStrategy{vendor: VendorNVIDIA, temp: 61}

	p := &GPUProvider{reg: reg, strategy: strat}
	require.NoError(t, p.Init())

	temp, usage := p.Sample()
	v, ok := usage.Value()
	require.True(t, ok)
	assert.Equal(t, 100.0, v, "3d+compute sum clamps to 100, videodecode excluded")
	tv, ok := temp.Value()
	require.True(t, ok)
	assert.Equal(t, 61.0, tv)
}

func TestGPUEngineSetSticky(t *testing.T) {
	reg := newFakeRegistry()
	reg.instances[counters.GPUEngineUtilization] = []counters.Instance{
		{Name: `pid_1_engtype_3d`, Value: 20},
	}
	strat := &fakeStrategy{vendor: VendorNone, err: ErrNoVendorGPU}

	p := &GPUProvider{reg: reg, strategy: strat}
	require.NoError(t, p.Init())
	p.Sample()

	// A new engine instance appearing later is not folded in.
	reg.instances[counters.GPUEngineUtilization] = []counters.Instance{
		{Name: `pid_1_engtype_3d`, Value: 20},
		{Name: `pid_9_engtype_copy`, Value: 50},
	}
	_, usage := p.Sample()
	v, ok := usage.Value()
	require.True(t, ok)
	assert.Equal(t, 20.0, v)
}

func TestGPUNoEngineCounter(t *testing.T) {
	reg := newFakeRegistry()
	reg.missing[counters.GPUEngineUtilization] = true
	strat := &fakeStrategy{vendor: VendorNone, err: ErrNoVendorGPU}

	p := &GPUProvider{reg: reg, strategy: strat}
	require.NoError(t, p.Init())

	temp, usage := p.Sample()
	assert.False(t, temp.Available())
	assert.False(t, usage.Available())
	assert.Equal(t, ReasonCounterMissing, usage.Why())
}

func TestGPUShutdownReleasesStrategy(t *testing.T) {
	reg := newFakeRegistry()
	strat := &fakeStrategy{vendor: VendorAMD, temp: 70}

	p := &GPUProvider{reg: reg, strategy: strat}
	require.NoError(t, p.Init())
	p.Shutdown()

	assert.Equal(t, 1, strat.shutdowns)
	assert.Equal(t, 1, reg.closes)
}

func TestNetSumsPhysicalAdapters(t *testing.T) {
	reg := newFakeRegistry()
	reg.instances[counters.NetworkBytesReceived] = []counters.Instance{
		{Name: "intel(r) ethernet connection", Value: 1000},
		{Name: "wi-fi 6 ax201", Value: 500},
		{Name: "loopback pseudo-interface 1", Value: 99999},
		{Name: "_total", Value: 101499},
		{Name: "isatap.{guid}", Value: 7},
	}
	reg.instances[counters.NetworkBytesSent] = []counters.Instance{
		{Name: "intel(r) ethernet connection", Value: 200},
	}

	p := &NetProvider{reg: reg}
	require.NoError(t, p.Init())

	in, out := p.Sample()
	v, ok := in.Value()
	require.True(t, ok)
	assert.Equal(t, 1500.0, v)
	v, ok = out.Value()
	require.True(t, ok)
	assert.Equal(t, 200.0, v)
}

func TestNetNoAdapters(t *testing.T) {
	reg := newFakeRegistry()

	p := &NetProvider{reg: reg}
	require.NoError(t, p.Init())

	in, out := p.Sample()
	assert.False(t, in.Available())
	assert.False(t, out.Available())
}

func TestMetricValueZeroDistinguishable(t *testing.T) {
	zero := Present(0)
	missing := Unavailable(ReasonCounterMissing)

	v, ok := zero.Value()
	assert.True(t, ok)
	assert.Equal(t, 0.0, v)
	assert.True(t, zero.Available())
	assert.False(t, missing.Available())
	assert.Equal(t, ReasonCounterMissing, missing.Why())
}

func TestDetectVendorHonorsProbeOrder(t *testing.T) {
	saved := vendorProbes
	defer func() { vendorProbes = saved }()

	amd := &fakeStrategy{vendor: VendorAMD, temp: 55}
	vendorProbes = []func() (VendorStrategy, error){
		func() (VendorStrategy, error) { return nil, errors.New("driver not present") },
		func() (VendorStrategy, error) { return amd, nil },
	}

	s := DetectVendor()
	assert.Equal(t, VendorAMD, s.Vendor(), "first answering probe wins")
}

func TestDetectVendorFallsBackToIntegrated(t *testing.T) {
	saved := vendorProbes
	defer func() { vendorProbes = saved }()

	vendorProbes = []func() (VendorStrategy, error){
		func() (VendorStrategy, error) { return nil, errors.New("driver not present") },
		func() (VendorStrategy, error) { return nil, ErrNoVendorGPU },
	}

	s := DetectVendor()
	assert.Equal(t, VendorNone, s.Vendor())
	_, err := s.Temperature()
	assert.ErrorIs(t, err, ErrNoVendorGPU)
}

func TestMockSamplersProducePlausibleValues(t *testing.T) {
	for name, mock := range map[string]*MockSampler{
		"cpu": NewMockCPU(),
		"gpu": NewMockGPU(),
	} {
		require.NoError(t, mock.Init())
		for i := 0; i < 10; i++ {
			temp, usage := mock.Sample()
			tv, ok := temp.Value()
			require.True(t, ok, name)
			assert.Greater(t, tv, 0.0, name)
			uv, ok := usage.Value()
			require.True(t, ok, name)
			assert.GreaterOrEqual(t, uv, 0.0, name)
			assert.LessOrEqual(t, uv, 100.0, name)
		}
	}
}
