package metrics

import (
	"math/rand"
	"time"
)

// MockSampler synthesizes a metric pair inside fixed bands. It stands in
// for any real provider when the overlay runs with --mock, so the UI can
// be exercised without hardware access.
type MockSampler struct {
	aMin, aSpan float64
	bMin, bSpan float64
	rng         *rand.Rand
}

func newMockSampler(aMin, aSpan, bMin, bSpan float64) *MockSampler {
	return &MockSampler{aMin: aMin, aSpan: aSpan, bMin: bMin, bSpan: bSpan}
}

// NewMockCPU simulates a lightly loaded desktop CPU.
func NewMockCPU() *MockSampler {
	return newMockSampler(38, 14, 5, 45)
}

// NewMockGPU simulates a discrete GPU under moderate load.
func NewMockGPU() *MockSampler {
	return newMockSampler(50, 15, 20, 60)
}

// NewMockNet simulates a few MB/s down and a few hundred KB/s up.
func NewMockNet() *MockSampler {
	return newMockSampler(0, 4<<20, 0, 512<<10)
}

func (m *MockSampler) Init() error {
	m.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	return nil
}

func (m *MockSampler) Sample() (MetricValue, MetricValue) {
	return Present(m.aMin + m.rng.Float64()*m.aSpan),
		Present(m.bMin + m.rng.Float64()*m.bSpan)
}

func (m *MockSampler) Shutdown() {}
