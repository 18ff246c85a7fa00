package counters

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounterDelta(t *testing.T) {
	tests := []struct {
		name     string
		current  uint64
		previous uint64
		elapsed  time.Duration
		want     float64
	}{
		{"steady rate", 3000, 1000, 2 * time.Second, 1000},
		{"no traffic", 500, 500, time.Second, 0},
		{"counter reset", 100, 5000, time.Second, 0},
		{"zero elapsed", 2000, 1000, 0, 0},
		{"negative elapsed", 2000, 1000, -time.Second, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, counterDelta(tt.current, tt.previous, tt.elapsed), 1e-9)
		})
	}
}

func TestPortableRegistryUnknownPath(t *testing.T) {
	r := newPortableRegistry()
	defer r.Close()

	_, err := r.Open(`\Bogus Object(*)\Bogus Counter`)
	require.ErrorIs(t, err, ErrCounterUnavailable)
}

func TestPortableRegistryGPUEngineUnavailable(t *testing.T) {
	r := newPortableRegistry()
	defer r.Close()

	_, err := r.Open(GPUEngineUtilization)
	require.ErrorIs(t, err, ErrCounterUnavailable)
}

func TestPortableRegistryCloseIdempotent(t *testing.T) {
	r := newPortableRegistry()
	r.Close()
	r.Close()
}

func TestSampleFailureWithoutCause(t *testing.T) {
	err := sampleFailure("cpu sample failed", nil)
	require.Error(t, err)
	assert.Equal(t, "cpu sample failed: no data", err.Error())
	assert.NotContains(t, err.Error(), "%!w")
}

func TestSampleFailureWrapsCause(t *testing.T) {
	cause := errors.New("permission denied")
	err := sampleFailure("cpu sample failed", cause)
	require.ErrorIs(t, err, cause)
	assert.Equal(t, "cpu sample failed: permission denied", err.Error())
}
