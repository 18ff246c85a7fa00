package ui

import "testing"

func TestFormatSpeed(t *testing.T) {
	tests := []struct {
		name string
		bps  float64
		want string
	}{
		{"zero", 0, "0 B/s"},
		{"bytes", 512, "512 B/s"},
		{"just under a kb", 1023, "1023 B/s"},
		{"kilobytes", 4 * 1024, "4.0 KB/s"},
		{"fractional kb", 1536, "1.5 KB/s"},
		{"megabytes", 2.5 * 1024 * 1024, "2.5 MB/s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatSpeed(tt.bps); got != tt.want {
				t.Errorf("formatSpeed(%v) = %q, want %q", tt.bps, got, tt.want)
			}
		})
	}
}

func TestFormatTemp(t *testing.T) {
	if got := formatTemp(27.5); got != "28°C" {
		t.Errorf("formatTemp(27.5) = %q, want %q", got, "28°C")
	}
}

func TestMovingAverageEmpty(t *testing.T) {
	avg := newMovingAverage(4)
	if _, ok := avg.value(); ok {
		t.Error("empty window should report no value")
	}
}

func TestMovingAverageWindow(t *testing.T) {
	avg := newMovingAverage(3)
	for _, v := range []float64{10, 20, 30, 40} {
		avg.add(v)
	}

	// Oldest reading fell out of the window.
	got, ok := avg.value()
	if !ok {
		t.Fatal("expected a value after adds")
	}
	if got != 30 {
		t.Errorf("value() = %v, want 30", got)
	}
}

func TestMovingAverageReset(t *testing.T) {
	avg := newMovingAverage(3)
	avg.add(50)
	avg.reset()
	if _, ok := avg.value(); ok {
		t.Error("reset window should report no value")
	}
}
