package ui

import "fmt"

// formatSpeed renders bytes per second the way the overlay shows
// throughput: whole bytes below a KB, one decimal above.
func formatSpeed(bytesPerSec float64) string {
	switch {
	case bytesPerSec >= 1<<20:
		return fmt.Sprintf("%.1f MB/s", bytesPerSec/(1<<20))
	case bytesPerSec >= 1<<10:
		return fmt.Sprintf("%.1f KB/s", bytesPerSec/(1<<10))
	default:
		return fmt.Sprintf("%d B/s", int(bytesPerSec))
	}
}

func formatTemp(celsius float64) string {
	return fmt.Sprintf("%.0f°C", celsius)
}

func formatPct(pct float64) string {
	return fmt.Sprintf("%.0f%%", pct)
}

// movingAverage smooths the last size readings so the overlay doesn't
// flicker with every poll.
type movingAverage struct {
	window []float64
	size   int
}

func newMovingAverage(size int) *movingAverage {
	if size < 1 {
		size = 1
	}
	return &movingAverage{size: size}
}

func (a *movingAverage) add(v float64) {
	a.window = append(a.window, v)
	if len(a.window) > a.size {
		a.window = a.window[1:]
	}
}

func (a *movingAverage) value() (float64, bool) {
	if len(a.window) == 0 {
		return 0, false
	}
	var sum float64
	for _, v := range a.window {
		sum += v
	}
	return sum / float64(len(a.window)), true
}

func (a *movingAverage) reset() {
	a.window = a.window[:0]
}
