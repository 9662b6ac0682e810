package mse

import (
	"math"
	"time"

	"github.com/livetv-cli/livetv/engine"
)

// Half-lives, in seconds of media, of the two bandwidth averages used for live streams.
const (
	fastHalfLife = 3.0
	slowHalfLife = 9.0
	minWeight    = 0.001
)

// ewma is an exponentially weighted moving average where each sample is weighted
// by the duration of media it covers.
type ewma struct {
	alpha  float64
	value  float64
	weight float64
}

func newEWMA(halfLife float64) ewma {
	return ewma{alpha: math.Exp(math.Log(0.5) / halfLife)}
}

func (w *ewma) sample(weight, value float64) {
	adjusted := math.Pow(w.alpha, weight)
	w.value = value*(1-adjusted) + adjusted*w.value
	w.weight += weight
}

func (w *ewma) estimate() float64 {
	// undo the bias towards the zero starting value
	zeroFactor := 1 - math.Pow(w.alpha, w.weight)
	if zeroFactor <= 0 {
		return w.value
	}
	return w.value / zeroFactor
}

// estimator picks levels from measured throughput.
type estimator struct {
	fast, slow ewma
	fallback   float64
	factor     float64
}

func newEstimator(t engine.Tuning) *estimator {
	factor := t.BandwidthFactor
	if factor <= 0 {
		factor = 1
	}
	return &estimator{
		fast:     newEWMA(fastHalfLife),
		slow:     newEWMA(slowHalfLife),
		fallback: t.DefaultEstimate,
		factor:   factor,
	}
}

// sample records a fragment of the given size that took elapsed to download
// and covers duration of media.
func (e *estimator) sample(bytes int, elapsed, duration time.Duration) {
	if bytes <= 0 || elapsed <= 0 {
		return
	}

	weight := max(duration.Seconds(), minWeight)
	bps := float64(bytes) * 8 / elapsed.Seconds()
	e.fast.sample(weight, bps)
	e.slow.sample(weight, bps)
}

// bandwidth is the conservative estimate in bits per second.
func (e *estimator) bandwidth() float64 {
	if e.fast.weight < minWeight {
		return e.fallback
	}
	return math.Min(e.fast.estimate(), e.slow.estimate())
}

// pick returns the best level the estimate can sustain, skipping failed ones.
// It returns -1 when every level has failed.
func (e *estimator) pick(levels []engine.Level, failed map[int]bool) int {
	budget := e.bandwidth() * e.factor

	best, lowest := -1, -1
	for i, l := range levels {
		if failed[i] {
			continue
		}
		if lowest < 0 {
			lowest = i
		}
		if float64(l.Bitrate) <= budget {
			best = i
		}
	}

	if best < 0 {
		return lowest
	}
	return best
}

// nearest finds the usable level closest to target, preferring lower ones.
func nearest(levels []engine.Level, failed map[int]bool, target int) int {
	if len(levels) == 0 {
		return -1
	}
	target = min(max(target, 0), len(levels)-1)

	for d := 0; d < len(levels); d++ {
		if lower := target - d; lower >= 0 && !failed[lower] {
			return lower
		}
		if upper := target + d; upper < len(levels) && !failed[upper] {
			return upper
		}
	}
	return -1
}
