package indicator

import (
	"math"

	"github.com/futusense/futusense/internal/core"
)

// TailMean averages the last n values, shrinking n to the data on hand.
func TailMean(values []float64, n int) float64 {
	if len(values) == 0 {
		return 0
	}
	if n < 1 {
		n = 1
	}
	if n > len(values) {
		n = len(values)
	}
	var sum float64
	for _, v := range values[len(values)-n:] {
		sum += v
	}
	return sum / float64(n)
}

// TrueRange computes the true range of a bar given the previous close.
func TrueRange(high, low, prevClose float64) float64 {
	tr := high - low
	if d := math.Abs(high - prevClose); d > tr {
		tr = d
	}
	if d := math.Abs(low - prevClose); d > tr {
		tr = d
	}
	return tr
}

// ATR computes the average true range over the last `period` bars.
// Returns 0 when fewer than two bars are available.
func ATR(bars []core.Bar, period int) float64 {
	if len(bars) < 2 {
		return 0
	}
	trs := make([]float64, 0, len(bars)-1)
	for i := 1; i < len(bars); i++ {
		trs = append(trs, TrueRange(bars[i].High, bars[i].Low, bars[i-1].Close))
	}
	return TailMean(trs, period)
}

// VolumeRatio is the latest volume over its n-day mean. Returns 0 when
// the mean is not computable.
func VolumeRatio(volumes []float64, n int) float64 {
	if len(volumes) == 0 {
		return 0
	}
	mean := TailMean(volumes, n)
	if mean <= 0 {
		return 0
	}
	return volumes[len(volumes)-1] / mean
}

// Correlation is the Pearson correlation of two equal-length series.
func Correlation(xs, ys []float64) float64 {
	if len(xs) != len(ys) || len(xs) < 2 {
		return 0
	}
	var mx, my float64
	for i := range xs {
		mx += xs[i]
		my += ys[i]
	}
	mx /= float64(len(xs))
	my /= float64(len(ys))

	var num, denx, deny float64
	for i := range xs {
		dx := xs[i] - mx
		dy := ys[i] - my
		num += dx * dy
		denx += dx * dx
		deny += dy * dy
	}
	if denx <= 0 || deny <= 0 {
		return 0
	}
	return num / math.Sqrt(denx*deny)
}

// Clamp bounds v into [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
