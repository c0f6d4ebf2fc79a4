package indicator

import (
	"math"
	"testing"

	"github.com/futusense/futusense/internal/core"
)

func TestTailMean(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		n      int
		want   float64
	}{
		{"full window", []float64{1, 2, 3, 4}, 2, 3.5},
		{"window larger than data", []float64{1, 2, 3}, 20, 2},
		{"n below one", []float64{1, 2, 9}, 0, 9},
		{"empty", nil, 5, 0},
	}
	for _, tt := range tests {
		if got := TailMean(tt.values, tt.n); got != tt.want {
			t.Errorf("%s: TailMean = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestTrueRange(t *testing.T) {
	tests := []struct {
		name                 string
		high, low, prevClose float64
		want                 float64
	}{
		{"plain range", 105, 100, 102, 5},
		{"gap up", 120, 115, 100, 20},
		{"gap down", 95, 90, 110, 20},
	}
	for _, tt := range tests {
		if got := TrueRange(tt.high, tt.low, tt.prevClose); got != tt.want {
			t.Errorf("%s: TrueRange = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestATR(t *testing.T) {
	bars := []core.Bar{
		{High: 102, Low: 98, Close: 100},
		{High: 104, Low: 100, Close: 103},
		{High: 106, Low: 102, Close: 105},
	}
	// TRs: max(4, |104-100|, |100-100|)=4 and max(4, |106-103|, |102-103|)=4.
	if got := ATR(bars, 14); got != 4 {
		t.Errorf("ATR = %v, want 4", got)
	}
	if got := ATR(bars[:1], 14); got != 0 {
		t.Errorf("ATR of one bar = %v, want 0", got)
	}
}

func TestVolumeRatio(t *testing.T) {
	tests := []struct {
		name    string
		volumes []float64
		n       int
		want    float64
	}{
		{"above mean", []float64{100, 100, 200}, 3, 1.5},
		{"flat", []float64{100, 100, 100}, 20, 1},
		{"zero mean", []float64{0, 0, 0}, 3, 0},
		{"empty", nil, 20, 0},
	}
	for _, tt := range tests {
		if got := VolumeRatio(tt.volumes, tt.n); got != tt.want {
			t.Errorf("%s: VolumeRatio = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestCorrelation(t *testing.T) {
	tests := []struct {
		name   string
		xs, ys []float64
		want   float64
	}{
		{"perfect positive", []float64{1, 2, 3}, []float64{10, 20, 30}, 1},
		{"perfect negative", []float64{1, 2, 3}, []float64{3, 2, 1}, -1},
		{"constant series", []float64{1, 2, 3}, []float64{5, 5, 5}, 0},
		{"length mismatch", []float64{1, 2}, []float64{1}, 0},
		{"too short", []float64{1}, []float64{1}, 0},
	}
	for _, tt := range tests {
		if got := Correlation(tt.xs, tt.ys); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("%s: Correlation = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestClamp(t *testing.T) {
	if got := Clamp(2, -1, 1); got != 1 {
		t.Errorf("Clamp(2) = %v", got)
	}
	if got := Clamp(-2, -1, 1); got != -1 {
		t.Errorf("Clamp(-2) = %v", got)
	}
	if got := Clamp(0.3, -1, 1); got != 0.3 {
		t.Errorf("Clamp(0.3) = %v", got)
	}
}
