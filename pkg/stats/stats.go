// Package stats computes per-frame intensity statistics for result series.
package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"imagemath/internal/models"
)

// Summary holds the intensity statistics of one frame.
type Summary struct {
	Mean   float64 `yaml:"mean"`
	StdDev float64 `yaml:"stdDev"`
	Min    float64 `yaml:"min"`
	Max    float64 `yaml:"max"`
}

// Summarize returns the statistics of f. An empty frame yields a zero Summary.
func Summarize(f *models.Frame) Summary {
	if len(f.Data) == 0 {
		return Summary{}
	}
	mean, std := stat.MeanStdDev(f.Data, nil)
	if len(f.Data) == 1 {
		std = 0
	}
	return Summary{
		Mean:   mean,
		StdDev: std,
		Min:    floats.Min(f.Data),
		Max:    floats.Max(f.Data),
	}
}

// SummarizeSeries returns one Summary per frame, in frame order.
func SummarizeSeries(s *models.Series) []Summary {
	out := make([]Summary, len(s.Frames))
	for i := range s.Frames {
		out[i] = Summarize(&s.Frames[i])
	}
	return out
}

// Range returns the minimum and maximum sample over every frame of s.
func Range(s *models.Series) (min, max float64) {
	min, max = math.Inf(1), math.Inf(-1)
	for i := range s.Frames {
		if len(s.Frames[i].Data) == 0 {
			continue
		}
		min = math.Min(min, floats.Min(s.Frames[i].Data))
		max = math.Max(max, floats.Max(s.Frames[i].Data))
	}
	return min, max
}

// Signature returns the intensity histogram of f with the given number of
// bins, normalised so the bins sum to 1. Frames of constant intensity put all
// their weight in the first bin. The frame must not contain NaN.
func Signature(f *models.Frame, bins int) []float32 {
	out := make([]float32, bins)
	if bins <= 0 || len(f.Data) == 0 {
		return out
	}

	x := append([]float64(nil), f.Data...)
	sort.Float64s(x)
	lo, hi := x[0], x[len(x)-1]
	if hi <= lo {
		out[0] = 1
		return out
	}

	dividers := make([]float64, bins+1)
	floats.Span(dividers, lo, hi)
	// Histogram wants the top divider strictly above the largest sample.
	dividers[bins] = math.Nextafter(hi, math.Inf(1))

	count := stat.Histogram(nil, dividers, x, nil)
	total := floats.Sum(count)
	for i, c := range count {
		out[i] = float32(c / total)
	}
	return out
}
