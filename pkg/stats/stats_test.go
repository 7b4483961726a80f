package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"imagemath/internal/models"
)

func frameOf(data ...float64) *models.Frame {
	return &models.Frame{Width: len(data), Height: 1, Data: data}
}

func TestSummarize(t *testing.T) {
	s := Summarize(frameOf(2, 4, 4, 4, 5, 5, 7, 9))
	assert.InDelta(t, 5.0, s.Mean, 1e-12)
	// Sample standard deviation.
	assert.InDelta(t, math.Sqrt(32.0/7.0), s.StdDev, 1e-12)
	assert.Equal(t, 2.0, s.Min)
	assert.Equal(t, 9.0, s.Max)

	assert.Equal(t, Summary{}, Summarize(frameOf()))
	assert.Equal(t, Summary{Mean: 3, Min: 3, Max: 3}, Summarize(frameOf(3)))
}

func TestRange(t *testing.T) {
	s := models.NewSeries("r", models.Float64, 2, 1, 2)
	s.Frames[0].Data = []float64{-1, 4}
	s.Frames[1].Data = []float64{7, 0}
	lo, hi := Range(s)
	assert.Equal(t, -1.0, lo)
	assert.Equal(t, 7.0, hi)
}

func TestSignature(t *testing.T) {
	sig := Signature(frameOf(0, 0, 1, 2, 3, 3, 3, 4), 4)
	assert.Len(t, sig, 4)

	var sum float32
	for _, v := range sig {
		sum += v
	}
	assert.InDelta(t, 1.0, float64(sum), 1e-6)
	assert.InDelta(t, 2.0/8.0, float64(sig[0]), 1e-6)
	assert.InDelta(t, 4.0/8.0, float64(sig[3]), 1e-6)

	flat := Signature(frameOf(5, 5, 5), 3)
	assert.Equal(t, []float32{1, 0, 0}, flat)

	assert.Equal(t, []float32{0, 0}, Signature(frameOf(), 2))
}
