package heightmap

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Stats summarizes the finite samples of a grid.
type Stats struct {
	Min    float64
	Max    float64
	Mean   float64
	StdDev float64
	// Samples is the number of finite values; NaN and Inf are skipped.
	Samples int
}

// Range returns Max - Min.
func (s Stats) Range() float64 {
	return s.Max - s.Min
}

// Describe computes Stats for g. An empty grid yields zero Stats.
func Describe(g *Grid) Stats {
	if g.empty() {
		return Stats{}
	}
	return describe(float32Samples(g.Values[:g.Width*g.Height]))
}

// Describe16 computes Stats for a normalized grid.
func Describe16(g *Grid16) Stats {
	if g == nil || len(g.Values) == 0 {
		return Stats{}
	}
	samples := make([]float64, len(g.Values))
	for i, v := range g.Values {
		samples[i] = float64(v)
	}
	return describe(samples)
}

func describe(samples []float64) Stats {
	if len(samples) == 0 {
		return Stats{}
	}
	mean, std := stat.MeanStdDev(samples, nil)
	if len(samples) == 1 {
		std = 0
	}
	return Stats{
		Min:     floats.Min(samples),
		Max:     floats.Max(samples),
		Mean:    mean,
		StdDev:  std,
		Samples: len(samples),
	}
}

func float32Samples(values []float32) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			continue
		}
		out = append(out, f)
	}
	return out
}
