package heightmap

import "math"

// MaxHeight is the normalized value of the highest sample.
const MaxHeight = math.MaxUint16

// Normalize rescales g onto [0, 65535] using the grid's own range.
//
// A flat grid (every sample equal) normalizes to all zeros with Flat set.
// NaN samples (DEM nodata) are left out of the range scan and map to 0.
func Normalize(g *Grid) (*Grid16, error) {
	if g.empty() {
		return nil, ErrEmptyGrid
	}

	n := g.Width * g.Height
	out := &Grid16{
		Width:  g.Width,
		Height: g.Height,
		Values: make([]uint16, n),
	}

	lo, hi, ok := valueRange(g.Values[:n])
	if !ok || lo == hi {
		out.Min, out.Max, out.Flat = lo, hi, true
		return out, nil
	}
	out.Min, out.Max = lo, hi

	span := float64(hi) - float64(lo)
	for i, v := range g.Values[:n] {
		if math.IsNaN(float64(v)) {
			continue
		}
		scaled := math.Round((float64(v) - float64(lo)) / span * MaxHeight)
		if scaled < 0 {
			scaled = 0
		} else if scaled > MaxHeight {
			scaled = MaxHeight
		}
		out.Values[i] = uint16(scaled)
	}

	return out, nil
}

// valueRange returns the min and max of the non-NaN values. ok is false
// when every value is NaN.
func valueRange(values []float32) (lo, hi float32, ok bool) {
	for _, v := range values {
		if math.IsNaN(float64(v)) {
			continue
		}
		if !ok {
			lo, hi, ok = v, v, true
			continue
		}
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi, ok
}
