package heightmap

import (
	"fmt"
	"math"
)

// DefaultScale maps one source sample onto one target cell.
const DefaultScale = 1.0

// Resample produces a size x size heightmap from src using bicubic
// interpolation over the centred region of the source.
//
// scale is the number of target cells per source sample: 1 crops the centre
// of src directly, 30 turns 30 m DEM posts into 1 m terrain cells. The
// 4x4 neighbourhood is clamped at the source edges, so a target larger than
// the source repeats edge samples instead of reading out of bounds.
func Resample(src *Grid, size int, scale float32) (*Grid, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidSize, size)
	}
	if scale <= 0 || math.IsNaN(float64(scale)) {
		return nil, fmt.Errorf("%w: got %g", ErrInvalidScale, scale)
	}
	if src.empty() {
		return nil, ErrEmptyGrid
	}

	s := float64(scale)
	offsetX := (float64(src.Width) - float64(size)/s) / 2
	offsetY := (float64(src.Height) - float64(size)/s) / 2

	out := NewGrid(size, size)
	var p [4][4]float64

	for row := 0; row < size; row++ {
		srcY := float64(row)/s + offsetY
		y0 := int(math.Floor(srcY))
		fy := srcY - float64(y0)

		for col := 0; col < size; col++ {
			srcX := float64(col)/s + offsetX
			x0 := int(math.Floor(srcX))
			fx := srcX - float64(x0)

			for j := -1; j <= 2; j++ {
				y := clampIndex(y0+j, src.Height)
				rowOff := y * src.Width
				for i := -1; i <= 2; i++ {
					x := clampIndex(x0+i, src.Width)
					p[j+1][i+1] = float64(src.Values[rowOff+x])
				}
			}

			out.Values[row*size+col] = float32(bicubic(&p, fx, fy))
		}
	}

	return out, nil
}

// bicubic interpolates each row of p along x, then the four results along y.
func bicubic(p *[4][4]float64, x, y float64) float64 {
	r0 := cubic(p[0][0], p[0][1], p[0][2], p[0][3], x)
	r1 := cubic(p[1][0], p[1][1], p[1][2], p[1][3], x)
	r2 := cubic(p[2][0], p[2][1], p[2][2], p[2][3], x)
	r3 := cubic(p[3][0], p[3][1], p[3][2], p[3][3], x)
	return cubic(r0, r1, r2, r3, y)
}

// cubic is the Catmull-Rom convolution kernel between p1 and p2.
func cubic(p0, p1, p2, p3, x float64) float64 {
	return p1 + 0.5*x*(p2-p0+x*(2*p0-5*p1+4*p2-p3+x*(3*(p1-p2)+p3-p0)))
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
