package palette

import (
	"fmt"
	"image"
	"image/color"
)

// LayerMap holds one palette index per pixel, row-major.
type LayerMap struct {
	Width   int
	Height  int
	Indices []uint8
}

// At returns the palette index at (x, y).
func (m *LayerMap) At(x, y int) uint8 {
	return m.Indices[y*m.Width+x]
}

// Counts returns the number of pixels assigned to each of n palette entries.
func (m *LayerMap) Counts(n int) []int {
	counts := make([]int, n)
	for _, idx := range m.Indices {
		if int(idx) < n {
			counts[idx]++
		}
	}
	return counts
}

// Classify assigns every pixel of img to its nearest palette colour by
// squared RGB distance. Ties go to the lowest index. Alpha is ignored.
func Classify(img image.Image, p Palette) (*LayerMap, error) {
	if img == nil {
		return nil, ErrNilImage
	}
	if len(p) == 0 {
		return nil, ErrEmptyPalette
	}
	if len(p) > MaxColors {
		return nil, fmt.Errorf("%w: got %d", ErrPaletteTooLarge, len(p))
	}

	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	out := &LayerMap{
		Width:   w,
		Height:  h,
		Indices: make([]uint8, w*h),
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := straightRGB(img.At(b.Min.X+x, b.Min.Y+y))
			out.Indices[y*w+x] = uint8(Nearest(p, c))
		}
	}

	return out, nil
}

// Nearest returns the index of the palette colour closest to c, or -1 for an
// empty palette.
func Nearest(p Palette, c color.RGBA) int {
	best := -1
	bestDist := 0
	for i, pc := range p {
		dr := int(c.R) - int(pc.R)
		dg := int(c.G) - int(pc.G)
		db := int(c.B) - int(pc.B)
		d := dr*dr + dg*dg + db*db
		if best < 0 || d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}
