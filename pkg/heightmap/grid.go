// Package heightmap resamples and normalizes elevation grids.
package heightmap

import (
	"fmt"

	"github.com/Faultbox/terragen/pkg/errs"
)

// Heightmap errors.
var (
	ErrInvalidSize  = fmt.Errorf("%w: size must be positive", errs.ErrInvalidArgument)
	ErrInvalidScale = fmt.Errorf("%w: scale must be positive", errs.ErrInvalidArgument)
	ErrEmptyGrid    = fmt.Errorf("%w: grid is nil or empty", errs.ErrInvalidArgument)
)

// Grid is a row-major float32 raster. An elevation grid read from a DEM and
// the square output of Resample share this type.
type Grid struct {
	Width  int
	Height int
	Values []float32
}

// NewGrid allocates a zeroed grid.
func NewGrid(width, height int) *Grid {
	return &Grid{
		Width:  width,
		Height: height,
		Values: make([]float32, width*height),
	}
}

// NewGridFrom wraps values as a width x height grid.
func NewGridFrom(width, height int, values []float32) (*Grid, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}
	if len(values) != width*height {
		return nil, fmt.Errorf("%w: %d values for %dx%d grid", errs.ErrInvalidArgument, len(values), width, height)
	}
	return &Grid{Width: width, Height: height, Values: values}, nil
}

// At returns the value at (x, y). No bounds checking.
func (g *Grid) At(x, y int) float32 {
	return g.Values[y*g.Width+x]
}

// Set stores v at (x, y).
func (g *Grid) Set(x, y int, v float32) {
	g.Values[y*g.Width+x] = v
}

// IsSquare reports whether the grid is N x N.
func (g *Grid) IsSquare() bool {
	return g.Width == g.Height
}

func (g *Grid) empty() bool {
	return g == nil || g.Width <= 0 || g.Height <= 0 || len(g.Values) < g.Width*g.Height
}

// Grid16 is a row-major grid of normalized 16-bit heights.
type Grid16 struct {
	Width  int
	Height int
	Values []uint16

	// Min and Max are the source range mapped onto [0, 65535].
	Min float32
	Max float32
	// Flat is set when Min == Max; every value is then 0.
	Flat bool
}

// At returns the value at (x, y).
func (g *Grid16) At(x, y int) uint16 {
	return g.Values[y*g.Width+x]
}
