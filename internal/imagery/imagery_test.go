package imagery

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/draw"

	"github.com/Faultbox/terragen/pkg/errs"
)

var (
	red   = color.NRGBA{R: 255, A: 255}
	green = color.NRGBA{G: 255, A: 255}
	blue  = color.NRGBA{B: 255, A: 255}
)

func quad() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	img.SetNRGBA(0, 0, red)
	img.SetNRGBA(1, 0, red)
	img.SetNRGBA(0, 1, blue)
	img.SetNRGBA(1, 1, green)
	return img
}

func TestLoadPNG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, quad()))
	path := filepath.Join(t.TempDir(), "sat.png")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))

	img, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 2, 2), img.Bounds())

	r, g, b, _ := img.At(1, 1).RGBA()
	assert.Equal(t, []uint32{0, 0xffff, 0}, []uint32{r, g, b})
}

func TestLoadJPEG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, quad(), nil))
	path := filepath.Join(t.TempDir(), "sat.jpg")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))

	img, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, img.Bounds().Dx())
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.png"))
	assert.ErrorIs(t, err, errs.ErrIO)

	path := filepath.Join(t.TempDir(), "noise.png")
	require.NoError(t, os.WriteFile(path, []byte("definitely not an image"), 0644))
	_, err = Load(path)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
	assert.ErrorIs(t, err, errs.ErrInvalidArgument)
}

func TestFitNearestKeepsColours(t *testing.T) {
	fitted, err := Fit(quad(), 4, draw.NearestNeighbor)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 4, 4), fitted.Bounds())

	tests := []struct {
		x, y int
		want color.NRGBA
	}{
		{0, 0, red}, {3, 0, red},
		{0, 3, blue}, {1, 2, blue},
		{3, 3, green}, {2, 2, green},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, fitted.NRGBAAt(tt.x, tt.y), "pixel (%d,%d)", tt.x, tt.y)
	}
}

func TestFitSameSizeCopies(t *testing.T) {
	src := quad()
	fitted, err := Fit(src, 2, nil)
	require.NoError(t, err)
	assert.Equal(t, src.Pix, fitted.Pix)

	fitted.SetNRGBA(0, 0, green)
	assert.Equal(t, red, src.NRGBAAt(0, 0), "fit must not alias the source")
}

func TestFitOffsetBounds(t *testing.T) {
	src := image.NewNRGBA(image.Rect(10, 10, 12, 12))
	for y := 10; y < 12; y++ {
		for x := 10; x < 12; x++ {
			src.SetNRGBA(x, y, blue)
		}
	}

	fitted, err := Fit(src, 3, draw.CatmullRom)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 3, 3), fitted.Bounds())
	c := fitted.NRGBAAt(1, 1)
	assert.InDelta(t, 255, int(c.B), 1)
	assert.InDelta(t, 0, int(c.R), 1)
	assert.InDelta(t, 255, int(c.A), 1)
}

func TestFitInvalid(t *testing.T) {
	_, err := Fit(quad(), 0, nil)
	assert.ErrorIs(t, err, ErrInvalidSize)

	_, err = Fit(nil, 4, nil)
	assert.ErrorIs(t, err, errs.ErrInvalidArgument)

	_, err = Fit(image.NewNRGBA(image.Rectangle{}), 4, nil)
	assert.ErrorIs(t, err, errs.ErrInvalidArgument)
}

func TestParseFilter(t *testing.T) {
	tests := []struct {
		name string
		want draw.Interpolator
	}{
		{"", draw.NearestNeighbor},
		{"nearest", draw.NearestNeighbor},
		{"approx-bilinear", draw.ApproxBiLinear},
		{"bilinear", draw.BiLinear},
		{"Catmull-Rom", draw.CatmullRom},
	}
	for _, tt := range tests {
		got, err := ParseFilter(tt.name)
		require.NoError(t, err, tt.name)
		assert.Equal(t, tt.want, got, tt.name)
	}

	_, err := ParseFilter("lanczos")
	assert.ErrorIs(t, err, ErrUnknownFilter)
}
