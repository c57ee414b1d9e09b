package palette

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify_ExtractedPalette(t *testing.T) {
	img := imageOf(t, 2, 2, red, red, blue, green)

	p, err := Extract(img, 2)
	require.NoError(t, err)
	require.Equal(t, Palette{red, blue}, p)

	// Green is 255^2 + 255^2 = 130050 away from both red and blue, so the
	// lower index wins.
	layers, err := Classify(img, p)
	require.NoError(t, err)
	assert.Equal(t, 2, layers.Width)
	assert.Equal(t, 2, layers.Height)
	assert.Equal(t, []uint8{0, 0, 1, 0}, layers.Indices)
}

func TestClassify_NearestColour(t *testing.T) {
	p := Palette{
		{0, 0, 0, 255},
		{128, 128, 128, 255},
		{250, 250, 250, 255},
	}
	img := imageOf(t, 4, 1,
		color.RGBA{10, 5, 0, 255},      // near black
		color.RGBA{120, 140, 128, 255}, // near grey
		color.RGBA{255, 255, 240, 255}, // near white
		color.RGBA{64, 64, 64, 255},    // 3*64^2 vs 3*64^2: tie goes to black
	)

	layers, err := Classify(img, p)
	require.NoError(t, err)
	assert.Equal(t, []uint8{0, 1, 2, 0}, layers.Indices)
	assert.Equal(t, []int{2, 1, 1}, layers.Counts(len(p)))
}

func TestClassify_IndicesInRangeAndDeterministic(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 17, 9))
	for y := 0; y < 9; y++ {
		for x := 0; x < 17; x++ {
			img.Set(x, y, color.RGBA{uint8(x * 15), uint8(y * 28), uint8((x + y) * 7), 255})
		}
	}

	p, err := Extract(img, 5)
	require.NoError(t, err)

	first, err := Classify(img, p)
	require.NoError(t, err)
	for i, idx := range first.Indices {
		require.Less(t, int(idx), len(p), "pixel %d", i)
	}

	second, err := Classify(img, p)
	require.NoError(t, err)
	assert.Equal(t, first.Indices, second.Indices)
}

func TestClassify_OffsetBounds(t *testing.T) {
	img := image.NewNRGBA(image.Rect(5, 5, 7, 6))
	img.Set(5, 5, red)
	img.Set(6, 5, blue)

	layers, err := Classify(img, Palette{blue, red})
	require.NoError(t, err)
	assert.Equal(t, []uint8{1, 0}, layers.Indices)
	assert.Equal(t, uint8(0), layers.At(1, 0))
}

func TestClassify_InvalidArguments(t *testing.T) {
	img := imageOf(t, 1, 1, red)

	_, err := Classify(img, nil)
	assert.ErrorIs(t, err, ErrEmptyPalette)

	_, err = Classify(nil, Palette{red})
	assert.ErrorIs(t, err, ErrNilImage)

	_, err = Classify(img, make(Palette, MaxColors+1))
	assert.ErrorIs(t, err, ErrPaletteTooLarge)
}

func TestNearest(t *testing.T) {
	assert.Equal(t, -1, Nearest(nil, red))
	assert.Equal(t, 1, Nearest(Palette{blue, red}, color.RGBA{200, 30, 30, 255}))
}
