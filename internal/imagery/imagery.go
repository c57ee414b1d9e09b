// Package imagery loads satellite imagery and fits it onto the terrain grid.
package imagery

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg" // register JPEG
	_ "image/png"  // register PNG
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp" // register BMP
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff" // register TIFF
	_ "golang.org/x/image/webp" // register WebP

	"github.com/Faultbox/terragen/pkg/errs"
)

var (
	ErrUnsupportedFormat = fmt.Errorf("%w: unsupported imagery format", errs.ErrInvalidArgument)
	ErrUnknownFilter     = fmt.Errorf("%w: unknown resample filter", errs.ErrInvalidArgument)
	ErrInvalidSize       = fmt.Errorf("%w: fit size must be positive", errs.ErrInvalidArgument)
)

// Load reads and decodes the image at path.
func Load(path string) (image.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading imagery: %w", errs.ErrIO, err)
	}
	img, err := Decode(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return img, nil
}

// Decode decodes PNG, JPEG, BMP, TIFF, WebP or TGA data. ext is only
// consulted for TGA, which has no magic number.
func Decode(data []byte, ext string) (image.Image, error) {
	if strings.EqualFold(ext, ".tga") {
		return decodeTGA(data)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupportedFormat, err)
	}
	return img, nil
}

// ParseFilter returns the interpolator named by a config value.
func ParseFilter(name string) (draw.Interpolator, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "nearest":
		return draw.NearestNeighbor, nil
	case "approx-bilinear":
		return draw.ApproxBiLinear, nil
	case "bilinear":
		return draw.BiLinear, nil
	case "catmull-rom", "catmullrom":
		return draw.CatmullRom, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFilter, name)
	}
}

// Fit scales img onto a size×size canvas anchored at the origin.
// NearestNeighbor keeps the source colours exact, which keeps frequency
// palettes meaningful; smoothing filters blend neighbouring pixels.
func Fit(img image.Image, size int, filter draw.Interpolator) (*image.NRGBA, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidSize, size)
	}
	if img == nil || img.Bounds().Empty() {
		return nil, fmt.Errorf("%w: image is empty", errs.ErrInvalidArgument)
	}
	if filter == nil {
		filter = draw.NearestNeighbor
	}

	dst := image.NewNRGBA(image.Rect(0, 0, size, size))
	if src, ok := img.(*image.NRGBA); ok && src.Bounds() == dst.Bounds() {
		copy(dst.Pix, src.Pix)
		return dst, nil
	}

	filter.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst, nil
}
