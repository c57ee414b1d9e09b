package export

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"

	"github.com/Faultbox/terragen/pkg/errs"
	"github.com/Faultbox/terragen/pkg/formats"
	"github.com/Faultbox/terragen/pkg/palette"
)

// SwatchSize is the edge length of a material base colour texture.
const SwatchSize = 16

// WriteMaterials writes one base colour swatch per material under
// levelDir/art/terrain and the materials.json descriptor in levelDir.
func WriteMaterials(levelDir string, names []string, p palette.Palette) error {
	desc, err := formats.NewMaterialsDescriptor(names, p)
	if err != nil {
		return err
	}

	artDir := filepath.Join(levelDir, filepath.FromSlash(formats.TerrainArtDir))
	if err := os.MkdirAll(artDir, 0755); err != nil {
		return fmt.Errorf("%w: creating art dir: %w", errs.ErrIO, err)
	}

	for i, name := range names {
		path := filepath.Join(levelDir, filepath.FromSlash(formats.BaseColorPath(name)))
		if err := writePNG(path, Swatch(p[i], SwatchSize)); err != nil {
			return err
		}
	}

	return formats.WriteJSONFile(filepath.Join(levelDir, formats.MaterialsFile), desc)
}

// Swatch returns a size×size image filled with c.
func Swatch(c color.RGBA, size int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	fill(img, img.Rect, c)
	return img
}

// PaletteStrip renders the palette as a row of tile×tile squares in
// palette order.
func PaletteStrip(p palette.Palette, tile int) (*image.RGBA, error) {
	if len(p) == 0 {
		return nil, palette.ErrEmptyPalette
	}
	if tile <= 0 {
		tile = 64
	}

	img := image.NewRGBA(image.Rect(0, 0, tile*len(p), tile))
	for i, c := range p {
		fill(img, image.Rect(i*tile, 0, (i+1)*tile, tile), c)
	}
	return img, nil
}

// WritePaletteStrip writes PaletteStrip(p, tile) as a PNG.
func WritePaletteStrip(path string, p palette.Palette, tile int) error {
	img, err := PaletteStrip(p, tile)
	if err != nil {
		return err
	}
	return writePNG(path, img)
}

func fill(img *image.RGBA, r image.Rectangle, c color.RGBA) {
	c.A = 255
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.SetRGBA(x, y, c)
		}
	}
}

func writePNG(path string, img image.Image) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: creating file: %w", errs.ErrIO, err)
	}

	if err := png.Encode(file, img); err != nil {
		file.Close()
		os.Remove(path)
		return fmt.Errorf("%w: encoding PNG: %w", errs.ErrIO, err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("%w: closing %s: %w", errs.ErrIO, path, err)
	}
	return nil
}
