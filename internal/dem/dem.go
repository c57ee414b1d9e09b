// Package dem reads digital elevation models into float grids.
//
// Rasters are decoded with the standard image codecs plus
// golang.org/x/image/tiff and golang.org/x/image/bmp. Sample values are
// interpreted according to an Encoding: plain gray levels, signed 16-bit
// elevations (SRTM GeoTIFF) or Mapzen Terrarium RGB tiles.
package dem

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/png" // register PNG
	"io"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"  // register BMP
	_ "golang.org/x/image/tiff" // register TIFF

	"github.com/Faultbox/terragen/pkg/errs"
	"github.com/Faultbox/terragen/pkg/heightmap"
)

var (
	ErrUnsupportedFormat = fmt.Errorf("%w: unsupported elevation raster", errs.ErrInvalidArgument)
	ErrUnknownEncoding   = fmt.Errorf("%w: unknown elevation encoding", errs.ErrInvalidArgument)
	ErrClosed            = errors.New("dataset closed")
)

// Encoding selects how raster samples map to elevations.
type Encoding int

const (
	// EncodingAuto uses raw gray samples for gray rasters and luminance otherwise.
	EncodingAuto Encoding = iota
	// EncodingGray uses the 16-bit luminance of every pixel.
	EncodingGray
	// EncodingInt16 reinterprets 16-bit gray samples as two's complement metres.
	EncodingInt16
	// EncodingTerrarium decodes (R*256 + G + B/256) - 32768 metres.
	EncodingTerrarium
)

// String returns the configuration name of the encoding.
func (e Encoding) String() string {
	switch e {
	case EncodingAuto:
		return "auto"
	case EncodingGray:
		return "gray"
	case EncodingInt16:
		return "int16"
	case EncodingTerrarium:
		return "terrarium"
	default:
		return fmt.Sprintf("Unknown(%d)", int(e))
	}
}

// ParseEncoding converts a configuration name to an Encoding.
func ParseEncoding(name string) (Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "auto":
		return EncodingAuto, nil
	case "gray", "grey":
		return EncodingGray, nil
	case "int16", "srtm":
		return EncodingInt16, nil
	case "terrarium":
		return EncodingTerrarium, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownEncoding, name)
	}
}

// Dataset is an opened elevation raster. Close must be called when done;
// it deletes the backing file when the dataset was staged from memory.
type Dataset struct {
	path     string
	staged   bool
	format   string
	encoding Encoding
	img      image.Image
}

// Open decodes the raster at path.
func Open(path string, enc Encoding) (*Dataset, error) {
	d := &Dataset{path: path, encoding: enc}
	if err := d.decode(); err != nil {
		return nil, err
	}
	return d, nil
}

// OpenBytes stages data to a temporary file named with ext (".tif", ".png")
// and decodes it. The temporary file is removed by Close, or immediately if
// decoding fails.
func OpenBytes(data []byte, ext string, enc Encoding) (*Dataset, error) {
	f, err := os.CreateTemp("", "terragen_dem_*"+ext)
	if err != nil {
		return nil, fmt.Errorf("%w: staging elevation data: %w", errs.ErrIO, err)
	}
	path := f.Name()

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(path)
		return nil, fmt.Errorf("%w: staging elevation data: %w", errs.ErrIO, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("%w: staging elevation data: %w", errs.ErrIO, err)
	}

	d := &Dataset{path: path, staged: true, encoding: enc}
	if err := d.decode(); err != nil {
		os.Remove(path)
		return nil, err
	}
	return d, nil
}

func (d *Dataset) decode() error {
	f, err := os.Open(d.path)
	if err != nil {
		return fmt.Errorf("%w: opening elevation data: %w", errs.ErrIO, err)
	}
	defer f.Close()

	img, format, err := decodeRaster(f)
	if err != nil {
		return fmt.Errorf("%s: %w", filepath.Base(d.path), err)
	}
	d.img = img
	d.format = format
	return nil
}

func decodeRaster(r io.Reader) (image.Image, string, error) {
	img, format, err := image.Decode(r)
	if errors.Is(err, image.ErrFormat) {
		return nil, "", ErrUnsupportedFormat
	}
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", ErrUnsupportedFormat, err)
	}
	return img, format, nil
}

// Path returns the file backing the dataset.
func (d *Dataset) Path() string {
	return d.path
}

// Format returns the codec name that decoded the raster ("png", "tiff", "bmp").
func (d *Dataset) Format() string {
	return d.format
}

// Size returns the raster dimensions, or zero after Close.
func (d *Dataset) Size() (width, height int) {
	if d.img == nil {
		return 0, 0
	}
	b := d.img.Bounds()
	return b.Dx(), b.Dy()
}

// ReadGrid converts the first band of the raster to elevations.
func (d *Dataset) ReadGrid() (*heightmap.Grid, error) {
	if d.img == nil {
		return nil, ErrClosed
	}

	b := d.img.Bounds()
	grid := heightmap.NewGrid(b.Dx(), b.Dy())
	sample := sampler(d.img, d.encoding)

	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			grid.Set(x, y, sample(b.Min.X+x, b.Min.Y+y))
		}
	}
	return grid, nil
}

// Close releases the decoded raster and removes a staged file. It is safe
// to call more than once.
func (d *Dataset) Close() error {
	d.img = nil
	if !d.staged {
		return nil
	}
	d.staged = false
	if err := os.Remove(d.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("%w: removing staged elevation data: %w", errs.ErrIO, err)
	}
	return nil
}

// sampler returns the elevation reader for img under enc.
func sampler(img image.Image, enc Encoding) func(x, y int) float32 {
	switch enc {
	case EncodingTerrarium:
		return func(x, y int) float32 {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			return float32(c.R)*256 + float32(c.G) + float32(c.B)/256 - 32768
		}
	case EncodingInt16:
		return func(x, y int) float32 {
			return float32(int16(gray16(img, x, y)))
		}
	case EncodingGray:
		return func(x, y int) float32 {
			return float32(gray16(img, x, y))
		}
	}

	// Auto: native sample values for gray rasters.
	switch src := img.(type) {
	case *image.Gray16:
		return func(x, y int) float32 {
			return float32(src.Gray16At(x, y).Y)
		}
	case *image.Gray:
		return func(x, y int) float32 {
			return float32(src.GrayAt(x, y).Y)
		}
	default:
		return func(x, y int) float32 {
			return float32(gray16(img, x, y))
		}
	}
}

func gray16(img image.Image, x, y int) uint16 {
	return color.Gray16Model.Convert(img.At(x, y)).(color.Gray16).Y
}
