package imagery

import (
	"fmt"
	"image"
	"image/color"
)

// ErrInvalidTGA is returned for malformed or unsupported TGA data.
var ErrInvalidTGA = fmt.Errorf("%w: invalid TGA", ErrUnsupportedFormat)

const tgaHeaderSize = 18

// decodeTGA decodes uncompressed (type 2) and RLE (type 10) true-colour TGA.
// Alpha in 32-bit files is straight, so the result is NRGBA.
func decodeTGA(data []byte) (*image.NRGBA, error) {
	if len(data) < tgaHeaderSize {
		return nil, fmt.Errorf("%w: header truncated", ErrInvalidTGA)
	}

	idLength := int(data[0])
	colorMapType := data[1]
	imageType := data[2]
	width := int(data[12]) | int(data[13])<<8
	height := int(data[14]) | int(data[15])<<8
	bpp := int(data[16])
	descriptor := data[17]

	if colorMapType != 0 {
		return nil, fmt.Errorf("%w: color-mapped images not supported", ErrInvalidTGA)
	}
	if imageType != 2 && imageType != 10 {
		return nil, fmt.Errorf("%w: image type %d (only true-color supported)", ErrInvalidTGA, imageType)
	}
	if bpp != 24 && bpp != 32 {
		return nil, fmt.Errorf("%w: bit depth %d (only 24/32 supported)", ErrInvalidTGA, bpp)
	}
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("%w: empty image", ErrInvalidTGA)
	}

	offset := tgaHeaderSize + idLength
	if offset > len(data) {
		return nil, fmt.Errorf("%w: id field truncated", ErrInvalidTGA)
	}

	r := &tgaReader{
		data:        data[offset:],
		img:         image.NewNRGBA(image.Rect(0, 0, width, height)),
		bytesPP:     bpp / 8,
		topToBottom: descriptor&0x20 != 0,
	}

	var err error
	if imageType == 2 {
		err = r.readRaw()
	} else {
		err = r.readRLE()
	}
	if err != nil {
		return nil, err
	}
	return r.img, nil
}

type tgaReader struct {
	data        []byte
	pos         int
	img         *image.NRGBA
	bytesPP     int
	topToBottom bool
}

// pixel reads one BGR(A) pixel.
func (r *tgaReader) pixel() (color.NRGBA, error) {
	if r.pos+r.bytesPP > len(r.data) {
		return color.NRGBA{}, fmt.Errorf("%w: pixel data truncated", ErrInvalidTGA)
	}
	p := r.data[r.pos:]
	c := color.NRGBA{R: p[2], G: p[1], B: p[0], A: 255}
	if r.bytesPP == 4 {
		c.A = p[3]
	}
	r.pos += r.bytesPP
	return c, nil
}

// set stores the i-th pixel in file order.
func (r *tgaReader) set(i int, c color.NRGBA) {
	w, h := r.img.Rect.Dx(), r.img.Rect.Dy()
	x, y := i%w, i/w
	if !r.topToBottom {
		y = h - 1 - y
	}
	r.img.SetNRGBA(x, y, c)
}

func (r *tgaReader) count() int {
	return r.img.Rect.Dx() * r.img.Rect.Dy()
}

func (r *tgaReader) readRaw() error {
	for i := 0; i < r.count(); i++ {
		c, err := r.pixel()
		if err != nil {
			return err
		}
		r.set(i, c)
	}
	return nil
}

func (r *tgaReader) readRLE() error {
	total := r.count()
	for i := 0; i < total; {
		if r.pos >= len(r.data) {
			return fmt.Errorf("%w: RLE data truncated", ErrInvalidTGA)
		}
		packet := r.data[r.pos]
		r.pos++
		n := int(packet&0x7F) + 1

		if packet&0x80 != 0 {
			// Run-length packet: one pixel repeated n times.
			c, err := r.pixel()
			if err != nil {
				return err
			}
			for j := 0; j < n && i < total; j++ {
				r.set(i, c)
				i++
			}
			continue
		}

		for j := 0; j < n && i < total; j++ {
			c, err := r.pixel()
			if err != nil {
				return err
			}
			r.set(i, c)
			i++
		}
	}
	return nil
}
