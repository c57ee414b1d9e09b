package formats

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/Faultbox/terragen/pkg/errs"
)

// TER format constants.
const (
	TERVersion    = 9
	TERHeaderSize = 21
	// TERMaxSize bounds the grid dimension accepted by ParseTER.
	TERMaxSize = 16384
)

// TER format errors.
var (
	ErrUnsupportedTERVersion = errors.New("unsupported TER version")
	ErrTruncatedTERData      = errors.New("truncated TER data")
	ErrInvalidTER            = fmt.Errorf("%w: invalid terrain", errs.ErrInvalidArgument)
	ErrLayerOutOfRange       = fmt.Errorf("%w: layer index out of material range", errs.ErrInvalidArgument)
	ErrInvalidMaterialName   = fmt.Errorf("%w: invalid material name", errs.ErrInvalidArgument)
)

// TERSettings are the world-space scales stored in the TER header.
type TERSettings struct {
	TerrainSize float32
	SquareSize  float32
	HeightScale float32
}

// DefaultTERSettings returns the settings written when none are configured.
func DefaultTERSettings() TERSettings {
	return TERSettings{
		TerrainSize: 1024.0,
		SquareSize:  1.0,
		HeightScale: 255.0,
	}
}

// terHeader is the fixed 21-byte prefix of a TER file.
type terHeader struct {
	Version       uint8
	Size          uint32
	TerrainSize   float32
	SquareSize    float32
	HeightScale   float32
	MaterialCount uint32
}

// TER is a terrain block: an N x N heightmap, a material index per cell and
// the material name table.
//
// Heights and Layers are row-major with row 0 at the top of the source
// image. The file stores rows bottom to top; Encode and ParseTER flip them.
type TER struct {
	Version  uint8
	Size     uint32
	Settings TERSettings
	Heights  []uint16
	Layers   []uint8
	// LayerTexture is reserved for per-cell blend weights and written as zeros.
	LayerTexture []uint8
	Materials    []string
}

// NewTER builds a validated terrain block.
func NewTER(size int, heights []uint16, layers []uint8, materials []string, settings TERSettings) (*TER, error) {
	if size <= 0 || size > TERMaxSize {
		return nil, fmt.Errorf("%w: size %d", ErrInvalidTER, size)
	}
	t := &TER{
		Version:      TERVersion,
		Size:         uint32(size),
		Settings:     settings,
		Heights:      heights,
		Layers:       layers,
		LayerTexture: make([]uint8, size*size),
		Materials:    materials,
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// Validate checks grid lengths, layer indices and material names.
func (t *TER) Validate() error {
	n := int(t.Size) * int(t.Size)
	if t.Size == 0 {
		return fmt.Errorf("%w: zero size", ErrInvalidTER)
	}
	if len(t.Heights) != n {
		return fmt.Errorf("%w: %d heights for %dx%d grid", ErrInvalidTER, len(t.Heights), t.Size, t.Size)
	}
	if len(t.Layers) != n {
		return fmt.Errorf("%w: %d layer cells for %dx%d grid", ErrInvalidTER, len(t.Layers), t.Size, t.Size)
	}
	if t.LayerTexture != nil && len(t.LayerTexture) != n {
		return fmt.Errorf("%w: %d layer texture cells for %dx%d grid", ErrInvalidTER, len(t.LayerTexture), t.Size, t.Size)
	}
	if len(t.Materials) == 0 {
		return fmt.Errorf("%w: no materials", ErrInvalidTER)
	}
	for _, name := range t.Materials {
		if err := validateMaterialName(name); err != nil {
			return err
		}
	}
	for i, idx := range t.Layers {
		if int(idx) >= len(t.Materials) {
			return fmt.Errorf("%w: cell %d has index %d, %d materials", ErrLayerOutOfRange, i, idx, len(t.Materials))
		}
	}
	return nil
}

func validateMaterialName(name string) error {
	if name == "" || len(name) > 255 {
		return fmt.Errorf("%w: %q must be 1-255 bytes", ErrInvalidMaterialName, name)
	}
	for i := 0; i < len(name); i++ {
		if name[i] < 0x20 || name[i] > 0x7e {
			return fmt.Errorf("%w: %q is not printable ASCII", ErrInvalidMaterialName, name)
		}
	}
	return nil
}

// HeightAt returns the height at (x, y), y counted from the top row.
func (t *TER) HeightAt(x, y int) uint16 {
	return t.Heights[y*int(t.Size)+x]
}

// LayerAt returns the material index at (x, y), y counted from the top row.
func (t *TER) LayerAt(x, y int) uint8 {
	return t.Layers[y*int(t.Size)+x]
}

// EncodedSize returns the number of bytes Encode writes.
func (t *TER) EncodedSize() int {
	n := int(t.Size) * int(t.Size)
	size := TERHeaderSize + 2*n + n + n + 4
	for _, name := range t.Materials {
		size += 1 + len(name)
	}
	return size
}

// Encode writes the terrain in TER layout to w.
func (t *TER) Encode(w io.Writer) error {
	if err := t.Validate(); err != nil {
		return err
	}

	bw := bufio.NewWriter(w)
	size := int(t.Size)

	header := terHeader{
		Version:       t.Version,
		Size:          t.Size,
		TerrainSize:   t.Settings.TerrainSize,
		SquareSize:    t.Settings.SquareSize,
		HeightScale:   t.Settings.HeightScale,
		MaterialCount: uint32(len(t.Materials)),
	}
	if err := binary.Write(bw, binary.LittleEndian, &header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	// Heightmap, bottom row first
	for y := size - 1; y >= 0; y-- {
		row := t.Heights[y*size : (y+1)*size]
		if err := binary.Write(bw, binary.LittleEndian, row); err != nil {
			return fmt.Errorf("writing height row %d: %w", y, err)
		}
	}

	// Layer map, same row order
	for y := size - 1; y >= 0; y-- {
		if _, err := bw.Write(t.Layers[y*size : (y+1)*size]); err != nil {
			return fmt.Errorf("writing layer row %d: %w", y, err)
		}
	}

	// Layer texture data
	texture := t.LayerTexture
	if texture == nil {
		texture = make([]uint8, size*size)
	}
	if _, err := bw.Write(texture); err != nil {
		return fmt.Errorf("writing layer texture: %w", err)
	}

	// Material names
	if err := binary.Write(bw, binary.LittleEndian, uint32(len(t.Materials))); err != nil {
		return fmt.Errorf("writing material count: %w", err)
	}
	for _, name := range t.Materials {
		if err := bw.WriteByte(byte(len(name))); err != nil {
			return fmt.Errorf("writing material %q: %w", name, err)
		}
		if _, err := bw.WriteString(name); err != nil {
			return fmt.Errorf("writing material %q: %w", name, err)
		}
	}

	return bw.Flush()
}

// WriteTERFile encodes t to path. The file is written to a temporary name
// in the same directory and renamed into place, so a failed write leaves no
// partial file at path.
func WriteTERFile(path string, t *TER) error {
	if err := t.Validate(); err != nil {
		return err
	}
	return writeFileAtomic(path, t.Encode)
}

// ParseTER parses a TER file from raw bytes.
func ParseTER(data []byte) (*TER, error) {
	if len(data) < TERHeaderSize {
		return nil, ErrTruncatedTERData
	}

	r := bytes.NewReader(data)

	var header terHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("%w: reading header", ErrTruncatedTERData)
	}

	if header.Version != TERVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedTERVersion, header.Version)
	}
	if header.Size == 0 || header.Size > TERMaxSize {
		return nil, fmt.Errorf("invalid TER dimensions: %dx%d", header.Size, header.Size)
	}

	size := int(header.Size)
	n := size * size
	if r.Len() < 2*n+n+n+4 {
		return nil, fmt.Errorf("%w: %d bytes left for %dx%d grid", ErrTruncatedTERData, r.Len(), size, size)
	}

	t := &TER{
		Version: header.Version,
		Size:    header.Size,
		Settings: TERSettings{
			TerrainSize: header.TerrainSize,
			SquareSize:  header.SquareSize,
			HeightScale: header.HeightScale,
		},
		Heights:      make([]uint16, n),
		Layers:       make([]uint8, n),
		LayerTexture: make([]uint8, n),
	}

	for y := size - 1; y >= 0; y-- {
		if err := binary.Read(r, binary.LittleEndian, t.Heights[y*size:(y+1)*size]); err != nil {
			return nil, fmt.Errorf("%w: reading height row %d", ErrTruncatedTERData, y)
		}
	}
	for y := size - 1; y >= 0; y-- {
		if _, err := io.ReadFull(r, t.Layers[y*size:(y+1)*size]); err != nil {
			return nil, fmt.Errorf("%w: reading layer row %d", ErrTruncatedTERData, y)
		}
	}
	if _, err := io.ReadFull(r, t.LayerTexture); err != nil {
		return nil, fmt.Errorf("%w: reading layer texture", ErrTruncatedTERData)
	}

	var count uint32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, fmt.Errorf("%w: reading material count", ErrTruncatedTERData)
	}
	if count != header.MaterialCount {
		return nil, fmt.Errorf("%w: material count %d in header, %d before names", ErrInvalidTER, header.MaterialCount, count)
	}

	t.Materials = make([]string, 0, min(int(count), 256))
	for i := uint32(0); i < count; i++ {
		nameLen, err := r.ReadByte()
		if err != nil {
			return nil, fmt.Errorf("%w: reading material %d length", ErrTruncatedTERData, i)
		}
		name := make([]byte, nameLen)
		if _, err := io.ReadFull(r, name); err != nil {
			return nil, fmt.Errorf("%w: reading material %d name", ErrTruncatedTERData, i)
		}
		t.Materials = append(t.Materials, string(name))
	}

	return t, nil
}

// ParseTERFile parses a TER file from disk.
func ParseTERFile(path string) (*TER, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading TER file: %w", errs.ErrIO, err)
	}
	return ParseTER(data)
}

// MaterialCounts returns the number of cells using each material.
func (t *TER) MaterialCounts() []int {
	counts := make([]int, len(t.Materials))
	for _, idx := range t.Layers {
		if int(idx) < len(counts) {
			counts[idx]++
		}
	}
	return counts
}
