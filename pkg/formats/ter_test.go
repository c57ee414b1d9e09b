package formats

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/Faultbox/terragen/pkg/errs"
)

// createTestTER builds a 2x2 terrain with distinct rows.
func createTestTER(t *testing.T) *TER {
	t.Helper()
	heights := []uint16{
		1, 2, // top row
		3, 65535, // bottom row
	}
	layers := []uint8{
		0, 1,
		1, 0,
	}
	ter, err := NewTER(2, heights, layers, []string{"generated_0", "generated_1"}, DefaultTERSettings())
	if err != nil {
		t.Fatalf("NewTER failed: %v", err)
	}
	return ter
}

func TestTER_EncodeLayout(t *testing.T) {
	ter := createTestTER(t)

	var buf bytes.Buffer
	if err := ter.Encode(&buf); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	data := buf.Bytes()

	if len(data) != ter.EncodedSize() {
		t.Fatalf("expected %d bytes, got %d", ter.EncodedSize(), len(data))
	}

	if data[0] != 9 {
		t.Errorf("expected version 9, got %d", data[0])
	}
	if size := binary.LittleEndian.Uint32(data[1:5]); size != 2 {
		t.Errorf("expected size 2, got %d", size)
	}
	floats := []struct {
		offset int
		want   float32
	}{
		{5, 1024},
		{9, 1},
		{13, 255},
	}
	for _, f := range floats {
		got := math.Float32frombits(binary.LittleEndian.Uint32(data[f.offset : f.offset+4]))
		if got != f.want {
			t.Errorf("offset %d: expected %f, got %f", f.offset, f.want, got)
		}
	}
	if count := binary.LittleEndian.Uint32(data[17:21]); count != 2 {
		t.Errorf("expected material count 2, got %d", count)
	}

	// Heights: bottom row first
	wantHeights := []uint16{3, 65535, 1, 2}
	for i, want := range wantHeights {
		got := binary.LittleEndian.Uint16(data[21+2*i:])
		if got != want {
			t.Errorf("height %d: expected %d, got %d", i, want, got)
		}
	}

	layerOff := 21 + 8
	if !bytes.Equal(data[layerOff:layerOff+4], []byte{1, 0, 0, 1}) {
		t.Errorf("unexpected layer bytes %v", data[layerOff:layerOff+4])
	}

	textureOff := layerOff + 4
	if !bytes.Equal(data[textureOff:textureOff+4], []byte{0, 0, 0, 0}) {
		t.Errorf("layer texture should be zero, got %v", data[textureOff:textureOff+4])
	}

	namesOff := textureOff + 4
	if count := binary.LittleEndian.Uint32(data[namesOff:]); count != 2 {
		t.Errorf("expected repeated material count 2, got %d", count)
	}
	tail := data[namesOff+4:]
	want := append([]byte{11}, "generated_0"...)
	want = append(want, 11)
	want = append(want, "generated_1"...)
	if !bytes.Equal(tail, want) {
		t.Errorf("unexpected material table %q", tail)
	}
}

func TestParseTER_RoundTrip(t *testing.T) {
	ter := createTestTER(t)
	ter.Settings = TERSettings{TerrainSize: 2048, SquareSize: 2, HeightScale: 600}

	var buf bytes.Buffer
	if err := ter.Encode(&buf); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	parsed, err := ParseTER(buf.Bytes())
	if err != nil {
		t.Fatalf("ParseTER failed: %v", err)
	}

	if parsed.Settings != ter.Settings {
		t.Errorf("expected settings %+v, got %+v", ter.Settings, parsed.Settings)
	}
	if parsed.HeightAt(1, 1) != 65535 || parsed.HeightAt(0, 0) != 1 {
		t.Errorf("rows not restored: %v", parsed.Heights)
	}
	if parsed.LayerAt(1, 0) != 1 || parsed.LayerAt(1, 1) != 0 {
		t.Errorf("layers not restored: %v", parsed.Layers)
	}
	if len(parsed.Materials) != 2 || parsed.Materials[1] != "generated_1" {
		t.Errorf("unexpected materials %v", parsed.Materials)
	}
	counts := parsed.MaterialCounts()
	if counts[0] != 2 || counts[1] != 2 {
		t.Errorf("expected 2 cells per material, got %v", counts)
	}
}

func TestParseTER_Errors(t *testing.T) {
	ter := createTestTER(t)
	var buf bytes.Buffer
	if err := ter.Encode(&buf); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	valid := buf.Bytes()

	badVersion := append([]byte(nil), valid...)
	badVersion[0] = 8

	badCount := append([]byte(nil), valid...)
	binary.LittleEndian.PutUint32(badCount[17:], 3)

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"too short", valid[:10], ErrTruncatedTERData},
		{"truncated grid", valid[:25], ErrTruncatedTERData},
		{"truncated names", valid[:len(valid)-3], ErrTruncatedTERData},
		{"version", badVersion, ErrUnsupportedTERVersion},
		{"count mismatch", badCount, ErrInvalidTER},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseTER(tt.data)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestNewTER_Validation(t *testing.T) {
	names := []string{"generated_0"}
	settings := DefaultTERSettings()

	tests := []struct {
		name      string
		size      int
		heights   []uint16
		layers    []uint8
		materials []string
		want      error
	}{
		{"zero size", 0, nil, nil, names, ErrInvalidTER},
		{"short heights", 2, make([]uint16, 3), make([]uint8, 4), names, ErrInvalidTER},
		{"layer size mismatch", 2, make([]uint16, 4), make([]uint8, 6), names, ErrInvalidTER},
		{"no materials", 1, make([]uint16, 1), make([]uint8, 1), nil, ErrInvalidTER},
		{"index out of range", 1, make([]uint16, 1), []uint8{1}, names, ErrLayerOutOfRange},
		{"non-ascii name", 1, make([]uint16, 1), make([]uint8, 1), []string{"grüne"}, ErrInvalidMaterialName},
		{"empty name", 1, make([]uint16, 1), make([]uint8, 1), []string{""}, ErrInvalidMaterialName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTER(tt.size, tt.heights, tt.layers, tt.materials, settings)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
			if !errors.Is(err, errs.ErrInvalidArgument) {
				t.Errorf("expected invalid argument, got %v", err)
			}
		})
	}
}

func TestWriteTERFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "map.ter")
	ter := createTestTER(t)

	if err := WriteTERFile(path, ter); err != nil {
		t.Fatalf("WriteTERFile failed: %v", err)
	}

	parsed, err := ParseTERFile(path)
	if err != nil {
		t.Fatalf("ParseTERFile failed: %v", err)
	}
	if parsed.Size != 2 {
		t.Errorf("expected size 2, got %d", parsed.Size)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("expected only map.ter in output dir, got %d entries", len(entries))
	}
}

func TestWriteTERFile_MissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "map.ter")

	err := WriteTERFile(path, createTestTER(t))
	if !errors.Is(err, errs.ErrIO) {
		t.Errorf("expected ErrIO, got %v", err)
	}
	if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
		t.Error("no file should exist after a failed write")
	}
}

func TestParseTERFile_Missing(t *testing.T) {
	_, err := ParseTERFile("/nonexistent/map.ter")
	if !errors.Is(err, errs.ErrIO) {
		t.Errorf("expected ErrIO, got %v", err)
	}
}
