package formats

import (
	"bytes"
	"encoding/json"
	"errors"
	"image/color"
	"os"
	"path/filepath"
	"testing"
)

func TestNewTerrainDescriptor(t *testing.T) {
	d, err := NewTerrainDescriptor("canyon", 1024, 1, []string{"generated_0", "generated_1"})
	if err != nil {
		t.Fatalf("NewTerrainDescriptor failed: %v", err)
	}

	var buf bytes.Buffer
	if err := WriteJSON(&buf, d); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if decoded["name"] != "canyon" {
		t.Errorf("expected name canyon, got %v", decoded["name"])
	}
	if decoded["terrainAsset"] != "canyon.ter" {
		t.Errorf("expected terrainAsset canyon.ter, got %v", decoded["terrainAsset"])
	}
	size, _ := decoded["size"].([]any)
	if len(size) != 2 || size[0] != 1024.0 || size[1] != 1024.0 {
		t.Errorf("expected size [1024,1024], got %v", decoded["size"])
	}
	if decoded["squareSize"] != 1.0 {
		t.Errorf("expected squareSize 1, got %v", decoded["squareSize"])
	}
	if !bytes.Contains(buf.Bytes(), []byte(`"squareSize": 1,`)) {
		t.Errorf("squareSize should encode as a bare 1:\n%s", buf.String())
	}
}

func TestNewTerrainDescriptor_Invalid(t *testing.T) {
	tests := []struct {
		name      string
		mapName   string
		size      int
		materials []string
		want      error
	}{
		{"empty map name", "", 8, []string{"a"}, ErrInvalidMapName},
		{"path in map name", "../x", 8, []string{"a"}, ErrInvalidMapName},
		{"zero size", "m", 0, []string{"a"}, ErrInvalidTER},
		{"no materials", "m", 8, nil, ErrInvalidTER},
		{"bad material", "m", 8, []string{""}, ErrInvalidMaterialName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTerrainDescriptor(tt.mapName, tt.size, 1, tt.materials)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestNewLevelDescriptor(t *testing.T) {
	d, err := NewLevelDescriptor("canyon")
	if err != nil {
		t.Fatalf("NewLevelDescriptor failed: %v", err)
	}

	data, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	want := `{"name":"canyon","objects":[{"className":"TerrainBlock","data":"canyon.terrain.json","position":[0,0,0]}]}`
	if string(data) != want {
		t.Errorf("unexpected level JSON:\n got %s\nwant %s", data, want)
	}
}

func TestRoughness(t *testing.T) {
	tests := []struct {
		color color.RGBA
		want  float32
	}{
		{color.RGBA{0, 0, 0, 255}, 1.0},
		{color.RGBA{255, 255, 255, 255}, 0.2},
		{color.RGBA{204, 204, 204, 255}, 0.2},
		{color.RGBA{51, 102, 153, 255}, 0.6},
	}

	for _, tt := range tests {
		got := Roughness(tt.color)
		if diff := got - tt.want; diff > 1e-6 || diff < -1e-6 {
			t.Errorf("Roughness(%v) = %f, expected %f", tt.color, got, tt.want)
		}
	}
}

func TestNewMaterialsDescriptor(t *testing.T) {
	names := []string{"generated_0", "generated_1"}
	colors := []color.RGBA{{0, 0, 0, 255}, {255, 255, 255, 255}}

	d, err := NewMaterialsDescriptor(names, colors)
	if err != nil {
		t.Fatalf("NewMaterialsDescriptor failed: %v", err)
	}

	m := d["generated_1"]
	if m.Name != "generated_1" {
		t.Errorf("expected name generated_1, got %s", m.Name)
	}
	if m.Maps.BaseColor != "art/terrain/generated_1_basecolor.png" {
		t.Errorf("unexpected base colour path %s", m.Maps.BaseColor)
	}
	if m.Params.Roughness != 0.2 {
		t.Errorf("expected roughness 0.2, got %f", m.Params.Roughness)
	}

	if _, err := NewMaterialsDescriptor(names, colors[:1]); err == nil {
		t.Error("expected error for mismatched names and colors")
	}
	if _, err := NewMaterialsDescriptor([]string{"a", "a"}, colors); !errors.Is(err, ErrInvalidMaterialName) {
		t.Errorf("expected duplicate name error, got %v", err)
	}
}

func TestWriteJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), MainLevelFile)
	d, _ := NewLevelDescriptor("canyon")

	if err := WriteJSONFile(path, d); err != nil {
		t.Fatalf("WriteJSONFile failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	var decoded LevelDescriptor
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if decoded.Objects[0].Data != "canyon.terrain.json" {
		t.Errorf("unexpected terrain reference %s", decoded.Objects[0].Data)
	}
}
