package formats

import (
	"encoding/json"
	"fmt"
	"image/color"
	"io"
	"path"
	"strings"

	"github.com/Faultbox/terragen/pkg/errs"
)

// Level file names.
const (
	MainLevelFile     = "main.level.json"
	MaterialsFile     = "materials.json"
	TerrainArtDir     = "art/terrain"
	TerrainBlockClass = "TerrainBlock"
)

// Descriptor errors.
var (
	ErrInvalidMapName = fmt.Errorf("%w: invalid map name", errs.ErrInvalidArgument)
)

// TerrainFileName returns the TER file name for a map.
func TerrainFileName(mapName string) string {
	return mapName + ".ter"
}

// TerrainDescriptorFileName returns the terrain JSON file name for a map.
func TerrainDescriptorFileName(mapName string) string {
	return mapName + ".terrain.json"
}

// BaseColorPath returns the level-relative swatch path of a material.
func BaseColorPath(material string) string {
	return path.Join(TerrainArtDir, material+"_basecolor.png")
}

// ValidateMapName rejects names that cannot be used as a file stem.
func ValidateMapName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: empty", ErrInvalidMapName)
	}
	if strings.ContainsAny(name, `/\:*?"<>|`) || name == "." || name == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidMapName, name)
	}
	return nil
}

// TerrainDescriptor is the <map>.terrain.json record.
type TerrainDescriptor struct {
	Name         string   `json:"name"`
	TerrainAsset string   `json:"terrainAsset"`
	Size         [2]int   `json:"size"`
	SquareSize   float64  `json:"squareSize"`
	Materials    []string `json:"materials"`
}

// NewTerrainDescriptor describes an N x N terrain for mapName.
func NewTerrainDescriptor(mapName string, size int, squareSize float32, materials []string) (*TerrainDescriptor, error) {
	if err := ValidateMapName(mapName); err != nil {
		return nil, err
	}
	if size <= 0 {
		return nil, fmt.Errorf("%w: size %d", ErrInvalidTER, size)
	}
	if len(materials) == 0 {
		return nil, fmt.Errorf("%w: no materials", ErrInvalidTER)
	}
	for _, m := range materials {
		if err := validateMaterialName(m); err != nil {
			return nil, err
		}
	}
	return &TerrainDescriptor{
		Name:         mapName,
		TerrainAsset: TerrainFileName(mapName),
		Size:         [2]int{size, size},
		SquareSize:   float64(squareSize),
		Materials:    append([]string(nil), materials...),
	}, nil
}

// LevelObject is one scene object of main.level.json.
type LevelObject struct {
	ClassName string     `json:"className"`
	Data      string     `json:"data"`
	Position  [3]float64 `json:"position"`
}

// LevelDescriptor is the main.level.json record.
type LevelDescriptor struct {
	Name    string        `json:"name"`
	Objects []LevelObject `json:"objects"`
}

// NewLevelDescriptor returns a level holding one terrain block at the origin.
func NewLevelDescriptor(mapName string) (*LevelDescriptor, error) {
	if err := ValidateMapName(mapName); err != nil {
		return nil, err
	}
	return &LevelDescriptor{
		Name: mapName,
		Objects: []LevelObject{{
			ClassName: TerrainBlockClass,
			Data:      TerrainDescriptorFileName(mapName),
		}},
	}, nil
}

// MaterialMaps lists the texture maps of a material.
type MaterialMaps struct {
	BaseColor string `json:"baseColor"`
}

// MaterialParams holds scalar material parameters.
type MaterialParams struct {
	Roughness float32 `json:"roughness"`
}

// Material is one entry of materials.json.
type Material struct {
	Name   string         `json:"name"`
	Maps   MaterialMaps   `json:"maps"`
	Params MaterialParams `json:"params"`
}

// Roughness maps brightness to roughness: darker colours are rougher.
// The result is clamped to [0.2, 1.0].
func Roughness(c color.RGBA) float32 {
	brightness := (float32(c.R) + float32(c.G) + float32(c.B)) / 3 / 255
	return max(0.2, min(1.0, 1-brightness))
}

// NewMaterial describes a flat-colour material named name.
func NewMaterial(name string, c color.RGBA) (Material, error) {
	if err := validateMaterialName(name); err != nil {
		return Material{}, err
	}
	return Material{
		Name:   name,
		Maps:   MaterialMaps{BaseColor: BaseColorPath(name)},
		Params: MaterialParams{Roughness: Roughness(c)},
	}, nil
}

// MaterialsDescriptor is the materials.json record keyed by material name.
type MaterialsDescriptor map[string]Material

// NewMaterialsDescriptor pairs names[i] with colors[i].
func NewMaterialsDescriptor(names []string, colors []color.RGBA) (MaterialsDescriptor, error) {
	if len(names) != len(colors) {
		return nil, fmt.Errorf("%w: %d names for %d colors", errs.ErrInvalidArgument, len(names), len(colors))
	}
	out := make(MaterialsDescriptor, len(names))
	for i, name := range names {
		if _, dup := out[name]; dup {
			return nil, fmt.Errorf("%w: duplicate %q", ErrInvalidMaterialName, name)
		}
		m, err := NewMaterial(name, colors[i])
		if err != nil {
			return nil, err
		}
		out[name] = m
	}
	return out, nil
}

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteJSONFile writes v as indented JSON to path atomically.
func WriteJSONFile(path string, v any) error {
	return writeFileAtomic(path, func(w io.Writer) error {
		return WriteJSON(w, v)
	})
}
