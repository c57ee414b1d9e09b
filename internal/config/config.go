// Package config handles terragen configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/Faultbox/terragen/internal/dem"
	"github.com/Faultbox/terragen/internal/imagery"
	"github.com/Faultbox/terragen/pkg/formats"
	"github.com/Faultbox/terragen/pkg/palette"
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid config")

// Config holds all export settings.
type Config struct {
	Export    ExportConfig    `yaml:"export"`
	Heightmap HeightmapConfig `yaml:"heightmap"`
	Palette   PaletteConfig   `yaml:"palette"`
	Imagery   ImageryConfig   `yaml:"imagery"`
	Terrain   TerrainConfig   `yaml:"terrain"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ExportConfig holds output locations and run limits.
type ExportConfig struct {
	OutputDir   string        `yaml:"output_dir"` // Levels directory; each map gets a subdirectory
	MapName     string        `yaml:"map_name"`
	Resolution  int           `yaml:"resolution"`  // Terrain grid size N
	Parallelism int           `yaml:"parallelism"` // Concurrent batch jobs
	Timeout     time.Duration `yaml:"timeout"`     // 0 = no limit
}

// HeightmapConfig holds elevation input settings.
type HeightmapConfig struct {
	// Scale is the number of terrain cells per DEM sample (30 for 30 m SRTM to 1 m cells).
	Scale float32 `yaml:"scale"`
	// Encoding of raster DEMs: auto, gray, int16 or terrarium.
	Encoding string `yaml:"encoding"`
}

// PaletteConfig holds material palette settings.
type PaletteConfig struct {
	Size           int     `yaml:"size"`
	Mode           string  `yaml:"mode"` // frequency, kmeans, dominant, adaptive
	Iterations     int     `yaml:"iterations"`
	Seed           int64   `yaml:"seed"`
	AlphaThreshold uint8   `yaml:"alpha_threshold"`
	MaxSamples     int     `yaml:"max_samples"`
	Delta          float64 `yaml:"delta"`
}

// ImageryConfig holds satellite imagery settings.
type ImageryConfig struct {
	Fit    bool   `yaml:"fit"`    // Resize imagery onto the terrain grid
	Filter string `yaml:"filter"` // nearest, approx-bilinear, bilinear, catmull-rom
}

// TerrainConfig holds the world-space scales written to the TER header.
type TerrainConfig struct {
	TerrainSize float32 `yaml:"terrain_size"`
	SquareSize  float32 `yaml:"square_size"`
	HeightScale float32 `yaml:"height_scale"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
	Format  string `yaml:"format"` // console or json
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Export: ExportConfig{
			OutputDir:   "levels",
			MapName:     "terrain",
			Resolution:  1024,
			Parallelism: 2,
		},
		Heightmap: HeightmapConfig{
			Scale:    1.0,
			Encoding: "auto",
		},
		Palette: PaletteConfig{
			Size:           16,
			Mode:           "frequency",
			Iterations:     100,
			Seed:           1,
			AlphaThreshold: 127,
			MaxSamples:     0,
			Delta:          0.01,
		},
		Imagery: ImageryConfig{
			Fit:    true,
			Filter: "nearest",
		},
		Terrain: TerrainConfig{
			TerrainSize: 1024,
			SquareSize:  1,
			HeightScale: 255,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// PaletteOptions converts the palette section to extraction options.
func (c *Config) PaletteOptions() (palette.Options, error) {
	strategy, err := palette.ParseStrategy(c.Palette.Mode)
	if err != nil {
		return palette.Options{}, err
	}
	return palette.Options{
		K:              c.Palette.Size,
		Strategy:       strategy,
		MaxIterations:  c.Palette.Iterations,
		Seed:           c.Palette.Seed,
		AlphaThreshold: c.Palette.AlphaThreshold,
		MaxSamples:     c.Palette.MaxSamples,
		Delta:          c.Palette.Delta,
	}, nil
}

// TERSettings converts the terrain section to TER header settings.
func (c *Config) TERSettings() formats.TERSettings {
	return formats.TERSettings{
		TerrainSize: c.Terrain.TerrainSize,
		SquareSize:  c.Terrain.SquareSize,
		HeightScale: c.Terrain.HeightScale,
	}
}

// Validate checks that the config can drive an export.
func (c *Config) Validate() error {
	if c.Export.Resolution <= 0 || c.Export.Resolution > formats.TERMaxSize {
		return fmt.Errorf("%w: export.resolution %d out of range [1, %d]", ErrInvalidConfig, c.Export.Resolution, formats.TERMaxSize)
	}
	if c.Export.Parallelism <= 0 {
		return fmt.Errorf("%w: export.parallelism must be positive", ErrInvalidConfig)
	}
	if c.Export.OutputDir == "" {
		return fmt.Errorf("%w: export.output_dir is empty", ErrInvalidConfig)
	}
	if err := formats.ValidateMapName(c.Export.MapName); err != nil {
		return fmt.Errorf("%w: export.map_name: %w", ErrInvalidConfig, err)
	}
	if c.Heightmap.Scale <= 0 {
		return fmt.Errorf("%w: heightmap.scale must be positive", ErrInvalidConfig)
	}
	if _, err := dem.ParseEncoding(c.Heightmap.Encoding); err != nil {
		return fmt.Errorf("%w: heightmap.encoding: %w", ErrInvalidConfig, err)
	}
	opts, err := c.PaletteOptions()
	if err != nil {
		return fmt.Errorf("%w: palette.mode: %w", ErrInvalidConfig, err)
	}
	if err := opts.Validate(); err != nil {
		return fmt.Errorf("%w: palette: %w", ErrInvalidConfig, err)
	}
	if _, err := imagery.ParseFilter(c.Imagery.Filter); err != nil {
		return fmt.Errorf("%w: imagery.filter: %w", ErrInvalidConfig, err)
	}
	if c.Terrain.SquareSize <= 0 || c.Terrain.TerrainSize <= 0 || c.Terrain.HeightScale <= 0 {
		return fmt.Errorf("%w: terrain scales must be positive", ErrInvalidConfig)
	}
	return nil
}
