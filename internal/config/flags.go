package config

import (
	"flag"
	"strconv"
)

// Flags holds command-line overrides. Zero values leave the config untouched.
type Flags struct {
	Config      string
	Debug       bool
	Output      string
	Name        string
	Resolution  int
	Scale       float64
	Colors      int
	Mode        string
	Seed        *int64
	Parallelism int
	Filter      string
}

// Register binds the flags to fs.
func (f *Flags) Register(fs *flag.FlagSet) {
	fs.StringVar(&f.Config, "config", "", "Path to config file")
	fs.BoolVar(&f.Debug, "debug", false, "Enable debug logging")
	fs.StringVar(&f.Output, "out", "", "Levels output directory")
	fs.StringVar(&f.Name, "name", "", "Map name")
	fs.IntVar(&f.Resolution, "resolution", 0, "Terrain grid size (e.g. 512, 1024, 2048)")
	fs.Float64Var(&f.Scale, "scale", 0, "Terrain cells per DEM sample")
	fs.IntVar(&f.Colors, "colors", 0, "Palette size")
	fs.StringVar(&f.Mode, "mode", "", "Palette mode: frequency, kmeans, dominant, adaptive")
	fs.Func("seed", "Random seed for k-means palettes", func(s string) error {
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return err
		}
		f.Seed = &v
		return nil
	})
	fs.IntVar(&f.Parallelism, "j", 0, "Concurrent batch jobs")
	fs.StringVar(&f.Filter, "filter", "", "Imagery resample filter")
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config, f *Flags) {
	if f == nil {
		return
	}
	if f.Debug {
		cfg.Logging.Level = "debug"
	}
	if f.Output != "" {
		cfg.Export.OutputDir = f.Output
	}
	if f.Name != "" {
		cfg.Export.MapName = f.Name
	}
	if f.Resolution > 0 {
		cfg.Export.Resolution = f.Resolution
	}
	if f.Scale > 0 {
		cfg.Heightmap.Scale = float32(f.Scale)
	}
	if f.Colors > 0 {
		cfg.Palette.Size = f.Colors
	}
	if f.Mode != "" {
		cfg.Palette.Mode = f.Mode
	}
	if f.Seed != nil {
		cfg.Palette.Seed = *f.Seed
	}
	if f.Parallelism > 0 {
		cfg.Export.Parallelism = f.Parallelism
	}
	if f.Filter != "" {
		cfg.Imagery.Filter = f.Filter
	}
}
