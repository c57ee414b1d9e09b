package export

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/terragen/internal/dem"
	"github.com/Faultbox/terragen/internal/imagery"
	"github.com/Faultbox/terragen/internal/logger"
	"github.com/Faultbox/terragen/pkg/errs"
	"github.com/Faultbox/terragen/pkg/formats"
	"github.com/Faultbox/terragen/pkg/heightmap"
	"github.com/Faultbox/terragen/pkg/palette"
)

// Result summarizes a finished export.
type Result struct {
	Name        string
	Dir         string
	TerrainPath string

	Palette   palette.Palette
	Materials []string
	// Coverage is the number of cells assigned to each material.
	Coverage []int

	Elevation heightmap.Stats
	// Flat is set when the resampled heightmap had no relief.
	Flat bool

	Duration time.Duration
}

// Run executes one export. Cancellation is checked between stages.
func Run(ctx context.Context, job Job) (*Result, error) {
	if err := job.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	log := logger.Named("export").With(zap.String("map", job.Name))
	n := job.Resolution

	// Elevation
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	source, err := readElevation(job)
	if err != nil {
		return nil, fmt.Errorf("reading elevation: %w", err)
	}
	log.Debug("elevation read",
		zap.Int("width", source.Width),
		zap.Int("height", source.Height),
		zap.Duration("elapsed", time.Since(start)))

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	resampled, err := heightmap.Resample(source, n, job.Scale)
	if err != nil {
		return nil, fmt.Errorf("resampling heightmap: %w", err)
	}
	elevation := heightmap.Describe(resampled)
	log.Debug("heightmap resampled",
		zap.Int("size", n),
		zap.Float32("scale", job.Scale),
		zap.Float64("min", elevation.Min),
		zap.Float64("max", elevation.Max),
		zap.Float64("mean", elevation.Mean),
		zap.Float64("stddev", elevation.StdDev))

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	heights, err := heightmap.Normalize(resampled)
	if err != nil {
		return nil, fmt.Errorf("normalizing heightmap: %w", err)
	}
	if heights.Flat {
		log.Warn("heightmap is flat; all heights are zero", zap.Float32("value", heights.Min))
	}

	// Imagery
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	img, err := loadImagery(job)
	if err != nil {
		return nil, fmt.Errorf("loading imagery: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	pal, err := palette.ExtractWith(img, job.Palette)
	if err != nil {
		return nil, fmt.Errorf("extracting palette: %w", err)
	}
	if len(pal) == 0 {
		return nil, ErrNoVisibleImagery
	}
	log.Debug("palette extracted",
		zap.Stringer("strategy", job.Palette.Strategy),
		zap.Int("colors", len(pal)),
		zap.Stringer("palette", pal))

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	layers, err := palette.Classify(img, pal)
	if err != nil {
		return nil, fmt.Errorf("classifying imagery: %w", err)
	}
	names := pal.Names()

	// Output
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ter, err := formats.NewTER(n, heights.Values, layers.Indices, names, job.Settings)
	if err != nil {
		return nil, fmt.Errorf("building terrain: %w", err)
	}

	dir := job.Dir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("%w: creating level directory: %w", errs.ErrIO, err)
	}

	terrainPath := filepath.Join(dir, formats.TerrainFileName(job.Name))
	if err := formats.WriteTERFile(terrainPath, ter); err != nil {
		return nil, fmt.Errorf("writing terrain: %w", err)
	}
	if err := WriteMaterials(dir, names, pal); err != nil {
		return nil, fmt.Errorf("writing materials: %w", err)
	}
	if err := writeDescriptors(dir, job, names); err != nil {
		return nil, err
	}

	res := &Result{
		Name:        job.Name,
		Dir:         dir,
		TerrainPath: terrainPath,
		Palette:     pal,
		Materials:   names,
		Coverage:    layers.Counts(len(pal)),
		Elevation:   elevation,
		Flat:        heights.Flat,
		Duration:    time.Since(start),
	}

	log.Info("terrain exported",
		zap.String("dir", dir),
		zap.Int("size", n),
		zap.Int("materials", len(names)),
		zap.Int("bytes", ter.EncodedSize()),
		zap.Duration("elapsed", res.Duration))

	return res, nil
}

func readElevation(job Job) (*heightmap.Grid, error) {
	var (
		ds  *dem.Dataset
		err error
	)
	if len(job.DEMData) > 0 {
		ds, err = dem.OpenBytes(job.DEMData, job.DEMExt, job.Encoding)
	} else {
		ds, err = dem.Open(job.DEMPath, job.Encoding)
	}
	if err != nil {
		return nil, err
	}
	defer ds.Close()

	return ds.ReadGrid()
}

func loadImagery(job Job) (image.Image, error) {
	img, err := imagery.Load(job.ImageryPath)
	if err != nil {
		return nil, err
	}

	n := job.Resolution
	if job.Fit {
		return imagery.Fit(img, n, job.Filter)
	}

	b := img.Bounds()
	if b.Dx() != n || b.Dy() != n {
		return nil, fmt.Errorf("%w: got %dx%d, want %dx%d", ErrImageryMismatch, b.Dx(), b.Dy(), n, n)
	}
	return img, nil
}

func writeDescriptors(dir string, job Job, names []string) error {
	terrain, err := formats.NewTerrainDescriptor(job.Name, job.Resolution, job.Settings.SquareSize, names)
	if err != nil {
		return fmt.Errorf("building terrain descriptor: %w", err)
	}
	if err := formats.WriteJSONFile(filepath.Join(dir, formats.TerrainDescriptorFileName(job.Name)), terrain); err != nil {
		return fmt.Errorf("writing terrain descriptor: %w", err)
	}

	level, err := formats.NewLevelDescriptor(job.Name)
	if err != nil {
		return fmt.Errorf("building level descriptor: %w", err)
	}
	if err := formats.WriteJSONFile(filepath.Join(dir, formats.MainLevelFile), level); err != nil {
		return fmt.Errorf("writing level descriptor: %w", err)
	}
	return nil
}
