// Package export runs the terrain pipeline: elevation and imagery in, a
// BeamNG level directory out.
package export

import (
	"errors"
	"fmt"
	"path/filepath"

	"golang.org/x/image/draw"

	"github.com/Faultbox/terragen/internal/config"
	"github.com/Faultbox/terragen/internal/dem"
	"github.com/Faultbox/terragen/internal/imagery"
	"github.com/Faultbox/terragen/pkg/errs"
	"github.com/Faultbox/terragen/pkg/formats"
	"github.com/Faultbox/terragen/pkg/palette"
)

var (
	ErrInvalidJob         = fmt.Errorf("%w: invalid export job", errs.ErrInvalidArgument)
	ErrImageryMismatch    = fmt.Errorf("%w: imagery does not match terrain size", errs.ErrInvalidArgument)
	ErrDuplicateJob       = fmt.Errorf("%w: duplicate map name in batch", errs.ErrInvalidArgument)
	ErrNoVisibleImagery   = fmt.Errorf("%w: imagery has no opaque pixels", errs.ErrInvalidArgument)
	errMissingElevation   = errors.New("no elevation source")
	errMissingImagerySrc  = errors.New("no imagery source")
	errInvalidParallelism = errors.New("parallelism must be positive")
)

// Job describes one export.
type Job struct {
	// Name is the map name; output goes to OutputDir/Name.
	Name      string
	OutputDir string

	// DEMPath is read unless DEMData is set, in which case the bytes are
	// staged to a temporary file with extension DEMExt.
	DEMPath  string
	DEMData  []byte
	DEMExt   string
	Encoding dem.Encoding

	ImageryPath string

	Resolution int
	Scale      float32

	Palette palette.Options
	// Fit resizes imagery to Resolution×Resolution with Filter. Without
	// it the imagery must already have that size.
	Fit    bool
	Filter draw.Interpolator

	Settings formats.TERSettings
}

// Dir returns the level directory of the job.
func (j Job) Dir() string {
	return filepath.Join(j.OutputDir, j.Name)
}

// Validate checks the job before any input is read.
func (j Job) Validate() error {
	if err := formats.ValidateMapName(j.Name); err != nil {
		return err
	}
	if j.OutputDir == "" {
		return fmt.Errorf("%w: output directory is empty", ErrInvalidJob)
	}
	if j.DEMPath == "" && len(j.DEMData) == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidJob, errMissingElevation)
	}
	if j.ImageryPath == "" {
		return fmt.Errorf("%w: %w", ErrInvalidJob, errMissingImagerySrc)
	}
	if j.Resolution <= 0 || j.Resolution > formats.TERMaxSize {
		return fmt.Errorf("%w: resolution %d", ErrInvalidJob, j.Resolution)
	}
	if j.Scale <= 0 {
		return fmt.Errorf("%w: scale %g", ErrInvalidJob, j.Scale)
	}
	return j.Palette.Validate()
}

// NewJob builds a job from config for one map.
func NewJob(cfg *config.Config, name, demPath, imageryPath string) (Job, error) {
	opts, err := cfg.PaletteOptions()
	if err != nil {
		return Job{}, err
	}
	enc, err := dem.ParseEncoding(cfg.Heightmap.Encoding)
	if err != nil {
		return Job{}, err
	}
	filter, err := imagery.ParseFilter(cfg.Imagery.Filter)
	if err != nil {
		return Job{}, err
	}

	if name == "" {
		name = cfg.Export.MapName
	}

	return Job{
		Name:        name,
		OutputDir:   cfg.Export.OutputDir,
		DEMPath:     demPath,
		Encoding:    enc,
		ImageryPath: imageryPath,
		Resolution:  cfg.Export.Resolution,
		Scale:       cfg.Heightmap.Scale,
		Palette:     opts,
		Fit:         cfg.Imagery.Fit,
		Filter:      filter,
		Settings:    cfg.TERSettings(),
	}, nil
}

// JobsFromManifest builds one job per manifest entry, applying per-job
// overrides on top of cfg.
func JobsFromManifest(cfg *config.Config, m *config.Manifest) ([]Job, error) {
	jobs := make([]Job, 0, len(m.Jobs))
	for _, mj := range m.Jobs {
		job, err := NewJob(cfg, mj.Name, mj.DEM, mj.Imagery)
		if err != nil {
			return nil, fmt.Errorf("job %s: %w", mj.Name, err)
		}
		if mj.Resolution > 0 {
			job.Resolution = mj.Resolution
		}
		if mj.Scale > 0 {
			job.Scale = mj.Scale
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}
