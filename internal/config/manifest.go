package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/Faultbox/terragen/pkg/formats"
)

// ErrInvalidManifest is returned when a batch manifest cannot drive a run.
var ErrInvalidManifest = errors.New("invalid manifest")

// Manifest lists the maps exported by one batch run.
type Manifest struct {
	Jobs []ManifestJob `yaml:"jobs"`
}

// ManifestJob describes one map. Zero-valued overrides fall back to the config.
type ManifestJob struct {
	Name       string  `yaml:"name"`
	DEM        string  `yaml:"dem"`
	Imagery    string  `yaml:"imagery"`
	Resolution int     `yaml:"resolution,omitempty"`
	Scale      float32 `yaml:"scale,omitempty"`
}

// LoadManifest reads a batch manifest. Relative input paths are resolved
// against the manifest's directory.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", path, err)
	}

	base := filepath.Dir(path)
	for i := range m.Jobs {
		m.Jobs[i].DEM = resolve(base, m.Jobs[i].DEM)
		m.Jobs[i].Imagery = resolve(base, m.Jobs[i].Imagery)
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks job names and inputs.
func (m *Manifest) Validate() error {
	if len(m.Jobs) == 0 {
		return fmt.Errorf("%w: no jobs", ErrInvalidManifest)
	}

	seen := make(map[string]bool, len(m.Jobs))
	for i, job := range m.Jobs {
		if err := formats.ValidateMapName(job.Name); err != nil {
			return fmt.Errorf("%w: job %d: %w", ErrInvalidManifest, i, err)
		}
		if seen[job.Name] {
			return fmt.Errorf("%w: duplicate job name %q", ErrInvalidManifest, job.Name)
		}
		seen[job.Name] = true

		if job.DEM == "" || job.Imagery == "" {
			return fmt.Errorf("%w: job %q needs dem and imagery", ErrInvalidManifest, job.Name)
		}
		if job.Resolution < 0 || job.Resolution > formats.TERMaxSize {
			return fmt.Errorf("%w: job %q resolution %d", ErrInvalidManifest, job.Name, job.Resolution)
		}
		if job.Scale < 0 {
			return fmt.Errorf("%w: job %q scale %g", ErrInvalidManifest, job.Name, job.Scale)
		}
	}
	return nil
}

func resolve(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}
