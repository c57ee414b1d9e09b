package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeManifest(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "maps.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadManifest(t *testing.T) {
	path := writeManifest(t, `
jobs:
  - name: canyon
    dem: dem/canyon.tif
    imagery: /data/canyon.png
    resolution: 512
  - name: mesa
    dem: mesa.png
    imagery: mesa_sat.jpg
    scale: 30
`)

	m, err := LoadManifest(path)
	require.NoError(t, err)
	require.Len(t, m.Jobs, 2)

	base := filepath.Dir(path)
	assert.Equal(t, filepath.Join(base, "dem", "canyon.tif"), m.Jobs[0].DEM)
	assert.Equal(t, "/data/canyon.png", m.Jobs[0].Imagery)
	assert.Equal(t, 512, m.Jobs[0].Resolution)
	assert.Equal(t, filepath.Join(base, "mesa.png"), m.Jobs[1].DEM)
	assert.Equal(t, float32(30), m.Jobs[1].Scale)
	assert.Zero(t, m.Jobs[1].Resolution)
}

func TestLoadManifestInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"no jobs", "jobs: []\n"},
		{"missing name", "jobs:\n  - dem: a.tif\n    imagery: a.png\n"},
		{"duplicate name", "jobs:\n  - {name: a, dem: a.tif, imagery: a.png}\n  - {name: a, dem: b.tif, imagery: b.png}\n"},
		{"missing imagery", "jobs:\n  - {name: a, dem: a.tif}\n"},
		{"negative resolution", "jobs:\n  - {name: a, dem: a.tif, imagery: a.png, resolution: -4}\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadManifest(writeManifest(t, tt.content))
			assert.ErrorIs(t, err, ErrInvalidManifest)
		})
	}
}

func TestLoadManifestErrors(t *testing.T) {
	_, err := LoadManifest(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = LoadManifest(writeManifest(t, "jobs: [unclosed\n"))
	assert.Error(t, err)
}
