package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carozos/lotalloc/internal/errors"
)

func TestDefaults(t *testing.T) {
	c := Default()
	assert.Equal(t, 5, c.Clusters.K)
	assert.Equal(t, []float64{0.9, 0.7, 0.5, 0.3, 0.1}, c.Clusters.QMin)
	assert.Equal(t, 4, c.Engine.Workers)
	assert.Len(t, c.Data.Species, 7)
	require.NoError(t, c.Validate())

	s, ok := c.Data.Lookup("Nectarin Amarillo")
	require.True(t, ok)
	assert.Equal(t, "Data/Lotes_NectarinAm.csv", s.Lots)
	_, ok = c.Data.Lookup("Kiwi")
	assert.False(t, ok)
}

func TestLoadFromFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lotalloc.toml")
	content := `
[data]
base_dir = "/srv/fruta"

[[data.species]]
name = "Nectarin Amarillo"
lots = "nect.csv"
tolerances = "tol.csv"

[clusters]
k = 3
qmin = [0.8, 0.5, 0.2]

[engine]
workers = 2
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, c.Clusters.K)
	assert.Equal(t, []float64{0.8, 0.5, 0.2}, c.Clusters.QMin)
	assert.Equal(t, []float64{0.1, 0.3, 0.5, 0.7, 0.9}, c.Clusters.QMax)
	assert.Equal(t, 2, c.Engine.Workers)
	require.Len(t, c.Data.Species, 1)
	assert.Equal(t, "/srv/fruta/nect.csv", c.Data.Resolve(c.Data.Species[0].Lots))
	assert.Equal(t, "/abs/x.csv", c.Data.Resolve("/abs/x.csv"))
}

func TestEnvironmentOverride(t *testing.T) {
	t.Setenv("LOTALLOC_CLUSTERS_K", "7")
	t.Setenv("LOTALLOC_STORE_PATH", "/tmp/runs.db")

	c, err := LoadFromReader(strings.NewReader("[engine]\nworkers = 1\n"))
	require.NoError(t, err)
	assert.Equal(t, 7, c.Clusters.K)
	assert.Equal(t, "/tmp/runs.db", c.Store.Path)
	assert.Equal(t, 1, c.Engine.Workers)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero clusters", func(c *Config) { c.Clusters.K = 0 }},
		{"quantile above one", func(c *Config) { c.Clusters.QMax = []float64{0.1, 1.5} }},
		{"negative workers", func(c *Config) { c.Engine.Workers = -1 }},
		{"duplicate species", func(c *Config) { c.Data.Species = append(c.Data.Species, c.Data.Species[0]) }},
		{"species without tolerances", func(c *Config) { c.Data.Species[0].Tolerances = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(c)
			err := c.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrInvalidConfig))
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.Error(t, err)
}

func TestTOMLRendersEffectiveConfig(t *testing.T) {
	out, err := Default().TOML()
	require.NoError(t, err)
	assert.Contains(t, out, "[clusters]")
	assert.Contains(t, out, "k = 5")
	assert.Contains(t, out, "[[data.species]]")
	assert.Contains(t, out, `name = "Ciruela Negra"`)
}
