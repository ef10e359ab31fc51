package rigno

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/rigno/internal/stage"
)

func TestDefaultConfigIsValid(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
}

func TestLoadConfigOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
log_level: debug
mesh:
  region_count: 32
graph:
  encoder_radius: 0.25
  levels: 3
stage:
  latent_size: 64
  aggregation: sum
model:
  channels: 2
  seed: 7
store:
  backend: redis
  address: localhost:6379
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 32, cfg.Mesh.RegionCount)
	assert.Equal(t, 0.25, cfg.Graph.EncoderRadius)
	assert.Equal(t, 3, cfg.Graph.Levels)
	assert.Equal(t, 64, cfg.Stage.LatentSize)
	assert.Equal(t, stage.AggSum, cfg.Stage.Aggregation)
	assert.Equal(t, 2, cfg.Model.Channels)
	// Untouched fields keep their defaults.
	assert.Equal(t, 0.5, cfg.Graph.ProcessorRadius)
	assert.Equal(t, ":8080", cfg.Server.Addr)
}

func TestLoadConfigEmptyPath(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestConfigValidation(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero encoder radius", func(c *Config) { c.Graph.EncoderRadius = 0 }},
		{"bad aggregation", func(c *Config) { c.Stage.Aggregation = "max" }},
		{"no region sizing", func(c *Config) { c.Mesh = MeshConfig{} }},
		{"zero channels", func(c *Config) { c.Model.Channels = 0 }},
		{"zero dim", func(c *Config) { c.Model.Dim = 0 }},
		{"zero tau", func(c *Config) { c.Rollout.Tau = 0 }},
		{"unknown backend", func(c *Config) { c.Store.Backend = "postgres" }},
		{"redis without address", func(c *Config) { c.Store.Backend = "redis" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
