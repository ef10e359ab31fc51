package rigno

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/rigno/internal/graph"
	"github.com/aretw0/rigno/internal/stage"
)

// MeshConfig controls the region-node reduction.
type MeshConfig struct {
	// RegionCount fixes the number of region nodes. Takes precedence over
	// RegionFactor when both are set.
	RegionCount int `yaml:"region_count"`
	// RegionFactor is the ratio of physical nodes per region node.
	RegionFactor float64 `yaml:"region_factor"`
}

// ModelConfig fixes the operator's channel layout and initialization.
type ModelConfig struct {
	// Dim is the spatial dimension of the point clouds the operator runs
	// on; it fixes the width of the relative-position edge features.
	Dim int `yaml:"dim"`
	// Channels is the number of field channels the operator steps.
	Channels int `yaml:"channels"`
	// ParamDim is the number of known per-point parameters fed to the
	// encoder alongside the field.
	ParamDim int `yaml:"param_dim"`
	// Seed drives deterministic weight initialization.
	Seed int64 `yaml:"seed"`
	// Checkpoint optionally points at a params JSON file to load instead
	// of seeding fresh weights.
	Checkpoint string `yaml:"checkpoint"`
}

// RolloutConfig sets rollout defaults.
type RolloutConfig struct {
	// Tau is the default fixed lead time per step.
	Tau float64 `yaml:"tau"`
	// Steps is the default step count.
	Steps int `yaml:"steps"`
	// Concurrency caps parallel ensemble members; zero means GOMAXPROCS.
	Concurrency int `yaml:"concurrency"`
}

// StoreConfig selects the trajectory store backend.
type StoreConfig struct {
	// Backend is "memory" or "redis".
	Backend  string        `yaml:"backend"`
	Address  string        `yaml:"address"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	Prefix   string        `yaml:"prefix"`
	TTL      time.Duration `yaml:"ttl"`
}

// ServerConfig sets the HTTP listener.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// DatasetConfig points the file dataset loader at its directory.
type DatasetConfig struct {
	Dir string `yaml:"dir"`
	// TimeStride keeps every k-th snapshot when loading trajectories.
	TimeStride int `yaml:"time_stride"`
	// TrajectoryLimit caps trajectories loaded per dataset.
	TrajectoryLimit int `yaml:"trajectory_limit"`
}

// Config is the complete configuration of one run. It is loaded once,
// validated once, and passed around by value; nothing mutates it afterward.
type Config struct {
	LogLevel string        `yaml:"log_level"`
	Mesh     MeshConfig    `yaml:"mesh"`
	Graph    graph.Config  `yaml:"graph"`
	Stage    stage.Config  `yaml:"stage"`
	Model    ModelConfig   `yaml:"model"`
	Rollout  RolloutConfig `yaml:"rollout"`
	Store    StoreConfig   `yaml:"store"`
	Server   ServerConfig  `yaml:"server"`
	Dataset  DatasetConfig `yaml:"dataset"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		LogLevel: "info",
		Mesh: MeshConfig{
			RegionFactor: 4,
		},
		Graph: graph.Config{
			EncoderRadius:   0.35,
			ProcessorRadius: 0.5,
			Levels:          2,
		},
		Stage: stage.Config{
			LatentSize:  16,
			HiddenSize:  32,
			Aggregation: stage.AggMean,
			Repetitions: 2,
			OutputMode:  stage.OutputDirect,
			LayerNorm:   true,
		},
		Model: ModelConfig{
			Dim:      2,
			Channels: 1,
			Seed:     1,
		},
		Rollout: RolloutConfig{
			Tau:   0.1,
			Steps: 10,
		},
		Store: StoreConfig{
			Backend: "memory",
		},
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     10 * time.Second,
			ShutdownTimeout: 5 * time.Second,
		},
		Dataset: DatasetConfig{
			Dir: "datasets",
		},
	}
}

// LoadConfig overlays a YAML file onto the defaults. An empty path returns
// the defaults unchanged.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, cfg.Validate()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config %q: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config %q: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the whole configuration.
func (c Config) Validate() error {
	if err := c.Graph.Validate(); err != nil {
		return fmt.Errorf("graph: %w", err)
	}
	if err := c.Stage.Validate(); err != nil {
		return fmt.Errorf("stage: %w", err)
	}
	if c.Mesh.RegionCount <= 0 && c.Mesh.RegionFactor <= 0 {
		return fmt.Errorf("mesh: set region_count or region_factor")
	}
	if c.Model.Dim <= 0 {
		return fmt.Errorf("model: dim must be positive")
	}
	if c.Model.Channels <= 0 {
		return fmt.Errorf("model: channels must be positive")
	}
	if c.Model.ParamDim < 0 {
		return fmt.Errorf("model: param_dim must not be negative")
	}
	if c.Rollout.Tau <= 0 {
		return fmt.Errorf("rollout: tau must be positive")
	}
	if c.Rollout.Steps <= 0 {
		return fmt.Errorf("rollout: steps must be positive")
	}
	switch c.Store.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("store: unknown backend %q (want memory or redis)", c.Store.Backend)
	}
	if c.Store.Backend == "redis" && c.Store.Address == "" {
		return fmt.Errorf("store: redis backend needs an address")
	}
	return nil
}
