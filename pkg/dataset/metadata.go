// Package dataset holds bookkeeping around reference datasets: named
// metadata entries, per-channel statistics, normalization, and index
// splits. No training loop lives here; the statistics exist so inputs
// and outputs can be scaled consistently.
package dataset

import (
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// VariableStats carries per-variable first moments used for normalization.
type VariableStats struct {
	Mean []float64 `mapstructure:"mean" yaml:"mean"`
	Std  []float64 `mapstructure:"std" yaml:"std"`
}

// Metadata describes one named dataset: which variables are active, which
// are rollout targets, their normalization stats, and display names.
type Metadata struct {
	Periodic        bool          `mapstructure:"periodic" yaml:"periodic"`
	DataGroup       string        `mapstructure:"data_group" yaml:"data_group"`
	SourceGroup     string        `mapstructure:"source_group" yaml:"source_group"`
	ActiveVariables []int         `mapstructure:"active_variables" yaml:"active_variables"`
	TargetVariables []int         `mapstructure:"target_variables" yaml:"target_variables"`
	Stats           VariableStats `mapstructure:"stats" yaml:"stats"`
	Signed          []bool        `mapstructure:"signed" yaml:"signed"`
	Names           []string      `mapstructure:"names" yaml:"names"`
}

// TargetStats returns mean/std restricted to the target variables.
func (m Metadata) TargetStats() (VariableStats, error) {
	out := VariableStats{
		Mean: make([]float64, 0, len(m.TargetVariables)),
		Std:  make([]float64, 0, len(m.TargetVariables)),
	}
	for _, v := range m.TargetVariables {
		if v < 0 || v >= len(m.Stats.Mean) || v >= len(m.Stats.Std) {
			return VariableStats{}, fmt.Errorf("target variable %d outside stats range", v)
		}
		out.Mean = append(out.Mean, m.Stats.Mean[v])
		out.Std = append(out.Std, m.Stats.Std[v])
	}
	return out, nil
}

// Registry maps dataset names to their metadata. Safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]Metadata
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]Metadata)}
}

// Register adds or replaces an entry.
func (r *Registry) Register(name string, md Metadata) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[name] = md
}

// Lookup returns the metadata for a dataset name.
func (r *Registry) Lookup(name string) (Metadata, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	md, ok := r.entries[name]
	if !ok {
		return Metadata{}, fmt.Errorf("unknown dataset %q", name)
	}
	return md, nil
}

// Names returns the registered dataset names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LoadRegistry parses a YAML document of the form
//
//	<dataset-name>:
//	  periodic: true
//	  data_group: velocity
//	  active_variables: [0, 1]
//	  ...
//
// into a Registry. Decoding goes through mapstructure so partial entries
// and untyped YAML numbers are handled uniformly.
func LoadRegistry(r io.Reader) (*Registry, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read registry: %w", err)
	}

	var raw map[string]map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse registry yaml: %w", err)
	}

	reg := NewRegistry()
	for name, fields := range raw {
		var md Metadata
		dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			Result:           &md,
			WeaklyTypedInput: true,
			ErrorUnused:      true,
		})
		if err != nil {
			return nil, err
		}
		if err := dec.Decode(fields); err != nil {
			return nil, fmt.Errorf("dataset %q: %w", name, err)
		}
		reg.Register(name, md)
	}
	return reg, nil
}
