// Package file provides a filesystem-backed dataset loader. Each dataset is
// one JSON file named <name>.json under the loader's root directory.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/rigno/pkg/domain"
)

// Loader implements ports.DatasetLoader over a directory of JSON files.
type Loader struct {
	root       string
	timeStride int
	maxTrajs   int
}

type Option func(*Loader)

// WithTimeStride keeps only every k-th snapshot of each trajectory
// (snapshot 0 always survives). Stride 1 keeps everything.
func WithTimeStride(k int) Option {
	return func(l *Loader) {
		if k > 1 {
			l.timeStride = k
		}
	}
}

// WithTrajectoryLimit caps the number of trajectories loaded per dataset.
func WithTrajectoryLimit(n int) Option {
	return func(l *Loader) {
		if n > 0 {
			l.maxTrajs = n
		}
	}
}

// NewLoader creates a loader rooted at dir.
func NewLoader(dir string, opts ...Option) *Loader {
	l := &Loader{root: dir, timeStride: 1}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load reads, validates, and downsamples the named dataset.
func (l *Loader) Load(ctx context.Context, name string) (*domain.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := filepath.Join(l.root, name+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("dataset %q: %w", name, domain.ErrDatasetNotFound)
		}
		return nil, fmt.Errorf("failed to read dataset %q: %w", name, err)
	}

	var ds domain.Dataset
	if err := json.Unmarshal(data, &ds); err != nil {
		return nil, fmt.Errorf("failed to parse dataset %q: %w", name, err)
	}
	if ds.Name == "" {
		ds.Name = name
	}
	if err := ds.Validate(); err != nil {
		return nil, fmt.Errorf("dataset %q: %w", name, err)
	}

	if l.maxTrajs > 0 && len(ds.Trajectories) > l.maxTrajs {
		ds.Trajectories = ds.Trajectories[:l.maxTrajs]
	}
	if l.timeStride > 1 {
		for _, traj := range ds.Trajectories {
			downsample(traj, l.timeStride)
		}
	}
	return &ds, nil
}

// List returns the dataset names available under the root directory.
func (l *Loader) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(l.root)
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ".json"))
	}
	sort.Strings(names)
	return names, nil
}

func downsample(traj *domain.Trajectory, stride int) {
	var snaps []domain.Field
	var times []float64
	for i := 0; i < len(traj.Snapshots); i += stride {
		snaps = append(snaps, traj.Snapshots[i])
		times = append(times, traj.Times[i])
	}
	traj.Snapshots = snaps
	traj.Times = times
}
