package rigno

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/aretw0/rigno/internal/graph"
	"github.com/aretw0/rigno/internal/logging"
	"github.com/aretw0/rigno/internal/mesh"
	"github.com/aretw0/rigno/internal/rollout"
	"github.com/aretw0/rigno/internal/stage"
	"github.com/aretw0/rigno/internal/telemetry"
	"github.com/aretw0/rigno/pkg/adapters/memory"
	"github.com/aretw0/rigno/pkg/domain"
	"github.com/aretw0/rigno/pkg/ports"
)

// Operator is the high-level entry point: it owns the mesh registry, the
// graph builder with its cache, and the message-passing model, and wires
// them into single rollout calls.
type Operator struct {
	cfg      Config
	logger   *slog.Logger
	registry *mesh.Registry
	builder  *graph.Builder
	model    *stage.Model
	cache    ports.GraphCache
	metrics  *telemetry.Metrics
}

// Option defines a functional option for configuring the Operator.
type Option func(*Operator)

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Operator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithGraphCache injects a custom graph cache, bypassing the default
// in-memory one.
func WithGraphCache(cache ports.GraphCache) Option {
	return func(o *Operator) {
		o.cache = cache
	}
}

// WithParams injects pre-built operator weights, bypassing seed
// initialization and the checkpoint path in the config.
func WithParams(params *stage.Params) Option {
	return func(o *Operator) {
		o.model = stage.NewModel(params)
	}
}

// WithMetrics attaches Prometheus collectors. Without this option the
// operator runs unmetered.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(o *Operator) {
		o.metrics = m
	}
}

// New builds an Operator from a validated config.
func New(cfg Config, opts ...Option) (*Operator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := &Operator{
		cfg:    cfg,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}

	o.registry = mesh.NewRegistry(mesh.WithLogger(o.logger.With("component", "mesh")))

	builder, err := graph.NewBuilder(cfg.Graph, graph.WithLogger(o.logger.With("component", "graph")))
	if err != nil {
		return nil, err
	}
	o.builder = builder

	if o.model == nil {
		model, err := buildModel(cfg)
		if err != nil {
			return nil, err
		}
		o.model = model
	}

	if o.cache == nil {
		o.cache = memory.NewGraphCache()
	}
	return o, nil
}

func buildModel(cfg Config) (*stage.Model, error) {
	if cfg.Model.Checkpoint != "" {
		f, err := os.Open(cfg.Model.Checkpoint)
		if err != nil {
			return nil, fmt.Errorf("failed to open checkpoint: %w", err)
		}
		defer f.Close()
		params, err := stage.LoadParams(f)
		if err != nil {
			return nil, fmt.Errorf("failed to load checkpoint: %w", err)
		}
		return stage.NewModel(params), nil
	}

	in := stage.InChannels(cfg.Model.Channels, cfg.Model.ParamDim)
	params, err := stage.NewParams(cfg.Stage, in, cfg.Model.Channels, graph.RelDim(cfg.Model.Dim), cfg.Model.Seed)
	if err != nil {
		return nil, err
	}
	return stage.NewModel(params), nil
}

// Meshes exposes the named point cloud registry.
func (o *Operator) Meshes() *mesh.Registry { return o.registry }

// Model exposes the underlying operator weights, e.g. for checkpointing.
func (o *Operator) Model() *stage.Model { return o.model }

// Config returns the operator's configuration.
func (o *Operator) Config() Config { return o.cfg }

// SaveCheckpoint writes the operator weights as JSON.
func (o *Operator) SaveCheckpoint(w io.Writer) error {
	return o.model.Params().Save(w)
}

// Graphs returns the stage graphs for a cloud, building and caching them
// on first use. Graphs are keyed by geometry and builder config; a cached
// set is never mutated.
func (o *Operator) Graphs(ctx context.Context, cloud *domain.PointCloud) (*domain.GraphSet, error) {
	regions, err := o.registry.Reduce(cloud, mesh.ReduceSpec{
		TargetCount: o.cfg.Mesh.RegionCount,
		Factor:      o.cfg.Mesh.RegionFactor,
	})
	if err != nil {
		return nil, err
	}

	key := graph.CacheKey(cloud, regions, o.cfg.Graph)
	gs, err := o.cache.Get(ctx, key)
	if err == nil {
		o.countCache("hit")
		return gs, nil
	}
	if !errors.Is(err, domain.ErrGraphNotCached) {
		return nil, err
	}
	o.countCache("miss")

	start := time.Now()
	gs, err = o.builder.Build(cloud, regions)
	if err != nil {
		return nil, err
	}
	o.logger.Debug("built graph set",
		"key", key,
		"edges", gs.NumEdges(),
		"took", time.Since(start),
	)
	if o.metrics != nil {
		o.metrics.GraphBuilds.Inc()
		o.metrics.GraphEdges.WithLabelValues("encoder").Set(float64(gs.Encoder.NumEdges()))
		o.metrics.GraphEdges.WithLabelValues("decoder").Set(float64(gs.Decoder.NumEdges()))
	}

	if err := o.cache.Put(ctx, key, gs); err != nil {
		return nil, err
	}
	return gs, nil
}

func (o *Operator) countCache(outcome string) {
	if o.metrics != nil {
		o.metrics.CacheHits.WithLabelValues(outcome).Inc()
	}
}

// controller binds the model to one cloud's graphs. Controllers are cheap;
// one is made per rollout call so concurrent rollouts on different clouds
// never share mutable state.
func (o *Operator) controller(gs *domain.GraphSet, cloud *domain.PointCloud) (*rollout.Controller, error) {
	stepper := rollout.StepFunc(func(_ context.Context, u domain.Field, tau float64) (domain.Field, error) {
		return o.model.Apply(gs, stage.Inputs{U: u, Cloud: cloud, Tau: tau})
	})
	return rollout.New(stepper,
		rollout.WithLogger(o.logger.With("component", "rollout")),
		rollout.WithConcurrency(o.cfg.Rollout.Concurrency),
	)
}

// TauSchedule, Member and Result are aliased here so module consumers can
// build schedules and ensembles without reaching into internal packages.
type (
	TauSchedule = rollout.TauSchedule
	Member      = rollout.Member
	Result      = rollout.Result
)

// FixedTau returns a schedule of steps equal lead times tau.
func FixedTau(tau float64, steps int) TauSchedule { return rollout.FixedTau(tau, steps) }

// TauSequence returns a schedule with one explicit lead time per step.
func TauSequence(taus ...float64) TauSchedule { return rollout.Sequence(taus...) }

// Run holds everything a single rollout needs.
type Run struct {
	ID       string
	Cloud    *domain.PointCloud
	Initial  domain.Field
	Schedule TauSchedule
}

// Rollout builds (or fetches) the graphs for the run's cloud and steps the
// initial condition through the schedule. On divergence the partial
// trajectory is returned alongside the DivergenceError.
func (o *Operator) Rollout(ctx context.Context, run Run) (*domain.Trajectory, error) {
	gs, err := o.Graphs(ctx, run.Cloud)
	if err != nil {
		return nil, err
	}
	ctrl, err := o.controller(gs, run.Cloud)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	traj, err := ctrl.Rollout(ctx, run.ID, run.Initial, run.Schedule)
	o.observeRollout(traj, err, start)
	return traj, err
}

// Ensemble rolls out every member on the same cloud concurrently. Members
// fail independently; see rollout.Result.
func (o *Operator) Ensemble(ctx context.Context, cloud *domain.PointCloud, members []Member, schedule TauSchedule) ([]Result, error) {
	gs, err := o.Graphs(ctx, cloud)
	if err != nil {
		return nil, err
	}
	ctrl, err := o.controller(gs, cloud)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	results, err := ctrl.Ensemble(ctx, members, schedule)
	if err != nil {
		return nil, err
	}
	for _, res := range results {
		o.observeRollout(res.Trajectory, res.Err, start)
	}
	return results, nil
}

func (o *Operator) observeRollout(traj *domain.Trajectory, err error, start time.Time) {
	if traj == nil || o.metrics == nil {
		return
	}
	o.metrics.RolloutSteps.WithLabelValues(string(traj.Status)).Add(float64(traj.Steps()))
	o.metrics.RolloutSeconds.Observe(time.Since(start).Seconds())
	var divErr *domain.DivergenceError
	if errors.As(err, &divErr) {
		o.metrics.Divergences.Inc()
	}
}
