// Package rollout drives autoregressive time-stepping of an operator over
// a fixed spatial discretization. The controller owns the Idle → Stepping →
// {Done, Failed} lifecycle and the divergence guard; the operator itself is
// injected as a Stepper so the controller stays independent of the model.
package rollout

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/rigno/internal/logging"
	"github.com/aretw0/rigno/pkg/domain"
)

// Stepper advances a field by a lead time tau. Implementations must be safe
// for concurrent use and must not mutate the input field; the controller
// relies on both to run ensemble members against shared graphs.
type Stepper interface {
	Step(ctx context.Context, u domain.Field, tau float64) (domain.Field, error)
}

// StepFunc adapts a plain function to the Stepper interface.
type StepFunc func(ctx context.Context, u domain.Field, tau float64) (domain.Field, error)

func (f StepFunc) Step(ctx context.Context, u domain.Field, tau float64) (domain.Field, error) {
	return f(ctx, u, tau)
}

// Controller runs rollouts against a Stepper.
type Controller struct {
	stepper Stepper
	logger  *slog.Logger
	limit   int
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger used for per-step debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithConcurrency caps the number of ensemble members stepped in parallel.
func WithConcurrency(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.limit = n
		}
	}
}

// New creates a Controller around the given Stepper.
func New(stepper Stepper, opts ...Option) (*Controller, error) {
	if stepper == nil {
		return nil, fmt.Errorf("rollout: stepper must not be nil")
	}
	c := &Controller{
		stepper: stepper,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Rollout advances the initial condition through every step of the schedule.
// Snapshot 0 of the returned trajectory is a deep copy of the initial field;
// each completed step appends one snapshot. On divergence, a stepper error,
// or context cancellation the trajectory is returned alongside the error with
// status Failed, holding every snapshot produced before the failure.
func (c *Controller) Rollout(ctx context.Context, id string, initial domain.Field, schedule TauSchedule) (*domain.Trajectory, error) {
	if err := schedule.Validate(); err != nil {
		return nil, err
	}
	if initial.Len() == 0 || initial.Channels <= 0 {
		return nil, fmt.Errorf("rollout %s: empty initial condition", id)
	}

	traj := domain.NewTrajectory(id, initial)
	if !initial.Finite() {
		traj.Status = domain.StatusFailed
		return traj, &domain.DivergenceError{Step: 0}
	}

	traj.Status = domain.StatusStepping
	u := initial
	for i := 0; i < schedule.Len(); i++ {
		if err := ctx.Err(); err != nil {
			traj.Status = domain.StatusFailed
			return traj, err
		}

		tau := schedule.At(i)
		next, err := c.stepper.Step(ctx, u, tau)
		if err != nil {
			traj.Status = domain.StatusFailed
			c.logger.Error("rollout step failed", "id", id, "step", i+1, "err", err)
			return traj, fmt.Errorf("rollout %s step %d: %w", id, i+1, err)
		}
		if next.Len() != u.Len() || next.Channels != u.Channels {
			traj.Status = domain.StatusFailed
			return traj, fmt.Errorf("rollout %s step %d: stepper changed field shape from %dx%d to %dx%d",
				id, i+1, u.Len(), u.Channels, next.Len(), next.Channels)
		}
		if !next.Finite() {
			traj.Status = domain.StatusFailed
			c.logger.Warn("rollout diverged", "id", id, "step", i+1)
			return traj, &domain.DivergenceError{Step: i + 1}
		}

		traj.Append(next, tau)
		u = traj.Last()
		c.logger.Debug("rollout step", "id", id, "step", i+1, "tau", tau)
	}

	traj.Status = domain.StatusDone
	return traj, nil
}
