package rollout

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/aretw0/rigno/pkg/domain"
)

// Member is one initial condition of an ensemble rollout.
type Member struct {
	ID      string
	Initial domain.Field
}

// Result pairs a member's trajectory with its outcome. A diverged member
// carries both a partial trajectory and a DivergenceError.
type Result struct {
	Trajectory *domain.Trajectory
	Err        error
}

// Ensemble rolls out every member concurrently against the shared stepper.
// Members fail independently: a divergence in one does not cancel the
// others, only an external context cancellation does. Results keep the
// input order.
func (c *Controller) Ensemble(ctx context.Context, members []Member, schedule TauSchedule) ([]Result, error) {
	if err := schedule.Validate(); err != nil {
		return nil, err
	}

	limit := c.limit
	if limit == 0 {
		limit = runtime.GOMAXPROCS(0)
	}

	results := make([]Result, len(members))
	var g errgroup.Group
	g.SetLimit(limit)
	for i, m := range members {
		i, m := i, m
		g.Go(func() error {
			traj, err := c.Rollout(ctx, m.ID, m.Initial, schedule)
			results[i] = Result{Trajectory: traj, Err: err}
			return nil
		})
	}
	// Goroutines never return errors; Wait is for completion only.
	_ = g.Wait()
	return results, nil
}
