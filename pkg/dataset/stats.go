package dataset

import (
	"fmt"

	"gonum.org/v1/gonum/stat"

	"github.com/aretw0/rigno/pkg/domain"
)

// Stats holds per-channel moments of a dataset's trajectories, of the
// s-step residuals u(t+s)-u(t), and of the per-step derivatives
// (u(t+s)-u(t))/s. Residual and derivative stats drive the derivative
// output mode; trajectory stats drive input normalization.
type Stats struct {
	Trajectory VariableStats
	Residual   VariableStats
	Derivative VariableStats
}

// ComputeStats gathers per-channel statistics over every snapshot of the
// given trajectories. residualSteps controls how many step offsets feed
// the residual and derivative moments; zero skips them.
func ComputeStats(trajs []*domain.Trajectory, residualSteps int) (*Stats, error) {
	if len(trajs) == 0 {
		return nil, fmt.Errorf("compute stats: no trajectories")
	}
	if residualSteps < 0 {
		return nil, fmt.Errorf("compute stats: residual steps must be non-negative, got %d", residualSteps)
	}
	channels := trajs[0].Snapshots[0].Channels
	for _, traj := range trajs {
		for i := range traj.Snapshots {
			if traj.Snapshots[i].Channels != channels {
				return nil, fmt.Errorf("compute stats: trajectory %s has mixed channel counts", traj.ID)
			}
		}
		if residualSteps >= len(traj.Snapshots) {
			return nil, fmt.Errorf("compute stats: %d residual steps exceed trajectory %s length %d",
				residualSteps, traj.ID, len(traj.Snapshots))
		}
	}

	perChannel := func(collect func(ch int) []float64) (VariableStats, error) {
		out := VariableStats{Mean: make([]float64, channels), Std: make([]float64, channels)}
		for ch := 0; ch < channels; ch++ {
			samples := collect(ch)
			if len(samples) == 0 {
				return VariableStats{}, fmt.Errorf("compute stats: no samples for channel %d", ch)
			}
			mean, std := stat.MeanStdDev(samples, nil)
			out.Mean[ch] = mean
			out.Std[ch] = std
		}
		return out, nil
	}

	var err error
	st := &Stats{}
	st.Trajectory, err = perChannel(func(ch int) []float64 {
		var samples []float64
		for _, traj := range trajs {
			for i := range traj.Snapshots {
				snap := &traj.Snapshots[i]
				for p := 0; p < snap.Len(); p++ {
					samples = append(samples, snap.At(p)[ch])
				}
			}
		}
		return samples
	})
	if err != nil {
		return nil, err
	}

	if residualSteps == 0 {
		return st, nil
	}

	collectDiffs := func(scale func(s int) float64) func(ch int) []float64 {
		return func(ch int) []float64 {
			var samples []float64
			for s := 1; s <= residualSteps; s++ {
				for _, traj := range trajs {
					for i := 0; i+s < len(traj.Snapshots); i++ {
						a := &traj.Snapshots[i]
						b := &traj.Snapshots[i+s]
						for p := 0; p < a.Len(); p++ {
							samples = append(samples, (b.At(p)[ch]-a.At(p)[ch])*scale(s))
						}
					}
				}
			}
			return samples
		}
	}

	st.Residual, err = perChannel(collectDiffs(func(int) float64 { return 1 }))
	if err != nil {
		return nil, err
	}
	st.Derivative, err = perChannel(collectDiffs(func(s int) float64 { return 1 / float64(s) }))
	if err != nil {
		return nil, err
	}
	return st, nil
}
