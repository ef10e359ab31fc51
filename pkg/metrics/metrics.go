// Package metrics implements accuracy measures between predicted and
// reference trajectories: mean squared error and relative L1/L2 errors
// per channel.
package metrics

import (
	"fmt"
	"math"

	"github.com/aretw0/rigno/pkg/domain"
)

func checkPair(pred, ref *domain.Trajectory) error {
	if pred == nil || ref == nil {
		return fmt.Errorf("metrics: nil trajectory")
	}
	if len(pred.Snapshots) != len(ref.Snapshots) {
		return fmt.Errorf("metrics: trajectory lengths differ (%d vs %d)",
			len(pred.Snapshots), len(ref.Snapshots))
	}
	if len(pred.Snapshots) == 0 {
		return fmt.Errorf("metrics: empty trajectories")
	}
	for i := range pred.Snapshots {
		p, r := &pred.Snapshots[i], &ref.Snapshots[i]
		if p.Channels != r.Channels || p.Len() != r.Len() {
			return fmt.Errorf("metrics: snapshot %d shapes differ (%dx%d vs %dx%d)",
				i, p.Len(), p.Channels, r.Len(), r.Channels)
		}
	}
	return nil
}

// MSE returns the mean squared error over every snapshot, point, and
// channel of the pair.
func MSE(pred, ref *domain.Trajectory) (float64, error) {
	if err := checkPair(pred, ref); err != nil {
		return 0, err
	}
	var sum float64
	var count int
	for i := range pred.Snapshots {
		pv, rv := pred.Snapshots[i].Values, ref.Snapshots[i].Values
		for j := range pv {
			d := pv[j] - rv[j]
			sum += d * d
		}
		count += len(pv)
	}
	return sum / float64(count), nil
}

// RelL2 returns the relative L2 error per channel:
// sqrt(sum (pred-ref)^2 / sum ref^2) over all snapshots and points.
func RelL2(pred, ref *domain.Trajectory) ([]float64, error) {
	if err := checkPair(pred, ref); err != nil {
		return nil, err
	}
	channels := ref.Snapshots[0].Channels
	errSq := make([]float64, channels)
	refSq := make([]float64, channels)
	for i := range pred.Snapshots {
		p, r := &pred.Snapshots[i], &ref.Snapshots[i]
		for pt := 0; pt < p.Len(); pt++ {
			pr, rr := p.At(pt), r.At(pt)
			for ch := 0; ch < channels; ch++ {
				d := pr[ch] - rr[ch]
				errSq[ch] += d * d
				refSq[ch] += rr[ch] * rr[ch]
			}
		}
	}
	out := make([]float64, channels)
	for ch := range out {
		if refSq[ch] == 0 {
			return nil, fmt.Errorf("metrics: reference channel %d is identically zero", ch)
		}
		out[ch] = math.Sqrt(errSq[ch] / refSq[ch])
	}
	return out, nil
}

// RelL1 returns the relative L1 error per channel:
// sum |pred-ref| / sum |ref| over all snapshots and points.
func RelL1(pred, ref *domain.Trajectory) ([]float64, error) {
	if err := checkPair(pred, ref); err != nil {
		return nil, err
	}
	channels := ref.Snapshots[0].Channels
	errAbs := make([]float64, channels)
	refAbs := make([]float64, channels)
	for i := range pred.Snapshots {
		p, r := &pred.Snapshots[i], &ref.Snapshots[i]
		for pt := 0; pt < p.Len(); pt++ {
			pr, rr := p.At(pt), r.At(pt)
			for ch := 0; ch < channels; ch++ {
				errAbs[ch] += math.Abs(pr[ch] - rr[ch])
				refAbs[ch] += math.Abs(rr[ch])
			}
		}
	}
	out := make([]float64, channels)
	for ch := range out {
		if refAbs[ch] == 0 {
			return nil, fmt.Errorf("metrics: reference channel %d is identically zero", ch)
		}
		out[ch] = errAbs[ch] / refAbs[ch]
	}
	return out, nil
}
