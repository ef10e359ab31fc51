package rollout

import (
	"errors"
	"fmt"
	"math"
)

// TauSchedule describes the lead times of an autoregressive rollout.
// Exactly one form is used: a fixed tau repeated Steps times, or an
// explicit per-step Sequence. Mixing both forms is rejected.
type TauSchedule struct {
	Fixed    float64   `json:"fixed,omitempty" yaml:"fixed,omitempty"`
	Steps    int       `json:"steps,omitempty" yaml:"steps,omitempty"`
	Sequence []float64 `json:"sequence,omitempty" yaml:"sequence,omitempty"`
}

// FixedTau builds a schedule that repeats tau for the given number of steps.
func FixedTau(tau float64, steps int) TauSchedule {
	return TauSchedule{Fixed: tau, Steps: steps}
}

// Sequence builds a schedule with an explicit lead time per step.
func Sequence(taus ...float64) TauSchedule {
	return TauSchedule{Sequence: taus}
}

// Validate checks that the schedule is well-formed and unambiguous.
func (s TauSchedule) Validate() error {
	if len(s.Sequence) > 0 {
		if s.Fixed != 0 || s.Steps != 0 {
			return errors.New("tau schedule: fixed and sequence forms are mutually exclusive")
		}
		for i, tau := range s.Sequence {
			if !(tau > 0) || math.IsInf(tau, 1) {
				return fmt.Errorf("tau schedule: step %d has non-positive or non-finite tau %v", i, tau)
			}
		}
		return nil
	}
	if s.Steps <= 0 {
		return fmt.Errorf("tau schedule: steps must be positive, got %d", s.Steps)
	}
	if !(s.Fixed > 0) || math.IsInf(s.Fixed, 1) {
		return fmt.Errorf("tau schedule: fixed tau must be positive and finite, got %v", s.Fixed)
	}
	return nil
}

// Len returns the number of steps the schedule describes.
func (s TauSchedule) Len() int {
	if len(s.Sequence) > 0 {
		return len(s.Sequence)
	}
	return s.Steps
}

// At returns the lead time of step i.
func (s TauSchedule) At(i int) float64 {
	if len(s.Sequence) > 0 {
		return s.Sequence[i]
	}
	return s.Fixed
}
