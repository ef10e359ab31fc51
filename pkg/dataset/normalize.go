package dataset

import (
	"fmt"

	"github.com/aretw0/rigno/pkg/domain"
)

// Normalize returns (f - mean) / std per channel. Channels whose std is
// zero or non-positive are only shifted, not scaled.
func Normalize(f domain.Field, vs VariableStats) (domain.Field, error) {
	if err := checkStats(f, vs); err != nil {
		return domain.Field{}, err
	}
	out := f.Clone()
	for p := 0; p < out.Len(); p++ {
		row := out.At(p)
		for ch := range row {
			row[ch] -= vs.Mean[ch]
			if vs.Std[ch] > 0 {
				row[ch] /= vs.Std[ch]
			}
		}
	}
	return out, nil
}

// Denormalize inverts Normalize.
func Denormalize(f domain.Field, vs VariableStats) (domain.Field, error) {
	if err := checkStats(f, vs); err != nil {
		return domain.Field{}, err
	}
	out := f.Clone()
	for p := 0; p < out.Len(); p++ {
		row := out.At(p)
		for ch := range row {
			if vs.Std[ch] > 0 {
				row[ch] *= vs.Std[ch]
			}
			row[ch] += vs.Mean[ch]
		}
	}
	return out, nil
}

func checkStats(f domain.Field, vs VariableStats) error {
	if len(vs.Mean) != f.Channels || len(vs.Std) != f.Channels {
		return fmt.Errorf("stats cover %d/%d channels, field has %d",
			len(vs.Mean), len(vs.Std), f.Channels)
	}
	return nil
}
