package dataset

import "fmt"

// Split partitions trajectory indices: the first nTrain, the nValid after
// them, and the last nTest of the dataset.
type Split struct {
	Train []int
	Valid []int
	Test  []int
}

// NewSplit builds a split over total trajectories.
func NewSplit(total, nTrain, nValid, nTest int) (Split, error) {
	if nTrain < 0 || nValid < 0 || nTest < 0 {
		return Split{}, fmt.Errorf("split sizes must be non-negative")
	}
	if nTrain+nValid+nTest > total {
		return Split{}, fmt.Errorf("split sizes %d+%d+%d exceed %d trajectories",
			nTrain, nValid, nTest, total)
	}
	return Split{
		Train: indexRange(0, nTrain),
		Valid: indexRange(nTrain, nTrain+nValid),
		Test:  indexRange(total-nTest, total),
	}, nil
}

func indexRange(lo, hi int) []int {
	out := make([]int, 0, hi-lo)
	for i := lo; i < hi; i++ {
		out = append(out, i)
	}
	return out
}
