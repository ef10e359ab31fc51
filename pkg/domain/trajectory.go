package domain

// RolloutStatus describes the lifecycle of a rollout.
type RolloutStatus string

const (
	StatusIdle     RolloutStatus = "idle"
	StatusStepping RolloutStatus = "stepping"
	StatusDone     RolloutStatus = "done"
	StatusFailed   RolloutStatus = "failed"
)

// Trajectory is an ordered sequence of field snapshots produced by a rollout.
// Snapshot 0 is always the initial condition. Times[i] is the physical time
// of Snapshots[i] (accumulated tau). History is append-only: the controller
// never rewrites earlier snapshots.
type Trajectory struct {
	ID        string        `json:"id"`
	Status    RolloutStatus `json:"status"`
	Snapshots []Field       `json:"snapshots"`
	Times     []float64     `json:"times"`
}

// NewTrajectory starts a trajectory at the given initial condition.
// The initial field is deep-copied so later mutation by the caller cannot
// corrupt history.
func NewTrajectory(id string, initial Field) *Trajectory {
	return &Trajectory{
		ID:        id,
		Status:    StatusIdle,
		Snapshots: []Field{initial.Clone()},
		Times:     []float64{0},
	}
}

// Append records the next snapshot, advanced by tau from the previous one.
func (t *Trajectory) Append(f Field, tau float64) {
	t.Snapshots = append(t.Snapshots, f.Clone())
	t.Times = append(t.Times, t.Times[len(t.Times)-1]+tau)
}

// Steps returns the number of steps taken (snapshots minus the initial one).
func (t *Trajectory) Steps() int { return len(t.Snapshots) - 1 }

// Last returns the most recent snapshot.
func (t *Trajectory) Last() Field { return t.Snapshots[len(t.Snapshots)-1] }
