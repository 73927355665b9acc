package sim

import (
	"github.com/san-kum/blobsim/internal/vmath"
	"github.com/san-kum/blobsim/internal/world"
)

type Metric interface {
	Name() string
	Observe(w *world.World, t float64)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(w *world.World, t float64)
}

// Reloader supplies a fresh physics configuration. changed is false when
// nothing differs from the previous call.
type Reloader interface {
	Reload() (cfg world.Config, changed bool, err error)
}

type Config struct {
	Dt       float64
	Duration float64
	// SnapshotEvery records a snapshot each n ticks. The initial and final
	// states are always recorded. Zero means every tick.
	SnapshotEvery int
	StopOnInvalid bool
}

type BlobState struct {
	ID       int
	Position vmath.Vector2f
	Velocity vmath.Vector2f
}

type Snapshot []BlobState

// Capture copies the kinematic state of every blob in w.
func Capture(w *world.World) Snapshot {
	blobs := w.Blobs()
	snap := make(Snapshot, len(blobs))
	for i, b := range blobs {
		snap[i] = BlobState{ID: b.ID, Position: b.Position, Velocity: b.Velocity}
	}
	return snap
}

func (s Snapshot) IsValid() bool {
	for _, b := range s {
		if !b.Position.IsFinite() || !b.Velocity.IsFinite() {
			return false
		}
	}
	return true
}

type Result struct {
	Snapshots  []Snapshot
	Times      []float64
	Metrics    map[string]float64
	StepsTaken int
	Errors     []error
}

// Final returns the last recorded snapshot, or nil.
func (r *Result) Final() Snapshot {
	if len(r.Snapshots) == 0 {
		return nil
	}
	return r.Snapshots[len(r.Snapshots)-1]
}
