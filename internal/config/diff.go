package config

import (
	"fmt"

	"github.com/san-kum/blobsim/internal/world"
)

// Change is one physics constant that differs between two revisions.
type Change struct {
	Field string
	Old   any
	New   any
}

func (c Change) String() string {
	return fmt.Sprintf("%s => %v", c.Field, c.New)
}

// Diff lists the constants that changed from prev to next, in file order.
func Diff(prev, next world.Config) []Change {
	var changes []Change
	add := func(field string, a, b any) {
		if a != b {
			changes = append(changes, Change{Field: field, Old: a, New: b})
		}
	}

	add("blob_size", prev.BlobSize, next.BlobSize)
	add("repel_force", prev.RepelForce, next.RepelForce)
	add("repel_distance", prev.RepelDistance, next.RepelDistance)
	add("friction_force", prev.FrictionForce, next.FrictionForce)
	add("friction_model", prev.Friction, next.Friction)
	add("max_acceleration", prev.MaxAcceleration, next.MaxAcceleration)
	add("min_acceleration", prev.MinAcceleration, next.MinAcceleration)
	add("skip_coincident", prev.SkipCoincident, next.SkipCoincident)
	return changes
}
