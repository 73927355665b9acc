package world

import (
	"fmt"
	"math"
)

// FrictionModel selects how acceleration is damped each tick.
type FrictionModel string

const (
	// FrictionDrag subtracts velocity*friction*dt from the acceleration
	// while the drag is no larger than the acceleration, and zeroes the
	// acceleration once it falls under MinAcceleration.
	FrictionDrag FrictionModel = "drag"
	// FrictionDivisive divides the acceleration by friction*dt.
	FrictionDivisive FrictionModel = "divisive"
)

// Config holds the physical constants read by Update. The zero
// FrictionModel behaves as FrictionDrag.
type Config struct {
	BlobSize        float64
	RepelForce      float64
	RepelDistance   float64
	FrictionForce   float64
	Friction        FrictionModel
	MaxAcceleration float64 // 0 disables the cap
	MinAcceleration float64 // drag model only

	// SkipCoincident drops repulsion between blobs at exactly the same
	// position instead of normalizing a zero vector into NaN.
	SkipCoincident bool
}

const (
	DefaultBlobSize        = 4.0
	DefaultRepelForce      = 40.0
	DefaultRepelDistance   = 30.0
	DefaultFrictionForce   = 2.0
	DefaultMaxAcceleration = 200.0
	DefaultMinAcceleration = 0.5
)

func DefaultConfig() Config {
	return Config{
		BlobSize:        DefaultBlobSize,
		RepelForce:      DefaultRepelForce,
		RepelDistance:   DefaultRepelDistance,
		FrictionForce:   DefaultFrictionForce,
		Friction:        FrictionDrag,
		MaxAcceleration: DefaultMaxAcceleration,
		MinAcceleration: DefaultMinAcceleration,
		SkipCoincident:  true,
	}
}

func (c Config) model() FrictionModel {
	if c.Friction == "" {
		return FrictionDrag
	}
	return c.Friction
}

// Validate rejects constants that are negative or non-finite, unknown
// friction models, and a zero friction force under FrictionDivisive.
func (c Config) Validate() error {
	fields := []struct {
		name  string
		value float64
	}{
		{"blob_size", c.BlobSize},
		{"repel_force", c.RepelForce},
		{"repel_distance", c.RepelDistance},
		{"friction_force", c.FrictionForce},
		{"max_acceleration", c.MaxAcceleration},
		{"min_acceleration", c.MinAcceleration},
	}
	for _, f := range fields {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) || f.value < 0 {
			return fmt.Errorf("%w: %s = %v", ErrInvalidConfig, f.name, f.value)
		}
	}

	switch c.model() {
	case FrictionDrag:
	case FrictionDivisive:
		if c.FrictionForce == 0 {
			return fmt.Errorf("%w: friction_force must be positive for %s friction", ErrInvalidConfig, FrictionDivisive)
		}
	default:
		return fmt.Errorf("%w: unknown friction model %q", ErrInvalidConfig, c.Friction)
	}
	return nil
}
