package metrics

import (
	"github.com/san-kum/blobsim/internal/world"
)

// KineticEnergy averages, over observed ticks, the total kinetic energy
// of the population. Blobs have unit mass.
type KineticEnergy struct {
	name        string
	samples     int
	totalEnergy float64
	last        float64
}

func NewKineticEnergy() *KineticEnergy {
	return &KineticEnergy{name: "kinetic_energy"}
}

func (e *KineticEnergy) Name() string { return e.name }

func (e *KineticEnergy) Observe(w *world.World, t float64) {
	e.last = TotalKineticEnergy(w)
	e.totalEnergy += e.last
	e.samples++
}

func (e *KineticEnergy) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.totalEnergy / float64(e.samples)
}

// Last is the energy at the most recent observation.
func (e *KineticEnergy) Last() float64 { return e.last }

func (e *KineticEnergy) Reset() {
	e.totalEnergy = 0
	e.samples = 0
	e.last = 0
}

// TotalKineticEnergy is Σ ½|v|² over every blob in w.
func TotalKineticEnergy(w *world.World) float64 {
	total := 0.0
	for _, b := range w.Blobs() {
		speed := b.Velocity.Magnitude()
		total += 0.5 * speed * speed
	}
	return total
}
