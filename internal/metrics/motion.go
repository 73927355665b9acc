package metrics

import (
	"github.com/san-kum/blobsim/internal/vmath"
	"github.com/san-kum/blobsim/internal/world"
)

// MeanSpeed averages blob speed over every blob and every observed tick.
type MeanSpeed struct {
	name    string
	samples int
	total   float64
}

func NewMeanSpeed() *MeanSpeed {
	return &MeanSpeed{name: "mean_speed"}
}

func (m *MeanSpeed) Name() string { return m.name }

func (m *MeanSpeed) Observe(w *world.World, t float64) {
	for _, b := range w.Blobs() {
		m.total += b.Velocity.Magnitude()
		m.samples++
	}
}

func (m *MeanSpeed) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return m.total / float64(m.samples)
}

func (m *MeanSpeed) Reset() {
	m.total = 0
	m.samples = 0
}

// Spread is the mean distance of blobs from their centroid at the last
// observation. Repulsion should drive it up from a clustered start.
type Spread struct {
	name  string
	value float64
}

func NewSpread() *Spread {
	return &Spread{name: "spread"}
}

func (s *Spread) Name() string { return s.name }

func (s *Spread) Observe(w *world.World, t float64) {
	s.value = MeanDistanceFromCentroid(w.Blobs())
}

func (s *Spread) Value() float64 { return s.value }
func (s *Spread) Reset()         { s.value = 0 }

func Centroid(blobs []world.Blob) vmath.Vector2f {
	if len(blobs) == 0 {
		return vmath.Zero
	}
	var sum vmath.Vector2f
	for _, b := range blobs {
		sum = sum.Add(b.Position)
	}
	return sum.Div(float64(len(blobs)))
}

func MeanDistanceFromCentroid(blobs []world.Blob) float64 {
	if len(blobs) == 0 {
		return 0
	}
	c := Centroid(blobs)
	total := 0.0
	for _, b := range blobs {
		total += b.Position.Distance(c)
	}
	return total / float64(len(blobs))
}
