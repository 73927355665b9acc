package metrics

import (
	"github.com/san-kum/blobsim/internal/world"
)

// Containment is the fraction of observed ticks on which every blob sat
// inside the arena. The world's clamp keeps it at 1 unless positions go
// non-finite.
type Containment struct {
	name       string
	violations int
	samples    int
}

func NewContainment() *Containment {
	return &Containment{name: "containment"}
}

func (c *Containment) Name() string {
	return c.name
}

func (c *Containment) Observe(w *world.World, t float64) {
	c.samples++
	width, height := float64(w.Width()), float64(w.Height())
	for _, b := range w.Blobs() {
		p := b.Position
		if !(p.X >= 0 && p.X <= width && p.Y >= 0 && p.Y <= height) {
			c.violations++
			break
		}
	}
}

func (c *Containment) Value() float64 {
	if c.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(c.violations)/float64(c.samples)
}

func (c *Containment) Reset() {
	c.violations = 0
	c.samples = 0
}
