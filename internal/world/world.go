package world

import (
	"math/rand"
	"time"

	"github.com/san-kum/blobsim/internal/vmath"
)

type World struct {
	width  int
	height int
	cfg    Config
	blobs  []Blob
	forces []vmath.Vector2f
	rng    *rand.Rand
}

// New creates an empty world with a time-seeded random source.
func New(width, height int, cfg Config) *World {
	return NewSeeded(width, height, cfg, time.Now().UnixNano())
}

// NewSeeded creates an empty world whose random placement is
// reproducible for a given seed.
func NewSeeded(width, height int, cfg Config, seed int64) *World {
	return &World{
		width:  width,
		height: height,
		cfg:    cfg,
		blobs:  make([]Blob, 0),
		rng:    rand.New(rand.NewSource(seed)),
	}
}

func (w *World) Width() int     { return w.width }
func (w *World) Height() int    { return w.height }
func (w *World) Len() int       { return len(w.blobs) }
func (w *World) Config() Config { return w.cfg }

// FrameSize is the RGBA8 buffer length Draw expects: 4 * width * height.
func (w *World) FrameSize() int { return bytesPerPixel * w.width * w.height }

// SetConfig replaces the physical constants used from the next Update on.
// Sizes of existing blobs are kept.
func (w *World) SetConfig(cfg Config) { w.cfg = cfg }

// Blobs returns the population in insertion order. The slice aliases the
// world's storage: drivers may adjust blob state between ticks but must
// not append to it.
func (w *World) Blobs() []Blob { return w.blobs }

// AddBlob appends a blob at (x, y) sized by the current BlobSize.
func (w *World) AddBlob(x, y float64) {
	id := len(w.blobs)
	w.blobs = append(w.blobs, NewBlob(id, w.cfg.BlobSize, vmath.Vector2f{X: x, Y: y}))
}

// AddRandomBlob places a blob uniformly in [0, width) × [0, height).
func (w *World) AddRandomBlob() {
	x := w.rng.Float64() * float64(w.width)
	y := w.rng.Float64() * float64(w.height)
	w.AddBlob(x, y)
}

func (w *World) AddRandomBlobs(count int) {
	for i := 0; i < count; i++ {
		w.AddRandomBlob()
	}
}

// Reset drops every blob. Ids restart at zero.
func (w *World) Reset() {
	w.blobs = w.blobs[:0]
}

// BlobAt returns the index of the first blob whose square footprint
// contains p.
func (w *World) BlobAt(p vmath.Vector2f) (int, bool) {
	for i := range w.blobs {
		if w.blobs[i].ContainsPoint(p) {
			return i, true
		}
	}
	return -1, false
}

// Update advances the simulation by dt seconds.
//
// Repulsion for every blob is computed from the positions as they were
// when Update was called; only afterwards is any blob mutated.
func (w *World) Update(dt float64) {
	w.accumulateForces()

	width, height := float64(w.width), float64(w.height)
	for i := range w.blobs {
		b := &w.blobs[i]

		b.Acceleration = b.Acceleration.Add(w.forces[i].Scale(dt))

		if b.Position.X <= 0 || b.Position.X+b.Size > width {
			b.Velocity.X = -b.Velocity.X
		}
		if b.Position.Y <= 0 || b.Position.Y+b.Size > height {
			b.Velocity.Y = -b.Velocity.Y
		}

		w.applyFriction(b, dt)

		b.Velocity = b.Velocity.Add(b.Acceleration.Scale(dt))
		b.Position = b.Position.Add(b.Velocity.Scale(dt))

		b.Position.X = vmath.Clamp(b.Position.X, 0, width)
		b.Position.Y = vmath.Clamp(b.Position.Y, 0, height)
	}
}

// accumulateForces fills w.forces, indexed like w.blobs, with the summed
// repulsion on each blob. Nothing in w.blobs is written here.
func (w *World) accumulateForces() {
	n := len(w.blobs)
	if cap(w.forces) < n {
		w.forces = make([]vmath.Vector2f, n)
	}
	w.forces = w.forces[:n]
	clear(w.forces)

	for i := range w.blobs {
		self := &w.blobs[i]
		for j := range w.blobs {
			other := &w.blobs[j]
			if other.ID == self.ID {
				continue
			}

			v := self.Position.VectorTo(other.Position)
			if v.Magnitude() > w.cfg.RepelDistance {
				continue
			}

			var dir vmath.Vector2f
			if w.cfg.SkipCoincident {
				d, err := v.TryNormalized()
				if err != nil {
					continue
				}
				dir = d
			} else {
				dir = v.Normalized()
			}
			w.forces[i] = w.forces[i].Add(dir.Scale(w.cfg.RepelForce))
		}
	}
}

func (w *World) applyFriction(b *Blob, dt float64) {
	switch w.cfg.model() {
	case FrictionDivisive:
		b.Acceleration = b.Acceleration.Div(w.cfg.FrictionForce * dt)
	default:
		drag := b.Velocity.Scale(w.cfg.FrictionForce * dt)
		mag := b.Acceleration.Magnitude()
		if mag >= drag.Magnitude() {
			b.Acceleration = b.Acceleration.Sub(drag)
		}
		if mag < w.cfg.MinAcceleration {
			b.Acceleration = vmath.Zero
		}
	}

	if limit := w.cfg.MaxAcceleration; limit > 0 && b.Acceleration.Magnitude() > limit {
		b.Acceleration = b.Acceleration.Normalized().Scale(limit)
	}
}
