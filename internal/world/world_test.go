package world

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/blobsim/internal/vmath"
)

// inert has no friction, no floor and no cap, so accelerations change
// only through repulsion.
func inert() Config {
	return Config{
		BlobSize:      4,
		RepelForce:    10,
		RepelDistance: 30,
		Friction:      FrictionDrag,
	}
}

var _ = Describe("World", func() {
	Describe("population", func() {
		It("assigns insertion indices as ids and the configured size", func() {
			w := New(100, 100, inert())
			w.AddBlob(1, 2)
			w.AddBlob(3, 4)

			cfg := inert()
			cfg.BlobSize = 9
			w.SetConfig(cfg)
			w.AddBlob(5, 6)

			blobs := w.Blobs()
			Expect(blobs).To(HaveLen(3))
			for i, b := range blobs {
				Expect(b.ID).To(Equal(i))
			}
			Expect(blobs[0].Size).To(Equal(4.0))
			Expect(blobs[2].Size).To(Equal(9.0))
			Expect(blobs[1].Position).To(Equal(vmath.Vector2f{X: 3, Y: 4}))
		})

		It("places random blobs inside the arena", func() {
			w := NewSeeded(120, 40, inert(), 3)
			w.AddRandomBlobs(200)

			Expect(w.Len()).To(Equal(200))
			for _, b := range w.Blobs() {
				Expect(b.Position.X).To(And(BeNumerically(">=", 0), BeNumerically("<", 120)))
				Expect(b.Position.Y).To(And(BeNumerically(">=", 0), BeNumerically("<", 40)))
			}
		})

		It("is reproducible for a seed", func() {
			a := NewSeeded(50, 50, inert(), 42)
			b := NewSeeded(50, 50, inert(), 42)
			a.AddRandomBlobs(10)
			b.AddRandomBlobs(10)
			Expect(a.Blobs()).To(Equal(b.Blobs()))
		})

		It("finds blobs by square footprint", func() {
			w := New(100, 100, inert())
			w.AddBlob(10, 10)
			w.AddBlob(50, 50)

			i, ok := w.BlobAt(vmath.Vector2f{X: 53.5, Y: 50.5})
			Expect(ok).To(BeTrue())
			Expect(i).To(Equal(1))

			_, ok = w.BlobAt(vmath.Vector2f{X: 30, Y: 30})
			Expect(ok).To(BeFalse())
		})

		It("empties on reset", func() {
			w := New(10, 10, inert())
			w.AddRandomBlobs(5)
			w.Reset()
			Expect(w.Len()).To(BeZero())
			w.AddBlob(1, 1)
			Expect(w.Blobs()[0].ID).To(Equal(0))
		})
	})

	Describe("Update", func() {
		It("keeps every blob inside the arena", func() {
			w := NewSeeded(100, 80, DefaultConfig(), 7)
			w.AddRandomBlobs(40)
			for i := range w.Blobs() {
				b := &w.Blobs()[i]
				b.Velocity = vmath.Vector2f{X: float64(i%7-3) * 500, Y: float64(i%5-2) * 800}
			}

			for tick := 0; tick < 500; tick++ {
				w.Update(0.016)
				for _, b := range w.Blobs() {
					Expect(b.Position.X).To(And(BeNumerically(">=", 0), BeNumerically("<=", 100)))
					Expect(b.Position.Y).To(And(BeNumerically(">=", 0), BeNumerically("<=", 80)))
				}
			}
		})

		It("never repels a blob from itself", func() {
			cfg := inert()
			cfg.SkipCoincident = false
			w := New(100, 100, cfg)
			w.AddBlob(50, 50)

			w.Update(0.1)

			b := w.Blobs()[0]
			Expect(b.Acceleration).To(Equal(vmath.Zero))
			Expect(b.Position).To(Equal(vmath.Vector2f{X: 50, Y: 50}))
		})

		It("pushes two close blobs apart with equal magnitude", func() {
			w := New(100, 100, inert())
			w.AddBlob(40, 50)
			w.AddBlob(50, 50)

			w.Update(0.5)

			a, b := w.Blobs()[0], w.Blobs()[1]
			Expect(a.Acceleration.Magnitude()).To(BeNumerically("~", 5, 1e-12))
			Expect(b.Acceleration.Magnitude()).To(BeNumerically("~", 5, 1e-12))
			Expect(a.Acceleration.X).To(BeNumerically("<", 0))
			Expect(b.Acceleration.X).To(BeNumerically(">", 0))
			Expect(a.Acceleration.Add(b.Acceleration)).To(Equal(vmath.Zero))
		})

		It("leaves blobs beyond repel distance untouched", func() {
			w := New(100, 100, inert())
			w.AddBlob(10, 10)
			w.AddBlob(60, 10)
			for i := range w.Blobs() {
				w.Blobs()[i].Acceleration = vmath.Vector2f{X: 1, Y: 2}
			}

			w.Update(0.1)

			for _, b := range w.Blobs() {
				Expect(b.Acceleration).To(Equal(vmath.Vector2f{X: 1, Y: 2}))
			}
		})

		It("repels at exactly the repel distance", func() {
			w := New(100, 100, inert())
			w.AddBlob(20, 50)
			w.AddBlob(50, 50)

			w.Update(1)

			Expect(w.Blobs()[0].Acceleration).To(Equal(vmath.Vector2f{X: -10, Y: 0}))
		})

		DescribeTable("computes all forces from pre-tick positions",
			func(xs []float64) {
				cfg := inert()
				cfg.RepelDistance = 25
				w := New(200, 100, cfg)
				for _, x := range xs {
					w.AddBlob(x, 50)
				}

				w.Update(1)

				want := map[float64]float64{40: -20, 50: 0, 60: 20}
				for i, b := range w.Blobs() {
					Expect(b.Acceleration).To(Equal(vmath.Vector2f{X: want[xs[i]], Y: 0}),
						"blob starting at x=%v", xs[i])
				}
			},
			Entry("left to right", []float64{40, 50, 60}),
			Entry("right to left", []float64{60, 50, 40}),
			Entry("middle first", []float64{50, 40, 60}),
		)

		Describe("wall reflection", func() {
			It("flips velocity leaving through the left wall", func() {
				w := New(100, 100, DefaultConfig())
				w.AddBlob(0, 50)
				w.Blobs()[0].Velocity = vmath.Vector2f{X: -5, Y: 0}

				w.Update(0.1)

				b := w.Blobs()[0]
				Expect(b.Velocity.X).To(BeNumerically(">", 0))
				Expect(b.Position.X).To(BeNumerically("~", 0.5, 1e-12))
			})

			It("flips velocity when the footprint crosses the right wall", func() {
				w := New(100, 100, DefaultConfig())
				w.AddBlob(97, 50)
				w.Blobs()[0].Velocity = vmath.Vector2f{X: 3, Y: 0}

				w.Update(0.1)

				Expect(w.Blobs()[0].Velocity.X).To(BeNumerically("<", 0))
			})

			It("flips vertical velocity at the top wall", func() {
				w := New(100, 100, DefaultConfig())
				w.AddBlob(50, 0)
				w.Blobs()[0].Velocity = vmath.Vector2f{X: 0, Y: -2}

				w.Update(0.1)

				Expect(w.Blobs()[0].Velocity.Y).To(BeNumerically(">", 0))
				Expect(w.Blobs()[0].Velocity.X).To(BeZero())
			})

			It("clamps positions that overshoot", func() {
				w := New(100, 100, inert())
				w.AddBlob(99, 99)
				w.Blobs()[0].Velocity = vmath.Vector2f{X: -1000, Y: -1000}

				w.Update(1)

				b := w.Blobs()[0]
				Expect(b.Position).To(Equal(vmath.Vector2f{X: 100, Y: 100}))
				Expect(b.Velocity).To(Equal(vmath.Vector2f{X: 1000, Y: 1000}))
			})
		})

		Describe("drag friction", func() {
			var w *World
			BeforeEach(func() {
				cfg := inert()
				cfg.FrictionForce = 0.1
				cfg.MinAcceleration = 0.5
				w = New(1000, 1000, cfg)
				w.AddBlob(500, 500)
			})

			It("subtracts drag no larger than the acceleration", func() {
				b := &w.Blobs()[0]
				b.Velocity = vmath.Vector2f{X: 10, Y: 0}
				b.Acceleration = vmath.Vector2f{X: 5, Y: 0}

				w.Update(1)

				Expect(w.Blobs()[0].Acceleration.X).To(BeNumerically("~", 4, 1e-12))
			})

			It("keeps the acceleration when drag exceeds it", func() {
				b := &w.Blobs()[0]
				b.Velocity = vmath.Vector2f{X: 100, Y: 0}
				b.Acceleration = vmath.Vector2f{X: 5, Y: 0}

				w.Update(1)

				Expect(w.Blobs()[0].Acceleration).To(Equal(vmath.Vector2f{X: 5, Y: 0}))
			})

			It("snaps small accelerations to zero", func() {
				w.Blobs()[0].Acceleration = vmath.Vector2f{X: 0.3, Y: 0}

				w.Update(1)

				Expect(w.Blobs()[0].Acceleration).To(Equal(vmath.Zero))
			})
		})

		It("divides acceleration under the divisive model", func() {
			cfg := inert()
			cfg.Friction = FrictionDivisive
			cfg.FrictionForce = 3
			w := New(100, 100, cfg)
			w.AddBlob(50, 50)
			w.Blobs()[0].Acceleration = vmath.Vector2f{X: 6, Y: 0}

			w.Update(1)

			b := w.Blobs()[0]
			Expect(b.Acceleration).To(Equal(vmath.Vector2f{X: 2, Y: 0}))
			Expect(b.Velocity).To(Equal(vmath.Vector2f{X: 2, Y: 0}))
			Expect(b.Position).To(Equal(vmath.Vector2f{X: 52, Y: 50}))
		})

		It("caps acceleration along its direction", func() {
			cfg := inert()
			cfg.MaxAcceleration = 50
			w := New(100, 100, cfg)
			w.AddBlob(50, 50)
			w.Blobs()[0].Acceleration = vmath.Vector2f{X: 300, Y: 400}

			w.Update(0.01)

			a := w.Blobs()[0].Acceleration
			Expect(a.X).To(BeNumerically("~", 30, 1e-9))
			Expect(a.Y).To(BeNumerically("~", 40, 1e-9))
		})

		It("integrates velocity before position", func() {
			w := New(100, 100, inert())
			w.AddBlob(50, 50)
			w.Blobs()[0].Acceleration = vmath.Vector2f{X: 2, Y: 0}

			w.Update(0.5)

			b := w.Blobs()[0]
			Expect(b.Velocity.X).To(Equal(1.0))
			Expect(b.Position.X).To(Equal(50.5))
		})

		Context("with coincident blobs", func() {
			It("propagates NaN by default", func() {
				cfg := inert()
				w := New(100, 100, cfg)
				w.AddBlob(30, 30)
				w.AddBlob(30, 30)

				w.Update(0.1)

				Expect(math.IsNaN(w.Blobs()[0].Acceleration.X)).To(BeTrue())
			})

			It("skips the pair when SkipCoincident is set", func() {
				cfg := inert()
				cfg.SkipCoincident = true
				w := New(100, 100, cfg)
				w.AddBlob(30, 30)
				w.AddBlob(30, 30)
				w.AddBlob(40, 30)

				w.Update(1)

				for _, b := range w.Blobs() {
					Expect(b.Acceleration.IsFinite()).To(BeTrue())
				}
				Expect(w.Blobs()[0].Acceleration).To(Equal(vmath.Vector2f{X: -10, Y: 0}))
			})
		})
	})

	Describe("Draw", func() {
		It("writes a single white pixel for a blob at the origin", func() {
			w := New(2, 2, inert())
			w.AddBlob(0, 0)
			frame := make([]byte, w.FrameSize())
			for i := range frame {
				frame[i] = 7
			}

			w.Draw(frame)

			Expect(frame).To(HaveLen(16))
			Expect(frame[:4]).To(Equal([]byte{255, 255, 255, 255}))
			Expect(frame[4:]).To(Equal(make([]byte, 12)))
		})

		It("ignores blob size", func() {
			cfg := inert()
			cfg.BlobSize = 50
			w := New(4, 4, cfg)
			w.AddBlob(1, 1)
			frame := make([]byte, w.FrameSize())

			w.Draw(frame)

			lit := 0
			for i := 0; i < len(frame); i += 4 {
				if frame[i] == 255 {
					lit++
				}
			}
			Expect(lit).To(Equal(1))
		})

		It("strides rows by the arena height", func() {
			w := New(4, 2, inert())
			w.AddBlob(1.7, 1.2)
			frame := make([]byte, w.FrameSize())

			w.Draw(frame)

			Expect(frame[12:16]).To(Equal([]byte{255, 255, 255, 255}))
		})

		It("skips pixels past the end of the frame", func() {
			w := New(2, 2, inert())
			w.AddBlob(2, 1)
			w.AddBlob(2, 2)
			frame := make([]byte, w.FrameSize())

			Expect(func() { w.Draw(frame) }).NotTo(Panic())
			Expect(frame).To(Equal(make([]byte, 16)))
		})

		It("skips non-finite positions", func() {
			w := New(2, 2, inert())
			w.AddBlob(math.NaN(), 0)
			frame := make([]byte, w.FrameSize())

			w.Draw(frame)

			Expect(frame).To(Equal(make([]byte, 16)))
		})

		DescribeTable("skips huge finite positions",
			func(x, y float64) {
				w := New(2, 2, inert())
				w.AddBlob(x, y)
				frame := make([]byte, w.FrameSize())

				Expect(func() { w.Draw(frame) }).NotTo(Panic())
				Expect(frame).To(Equal(make([]byte, 16)))
			},
			Entry("x near the int64 limit", 9.2e18, 0.0),
			Entry("x past the int64 limit", 1e19, 0.0),
			Entry("y past the int64 limit", 0.0, 1e19),
			Entry("both huge", math.MaxFloat64, math.MaxFloat64),
		)

		It("tolerates a short buffer", func() {
			w := New(2, 2, inert())
			w.AddBlob(1, 1)
			frame := make([]byte, 8)

			Expect(func() { w.Draw(frame) }).NotTo(Panic())
			Expect(frame).To(Equal(make([]byte, 8)))
		})
	})
})
