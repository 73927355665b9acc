// Package world implements the blob simulation core.
//
// A [World] owns a population of square-bounded [Blob] particles inside a
// fixed width × height arena:
//
//   - [World.Update] advances every blob by one tick: all-pairs
//     repulsion, friction, wall reflection, semi-implicit Euler
//     integration and a final clamp into the arena
//   - [World.Draw] rasterizes the population into an RGBA8 frame, one
//     white pixel per blob
//   - [Config] carries the tunable physical constants and may be swapped
//     between ticks with [World.SetConfig]
//
// # Example
//
//	w := world.New(250, 250, world.DefaultConfig())
//	w.AddRandomBlobs(25)
//	frame := make([]byte, w.FrameSize())
//	for {
//		w.Update(dt)
//		w.Draw(frame)
//	}
//
// # Numeric failures
//
// Update and Draw never return errors. Degenerate constants (zero
// friction under [FrictionDivisive], coincident blobs without
// [Config.SkipCoincident]) produce non-finite values that propagate
// through later ticks. Use [Config.Validate] before constructing a world
// to reject the configurable cases up front.
//
// # Thread Safety
//
// World is NOT thread-safe. Update and Draw are meant to be called in
// sequence from one driver goroutine.
package world
