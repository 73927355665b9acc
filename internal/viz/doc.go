// Package viz renders a blob world in the terminal.
//
// The live view is a Bubble Tea program that steps a [world.World] on
// every tick, rasterizes it with [world.World.Draw] and downsamples the
// frame onto a Braille [Canvas]:
//
//   - [Model]: the interactive view with a stats panel and energy chart
//   - [Canvas]: Braille-based pixel canvas, 2x4 dots per cell
//   - Theme selection with 3 built-in color schemes
//
// # Key Bindings
//
//	Space - Pause/Resume simulation
//	A     - Add a blob at a random position
//	R     - Reset to the initial population and constants
//	Tab   - Select the next physics constant
//	Up/K  - Increase the selected constant (+5%)
//	Down/J- Decrease the selected constant (-5%)
//	T     - Cycle color themes
//	G     - Toggle GIF recording
//	?     - Show help overlay
//	Q     - Quit
//
// # Recording
//
// G toggles recording of the raw frames produced by World.Draw. Stopping
// the recording writes an animated GIF to the configured path.
package viz
