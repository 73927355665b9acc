package world

import (
	"math"

	"github.com/san-kum/blobsim/internal/vmath"
)

const bytesPerPixel = 4

var white = [bytesPerPixel]byte{255, 255, 255, 255}

// Draw zeroes frame and writes one opaque white RGBA8 pixel per blob.
// Blob size does not affect the footprint. Pixels that would land past
// the end of frame are skipped.
func (w *World) Draw(frame []byte) {
	clear(frame)

	pixels := len(frame) / bytesPerPixel
	for i := range w.blobs {
		start, ok := w.pixelOffset(w.blobs[i].Position, pixels)
		if !ok {
			continue
		}
		copy(frame[start:start+bytesPerPixel], white[:])
	}
}

// pixelOffset maps a position to the byte offset of its pixel in a frame
// of the given pixel count. The row stride is the arena height. The index
// is bounded in float64 so huge coordinates never reach an int overflow.
func (w *World) pixelOffset(p vmath.Vector2f, pixels int) (int, bool) {
	x, y := math.Floor(p.X), math.Floor(p.Y)
	// also rejects NaN
	if !(x >= 0 && y >= 0) {
		return 0, false
	}
	index := y*float64(w.height) + x
	if !(index < float64(pixels)) {
		return 0, false
	}
	return bytesPerPixel * int(index), true
}
