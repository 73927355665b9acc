package world

import "github.com/san-kum/blobsim/internal/vmath"

// Blob is one simulated particle. ID is its index at insertion time and
// only serves to exclude self-interaction.
type Blob struct {
	ID           int
	Size         float64
	Position     vmath.Vector2f
	Velocity     vmath.Vector2f
	Acceleration vmath.Vector2f
}

func NewBlob(id int, size float64, position vmath.Vector2f) Blob {
	return Blob{ID: id, Size: size, Position: position}
}

// ContainsPoint is an axis-aligned square test over
// [Position, Position+Size] on both axes, edges inclusive.
func (b Blob) ContainsPoint(p vmath.Vector2f) bool {
	return p.X >= b.Position.X &&
		p.X <= b.Position.X+b.Size &&
		p.Y >= b.Position.Y &&
		p.Y <= b.Position.Y+b.Size
}
