package vmath

import (
	"errors"
	"fmt"
	"math"

	"golang.org/x/exp/constraints"
)

// ErrDegenerateVector is returned when normalizing a zero-length vector.
var ErrDegenerateVector = errors.New("vmath: degenerate vector (zero magnitude)")

// Number is any integer or floating point type a Vector2 can hold.
type Number interface {
	constraints.Integer | constraints.Float
}

// Vector2 is an ordered (x, y) pair.
type Vector2[T Number] struct {
	X, Y T
}

// Vector2f is the float64 vector used for positions, velocities and forces.
type Vector2f = Vector2[float64]

// Zero is the float64 zero vector.
var Zero = Vector2f{}

func New[T Number](x, y T) Vector2[T] {
	return Vector2[T]{X: x, Y: y}
}

func (v Vector2[T]) Add(o Vector2[T]) Vector2[T] { return Vector2[T]{v.X + o.X, v.Y + o.Y} }
func (v Vector2[T]) Sub(o Vector2[T]) Vector2[T] { return Vector2[T]{v.X - o.X, v.Y - o.Y} }
func (v Vector2[T]) Scale(s T) Vector2[T]        { return Vector2[T]{v.X * s, v.Y * s} }
func (v Vector2[T]) Div(s T) Vector2[T]          { return Vector2[T]{v.X / s, v.Y / s} }

// Magnitude is sqrt(x²+y²); the sum of squares is computed in T and
// widened to float64 before the root.
func (v Vector2[T]) Magnitude() float64 {
	return math.Sqrt(float64(v.X*v.X + v.Y*v.Y))
}

// Distance is the magnitude of v.VectorTo(o).
func (v Vector2[T]) Distance(o Vector2[T]) float64 {
	return v.VectorTo(o).Magnitude()
}

// VectorTo returns v - target: the vector pointing from target toward v.
func (v Vector2[T]) VectorTo(target Vector2[T]) Vector2[T] {
	return v.Sub(target)
}

// Normalized returns v divided by its magnitude. The zero vector yields
// NaN components.
func (v Vector2[T]) Normalized() Vector2f {
	m := v.Magnitude()
	return Vector2f{X: float64(v.X) / m, Y: float64(v.Y) / m}
}

// TryNormalized is Normalized with the zero-magnitude case reported as
// ErrDegenerateVector.
func (v Vector2[T]) TryNormalized() (Vector2f, error) {
	m := v.Magnitude()
	if m == 0 {
		return Vector2f{}, ErrDegenerateVector
	}
	return Vector2f{X: float64(v.X) / m, Y: float64(v.Y) / m}, nil
}

// Float converts v to a Vector2f.
func (v Vector2[T]) Float() Vector2f {
	return Vector2f{X: float64(v.X), Y: float64(v.Y)}
}

// IsFinite reports whether neither component is NaN or ±Inf.
func (v Vector2[T]) IsFinite() bool {
	x, y := float64(v.X), float64(v.Y)
	return !math.IsNaN(x) && !math.IsInf(x, 0) && !math.IsNaN(y) && !math.IsInf(y, 0)
}

func (v Vector2[T]) String() string {
	return fmt.Sprintf("(%v, %v)", v.X, v.Y)
}

// Clamp bounds value to [lo, hi]. NaN passes through unchanged.
func Clamp[T constraints.Ordered](value, lo, hi T) T {
	if value < lo {
		return lo
	}
	if value > hi {
		return hi
	}
	return value
}
