// Package vmath provides the small amount of 2D vector math the blob
// simulation needs.
//
//   - [Vector2]: generic value-typed 2D vector over any [Number]
//   - [Vector2f]: the float64 instantiation used by the simulation
//   - [Clamp]: bounds a value to a closed interval
//
// All operations return new values; nothing is shared or mutated in place.
//
// # Direction convention
//
// [Vector2.VectorTo] returns self - target, so the result points from the
// target toward the receiver. Repulsion uses it as-is: the normalized
// result is the direction that pushes the receiver away from the target.
//
// # Zero magnitude
//
// [Vector2.Normalized] divides by the magnitude and therefore yields NaN
// components for the zero vector. [Vector2.TryNormalized] reports
// [ErrDegenerateVector] instead.
package vmath
