package scenecore

import (
	"strconv"

	"github.com/chewxy/math32"
)

// WorldRight represents a unit vector in the global direction of WorldRight on the right-handed coordinate system (+X).
var WorldRight = Vector3{1, 0, 0}

// WorldUp represents a unit vector in the global direction of WorldUp on the right-handed coordinate system (+Y).
var WorldUp = Vector3{0, 1, 0}

// WorldBackward represents a unit vector in the global direction of WorldBackward on the right-handed coordinate system (+Z, towards the viewer).
var WorldBackward = Vector3{0, 0, 1}

// WorldForward represents a unit vector pointing away from the viewer (-Z).
var WorldForward = Vector3{0, 0, -1}

// Vector3 represents a 3D Vector, used for positions, directions and scales.
// Any Vector3 functions that modify the calling Vector3 return copies of the modified Vector3, meaning you can do method-chaining easily.
// Vectors are most efficient when copied, so try not to store pointers to them.
type Vector3 struct {
	X float32 // The X (1st) component of the Vector
	Y float32 // The Y (2nd) component of the Vector
	Z float32 // The Z (3rd) component of the Vector
}

// NewVector3 creates a new Vector3 with the specified x, y, and z components.
func NewVector3(x, y, z float32) Vector3 {
	return Vector3{X: x, Y: y, Z: z}
}

// NewVector3All creates a new Vector3 with every component set to the value given.
func NewVector3All(v float32) Vector3 {
	return Vector3{X: v, Y: v, Z: v}
}

// Add returns a copy of the calling vector, added together with the other Vector provided.
func (vec Vector3) Add(other Vector3) Vector3 {
	vec.X += other.X
	vec.Y += other.Y
	vec.Z += other.Z
	return vec
}

// Sub returns a copy of the calling Vector, with the other Vector subtracted from it.
func (vec Vector3) Sub(other Vector3) Vector3 {
	vec.X -= other.X
	vec.Y -= other.Y
	vec.Z -= other.Z
	return vec
}

// Cross returns a new Vector, indicating the cross product of the calling Vector and the provided Other Vector.
func (vec Vector3) Cross(other Vector3) Vector3 {
	return Vector3{
		X: vec.Y*other.Z - vec.Z*other.Y,
		Y: vec.Z*other.X - vec.X*other.Z,
		Z: vec.X*other.Y - vec.Y*other.X,
	}
}

// Invert returns a copy of the Vector with all components inverted.
func (vec Vector3) Invert() Vector3 {
	vec.X = -vec.X
	vec.Y = -vec.Y
	vec.Z = -vec.Z
	return vec
}

// Magnitude returns the length of the Vector.
func (vec Vector3) Magnitude() float32 {
	return math32.Sqrt(vec.X*vec.X + vec.Y*vec.Y + vec.Z*vec.Z)
}

// MagnitudeSquared returns the squared length of the Vector; this is faster than Magnitude().
func (vec Vector3) MagnitudeSquared() float32 {
	return vec.X*vec.X + vec.Y*vec.Y + vec.Z*vec.Z
}

// Distance returns the distance from the calling Vector to the other Vector provided.
func (vec Vector3) Distance(other Vector3) float32 {
	return vec.Sub(other).Magnitude()
}

// Mult performs component-wise multiplication between two Vectors.
func (vec Vector3) Mult(other Vector3) Vector3 {
	vec.X *= other.X
	vec.Y *= other.Y
	vec.Z *= other.Z
	return vec
}

// Unit returns a copy of the Vector, normalized (set to be of unit length).
// It does not alter the W component of the Vector.
func (vec Vector3) Unit() Vector3 {
	l := vec.Magnitude()
	if l < 1e-8 {
		return vec
	}
	vec.X, vec.Y, vec.Z = vec.X/l, vec.Y/l, vec.Z/l
	return vec
}

// Scale scales a Vector by the given scalar.
func (vec Vector3) Scale(scalar float32) Vector3 {
	vec.X *= scalar
	vec.Y *= scalar
	vec.Z *= scalar
	return vec
}

// Divide divides a Vector by the given scalar.
func (vec Vector3) Divide(scalar float32) Vector3 {
	vec.X /= scalar
	vec.Y /= scalar
	vec.Z /= scalar
	return vec
}

// Dot returns the dot product of a Vector and another Vector.
func (vec Vector3) Dot(other Vector3) float32 {
	return vec.X*other.X + vec.Y*other.Y + vec.Z*other.Z
}

// Min returns the component-wise minimum of the two Vectors.
func (vec Vector3) Min(other Vector3) Vector3 {
	return Vector3{math32.Min(vec.X, other.X), math32.Min(vec.Y, other.Y), math32.Min(vec.Z, other.Z)}
}

// Max returns the component-wise maximum of the two Vectors.
func (vec Vector3) Max(other Vector3) Vector3 {
	return Vector3{math32.Max(vec.X, other.X), math32.Max(vec.Y, other.Y), math32.Max(vec.Z, other.Z)}
}

// Lerp linearly interpolates from the calling Vector towards the other Vector by the percentage given.
func (vec Vector3) Lerp(other Vector3, percent float32) Vector3 {
	return vec.Add(other.Sub(vec).Scale(percent))
}

// Equals returns true if the two Vectors are close enough in all values.
func (vec Vector3) Equals(other Vector3) bool {

	eps := float32(1e-4)

	if math32.Abs(vec.X-other.X) > eps || math32.Abs(vec.Y-other.Y) > eps || math32.Abs(vec.Z-other.Z) > eps {
		return false
	}

	return true

}

// IsZero returns true if the values in the Vector are extremely close to 0.
func (vec Vector3) IsZero() bool {
	return vec.Equals(Vector3{})
}

// Floats returns a [3]float32 array consisting of the Vector's contents.
func (vec Vector3) Floats() [3]float32 {
	return [3]float32{vec.X, vec.Y, vec.Z}
}

func (vec Vector3) String() string {
	return "{" + strconv.FormatFloat(float64(vec.X), 'f', -1, 32) + ", " +
		strconv.FormatFloat(float64(vec.Y), 'f', -1, 32) + ", " +
		strconv.FormatFloat(float64(vec.Z), 'f', -1, 32) + "}"
}

// Vector4 represents a 4D vector; in this package it's mostly used for matrix rows / columns and clip-space positions.
type Vector4 struct {
	X, Y, Z, W float32
}

// Add returns a copy of the calling vector, added together with the other Vector provided.
func (vec Vector4) Add(other Vector4) Vector4 {
	vec.X += other.X
	vec.Y += other.Y
	vec.Z += other.Z
	vec.W += other.W
	return vec
}

// Sub returns a copy of the calling Vector, with the other Vector subtracted from it.
func (vec Vector4) Sub(other Vector4) Vector4 {
	vec.X -= other.X
	vec.Y -= other.Y
	vec.Z -= other.Z
	vec.W -= other.W
	return vec
}

// Invert returns a copy of the Vector with all components inverted.
func (vec Vector4) Invert() Vector4 {
	return Vector4{-vec.X, -vec.Y, -vec.Z, -vec.W}
}

// Magnitude returns the length of the Vector (all four components).
func (vec Vector4) Magnitude() float32 {
	return math32.Sqrt(vec.X*vec.X + vec.Y*vec.Y + vec.Z*vec.Z + vec.W*vec.W)
}

// Unit returns a copy of the Vector, normalized to be of unit length.
func (vec Vector4) Unit() Vector4 {
	l := vec.Magnitude()
	if l < 1e-8 {
		return vec
	}
	return Vector4{vec.X / l, vec.Y / l, vec.Z / l, vec.W / l}
}

// XYZ returns the first three components of the Vector4 as a Vector3.
func (vec Vector4) XYZ() Vector3 {
	return Vector3{vec.X, vec.Y, vec.Z}
}

// PerspectiveDivide returns the XYZ components divided by W.
func (vec Vector4) PerspectiveDivide() Vector3 {
	if vec.W == 0 {
		return vec.XYZ()
	}
	return Vector3{vec.X / vec.W, vec.Y / vec.W, vec.Z / vec.W}
}
