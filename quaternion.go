package scenecore

import "github.com/chewxy/math32"

// Quaternion represents a rotation. The identity rotation is {0, 0, 0, 1}.
type Quaternion struct {
	X, Y, Z, W float32
}

func NewQuaternion(x, y, z, w float32) Quaternion {
	return Quaternion{x, y, z, w}
}

// NewQuaternionIdentity returns a Quaternion that performs no rotation.
func NewQuaternionIdentity() Quaternion {
	return Quaternion{0, 0, 0, 1}
}

// NewQuaternionFromAxisAngle returns a Quaternion rotating counter-clockwise around the given axis by the angle (in radians).
func NewQuaternionFromAxisAngle(axis Vector3, angle float32) Quaternion {
	axis = axis.Unit()
	s := math32.Sin(angle / 2)
	return Quaternion{axis.X * s, axis.Y * s, axis.Z * s, math32.Cos(angle / 2)}
}

// IsZero returns true if every component is 0, which is not a valid rotation (importers use it to mean "unset").
func (quat Quaternion) IsZero() bool {
	return quat.X == 0 && quat.Y == 0 && quat.Z == 0 && quat.W == 0
}

func (quat Quaternion) Dot(other Quaternion) float32 {
	return quat.X*other.X + quat.Y*other.Y + quat.Z*other.Z + quat.W*other.W
}

// Unit returns a normalized copy of the Quaternion.
func (quat Quaternion) Unit() Quaternion {
	l := math32.Sqrt(quat.Dot(quat))
	if l == 0 {
		return NewQuaternionIdentity()
	}
	return Quaternion{quat.X / l, quat.Y / l, quat.Z / l, quat.W / l}
}

// Mult combines two rotations; the result applies other first, then quat.
func (quat Quaternion) Mult(other Quaternion) Quaternion {
	return Quaternion{
		X: quat.W*other.X + quat.X*other.W + quat.Y*other.Z - quat.Z*other.Y,
		Y: quat.W*other.Y - quat.X*other.Z + quat.Y*other.W + quat.Z*other.X,
		Z: quat.W*other.Z + quat.X*other.Y - quat.Y*other.X + quat.Z*other.W,
		W: quat.W*other.W - quat.X*other.X - quat.Y*other.Y - quat.Z*other.Z,
	}
}

// Lerp performs a normalized linear interpolation towards the other Quaternion.
func (quat Quaternion) Lerp(other Quaternion, percent float32) Quaternion {
	if quat.Dot(other) < 0 {
		other = Quaternion{-other.X, -other.Y, -other.Z, -other.W}
	}
	return Quaternion{
		quat.X + (other.X-quat.X)*percent,
		quat.Y + (other.Y-quat.Y)*percent,
		quat.Z + (other.Z-quat.Z)*percent,
		quat.W + (other.W-quat.W)*percent,
	}.Unit()
}

// Slerp spherically interpolates towards the other Quaternion.
func (quat Quaternion) Slerp(other Quaternion, percent float32) Quaternion {

	if percent <= 0 {
		return quat
	} else if percent >= 1 {
		return other
	}

	cosHalfTheta := quat.Dot(other)

	if cosHalfTheta < 0 {
		other = Quaternion{-other.X, -other.Y, -other.Z, -other.W}
		cosHalfTheta = -cosHalfTheta
	}

	// Nearly identical rotations; sin(theta) is too close to 0 to divide by
	if cosHalfTheta > 0.9995 {
		return quat.Lerp(other, percent)
	}

	sinHalfTheta := math32.Sqrt(1 - cosHalfTheta*cosHalfTheta)
	halfTheta := math32.Atan2(sinHalfTheta, cosHalfTheta)

	ratioA := math32.Sin((1-percent)*halfTheta) / sinHalfTheta
	ratioB := math32.Sin(percent*halfTheta) / sinHalfTheta

	return Quaternion{
		X: quat.X*ratioA + other.X*ratioB,
		Y: quat.Y*ratioA + other.Y*ratioB,
		Z: quat.Z*ratioA + other.Z*ratioB,
		W: quat.W*ratioA + other.W*ratioB,
	}

}

// ToMatrix4 returns the rotation Matrix4 the Quaternion represents (row-vector convention, like the rest of the package).
func (quat Quaternion) ToMatrix4() Matrix4 {

	q := quat.Unit()
	x, y, z, w := q.X, q.Y, q.Z, q.W

	mat := NewMatrix4()

	mat[0][0] = 1 - 2*(y*y+z*z)
	mat[0][1] = 2 * (x*y + z*w)
	mat[0][2] = 2 * (x*z - y*w)

	mat[1][0] = 2 * (x*y - z*w)
	mat[1][1] = 1 - 2*(x*x+z*z)
	mat[1][2] = 2 * (y*z + x*w)

	mat[2][0] = 2 * (x*z + y*w)
	mat[2][1] = 2 * (y*z - x*w)
	mat[2][2] = 1 - 2*(x*x+y*y)

	return mat

}

// RotateVec rotates the provided Vector3 by the Quaternion.
func (quat Quaternion) RotateVec(vec Vector3) Vector3 {
	return quat.ToMatrix4().MultVec(vec)
}
