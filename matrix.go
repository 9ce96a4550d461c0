package scenecore

import (
	"strconv"

	"github.com/chewxy/math32"
)

// Matrix4 represents a 4x4 matrix for translation, scale, and rotation. A Matrix4 is row-major (i.e. the X axis is matrix[0]),
// and vectors are multiplied as rows (v × M), so translation lives in matrix[3]. Combining matrices reads left to right:
// a.Mult(b) applies a first, then b.
type Matrix4 [4][4]float32

// NewMatrix4 returns a new identity Matrix4.
func NewMatrix4() Matrix4 {
	return Matrix4{
		{1, 0, 0, 0},
		{0, 1, 0, 0},
		{0, 0, 1, 0},
		{0, 0, 0, 1},
	}
}

// NewMatrix4Translate returns a new identity Matrix4, but with the x, y, and z translation components set as provided.
func NewMatrix4Translate(x, y, z float32) Matrix4 {
	mat := NewMatrix4()
	mat[3][0] = x
	mat[3][1] = y
	mat[3][2] = z
	return mat
}

// NewMatrix4Scale returns a new identity Matrix4, but with the scale components set as provided. 1, 1, 1 is the default.
func NewMatrix4Scale(x, y, z float32) Matrix4 {
	mat := NewMatrix4()
	mat[0][0] = x
	mat[1][1] = y
	mat[2][2] = z
	return mat
}

// NewMatrix4Rotate returns a new Matrix4 designed to rotate by the angle given (in radians) along the axis given [x, y, z].
// This rotation works as though you pierced the object utilizing the matrix through by the axis, and then rotated it
// counter-clockwise by the angle in radians.
func NewMatrix4Rotate(x, y, z, angle float32) Matrix4 {

	// Default to spinning on +Y axis if there is no valid axis
	if x == 0 && y == 0 && z == 0 {
		y = 1
	}

	return NewQuaternionFromAxisAngle(Vector3{x, y, z}, angle).ToMatrix4()

}

// NewMatrix4FromTRS composes a local transform matrix out of a position, rotation and scale.
// Scale is applied first, then rotation, then translation.
func NewMatrix4FromTRS(position Vector3, rotation Quaternion, scale Vector3) Matrix4 {
	m := NewMatrix4Scale(scale.X, scale.Y, scale.Z).Mult(rotation.ToMatrix4())
	m[3][0] = position.X
	m[3][1] = position.Y
	m[3][2] = position.Z
	return m
}

// ToQuaternion returns a Quaternion representative of the Matrix4's rotation (assuming it is just a purely rotational Matrix4).
func (matrix Matrix4) ToQuaternion() Quaternion {

	trace := matrix[0][0] + matrix[1][1] + matrix[2][2]

	if trace > 0 {
		s := math32.Sqrt(trace+1) * 2
		return Quaternion{
			X: (matrix[1][2] - matrix[2][1]) / s,
			Y: (matrix[2][0] - matrix[0][2]) / s,
			Z: (matrix[0][1] - matrix[1][0]) / s,
			W: s / 4,
		}
	}

	if matrix[0][0] > matrix[1][1] && matrix[0][0] > matrix[2][2] {
		s := math32.Sqrt(1+matrix[0][0]-matrix[1][1]-matrix[2][2]) * 2
		return Quaternion{
			X: s / 4,
			Y: (matrix[0][1] + matrix[1][0]) / s,
			Z: (matrix[2][0] + matrix[0][2]) / s,
			W: (matrix[1][2] - matrix[2][1]) / s,
		}
	}

	if matrix[1][1] > matrix[2][2] {
		s := math32.Sqrt(1+matrix[1][1]-matrix[0][0]-matrix[2][2]) * 2
		return Quaternion{
			X: (matrix[0][1] + matrix[1][0]) / s,
			Y: s / 4,
			Z: (matrix[1][2] + matrix[2][1]) / s,
			W: (matrix[2][0] - matrix[0][2]) / s,
		}
	}

	s := math32.Sqrt(1+matrix[2][2]-matrix[0][0]-matrix[1][1]) * 2
	return Quaternion{
		X: (matrix[2][0] + matrix[0][2]) / s,
		Y: (matrix[1][2] + matrix[2][1]) / s,
		Z: s / 4,
		W: (matrix[0][1] - matrix[1][0]) / s,
	}

}

// Right returns the right-facing rotational component of the Matrix4. For an identity matrix, this would be [1, 0, 0], or +X.
func (matrix Matrix4) Right() Vector3 {
	return matrix.RowAsVector3(0).Unit()
}

// Up returns the upward rotational component of the Matrix4. For an identity matrix, this would be [0, 1, 0], or +Y.
func (matrix Matrix4) Up() Vector3 {
	return matrix.RowAsVector3(1).Unit()
}

// Forward returns the forward rotational component of the Matrix4. For an identity matrix, this would be [0, 0, 1], or +Z (towards camera).
func (matrix Matrix4) Forward() Vector3 {
	return matrix.RowAsVector3(2).Unit()
}

// Translation returns the translation component of the Matrix4.
func (matrix Matrix4) Translation() Vector3 {
	return matrix.RowAsVector3(3)
}

// Decompose decomposes the Matrix4 and returns three components - the position, scale, and rotation indicated by the Matrix4.
// This is mainly used when loading nodes that only carry a baked matrix; negative scales are not supported.
func (matrix Matrix4) Decompose() (Vector3, Vector3, Quaternion) {

	position := matrix.Translation()

	scale := Vector3{
		X: matrix.RowAsVector3(0).Magnitude(),
		Y: matrix.RowAsVector3(1).Magnitude(),
		Z: matrix.RowAsVector3(2).Magnitude(),
	}

	rotation := NewMatrix4()
	for i, s := range [3]float32{scale.X, scale.Y, scale.Z} {
		if s == 0 {
			continue
		}
		row := matrix.RowAsVector3(i).Divide(s)
		rotation.SetRow(i, Vector4{row.X, row.Y, row.Z, 0})
	}

	return position, scale, rotation.ToQuaternion().Unit()

}

// Transposed transposes a Matrix4, switching the Matrix from being Row Major to being Column Major. For orthonormalized Matrices (matrices
// that have rows that are normalized (having a length of 1), like rotation matrices), this is equivalent to inverting it.
func (matrix Matrix4) Transposed() Matrix4 {

	var out Matrix4

	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			out[i][j] = matrix[j][i]
		}
	}

	return out

}

// Inverted returns an inverted version of the Matrix4. If the Matrix4 can't be inverted (its determinant is 0),
// an identity Matrix4 is returned instead.
func (matrix Matrix4) Inverted() Matrix4 {

	a := matrix

	// 2x2 sub-determinants of the top and bottom row pairs
	b00 := a[0][0]*a[1][1] - a[0][1]*a[1][0]
	b01 := a[0][0]*a[1][2] - a[0][2]*a[1][0]
	b02 := a[0][0]*a[1][3] - a[0][3]*a[1][0]
	b03 := a[0][1]*a[1][2] - a[0][2]*a[1][1]
	b04 := a[0][1]*a[1][3] - a[0][3]*a[1][1]
	b05 := a[0][2]*a[1][3] - a[0][3]*a[1][2]
	b06 := a[2][0]*a[3][1] - a[2][1]*a[3][0]
	b07 := a[2][0]*a[3][2] - a[2][2]*a[3][0]
	b08 := a[2][0]*a[3][3] - a[2][3]*a[3][0]
	b09 := a[2][1]*a[3][2] - a[2][2]*a[3][1]
	b10 := a[2][1]*a[3][3] - a[2][3]*a[3][1]
	b11 := a[2][2]*a[3][3] - a[2][3]*a[3][2]

	det := b00*b11 - b01*b10 + b02*b09 + b03*b08 - b04*b07 + b05*b06

	if det == 0 {
		return NewMatrix4()
	}

	det = 1 / det

	return Matrix4{
		{
			(a[1][1]*b11 - a[1][2]*b10 + a[1][3]*b09) * det,
			(a[0][2]*b10 - a[0][1]*b11 - a[0][3]*b09) * det,
			(a[3][1]*b05 - a[3][2]*b04 + a[3][3]*b03) * det,
			(a[2][2]*b04 - a[2][1]*b05 - a[2][3]*b03) * det,
		},
		{
			(a[1][2]*b08 - a[1][0]*b11 - a[1][3]*b07) * det,
			(a[0][0]*b11 - a[0][2]*b08 + a[0][3]*b07) * det,
			(a[3][2]*b02 - a[3][0]*b05 - a[3][3]*b01) * det,
			(a[2][0]*b05 - a[2][2]*b02 + a[2][3]*b01) * det,
		},
		{
			(a[1][0]*b10 - a[1][1]*b08 + a[1][3]*b06) * det,
			(a[0][1]*b08 - a[0][0]*b10 - a[0][3]*b06) * det,
			(a[3][0]*b04 - a[3][1]*b02 + a[3][3]*b00) * det,
			(a[2][1]*b02 - a[2][0]*b04 - a[2][3]*b00) * det,
		},
		{
			(a[1][1]*b07 - a[1][0]*b09 - a[1][2]*b06) * det,
			(a[0][0]*b09 - a[0][1]*b07 + a[0][2]*b06) * det,
			(a[3][1]*b01 - a[3][0]*b03 - a[3][2]*b00) * det,
			(a[2][0]*b03 - a[2][1]*b01 + a[2][2]*b00) * det,
		},
	}

}

// ToFloats returns the Matrix4 flattened in row-major order.
func (matrix Matrix4) ToFloats() [16]float32 {
	var out [16]float32
	for i := 0; i < 16; i++ {
		out[i] = matrix[i/4][i%4]
	}
	return out
}

// Equals returns true if the matrix equals the same values in the provided Other Matrix4.
func (matrix Matrix4) Equals(other Matrix4) bool {

	eps := float32(0.0001) // epsilon floating point error value
	for i := 0; i < len(matrix); i++ {
		for j := 0; j < len(matrix[i]); j++ {
			if math32.Abs(matrix[i][j]-other[i][j]) > eps {
				return false
			}
		}
	}
	return true
}

var identityMatrix = NewMatrix4()

// IsIdentity returns true if the matrix is an unmodified identity matrix.
func (matrix Matrix4) IsIdentity() bool {
	return matrix.Equals(identityMatrix)
}

// Row returns the indiced row from the Matrix4 as a Vector4.
func (matrix Matrix4) Row(rowIndex int) Vector4 {
	return Vector4{
		X: matrix[rowIndex][0],
		Y: matrix[rowIndex][1],
		Z: matrix[rowIndex][2],
		W: matrix[rowIndex][3],
	}
}

// RowAsVector3 returns the indiced row from the Matrix4 as a Vector3.
func (matrix Matrix4) RowAsVector3(rowIndex int) Vector3 {
	return Vector3{
		X: matrix[rowIndex][0],
		Y: matrix[rowIndex][1],
		Z: matrix[rowIndex][2],
	}
}

// Column returns the indiced column from the Matrix4 as a Vector4.
func (matrix Matrix4) Column(columnIndex int) Vector4 {
	return Vector4{
		X: matrix[0][columnIndex],
		Y: matrix[1][columnIndex],
		Z: matrix[2][columnIndex],
		W: matrix[3][columnIndex],
	}
}

// SetRow sets the Matrix4 with the row in rowIndex set to the 4D vector passed.
func (matrix *Matrix4) SetRow(rowIndex int, vec Vector4) {
	matrix[rowIndex][0] = vec.X
	matrix[rowIndex][1] = vec.Y
	matrix[rowIndex][2] = vec.Z
	matrix[rowIndex][3] = vec.W
}

// NewProjectionPerspective generates a perspective projection Matrix4 for row vectors. fovy is the vertical field of view in degrees,
// near and far are the near and far clipping planes, and aspect is the view's width divided by its height.
// Clip-space depth follows the OpenGL convention (-w to w).
func NewProjectionPerspective(fovy, aspect, near, far float32) Matrix4 {

	f := 1 / math32.Tan(fovy*math32.Pi/360)

	var mat Matrix4
	mat[0][0] = f / aspect
	mat[1][1] = f
	mat[2][2] = (far + near) / (near - far)
	mat[2][3] = -1
	mat[3][2] = (2 * far * near) / (near - far)
	return mat

}

// NewViewMatrix returns the world-to-view Matrix4 for an eye at the given position looking at target.
func NewViewMatrix(eye, target, up Vector3) Matrix4 {

	basis := NewLookAtMatrix(eye, target, up)
	x, y, z := basis.RowAsVector3(0), basis.RowAsVector3(1), basis.RowAsVector3(2)

	return Matrix4{
		{x.X, y.X, z.X, 0},
		{x.Y, y.Y, z.Y, 0},
		{x.Z, y.Z, z.Z, 0},
		{-x.Dot(eye), -y.Dot(eye), -z.Dot(eye), 1},
	}

}

// MultVec multiplies the vector provided by the Matrix4, giving a vector that has been rotated, scaled, or translated as desired.
func (matrix Matrix4) MultVec(vect Vector3) Vector3 {

	return Vector3{
		X: matrix[0][0]*vect.X + matrix[1][0]*vect.Y + matrix[2][0]*vect.Z + matrix[3][0],
		Y: matrix[0][1]*vect.X + matrix[1][1]*vect.Y + matrix[2][1]*vect.Z + matrix[3][1],
		Z: matrix[0][2]*vect.X + matrix[1][2]*vect.Y + matrix[2][2]*vect.Z + matrix[3][2],
	}

}

// MultVecW multiplies the vector provided by the Matrix4, including the fourth (W) component, giving a vector that has been rotated, scaled, or translated as desired.
func (matrix Matrix4) MultVecW(vect Vector3) Vector4 {

	return Vector4{
		X: matrix[0][0]*vect.X + matrix[1][0]*vect.Y + matrix[2][0]*vect.Z + matrix[3][0],
		Y: matrix[0][1]*vect.X + matrix[1][1]*vect.Y + matrix[2][1]*vect.Z + matrix[3][1],
		Z: matrix[0][2]*vect.X + matrix[1][2]*vect.Y + matrix[2][2]*vect.Z + matrix[3][2],
		W: matrix[0][3]*vect.X + matrix[1][3]*vect.Y + matrix[2][3]*vect.Z + matrix[3][3],
	}

}

// Mult multiplies a Matrix4 by another provided Matrix4 - this effectively combines them.
func (matrix Matrix4) Mult(other Matrix4) Matrix4 {

	var out Matrix4

	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			out[r][c] = matrix[r][0]*other[0][c] + matrix[r][1]*other[1][c] + matrix[r][2]*other[2][c] + matrix[r][3]*other[3][c]
		}
	}

	return out

}

func (matrix Matrix4) String() string {
	s := "{"
	for i, y := range matrix {
		for _, x := range y {
			s += strconv.FormatFloat(float64(x), 'f', -1, 32) + ", "
		}
		if i < len(matrix)-1 {
			s += "\n"
		}
	}
	s += "}"
	return s
}

// NewLookAtMatrix generates a new rotation Matrix4 for an object at from to point towards to (its local -Z axis faces the target).
// up is the upward vector ( usually +Y, or [0, 1, 0] ).
func NewLookAtMatrix(from, to, up Vector3) Matrix4 {

	// If from and to are the same, then an identity Matrix4 should be a sensible default
	if from.Equals(to) {
		return NewMatrix4()
	}

	z := from.Sub(to).Unit()

	up = up.Unit()

	// If z == up, then the matrix will be unusable, so we sub up out with another angle
	if z.Equals(up) || z.Equals(up.Invert()) {
		if !up.Equals(WorldRight) {
			up = WorldRight
		} else {
			up = WorldBackward
		}
	}

	x := up.Cross(z).Unit()
	y := z.Cross(x)
	return Matrix4{
		{x.X, x.Y, x.Z, 0},
		{y.X, y.Y, y.Z, 0},
		{z.X, z.Y, z.Z, 0},
		{0, 0, 0, 1},
	}
}
