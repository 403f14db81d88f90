package core

import (
	"errors"
	"fmt"
	"math"
)

// singularEpsilon is the determinant magnitude below which a matrix is
// treated as singular.
const singularEpsilon = 1e-10

// ErrNonInvertibleMatrix is returned by Invert for singular matrices.
var ErrNonInvertibleMatrix = errors.New("core: matrix is not invertible")

// Matrix is a 3x3 row-major matrix. Values are immutable; every operation
// returns a new Matrix.
type Matrix [3][3]float64

// Identity is the 3x3 identity matrix.
var Identity = Matrix{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}

// Determinant expands along the first row.
func (m Matrix) Determinant() float64 {
	return m[0][0]*(m[1][1]*m[2][2]-m[1][2]*m[2][1]) -
		m[0][1]*(m[1][0]*m[2][2]-m[1][2]*m[2][0]) +
		m[0][2]*(m[1][0]*m[2][1]-m[1][1]*m[2][0])
}

// Transpose swaps rows and columns.
func (m Matrix) Transpose() Matrix {
	var t Matrix
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			t[i][j] = m[j][i]
		}
	}
	return t
}

// Invert returns the inverse of m, computed as adjugate / determinant. For
// a rotation this is the transpose. A matrix with |det| below 1e-10 yields
// ErrNonInvertibleMatrix.
func (m Matrix) Invert() (Matrix, error) {
	det := m.Determinant()
	if math.Abs(det) < singularEpsilon || math.IsNaN(det) {
		return Matrix{}, fmt.Errorf("%w: determinant %g", ErrNonInvertibleMatrix, det)
	}
	inv := Matrix{
		{
			m[1][1]*m[2][2] - m[1][2]*m[2][1],
			m[0][2]*m[2][1] - m[0][1]*m[2][2],
			m[0][1]*m[1][2] - m[0][2]*m[1][1],
		},
		{
			m[1][2]*m[2][0] - m[1][0]*m[2][2],
			m[0][0]*m[2][2] - m[0][2]*m[2][0],
			m[0][2]*m[1][0] - m[0][0]*m[1][2],
		},
		{
			m[1][0]*m[2][1] - m[1][1]*m[2][0],
			m[0][1]*m[2][0] - m[0][0]*m[2][1],
			m[0][0]*m[1][1] - m[0][1]*m[1][0],
		},
	}
	for i := range inv {
		for j := range inv[i] {
			inv[i][j] /= det
		}
	}
	return inv, nil
}

// Compose returns the product a·b: applying the result rotates by b first,
// then by a.
func Compose(a, b Matrix) Matrix {
	var p Matrix
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			p[i][j] = a[i][0]*b[0][j] + a[i][1]*b[1][j] + a[i][2]*b[2][j]
		}
	}
	return p
}

// Rotate returns m·v.
func (m Matrix) Rotate(v Vec3) Vec3 {
	return Vec3{
		X: m[0][0]*v.X + m[0][1]*v.Y + m[0][2]*v.Z,
		Y: m[1][0]*v.X + m[1][1]*v.Y + m[1][2]*v.Z,
		Z: m[2][0]*v.X + m[2][1]*v.Y + m[2][2]*v.Z,
	}
}

// RotationSequence names the axis order of an Euler rotation.
type RotationSequence int

const (
	ZYZ RotationSequence = iota
	ZYX
	XZX
)

func (s RotationSequence) String() string {
	switch s {
	case ZYZ:
		return "ZYZ"
	case ZYX:
		return "ZYX"
	case XZX:
		return "XZX"
	default:
		return fmt.Sprintf("RotationSequence(%d)", int(s))
	}
}

// EulerRotation builds the frame rotation for angles a, b, c (radians)
// applied about the axes of seq, in that order.
func EulerRotation(seq RotationSequence, a, b, c float64) Matrix {
	sx, cx := math.Sincos(a)
	sy, cy := math.Sincos(b)
	sz, cz := math.Sincos(c)

	switch seq {
	case ZYZ:
		return Matrix{
			{cx*cz*cy - sx*sz, sx*cz*cy + cx*sz, -sy * cz},
			{-cx*cy*sz - sx*cz, -sx*cy*sz + cx*cz, sy * sz},
			{cx * sy, sx * sy, cy},
		}
	case ZYX:
		return Matrix{
			{cx * cy, cy * sx, -sy},
			{sz*sy*cx - cz*sx, sz*sy*sx + cz*cx, sz * cy},
			{cz*sy*cx + sz*sx, cz*sy*sx - sz*cx, cz * cy},
		}
	case XZX:
		return Matrix{
			{cy, cx * sy, sx * sy},
			{-sy * cz, cx*cz*cy - sx*sz, sx*cz*cy + cx*sz},
			{sy * sz, -cx*cy*sz - sx*cz, -sx*cy*sz + cx*cz},
		}
	default:
		panic(fmt.Sprintf("core: unknown rotation sequence %d", int(seq)))
	}
}

// R3 is the frame rotation by angle about the third axis.
func R3(angle float64) Matrix {
	s, c := math.Sincos(angle)
	return Matrix{{c, s, 0}, {-s, c, 0}, {0, 0, 1}}
}
