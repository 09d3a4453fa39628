// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import "math"

// Matrix is a 3x3 rotation matrix indexed [row][col].
type Matrix [3][3]float64

// ColumnMajor assembles a matrix from nine values stored column by column,
// the order the GX3 sends its orientation matrix in.
func ColumnMajor(v [9]float32) Matrix {
	var m Matrix
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			m[r][c] = float64(v[c*3+r])
		}
	}
	return m
}

// ColumnMajorValues is the inverse of ColumnMajor.
func (m Matrix) ColumnMajorValues() [9]float32 {
	var v [9]float32
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			v[c*3+r] = float32(m[r][c])
		}
	}
	return v
}

// Transpose returns mᵀ, the inverse of a rotation.
func (m Matrix) Transpose() Matrix {
	var t Matrix
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			t[c][r] = m[r][c]
		}
	}
	return t
}

// MulVec returns m·v.
func (m Matrix) MulVec(v [3]float64) [3]float64 {
	var out [3]float64
	for r := 0; r < 3; r++ {
		out[r] = m[r][0]*v[0] + m[r][1]*v[1] + m[r][2]*v[2]
	}
	return out
}

// FromMatrix converts a proper rotation matrix to a unit quaternion.
//
// m must be orthonormal with determinant +1; this is not checked. When the
// trace is positive w is the large component. Otherwise the largest diagonal
// element picks the component computed from the square root, which keeps the
// divisor away from zero. The result is normalized explicitly.
func FromMatrix(m Matrix) Quaternion {
	var q Quaternion

	tr := m[0][0] + m[1][1] + m[2][2]
	switch {
	case tr > 0:
		s := math.Sqrt(tr+1) * 2 // 4w
		q.W = 0.25 * s
		q.X = (m[2][1] - m[1][2]) / s
		q.Y = (m[0][2] - m[2][0]) / s
		q.Z = (m[1][0] - m[0][1]) / s
	case m[0][0] > m[1][1] && m[0][0] > m[2][2]:
		s := math.Sqrt(1+m[0][0]-m[1][1]-m[2][2]) * 2 // 4x
		q.W = (m[2][1] - m[1][2]) / s
		q.X = 0.25 * s
		q.Y = (m[0][1] + m[1][0]) / s
		q.Z = (m[0][2] + m[2][0]) / s
	case m[1][1] > m[2][2]:
		s := math.Sqrt(1+m[1][1]-m[0][0]-m[2][2]) * 2 // 4y
		q.W = (m[0][2] - m[2][0]) / s
		q.X = (m[0][1] + m[1][0]) / s
		q.Y = 0.25 * s
		q.Z = (m[1][2] + m[2][1]) / s
	default:
		s := math.Sqrt(1+m[2][2]-m[0][0]-m[1][1]) * 2 // 4z
		q.W = (m[1][0] - m[0][1]) / s
		q.X = (m[0][2] + m[2][0]) / s
		q.Y = (m[1][2] + m[2][1]) / s
		q.Z = 0.25 * s
	}

	return q.Normalize()
}

// FromPose builds the rotation matrix Rz(yaw)·Ry(pitch)·Rx(roll) from a pose
// in degrees.
func FromPose(p Pose) Matrix {
	r := p.Roll * math.Pi / 180.0
	pt := p.Pitch * math.Pi / 180.0
	y := p.Yaw * math.Pi / 180.0

	sr, cr := math.Sincos(r)
	sp, cp := math.Sincos(pt)
	sy, cy := math.Sincos(y)

	return Matrix{
		{cy * cp, cy*sp*sr - sy*cr, cy*sp*cr + sy*sr},
		{sy * cp, sy*sp*sr + cy*cr, sy*sp*cr - cy*sr},
		{-sp, cp * sr, cp * cr},
	}
}
