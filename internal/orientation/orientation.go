// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
)

// Pose is orientation as roll/pitch/yaw in degrees, the form the console and
// the display show.
type Pose struct {
	Roll  float64 `json:"roll"`
	Pitch float64 `json:"pitch"`
	Yaw   float64 `json:"yaw"`
}

// Quaternion is a rotation as w + xi + yj + zk.
type Quaternion struct {
	W float64 `json:"w"`
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Identity is the zero rotation.
var Identity = Quaternion{W: 1}

func (q Quaternion) number() quat.Number {
	return quat.Number{Real: q.W, Imag: q.X, Jmag: q.Y, Kmag: q.Z}
}

func fromNumber(n quat.Number) Quaternion {
	return Quaternion{W: n.Real, X: n.Imag, Y: n.Jmag, Z: n.Kmag}
}

// Norm returns |q|.
func (q Quaternion) Norm() float64 {
	return quat.Abs(q.number())
}

// Normalize returns q scaled to unit norm. The zero quaternion is returned as is.
func (q Quaternion) Normalize() Quaternion {
	n := q.Norm()
	if n == 0 {
		return q
	}
	return fromNumber(quat.Scale(1/n, q.number()))
}

// Rotate applies q to v as q·v·q*.
func (q Quaternion) Rotate(v [3]float64) [3]float64 {
	n := q.number()
	p := quat.Number{Imag: v[0], Jmag: v[1], Kmag: v[2]}
	r := quat.Mul(quat.Mul(n, p), quat.Conj(n))
	return [3]float64{r.Imag, r.Jmag, r.Kmag}
}

// Matrix returns the rotation matrix of q. Column c is the image of the
// c-th basis vector.
func (q Quaternion) Matrix() Matrix {
	var m Matrix
	for c := 0; c < 3; c++ {
		var e [3]float64
		e[c] = 1
		col := q.Rotate(e)
		for r := 0; r < 3; r++ {
			m[r][c] = col[r]
		}
	}
	return m
}

// Pose converts q to roll/pitch/yaw (ZYX convention) in degrees.
func (q Quaternion) Pose() Pose {
	w, x, y, z := q.W, q.X, q.Y, q.Z

	roll := math.Atan2(2*(w*x+y*z), 1-2*(x*x+y*y))
	sinp := 2 * (w*y - z*x)
	if sinp > 1 {
		sinp = 1
	} else if sinp < -1 {
		sinp = -1
	}
	pitch := math.Asin(sinp)
	yaw := math.Atan2(2*(w*z+x*y), 1-2*(y*y+z*z))

	return Pose{
		Roll:  roll * 180.0 / math.Pi,
		Pitch: pitch * 180.0 / math.Pi,
		Yaw:   yaw * 180.0 / math.Pi,
	}
}
