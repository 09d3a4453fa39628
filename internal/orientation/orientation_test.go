package orientation

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func det(m Matrix) float64 {
	flat := make([]float64, 0, 9)
	for r := 0; r < 3; r++ {
		flat = append(flat, m[r][:]...)
	}
	return mat.Det(mat.NewDense(3, 3, flat))
}

func assertMatrixNear(t *testing.T, want, got Matrix, tol float64) {
	t.Helper()
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			assert.InDelta(t, want[r][c], got[r][c], tol, "element [%d][%d]", r, c)
		}
	}
}

func TestFromMatrix_Identity(t *testing.T) {
	q := FromMatrix(Matrix{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}})
	assert.Equal(t, Identity, q)
}

func TestFromMatrix_HalfTurns(t *testing.T) {
	// Trace -1: each one exercises a different diagonal branch.
	tests := []struct {
		name string
		m    Matrix
		want Quaternion
	}{
		{"about x", Matrix{{1, 0, 0}, {0, -1, 0}, {0, 0, -1}}, Quaternion{X: 1}},
		{"about y", Matrix{{-1, 0, 0}, {0, 1, 0}, {0, 0, -1}}, Quaternion{Y: 1}},
		{"about z", Matrix{{-1, 0, 0}, {0, -1, 0}, {0, 0, 1}}, Quaternion{Z: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := FromMatrix(tt.m)
			assert.InDelta(t, tt.want.W, q.W, 1e-12)
			assert.InDelta(t, tt.want.X, q.X, 1e-12)
			assert.InDelta(t, tt.want.Y, q.Y, 1e-12)
			assert.InDelta(t, tt.want.Z, q.Z, 1e-12)
		})
	}
}

func TestFromMatrix_UnitNormAndReproducesMatrix(t *testing.T) {
	angles := []float64{-179, -135, -90, -45, -10, 0, 10, 45, 89, 120, 179}
	for _, roll := range angles {
		for _, pitch := range []float64{-89, -60, -30, 0, 30, 60, 89} {
			for _, yaw := range angles {
				m := FromPose(Pose{Roll: roll, Pitch: pitch, Yaw: yaw})
				require.InDelta(t, 1.0, det(m), 1e-9)

				q := FromMatrix(m)
				require.InDelta(t, 1.0, q.Norm(), 1e-6, "roll=%v pitch=%v yaw=%v", roll, pitch, yaw)
				assertMatrixNear(t, m, q.Matrix(), 1e-9)
			}
		}
	}
}

func TestFromMatrix_NormalizesFloat32Input(t *testing.T) {
	// The device sends float32 values, so the matrix is only orthonormal to
	// about 1e-7. The result must still be unit length.
	m := FromPose(Pose{Roll: 12.5, Pitch: -33, Yaw: 171})
	q := FromMatrix(ColumnMajor(m.ColumnMajorValues()))

	assert.InDelta(t, 1.0, q.Norm(), 1e-12)
	assertMatrixNear(t, m, q.Matrix(), 1e-6)
}

func TestColumnMajor(t *testing.T) {
	m := ColumnMajor([9]float32{1, 2, 3, 4, 5, 6, 7, 8, 9})

	assert.Equal(t, Matrix{{1, 4, 7}, {2, 5, 8}, {3, 6, 9}}, m)
	assert.Equal(t, [9]float32{1, 2, 3, 4, 5, 6, 7, 8, 9}, m.ColumnMajorValues())
}

func TestQuaternionPose(t *testing.T) {
	want := Pose{Roll: 20, Pitch: -15, Yaw: 100}
	got := FromMatrix(FromPose(want)).Pose()

	assert.InDelta(t, want.Roll, got.Roll, 1e-9)
	assert.InDelta(t, want.Pitch, got.Pitch, 1e-9)
	assert.InDelta(t, want.Yaw, got.Yaw, 1e-9)
}

func TestRotateMatchesMatrix(t *testing.T) {
	m := FromPose(Pose{Roll: 5, Pitch: 40, Yaw: -70})
	q := FromMatrix(m)
	v := [3]float64{0.3, -1.2, 2}

	want := m.MulVec(v)
	got := q.Rotate(v)
	for i := range want {
		assert.InDelta(t, want[i], got[i], 1e-9)
	}

	back := m.Transpose().MulVec(want)
	for i := range v {
		assert.InDelta(t, v[i], back[i], 1e-9)
	}
}

func TestNormalizeZero(t *testing.T) {
	assert.Equal(t, Quaternion{}, Quaternion{}.Normalize())
	assert.InDelta(t, 1.0, Quaternion{W: 2, X: 2, Y: 2, Z: 2}.Normalize().Norm(), 1e-12)
}

func TestMockPoseAt(t *testing.T) {
	p := MockPoseAt(math.Pi / 2)
	assert.InDelta(t, 20.0, p.Roll, 1e-9)
	assert.InDelta(t, 15*math.Pi, p.Yaw, 1e-9)
	assert.InDelta(t, 15*math.Cos(0.35*math.Pi), p.Pitch, 1e-9)
}
