package stabilizego

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Transform is a 3-DOF rigid motion: (Dx, Dy) pixel translation plus Dtheta
// rotation in radians. Composition in this package is additive per
// component — correct only for the small-angle, small-translation regime
// handheld-camera shake lives in; see the trajectory/smoothing discussion in
// TrajectoryStore.
type Transform struct {
	Dx, Dy, Dtheta float64
}

// Add returns the componentwise sum of t and o.
func (t Transform) Add(o Transform) Transform {
	return Transform{Dx: t.Dx + o.Dx, Dy: t.Dy + o.Dy, Dtheta: t.Dtheta + o.Dtheta}
}

// Sub returns the componentwise difference t - o.
func (t Transform) Sub(o Transform) Transform {
	return Transform{Dx: t.Dx - o.Dx, Dy: t.Dy - o.Dy, Dtheta: t.Dtheta - o.Dtheta}
}

// IsZero reports whether all three components are exactly zero.
func (t Transform) IsZero() bool {
	return t.Dx == 0 && t.Dy == 0 && t.Dtheta == 0
}

// AffineMatrix builds the 2x3 affine matrix
//
//	[[cos(theta), -sin(theta), dx],
//	 [sin(theta),  cos(theta), dy]]
//
// that represents t, as a gonum *mat.Dense with shape (2, 3).
func (t Transform) AffineMatrix() *mat.Dense {
	cos, sin := math.Cos(t.Dtheta), math.Sin(t.Dtheta)
	return mat.NewDense(2, 3, []float64{
		cos, -sin, t.Dx,
		sin, cos, t.Dy,
	})
}

// ApplyPoint applies m (a 2x3 affine matrix, as produced by AffineMatrix) to
// the 2-D point (x, y) and returns the transformed point.
func ApplyPoint(m *mat.Dense, x, y float64) (float64, float64) {
	nx := m.At(0, 0)*x + m.At(0, 1)*y + m.At(0, 2)
	ny := m.At(1, 0)*x + m.At(1, 1)*y + m.At(1, 2)
	return nx, ny
}
