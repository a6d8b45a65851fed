package stabilizego

import (
	"math"
	"testing"

	"github.com/nmichlo/stabilizego/internal/testutil"
	"gonum.org/v1/gonum/mat"
)

func TestTransform_AddSub(t *testing.T) {
	a := Transform{Dx: 1, Dy: 2, Dtheta: 0.1}
	b := Transform{Dx: 3, Dy: -1, Dtheta: 0.2}

	got := a.Add(b)
	want := Transform{Dx: 4, Dy: 1, Dtheta: 0.3}
	if math.Abs(got.Dx-want.Dx) > tol || math.Abs(got.Dy-want.Dy) > tol || math.Abs(got.Dtheta-want.Dtheta) > tol {
		t.Fatalf("Add = %+v, want %+v", got, want)
	}

	diff := a.Add(b).Sub(b)
	if math.Abs(diff.Dx-a.Dx) > tol || math.Abs(diff.Dy-a.Dy) > tol || math.Abs(diff.Dtheta-a.Dtheta) > tol {
		t.Fatalf("Add then Sub did not round-trip: got %+v, want %+v", diff, a)
	}
}

func TestTransform_IsZero(t *testing.T) {
	if !(Transform{}).IsZero() {
		t.Error("zero-value Transform.IsZero() = false, want true")
	}
	if (Transform{Dx: 0.001}).IsZero() {
		t.Error("Transform{Dx: 0.001}.IsZero() = true, want false")
	}
}

func TestTransform_AffineMatrixZeroRotationIsPureTranslation(t *testing.T) {
	tr := Transform{Dx: 5, Dy: -3, Dtheta: 0}
	want := mat.NewDense(2, 3, []float64{1, 0, 5, 0, 1, -3})
	testutil.AssertMatrixAlmostEqual(t, tr.AffineMatrix(), want, 1e-12, "zero-rotation affine matrix")
}

func TestTransform_AffineMatrixQuarterTurn(t *testing.T) {
	tr := Transform{Dx: 0, Dy: 0, Dtheta: math.Pi / 2}
	want := mat.NewDense(2, 3, []float64{0, -1, 0, 1, 0, 0})
	testutil.AssertMatrixAlmostEqual(t, tr.AffineMatrix(), want, 1e-9, "90-degree affine matrix")
}

func TestApplyPoint_IdentityTransform(t *testing.T) {
	m := (Transform{}).AffineMatrix()
	x, y := ApplyPoint(m, 7, 11)
	if math.Abs(x-7) > tol || math.Abs(y-11) > tol {
		t.Fatalf("ApplyPoint under identity = (%v, %v), want (7, 11)", x, y)
	}
}

func TestApplyPoint_PureTranslation(t *testing.T) {
	m := (Transform{Dx: 2, Dy: -4}).AffineMatrix()
	x, y := ApplyPoint(m, 1, 1)
	if math.Abs(x-3) > tol || math.Abs(y-(-3)) > tol {
		t.Fatalf("ApplyPoint under (dx=2,dy=-4) = (%v, %v), want (3, -3)", x, y)
	}
}
