package stabilizego

import "testing"

const tol = 1e-9

func almostEqualTransform(t Transform, dx, dy, dtheta float64) bool {
	const eps = 1e-9
	diff := func(a, b float64) float64 {
		if a > b {
			return a - b
		}
		return b - a
	}
	return diff(t.Dx, dx) < eps && diff(t.Dy, dy) < eps && diff(t.Dtheta, dtheta) < eps
}

func TestTrajectoryStore_ZeroMotionLaw(t *testing.T) {
	// S1: all raw rows zero -> all transforms zero (Testable Property #5)
	store := NewTrajectoryStore(0)
	for i := 0; i < 59; i++ {
		store.Append(Transform{})
	}
	store.Recompute(30)

	for i := 0; i < store.Len(); i++ {
		tr := store.Transforms(i)
		if !tr.IsZero() {
			t.Fatalf("transforms[%d] = %+v, want zero", i, tr)
		}
	}
}

func TestTrajectoryStore_TrajectoryLaw(t *testing.T) {
	// Testable Property #2: trajectory[i] == trajectory[i-1] + raw[i]
	store := NewTrajectoryStore(0)
	raws := []Transform{{Dx: -1, Dy: 0, Dtheta: 0}, {Dx: -1, Dy: 0.1, Dtheta: 0.01}, {Dx: -1, Dy: 0, Dtheta: -0.02}}
	for _, r := range raws {
		store.Append(r)
	}

	for i := 1; i < store.Len(); i++ {
		want := store.Trajectory(i - 1).Add(store.Raw(i))
		got := store.Trajectory(i)
		if !almostEqualTransform(got, want.Dx, want.Dy, want.Dtheta) {
			t.Fatalf("trajectory[%d] = %+v, want %+v", i, got, want)
		}
	}
}

func TestTrajectoryStore_ResidualLaw(t *testing.T) {
	// Testable Property #3: transforms[i] == raw[i] + smoothed[i] - trajectory[i]
	store := NewTrajectoryStore(0)
	for i := 0; i < 10; i++ {
		store.Append(Transform{Dx: float64(i) * -1, Dy: float64(i) * 0.5, Dtheta: float64(i) * 0.001})
	}
	store.Recompute(4)

	for i := 0; i < store.Len(); i++ {
		want := store.Raw(i).Add(store.Smoothed(i).Sub(store.Trajectory(i)))
		got := store.Transforms(i)
		if !almostEqualTransform(got, want.Dx, want.Dy, want.Dtheta) {
			t.Fatalf("transforms[%d] = %+v, want %+v", i, got, want)
		}
	}
}

func TestTrajectoryStore_SmoothingLaw(t *testing.T) {
	// Testable Property #4: smoothed[i] == mean(trajectory[max(0,i-N+1)..i])
	store := NewTrajectoryStore(0)
	for i := 0; i < 6; i++ {
		store.Append(Transform{Dx: float64(i), Dy: 0, Dtheta: 0})
	}
	store.Recompute(3)

	// trajectory = cumsum([0,1,2,3,4,5]) = [0,1,3,6,10,15]
	expected := []float64{0, 0.5, 4.0 / 3, 10.0 / 3, 19.0 / 3, 31.0 / 3}
	for i, want := range expected {
		got := store.Smoothed(i).Dx
		if diff := got - want; diff > tol || diff < -tol {
			t.Fatalf("smoothed[%d].Dx = %v, want %v", i, got, want)
		}
	}
}

func TestTrajectoryStore_LengthsMatchAfterRecompute(t *testing.T) {
	// Testable Property #1
	store := NewTrajectoryStore(0)
	for i := 0; i < 12; i++ {
		store.Append(Transform{Dx: float64(i)})
	}
	store.Recompute(5)

	n := store.Len()
	if len(store.raw) != n || len(store.trajectory) != n || len(store.smoothed) != n || len(store.transforms) != n {
		t.Fatalf("array length mismatch after recompute")
	}
}

func TestTrajectoryStore_MaxFramesTruncation(t *testing.T) {
	store := NewTrajectoryStore(5) // M = 5 -> truncate to M-1 = 4 rows
	for i := 0; i < 10; i++ {
		store.Append(Transform{Dx: float64(i)})
	}
	store.Recompute(3)

	if store.Len() != 4 {
		t.Fatalf("Len() after truncation = %d, want 4", store.Len())
	}
}

func TestTrajectoryStore_PureTranslationResidualStaysBounded(t *testing.T) {
	// S2: raw[i] ~= (-1, 0, 0) for a 40-frame (39-transform) pure right-shift pan. A moving
	// average lags a linear ramp by a roughly constant offset (about half
	// the window), so transforms settle to a bounded constant rather than
	// drifting with the unbounded raw trajectory — that bounded residual,
	// not an exact zero, is what "approximately stationary" output relies on.
	store := NewTrajectoryStore(0)
	n := 39
	for i := 0; i < n; i++ {
		store.Append(Transform{Dx: -1, Dy: 0, Dtheta: 0})
	}
	store.Recompute(30)

	late := store.Transforms(n - 2).Dx
	latest := store.Transforms(n - 1).Dx
	if diff := late - latest; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("residual transform should have settled to a constant by the tail of a linear ramp: got %v then %v", late, latest)
	}
	trajDrift := store.Trajectory(n - 1).Dx
	abs := func(v float64) float64 {
		if v < 0 {
			return -v
		}
		return v
	}
	if abs(late) >= abs(trajDrift) {
		t.Fatalf("residual transform (%v) should stay far smaller in magnitude than the raw drift (%v)", late, trajDrift)
	}
}
