package stabilizego

import (
	"github.com/nmichlo/stabilizego/internal/numpy"
)

// TrajectoryStore accumulates raw per-frame transforms, maintains the
// cumulative trajectory, and on demand computes a smoothed trajectory and
// the residual transforms actually applied when warping.
//
// Invariants (see spec §3, §8):
//
//	raw[i] is the transform taking frame i to frame i+1.
//	trajectory[i] = sum_{k<=i} raw[k], componentwise.
//	smoothed[i] = backward-filled moving average of trajectory over the last N rows.
//	transforms[i] = raw[i] + (smoothed[i] - trajectory[i]).
type TrajectoryStore struct {
	raw        []Transform
	trajectory []Transform
	smoothed   []Transform
	transforms []Transform

	// maxFrames caps all four arrays to their first maxFrames-1 rows after
	// Recompute, once set and reached. 0 means unbounded.
	maxFrames int
}

// NewTrajectoryStore creates an empty TrajectoryStore. maxFrames of 0 means
// unbounded.
func NewTrajectoryStore(maxFrames int) *TrajectoryStore {
	return &TrajectoryStore{maxFrames: maxFrames}
}

// Len returns the number of raw transforms appended so far.
func (s *TrajectoryStore) Len() int { return len(s.raw) }

// Append adds raw to the raw-transform list and extends the cumulative
// trajectory by one row.
func (s *TrajectoryStore) Append(raw Transform) {
	s.raw = append(s.raw, raw)

	if len(s.trajectory) == 0 {
		s.trajectory = append(s.trajectory, raw)
		return
	}
	last := s.trajectory[len(s.trajectory)-1]
	s.trajectory = append(s.trajectory, last.Add(raw))
}

// Raw returns the i-th raw transform.
func (s *TrajectoryStore) Raw(i int) Transform { return s.raw[i] }

// Trajectory returns the i-th cumulative trajectory row.
func (s *TrajectoryStore) Trajectory(i int) Transform { return s.trajectory[i] }

// Smoothed returns the i-th smoothed-trajectory row. Only valid after
// Recompute.
func (s *TrajectoryStore) Smoothed(i int) Transform { return s.smoothed[i] }

// Transforms returns the i-th residual transform; the apply loops warp the
// buffered frame with index i by it. Only valid after Recompute.
func (s *TrajectoryStore) Transforms(i int) Transform { return s.transforms[i] }

// InRange reports whether i is a valid index into Transforms.
func (s *TrajectoryStore) InRange(i int) bool { return i >= 0 && i < len(s.transforms) }

// TransformsAll returns a copy of the full residual transform slice. Only
// valid after Recompute; used by the orchestrator's auto-border pass and by
// use-stored-transforms replay.
func (s *TrajectoryStore) TransformsAll() []Transform {
	out := make([]Transform, len(s.transforms))
	copy(out, s.transforms)
	return out
}

// Recompute derives smoothed and transforms from the current trajectory
// using a backward-filled moving average over window rows, then applies the
// max_frames truncation rule (spec §3, §4.4): if maxFrames M is set and
// reached, all four arrays are truncated to their first M-1 rows.
func (s *TrajectoryStore) Recompute(window int) {
	n := len(s.trajectory)
	flat := make([]float64, n*3)
	for i, t := range s.trajectory {
		flat[i*3+0] = t.Dx
		flat[i*3+1] = t.Dy
		flat[i*3+2] = t.Dtheta
	}

	smoothedFlat := numpy.BfillRollingMean(flat, n, 3, window)

	s.smoothed = make([]Transform, n)
	s.transforms = make([]Transform, n)
	for i := 0; i < n; i++ {
		smoothed := Transform{Dx: smoothedFlat[i*3+0], Dy: smoothedFlat[i*3+1], Dtheta: smoothedFlat[i*3+2]}
		s.smoothed[i] = smoothed
		s.transforms[i] = s.raw[i].Add(smoothed.Sub(s.trajectory[i]))
	}

	if s.maxFrames > 0 && n >= s.maxFrames {
		cap := s.maxFrames - 1
		if cap < 0 {
			cap = 0
		}
		if cap > n {
			cap = n
		}
		s.raw = s.raw[:cap]
		s.trajectory = s.trajectory[:cap]
		s.smoothed = s.smoothed[:cap]
		s.transforms = s.transforms[:cap]
	}
}
