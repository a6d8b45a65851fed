package stabilizego

import (
	"testing"

	"gocv.io/x/gocv"
)

func solidFrame(rows, cols int, val float64) Frame {
	mat := gocv.NewMatWithSize(rows, cols, gocv.MatTypeCV8UC3)
	mat.SetTo(gocv.Scalar{Val1: val, Val2: val, Val3: val})
	frame, err := NewFrame(mat, ColorBGR)
	if err != nil {
		panic(err)
	}
	return frame
}

func TestKeypointMethod_ValidateClosedSet(t *testing.T) {
	valid := []KeypointMethod{KPGFTT, KPBRISK, KPFAST, KPHARRIS, KPMSER, KPORB, KPSTAR, KPDense, KPSIFT, KPSURF}
	for _, m := range valid {
		if err := m.Validate(); err != nil {
			t.Errorf("Validate(%q) = %v, want nil", m, err)
		}
	}

	if err := KeypointMethod("nonsense").Validate(); err == nil {
		t.Errorf("Validate(%q) = nil, want error", "nonsense")
	}
}

func TestMotionEstimator_DegenerateFrameReturnsZeroTransform(t *testing.T) {
	// A solid-color frame has no trackable corners, so GoodFeaturesToTrack
	// returns zero keypoints; Step must report NoMotion rather than fail
	// (spec §4.3 step 2 / §7 DegenerateFrame).
	blank := solidFrame(64, 64, 128)
	defer blank.Close()

	est := NewMotionEstimator(KPGFTT, DefaultGFTTParams(), 0)
	defer est.Close()

	if err := est.Bootstrap(blank); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	if len(est.prevKps) != 0 {
		t.Fatalf("expected zero keypoints detected on a blank frame, got %d", len(est.prevKps))
	}

	next := solidFrame(64, 64, 128)
	defer next.Close()

	got, err := est.Step(next)
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	if !got.IsZero() {
		t.Errorf("Step on a keypoint-free frame = %+v, want zero transform", got)
	}
}

func TestMotionEstimator_DecideResizeIsStickyAfterFirstFrame(t *testing.T) {
	est := NewMotionEstimator(KPGFTT, DefaultGFTTParams(), 100)

	est.decideResize(200, 400) // longest side 400 > cap 100 => scale 0.25
	if est.resizeScale != 0.25 {
		t.Fatalf("resizeScale after first decide = %v, want 0.25", est.resizeScale)
	}

	// A later, differently-shaped frame must not re-decide.
	est.decideResize(50, 50)
	if est.resizeScale != 0.25 {
		t.Fatalf("resizeScale changed on second frame: got %v, want sticky 0.25", est.resizeScale)
	}
}

func TestMotionEstimator_NoResizeWhenWithinCap(t *testing.T) {
	est := NewMotionEstimator(KPGFTT, DefaultGFTTParams(), 1000)
	est.decideResize(200, 400)
	if est.resizeScale != 1.0 {
		t.Fatalf("resizeScale = %v, want 1.0 when frame is within processing_max_dim", est.resizeScale)
	}
}

func TestMotionEstimator_UnboundedProcessingMaxDimNeverResizes(t *testing.T) {
	est := NewMotionEstimator(KPGFTT, DefaultGFTTParams(), 0)
	est.decideResize(4000, 6000)
	if est.resizeScale != 1.0 {
		t.Fatalf("resizeScale = %v, want 1.0 when ProcessingMaxDim is unbounded", est.resizeScale)
	}
}
