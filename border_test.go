package stabilizego

import (
	"testing"

	"gocv.io/x/gocv"
)

func TestBorderType_ValidateClosedSet(t *testing.T) {
	for _, bt := range []BorderType{BorderBlack, BorderReflect, BorderReplicate} {
		if err := bt.Validate(); err != nil {
			t.Errorf("Validate(%q) = %v, want nil", bt, err)
		}
	}
	if err := BorderType("sepia").Validate(); err == nil {
		t.Errorf("Validate(%q) = nil, want error", "sepia")
	}
}

func TestResolveFixed_PositiveIsPadOnly(t *testing.T) {
	r := resolveFixed(15)
	if r.pad != 15 || r.crop != 0 {
		t.Errorf("resolveFixed(15) = %+v, want {pad:15 crop:0}", r)
	}
}

func TestResolveFixed_ZeroIsNoOp(t *testing.T) {
	r := resolveFixed(0)
	if r.pad != 0 || r.crop != 0 {
		t.Errorf("resolveFixed(0) = %+v, want {pad:0 crop:0}", r)
	}
}

func TestResolveFixed_NegativeIsPadThenCrop(t *testing.T) {
	// negative s => pad 100 each side, crop (100+|s|) each side after warp.
	r := resolveFixed(-20)
	if r.pad != 100 || r.crop != 120 {
		t.Errorf("resolveFixed(-20) = %+v, want {pad:100 crop:120}", r)
	}
}

func TestBorderPolicy_ApplyMarksAlphaInsideOutside(t *testing.T) {
	policy, err := NewBorderPolicy(BorderBlack, FixedBorder(10))
	if err != nil {
		t.Fatalf("NewBorderPolicy: %v", err)
	}

	mat := gocv.NewMatWithSize(20, 30, gocv.MatTypeCV8UC3)
	mat.SetTo(gocv.Scalar{Val1: 200, Val2: 200, Val3: 200})
	frame, err := NewFrame(mat, ColorBGR)
	if err != nil {
		t.Fatalf("NewFrame: %v", err)
	}
	defer frame.Close()

	bordered, err := policy.Apply(frame)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	defer bordered.Close()

	if bordered.Image.Rows() != 40 || bordered.Image.Cols() != 50 {
		t.Fatalf("bordered dims = %dx%d, want 40x50", bordered.Image.Rows(), bordered.Image.Cols())
	}
	if bordered.ColorFormat != ColorBGRA {
		t.Fatalf("bordered format = %v, want BGRA", bordered.ColorFormat)
	}

	channels := gocv.Split(bordered.Image)
	defer func() {
		for _, c := range channels {
			c.Close()
		}
	}()
	alpha := channels[3]

	if v := alpha.GetUCharAt(0, 0); v != 0 {
		t.Errorf("border-region alpha = %d, want 0", v)
	}
	if v := alpha.GetUCharAt(20, 25); v != 255 {
		t.Errorf("original-region alpha = %d, want 255", v)
	}
}

func TestBorderPolicy_CropUndoesNegativeBorderPad(t *testing.T) {
	policy, err := NewBorderPolicy(BorderBlack, FixedBorder(-5))
	if err != nil {
		t.Fatalf("NewBorderPolicy: %v", err)
	}
	// pad=100, crop=105: net effect is a 5px inward crop around the original.
	if policy.PadSize() != 100 || policy.CropSize() != 105 {
		t.Fatalf("pad/crop = %d/%d, want 100/105", policy.PadSize(), policy.CropSize())
	}

	mat := gocv.NewMatWithSize(300, 300, gocv.MatTypeCV8UC4)
	frame, err := NewFrame(mat, ColorBGRA)
	if err != nil {
		t.Fatalf("NewFrame: %v", err)
	}
	defer frame.Close()

	cropped, err := policy.Crop(frame)
	if err != nil {
		t.Fatalf("Crop: %v", err)
	}
	defer cropped.Close()

	if cropped.Image.Rows() != 90 || cropped.Image.Cols() != 90 {
		t.Fatalf("cropped dims = %dx%d, want 90x90 (300 - 2*105)", cropped.Image.Rows(), cropped.Image.Cols())
	}
}

func TestBorderPolicy_CropNoOpWhenNoCrop(t *testing.T) {
	policy, err := NewBorderPolicy(BorderBlack, FixedBorder(10))
	if err != nil {
		t.Fatalf("NewBorderPolicy: %v", err)
	}

	mat := gocv.NewMatWithSize(50, 50, gocv.MatTypeCV8UC4)
	frame, err := NewFrame(mat, ColorBGRA)
	if err != nil {
		t.Fatalf("NewFrame: %v", err)
	}
	defer frame.Close()

	out, err := policy.Crop(frame)
	if err != nil {
		t.Fatalf("Crop: %v", err)
	}
	if out.Image.Ptr() != frame.Image.Ptr() {
		t.Errorf("Crop with no crop amount should return the same Mat unchanged")
	}
}

func TestNewBorderPolicy_RejectsAutoSize(t *testing.T) {
	if _, err := NewBorderPolicy(BorderBlack, AutoBorderSize()); err == nil {
		t.Errorf("NewBorderPolicy with an unresolved auto size should error")
	}
}
