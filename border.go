package stabilizego

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

// imageRect builds an image.Rectangle from a top-left point and size, used
// to address sub-regions of a gocv.Mat.
func imageRect(x, y, w, h int) image.Rectangle {
	return image.Rect(x, y, x+w, y+h)
}

// BorderType selects how newly exposed pixels outside the original frame
// rectangle are filled.
type BorderType string

const (
	BorderBlack     BorderType = "black"
	BorderReflect   BorderType = "reflect"
	BorderReplicate BorderType = "replicate"
)

var borderMode = map[BorderType]gocv.BorderType{
	BorderBlack:     gocv.BorderConstant,
	BorderReflect:   gocv.BorderReflect,
	BorderReplicate: gocv.BorderReplicate,
}

// Validate reports ErrInvalidBorderType if t is outside the closed set.
func (t BorderType) Validate() error {
	if _, ok := borderMode[t]; !ok {
		return fmt.Errorf("%w: %q", ErrInvalidBorderType, t)
	}
	return nil
}

// BorderSize resolves to a concrete per-side pad (positive), an inward crop
// (negative, stored separately), or "auto" (resolved later by AutoBorder).
// Exactly one of the constructors below should be used.
type BorderSize struct {
	auto bool
	size int
}

// FixedBorder requests a fixed pad (size > 0), no-op (size == 0), or inward
// crop (size < 0) border.
func FixedBorder(size int) BorderSize { return BorderSize{size: size} }

// AutoBorderSize requests the two-pass auto-computed border (spec §4.6).
func AutoBorderSize() BorderSize { return BorderSize{auto: true} }

// IsAuto reports whether this BorderSize must be resolved by AutoBorder
// before a warp can run.
func (b BorderSize) IsAuto() bool { return b.auto }

// resolvedBorder is the fully-resolved pad/crop state BorderPolicy.Apply and
// Crop operate on, derived from spec §4.5:
//
//	positive s => pad each side by s, no crop.
//	zero       => no pad, no crop.
//	negative s => pad each side by 100, crop each side by 100+|s| after warp
//	              (net effect: an |s|-pixel inward crop of the original frame).
type resolvedBorder struct {
	pad  int
	crop int
}

func resolveFixed(size int) resolvedBorder {
	if size < 0 {
		return resolvedBorder{pad: 100, crop: 100 + -size}
	}
	return resolvedBorder{pad: size, crop: 0}
}

// BorderPolicy resolves a requested BorderSize into concrete pad/crop
// amounts, applies the border (with an alpha channel marking original vs.
// filled pixels), and crops the negative-border inset back out after warp.
type BorderPolicy struct {
	borderType BorderType
	resolved   resolvedBorder
}

// NewBorderPolicy validates borderType and resolves a non-auto size. Callers
// using AutoBorderSize must instead compute the pad with ComputeAutoBorder
// once the transform set is known, then construct via NewResolvedBorderPolicy.
func NewBorderPolicy(borderType BorderType, size BorderSize) (*BorderPolicy, error) {
	if err := borderType.Validate(); err != nil {
		return nil, err
	}
	if size.IsAuto() {
		return nil, fmt.Errorf("stabilizego: NewBorderPolicy called with an unresolved auto BorderSize")
	}
	return &BorderPolicy{borderType: borderType, resolved: resolveFixed(size.size)}, nil
}

// NewResolvedBorderPolicy builds a BorderPolicy directly from an already
//-resolved positive pad amount, as produced by AutoBorder (spec: "auto =>
// resolved by AutoBorder after the transform set is known; then treated as
// positive").
func NewResolvedBorderPolicy(borderType BorderType, pad int) (*BorderPolicy, error) {
	if err := borderType.Validate(); err != nil {
		return nil, err
	}
	return &BorderPolicy{borderType: borderType, resolved: resolvedBorder{pad: pad}}, nil
}

// PadSize returns the per-side pad amount applied by Apply.
func (p *BorderPolicy) PadSize() int { return p.resolved.pad }

// CropSize returns the per-side crop amount applied by Crop (0 unless a
// negative border was requested).
func (p *BorderPolicy) CropSize() int { return p.resolved.crop }

// Mode returns the gocv.BorderType the border's fill style maps to, for
// passing to Warper.
func (p *BorderPolicy) Mode() gocv.BorderType { return borderMode[p.borderType] }

// Apply extends frame by the resolved pad on all sides using the policy's
// fill mode and produces an alpha channel that is 0 in the border region
// and 255 within the original frame rectangle, returning a BGRA frame.
func (p *BorderPolicy) Apply(frame Frame) (Frame, error) {
	size := p.resolved.pad

	bordered := gocv.NewMat()
	gocv.CopyMakeBorder(frame.Image, &bordered, size, size, size, size, p.Mode(), color.RGBA{})

	borderedFrame, err := NewFrame(bordered, frame.ColorFormat)
	if err != nil {
		bordered.Close()
		return Frame{}, err
	}

	bgra, err := borderedFrame.BGRA()
	if err != nil {
		bordered.Close()
		return Frame{}, err
	}
	if bgra.Image.Ptr() != bordered.Ptr() {
		bordered.Close()
	}

	h, w := frame.Image.Rows(), frame.Image.Cols()
	channels := gocv.Split(bgra.Image)
	bgra.Image.Close()
	defer func() {
		for _, c := range channels {
			c.Close()
		}
	}()

	alpha := channels[3]
	alpha.SetTo(gocv.Scalar{Val1: 0})
	inner := alpha.Region(imageRect(size, size, w, h))
	inner.SetTo(gocv.Scalar{Val1: 255})
	inner.Close()

	merged := gocv.NewMat()
	gocv.Merge(channels, &merged)

	return NewFrame(merged, ColorBGRA)
}

// Crop removes the resolved crop amount from each side of frame; for
// negative-border requests that is the 100-pixel pad plus the requested
// |s|-pixel inset. It is a no-op when no negative crop is in effect.
func (p *BorderPolicy) Crop(frame Frame) (Frame, error) {
	if p.resolved.crop == 0 {
		return frame, nil
	}
	c := p.resolved.crop
	w, h := frame.Image.Cols(), frame.Image.Rows()
	if w <= 2*c || h <= 2*c {
		return Frame{}, fmt.Errorf("stabilizego: crop size %d too large for frame %dx%d", c, w, h)
	}
	region := frame.Image.Region(imageRect(c, c, w-2*c, h-2*c))
	cropped := region.Clone()
	region.Close()
	return NewFrame(cropped, frame.ColorFormat)
}
