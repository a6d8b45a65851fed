package stabilizego

import (
	"fmt"

	"gocv.io/x/gocv"
)

// ColorFormat names the color space a Frame's image is currently in.
type ColorFormat string

const (
	ColorGray ColorFormat = "GRAY"
	ColorBGR  ColorFormat = "BGR"
	ColorBGRA ColorFormat = "BGRA"
)

// conversionCode maps a (from, to) color format pair to the gocv.ColorConversionCode
// that performs it. Only the pairs the stabilization pipeline actually needs are
// populated; anything else is ErrUnsupportedConversion.
var conversionCode = map[[2]ColorFormat]gocv.ColorConversionCode{
	{ColorBGR, ColorGray}:  gocv.ColorBGRToGray,
	{ColorBGR, ColorBGRA}:  gocv.ColorBGRToBGRA,
	{ColorBGRA, ColorGray}: gocv.ColorBGRAToGray,
	{ColorBGRA, ColorBGR}:  gocv.ColorBGRAToBGR,
	{ColorGray, ColorBGR}:  gocv.ColorGrayToBGR,
	{ColorGray, ColorBGRA}: gocv.ColorGrayToBGRA,
}

// Frame wraps a gocv.Mat with a declared color format and converts between
// GRAY/BGR/BGRA lazily. A zero Frame is not valid; use NewFrame.
type Frame struct {
	Image       gocv.Mat
	ColorFormat ColorFormat
}

// NewFrame wraps image, inferring its ColorFormat from shape when format is "".
// 2-D images are GRAY, 3-channel images are BGR, 4-channel images are BGRA; any
// other shape fails with ErrInvalidFrameShape.
func NewFrame(image gocv.Mat, format ColorFormat) (Frame, error) {
	if format != "" {
		return Frame{Image: image, ColorFormat: format}, nil
	}

	switch image.Channels() {
	case 1:
		return Frame{Image: image, ColorFormat: ColorGray}, nil
	case 3:
		return Frame{Image: image, ColorFormat: ColorBGR}, nil
	case 4:
		return Frame{Image: image, ColorFormat: ColorBGRA}, nil
	default:
		return Frame{}, fmt.Errorf("%w: %d channels", ErrInvalidFrameShape, image.Channels())
	}
}

// To converts f.Image into target, returning a new Frame. It is a no-op
// (the same underlying Mat) if f is already in target. Conversions are
// produced on demand; nothing is cached across calls.
func (f Frame) To(target ColorFormat) (Frame, error) {
	if f.ColorFormat == target {
		return f, nil
	}

	code, ok := conversionCode[[2]ColorFormat{f.ColorFormat, target}]
	if !ok {
		return Frame{}, fmt.Errorf("%w: %s -> %s", ErrUnsupportedConversion, f.ColorFormat, target)
	}

	converted := gocv.NewMat()
	gocv.CvtColor(f.Image, &converted, code)
	return Frame{Image: converted, ColorFormat: target}, nil
}

// Gray returns f converted to ColorGray.
func (f Frame) Gray() (Frame, error) { return f.To(ColorGray) }

// BGR returns f converted to ColorBGR.
func (f Frame) BGR() (Frame, error) { return f.To(ColorBGR) }

// BGRA returns f converted to ColorBGRA.
func (f Frame) BGRA() (Frame, error) { return f.To(ColorBGRA) }

// Close releases the underlying Mat. Safe to call on a Frame whose Mat is
// already closed or empty.
func (f Frame) Close() {
	if f.Image.Ptr() != nil {
		f.Image.Close()
	}
}
