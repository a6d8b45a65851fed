package stabilizego

import (
	"image"
	"image/color"
	"math"

	"gocv.io/x/gocv"
)

// Warper applies an affine transform to a bordered frame, preserving its
// dimensions, returning a BGRA frame.
type Warper struct{}

// NewWarper creates a Warper. Stateless; kept as a type for symmetry with
// the other pipeline stages and to leave room for future caching.
func NewWarper() *Warper { return &Warper{} }

// Warp builds the 2x3 affine matrix for t and applies it over bordered's
// dimensions using fillMode for newly exposed pixels, matching the border
// style the caller's BorderPolicy declared.
func (w *Warper) Warp(bordered Frame, t Transform, fillMode gocv.BorderType) (Frame, error) {
	m := t.AffineMatrix()
	matRows, matCols := m.Dims()
	data := make([]float64, matRows*matCols)
	for r := 0; r < matRows; r++ {
		for c := 0; c < matCols; c++ {
			data[r*matCols+c] = m.At(r, c)
		}
	}

	affine, err := gocv.NewMatFromBytes(matRows, matCols, gocv.MatTypeCV64F, float64SliceToBytes(data))
	if err != nil {
		return Frame{}, err
	}
	defer affine.Close()

	dst := gocv.NewMat()
	size := image.Pt(bordered.Image.Cols(), bordered.Image.Rows())
	gocv.WarpAffineWithParams(bordered.Image, &dst, affine, size, gocv.InterpolationLinear, fillMode, color.RGBA{})

	return NewFrame(dst, bordered.ColorFormat)
}

func float64SliceToBytes(data []float64) []byte {
	bytes := make([]byte, len(data)*8)
	for i, v := range data {
		bits := math.Float64bits(v)
		for b := 0; b < 8; b++ {
			bytes[i*8+b] = byte(bits >> (8 * b))
		}
	}
	return bytes
}
