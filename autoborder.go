package stabilizego

import "math"

// cornerExtremes accumulates the worst-case absolute displacement of the
// four frame corners across every row of a transform set, per spec §4.6.
type cornerExtremes struct {
	minX, minY, maxX, maxY float64
}

// ComputeAutoBorder returns the minimal non-cropping border size for a
// height x width frame given the full set of transforms that will be
// applied across a video. For each row it builds the affine matrix and
// transforms the four corner points; across all rows and corners it
// accumulates the worst (maximum absolute) displacement in x and y. The
// returned size is round(max(minX, minY, maxX, maxY)).
func ComputeAutoBorder(height, width int, transforms []Transform) int {
	corners := [4][2]float64{
		{0, 0},                                   // top left
		{float64(height - 1), 0},                 // bottom left
		{0, float64(width - 1)},                   // top right
		{float64(height - 1), float64(width - 1)}, // bottom right
	}

	var ext cornerExtremes

	for _, t := range transforms {
		m := t.AffineMatrix()

		for idx, corner := range corners {
			// corner is stored (row, col) == (y, x) per spec's layout;
			// ApplyPoint expects (x, y).
			y, x := corner[0], corner[1]
			tx, ty := ApplyPoint(m, x, y)

			deltaX := math.Abs(x - tx)
			deltaY := math.Abs(y - ty)

			switch idx {
			case 0, 1: // top-left, bottom-left => contributes to min_x via x-delta
				ext.minX = math.Max(ext.minX, deltaX)
			case 2, 3: // top-right, bottom-right => contributes to max_x via x-delta
				ext.maxX = math.Max(ext.maxX, deltaX)
			}
			switch idx {
			case 0, 2: // top-left, top-right => contributes to min_y via y-delta
				ext.minY = math.Max(ext.minY, deltaY)
			case 1, 3: // bottom-left, bottom-right => contributes to max_y via y-delta
				ext.maxY = math.Max(ext.maxY, deltaY)
			}
		}
	}

	worst := math.Max(math.Max(ext.minX, ext.minY), math.Max(ext.maxX, ext.maxY))
	return int(math.Round(worst))
}

// CornerExtremes exposes the accumulated per-direction displacement so
// callers can verify Testable Property #9 (no transformed frame's original
// content is clipped by the output rectangle) without recomputing.
func CornerExtremes(height, width int, transforms []Transform) (minX, minY, maxX, maxY float64) {
	corners := [4][2]float64{
		{0, 0},
		{float64(height - 1), 0},
		{0, float64(width - 1)},
		{float64(height - 1), float64(width - 1)},
	}

	var ext cornerExtremes
	for _, t := range transforms {
		m := t.AffineMatrix()
		for idx, corner := range corners {
			y, x := corner[0], corner[1]
			tx, ty := ApplyPoint(m, x, y)
			deltaX := math.Abs(x - tx)
			deltaY := math.Abs(y - ty)
			switch idx {
			case 0, 1:
				ext.minX = math.Max(ext.minX, deltaX)
			case 2, 3:
				ext.maxX = math.Max(ext.maxX, deltaX)
			}
			switch idx {
			case 0, 2:
				ext.minY = math.Max(ext.minY, deltaY)
			case 1, 3:
				ext.maxY = math.Max(ext.maxY, deltaY)
			}
		}
	}
	return ext.minX, ext.minY, ext.maxX, ext.maxY
}
