// This file contains a Go port of the backward-filled rolling mean used by
// python_video_stab's general_utils.bfill_rolling_mean, itself built on
// pandas.DataFrame.rolling(window=n, min_periods=1).mean().

// Package numpy collects small numerical routines ported from numpy/pandas
// that the rest of the module needs in array form.
package numpy

// BfillRollingMean computes, for each row i and column independently, the
// mean of rows [max(0, i-n+1), i] of points. Unlike a strict rolling mean
// with min_periods=n, the first n-1 rows use whatever shorter prefix is
// available rather than reporting NaN/zero — hence "backward-filled": the
// window backfills itself from the start of the series.
//
// points is row-major, rows*cols long. The result has the same shape.
func BfillRollingMean(points []float64, rows, cols, n int) []float64 {
	if rows == 0 || cols == 0 {
		return nil
	}
	if n < 1 {
		n = 1
	}

	out := make([]float64, rows*cols)

	// prefix sums per column make each window's mean O(1) after the O(rows*cols) build.
	prefix := make([]float64, (rows+1)*cols)
	for i := 0; i < rows; i++ {
		for c := 0; c < cols; c++ {
			prefix[(i+1)*cols+c] = prefix[i*cols+c] + points[i*cols+c]
		}
	}

	for i := 0; i < rows; i++ {
		lo := i - n + 1
		if lo < 0 {
			lo = 0
		}
		windowLen := float64(i - lo + 1)
		for c := 0; c < cols; c++ {
			sum := prefix[(i+1)*cols+c] - prefix[lo*cols+c]
			out[i*cols+c] = sum / windowLen
		}
	}

	return out
}
