package testutil

import (
	"testing"

	"gocv.io/x/gocv"
)

// MatsEqual reports whether a and b have identical dimensions, type, and
// pixel bytes.
func MatsEqual(a, b gocv.Mat) bool {
	if a.Rows() != b.Rows() || a.Cols() != b.Cols() || a.Type() != b.Type() {
		return false
	}
	return string(a.ToBytes()) == string(b.ToBytes())
}

// AssertMatsEqual fails the test if a and b are not pixel-identical.
func AssertMatsEqual(t *testing.T, a, b gocv.Mat, msg string) {
	t.Helper()
	if !MatsEqual(a, b) {
		t.Errorf("%s: mats differ (dims %dx%d type %d vs %dx%d type %d)",
			msg, a.Rows(), a.Cols(), a.Type(), b.Rows(), b.Cols(), b.Type())
	}
}
