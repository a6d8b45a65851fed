package numpy

import (
	"testing"

	"github.com/nmichlo/stabilizego/internal/testutil"
)

func TestBfillRollingMean_Basic(t *testing.T) {
	// 1 column, window 3: [1, 2, 3, 4, 5]
	// i=0: mean(1) = 1
	// i=1: mean(1,2) = 1.5
	// i=2: mean(1,2,3) = 2
	// i=3: mean(2,3,4) = 3
	// i=4: mean(3,4,5) = 4
	points := []float64{1, 2, 3, 4, 5}
	got := BfillRollingMean(points, 5, 1, 3)
	want := []float64{1, 1.5, 2, 3, 4}

	for i := range want {
		testutil.AssertAlmostEqual(t, got[i], want[i], 1e-12, "row")
	}
}

func TestBfillRollingMean_WindowLargerThanSeries(t *testing.T) {
	// window bigger than the whole series: every row is the running mean of everything seen so far
	points := []float64{2, 4, 6}
	got := BfillRollingMean(points, 3, 1, 100)
	want := []float64{2, 3, 4}

	for i := range want {
		testutil.AssertAlmostEqual(t, got[i], want[i], 1e-12, "row")
	}
}

func TestBfillRollingMean_MultiColumn(t *testing.T) {
	// 2 columns (e.g. dx, dy), window 2
	points := []float64{
		0, 10,
		2, 20,
		4, 30,
	}
	got := BfillRollingMean(points, 3, 2, 2)
	want := []float64{
		0, 10,
		1, 15,
		3, 25,
	}
	for i := range want {
		testutil.AssertAlmostEqual(t, got[i], want[i], 1e-12, "cell")
	}
}

func TestBfillRollingMean_EmptyInput(t *testing.T) {
	if got := BfillRollingMean(nil, 0, 3, 5); got != nil {
		t.Errorf("expected nil result for empty input, got %v", got)
	}
}
