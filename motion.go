package stabilizego

import (
	"fmt"
	"image"
	"math"

	"gocv.io/x/gocv"
)

// KeypointMethod names a keypoint detector from the closed set spec.md §6
// recognizes. Only GFTT (goodFeaturesToTrack) is wired to an actual gocv
// detector; the others are accepted as configuration values (so callers can
// express the same closed set the Python original exposes) but currently
// resolve to the GFTT detector, since gocv's non-GFTT feature detectors
// (BRISK/ORB/etc.) return binary-descriptor keypoints unsuited to the dense,
// small-baseline tracking sparse LK needs here; see DESIGN.md.
type KeypointMethod string

const (
	KPGFTT   KeypointMethod = "GFTT"
	KPBRISK  KeypointMethod = "BRISK"
	KPFAST   KeypointMethod = "FAST"
	KPHARRIS KeypointMethod = "HARRIS"
	KPMSER   KeypointMethod = "MSER"
	KPORB    KeypointMethod = "ORB"
	KPSTAR   KeypointMethod = "STAR"
	KPDense  KeypointMethod = "DENSE"
	KPSIFT   KeypointMethod = "SIFT"
	KPSURF   KeypointMethod = "SURF"
)

var validKeypointMethods = map[KeypointMethod]bool{
	KPGFTT: true, KPBRISK: true, KPFAST: true, KPHARRIS: true, KPMSER: true,
	KPORB: true, KPSTAR: true, KPDense: true, KPSIFT: true, KPSURF: true,
}

// Validate reports an error if m is outside the closed set of recognized
// keypoint detector names.
func (m KeypointMethod) Validate() error {
	if !validKeypointMethods[m] {
		return fmt.Errorf("stabilizego: unrecognized kp_method %q", m)
	}
	return nil
}

// GFTTParams configures gocv.GoodFeaturesToTrack. Zero value is invalid;
// use DefaultGFTTParams. BlockSize is not passed on: gocv's
// GoodFeaturesToTrack takes no block-size argument.
type GFTTParams struct {
	MaxCorners   int
	QualityLevel float64
	MinDistance  float64
	BlockSize    int
}

// DefaultGFTTParams reproduces the defaults from Nghia Ho's original
// algorithm writeup (http://nghiaho.com/?p=2093), carried forward by
// python_video_stab as VidStab's GFTT default.
func DefaultGFTTParams() GFTTParams {
	return GFTTParams{MaxCorners: 200, QualityLevel: 0.01, MinDistance: 30.0, BlockSize: 3}
}

// MotionEstimator holds prior-frame grayscale image and prior keypoints; it
// tracks sparse optical flow frame to frame and derives one (dx, dy, dtheta)
// raw transform per step, rescaling translations back to full resolution if
// a processing_max_dim cap is active (spec §4.3, §9 open question #1).
type MotionEstimator struct {
	Method           KeypointMethod
	GFTT             GFTTParams
	ProcessingMaxDim float64 // 0 or +Inf disables resizing

	prevGray gocv.Mat
	prevKps  [][2]float32

	resizeDecided bool
	resizeScale   float64 // 1.0 if disabled
}

// NewMotionEstimator creates a MotionEstimator with the given keypoint
// method and processing size cap. processingMaxDim of 0 means unbounded
// (spec default +Inf).
func NewMotionEstimator(method KeypointMethod, gfft GFTTParams, processingMaxDim float64) *MotionEstimator {
	return &MotionEstimator{
		Method:           method,
		GFTT:             gfft,
		ProcessingMaxDim: processingMaxDim,
		prevGray:         gocv.NewMat(),
		resizeScale:      1.0,
	}
}

// Close releases the MotionEstimator's retained prior-frame Mat.
func (m *MotionEstimator) Close() {
	if m.prevGray.Ptr() != nil {
		m.prevGray.Close()
		m.prevGray = gocv.NewMat()
	}
}

// decideResize computes the persistent resize spec the first time it sees a
// frame whose longest side exceeds ProcessingMaxDim; it is a no-op on every
// later call (spec §4.3 "Resize policy").
func (m *MotionEstimator) decideResize(rows, cols int) {
	if m.resizeDecided {
		return
	}
	m.resizeDecided = true

	if m.ProcessingMaxDim <= 0 || math.IsInf(m.ProcessingMaxDim, 1) {
		m.resizeScale = 1.0
		return
	}

	longest := math.Max(float64(rows), float64(cols))
	if longest <= m.ProcessingMaxDim {
		m.resizeScale = 1.0
		return
	}
	m.resizeScale = m.ProcessingMaxDim / longest
}

// prepGray converts frame to grayscale and applies the persistent resize
// spec (deciding it first, if this is the first frame seen).
func (m *MotionEstimator) prepGray(frame Frame) (gocv.Mat, error) {
	gray, err := frame.Gray()
	if err != nil {
		return gocv.Mat{}, err
	}

	m.decideResize(gray.Image.Rows(), gray.Image.Cols())

	if m.resizeScale == 1.0 {
		return gray.Image, nil
	}

	resized := gocv.NewMat()
	newW := int(math.Round(float64(gray.Image.Cols()) * m.resizeScale))
	newH := int(math.Round(float64(gray.Image.Rows()) * m.resizeScale))
	gocv.Resize(gray.Image, &resized, image.Pt(newW, newH), 0, 0, gocv.InterpolationLinear)
	gray.Close()
	return resized, nil
}

func (m *MotionEstimator) detectKeypoints(gray gocv.Mat) [][2]float32 {
	if m.Method != KPGFTT {
		WarnOnce(fmt.Sprintf("kp_method %q is not wired to a dedicated detector; using GFTT", m.Method))
	}

	corners := gocv.NewMat()
	defer corners.Close()

	gocv.GoodFeaturesToTrack(gray, &corners, m.GFTT.MaxCorners, m.GFTT.QualityLevel, m.GFTT.MinDistance)

	kps := make([][2]float32, corners.Rows())
	for i := 0; i < corners.Rows(); i++ {
		v := corners.GetVecfAt(i, 0)
		kps[i] = [2]float32{v[0], v[1]}
	}
	return kps
}

// Bootstrap initializes the estimator from the first frame of a sequence:
// converts to grayscale, resizes per policy, detects keypoints, and stores
// them as priors. If zero keypoints are found, the next Step reports
// NoMotion rather than failing (spec §4.3 step 2).
func (m *MotionEstimator) Bootstrap(first Frame) error {
	gray, err := m.prepGray(first)
	if err != nil {
		return err
	}
	m.prevGray.Close()
	m.prevGray = gray
	m.prevKps = m.detectKeypoints(m.prevGray)
	return nil
}

// Step advances the estimator by one frame, returning the (dx, dy, dtheta)
// transform from the previous frame to next. Translations are reported in
// full-resolution coordinates even when motion math runs on a resized
// grayscale pair (spec §9 open question #1, resolved in SPEC_FULL.md).
func (m *MotionEstimator) Step(next Frame) (Transform, error) {
	curGray, err := m.prepGray(next)
	if err != nil {
		return Transform{}, err
	}
	defer func() {
		m.prevGray.Close()
		m.prevGray = curGray
	}()

	if len(m.prevKps) == 0 {
		m.prevKps = m.detectKeypoints(curGray)
		return Transform{}, nil
	}

	prevPts := keypointsToMat(m.prevKps)
	defer prevPts.Close()

	curPts := gocv.NewMat()
	defer curPts.Close()
	status := gocv.NewMat()
	defer status.Close()
	errOut := gocv.NewMat()
	defer errOut.Close()

	gocv.CalcOpticalFlowPyrLK(m.prevGray, curGray, prevPts, curPts, &status, &errOut)

	var matchedPrev, matchedCur [][2]float32
	for i := 0; i < status.Rows(); i++ {
		if status.GetUCharAt(i, 0) == 1 {
			matchedPrev = append(matchedPrev, m.prevKps[i])
			cv := curPts.GetVecfAt(i, 0)
			matchedCur = append(matchedCur, [2]float32{cv[0], cv[1]})
		}
	}

	var t Transform
	if len(matchedPrev) >= 2 {
		t = estimatePartialTransform(matchedPrev, matchedCur)
	}

	if m.resizeScale != 1.0 {
		t.Dx /= m.resizeScale
		t.Dy /= m.resizeScale
	}

	m.prevKps = m.detectKeypoints(curGray)

	return t, nil
}

func keypointsToMat(kps [][2]float32) gocv.Mat {
	data := make([]float32, len(kps)*2)
	for i, p := range kps {
		data[i*2] = p[0]
		data[i*2+1] = p[1]
	}
	mat, err := gocv.NewMatFromBytes(len(kps), 1, gocv.MatTypeCV32FC2, float32SliceToBytes(data))
	if err != nil {
		return gocv.NewMat()
	}
	return mat
}

func float32SliceToBytes(data []float32) []byte {
	bytes := make([]byte, len(data)*4)
	for i, v := range data {
		bits := math.Float32bits(v)
		bytes[i*4] = byte(bits)
		bytes[i*4+1] = byte(bits >> 8)
		bytes[i*4+2] = byte(bits >> 16)
		bytes[i*4+3] = byte(bits >> 24)
	}
	return bytes
}

// keypointsToPoint2fVector packs kps into the gocv.Point2fVector
// EstimateAffinePartial2D requires (distinct from the Nx1x2 Mat layout
// CalcOpticalFlowPyrLK takes via keypointsToMat).
func keypointsToPoint2fVector(kps [][2]float32) gocv.Point2fVector {
	pts := make([]gocv.Point2f, len(kps))
	for i, p := range kps {
		pts[i] = gocv.Point2f{X: p[0], Y: p[1]}
	}
	return gocv.NewPoint2fVectorFromPoints(pts)
}

// estimatePartialTransform fits a 2x3 rigid (similarity-without-scale)
// transform from prev -> cur in the least-squares sense via
// gocv.EstimateAffinePartial2D, then decomposes it into (dx, dy, dtheta) per
// spec §4.3 step 4.
func estimatePartialTransform(prev, cur [][2]float32) Transform {
	prevPts := keypointsToPoint2fVector(prev)
	defer prevPts.Close()
	curPts := keypointsToPoint2fVector(cur)
	defer curPts.Close()

	affine := gocv.EstimateAffinePartial2D(prevPts, curPts)
	defer affine.Close()

	if affine.Empty() {
		return Transform{}
	}

	dx := affine.GetDoubleAt(0, 2)
	dy := affine.GetDoubleAt(1, 2)
	dtheta := math.Atan2(affine.GetDoubleAt(1, 0), affine.GetDoubleAt(0, 0))

	return Transform{Dx: dx, Dy: dy, Dtheta: dtheta}
}
