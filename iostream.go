package stabilizego

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/schollz/progressbar/v3"
	"gocv.io/x/gocv"
	"gopkg.in/ini.v1"
)

// Source reads frames for the stabilization pipeline, file or camera, with
// an optional rewind for the two-pass auto-border flow (spec §4.6, §5).
type Source interface {
	// Read returns the next frame, or ok=false at end-of-stream.
	Read() (Frame, bool, error)
	// FPS returns the source framerate, or 0 if unknown (caller defaults to 30).
	FPS() float64
	// FrameCount returns the total frame count if known, or 0.
	FrameCount() int
	// Rewindable reports whether Rewind is supported (false for live cameras).
	Rewindable() bool
	// Rewind seeks back to the first frame. Only valid if Rewindable().
	Rewind() error
	// Close releases the underlying capture handle.
	Close() error
}

// Sink writes stabilized frames to an output video, lazily initializing the
// underlying writer from the first frame's shape (spec §4.8).
type Sink interface {
	Write(Frame) error
	Close() error
}

// VideoSource wraps gocv.VideoCapture for either a camera device or a file
// path, matching the teacher's Video type (video.go) generalized beyond
// tracking playback into the stabilizer's read/rewind contract.
type VideoSource struct {
	camera    *int
	path      string
	capture   *gocv.VideoCapture
	fps       float64
	width     int
	height    int
	frameCnt  int
}

// OpenVideoFile opens path for reading with gocv.VideoCapture.
func OpenVideoFile(path string) (*VideoSource, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInputNotFound, path)
	}

	cap, err := gocv.OpenVideoCapture(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open video file %s: %w", path, err)
	}
	return newVideoSource(cap, nil, path)
}

// OpenCamera opens camera device index for reading, applying the ~100ms
// warm-up sleep spec.md §6 calls for.
func OpenCamera(index int) (*VideoSource, error) {
	cap, err := gocv.OpenVideoCapture(index)
	if err != nil {
		return nil, fmt.Errorf("failed to open camera %d: %w", index, err)
	}
	time.Sleep(100 * time.Millisecond)
	return newVideoSource(cap, &index, "")
}

func newVideoSource(cap *gocv.VideoCapture, camera *int, path string) (*VideoSource, error) {
	v := &VideoSource{
		camera:   camera,
		path:     path,
		capture:  cap,
		fps:      cap.Get(gocv.VideoCaptureFPS),
		width:    int(cap.Get(gocv.VideoCaptureFrameWidth)),
		height:   int(cap.Get(gocv.VideoCaptureFrameHeight)),
		frameCnt: int(cap.Get(gocv.VideoCaptureFrameCount)),
	}
	return v, nil
}

// Read implements Source.
func (v *VideoSource) Read() (Frame, bool, error) {
	mat := gocv.NewMat()
	if ok := v.capture.Read(&mat); !ok || mat.Empty() {
		mat.Close()
		return Frame{}, false, nil
	}
	frame, err := NewFrame(mat, ColorBGR)
	if err != nil {
		mat.Close()
		return Frame{}, false, err
	}
	return frame, true, nil
}

// FPS implements Source.
func (v *VideoSource) FPS() float64 { return v.fps }

// FrameCount implements Source.
func (v *VideoSource) FrameCount() int { return v.frameCnt }

// Rewindable implements Source; live cameras cannot be rewound.
func (v *VideoSource) Rewindable() bool { return v.camera == nil }

// Rewind implements Source by reopening the file from the start.
func (v *VideoSource) Rewind() error {
	if !v.Rewindable() {
		return ErrAutoBorderNeedsRewind
	}
	v.capture.Close()
	cap, err := gocv.OpenVideoCapture(v.path)
	if err != nil {
		return fmt.Errorf("failed to rewind %s: %w", v.path, err)
	}
	v.capture = cap
	return nil
}

// Close implements Source.
func (v *VideoSource) Close() error {
	if v.capture != nil {
		return v.capture.Close()
	}
	return nil
}

// VideoSink wraps gocv.VideoWriter, lazily initialized on first Write from
// the frame's own shape and the caller's FPS/FourCC, matching the teacher's
// Video.Write.
type VideoSink struct {
	path   string
	fourcc string
	fps    float64
	writer *gocv.VideoWriter
}

// NewVideoSink configures (but does not yet open) an output video writer.
// fourcc defaults to "MJPG" if empty; fps defaults to 30 if <= 0.
func NewVideoSink(path, fourcc string, fps float64) *VideoSink {
	if fourcc == "" {
		fourcc = "MJPG"
	}
	if fps <= 0 {
		fps = 30
	}
	return &VideoSink{path: path, fourcc: fourcc, fps: fps}
}

// Write implements Sink.
func (s *VideoSink) Write(f Frame) error {
	if s.writer == nil {
		writer, err := gocv.VideoWriterFile(s.path, s.fourcc, s.fps, f.Image.Cols(), f.Image.Rows(), true)
		if err != nil {
			return fmt.Errorf("failed to create video writer: %w", err)
		}
		s.writer = writer
	}
	return s.writer.Write(f.Image)
}

// Close implements Sink.
func (s *VideoSink) Close() error {
	if s.writer != nil {
		return s.writer.Close()
	}
	return nil
}

// ProgressReporter drives a console progress bar across a GenerateTransforms
// or Stabilize run, matching the teacher's setupProgressBar/updateProgressBar
// split in video.go.
type ProgressReporter struct {
	bar   *progressbar.ProgressBar
	label string
}

// NewProgressReporter creates a reporter for totalFrames (0 for unknown
// length, e.g. camera input) labeled label, or a no-op reporter if enabled
// is false.
func NewProgressReporter(enabled bool, totalFrames int, label string) *ProgressReporter {
	if !enabled {
		return &ProgressReporter{}
	}

	termCols, _ := GetTerminalSize(80, 24)
	maxLen := termCols - 25
	if len(label) > maxLen && maxLen > 10 {
		label = label[:maxLen/2-2] + " ... " + label[len(label)-(maxLen/2-3):]
	}

	count := totalFrames
	if count <= 0 {
		count = -1
	}

	bar := progressbar.NewOptions(count,
		progressbar.OptionSetDescription(label),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("fps"),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
	return &ProgressReporter{bar: bar, label: label}
}

// Add advances the bar by one frame. Safe to call on a no-op reporter.
func (p *ProgressReporter) Add() {
	if p.bar != nil {
		p.bar.Add(1)
	}
}

// Finish completes the bar. Safe to call on a no-op reporter.
func (p *ProgressReporter) Finish() {
	if p.bar != nil {
		p.bar.Finish()
	}
}

// FrameDirSource reads an image-sequence directory laid out the way
// MOTChallenge sequences are (a seqinfo.ini plus numbered frame images),
// generalizing the teacher's VideoFromFrames/seqinfo.ini reader (video.go)
// into a third Source kind alongside file and camera input (SPEC_FULL.md
// SUPPLEMENTED FEATURES).
type FrameDirSource struct {
	dir    string
	imDir  string
	imExt  string
	length int
	fps    int
	i      int
}

// OpenFrameDir reads dir/seqinfo.ini and prepares to stream dir's numbered
// frame images in order.
func OpenFrameDir(dir string) (*FrameDirSource, error) {
	cfg, err := ini.Load(filepath.Join(dir, "seqinfo.ini"))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInputNotFound, dir, err)
	}

	section := cfg.Section("Sequence")
	fd := &FrameDirSource{
		dir:    dir,
		length: section.Key("seqLength").MustInt(0),
		fps:    section.Key("frameRate").MustInt(30),
		imExt:  section.Key("imExt").MustString(".jpg"),
		imDir:  section.Key("imDir").MustString("img1"),
	}
	if fd.length == 0 {
		return nil, fmt.Errorf("%w: %s: seqinfo.ini missing seqLength", ErrEmptyInput, dir)
	}
	return fd, nil
}

// Read implements Source.
func (fd *FrameDirSource) Read() (Frame, bool, error) {
	if fd.i >= fd.length {
		return Frame{}, false, nil
	}
	fd.i++
	path := filepath.Join(fd.dir, fd.imDir, fmt.Sprintf("%06d%s", fd.i, fd.imExt))
	mat := gocv.IMRead(path, gocv.IMReadColor)
	if mat.Empty() {
		mat.Close()
		return Frame{}, false, fmt.Errorf("stabilizego: failed to read frame image %s", path)
	}
	frame, err := NewFrame(mat, ColorBGR)
	if err != nil {
		mat.Close()
		return Frame{}, false, err
	}
	return frame, true, nil
}

// FPS implements Source.
func (fd *FrameDirSource) FPS() float64 { return float64(fd.fps) }

// FrameCount implements Source.
func (fd *FrameDirSource) FrameCount() int { return fd.length }

// Rewindable implements Source.
func (fd *FrameDirSource) Rewindable() bool { return true }

// Rewind implements Source.
func (fd *FrameDirSource) Rewind() error {
	fd.i = 0
	return nil
}

// Close implements Source.
func (fd *FrameDirSource) Close() error { return nil }

// ParseCameraIndex reports whether input names a non-negative integer camera
// device index rather than a file path (spec §6 Input).
func ParseCameraIndex(input string) (int, bool) {
	n, err := strconv.Atoi(input)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
