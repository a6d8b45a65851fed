package stabilizego

import (
	"context"
	"errors"
	"fmt"
	"math"

	"gocv.io/x/gocv"
)

// LayerFunc is an optional per-frame compositor invoked after the first
// output frame, taking the current stabilized frame and the previous output
// frame and returning the frame actually written (spec §4.8, §9).
type LayerFunc func(current, previous Frame) (Frame, error)

// Config holds the immutable parameters shared by every call a Stabilizer
// makes, replacing the single mutable orchestrator struct the source used
// (spec §9 "global mutable orchestrator state").
type Config struct {
	KeypointMethod   KeypointMethod
	GFTT             GFTTParams
	ProcessingMaxDim float64 // 0 means +Inf (unbounded)
	SmoothingWindow  int
	MaxFrames        int // 0 means +Inf (unbounded)
	OutputFourCC     string
	ShowProgress     bool
	LayerFunc        LayerFunc
}

func (c Config) withDefaults() Config {
	if c.KeypointMethod == "" {
		c.KeypointMethod = KPGFTT
	}
	if (c.GFTT == GFTTParams{}) {
		c.GFTT = DefaultGFTTParams()
	}
	if c.ProcessingMaxDim <= 0 {
		c.ProcessingMaxDim = math.Inf(1)
	}
	if c.SmoothingWindow <= 0 {
		c.SmoothingWindow = 30
	}
	if c.OutputFourCC == "" {
		c.OutputFourCC = "MJPG"
	}
	return c
}

// StabilizeOptions parameterizes a single Stabilize call: the input/output
// pair, the border policy, and which of the three modes spec §4.8 describes
// to run.
type StabilizeOptions struct {
	Input  string
	Output string

	BorderType BorderType
	BorderSize BorderSize

	// UseStoredTransforms replays the transforms retained from the most
	// recent GenerateTransforms call, or motion-estimating Stabilize run, on
	// this Stabilizer instead of re-estimating motion. ErrEmptyTransforms if
	// none exist.
	UseStoredTransforms bool
}

// Stabilizer composes FrameBuffer, MotionEstimator, TrajectoryStore,
// BorderPolicy, and Warper into the three operations spec §4.8 describes.
// A Stabilizer may be reused across calls; the only state it retains between
// calls is the transform set from its most recent GenerateTransforms call or
// motion-estimating Stabilize run, used by UseStoredTransforms.
type Stabilizer struct {
	cfg            Config
	lastTrajectory *TrajectoryStore
}

// NewStabilizer creates a Stabilizer, filling any zero-valued Config fields
// with the documented defaults (spec §6).
func NewStabilizer(cfg Config) *Stabilizer {
	return &Stabilizer{cfg: cfg.withDefaults()}
}

// openSource opens input as a live camera if it parses as a non-negative
// integer, or as a video file otherwise (spec §6 Input).
func openSource(input string) (Source, error) {
	if idx, ok := ParseCameraIndex(input); ok {
		return OpenCamera(idx)
	}
	return OpenVideoFile(input)
}

// GenerateTransforms runs MotionEstimator and TrajectoryStore over the whole
// of input without writing any output (spec §4.8 generate_transforms). The
// resulting store is also retained for a subsequent UseStoredTransforms
// call.
func (s *Stabilizer) GenerateTransforms(ctx context.Context, input string) (*TrajectoryStore, error) {
	src, err := openSource(input)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	store, err := s.generateTransforms(ctx, src)
	if err != nil {
		return nil, err
	}
	s.lastTrajectory = store
	return store, nil
}

func (s *Stabilizer) generateTransforms(ctx context.Context, src Source) (*TrajectoryStore, error) {
	cfg := s.cfg

	first, ok, err := src.Read()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrEmptyInput
	}

	estimator := NewMotionEstimator(cfg.KeypointMethod, cfg.GFTT, cfg.ProcessingMaxDim)
	defer estimator.Close()
	if err := estimator.Bootstrap(first); err != nil {
		first.Close()
		return nil, err
	}

	store := NewTrajectoryStore(cfg.MaxFrames)
	progress := NewProgressReporter(cfg.ShowProgress, src.FrameCount(), "generating transforms")

	prev := first
	count := 0
	for {
		if err := ctx.Err(); err != nil {
			prev.Close()
			return nil, err
		}
		if cfg.MaxFrames > 0 && count >= cfg.MaxFrames {
			break
		}

		next, ok, err := src.Read()
		if err != nil {
			prev.Close()
			return nil, err
		}
		if !ok {
			break
		}

		t, err := estimator.Step(next)
		if err != nil {
			prev.Close()
			next.Close()
			return nil, err
		}
		store.Append(t)
		progress.Add()

		prev.Close()
		prev = next
		count++
	}
	prev.Close()
	progress.Finish()

	store.Recompute(cfg.SmoothingWindow)
	return store, nil
}

// ApplyTransforms is a convenience wrapper equivalent to a GenerateTransforms
// pass over opts.Input immediately followed by Stabilize with
// UseStoredTransforms forced true.
func (s *Stabilizer) ApplyTransforms(ctx context.Context, opts StabilizeOptions) error {
	if _, err := s.GenerateTransforms(ctx, opts.Input); err != nil {
		return err
	}
	opts.UseStoredTransforms = true
	return s.Stabilize(ctx, opts)
}

// Stabilize runs one of the three modes spec §4.8 describes: replaying
// stored transforms, normal incremental streaming, or (when BorderSize is
// "auto") a two-pass run that generates transforms, rewinds, computes the
// border, then replays.
func (s *Stabilizer) Stabilize(ctx context.Context, opts StabilizeOptions) error {
	if opts.UseStoredTransforms {
		return s.stabilizeStored(ctx, opts)
	}
	if opts.BorderSize.IsAuto() {
		return s.stabilizeAutoBorder(ctx, opts)
	}
	return s.stabilizeStreaming(ctx, opts)
}

func (s *Stabilizer) stabilizeStored(ctx context.Context, opts StabilizeOptions) error {
	if s.lastTrajectory == nil {
		return ErrEmptyTransforms
	}
	store := s.lastTrajectory

	src, err := openSource(opts.Input)
	if err != nil {
		return err
	}
	defer src.Close()

	border, err := s.resolveBorder(src, opts, store.TransformsAll())
	if err != nil {
		return err
	}

	return s.applyStoredToSink(ctx, src, store, border, opts)
}

func (s *Stabilizer) stabilizeAutoBorder(ctx context.Context, opts StabilizeOptions) error {
	src, err := openSource(opts.Input)
	if err != nil {
		return err
	}
	defer src.Close()

	if !src.Rewindable() {
		return ErrAutoBorderNeedsRewind
	}

	store, err := s.generateTransforms(ctx, src)
	if err != nil {
		return err
	}
	s.lastTrajectory = store

	if err := src.Rewind(); err != nil {
		return err
	}

	first, ok, err := src.Read()
	if err != nil {
		return err
	}
	if !ok {
		return ErrEmptyInput
	}
	height, width := first.Image.Rows(), first.Image.Cols()
	first.Close()
	if err := src.Rewind(); err != nil {
		return err
	}

	pad := ComputeAutoBorder(height, width, store.TransformsAll())
	border, err := NewResolvedBorderPolicy(opts.BorderType, pad)
	if err != nil {
		return err
	}

	return s.applyStoredToSink(ctx, src, store, border, opts)
}

// resolveBorder resolves opts' border against transforms already known
// (computing an auto pad from them if requested) or against a fixed size.
func (s *Stabilizer) resolveBorder(src Source, opts StabilizeOptions, transforms []Transform) (*BorderPolicy, error) {
	if !opts.BorderSize.IsAuto() {
		return NewBorderPolicy(opts.BorderType, opts.BorderSize)
	}
	if !src.Rewindable() {
		return nil, ErrAutoBorderNeedsRewind
	}

	first, ok, err := src.Read()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrEmptyInput
	}
	height, width := first.Image.Rows(), first.Image.Cols()
	first.Close()
	if err := src.Rewind(); err != nil {
		return nil, err
	}

	pad := ComputeAutoBorder(height, width, transforms)
	return NewResolvedBorderPolicy(opts.BorderType, pad)
}

// applyFrame runs border-apply -> warp -> border-crop -> optional layer
// hook for one (frame, transform) pair, matching the per-iteration sequence
// spec §4.8's apply-loop describes.
func applyFrame(border *BorderPolicy, warper *Warper, layer LayerFunc, frame Frame, t Transform, prevOutput *Frame) (Frame, error) {
	bordered, err := border.Apply(frame)
	if err != nil {
		return Frame{}, err
	}
	defer bordered.Close()

	warped, err := warper.Warp(bordered, t, border.Mode())
	if err != nil {
		return Frame{}, err
	}

	cropped, err := border.Crop(warped)
	if err != nil {
		warped.Close()
		return Frame{}, err
	}
	if cropped.Image.Ptr() != warped.Image.Ptr() {
		warped.Close()
	}

	if layer != nil && prevOutput != nil {
		layered, err := layer(cropped, *prevOutput)
		if err != nil {
			cropped.Close()
			return Frame{}, err
		}
		cropped.Close()
		return layered, nil
	}
	return cropped, nil
}

// applyStoredToSink drives the shared apply-loop (spec §4.8) against an
// already-known transform set: prefetch window frames into the buffer so
// the output delay is established, then pop/apply/write one frame per
// iteration while continuing to read ahead.
func (s *Stabilizer) applyStoredToSink(ctx context.Context, src Source, store *TrajectoryStore, border *BorderPolicy, opts StabilizeOptions) error {
	cfg := s.cfg
	window := cfg.SmoothingWindow

	buf := NewFrameBuffer(window + 1)
	buf.SetMaxFrames(cfg.MaxFrames)

	for buf.Len() < window {
		f, ok, err := src.Read()
		if err != nil {
			return err
		}
		if !ok {
			buf.MarkEndOfStream()
			break
		}
		buf.Push(f)
	}

	sink := NewVideoSink(opts.Output, cfg.OutputFourCC, src.FPS())
	defer sink.Close()

	warper := NewWarper()
	progress := NewProgressReporter(cfg.ShowProgress, src.FrameCount(), "stabilizing")
	var prevOutput *Frame

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if !buf.IsEnd() {
			f, ok, err := src.Read()
			if err != nil {
				return err
			}
			if ok {
				buf.Push(f)
			} else {
				buf.MarkEndOfStream()
			}
		}

		idx, frame, err := buf.PopFront()
		if errors.Is(err, ErrEmpty) {
			break
		}
		if err != nil {
			return err
		}

		if !store.InRange(idx) {
			frame.Close()
			break
		}
		t := store.Transforms(idx)

		out, err := applyFrame(border, warper, cfg.LayerFunc, frame, t, prevOutput)
		frame.Close()
		if err != nil {
			return err
		}

		if err := sink.Write(out); err != nil {
			out.Close()
			return err
		}
		progress.Add()

		if prevOutput != nil {
			prevOutput.Close()
		}
		clone, err := NewFrame(out.Image.Clone(), out.ColorFormat)
		if err != nil {
			out.Close()
			return err
		}
		prevOutput = &clone
		out.Close()
	}

	if prevOutput != nil {
		prevOutput.Close()
	}
	progress.Finish()
	return nil
}

// stabilizeStreaming is mode 2 of spec §4.8: bootstrap, stream until
// min(max_frames, window) transforms are in hand, then enter the apply loop,
// estimating and recomputing the trajectory incrementally for each new
// frame read.
func (s *Stabilizer) stabilizeStreaming(ctx context.Context, opts StabilizeOptions) error {
	cfg := s.cfg

	if opts.BorderSize.IsAuto() {
		return fmt.Errorf("stabilizego: border_size=auto requires a rewindable two-pass run; call Stabilize with BorderSize=auto directly instead of via the incremental path")
	}
	border, err := NewBorderPolicy(opts.BorderType, opts.BorderSize)
	if err != nil {
		return err
	}

	src, err := openSource(opts.Input)
	if err != nil {
		return err
	}
	defer src.Close()

	window := cfg.SmoothingWindow
	target := window
	if cfg.MaxFrames > 0 && cfg.MaxFrames < target {
		target = cfg.MaxFrames
	}

	first, ok, err := src.Read()
	if err != nil {
		return err
	}
	if !ok {
		return ErrEmptyInput
	}

	estimator := NewMotionEstimator(cfg.KeypointMethod, cfg.GFTT, cfg.ProcessingMaxDim)
	defer estimator.Close()
	if err := estimator.Bootstrap(first); err != nil {
		first.Close()
		return err
	}

	store := NewTrajectoryStore(cfg.MaxFrames)
	buf := NewFrameBuffer(window + 1)
	buf.SetMaxFrames(cfg.MaxFrames)
	buf.Push(first)

	for store.Len() < target {
		next, ok, err := src.Read()
		if err != nil {
			return err
		}
		if !ok {
			buf.MarkEndOfStream()
			break
		}
		t, err := estimator.Step(next)
		if err != nil {
			return err
		}
		store.Append(t)
		buf.Push(next)
	}
	store.Recompute(window)

	sink := NewVideoSink(opts.Output, cfg.OutputFourCC, src.FPS())
	defer sink.Close()
	warper := NewWarper()
	progress := NewProgressReporter(cfg.ShowProgress, src.FrameCount(), "stabilizing")
	var prevOutput *Frame

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		// Read ahead only while the buffer has room, so the push never
		// evicts a frame that has not been written yet.
		if !buf.IsEnd() && buf.Len() < buf.Capacity() {
			next, ok, err := src.Read()
			if err != nil {
				return err
			}
			if ok {
				t, err := estimator.Step(next)
				if err != nil {
					return err
				}
				store.Append(t)
				store.Recompute(window)
				buf.Push(next)
			} else {
				buf.MarkEndOfStream()
			}
		}

		idx, frame, err := buf.PopFront()
		if errors.Is(err, ErrEmpty) {
			break
		}
		if err != nil {
			return err
		}

		if !store.InRange(idx) {
			frame.Close()
			break
		}
		t := store.Transforms(idx)

		out, err := applyFrame(border, warper, cfg.LayerFunc, frame, t, prevOutput)
		frame.Close()
		if err != nil {
			return err
		}

		if err := sink.Write(out); err != nil {
			out.Close()
			return err
		}
		progress.Add()

		if prevOutput != nil {
			prevOutput.Close()
		}
		clone, err := NewFrame(out.Image.Clone(), out.ColorFormat)
		if err != nil {
			out.Close()
			return err
		}
		prevOutput = &clone
		out.Close()
	}

	s.lastTrajectory = store
	if prevOutput != nil {
		prevOutput.Close()
	}
	progress.Finish()
	return nil
}

// StreamingSession is the run-state for single-frame streaming stabilization
// (spec §4.8 stabilize_frame, §9 "a StreamingSession value"). Unlike
// Stabilizer's batch entry points, a StreamingSession is stateful across
// calls to Push by design: it is the one place in this package streaming
// state is allowed to persist.
type StreamingSession struct {
	cfg    Config
	window int

	border    *BorderPolicy
	warper    *Warper
	estimator *MotionEstimator
	buf       *FrameBuffer
	store     *TrajectoryStore

	bootstrapped bool
	blackFrame   Frame
	prevOutput   *Frame
	calls        int
}

// NewStreamingSession creates a StreamingSession bound to this Stabilizer's
// Config. Sessions do not share state with each other or with batch calls.
func (s *Stabilizer) NewStreamingSession() *StreamingSession {
	return &StreamingSession{cfg: s.cfg, window: s.cfg.SmoothingWindow}
}

func (sess *StreamingSession) bootstrap(borderType BorderType, borderSize BorderSize, first Frame) error {
	if borderSize.IsAuto() {
		return fmt.Errorf("stabilizego: StreamingSession does not support border_size=auto (no rewindable two-pass in streaming mode)")
	}
	border, err := NewBorderPolicy(borderType, borderSize)
	if err != nil {
		return err
	}

	estimator := NewMotionEstimator(sess.cfg.KeypointMethod, sess.cfg.GFTT, sess.cfg.ProcessingMaxDim)
	if err := estimator.Bootstrap(first); err != nil {
		return err
	}

	black, err := blankFrameLike(border, first)
	if err != nil {
		return err
	}

	sess.border = border
	sess.warper = NewWarper()
	sess.estimator = estimator
	sess.buf = NewFrameBuffer(sess.window + 1)
	sess.store = NewTrajectoryStore(0)
	sess.blackFrame = black
	sess.bootstrapped = true
	return nil
}

// blankFrameLike produces a zeroed frame with the same shape/channels output
// frames will have after border treatment, used for StreamingSession's
// warm-up frames.
func blankFrameLike(border *BorderPolicy, frame Frame) (Frame, error) {
	bordered, err := border.Apply(frame)
	if err != nil {
		return Frame{}, err
	}

	cropped, err := border.Crop(bordered)
	if err != nil {
		bordered.Close()
		return Frame{}, err
	}
	if cropped.Image.Ptr() != bordered.Image.Ptr() {
		bordered.Close()
	}

	zero := gocv.NewMatWithSize(cropped.Image.Rows(), cropped.Image.Cols(), cropped.Image.Type())
	format := cropped.ColorFormat
	cropped.Close()

	return NewFrame(zero, format)
}

// Push feeds one frame (borderType/borderSize are only consulted on the
// first call, which also bootstraps the session) and returns the stabilized
// frame that is window frames behind, per the delay contract in spec §4.8
// and Testable Property #6. Pass frame=nil to signal end-of-input and begin
// draining; Push then returns nil once the buffer is empty. The session
// buffers its own copy of frame, so the caller keeps ownership of frame and
// may Close it as soon as Push returns.
func (sess *StreamingSession) Push(borderType BorderType, borderSize BorderSize, frame *Frame) (*Frame, error) {
	justBootstrapped := false
	if !sess.bootstrapped {
		if frame == nil {
			return nil, ErrEmptyInput
		}
		if err := sess.bootstrap(borderType, borderSize, *frame); err != nil {
			return nil, err
		}
		justBootstrapped = true
	}

	if frame != nil {
		owned, err := NewFrame(frame.Image.Clone(), frame.ColorFormat)
		if err != nil {
			return nil, err
		}
		_, evicted, ok := sess.buf.Push(owned)
		if ok {
			evicted.Close()
		}

		// Frame 0 was just consumed by bootstrap's own Bootstrap call, which
		// seeds prevGray/prevKps but estimates no motion; stepping it here too
		// would measure frame0->frame0 and shift every later raw transform by
		// one frame relative to the batch paths (generateTransforms,
		// stabilizeStreaming), which only Step frames 1..N after bootstrapping
		// on frame 0.
		if !justBootstrapped {
			t, err := sess.estimator.Step(*frame)
			if err != nil {
				return nil, err
			}
			sess.store.Append(t)
			sess.store.Recompute(sess.window)
		}
	} else {
		sess.buf.MarkEndOfStream()
	}

	sess.calls++
	if sess.calls <= sess.window {
		// Cloned so the caller can freely Close the returned frame, the way
		// it would any other output frame, without invalidating the
		// session's reusable warm-up Mat.
		clone, err := NewFrame(sess.blackFrame.Image.Clone(), sess.blackFrame.ColorFormat)
		if err != nil {
			return nil, err
		}
		return &clone, nil
	}

	idx, popped, err := sess.buf.PopFront()
	if errors.Is(err, ErrEmpty) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if !sess.store.InRange(idx) {
		popped.Close()
		return nil, nil
	}
	t := sess.store.Transforms(idx)

	out, err := applyFrame(sess.border, sess.warper, sess.cfg.LayerFunc, popped, t, sess.prevOutput)
	popped.Close()
	if err != nil {
		return nil, err
	}

	if sess.prevOutput != nil {
		sess.prevOutput.Close()
	}
	clone, err := NewFrame(out.Image.Clone(), out.ColorFormat)
	if err != nil {
		out.Close()
		return nil, err
	}
	sess.prevOutput = &clone

	return &out, nil
}

// Close releases the session's retained Mats (prior estimator state, the
// black warm-up frame, and the previous-output clone kept for LayerFunc).
func (sess *StreamingSession) Close() {
	if sess.estimator != nil {
		sess.estimator.Close()
	}
	if sess.bootstrapped {
		sess.blackFrame.Close()
	}
	if sess.prevOutput != nil {
		sess.prevOutput.Close()
	}
}
