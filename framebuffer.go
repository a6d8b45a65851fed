package stabilizego

// FrameBuffer is a bounded FIFO of frames paired with a FIFO of monotonic
// indices, capped at MaxLen. When full, pushing evicts the oldest of both.
// Indices are the stable identity used to align a frame with its row in
// TrajectoryStore's transform arrays.
type FrameBuffer struct {
	maxLen int

	frames []Frame
	inds   []int

	nextIndex int

	// endOfStream is set once the upstream source has signaled it has no
	// more frames to give.
	endOfStream bool

	// maxFrames is an optional external processing cap threaded through by
	// the orchestrator; 0 means unbounded.
	maxFrames int
}

// SetMaxFrames records the caller's processing cap (0 = unbounded). It does
// not affect push/pop behavior; the value is only reported back by
// MaxFrames.
func (b *FrameBuffer) SetMaxFrames(n int) { b.maxFrames = n }

// MaxFrames returns the processing cap set by SetMaxFrames (0 = unbounded).
func (b *FrameBuffer) MaxFrames() int { return b.maxFrames }

// NewFrameBuffer creates a FrameBuffer capped at maxLen frames.
func NewFrameBuffer(maxLen int) *FrameBuffer {
	return &FrameBuffer{maxLen: maxLen}
}

// Len returns the number of frames currently held.
func (b *FrameBuffer) Len() int { return len(b.frames) }

// Capacity returns the configured maximum length.
func (b *FrameBuffer) Capacity() int { return b.maxLen }

// Push appends frame, assigning it the next index (last+1, or 0 if empty).
// If the buffer is at capacity, the oldest frame and index are evicted
// first and the evicted frame is returned as evicted (ok=true).
func (b *FrameBuffer) Push(frame Frame) (index int, evicted Frame, ok bool) {
	if len(b.frames) == b.maxLen && b.maxLen > 0 {
		evicted = b.frames[0]
		ok = true
		b.frames = b.frames[1:]
		b.inds = b.inds[1:]
	}

	index = b.nextIndex
	b.nextIndex++

	b.frames = append(b.frames, frame)
	b.inds = append(b.inds, index)

	return index, evicted, ok
}

// PopFront removes and returns the oldest frame and its index. It fails with
// ErrEmpty if no frames are held.
func (b *FrameBuffer) PopFront() (index int, frame Frame, err error) {
	if len(b.frames) == 0 {
		return 0, Frame{}, ErrEmpty
	}

	index = b.inds[0]
	frame = b.frames[0]
	b.inds = b.inds[1:]
	b.frames = b.frames[1:]

	return index, frame, nil
}

// Peek returns the oldest frame without removing it, plus whether one
// exists.
func (b *FrameBuffer) Peek() (Frame, bool) {
	if len(b.frames) == 0 {
		return Frame{}, false
	}
	return b.frames[0], true
}

// MarkEndOfStream records that the upstream source has no more frames to
// give. IsEnd only becomes true once the buffer also drains to empty.
func (b *FrameBuffer) MarkEndOfStream() { b.endOfStream = true }

// IsEnd reports whether the upstream source has signaled end-of-stream and
// the buffer has been fully drained.
func (b *FrameBuffer) IsEnd() bool { return b.endOfStream && len(b.frames) == 0 }
