package stabilizego

import "testing"

func dummyFrame() Frame {
	return Frame{ColorFormat: ColorGray}
}

func TestFrameBuffer_PushAssignsMonotonicIndices(t *testing.T) {
	b := NewFrameBuffer(3)

	for want := 0; want < 5; want++ {
		idx, _, _ := b.Push(dummyFrame())
		if idx != want {
			t.Fatalf("Push #%d: got index %d, want %d", want, idx, want)
		}
	}
}

func TestFrameBuffer_EvictsOldestWhenFull(t *testing.T) {
	b := NewFrameBuffer(2)

	b.Push(dummyFrame())
	b.Push(dummyFrame())
	if b.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", b.Len())
	}

	_, _, ok := b.Push(dummyFrame())
	if !ok {
		t.Fatalf("expected eviction on third push into cap-2 buffer")
	}
	if b.Len() != 2 {
		t.Fatalf("Len() after eviction = %d, want 2 (capped)", b.Len())
	}
}

func TestFrameBuffer_PopFrontEmpty(t *testing.T) {
	b := NewFrameBuffer(1)
	if _, _, err := b.PopFront(); err != ErrEmpty {
		t.Fatalf("PopFront on empty buffer: got err %v, want ErrEmpty", err)
	}
}

func TestFrameBuffer_PopFrontOrdering(t *testing.T) {
	b := NewFrameBuffer(4)
	b.Push(dummyFrame())
	b.Push(dummyFrame())
	b.Push(dummyFrame())

	for want := 0; want < 3; want++ {
		idx, _, err := b.PopFront()
		if err != nil {
			t.Fatalf("PopFront: %v", err)
		}
		if idx != want {
			t.Fatalf("PopFront order: got index %d, want %d", idx, want)
		}
	}
}

func TestFrameBuffer_IsEnd(t *testing.T) {
	b := NewFrameBuffer(2)
	b.Push(dummyFrame())

	if b.IsEnd() {
		t.Fatal("IsEnd() true before MarkEndOfStream")
	}

	b.MarkEndOfStream()
	if b.IsEnd() {
		t.Fatal("IsEnd() true while buffer is non-empty")
	}

	b.PopFront()
	if !b.IsEnd() {
		t.Fatal("IsEnd() false after drain + end-of-stream")
	}
}

func TestFrameBuffer_CapacityAndMaxFrames(t *testing.T) {
	b := NewFrameBuffer(7)
	if b.Capacity() != 7 {
		t.Fatalf("Capacity() = %d, want 7", b.Capacity())
	}

	b.SetMaxFrames(100)
	if b.MaxFrames() != 100 {
		t.Fatalf("MaxFrames() = %d, want 100", b.MaxFrames())
	}
}
