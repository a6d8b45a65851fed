package stabilizego

import "errors"

// Sentinel errors for the closed error-kind set. Callers should compare with
// errors.Is; most are wrapped with additional context via fmt.Errorf("...: %w").
var (
	// ErrInputNotFound is returned when the input path does not exist and is
	// not an integer camera index.
	ErrInputNotFound = errors.New("stabilizego: input not found")

	// ErrEmptyInput is returned when the source yields no first frame.
	ErrEmptyInput = errors.New("stabilizego: empty input")

	// ErrInvalidFrameShape is returned by Frame construction when the image
	// has neither 2 dims, 3 channels, nor 4 channels.
	ErrInvalidFrameShape = errors.New("stabilizego: invalid frame shape")

	// ErrUnsupportedConversion is returned when Frame.To is asked to convert
	// between two color formats with no defined mapping.
	ErrUnsupportedConversion = errors.New("stabilizego: unsupported color conversion")

	// ErrInvalidBorderType is returned when a border type is outside
	// {black, reflect, replicate}.
	ErrInvalidBorderType = errors.New("stabilizego: invalid border type")

	// ErrEmpty is returned by FrameBuffer.PopFront when no frames are held.
	ErrEmpty = errors.New("stabilizego: buffer empty")

	// ErrEmptyTransforms is returned by Stabilize when
	// UseStoredTransforms is true but no prior transforms exist.
	ErrEmptyTransforms = errors.New("stabilizego: no stored transforms available")

	// ErrAutoBorderNeedsRewind is returned when border_size="auto" is
	// requested against a non-rewindable source (a live camera).
	ErrAutoBorderNeedsRewind = errors.New("stabilizego: auto border requires a rewindable (file) input")
)
