package x264encoder

import "errors"

var (
	// ErrNotInitialized is returned when encoder methods are called before Begin.
	ErrNotInitialized = errors.New("x264encoder: encoder not initialized")

	// ErrNoFrames is returned when End is reached without any emitted frame.
	ErrNoFrames = errors.New("x264encoder: no frames to encode")

	// ErrFrameSize is returned when a frame does not match the dimensions passed to Begin.
	ErrFrameSize = errors.New("x264encoder: frame size mismatch")

	// ErrUnsupportedInput is returned for input colorspaces the converter cannot fill.
	ErrUnsupportedInput = errors.New("x264encoder: unsupported input colorspace")

	// ErrMissingHeaders is returned when the stream headers lack an SPS or PPS.
	ErrMissingHeaders = errors.New("x264encoder: SPS/PPS not found in headers")
)
