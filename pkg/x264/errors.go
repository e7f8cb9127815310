package x264

import "errors"

var (
	// ErrAllocation is returned when libx264 cannot obtain memory for a session or picture.
	ErrAllocation = errors.New("x264: allocation failure")

	// ErrInvalidArgument is returned for malformed or unsupported configuration input.
	ErrInvalidArgument = errors.New("x264: invalid argument")

	// ErrUnknownOption is returned when Parse is given a name libx264 does not know.
	ErrUnknownOption = errors.New("x264: unknown option")

	// ErrBadOptionValue is returned when Parse is given a value libx264 rejects.
	ErrBadOptionValue = errors.New("x264: bad option value")

	// ErrUnsupportedColorspace is returned when a picture is requested for a colorspace
	// outside the supported enumeration.
	ErrUnsupportedColorspace = errors.New("x264: unsupported colorspace")

	// ErrPlaneIndex is returned when a plane index is not below the picture's plane count.
	ErrPlaneIndex = errors.New("x264: plane index out of range")

	// ErrEncode is returned when libx264 reports a negative status for headers or a frame.
	ErrEncode = errors.New("x264: encoding failed")

	// ErrClosed is returned when a released picture or encoder is used.
	ErrClosed = errors.New("x264: use of closed handle")
)
