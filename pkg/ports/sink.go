package ports

import (
	"image"
)

// DebugSink abstracts debug output for intermediate results.
// It allows saving encoder artefacts for inspection.
type DebugSink interface {
	// Enabled returns true if debug output is enabled.
	Enabled() bool

	// SaveOptionsJSON saves the resolved encoder options as JSON.
	SaveOptionsJSON(data []byte) error

	// SaveHeaders saves the stream headers (SPS, PPS, SEI).
	SaveHeaders(data []byte) error

	// SaveFrame saves the bitstream of one emitted frame.
	SaveFrame(frame EncodedFrame) error

	// SaveSourceFrame saves a source picture before encoding.
	SaveSourceFrame(index int, img image.Image) error
}
