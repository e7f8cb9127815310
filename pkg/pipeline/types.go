package pipeline

import (
	"github.com/user/x264go/pkg/ports"
)

// EncodeInput contains parameters for the encode stage.
type EncodeInput struct {
	Source ports.FrameSource

	// Width and Height are the encoded size. Zero takes the source size;
	// frames of any other size are scaled.
	Width  int
	Height int

	// FPS overrides the source frame rate when positive.
	FPS float64

	// MaxFrames stops after this many frames when positive.
	MaxFrames int

	Options ports.EncoderOptions

	// DumpSourceEvery saves every Nth source frame to the debug sink when positive.
	DumpSourceEvery int
}

// EncodeResult contains the encoded stream and what went into it.
type EncodeResult struct {
	Data       []byte
	Width      int
	Height     int
	FPS        float64
	FramesIn   int
	FramesOut  int
	Keyframes  int
	Resized    int
	DurationMs int
	FileSize   int64
	Stats      ports.EncoderStats
}
