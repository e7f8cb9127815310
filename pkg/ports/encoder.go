package ports

import (
	"image"
	"path/filepath"
	"strings"
)

// VideoEncoder abstracts video encoding operations.
type VideoEncoder interface {
	// Begin initializes the encoder with the specified dimensions and frame rate.
	Begin(width, height int, fps float64, opts EncoderOptions) error

	// EncodeFrame submits a single frame. timestampMs is the presentation time
	// relative to the first frame.
	EncodeFrame(img image.Image, timestampMs int) error

	// End drains the encoder, releases native resources and returns the
	// finished stream in the requested container.
	End() ([]byte, error)
}

// StatsProvider is implemented by encoders that count what they produced.
type StatsProvider interface {
	Stats() EncoderStats
}

// FrameObserver is implemented by encoders that report each frame as it is
// emitted. An error from the callback aborts the encode call that emitted it.
type FrameObserver interface {
	OnFrame(fn func(EncodedFrame) error)
}

// HeaderProvider is implemented by encoders that expose the stream headers
// written at Begin.
type HeaderProvider interface {
	Headers() []byte
}

// Container selects the output format of an encoder.
type Container string

const (
	// ContainerAnnexB is a raw H.264 elementary stream with start codes.
	ContainerAnnexB Container = "annexb"
	// ContainerMP4 is a fragmented MP4 with a single video track.
	ContainerMP4 Container = "mp4"
)

// ParseContainer parses a container name, accepting common file extensions.
func ParseContainer(s string) (Container, bool) {
	switch s {
	case "annexb", "h264", "264":
		return ContainerAnnexB, true
	case "mp4", "m4v":
		return ContainerMP4, true
	}
	return "", false
}

// ContainerForPath infers the container from an output file name. Standard
// output ("-") is Annex B and unknown extensions are MP4.
func ContainerForPath(path string) Container {
	if path == "-" {
		return ContainerAnnexB
	}
	if c, ok := ParseContainer(strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))); ok {
		return c
	}
	return ContainerMP4
}

// EncoderOptions configures video encoding parameters.
// Zero values leave the encoder's defaults in place.
type EncoderOptions struct {
	Preset  string // speed preset, e.g. "medium"
	Tune    string // comma-separated tunings, e.g. "film,fastdecode"
	Profile string // H.264 profile restriction, e.g. "high"

	Quality float64 // CRF: 0-51 (lower is higher quality)
	Bitrate int     // Target bitrate in kbps, switches to ABR

	Keyint  int // Maximum GOP length
	Threads int // 0 lets the encoder decide
	BFrames int // 0 keeps the preset value, negative disables B-frames

	Colorspace  string // input colorspace name, e.g. "i420" or "nv12+high"
	FullRange   bool
	ColorMatrix int // VUI matrix_coefficients, 0 keeps the default
	PsyRD       float64
	PsyTrellis  float64

	// Options are raw name=value encoder options applied after the typed fields.
	Options map[string]string

	Container Container
}

// EncodedFrame describes one picture as emitted by an encoder.
type EncodedFrame struct {
	Index    int   // emission order, starting at 0
	PTS      int64 // presentation timestamp in frame units
	DTS      int64 // decode timestamp in frame units
	Keyframe bool
	Type     string
	Data     []byte
}

// EncoderStats summarizes an encoding session.
type EncoderStats struct {
	FramesIn    int
	FramesOut   int
	Keyframes   int
	HeaderBytes int
	FrameBytes  int64
	MaxDelayed  int
	Resolved    string // encoder settings after open, for reporting
}
