// Package x264encoder provides H.264 encoding through libx264.
//
// The adapter owns one encoder session and one reusable picture per Begin/End
// cycle. Frames are converted into the picture planes, submitted with a pts
// equal to their index, and collected as libx264 emits them. End drains the
// delayed frames and wraps the stream as Annex B or fragmented MP4.
package x264encoder

import (
	"fmt"
	"image"
	"sync"

	"github.com/user/x264go/pkg/ports"
	"github.com/user/x264go/pkg/x264"
)

// encodedFrame is one emitted picture, kept in decode order.
type encodedFrame struct {
	nal      *x264.NALData
	pts      int64
	dts      int64
	keyframe bool
	typ      x264.FrameType
}

// Encoder implements ports.VideoEncoder on top of package x264.
type Encoder struct {
	mu sync.Mutex

	logger  ports.Logger
	onFrame func(ports.EncodedFrame) error

	width     int
	height    int
	fps       float64
	options   ports.EncoderOptions
	container ports.Container
	param     x264.Param

	session *x264.Encoder
	picture *x264.Picture
	headers *x264.NALData

	frames     []encodedFrame
	frameCount int
	stats      ports.EncoderStats
}

// New creates a new x264 encoder.
func New(logger ports.Logger) *Encoder {
	return &Encoder{logger: logger.WithComponent("x264")}
}

// OnFrame registers fn to be called for every emitted frame, in emission
// order. An error from fn aborts the current EncodeFrame or End call.
func (e *Encoder) OnFrame(fn func(ports.EncodedFrame) error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onFrame = fn
}

// Begin opens an encoder session.
func (e *Encoder) Begin(width, height int, fps float64, opts ports.EncoderOptions) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session != nil {
		e.cleanup()
	}

	e.width = width
	e.height = height
	e.fps = fps
	e.options = opts
	e.container = opts.Container
	if e.container == "" {
		e.container = ports.ContainerMP4
	}
	e.frames = nil
	e.frameCount = 0
	e.stats = ports.EncoderStats{}

	param, err := buildParam(width, height, fps, opts)
	if err != nil {
		return fmt.Errorf("configure encoder: %w", err)
	}
	e.param = param

	session, err := x264.Open(param)
	if err != nil {
		return fmt.Errorf("open encoder: %w", err)
	}
	e.session = session

	pic, err := x264.NewPicture(param)
	if err != nil {
		e.cleanup()
		return fmt.Errorf("allocate picture: %w", err)
	}
	e.picture = pic

	headers, err := session.Headers()
	if err != nil {
		e.cleanup()
		return fmt.Errorf("stream headers: %w", err)
	}
	e.headers = headers
	e.stats.HeaderBytes = headers.Len()
	e.stats.MaxDelayed = session.MaxDelayedFrames()

	e.stats.Resolved = param.String()
	if resolved, err := session.Parameters(); err == nil {
		e.stats.Resolved = resolved.String()
	}
	e.logger.Debug("Encoder opened: %s", e.stats.Resolved)

	return nil
}

// EncodeFrame converts img into the session picture and submits it. The
// frame's position in the sequence is its pts; timestampMs is only logged.
func (e *Encoder) EncodeFrame(img image.Image, timestampMs int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session == nil {
		return ErrNotInitialized
	}

	if err := fillPicture(e.picture, img, e.options.FullRange); err != nil {
		return fmt.Errorf("frame %d: %w", e.frameCount, err)
	}

	pts := int64(e.frameCount)
	frame, err := e.session.Encode(e.picture.WithTimestamp(pts).WithType(x264.FrameAuto))
	if err != nil {
		return fmt.Errorf("frame %d at %dms: %w", e.frameCount, timestampMs, err)
	}
	e.frameCount++
	e.stats.FramesIn = e.frameCount

	if frame == nil {
		e.logger.Debug("Frame %d buffered (%d delayed)", pts, e.session.DelayedFrameCount())
		return nil
	}
	return e.collect(frame)
}

// End drains delayed frames, releases the session and returns the stream.
func (e *Encoder) End() ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session == nil {
		return nil, ErrNotInitialized
	}
	defer e.cleanup()

	delayed := e.session.DelayedFrameCount()
	if err := e.session.Flush(e.collect); err != nil {
		return nil, fmt.Errorf("flush: %w", err)
	}
	e.logger.Debug("Flushed %d delayed frames", delayed)

	switch e.container {
	case ports.ContainerAnnexB:
		return e.buildAnnexB()
	case ports.ContainerMP4:
		return e.buildMP4()
	}
	return nil, fmt.Errorf("x264encoder: unknown container %q", e.container)
}

// Stats returns counters for the current or last session.
func (e *Encoder) Stats() ports.EncoderStats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stats
}

// Headers returns the SPS, PPS and SEI written at Begin, in Annex B form.
func (e *Encoder) Headers() []byte {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.headers == nil {
		return nil
	}
	return e.headers.Bytes()
}

func (e *Encoder) collect(f *x264.Frame) error {
	index := len(e.frames)
	e.frames = append(e.frames, encodedFrame{
		nal:      f.NAL,
		pts:      f.PTS,
		dts:      f.DTS,
		keyframe: f.Keyframe,
		typ:      f.Type,
	})

	e.stats.FramesOut++
	e.stats.FrameBytes += int64(f.NAL.Len())
	if f.Keyframe {
		e.stats.Keyframes++
	}
	e.logger.Debug("Frame emitted: pts %d dts %d type %s, %d bytes", f.PTS, f.DTS, f.Type, f.NAL.Len())

	if e.onFrame == nil {
		return nil
	}
	return e.onFrame(ports.EncodedFrame{
		Index:    index,
		PTS:      f.PTS,
		DTS:      f.DTS,
		Keyframe: f.Keyframe,
		Type:     f.Type.String(),
		Data:     f.NAL.Bytes(),
	})
}

func (e *Encoder) cleanup() {
	if e.picture != nil {
		e.picture.Close()
		e.picture = nil
	}
	if e.session != nil {
		e.session.Close()
		e.session = nil
	}
}

var (
	_ ports.VideoEncoder   = (*Encoder)(nil)
	_ ports.StatsProvider  = (*Encoder)(nil)
	_ ports.FrameObserver  = (*Encoder)(nil)
	_ ports.HeaderProvider = (*Encoder)(nil)
)
