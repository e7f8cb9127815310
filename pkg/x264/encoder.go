package x264

/*
#include <stdint.h>
#include <x264.h>

// x264_encoder_open is a macro naming a build-versioned symbol.
static x264_t *open_encoder(x264_param_t *param) {
    return x264_encoder_open(param);
}
*/
import "C"

import "fmt"

// Frame is one encoded picture. PTS and DTS belong to the picture libx264
// chose to emit, which with B-frames is not the one just submitted.
type Frame struct {
	NAL      *NALData
	PTS      int64
	DTS      int64
	Keyframe bool
	Type     FrameType
}

// Encoder is an open libx264 session. It is not safe for concurrent use.
type Encoder struct {
	h     *C.x264_t
	param Param
}

// Open starts an encoder for p. libx264 copies what it needs; p stays
// independent of the session.
func Open(p Param) (*Encoder, error) {
	par := p.par
	h := C.open_encoder(&par)
	if h == nil {
		return nil, fmt.Errorf("%w: encoder open %dx%d %s", ErrAllocation, p.Width(), p.Height(), p.Colorspace())
	}
	return &Encoder{h: h, param: p}, nil
}

// Close releases the session. It is safe to call more than once.
func (e *Encoder) Close() {
	if e.h == nil {
		return
	}
	C.x264_encoder_close(e.h)
	e.h = nil
}

// Headers returns the stream headers (SPS, PPS and the version SEI).
func (e *Encoder) Headers() (*NALData, error) {
	if e.h == nil {
		return nil, ErrClosed
	}
	var nals *C.x264_nal_t
	var n C.int
	if ret := C.x264_encoder_headers(e.h, &nals, &n); ret < 0 {
		return nil, fmt.Errorf("%w: headers (status %d)", ErrEncode, int(ret))
	}
	return nalDataFrom(nals, n), nil
}

// Encode submits pic, or signals end of stream when pic is nil. It returns a
// nil Frame when libx264 buffered the input without emitting output.
func (e *Encoder) Encode(pic *Picture) (*Frame, error) {
	if e.h == nil {
		return nil, ErrClosed
	}
	var in *C.x264_picture_t
	if pic != nil {
		if pic.closed {
			return nil, fmt.Errorf("encode input: %w", ErrClosed)
		}
		in = pic.input()
	}

	var out C.x264_picture_t
	var nals *C.x264_nal_t
	var n C.int
	if ret := C.x264_encoder_encode(e.h, &nals, &n, in, &out); ret < 0 {
		return nil, fmt.Errorf("%w: frame (status %d)", ErrEncode, int(ret))
	}
	if n <= 0 {
		return nil, nil
	}
	return &Frame{
		NAL:      nalDataFrom(nals, n),
		PTS:      int64(out.i_pts),
		DTS:      int64(out.i_dts),
		Keyframe: out.b_keyframe != 0,
		Type:     FrameType(out.i_type),
	}, nil
}

// DelayedFrames reports whether libx264 still holds frames that have not
// been emitted.
func (e *Encoder) DelayedFrames() bool {
	return e.DelayedFrameCount() > 0
}

// DelayedFrameCount returns the number of buffered, unemitted frames.
func (e *Encoder) DelayedFrameCount() int {
	if e.h == nil {
		return 0
	}
	return int(C.x264_encoder_delayed_frames(e.h))
}

// MaxDelayedFrames returns the most frames libx264 may buffer with the
// current settings.
func (e *Encoder) MaxDelayedFrames() int {
	if e.h == nil {
		return 0
	}
	return int(C.x264_encoder_maximum_delayed_frames(e.h))
}

// Flush drains buffered frames by encoding with no input until none remain,
// calling fn for each emitted frame in output order.
func (e *Encoder) Flush(fn func(*Frame) error) error {
	for e.DelayedFrames() {
		f, err := e.Encode(nil)
		if err != nil {
			return err
		}
		if f == nil {
			continue
		}
		if err := fn(f); err != nil {
			return err
		}
	}
	return nil
}

// Param returns the configuration the session was opened with.
func (e *Encoder) Param() Param {
	return e.param
}

// Parameters returns the configuration libx264 resolved at open, with
// automatic values such as the thread count filled in. The result owns its
// string options and stays valid after Close, so it can open another session.
func (e *Encoder) Parameters() (Param, error) {
	if e.h == nil {
		return Param{}, ErrClosed
	}
	var p Param
	C.x264_encoder_parameters(e.h, &p.par)
	owned, err := p.reown()
	if err != nil {
		return Param{}, fmt.Errorf("encoder parameters: %w", err)
	}
	return owned, nil
}
