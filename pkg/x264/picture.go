package x264

/*
#include <stdint.h>
#include <x264.h>
*/
import "C"

import (
	"fmt"
	"unsafe"
)

// FrameType is the x264 slice type of a picture (X264_TYPE_*).
type FrameType int

const (
	FrameAuto     FrameType = C.X264_TYPE_AUTO
	FrameIDR      FrameType = C.X264_TYPE_IDR
	FrameI        FrameType = C.X264_TYPE_I
	FrameP        FrameType = C.X264_TYPE_P
	FrameBRef     FrameType = C.X264_TYPE_BREF
	FrameB        FrameType = C.X264_TYPE_B
	FrameKeyframe FrameType = C.X264_TYPE_KEYFRAME
)

func (t FrameType) String() string {
	switch t {
	case FrameAuto:
		return "auto"
	case FrameIDR:
		return "IDR"
	case FrameI:
		return "I"
	case FrameP:
		return "P"
	case FrameBRef:
		return "Bref"
	case FrameB:
		return "B"
	case FrameKeyframe:
		return "keyframe"
	}
	return fmt.Sprintf("type(%d)", int(t))
}

// Picture is a raw frame whose plane storage is owned by libx264.
//
// Plane views returned by Plane alias that storage and are invalid after
// Close. A Picture must not be used from more than one goroutine at a time.
type Picture struct {
	pic       C.x264_picture_t
	planes    int
	planeSize [MaxPlanes]int
	width     int
	height    int
	native    bool
	closed    bool
}

// NewPicture allocates a picture matching p's colorspace and dimensions.
func NewPicture(p Param) (*Picture, error) {
	csp := p.Colorspace()
	if !csp.Supported() {
		return nil, fmt.Errorf("%w: %w %s", ErrInvalidArgument, ErrUnsupportedColorspace, csp)
	}
	width, height := p.Width(), p.Height()
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: picture size %dx%d", ErrInvalidArgument, width, height)
	}

	pic := &Picture{width: width, height: height}
	if ret := C.x264_picture_alloc(&pic.pic, C.int(csp), C.int(width), C.int(height)); ret < 0 {
		return nil, fmt.Errorf("%w: picture %s %dx%d", ErrAllocation, csp, width, height)
	}
	pic.native = true

	pic.planes = int(pic.pic.img.i_plane)
	if pic.planes > MaxPlanes {
		pic.planes = MaxPlanes
	}
	pic.planeSize = planeSizes(csp, width, height, pic.planes)
	return pic, nil
}

// Close releases the plane storage if this picture allocated it. It is safe
// to call more than once.
func (p *Picture) Close() {
	if p.closed {
		return
	}
	p.closed = true
	if p.native {
		C.x264_picture_clean(&p.pic)
	}
}

// Plane returns a view of exactly PlaneSize(i) bytes of plane i. The slice
// aliases native storage: it must not be retained past Close.
func (p *Picture) Plane(i int) ([]byte, error) {
	if p.closed {
		return nil, ErrClosed
	}
	if i < 0 || i >= p.planes {
		return nil, fmt.Errorf("%w: %w: %d (picture has %d planes)", ErrInvalidArgument, ErrPlaneIndex, i, p.planes)
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(p.pic.img.plane[i])), p.planeSize[i]), nil
}

// CopyPlane returns an owned copy of plane i.
func (p *Picture) CopyPlane(i int) ([]byte, error) {
	view, err := p.Plane(i)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(view))
	copy(out, view)
	return out, nil
}

// WritePlane copies src into the start of plane i and returns the number of
// bytes written, which is short when src is larger than the plane.
func (p *Picture) WritePlane(i int, src []byte) (int, error) {
	view, err := p.Plane(i)
	if err != nil {
		return 0, err
	}
	return copy(view, src), nil
}

// WithTimestamp sets the presentation timestamp and returns p.
func (p *Picture) WithTimestamp(pts int64) *Picture {
	p.pic.i_pts = C.int64_t(pts)
	return p
}

// WithType forces the slice type of the next encode, e.g. FrameIDR. FrameAuto
// lets libx264 decide.
func (p *Picture) WithType(t FrameType) *Picture {
	p.pic.i_type = C.int(t)
	return p
}

func (p *Picture) Timestamp() int64 { return int64(p.pic.i_pts) }
func (p *Picture) Type() FrameType { return FrameType(p.pic.i_type) }
func (p *Picture) Colorspace() Colorspace { return Colorspace(p.pic.img.i_csp) }
func (p *Picture) Width() int { return p.width }
func (p *Picture) Height() int { return p.height }
func (p *Picture) PlaneCount() int { return p.planes }

// PlaneSize returns the byte size of plane i, or 0 for an unused plane.
func (p *Picture) PlaneSize(i int) int {
	if i < 0 || i >= p.planes {
		return 0
	}
	return p.planeSize[i]
}

// Stride returns the row pitch in bytes libx264 chose for plane i.
func (p *Picture) Stride(i int) int {
	if i < 0 || i >= p.planes {
		return 0
	}
	return int(p.pic.img.i_stride[i])
}

// Rows returns the number of rows in plane i.
func (p *Picture) Rows(i int) int {
	stride := p.Stride(i)
	if stride == 0 {
		return 0
	}
	return p.planeSize[i] / stride
}

// input returns the C picture handed to x264_encoder_encode.
func (p *Picture) input() *C.x264_picture_t {
	return &p.pic
}
