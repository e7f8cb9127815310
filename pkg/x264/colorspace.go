package x264

/*
#include <stdint.h>
#include <x264.h>
*/
import "C"

import (
	"fmt"
	"strings"
)

// Colorspace is an x264 input pixel format (X264_CSP_*), optionally combined
// with the CSPHighDepth and CSPVFlip modifier bits.
type Colorspace int

// Supported colorspaces. Values come from the installed x264.h.
const (
	CSPI420 Colorspace = C.X264_CSP_I420 // yuv 4:2:0 planar
	CSPYV12 Colorspace = C.X264_CSP_YV12 // yvu 4:2:0 planar
	CSPNV12 Colorspace = C.X264_CSP_NV12 // yuv 4:2:0, with one y plane and one packed u+v
	CSPNV21 Colorspace = C.X264_CSP_NV21 // yuv 4:2:0, with one y plane and one packed v+u
	CSPI422 Colorspace = C.X264_CSP_I422 // yuv 4:2:2 planar
	CSPYV16 Colorspace = C.X264_CSP_YV16 // yvu 4:2:2 planar
	CSPNV16 Colorspace = C.X264_CSP_NV16 // yuv 4:2:2, with one y plane and one packed u+v
	CSPI444 Colorspace = C.X264_CSP_I444 // yuv 4:4:4 planar
	CSPYV24 Colorspace = C.X264_CSP_YV24 // yvu 4:4:4 planar
	CSPBGR  Colorspace = C.X264_CSP_BGR  // packed bgr 24bits
	CSPBGRA Colorspace = C.X264_CSP_BGRA // packed bgr 32bits
	CSPRGB  Colorspace = C.X264_CSP_RGB  // packed rgb 24bits
)

// Modifier bits and the mask that strips them.
const (
	CSPMask      Colorspace = C.X264_CSP_MASK
	CSPVFlip     Colorspace = C.X264_CSP_VFLIP
	CSPHighDepth Colorspace = C.X264_CSP_HIGH_DEPTH
)

// MaxPlanes is the largest plane count of any supported colorspace.
const MaxPlanes = 3

// scaleDenom is the fixed-point denominator of every plane scale.
const scaleDenom = 256

// scale holds per-plane width and height factors over scaleDenom.
type scale struct {
	w [MaxPlanes]int
	h [MaxPlanes]int
}

var supported = []Colorspace{
	CSPI420, CSPYV12, CSPNV12, CSPNV21,
	CSPI422, CSPYV16, CSPNV16,
	CSPI444, CSPYV24,
	CSPBGR, CSPBGRA, CSPRGB,
}

var names = map[Colorspace]string{
	CSPI420: "i420",
	CSPYV12: "yv12",
	CSPNV12: "nv12",
	CSPNV21: "nv21",
	CSPI422: "i422",
	CSPYV16: "yv16",
	CSPNV16: "nv16",
	CSPI444: "i444",
	CSPYV24: "yv24",
	CSPBGR:  "bgr",
	CSPBGRA: "bgra",
	CSPRGB:  "rgb",
}

// SupportedColorspaces returns every base colorspace pictures can be allocated for.
func SupportedColorspaces() []Colorspace {
	out := make([]Colorspace, len(supported))
	copy(out, supported)
	return out
}

// Base returns c without modifier bits.
func (c Colorspace) Base() Colorspace {
	return c & CSPMask
}

// HighDepth reports whether the high bit depth modifier is set.
func (c Colorspace) HighDepth() bool {
	return c&CSPHighDepth != 0
}

// Supported reports whether the base colorspace is in the supported enumeration.
func (c Colorspace) Supported() bool {
	_, ok := names[c.Base()]
	return ok
}

// BytesPerSample is 2 for high bit depth input and 1 otherwise.
func (c Colorspace) BytesPerSample() int {
	if c.HighDepth() {
		return 2
	}
	return 1
}

// Planes returns the number of planes the colorspace uses.
func (c Colorspace) Planes() int {
	s := scaleFor(c)
	n := 0
	for n < MaxPlanes && s.w[n] != 0 {
		n++
	}
	return n
}

// String returns the lowercase name, with "+high" and "+vflip" for modifiers.
func (c Colorspace) String() string {
	name, ok := names[c.Base()]
	if !ok {
		return fmt.Sprintf("csp(%#x)", int(c))
	}
	if c.HighDepth() {
		name += "+high"
	}
	if c&CSPVFlip != 0 {
		name += "+vflip"
	}
	return name
}

// ParseColorspace parses names produced by String, case-insensitively.
func ParseColorspace(s string) (Colorspace, error) {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(s)), "+")
	var c Colorspace = -1
	for base, name := range names {
		if name == parts[0] {
			c = base
			break
		}
	}
	if c < 0 {
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedColorspace, s)
	}
	for _, mod := range parts[1:] {
		switch mod {
		case "high":
			c |= CSPHighDepth
		case "vflip":
			c |= CSPVFlip
		default:
			return 0, fmt.Errorf("%w: modifier %q in %q", ErrInvalidArgument, mod, s)
		}
	}
	return c, nil
}

// scaleFor returns the plane scale table of c's base colorspace.
// It panics for colorspaces outside the supported enumeration.
func scaleFor(c Colorspace) scale {
	switch c.Base() {
	case CSPI420, CSPYV12:
		return scale{
			w: [MaxPlanes]int{256, 256 / 2, 256 / 2},
			h: [MaxPlanes]int{256, 256 / 2, 256 / 2},
		}
	case CSPNV12, CSPNV21:
		return scale{
			w: [MaxPlanes]int{256, 256, 0},
			h: [MaxPlanes]int{256, 256 / 2, 0},
		}
	case CSPI422, CSPYV16:
		return scale{
			w: [MaxPlanes]int{256, 256 / 2, 256 / 2},
			h: [MaxPlanes]int{256, 256, 256},
		}
	case CSPNV16:
		return scale{
			w: [MaxPlanes]int{256, 256, 0},
			h: [MaxPlanes]int{256, 256, 0},
		}
	case CSPI444, CSPYV24:
		return scale{
			w: [MaxPlanes]int{256, 256, 256},
			h: [MaxPlanes]int{256, 256, 256},
		}
	case CSPBGR, CSPRGB:
		return scale{
			w: [MaxPlanes]int{256 * 3, 0, 0},
			h: [MaxPlanes]int{256, 0, 0},
		}
	case CSPBGRA:
		return scale{
			w: [MaxPlanes]int{256 * 4, 0, 0},
			h: [MaxPlanes]int{256, 0, 0},
		}
	}
	panic(fmt.Sprintf("x264: no plane scale for colorspace %#x", int(c)))
}

// PlaneScale returns the fixed-point (over 256) width and height factor of a plane.
// Unused planes report zero.
func PlaneScale(c Colorspace, plane int) (w, h int) {
	if plane < 0 || plane >= MaxPlanes {
		return 0, 0
	}
	s := scaleFor(c)
	return s.w[plane], s.h[plane]
}

// PlaneSizes returns the byte size of each plane of a width x height picture,
// laid out the way x264_picture_alloc packs it. Unused planes are zero.
func PlaneSizes(c Colorspace, width, height int) [MaxPlanes]int {
	return planeSizes(c, width, height, MaxPlanes)
}

func planeSizes(c Colorspace, width, height, planes int) [MaxPlanes]int {
	var sizes [MaxPlanes]int
	s := scaleFor(c)
	bytes := c.BytesPerSample()
	for i := 0; i < planes && i < MaxPlanes; i++ {
		stride := width * s.w[i] / scaleDenom * bytes
		rows := height * s.h[i] / scaleDenom
		sizes[i] = stride * rows
	}
	return sizes
}
