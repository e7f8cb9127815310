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

// NALType is the H.264 nal_unit_type libx264 reports for a fragment.
type NALType int

const (
	NALUnknown  NALType = C.NAL_UNKNOWN
	NALSlice    NALType = C.NAL_SLICE
	NALSliceIDR NALType = C.NAL_SLICE_IDR
	NALSEI      NALType = C.NAL_SEI
	NALSPS      NALType = C.NAL_SPS
	NALPPS      NALType = C.NAL_PPS
	NALAUD      NALType = C.NAL_AUD
	NALFiller   NALType = C.NAL_FILLER
)

func (t NALType) String() string {
	switch t {
	case NALSlice:
		return "slice"
	case NALSliceIDR:
		return "idr"
	case NALSEI:
		return "sei"
	case NALSPS:
		return "sps"
	case NALPPS:
		return "pps"
	case NALAUD:
		return "aud"
	case NALFiller:
		return "filler"
	}
	return fmt.Sprintf("nal(%d)", int(t))
}

// NALUnit is one fragment inside a NALData buffer. Payload is a sub-slice of
// the owning buffer and includes the start code or length prefix libx264 wrote.
type NALUnit struct {
	Type     NALType
	Priority int
	Payload  []byte
}

type nalSpan struct {
	typ      NALType
	priority int
	off, n   int
}

// NALData is encoded bitstream copied out of libx264. It holds no reference to
// libx264 memory, so it stays valid across later encoder calls.
type NALData struct {
	buf   []byte
	spans []nalSpan
}

// nalDataFrom copies n fragments starting at nals. libx264 reuses that array
// on the next headers or encode call; nothing here keeps a pointer into it.
func nalDataFrom(nals *C.x264_nal_t, n C.int) *NALData {
	d := &NALData{}
	if nals == nil || n <= 0 {
		return d
	}
	frags := unsafe.Slice(nals, int(n))

	total := 0
	for i := range frags {
		total += int(frags[i].i_payload)
	}
	d.buf = make([]byte, 0, total)
	d.spans = make([]nalSpan, 0, len(frags))

	for i := range frags {
		size := int(frags[i].i_payload)
		if size <= 0 {
			continue
		}
		payload := unsafe.Slice((*byte)(unsafe.Pointer(frags[i].p_payload)), size)
		d.spans = append(d.spans, nalSpan{
			typ:      NALType(frags[i].i_type),
			priority: int(frags[i].i_ref_idc),
			off:      len(d.buf),
			n:        size,
		})
		d.buf = append(d.buf, payload...)
	}
	return d
}

// Bytes returns every fragment concatenated in emission order.
func (d *NALData) Bytes() []byte {
	return d.buf
}

// Len returns the total payload size.
func (d *NALData) Len() int {
	return len(d.buf)
}

// Units returns the fragments with their boundaries and types.
func (d *NALData) Units() []NALUnit {
	units := make([]NALUnit, len(d.spans))
	for i, s := range d.spans {
		units[i] = NALUnit{
			Type:     s.typ,
			Priority: s.priority,
			Payload:  d.buf[s.off : s.off+s.n : s.off+s.n],
		}
	}
	return units
}
