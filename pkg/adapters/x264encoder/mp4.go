package x264encoder

import (
	"bytes"
	"fmt"

	"github.com/Eyevinn/mp4ff/mp4"

	"github.com/user/x264go/pkg/x264"
)

// buildAnnexB concatenates the stream headers and every frame in decode order.
func (e *Encoder) buildAnnexB() ([]byte, error) {
	if len(e.frames) == 0 {
		return nil, ErrNoFrames
	}
	size := e.headers.Len()
	for _, f := range e.frames {
		size += f.nal.Len()
	}
	out := make([]byte, 0, size)
	out = append(out, e.headers.Bytes()...)
	for _, f := range e.frames {
		out = append(out, f.nal.Bytes()...)
	}
	return out, nil
}

// buildMP4 creates a fragmented MP4 from the emitted frames. Samples are
// stored in decode order; B-frame reordering is expressed with composition
// time offsets derived from each frame's pts and dts.
func (e *Encoder) buildMP4() ([]byte, error) {
	if len(e.frames) == 0 {
		return nil, ErrNoFrames
	}

	sps, pps, err := parameterSets(e.headers)
	if err != nil {
		return nil, err
	}

	timescale, tick := mediaTimescale(e.param)
	trackID := uint32(1)

	init := mp4.CreateEmptyInit()
	init.AddEmptyTrack(timescale, "video", "und")
	trak := init.Moov.Trak

	avcC, err := mp4.CreateAvcC([][]byte{sps}, [][]byte{pps}, true)
	if err != nil {
		return nil, fmt.Errorf("create avcC: %w", err)
	}
	avc1 := mp4.CreateVisualSampleEntryBox("avc1", uint16(e.width), uint16(e.height), avcC)
	trak.Mdia.Minf.Stbl.Stsd.AddChild(avc1)
	trak.Tkhd.Width = mp4.Fixed32(e.width << 16)
	trak.Tkhd.Height = mp4.Fixed32(e.height << 16)

	frag, err := mp4.CreateFragment(1, trackID)
	if err != nil {
		return nil, fmt.Errorf("create fragment: %w", err)
	}

	// libx264 starts dts below zero when B-frames are enabled; shift decode
	// times so they are non-negative. Composition offsets absorb the shift
	// and may go negative, which keeps the first presentation time at 0
	// without an edit list.
	shift := int64(0)
	if first := e.frames[0].dts; first < 0 {
		shift = -first
	}
	firstPTS := e.frames[0].pts
	for _, f := range e.frames[1:] {
		firstPTS = min(firstPTS, f.pts)
	}
	negative := false

	for i, f := range e.frames {
		dur := uint32(tick)
		if i+1 < len(e.frames) {
			if d := e.frames[i+1].dts - f.dts; d > 0 {
				dur = uint32(d * tick)
			}
		}

		flags := mp4.NonSyncSampleFlags
		if f.keyframe {
			flags = mp4.SyncSampleFlags
		}

		decode := f.dts + shift
		offset := (f.pts - firstPTS) - decode
		if offset < 0 {
			negative = true
		}

		data := lengthPrefixed(f.nal)
		frag.AddFullSample(mp4.FullSample{
			Sample: mp4.Sample{
				Flags:                 flags,
				Size:                  uint32(len(data)),
				Dur:                   dur,
				CompositionTimeOffset: int32(offset * tick),
			},
			DecodeTime: uint64(decode * tick),
			Data:       data,
		})
	}
	// Signed composition offsets need trun version 1.
	if negative {
		frag.Moof.Traf.Trun.Version = 1
	}

	var buf bytes.Buffer

	ftyp := mp4.NewFtyp("isom", 0x200, []string{"isom", "iso2", "avc1", "mp41"})
	if err := ftyp.Encode(&buf); err != nil {
		return nil, fmt.Errorf("encode ftyp: %w", err)
	}
	if err := init.Moov.Encode(&buf); err != nil {
		return nil, fmt.Errorf("encode moov: %w", err)
	}
	if err := frag.Encode(&buf); err != nil {
		return nil, fmt.Errorf("encode fragment: %w", err)
	}

	return buf.Bytes(), nil
}

// mediaTimescale picks an MP4 timescale from the frame rate and returns it
// with the duration of one frame in that scale. Low rates are multiplied up
// so players get millisecond resolution.
func mediaTimescale(p x264.Param) (timescale uint32, tick int64) {
	num, den := p.FPS()
	if num <= 0 || den <= 0 {
		num, den = 25, 1
	}
	mult := 1
	if num < 1000 {
		mult = (1000 + num - 1) / num
	}
	return uint32(num * mult), int64(den * mult)
}

// parameterSets returns the first SPS and PPS in the headers, without start codes.
func parameterSets(headers *x264.NALData) (sps, pps []byte, err error) {
	if headers == nil {
		return nil, nil, ErrMissingHeaders
	}
	for _, u := range headers.Units() {
		switch u.Type {
		case x264.NALSPS:
			if sps == nil {
				sps = stripStartCode(u.Payload)
			}
		case x264.NALPPS:
			if pps == nil {
				pps = stripStartCode(u.Payload)
			}
		}
	}
	if sps == nil || pps == nil {
		return nil, nil, ErrMissingHeaders
	}
	return sps, pps, nil
}

// lengthPrefixed converts a frame's NAL units to AVCC sample format, leaving
// out parameter sets and access unit delimiters that belong in avcC.
func lengthPrefixed(nal *x264.NALData) []byte {
	out := make([]byte, 0, nal.Len()+16)
	for _, u := range nal.Units() {
		switch u.Type {
		case x264.NALSPS, x264.NALPPS, x264.NALAUD:
			continue
		}
		body := stripStartCode(u.Payload)
		n := len(body)
		out = append(out, byte(n>>24), byte(n>>16), byte(n>>8), byte(n))
		out = append(out, body...)
	}
	return out
}

// stripStartCode removes a leading 3 or 4 byte Annex B start code.
func stripStartCode(b []byte) []byte {
	i := 0
	for i < len(b) && i < 3 && b[i] == 0 {
		i++
	}
	if i >= 2 && i < len(b) && b[i] == 1 {
		return b[i+1:]
	}
	return b
}
