// Package mp4probe inspects encoder output, either an MP4 file or a raw
// Annex B elementary stream, and reports what it contains.
package mp4probe

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/Eyevinn/mp4ff/avc"
	"github.com/Eyevinn/mp4ff/mp4"
)

// Codec represents a video codec type.
type Codec string

const (
	CodecH264    Codec = "h264"
	CodecHEVC    Codec = "hevc"
	CodecAV1     Codec = "av1"
	CodecUnknown Codec = "unknown"
)

// Container formats recognised by Probe.
const (
	ContainerMP4    = "mp4"
	ContainerAnnexB = "annexb"
)

var (
	// ErrNoVideoTrack is returned when an MP4 file carries no video track.
	ErrNoVideoTrack = errors.New("mp4probe: no video track found")

	// ErrUnrecognised is returned for data that is neither MP4 nor Annex B.
	ErrUnrecognised = errors.New("mp4probe: unrecognised data")
)

// Report describes a probed stream.
type Report struct {
	Container string         `json:"container"`
	Codec     Codec          `json:"codec"`
	Width     int            `json:"width"`
	Height    int            `json:"height"`
	Profile   int            `json:"profile"`
	Level     int            `json:"level"`
	Samples   int            `json:"samples"`
	Keyframes int            `json:"keyframes"`
	Duration  float64        `json:"durationSeconds,omitempty"`
	NALCounts map[string]int `json:"nalCounts,omitempty"`
}

// ProfileName returns the H.264 profile name for profile_idc.
func (r Report) ProfileName() string {
	switch r.Profile {
	case 66:
		return "baseline"
	case 77:
		return "main"
	case 88:
		return "extended"
	case 100:
		return "high"
	case 110:
		return "high10"
	case 122:
		return "high422"
	case 244:
		return "high444"
	}
	return fmt.Sprintf("profile_idc %d", r.Profile)
}

// LevelName returns the level as major.minor.
func (r Report) LevelName() string {
	return fmt.Sprintf("%d.%d", r.Level/10, r.Level%10)
}

// ProbeFile reads and probes a file.
func ProbeFile(path string) (Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Report{}, fmt.Errorf("read file: %w", err)
	}
	return Probe(data)
}

// Probe inspects data, dispatching on the container it looks like.
func Probe(data []byte) (Report, error) {
	switch {
	case isAnnexB(data):
		return probeAnnexB(data)
	case isMP4(data):
		return probeMP4(&bytesReadSeeker{data: data})
	}
	return Report{}, ErrUnrecognised
}

// ProbeReader probes an MP4 file from an io.ReadSeeker.
func ProbeReader(reader io.ReadSeeker) (Report, error) {
	return probeMP4(reader)
}

func isAnnexB(data []byte) bool {
	return bytes.HasPrefix(data, []byte{0, 0, 0, 1}) || bytes.HasPrefix(data, []byte{0, 0, 1})
}

func isMP4(data []byte) bool {
	if len(data) < 8 {
		return false
	}
	switch string(data[4:8]) {
	case "ftyp", "styp", "moov", "moof":
		return true
	}
	return false
}

func probeAnnexB(data []byte) (Report, error) {
	r := Report{Container: ContainerAnnexB, Codec: CodecH264, NALCounts: map[string]int{}}

	for _, nalu := range avc.ExtractNalusFromByteStream(data) {
		if len(nalu) == 0 {
			continue
		}
		typ := avc.GetNaluType(nalu[0])
		r.NALCounts[typ.String()]++

		switch typ {
		case avc.NALU_SPS:
			if r.Width == 0 {
				if err := r.applySPS(nalu); err != nil {
					return r, err
				}
			}
		case avc.NALU_IDR:
			if firstSliceOfPicture(nalu) {
				r.Keyframes++
				r.Samples++
			}
		case avc.NALU_NON_IDR:
			if firstSliceOfPicture(nalu) {
				r.Samples++
			}
		}
	}

	if r.Width == 0 {
		return r, fmt.Errorf("%w: no sequence parameter set", ErrUnrecognised)
	}
	return r, nil
}

// firstSliceOfPicture reports whether first_mb_in_slice is zero, which is
// signalled by a leading 1 bit in the Exp-Golomb code.
func firstSliceOfPicture(nalu []byte) bool {
	return len(nalu) > 1 && nalu[1]&0x80 != 0
}

func (r *Report) applySPS(nalu []byte) error {
	sps, err := avc.ParseSPSNALUnit(nalu, false)
	if err != nil {
		return fmt.Errorf("parse sps: %w", err)
	}
	r.Width = int(sps.Width)
	r.Height = int(sps.Height)
	r.Profile = int(sps.Profile)
	r.Level = int(sps.Level)
	return nil
}

func probeMP4(reader io.ReadSeeker) (Report, error) {
	mp4File, err := mp4.DecodeFile(reader)
	if err != nil {
		return Report{}, fmt.Errorf("decode mp4: %w", err)
	}

	r := Report{Container: ContainerMP4, Codec: CodecUnknown}

	var moov *mp4.MoovBox
	if mp4File.IsFragmented() && mp4File.Init != nil {
		moov = mp4File.Init.Moov
	} else {
		moov = mp4File.Moov
	}
	if moov == nil {
		return r, ErrNoVideoTrack
	}

	trak := videoTrack(moov)
	if trak == nil {
		return r, ErrNoVideoTrack
	}
	r.Codec = detectCodecFromTrack(trak)
	if r.Codec == CodecH264 {
		if err := r.applySampleEntry(trak); err != nil {
			return r, err
		}
	}

	timescale := trak.Mdia.Mdhd.Timescale
	if mp4File.IsFragmented() {
		if err := r.countFragments(mp4File, moov, trak.Tkhd.TrackID, timescale); err != nil {
			return r, err
		}
		return r, nil
	}

	stbl := trak.Mdia.Minf.Stbl
	if stbl.Stsz != nil {
		r.Samples = int(stbl.Stsz.SampleNumber)
	}
	if stbl.Stss != nil {
		r.Keyframes = len(stbl.Stss.SampleNumber)
	} else {
		r.Keyframes = r.Samples
	}
	if timescale > 0 {
		r.Duration = float64(trak.Mdia.Mdhd.Duration) / float64(timescale)
	}
	return r, nil
}

func (r *Report) countFragments(f *mp4.File, moov *mp4.MoovBox, trackID uint32, timescale uint32) error {
	if moov.Mvex == nil {
		return fmt.Errorf("decode mp4: fragmented file without mvex")
	}
	var trex *mp4.TrexBox
	for _, t := range moov.Mvex.Trexs {
		if t.TrackID == trackID {
			trex = t
		}
	}

	var end uint64
	for _, seg := range f.Segments {
		for _, frag := range seg.Fragments {
			samples, err := frag.GetFullSamples(trex)
			if err != nil {
				return fmt.Errorf("read fragment samples: %w", err)
			}
			for _, s := range samples {
				r.Samples++
				if s.IsSync() {
					r.Keyframes++
				}
				if e := s.DecodeTime + uint64(s.Dur); e > end {
					end = e
				}
			}
		}
	}
	if timescale > 0 {
		r.Duration = float64(end) / float64(timescale)
	}
	return nil
}

func (r *Report) applySampleEntry(trak *mp4.TrakBox) error {
	for _, child := range trak.Mdia.Minf.Stbl.Stsd.Children {
		vse, ok := child.(*mp4.VisualSampleEntryBox)
		if !ok || vse.AvcC == nil {
			continue
		}
		r.Width = int(vse.Width)
		r.Height = int(vse.Height)
		r.Profile = int(vse.AvcC.AVCProfileIndication)
		r.Level = int(vse.AvcC.AVCLevelIndication)
		if len(vse.AvcC.SPSnalus) > 0 {
			return r.applySPS(vse.AvcC.SPSnalus[0])
		}
		return nil
	}
	return nil
}

func videoTrack(moov *mp4.MoovBox) *mp4.TrakBox {
	for _, trak := range moov.Traks {
		if trak.Mdia == nil || trak.Mdia.Hdlr == nil || trak.Mdia.Minf == nil {
			continue
		}
		if trak.Mdia.Hdlr.HandlerType != "vide" {
			continue
		}
		if trak.Mdia.Minf.Stbl == nil || trak.Mdia.Minf.Stbl.Stsd == nil {
			continue
		}
		return trak
	}
	return nil
}

func detectCodecFromTrack(trak *mp4.TrakBox) Codec {
	for _, child := range trak.Mdia.Minf.Stbl.Stsd.Children {
		switch child.Type() {
		case "avc1", "avc3":
			return CodecH264
		case "hvc1", "hev1":
			return CodecHEVC
		case "av01":
			return CodecAV1
		}
	}
	return CodecUnknown
}

// SortedNALTypes returns the NAL type names in the report in stable order.
func (r Report) SortedNALTypes() []string {
	names := make([]string, 0, len(r.NALCounts))
	for name := range r.NALCounts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// bytesReadSeeker implements io.ReadSeeker for a byte slice
type bytesReadSeeker struct {
	data   []byte
	offset int64
}

func (b *bytesReadSeeker) Read(p []byte) (n int, err error) {
	if b.offset >= int64(len(b.data)) {
		return 0, io.EOF
	}
	n = copy(p, b.data[b.offset:])
	b.offset += int64(n)
	return n, nil
}

func (b *bytesReadSeeker) Seek(offset int64, whence int) (int64, error) {
	var next int64
	switch whence {
	case io.SeekStart:
		next = offset
	case io.SeekCurrent:
		next = b.offset + offset
	case io.SeekEnd:
		next = int64(len(b.data)) + offset
	}
	if next < 0 {
		return 0, fmt.Errorf("negative offset")
	}
	b.offset = next
	return next, nil
}
