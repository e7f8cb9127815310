// Package y4msource reads YUV4MPEG2 streams as a frame source.
package y4msource

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/user/x264go/pkg/ports"
)

const (
	streamMagic = "YUV4MPEG2"
	frameMagic  = "FRAME"
)

var (
	// ErrBadHeader is returned when the stream header is missing or malformed.
	ErrBadHeader = errors.New("y4msource: bad stream header")

	// ErrUnsupported is returned for chroma layouts, bit depths or interlaced
	// streams the source cannot decode.
	ErrUnsupported = errors.New("y4msource: unsupported format")

	// ErrTruncated is returned when a frame ends early.
	ErrTruncated = errors.New("y4msource: truncated frame")
)

// Header is the parsed stream header.
type Header struct {
	Width     int
	Height    int
	FPSNum    int
	FPSDen    int
	Chroma    string
	Interlace string
	Ratio     image.YCbCrSubsampleRatio
}

// FPS returns the frame rate as a float.
func (h Header) FPS() float64 {
	if h.FPSDen == 0 {
		return 0
	}
	return float64(h.FPSNum) / float64(h.FPSDen)
}

// Source implements ports.FrameSource over a YUV4MPEG2 stream.
type Source struct {
	r      *bufio.Reader
	closer io.Closer
	header Header
	hdrLen int
	name   string
	frames int
	index  int
}

// Open opens a .y4m file.
func Open(path string) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open y4m: %w", err)
	}
	s, err := New(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	s.closer = f
	s.name = path

	if st, err := f.Stat(); err == nil {
		s.frames = s.estimateFrames(st.Size())
	}
	return s, nil
}

// New reads the stream header from r.
func New(r io.Reader) (*Source, error) {
	br := bufio.NewReaderSize(r, 1<<16)
	line, err := br.ReadString('\n')
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadHeader, err)
	}
	h, err := ParseHeader(strings.TrimSuffix(line, "\n"))
	if err != nil {
		return nil, err
	}
	return &Source{r: br, header: h, hdrLen: len(line), name: "y4m"}, nil
}

// ParseHeader parses a YUV4MPEG2 header line without its trailing newline.
func ParseHeader(line string) (Header, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 || fields[0] != streamMagic {
		return Header{}, fmt.Errorf("%w: missing %s signature", ErrBadHeader, streamMagic)
	}

	h := Header{FPSNum: 25, FPSDen: 1, Chroma: "420jpeg", Interlace: "p"}
	for _, f := range fields[1:] {
		tag, val := f[0], f[1:]
		switch tag {
		case 'W':
			h.Width, _ = strconv.Atoi(val)
		case 'H':
			h.Height, _ = strconv.Atoi(val)
		case 'F':
			num, den, ok := parseRatio(val)
			if !ok || den == 0 {
				return Header{}, fmt.Errorf("%w: frame rate %q", ErrBadHeader, val)
			}
			h.FPSNum, h.FPSDen = num, den
		case 'C':
			h.Chroma = val
		case 'I':
			h.Interlace = val
		}
	}
	if h.Width <= 0 || h.Height <= 0 {
		return Header{}, fmt.Errorf("%w: size %dx%d", ErrBadHeader, h.Width, h.Height)
	}

	// Frames are handed on as progressive pictures; field-coded input
	// would be encoded with its fields woven together.
	switch h.Interlace {
	case "p", "?":
	default:
		return Header{}, fmt.Errorf("%w: interlacing %q", ErrUnsupported, h.Interlace)
	}

	switch h.Chroma {
	case "420jpeg", "420mpeg2", "420paldv", "420":
		h.Ratio = image.YCbCrSubsampleRatio420
	case "422":
		h.Ratio = image.YCbCrSubsampleRatio422
	case "444":
		h.Ratio = image.YCbCrSubsampleRatio444
	default:
		return Header{}, fmt.Errorf("%w: chroma %q", ErrUnsupported, h.Chroma)
	}
	return h, nil
}

func parseRatio(s string) (num, den int, ok bool) {
	a, b, found := strings.Cut(s, ":")
	if !found {
		return 0, 0, false
	}
	num, err1 := strconv.Atoi(a)
	den, err2 := strconv.Atoi(b)
	return num, den, err1 == nil && err2 == nil
}

// Header returns the parsed stream header.
func (s *Source) Header() Header {
	return s.header
}

// Info returns the stream geometry.
func (s *Source) Info() ports.SourceInfo {
	return ports.SourceInfo{
		Width:  s.header.Width,
		Height: s.header.Height,
		FPS:    s.header.FPS(),
		Frames: s.frames,
		Name:   s.name,
	}
}

// Next reads the next frame as an *image.YCbCr.
func (s *Source) Next(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	line, err := s.r.ReadString('\n')
	if err == io.EOF && line == "" {
		return nil, io.EOF
	}
	if err != nil {
		return nil, fmt.Errorf("%w: frame %d header: %v", ErrTruncated, s.index, err)
	}
	if !strings.HasPrefix(line, frameMagic) {
		return nil, fmt.Errorf("%w: frame %d: expected %s marker", ErrBadHeader, s.index, frameMagic)
	}

	img := image.NewYCbCr(image.Rect(0, 0, s.header.Width, s.header.Height), s.header.Ratio)
	for _, plane := range [][]byte{img.Y, img.Cb, img.Cr} {
		if _, err := io.ReadFull(s.r, plane); err != nil {
			return nil, fmt.Errorf("%w: frame %d: %v", ErrTruncated, s.index, err)
		}
	}
	s.index++
	return img, nil
}

// Close closes the underlying file when the source was opened by path.
func (s *Source) Close() error {
	if s.closer == nil {
		return nil
	}
	err := s.closer.Close()
	s.closer = nil
	return err
}

// estimateFrames derives the frame count from the file size, assuming frame
// headers without parameters.
func (s *Source) estimateFrames(size int64) int {
	frameBytes := int64(frameSize(s.header) + len(frameMagic) + 1)
	headerBytes := int64(s.hdrLen)
	if size <= headerBytes {
		return 0
	}
	return int((size - headerBytes) / frameBytes)
}

// frameSize is the payload size of one frame.
func frameSize(h Header) int {
	cw, ch := h.Width, h.Height
	switch h.Ratio {
	case image.YCbCrSubsampleRatio420:
		cw, ch = (cw+1)/2, (ch+1)/2
	case image.YCbCrSubsampleRatio422:
		cw = (cw + 1) / 2
	}
	return h.Width*h.Height + 2*cw*ch
}

var _ ports.FrameSource = (*Source)(nil)
