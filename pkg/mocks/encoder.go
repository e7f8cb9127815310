package mocks

import (
	"image"

	"github.com/user/x264go/pkg/ports"
)

// VideoEncoder is a mock implementation of ports.VideoEncoder.
type VideoEncoder struct {
	BeginFunc       func(width, height int, fps float64, opts ports.EncoderOptions) error
	EncodeFrameFunc func(img image.Image, timestampMs int) error
	EndFunc         func() ([]byte, error)
	StatsFunc       func() ports.EncoderStats

	// Recorded calls for verification
	BeginCalled      bool
	BeginWidth       int
	BeginHeight      int
	BeginFPS         float64
	BeginOptions     ports.EncoderOptions
	EncodeFrameCalls []EncodeFrameCall
	EndCalled        bool

	// HeaderData is returned by Headers.
	HeaderData []byte
	// FrameCallback is the function registered through OnFrame. When set,
	// every EncodeFrame call reports one emitted frame to it.
	FrameCallback func(ports.EncodedFrame) error
}

// EncodeFrameCall records a call to EncodeFrame.
type EncodeFrameCall struct {
	TimestampMs int
	Bounds      image.Rectangle
}

func (m *VideoEncoder) Begin(width, height int, fps float64, opts ports.EncoderOptions) error {
	m.BeginCalled = true
	m.BeginWidth, m.BeginHeight, m.BeginFPS, m.BeginOptions = width, height, fps, opts
	if m.BeginFunc != nil {
		return m.BeginFunc(width, height, fps, opts)
	}
	return nil
}

func (m *VideoEncoder) EncodeFrame(img image.Image, timestampMs int) error {
	index := len(m.EncodeFrameCalls)
	m.EncodeFrameCalls = append(m.EncodeFrameCalls, EncodeFrameCall{TimestampMs: timestampMs, Bounds: img.Bounds()})
	if m.EncodeFrameFunc != nil {
		if err := m.EncodeFrameFunc(img, timestampMs); err != nil {
			return err
		}
	}
	if m.FrameCallback != nil {
		return m.FrameCallback(ports.EncodedFrame{
			Index:    index,
			PTS:      int64(index),
			DTS:      int64(index),
			Keyframe: index == 0,
			Type:     "P",
			Data:     []byte{0x00, 0x00, 0x00, 0x01, 0x41},
		})
	}
	return nil
}

func (m *VideoEncoder) End() ([]byte, error) {
	m.EndCalled = true
	if m.EndFunc != nil {
		return m.EndFunc()
	}
	// Annex B start code followed by an SPS header byte
	return []byte{0x00, 0x00, 0x00, 0x01, 0x67}, nil
}

func (m *VideoEncoder) Stats() ports.EncoderStats {
	if m.StatsFunc != nil {
		return m.StatsFunc()
	}
	n := len(m.EncodeFrameCalls)
	return ports.EncoderStats{FramesIn: n, FramesOut: n, Keyframes: 1}
}

func (m *VideoEncoder) OnFrame(fn func(ports.EncodedFrame) error) {
	m.FrameCallback = fn
}

func (m *VideoEncoder) Headers() []byte {
	return m.HeaderData
}

var (
	_ ports.VideoEncoder   = (*VideoEncoder)(nil)
	_ ports.StatsProvider  = (*VideoEncoder)(nil)
	_ ports.FrameObserver  = (*VideoEncoder)(nil)
	_ ports.HeaderProvider = (*VideoEncoder)(nil)
)
