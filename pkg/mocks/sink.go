package mocks

import (
	"image"
	"sync"

	"github.com/user/x264go/pkg/ports"
)

// DebugSink is a mock implementation of ports.DebugSink.
type DebugSink struct {
	mu sync.RWMutex

	enabled bool

	OptionsJSON  []byte
	Headers      []byte
	Frames       []ports.EncodedFrame
	SourceFrames map[int]image.Image

	SaveFrameFunc func(frame ports.EncodedFrame) error
}

// NewDebugSink creates a new mock DebugSink.
func NewDebugSink(enabled bool) *DebugSink {
	return &DebugSink{
		enabled:      enabled,
		SourceFrames: make(map[int]image.Image),
	}
}

func (m *DebugSink) Enabled() bool {
	return m.enabled
}

func (m *DebugSink) SaveOptionsJSON(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.OptionsJSON = data
	return nil
}

func (m *DebugSink) SaveHeaders(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Headers = data
	return nil
}

func (m *DebugSink) SaveFrame(frame ports.EncodedFrame) error {
	if m.SaveFrameFunc != nil {
		if err := m.SaveFrameFunc(frame); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Frames = append(m.Frames, frame)
	return nil
}

func (m *DebugSink) SaveSourceFrame(index int, img image.Image) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SourceFrames[index] = img
	return nil
}

var _ ports.DebugSink = (*DebugSink)(nil)
