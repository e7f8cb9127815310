package mocks

import (
	"context"
	"image"
	"io"

	"github.com/user/x264go/pkg/ports"
)

// FrameSource is a mock implementation of ports.FrameSource that yields
// blank RGBA frames.
type FrameSource struct {
	SourceInfo ports.SourceInfo
	NextFunc   func(ctx context.Context, index int) (image.Image, error)

	// Recorded calls for verification
	NextCalls int
	Closed    bool
}

// NewFrameSource creates a source producing the given number of blank pictures.
func NewFrameSource(width, height, frames int, fps float64) *FrameSource {
	return &FrameSource{
		SourceInfo: ports.SourceInfo{Width: width, Height: height, FPS: fps, Frames: frames, Name: "mock"},
	}
}

func (m *FrameSource) Info() ports.SourceInfo {
	return m.SourceInfo
}

func (m *FrameSource) Next(ctx context.Context) (image.Image, error) {
	index := m.NextCalls
	m.NextCalls++
	if m.NextFunc != nil {
		return m.NextFunc(ctx, index)
	}
	if index >= m.SourceInfo.Frames {
		return nil, io.EOF
	}
	return image.NewRGBA(image.Rect(0, 0, m.SourceInfo.Width, m.SourceInfo.Height)), nil
}

func (m *FrameSource) Close() error {
	m.Closed = true
	return nil
}

var _ ports.FrameSource = (*FrameSource)(nil)
