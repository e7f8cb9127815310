package ports

import (
	"context"
	"image"
)

// SourceInfo describes the frames a FrameSource produces.
type SourceInfo struct {
	Width  int
	Height int
	FPS    float64
	Frames int // 0 when unknown
	Name   string
}

// FrameSource produces raw pictures to encode.
type FrameSource interface {
	// Info returns the stream geometry. It is valid before the first Next call.
	Info() SourceInfo

	// Next returns the next picture, or io.EOF when the source is exhausted.
	Next(ctx context.Context) (image.Image, error)

	// Close releases the source.
	Close() error
}
