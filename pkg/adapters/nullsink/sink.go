// Package nullsink provides a no-op debug sink implementation.
package nullsink

import (
	"image"

	"github.com/user/x264go/pkg/ports"
)

// Sink is a no-op implementation of ports.DebugSink.
type Sink struct{}

// New creates a new NullSink.
func New() *Sink {
	return &Sink{}
}

// Enabled returns false; callers skip preparing debug data.
func (s *Sink) Enabled() bool {
	return false
}

func (s *Sink) SaveOptionsJSON(data []byte) error { return nil }

func (s *Sink) SaveHeaders(data []byte) error { return nil }

func (s *Sink) SaveFrame(frame ports.EncodedFrame) error { return nil }

func (s *Sink) SaveSourceFrame(index int, img image.Image) error { return nil }

var _ ports.DebugSink = (*Sink)(nil)
