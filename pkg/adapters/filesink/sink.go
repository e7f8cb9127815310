// Package filesink provides a file-based debug sink implementation.
package filesink

import (
	"fmt"
	"image"
	"path/filepath"
	"strings"

	"github.com/user/x264go/pkg/ports"
)

// Sink saves encoder artefacts under a base directory:
//
//	options.json
//	headers.h264
//	frames/frame-0000-pts0-I.h264
//	source/frame-0000.png
type Sink struct {
	baseDir  string
	fs       ports.FileSystem
	renderer ports.Renderer
}

// New creates a new FileSink.
func New(baseDir string, fs ports.FileSystem, renderer ports.Renderer) *Sink {
	return &Sink{
		baseDir:  baseDir,
		fs:       fs,
		renderer: renderer,
	}
}

// Enabled returns true as this sink saves output.
func (s *Sink) Enabled() bool {
	return true
}

// SaveOptionsJSON saves the resolved encoder options.
func (s *Sink) SaveOptionsJSON(data []byte) error {
	return s.fs.WriteFile(filepath.Join(s.baseDir, "options.json"), data)
}

// SaveHeaders saves the SPS/PPS/SEI header block.
func (s *Sink) SaveHeaders(data []byte) error {
	return s.fs.WriteFile(filepath.Join(s.baseDir, "headers.h264"), data)
}

// SaveFrame saves one emitted frame's bitstream.
func (s *Sink) SaveFrame(frame ports.EncodedFrame) error {
	dir := filepath.Join(s.baseDir, "frames")
	if err := s.fs.MkdirAll(dir); err != nil {
		return err
	}
	name := fmt.Sprintf("frame-%04d-pts%d", frame.Index, frame.PTS)
	if frame.Type != "" {
		name += "-" + strings.ToUpper(frame.Type)
	}
	return s.fs.WriteFile(filepath.Join(dir, name+".h264"), frame.Data)
}

// SaveSourceFrame saves a source picture as PNG.
func (s *Sink) SaveSourceFrame(index int, img image.Image) error {
	dir := filepath.Join(s.baseDir, "source")
	if err := s.fs.MkdirAll(dir); err != nil {
		return err
	}
	data, err := s.renderer.EncodeImage(img, ports.FormatPNG, 0)
	if err != nil {
		return fmt.Errorf("encode source frame: %w", err)
	}
	return s.fs.WriteFile(filepath.Join(dir, fmt.Sprintf("frame-%04d.png", index)), data)
}

var _ ports.DebugSink = (*Sink)(nil)
