// Package testsource provides a synthetic frame source drawn with a
// ports.Renderer: scrolling colour bars, a bouncing disc and a frame counter.
package testsource

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"io"

	"github.com/user/x264go/pkg/ports"
)

// bars are the 75% colour bars, left to right.
var bars = []color.RGBA{
	{191, 191, 191, 255},
	{191, 191, 0, 255},
	{0, 191, 191, 255},
	{0, 191, 0, 255},
	{191, 0, 191, 255},
	{191, 0, 0, 255},
	{0, 0, 191, 255},
}

// Options configures a Source.
type Options struct {
	Width  int
	Height int
	FPS    float64
	Frames int

	// FontPath selects a TrueType face for the frame counter. Empty uses the
	// renderer's built-in face.
	FontPath string
}

// Source implements ports.FrameSource with generated pictures.
type Source struct {
	renderer ports.Renderer
	opts     Options
	index    int
}

// New creates a test pattern source.
func New(renderer ports.Renderer, opts Options) (*Source, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("testsource: invalid size %dx%d", opts.Width, opts.Height)
	}
	if opts.Frames <= 0 {
		return nil, fmt.Errorf("testsource: frame count must be positive, got %d", opts.Frames)
	}
	if opts.FPS <= 0 {
		opts.FPS = 25
	}
	return &Source{renderer: renderer, opts: opts}, nil
}

// Info returns the pattern geometry.
func (s *Source) Info() ports.SourceInfo {
	return ports.SourceInfo{
		Width:  s.opts.Width,
		Height: s.opts.Height,
		FPS:    s.opts.FPS,
		Frames: s.opts.Frames,
		Name:   "testsrc",
	}
}

// Next draws the next frame.
func (s *Source) Next(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.index >= s.opts.Frames {
		return nil, io.EOF
	}
	img, err := s.Frame(s.index)
	if err != nil {
		return nil, fmt.Errorf("draw frame %d: %w", s.index, err)
	}
	s.index++
	return img, nil
}

// Frame draws frame i without advancing the source.
func (s *Source) Frame(i int) (image.Image, error) {
	w, h := s.opts.Width, s.opts.Height
	c := s.renderer.CreateCanvas(w, h, color.Black)

	// Bars scroll left by 2px per frame over the top two thirds.
	barH := h * 2 / 3
	barW := (w + len(bars) - 1) / len(bars)
	offset := (i * 2) % (barW * len(bars))
	for b := 0; b <= len(bars); b++ {
		x := b*barW - offset
		c.DrawRect(x, 0, barW, barH, bars[b%len(bars)])
	}

	// Luma ramp along the bottom third.
	steps := 8
	for k := 0; k < steps; k++ {
		v := uint8(k * 255 / (steps - 1))
		c.DrawRect(k*w/steps, barH, w/steps+1, h-barH, color.RGBA{v, v, v, 255})
	}

	// Disc bouncing across the frame.
	r := max(h/10, 2)
	span := max(w-2*r, 1)
	pos := (i * 4) % (2 * span)
	if pos > span {
		pos = 2*span - pos
	}
	c.DrawCircle(r+pos, barH/2, r, color.RGBA{255, 255, 255, 255})

	c.DrawLine(0, barH, w, barH, color.RGBA{16, 16, 16, 255}, 2)
	err := c.DrawText(fmt.Sprintf("%05d", i), w/2, barH+(h-barH)/2, ports.TextStyle{
		FontSize: float64(max(h/12, 10)),
		FontPath: s.opts.FontPath,
		Color:    color.RGBA{255, 64, 64, 255},
		Align:    ports.AlignCenter,
	})
	if err != nil {
		return nil, err
	}
	return c.ToImage(), nil
}

// Close is a no-op.
func (s *Source) Close() error {
	return nil
}

var _ ports.FrameSource = (*Source)(nil)
