// Package ggrenderer draws test-pattern frames with gg, scales source frames
// with x/image/draw and encodes debug snapshots.
package ggrenderer

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"sync"

	"github.com/fogleman/gg"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"

	"github.com/user/x264go/pkg/ports"
)

type faceKey struct {
	path string
	size float64
}

// Renderer implements ports.Renderer. Font faces are loaded once per path and
// size and shared by every canvas it creates.
type Renderer struct {
	// Scaler is used by ResizeImage. nil selects Catmull-Rom.
	Scaler draw.Scaler

	// Compression applies to PNG snapshots. Debug dumps favour speed.
	Compression png.CompressionLevel

	mu    sync.Mutex
	faces map[faceKey]font.Face
}

// New returns a Renderer with Catmull-Rom scaling and fast PNG compression.
func New() *Renderer {
	return &Renderer{Scaler: draw.CatmullRom, Compression: png.BestSpeed}
}

// CreateCanvas returns a width x height canvas cleared to bg.
func (r *Renderer) CreateCanvas(width, height int, bg color.Color) ports.Canvas {
	dc := gg.NewContext(width, height)
	dc.SetColor(bg)
	dc.Clear()
	return &Canvas{dc: dc, faces: r}
}

// EncodeImage encodes a snapshot. quality only affects JPEG.
func (r *Renderer) EncodeImage(img image.Image, format ports.ImageFormat, quality int) ([]byte, error) {
	var buf bytes.Buffer
	var err error
	switch format {
	case ports.FormatPNG:
		enc := png.Encoder{CompressionLevel: r.Compression}
		err = enc.Encode(&buf, img)
	case ports.FormatJPEG:
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality})
	default:
		return nil, fmt.Errorf("unsupported image format %d", format)
	}
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return buf.Bytes(), nil
}

// ResizeImage scales img to exactly width x height. An image already at that
// size is returned as is.
func (r *Renderer) ResizeImage(img image.Image, width, height int) image.Image {
	src := img.Bounds()
	if src.Dx() == width && src.Dy() == height {
		return img
	}
	scaler := r.Scaler
	if scaler == nil {
		scaler = draw.CatmullRom
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	scaler.Scale(dst, dst.Bounds(), img, src, draw.Src, nil)
	return dst
}

// face returns the cached face for path at size points.
func (r *Renderer) face(path string, size float64) (font.Face, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := faceKey{path, size}
	if f, ok := r.faces[key]; ok {
		return f, nil
	}
	f, err := gg.LoadFontFace(path, size)
	if err != nil {
		return nil, fmt.Errorf("load font %s: %w", path, err)
	}
	if r.faces == nil {
		r.faces = make(map[faceKey]font.Face)
	}
	r.faces[key] = f
	return f, nil
}

var _ ports.Renderer = (*Renderer)(nil)

// Canvas implements ports.Canvas over a gg.Context.
type Canvas struct {
	dc    *gg.Context
	faces *Renderer
}

func (c *Canvas) DrawRect(x, y, w, h int, col color.Color) {
	c.dc.SetColor(col)
	c.dc.DrawRectangle(float64(x), float64(y), float64(w), float64(h))
	c.dc.Fill()
}

func (c *Canvas) DrawCircle(x, y, radius int, col color.Color) {
	c.dc.SetColor(col)
	c.dc.DrawCircle(float64(x), float64(y), float64(radius))
	c.dc.Fill()
}

func (c *Canvas) DrawLine(x1, y1, x2, y2 int, col color.Color, width float64) {
	c.dc.SetColor(col)
	c.dc.SetLineWidth(width)
	c.dc.DrawLine(float64(x1), float64(y1), float64(x2), float64(y2))
	c.dc.Stroke()
}

// DrawText draws text vertically centred on y. With no FontPath gg's built-in
// face is used; a FontPath that cannot be loaded is an error and nothing is
// drawn.
func (c *Canvas) DrawText(text string, x, y int, style ports.TextStyle) error {
	if style.FontPath != "" {
		f, err := c.faces.face(style.FontPath, style.FontSize)
		if err != nil {
			return err
		}
		c.dc.SetFontFace(f)
	}

	anchor := 0.0
	switch style.Align {
	case ports.AlignCenter:
		anchor = 0.5
	case ports.AlignRight:
		anchor = 1
	}
	c.dc.SetColor(style.Color)
	c.dc.DrawStringAnchored(text, float64(x), float64(y), anchor, 0.5)
	return nil
}

func (c *Canvas) ToImage() image.Image {
	return c.dc.Image()
}

var _ ports.Canvas = (*Canvas)(nil)
