package ggrenderer

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"path/filepath"
	"testing"

	"github.com/user/x264go/pkg/ports"
)

func TestRenderer_CreateCanvas(t *testing.T) {
	r := New()

	img := r.CreateCanvas(100, 60, color.White).ToImage()
	if b := img.Bounds(); b.Dx() != 100 || b.Dy() != 60 {
		t.Errorf("expected 100x60, got %dx%d", b.Dx(), b.Dy())
	}

	got := color.RGBAModel.Convert(img.At(50, 30)).(color.RGBA)
	if got != (color.RGBA{255, 255, 255, 255}) {
		t.Errorf("expected white background, got %v", got)
	}
}

func TestRenderer_EncodePNG(t *testing.T) {
	r := New()
	img := image.NewRGBA(image.Rect(0, 0, 30, 20))

	data, err := r.EncodeImage(img, ports.FormatPNG, 0)
	if err != nil {
		t.Fatalf("EncodeImage failed: %v", err)
	}
	decoded, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode PNG: %v", err)
	}
	if b := decoded.Bounds(); b.Dx() != 30 || b.Dy() != 20 {
		t.Errorf("expected 30x20, got %dx%d", b.Dx(), b.Dy())
	}
}

func TestRenderer_EncodeJPEG(t *testing.T) {
	r := New()
	data, err := r.EncodeImage(image.NewRGBA(image.Rect(0, 0, 16, 16)), ports.FormatJPEG, 80)
	if err != nil {
		t.Fatalf("EncodeImage failed: %v", err)
	}
	if len(data) < 2 || data[0] != 0xff || data[1] != 0xd8 {
		t.Error("expected JPEG SOI marker")
	}
}

func TestRenderer_EncodeUnknownFormat(t *testing.T) {
	r := New()
	if _, err := r.EncodeImage(image.NewRGBA(image.Rect(0, 0, 1, 1)), ports.ImageFormat(99), 0); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestRenderer_ResizeImage(t *testing.T) {
	r := New()

	src := image.NewYCbCr(image.Rect(0, 0, 64, 48), image.YCbCrSubsampleRatio420)
	resized := r.ResizeImage(src, 32, 24)
	if b := resized.Bounds(); b.Dx() != 32 || b.Dy() != 24 {
		t.Errorf("expected 32x24, got %dx%d", b.Dx(), b.Dy())
	}
}

func TestCanvas_Drawing(t *testing.T) {
	r := New()
	red := color.RGBA{R: 255, A: 255}

	tests := []struct {
		name string
		draw func(c ports.Canvas)
		x, y int
	}{
		{"rect", func(c ports.Canvas) { c.DrawRect(10, 10, 20, 20, red) }, 20, 20},
		{"circle", func(c ports.Canvas) { c.DrawCircle(50, 50, 10, red) }, 50, 50},
		{"line", func(c ports.Canvas) { c.DrawLine(0, 80, 100, 80, red, 4) }, 50, 80},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			canvas := r.CreateCanvas(100, 100, color.Black)
			tt.draw(canvas)

			got := color.RGBAModel.Convert(canvas.ToImage().At(tt.x, tt.y)).(color.RGBA)
			if got.R < 200 || got.G > 50 {
				t.Errorf("expected red at (%d,%d), got %v", tt.x, tt.y, got)
			}
		})
	}
}

func TestCanvas_DrawText(t *testing.T) {
	r := New()
	canvas := r.CreateCanvas(120, 40, color.Black)

	if err := canvas.DrawText("0042", 60, 20, ports.TextStyle{Color: color.White, Align: ports.AlignCenter}); err != nil {
		t.Fatalf("DrawText with built-in face failed: %v", err)
	}

	img := canvas.ToImage()
	lit := 0
	for y := 0; y < 40; y++ {
		for x := 0; x < 120; x++ {
			if r, _, _, _ := img.At(x, y).RGBA(); r > 0x8000 {
				lit++
			}
		}
	}
	if lit == 0 {
		t.Error("expected text pixels to be drawn")
	}
}

func TestCanvas_DrawTextMissingFont(t *testing.T) {
	r := New()
	canvas := r.CreateCanvas(40, 20, color.Black)

	style := ports.TextStyle{Color: color.White, FontPath: filepath.Join(t.TempDir(), "missing.ttf"), FontSize: 12}
	if err := canvas.DrawText("x", 0, 10, style); err == nil {
		t.Fatal("expected error for missing font")
	}
	if len(r.faces) != 0 {
		t.Error("failed load should not be cached")
	}

	img := canvas.ToImage()
	for y := 0; y < 20; y++ {
		for x := 0; x < 40; x++ {
			if r, _, _, _ := img.At(x, y).RGBA(); r != 0 {
				t.Fatalf("pixel (%d,%d) drawn despite font error", x, y)
			}
		}
	}
}

func TestRenderer_ResizeSameSize(t *testing.T) {
	r := New()
	src := image.NewRGBA(image.Rect(0, 0, 16, 9))
	if got := r.ResizeImage(src, 16, 9); got != image.Image(src) {
		t.Error("expected image at target size to be returned unchanged")
	}
}
