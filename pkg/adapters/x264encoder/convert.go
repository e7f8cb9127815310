package x264encoder

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/user/x264go/pkg/x264"
)

// fillPicture writes img into the planes of pic. img must have the picture's
// dimensions. YCbCr images whose subsampling matches the picture are copied
// plane by plane; everything else goes through RGBA.
func fillPicture(pic *x264.Picture, img image.Image, fullRange bool) error {
	b := img.Bounds()
	if b.Dx() != pic.Width() || b.Dy() != pic.Height() {
		return fmt.Errorf("%w: got %dx%d, want %dx%d", ErrFrameSize, b.Dx(), b.Dy(), pic.Width(), pic.Height())
	}

	csp := pic.Colorspace()
	if csp.HighDepth() {
		return fmt.Errorf("%w: %s", ErrUnsupportedInput, csp)
	}

	if ycc, ok := img.(*image.YCbCr); ok && matchesSubsampling(csp, ycc.SubsampleRatio) {
		return copyYCbCr(pic, ycc)
	}

	rgba, ok := img.(*image.RGBA)
	if !ok {
		rgba = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	}

	switch csp.Base() {
	case x264.CSPRGB, x264.CSPBGR, x264.CSPBGRA:
		return packRGB(pic, rgba)
	case x264.CSPI420, x264.CSPYV12, x264.CSPNV12, x264.CSPNV21,
		x264.CSPI422, x264.CSPYV16, x264.CSPNV16,
		x264.CSPI444, x264.CSPYV24:
		return rgbaToYUV(pic, rgba, fullRange)
	}
	return fmt.Errorf("%w: %s", ErrUnsupportedInput, csp)
}

// chromaShift returns log2 of the horizontal and vertical chroma subsampling.
func chromaShift(csp x264.Colorspace) (sx, sy int) {
	switch csp.Base() {
	case x264.CSPI420, x264.CSPYV12, x264.CSPNV12, x264.CSPNV21:
		return 1, 1
	case x264.CSPI422, x264.CSPYV16, x264.CSPNV16:
		return 1, 0
	}
	return 0, 0
}

func matchesSubsampling(csp x264.Colorspace, r image.YCbCrSubsampleRatio) bool {
	if csp.Planes() < 2 {
		return false
	}
	switch sx, sy := chromaShift(csp); {
	case sx == 1 && sy == 1:
		return r == image.YCbCrSubsampleRatio420
	case sx == 1 && sy == 0:
		return r == image.YCbCrSubsampleRatio422
	default:
		return r == image.YCbCrSubsampleRatio444
	}
}

// chromaTarget locates Cb and Cr samples in a picture: separate planes for
// planar layouts, one interleaved plane for the NV layouts.
type chromaTarget struct {
	cb, cr             []byte
	cbStride, crStride int
	step               int
	cbOff, crOff       int
}

func chromaPlanes(pic *x264.Picture) (chromaTarget, error) {
	var t chromaTarget
	swapped := false
	switch pic.Colorspace().Base() {
	case x264.CSPYV12, x264.CSPYV16, x264.CSPYV24, x264.CSPNV21:
		swapped = true
	}

	if pic.PlaneCount() == 2 {
		uv, err := pic.Plane(1)
		if err != nil {
			return t, err
		}
		t = chromaTarget{cb: uv, cr: uv, cbStride: pic.Stride(1), crStride: pic.Stride(1), step: 2, crOff: 1}
		if swapped {
			t.cbOff, t.crOff = 1, 0
		}
		return t, nil
	}

	first, err := pic.Plane(1)
	if err != nil {
		return t, err
	}
	second, err := pic.Plane(2)
	if err != nil {
		return t, err
	}
	t = chromaTarget{cb: first, cr: second, cbStride: pic.Stride(1), crStride: pic.Stride(2), step: 1}
	if swapped {
		t.cb, t.cr = t.cr, t.cb
		t.cbStride, t.crStride = t.crStride, t.cbStride
	}
	return t, nil
}

func (t chromaTarget) set(x, y int, cb, cr uint8) {
	t.cb[y*t.cbStride+x*t.step+t.cbOff] = cb
	t.cr[y*t.crStride+x*t.step+t.crOff] = cr
}

func copyYCbCr(pic *x264.Picture, src *image.YCbCr) error {
	luma, err := pic.Plane(0)
	if err != nil {
		return err
	}
	copyRows(luma, pic.Stride(0), pic.Rows(0), src.Y, src.YStride, pic.Width())

	t, err := chromaPlanes(pic)
	if err != nil {
		return err
	}
	cw := t.cbStride / t.step
	if t.step == 1 {
		copyRows(t.cb, t.cbStride, pic.Rows(1), src.Cb, src.CStride, cw)
		copyRows(t.cr, t.crStride, pic.Rows(1), src.Cr, src.CStride, cw)
		return nil
	}
	for y := 0; y < pic.Rows(1); y++ {
		for x := 0; x < cw; x++ {
			i := y*src.CStride + x
			t.set(x, y, src.Cb[i], src.Cr[i])
		}
	}
	return nil
}

// copyRows copies up to rows lines of width bytes between buffers of
// different strides.
func copyRows(dst []byte, dstStride, rows int, src []byte, srcStride, width int) {
	width = min(width, dstStride)
	for y := 0; y < rows; y++ {
		so := y * srcStride
		if so+width > len(src) {
			return
		}
		copy(dst[y*dstStride:y*dstStride+width], src[so:so+width])
	}
}

func packRGB(pic *x264.Picture, rgba *image.RGBA) error {
	plane, err := pic.Plane(0)
	if err != nil {
		return err
	}
	stride := pic.Stride(0)

	var order [4]int
	bpp := 3
	switch pic.Colorspace().Base() {
	case x264.CSPRGB:
		order = [4]int{0, 1, 2}
	case x264.CSPBGR:
		order = [4]int{2, 1, 0}
	case x264.CSPBGRA:
		order = [4]int{2, 1, 0, 3}
		bpp = 4
	}

	for y := 0; y < pic.Height(); y++ {
		row := plane[y*stride:]
		src := rgba.Pix[y*rgba.Stride:]
		for x := 0; x < pic.Width(); x++ {
			for c := 0; c < bpp; c++ {
				row[x*bpp+c] = src[x*4+order[c]]
			}
		}
	}
	return nil
}

// rgbaToYUV converts to BT.601 YUV, averaging each chroma block. Limited
// range uses the studio swing integer approximation; full range uses the
// JFIF matrix from image/color.
func rgbaToYUV(pic *x264.Picture, rgba *image.RGBA, fullRange bool) error {
	csp := pic.Colorspace()
	w, h := pic.Width(), pic.Height()
	sx, sy := chromaShift(csp)

	luma, err := pic.Plane(0)
	if err != nil {
		return err
	}
	yStride := pic.Stride(0)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*rgba.Stride + x*4
			luma[y*yStride+x], _, _ = toYCbCr(rgba.Pix[i], rgba.Pix[i+1], rgba.Pix[i+2], fullRange)
		}
	}

	t, err := chromaPlanes(pic)
	if err != nil {
		return err
	}

	// Chroma extent as allocated; odd luma sizes floor like libx264 does.
	cw, ch := t.cbStride/t.step, pic.Rows(1)
	for cy := 0; cy < ch; cy++ {
		for cx := 0; cx < cw; cx++ {
			var sumU, sumV, n int
			for dy := 0; dy <= sy; dy++ {
				for dx := 0; dx <= sx; dx++ {
					x, y := cx<<sx+dx, cy<<sy+dy
					if x >= w || y >= h {
						continue
					}
					i := y*rgba.Stride + x*4
					_, u, v := toYCbCr(rgba.Pix[i], rgba.Pix[i+1], rgba.Pix[i+2], fullRange)
					sumU += int(u)
					sumV += int(v)
					n++
				}
			}
			t.set(cx, cy, uint8((sumU+n/2)/n), uint8((sumV+n/2)/n))
		}
	}
	return nil
}

func toYCbCr(r, g, b uint8, fullRange bool) (y, u, v uint8) {
	if fullRange {
		return color.RGBToYCbCr(r, g, b)
	}
	ri, gi, bi := int(r), int(g), int(b)
	return clamp8(((66*ri + 129*gi + 25*bi + 128) >> 8) + 16),
		clamp8(((-38*ri - 74*gi + 112*bi + 128) >> 8) + 128),
		clamp8(((112*ri - 94*gi - 18*bi + 128) >> 8) + 128)
}

func clamp8(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
