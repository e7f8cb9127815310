package x264

import (
	"bytes"
	"errors"
	"testing"
)

func openTestEncoder(t *testing.T, p Param) *Encoder {
	t.Helper()
	enc, err := Open(p)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(enc.Close)
	return enc
}

// fillGray writes a flat frame with a moving bright column so consecutive
// frames differ.
func fillGray(t *testing.T, pic *Picture, frame int) {
	t.Helper()
	for i := 0; i < pic.PlaneCount(); i++ {
		view, err := pic.Plane(i)
		if err != nil {
			t.Fatalf("Plane(%d) failed: %v", i, err)
		}
		for j := range view {
			view[j] = 0x80
		}
	}
	luma, _ := pic.Plane(0)
	stride := pic.Stride(0)
	col := (frame * 4) % stride
	for row := 0; row < pic.Rows(0); row++ {
		luma[row*stride+col] = 0xeb
	}
}

func TestOpen_Headers(t *testing.T) {
	enc := openTestEncoder(t, newTestParam(CSPI420, 640, 480))

	headers, err := enc.Headers()
	if err != nil {
		t.Fatalf("Headers failed: %v", err)
	}
	if headers.Len() == 0 {
		t.Fatal("expected non-empty headers")
	}
	if !bytes.HasPrefix(headers.Bytes(), []byte{0, 0, 0, 1}) {
		t.Errorf("expected Annex B start code, got % x", headers.Bytes()[:4])
	}

	seen := map[NALType]bool{}
	total := 0
	for _, u := range headers.Units() {
		seen[u.Type] = true
		total += len(u.Payload)
	}
	if !seen[NALSPS] || !seen[NALPPS] {
		t.Errorf("expected SPS and PPS in headers, got %v", seen)
	}
	if total != headers.Len() {
		t.Errorf("units cover %d bytes, buffer has %d", total, headers.Len())
	}
}

func TestOpen_InvalidDimensions(t *testing.T) {
	enc, err := Open(newTestParam(CSPI420, 0, 0))
	if !errors.Is(err, ErrAllocation) {
		t.Errorf("expected ErrAllocation, got %v", err)
	}
	if enc != nil {
		t.Error("expected nil encoder on error")
		enc.Close()
	}
}

func TestEncoder_PushThenFlush(t *testing.T) {
	const frames = 24
	p := newTestParam(CSPI420, 160, 120).WithFPS(25, 1)
	enc := openTestEncoder(t, p)

	pic, err := NewPicture(p)
	if err != nil {
		t.Fatalf("NewPicture failed: %v", err)
	}
	defer pic.Close()

	var out []*Frame
	for i := 0; i < frames; i++ {
		fillGray(t, pic, i)
		f, err := enc.Encode(pic.WithTimestamp(int64(i)))
		if err != nil {
			t.Fatalf("Encode(%d) failed: %v", i, err)
		}
		if f != nil {
			out = append(out, f)
		}
	}
	if enc.MaxDelayedFrames() < enc.DelayedFrameCount() {
		t.Errorf("delayed %d exceeds maximum %d", enc.DelayedFrameCount(), enc.MaxDelayedFrames())
	}

	if err := enc.Flush(func(f *Frame) error {
		out = append(out, f)
		return nil
	}); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	if enc.DelayedFrames() {
		t.Error("frames still delayed after Flush")
	}

	if len(out) != frames {
		t.Fatalf("got %d frames, want %d", len(out), frames)
	}
	if !out[0].Keyframe {
		t.Error("first emitted frame should be a keyframe")
	}

	seen := map[int64]bool{}
	for _, f := range out {
		if f.PTS < 0 || f.PTS >= frames {
			t.Errorf("unexpected pts %d", f.PTS)
		}
		if seen[f.PTS] {
			t.Errorf("pts %d emitted twice", f.PTS)
		}
		seen[f.PTS] = true
		if f.NAL.Len() == 0 {
			t.Errorf("pts %d: empty frame payload", f.PTS)
		}
		if f.DTS > f.PTS {
			t.Errorf("pts %d: dts %d is after pts", f.PTS, f.DTS)
		}
	}
}

func TestEncoder_ZeroLatencyEmitsImmediately(t *testing.T) {
	p, err := DefaultParamPreset("ultrafast", "zerolatency")
	if err != nil {
		t.Fatalf("DefaultParamPreset failed: %v", err)
	}
	p = p.WithColorspace(CSPNV12).WithDimension(128, 96)
	enc := openTestEncoder(t, p)

	pic, err := NewPicture(p)
	if err != nil {
		t.Fatalf("NewPicture failed: %v", err)
	}
	defer pic.Close()

	for i := 0; i < 5; i++ {
		fillGray(t, pic, i)
		f, err := enc.Encode(pic.WithTimestamp(int64(i)))
		if err != nil {
			t.Fatalf("Encode(%d) failed: %v", i, err)
		}
		if f == nil {
			t.Fatalf("frame %d: expected immediate output", i)
		}
		if f.PTS != int64(i) {
			t.Errorf("frame %d: pts %d", i, f.PTS)
		}
	}
	if enc.DelayedFrames() {
		t.Errorf("zerolatency encoder holds %d frames", enc.DelayedFrameCount())
	}
}

func TestEncoder_ForcedIDR(t *testing.T) {
	p, err := DefaultParamPreset("ultrafast", "zerolatency")
	if err != nil {
		t.Fatalf("DefaultParamPreset failed: %v", err)
	}
	p = p.WithDimension(64, 64).WithKeyint(250)
	enc := openTestEncoder(t, p)

	pic, err := NewPicture(p)
	if err != nil {
		t.Fatalf("NewPicture failed: %v", err)
	}
	defer pic.Close()

	for i := 0; i < 4; i++ {
		fillGray(t, pic, i)
		typ := FrameAuto
		if i == 3 {
			typ = FrameIDR
		}
		f, err := enc.Encode(pic.WithTimestamp(int64(i)).WithType(typ))
		if err != nil {
			t.Fatalf("Encode(%d) failed: %v", i, err)
		}
		if i == 3 && (f == nil || !f.Keyframe) {
			t.Error("forced IDR frame was not emitted as a keyframe")
		}
	}
}

func TestEncoder_LengthPrefixed(t *testing.T) {
	p, err := DefaultParamPreset("ultrafast", "zerolatency")
	if err != nil {
		t.Fatalf("DefaultParamPreset failed: %v", err)
	}
	enc := openTestEncoder(t, p.WithDimension(64, 64).WithAnnexB(false))

	headers, err := enc.Headers()
	if err != nil {
		t.Fatalf("Headers failed: %v", err)
	}
	for _, u := range headers.Units() {
		prefix := int(u.Payload[0])<<24 | int(u.Payload[1])<<16 | int(u.Payload[2])<<8 | int(u.Payload[3])
		if prefix != len(u.Payload)-4 {
			t.Errorf("%s: length prefix %d, payload %d", u.Type, prefix, len(u.Payload)-4)
		}
	}
}

func TestEncoder_Parameters(t *testing.T) {
	enc := openTestEncoder(t, newTestParam(CSPI420, 320, 240).WithThreads(0))

	resolved, err := enc.Parameters()
	if err != nil {
		t.Fatalf("Parameters failed: %v", err)
	}
	if resolved.Width() != 320 || resolved.Height() != 240 {
		t.Errorf("resolved dimension %dx%d", resolved.Width(), resolved.Height())
	}
	if resolved.Threads() <= 0 {
		t.Errorf("expected automatic thread count to be resolved, got %d", resolved.Threads())
	}
	if enc.Param().Threads() != 0 {
		t.Error("Param() should return the configuration as opened")
	}
}

func TestEncoder_ParametersOutliveSession(t *testing.T) {
	p, err := newTestParam(CSPI420, 64, 48).ParseAll(map[string]string{
		"stats": "first.log",
		"zones": "0,2,q=20",
	})
	if err != nil {
		t.Fatalf("ParseAll failed: %v", err)
	}
	first, err := Open(p)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	resolved, err := first.Parameters()
	first.Close()
	if err != nil {
		t.Fatalf("Parameters failed: %v", err)
	}

	if got := resolved.StatsFile(); got != "first.log" {
		t.Errorf("StatsFile() = %q after close, want first.log", got)
	}
	if got := resolved.Zones(); got != "0,2,q=20" {
		t.Errorf("Zones() = %q after close, want 0,2,q=20", got)
	}

	second := openTestEncoder(t, resolved)
	pic, err := NewPicture(resolved)
	if err != nil {
		t.Fatalf("NewPicture failed: %v", err)
	}
	defer pic.Close()

	frames := 0
	for i := 0; i < 4; i++ {
		fillGray(t, pic, i)
		f, err := second.Encode(pic.WithTimestamp(int64(i)))
		if err != nil {
			t.Fatalf("Encode(%d) failed: %v", i, err)
		}
		if f != nil {
			frames++
		}
	}
	if err := second.Flush(func(*Frame) error { frames++; return nil }); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	if frames != 4 {
		t.Errorf("reopened encoder emitted %d frames, want 4", frames)
	}
}

func TestEncoder_Close(t *testing.T) {
	p := newTestParam(CSPI420, 64, 64)
	enc, err := Open(p)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	enc.Close()
	enc.Close()

	if _, err := enc.Headers(); !errors.Is(err, ErrClosed) {
		t.Errorf("Headers: expected ErrClosed, got %v", err)
	}
	if _, err := enc.Encode(nil); !errors.Is(err, ErrClosed) {
		t.Errorf("Encode: expected ErrClosed, got %v", err)
	}
	if _, err := enc.Parameters(); !errors.Is(err, ErrClosed) {
		t.Errorf("Parameters: expected ErrClosed, got %v", err)
	}
	if enc.DelayedFrames() {
		t.Error("closed encoder should report no delayed frames")
	}
}

func TestEncoder_RejectsClosedPicture(t *testing.T) {
	p := newTestParam(CSPI420, 64, 64)
	enc := openTestEncoder(t, p)

	pic, err := NewPicture(p)
	if err != nil {
		t.Fatalf("NewPicture failed: %v", err)
	}
	pic.Close()

	if _, err := enc.Encode(pic); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}

func TestFlush_StopsOnCallbackError(t *testing.T) {
	p := newTestParam(CSPI420, 64, 64)
	enc := openTestEncoder(t, p)

	pic, err := NewPicture(p)
	if err != nil {
		t.Fatalf("NewPicture failed: %v", err)
	}
	defer pic.Close()

	for i := 0; i < 8; i++ {
		fillGray(t, pic, i)
		if _, err := enc.Encode(pic.WithTimestamp(int64(i))); err != nil {
			t.Fatalf("Encode(%d) failed: %v", i, err)
		}
	}
	if !enc.DelayedFrames() {
		t.Skip("encoder emitted everything without buffering")
	}

	stop := errors.New("stop")
	calls := 0
	err = enc.Flush(func(*Frame) error {
		calls++
		return stop
	})
	if !errors.Is(err, stop) {
		t.Errorf("expected callback error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("callback called %d times, want 1", calls)
	}
}

func BenchmarkEncode(b *testing.B) {
	p, err := DefaultParamPreset("ultrafast", "zerolatency")
	if err != nil {
		b.Fatalf("DefaultParamPreset failed: %v", err)
	}
	p = p.WithDimension(320, 240)
	enc, err := Open(p)
	if err != nil {
		b.Fatalf("Open failed: %v", err)
	}
	defer enc.Close()

	pic, err := NewPicture(p)
	if err != nil {
		b.Fatalf("NewPicture failed: %v", err)
	}
	defer pic.Close()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := enc.Encode(pic.WithTimestamp(int64(i))); err != nil {
			b.Fatalf("Encode failed: %v", err)
		}
	}
}
