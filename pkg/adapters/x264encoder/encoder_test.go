package x264encoder

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/Eyevinn/mp4ff/mp4"

	"github.com/user/x264go/pkg/adapters/logger"
	"github.com/user/x264go/pkg/ports"
	"github.com/user/x264go/pkg/x264"
)

// createTestImage creates a gradient that shifts with the frame number.
func createTestImage(width, height int, frameNum int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r := uint8((x*255/width + frameNum*10) % 256)
			g := uint8((y*255/height + frameNum*5) % 256)
			b := uint8((x + y + frameNum*3) % 256)
			img.Set(x, y, color.RGBA{R: r, G: g, B: b, A: 255})
		}
	}
	return img
}

func encodeFrames(t *testing.T, enc *Encoder, width, height, frames int, fps float64) []byte {
	t.Helper()
	for i := 0; i < frames; i++ {
		if err := enc.EncodeFrame(createTestImage(width, height, i), i*1000/int(fps)); err != nil {
			t.Fatalf("EncodeFrame failed at frame %d: %v", i, err)
		}
	}
	data, err := enc.End()
	if err != nil {
		t.Fatalf("End failed: %v", err)
	}
	return data
}

func TestEncoder_MP4(t *testing.T) {
	const width, height, frames = 320, 240, 30
	enc := New(logger.NewNoop())

	opts := ports.EncoderOptions{
		Preset:    "veryfast",
		Quality:   25,
		BFrames:   2,
		Options:   map[string]string{"b-adapt": "0"},
		Container: ports.ContainerMP4,
	}
	if err := enc.Begin(width, height, 30, opts); err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	data := encodeFrames(t, enc, width, height, frames, 30)

	if string(data[4:8]) != "ftyp" {
		t.Fatalf("expected ftyp box, got %q", data[4:8])
	}

	file, err := mp4.DecodeFile(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode mp4: %v", err)
	}
	if !file.IsFragmented() {
		t.Fatal("expected fragmented mp4")
	}

	trex := file.Init.Moov.Mvex.Trexs[0]
	var samples []mp4.FullSample
	for _, seg := range file.Segments {
		for _, frag := range seg.Fragments {
			s, err := frag.GetFullSamples(trex)
			if err != nil {
				t.Fatalf("get samples: %v", err)
			}
			samples = append(samples, s...)
		}
	}
	if len(samples) != frames {
		t.Fatalf("got %d samples, want %d", len(samples), frames)
	}
	if samples[0].Flags != mp4.SyncSampleFlags {
		t.Error("first sample should be a sync sample")
	}

	// Presentation times must cover every frame exactly once, starting at 0.
	_, tick := mediaTimescale(enc.param)
	seen := map[int64]bool{}
	reordered := false
	minPT := int64(-1)
	for _, s := range samples {
		pt := int64(s.DecodeTime) + int64(s.CompositionTimeOffset)
		if seen[pt] {
			t.Errorf("presentation time %d used twice", pt)
		}
		seen[pt] = true
		if minPT < 0 || pt < minPT {
			minPT = pt
		}
		if pt%tick != 0 || pt/tick >= frames {
			t.Errorf("presentation time %d outside the %d frame grid", pt, frames)
		}
		if s.CompositionTimeOffset != 0 {
			reordered = true
		}
	}
	if minPT != 0 {
		t.Errorf("first presentation time = %d, want 0", minPT)
	}
	if !reordered {
		t.Error("expected composition offsets with B-frames enabled")
	}

	stats := enc.Stats()
	if stats.FramesIn != frames || stats.FramesOut != frames {
		t.Errorf("stats in %d out %d, want %d", stats.FramesIn, stats.FramesOut, frames)
	}
	if stats.Keyframes < 1 || stats.HeaderBytes == 0 || stats.FrameBytes == 0 {
		t.Errorf("unexpected stats %+v", stats)
	}
}

func TestEncoder_AnnexB(t *testing.T) {
	const width, height, frames = 160, 120, 10
	enc := New(logger.NewNoop())

	opts := ports.EncoderOptions{Preset: "ultrafast", Tune: "zerolatency", Container: ports.ContainerAnnexB}
	if err := enc.Begin(width, height, 25, opts); err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	headers := enc.Headers()
	data := encodeFrames(t, enc, width, height, frames, 25)

	if !bytes.HasPrefix(data, headers) {
		t.Error("expected stream to start with the headers")
	}
	if !bytes.HasPrefix(data, []byte{0, 0, 0, 1}) {
		t.Errorf("expected start code, got % x", data[:4])
	}
	if enc.Stats().FramesOut != frames {
		t.Errorf("FramesOut = %d, want %d", enc.Stats().FramesOut, frames)
	}
}

func TestEncoder_OnFrame(t *testing.T) {
	const width, height, frames = 64, 64, 12
	enc := New(logger.NewNoop())

	var got []ports.EncodedFrame
	enc.OnFrame(func(f ports.EncodedFrame) error {
		got = append(got, f)
		return nil
	})

	if err := enc.Begin(width, height, 24, ports.EncoderOptions{Preset: "faster"}); err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	encodeFrames(t, enc, width, height, frames, 24)

	if len(got) != frames {
		t.Fatalf("hook called %d times, want %d", len(got), frames)
	}
	for i, f := range got {
		if f.Index != i {
			t.Errorf("frame %d has index %d", i, f.Index)
		}
		if len(f.Data) == 0 {
			t.Errorf("frame %d has no data", i)
		}
		if i > 0 && f.DTS <= got[i-1].DTS {
			t.Errorf("dts not increasing at %d: %d after %d", i, f.DTS, got[i-1].DTS)
		}
	}
	if !got[0].Keyframe {
		t.Error("first frame should be a keyframe")
	}
}

func TestEncoder_OnFrameErrorAborts(t *testing.T) {
	enc := New(logger.NewNoop())
	stop := errors.New("sink full")
	enc.OnFrame(func(ports.EncodedFrame) error { return stop })

	if err := enc.Begin(64, 64, 25, ports.EncoderOptions{Preset: "ultrafast", Tune: "zerolatency"}); err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	err := enc.EncodeFrame(createTestImage(64, 64, 0), 0)
	if !errors.Is(err, stop) {
		t.Errorf("expected hook error, got %v", err)
	}
	if _, err := enc.End(); err != nil && !errors.Is(err, stop) {
		t.Errorf("End: unexpected error %v", err)
	}
}

func TestEncoder_Colorspaces(t *testing.T) {
	const width, height = 64, 48
	for _, csp := range []string{"i420", "yv12", "nv12", "nv21", "i422", "nv16", "i444", "yv24", "rgb", "bgr", "bgra"} {
		t.Run(csp, func(t *testing.T) {
			enc := New(logger.NewNoop())
			opts := ports.EncoderOptions{Preset: "ultrafast", Colorspace: csp, Container: ports.ContainerAnnexB}
			if err := enc.Begin(width, height, 25, opts); err != nil {
				t.Fatalf("Begin failed: %v", err)
			}
			data := encodeFrames(t, enc, width, height, 3, 25)
			if len(data) == 0 {
				t.Error("no data produced")
			}
		})
	}
}

func TestEncoder_YCbCrInput(t *testing.T) {
	const width, height = 96, 64
	enc := New(logger.NewNoop())
	if err := enc.Begin(width, height, 25, ports.EncoderOptions{Preset: "ultrafast"}); err != nil {
		t.Fatalf("Begin failed: %v", err)
	}

	for i := 0; i < 4; i++ {
		img := image.NewYCbCr(image.Rect(0, 0, width, height), image.YCbCrSubsampleRatio420)
		for j := range img.Y {
			img.Y[j] = uint8(16 + (j+i*7)%200)
		}
		if err := enc.EncodeFrame(img, i*40); err != nil {
			t.Fatalf("EncodeFrame failed: %v", err)
		}
	}
	if _, err := enc.End(); err != nil {
		t.Fatalf("End failed: %v", err)
	}
}

func TestEncoder_Errors(t *testing.T) {
	t.Run("not initialized", func(t *testing.T) {
		enc := New(logger.NewNoop())
		if err := enc.EncodeFrame(createTestImage(8, 8, 0), 0); !errors.Is(err, ErrNotInitialized) {
			t.Errorf("EncodeFrame: expected ErrNotInitialized, got %v", err)
		}
		if _, err := enc.End(); !errors.Is(err, ErrNotInitialized) {
			t.Errorf("End: expected ErrNotInitialized, got %v", err)
		}
	})

	t.Run("bad preset", func(t *testing.T) {
		enc := New(logger.NewNoop())
		err := enc.Begin(64, 64, 25, ports.EncoderOptions{Preset: "hyperspeed"})
		if !errors.Is(err, x264.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("unknown option", func(t *testing.T) {
		enc := New(logger.NewNoop())
		err := enc.Begin(64, 64, 25, ports.EncoderOptions{Options: map[string]string{"warp": "9"}})
		if !errors.Is(err, x264.ErrUnknownOption) {
			t.Errorf("expected ErrUnknownOption, got %v", err)
		}
	})

	t.Run("high depth input", func(t *testing.T) {
		enc := New(logger.NewNoop())
		err := enc.Begin(64, 64, 25, ports.EncoderOptions{Colorspace: "i420+high"})
		if !errors.Is(err, ErrUnsupportedInput) {
			t.Errorf("expected ErrUnsupportedInput, got %v", err)
		}
	})

	t.Run("frame size mismatch", func(t *testing.T) {
		enc := New(logger.NewNoop())
		if err := enc.Begin(64, 64, 25, ports.EncoderOptions{Preset: "ultrafast"}); err != nil {
			t.Fatalf("Begin failed: %v", err)
		}
		defer enc.End()
		if err := enc.EncodeFrame(createTestImage(32, 32, 0), 0); !errors.Is(err, ErrFrameSize) {
			t.Errorf("expected ErrFrameSize, got %v", err)
		}
	})

	t.Run("no frames", func(t *testing.T) {
		enc := New(logger.NewNoop())
		if err := enc.Begin(64, 64, 25, ports.EncoderOptions{Preset: "ultrafast"}); err != nil {
			t.Fatalf("Begin failed: %v", err)
		}
		if _, err := enc.End(); !errors.Is(err, ErrNoFrames) {
			t.Errorf("expected ErrNoFrames, got %v", err)
		}
		if _, err := enc.End(); !errors.Is(err, ErrNotInitialized) {
			t.Errorf("second End: expected ErrNotInitialized, got %v", err)
		}
	})
}

func BenchmarkEncodeFrame(b *testing.B) {
	const width, height = 640, 480
	enc := New(logger.NewNoop())
	if err := enc.Begin(width, height, 30, ports.EncoderOptions{Preset: "ultrafast", Tune: "zerolatency", Container: ports.ContainerAnnexB}); err != nil {
		b.Fatalf("Begin failed: %v", err)
	}
	img := createTestImage(width, height, 0)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := enc.EncodeFrame(img, i*33); err != nil {
			b.Fatalf("EncodeFrame failed: %v", err)
		}
	}
	b.StopTimer()
	enc.End()
}
