// Package encode implements the video encoding stage.
package encode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/user/x264go/pkg/pipeline"
	"github.com/user/x264go/pkg/ports"
)

// ErrNoFrames is returned when the source ends before yielding a frame.
var ErrNoFrames = errors.New("no frames to encode")

const defaultFPS = 25.0

// Stage pulls frames from a source and feeds them to an encoder.
type Stage struct {
	encoder  ports.VideoEncoder
	renderer ports.Renderer
	sink     ports.DebugSink
	logger   ports.Logger
}

// NewStage creates a new encode stage.
func NewStage(encoder ports.VideoEncoder, renderer ports.Renderer, sink ports.DebugSink, logger ports.Logger) *Stage {
	return &Stage{
		encoder:  encoder,
		renderer: renderer,
		sink:     sink,
		logger:   logger.WithComponent("encode"),
	}
}

// Execute encodes the source until it is exhausted, MaxFrames is reached or
// ctx is cancelled. The encoder is always ended once Begin succeeded.
func (s *Stage) Execute(ctx context.Context, input pipeline.EncodeInput) (pipeline.EncodeResult, error) {
	result := pipeline.EncodeResult{}

	if input.Source == nil {
		return result, fmt.Errorf("no frame source")
	}
	info := input.Source.Info()

	width, height := input.Width, input.Height
	if width == 0 {
		width = info.Width
	}
	if height == 0 {
		height = info.Height
	}
	if width <= 0 || height <= 0 {
		return result, fmt.Errorf("invalid output size %dx%d", width, height)
	}

	fps := input.FPS
	if fps <= 0 {
		fps = info.FPS
	}
	if fps <= 0 {
		fps = defaultFPS
	}

	result.Width, result.Height, result.FPS = width, height, fps
	s.logger.Info("Encoding %s at %dx%d, %.3f fps", info.Name, width, height, fps)

	s.prepareDebug(input.Options, width, height, fps)

	if err := s.encoder.Begin(width, height, fps, input.Options); err != nil {
		return result, fmt.Errorf("begin encoding: %w", err)
	}

	if s.sink.Enabled() {
		if hp, ok := s.encoder.(ports.HeaderProvider); ok {
			if err := s.sink.SaveHeaders(hp.Headers()); err != nil {
				s.logger.Warn("Failed to save debug output: %v", err)
			}
		}
	}

	if err := s.encodeFrames(ctx, input, width, height, fps, &result); err != nil {
		if _, endErr := s.encoder.End(); endErr != nil {
			s.logger.Debug("End after failure: %v", endErr)
		}
		return result, err
	}

	data, err := s.encoder.End()
	if err != nil {
		return result, fmt.Errorf("end encoding: %w", err)
	}

	result.Data = data
	result.FileSize = int64(len(data))
	result.DurationMs = int(float64(result.FramesIn) * 1000 / fps)
	if sp, ok := s.encoder.(ports.StatsProvider); ok {
		result.Stats = sp.Stats()
		result.FramesOut = result.Stats.FramesOut
		result.Keyframes = result.Stats.Keyframes
	}

	s.logger.Info("Encoded %d frames, %d bytes", result.FramesIn, result.FileSize)
	return result, nil
}

func (s *Stage) encodeFrames(ctx context.Context, input pipeline.EncodeInput, width, height int, fps float64, result *pipeline.EncodeResult) error {
	for index := 0; input.MaxFrames <= 0 || index < input.MaxFrames; index++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		img, err := input.Source.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("read frame %d: %w", index, err)
		}

		if b := img.Bounds(); b.Dx() != width || b.Dy() != height {
			img = s.renderer.ResizeImage(img, width, height)
			result.Resized++
		}

		if input.DumpSourceEvery > 0 && index%input.DumpSourceEvery == 0 && s.sink.Enabled() {
			if err := s.sink.SaveSourceFrame(index, img); err != nil {
				s.logger.Warn("Failed to save debug output: %v", err)
			}
		}

		timestampMs := int(float64(index) * 1000 / fps)
		if err := s.encoder.EncodeFrame(img, timestampMs); err != nil {
			return fmt.Errorf("encode frame %d: %w", index, err)
		}
		result.FramesIn++
	}

	if result.FramesIn == 0 {
		return ErrNoFrames
	}
	if result.Resized > 0 {
		s.logger.Debug("Scaled %d frames to %dx%d", result.Resized, width, height)
	}
	return nil
}

// prepareDebug saves the requested options and hooks frame output into the
// debug sink. Sink failures are logged and never stop the encode.
func (s *Stage) prepareDebug(opts ports.EncoderOptions, width, height int, fps float64) {
	obs, ok := s.encoder.(ports.FrameObserver)
	if !s.sink.Enabled() {
		if ok {
			obs.OnFrame(nil)
		}
		return
	}

	data, err := json.MarshalIndent(struct {
		Width   int                  `json:"width"`
		Height  int                  `json:"height"`
		FPS     float64              `json:"fps"`
		Options ports.EncoderOptions `json:"options"`
	}{width, height, fps, opts}, "", "  ")
	if err == nil {
		err = s.sink.SaveOptionsJSON(data)
	}
	if err != nil {
		s.logger.Warn("Failed to save debug output: %v", err)
	}

	if ok {
		obs.OnFrame(func(f ports.EncodedFrame) error {
			if err := s.sink.SaveFrame(f); err != nil {
				s.logger.Warn("Failed to save debug output: %v", err)
			}
			return nil
		})
	}
}
