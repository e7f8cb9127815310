// Package orchestrator runs one encode job: open the source, encode it,
// write the stream and report on it.
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/ideamans/go-l10n"

	"github.com/user/x264go/pkg/pipeline"
	"github.com/user/x264go/pkg/ports"
	"github.com/user/x264go/pkg/summarizer"
)

// Config contains all configuration for one encode job.
type Config struct {
	// Input is "testsrc" for the synthetic pattern or a .y4m path.
	Input      string
	OutputPath string

	// Container defaults to the one implied by OutputPath.
	Container ports.Container

	// Width, Height and FPS override the source geometry when non-zero.
	Width  int
	Height int
	FPS    float64

	// Frames limits the number of frames encoded. For testsrc it is also
	// the number of frames generated.
	Frames int

	Options ports.EncoderOptions

	DumpSourceEvery int
	SummaryPath     string
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		Input:      "testsrc",
		OutputPath: "out.mp4",
		Options: ports.EncoderOptions{
			Preset:     "medium",
			Quality:    23,
			Colorspace: "i420",
		},
	}
}

// SourceOpener opens the frame source named by input. hint carries the
// requested geometry for generated sources.
type SourceOpener func(input string, hint ports.SourceInfo) (ports.FrameSource, error)

// Orchestrator coordinates the execution of an encode job.
type Orchestrator struct {
	encodeStage pipeline.Stage[pipeline.EncodeInput, pipeline.EncodeResult]
	openSource  SourceOpener
	fs          ports.FileSystem
	logger      ports.Logger
	now         func() time.Time
}

// New creates a new Orchestrator.
func New(
	encodeStage pipeline.Stage[pipeline.EncodeInput, pipeline.EncodeResult],
	openSource SourceOpener,
	fs ports.FileSystem,
	logger ports.Logger,
) *Orchestrator {
	return &Orchestrator{
		encodeStage: encodeStage,
		openSource:  openSource,
		fs:          fs,
		logger:      logger,
		now:         time.Now,
	}
}

// Run executes the job.
func (o *Orchestrator) Run(ctx context.Context, config Config) (RunResult, error) {
	if config.OutputPath == "" {
		return RunResult{}, fmt.Errorf("no output path")
	}
	container := config.Container
	if container == "" {
		container = ports.ContainerForPath(config.OutputPath)
	}

	o.logger.Info("Opening source %s", config.Input)
	source, err := o.openSource(config.Input, ports.SourceInfo{
		Width:  config.Width,
		Height: config.Height,
		FPS:    config.FPS,
		Frames: config.Frames,
	})
	if err != nil {
		o.logger.Error("Failed to open source: %s", err)
		return RunResult{}, fmt.Errorf("open source: %w", err)
	}
	defer source.Close()

	info := source.Info()
	o.logger.Info("Source opened: %dx%d, %.3f fps", info.Width, info.Height, info.FPS)

	opts := config.Options
	opts.Container = container

	started := o.now()
	encoded, err := o.encodeStage.Execute(ctx, pipeline.EncodeInput{
		Source:          source,
		Width:           config.Width,
		Height:          config.Height,
		FPS:             config.FPS,
		MaxFrames:       config.Frames,
		Options:         opts,
		DumpSourceEvery: config.DumpSourceEvery,
	})
	if err != nil {
		o.logger.Error("Failed to encode video: %s", err)
		return RunResult{}, fmt.Errorf("encode stage: %w", err)
	}
	elapsed := o.now().Sub(started)

	if err := o.fs.WriteFile(config.OutputPath, encoded.Data); err != nil {
		o.logger.Error("Failed to write output: %s", err)
		return RunResult{}, fmt.Errorf("write output: %w", err)
	}
	o.logger.Info("Wrote %d bytes to %s", encoded.FileSize, config.OutputPath)

	result := RunResult{
		Source:     info,
		OutputPath: config.OutputPath,
		Container:  container,
		Width:      encoded.Width,
		Height:     encoded.Height,
		FPS:        encoded.FPS,
		FramesIn:   encoded.FramesIn,
		FramesOut:  encoded.FramesOut,
		Keyframes:  encoded.Keyframes,
		Resized:    encoded.Resized,
		DurationMs: encoded.DurationMs,
		FileSize:   encoded.FileSize,
		Elapsed:    elapsed,
		Stats:      encoded.Stats,
	}

	if config.SummaryPath != "" {
		summary := BuildSummary(config, result)
		writer := summarizer.NewWriter(summarizer.FormatterForPath(config.SummaryPath, summarizer.WithTranslator(l10n.T)), o.fs)
		if err := writer.Write(config.SummaryPath, summary); err != nil {
			o.logger.Warn("Failed to write summary: %s", err)
		} else {
			o.logger.Info("Summary written to %s", config.SummaryPath)
		}
	}

	return result, nil
}

// BuildSummary converts a run result into a summary.
func BuildSummary(config Config, r RunResult) *summarizer.Summary {
	return summarizer.NewBuilder().
		WithSource(summarizer.SourceInfo{
			Name:    r.Source.Name,
			Width:   r.Width,
			Height:  r.Height,
			FPS:     r.FPS,
			Frames:  r.FramesIn,
			Resized: r.Resized,
		}).
		WithSettings(summarizer.Settings{
			Preset:      config.Options.Preset,
			Tune:        config.Options.Tune,
			Profile:     config.Options.Profile,
			RateControl: rateControl(config.Options),
			Colorspace:  config.Options.Colorspace,
			Container:   string(r.Container),
			Resolved:    r.Stats.Resolved,
		}).
		WithOutput(summarizer.OutputInfo{
			Path:        r.OutputPath,
			FileSize:    r.FileSize,
			HeaderBytes: r.Stats.HeaderBytes,
			FramesIn:    r.FramesIn,
			FramesOut:   r.FramesOut,
			Keyframes:   r.Keyframes,
			MaxDelayed:  r.Stats.MaxDelayed,
			DurationMs:  r.DurationMs,
		}).
		WithElapsed(r.Elapsed).
		Build()
}

func rateControl(opts ports.EncoderOptions) string {
	switch {
	case opts.Bitrate > 0:
		return fmt.Sprintf("abr %d kbps", opts.Bitrate)
	case opts.Quality > 0:
		return fmt.Sprintf("crf %g", opts.Quality)
	}
	return ""
}

// RunResult contains the results of a job for summary generation.
type RunResult struct {
	Source     ports.SourceInfo
	OutputPath string
	Container  ports.Container

	Width  int
	Height int
	FPS    float64

	FramesIn   int
	FramesOut  int
	Keyframes  int
	Resized    int
	DurationMs int
	FileSize   int64
	Elapsed    time.Duration

	Stats ports.EncoderStats
}
