package orchestrator

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/user/x264go/pkg/adapters/logger"
	"github.com/user/x264go/pkg/mocks"
	"github.com/user/x264go/pkg/pipeline"
	"github.com/user/x264go/pkg/ports"
)

// mockEncodeStage is a mock for the encode stage.
type mockEncodeStage struct {
	result pipeline.EncodeResult
	err    error
	input  pipeline.EncodeInput
}

func (m *mockEncodeStage) Execute(ctx context.Context, input pipeline.EncodeInput) (pipeline.EncodeResult, error) {
	m.input = input
	if m.err != nil {
		return pipeline.EncodeResult{}, m.err
	}
	return m.result, nil
}

func newEncodeStage() *mockEncodeStage {
	return &mockEncodeStage{
		result: pipeline.EncodeResult{
			Data:       []byte{0, 0, 0, 1, 0x67},
			Width:      320,
			Height:     240,
			FPS:        25,
			FramesIn:   50,
			FramesOut:  50,
			Keyframes:  1,
			DurationMs: 2000,
			FileSize:   5,
			Stats:      ports.EncoderStats{HeaderBytes: 30, MaxDelayed: 12, Resolved: "320x240 i420"},
		},
	}
}

// openerFor returns a SourceOpener that hands out source and records its arguments.
func openerFor(source *mocks.FrameSource, gotInput *string, gotHint *ports.SourceInfo) SourceOpener {
	return func(input string, hint ports.SourceInfo) (ports.FrameSource, error) {
		*gotInput = input
		*gotHint = hint
		return source, nil
	}
}

func TestOrchestrator_Run(t *testing.T) {
	stage := newEncodeStage()
	source := mocks.NewFrameSource(320, 240, 50, 25)
	fs := mocks.NewFileSystem()
	var gotInput string
	var gotHint ports.SourceInfo

	o := New(stage, openerFor(source, &gotInput, &gotHint), fs, logger.NewNoop())

	config := DefaultConfig()
	config.OutputPath = "out.h264"
	config.Frames = 50
	config.DumpSourceEvery = 10

	result, err := o.Run(context.Background(), config)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotInput != "testsrc" || gotHint.Frames != 50 || gotHint.Width != 0 {
		t.Errorf("opener called with %q %+v", gotInput, gotHint)
	}
	if !source.Closed {
		t.Error("expected source to be closed")
	}

	if stage.input.Source != source {
		t.Error("stage did not receive the opened source")
	}
	if stage.input.Options.Container != ports.ContainerAnnexB {
		t.Errorf("container = %q, want inferred annexb", stage.input.Options.Container)
	}
	if stage.input.MaxFrames != 50 || stage.input.DumpSourceEvery != 10 {
		t.Errorf("unexpected stage input: %+v", stage.input)
	}
	if stage.input.Options.Preset != "medium" {
		t.Errorf("options not passed: %+v", stage.input.Options)
	}

	data, ok := fs.GetFile("out.h264")
	if !ok || len(data) != 5 {
		t.Errorf("output not written: %v %v", ok, data)
	}

	if result.Container != ports.ContainerAnnexB || result.FramesIn != 50 || result.Keyframes != 1 {
		t.Errorf("unexpected result: %+v", result)
	}
	if result.Source.Name != "mock" {
		t.Errorf("source info not recorded: %+v", result.Source)
	}
}

func TestOrchestrator_Run_ExplicitContainer(t *testing.T) {
	stage := newEncodeStage()
	var in string
	var hint ports.SourceInfo
	o := New(stage, openerFor(mocks.NewFrameSource(8, 8, 1, 25), &in, &hint), mocks.NewFileSystem(), logger.NewNoop())

	config := DefaultConfig()
	config.OutputPath = "stream.bin"
	config.Container = ports.ContainerAnnexB

	if _, err := o.Run(context.Background(), config); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stage.input.Options.Container != ports.ContainerAnnexB {
		t.Errorf("container = %q", stage.input.Options.Container)
	}
}

func TestOrchestrator_Run_Summary(t *testing.T) {
	stage := newEncodeStage()
	fs := mocks.NewFileSystem()
	var in string
	var hint ports.SourceInfo
	o := New(stage, openerFor(mocks.NewFrameSource(320, 240, 50, 25), &in, &hint), fs, logger.NewNoop())

	tick := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	o.now = func() time.Time {
		tick = tick.Add(500 * time.Millisecond)
		return tick
	}

	config := DefaultConfig()
	config.SummaryPath = "summary.md"

	result, err := o.Run(context.Background(), config)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Elapsed != 500*time.Millisecond {
		t.Errorf("Elapsed = %v", result.Elapsed)
	}

	if got := fs.Writes(); len(got) != 2 || got[0] != "out.mp4" || got[1] != "summary.md" {
		t.Errorf("expected output then summary, got writes %v", got)
	}
	data, ok := fs.GetFile("summary.md")
	if !ok {
		t.Fatal("expected summary to be written")
	}
	for _, want := range []string{"out.mp4", "crf 23", "`320x240 i420`", "| Max Delayed Frames | 12 |"} {
		if !strings.Contains(string(data), want) {
			t.Errorf("summary missing %q", want)
		}
	}
}

func TestOrchestrator_Run_SummaryFailureIsWarning(t *testing.T) {
	fs := mocks.NewFileSystem()
	fs.WriteFileFunc = func(path string, data []byte) error {
		if path == "summary.md" {
			return errors.New("disk full")
		}
		return nil
	}
	var in string
	var hint ports.SourceInfo
	o := New(newEncodeStage(), openerFor(mocks.NewFrameSource(8, 8, 1, 25), &in, &hint), fs, logger.NewNoop())

	config := DefaultConfig()
	config.SummaryPath = "summary.md"
	if _, err := o.Run(context.Background(), config); err != nil {
		t.Errorf("summary failure should not fail the run: %v", err)
	}
}

func TestOrchestrator_Run_Errors(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name   string
		config func(*Config)
		opener SourceOpener
		stage  *mockEncodeStage
		fs     func(*mocks.FileSystem)
		want   error
	}{
		{
			name:   "no output path",
			config: func(c *Config) { c.OutputPath = "" },
		},
		{
			name: "source fails",
			opener: func(string, ports.SourceInfo) (ports.FrameSource, error) {
				return nil, boom
			},
			want: boom,
		},
		{
			name:  "stage fails",
			stage: &mockEncodeStage{err: boom},
			want:  boom,
		},
		{
			name: "write fails",
			fs: func(fs *mocks.FileSystem) {
				fs.WriteFileFunc = func(string, []byte) error { return boom }
			},
			want: boom,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			if tt.config != nil {
				tt.config(&config)
			}
			opener := tt.opener
			if opener == nil {
				opener = func(string, ports.SourceInfo) (ports.FrameSource, error) {
					return mocks.NewFrameSource(8, 8, 1, 25), nil
				}
			}
			stage := tt.stage
			if stage == nil {
				stage = newEncodeStage()
			}
			fs := mocks.NewFileSystem()
			if tt.fs != nil {
				tt.fs(fs)
			}

			_, err := New(stage, opener, fs, logger.NewNoop()).Run(context.Background(), config)
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestBuildSummary_RateControl(t *testing.T) {
	tests := []struct {
		name string
		opts ports.EncoderOptions
		want string
	}{
		{"bitrate wins", ports.EncoderOptions{Bitrate: 2500, Quality: 20}, "abr 2500 kbps"},
		{"crf", ports.EncoderOptions{Quality: 18.5}, "crf 18.5"},
		{"encoder default", ports.EncoderOptions{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := BuildSummary(Config{Options: tt.opts}, RunResult{})
			if s.Settings.RateControl != tt.want {
				t.Errorf("RateControl = %q, want %q", s.Settings.RateControl, tt.want)
			}
		})
	}
}
