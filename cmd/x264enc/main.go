// Package main provides the CLI entry point for x264enc.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ideamans/go-l10n"
	"github.com/urfave/cli/v2"

	"github.com/user/x264go/pkg/adapters/filesink"
	"github.com/user/x264go/pkg/adapters/ggrenderer"
	"github.com/user/x264go/pkg/adapters/logger"
	"github.com/user/x264go/pkg/adapters/mp4probe"
	"github.com/user/x264go/pkg/adapters/nullsink"
	"github.com/user/x264go/pkg/adapters/osfilesystem"
	"github.com/user/x264go/pkg/adapters/x264encoder"
	"github.com/user/x264go/pkg/config"
	"github.com/user/x264go/pkg/orchestrator"
	"github.com/user/x264go/pkg/ports"
	"github.com/user/x264go/pkg/stages/encode"
	"github.com/user/x264go/pkg/x264"
)

var version = "dev"

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	cli.VersionPrinter = func(c *cli.Context) {
		fmt.Fprintln(c.App.Writer, l10n.F("x264enc version %s (libx264 build %d)", c.App.Version, x264.Build))
	}

	return &cli.App{
		Name:    "x264enc",
		Usage:   l10n.T("Encode raw video to H.264 with libx264"),
		Version: version,
		// Option values such as tune=film,fastdecode contain commas.
		DisableSliceFlagSeparator: true,
		Commands: []*cli.Command{
			encodeCommand(),
			probeCommand(),
			formatsCommand(),
		},
	}
}

func encodeCommand() *cli.Command {
	return &cli.Command{
		Name:        "encode",
		Usage:       l10n.T("Encode a YUV4MPEG2 file or the test pattern"),
		Description: l10n.T("Encode frames from a .y4m file, stdin (-) or the built-in test pattern (testsrc) into an MP4 file or a raw H.264 stream."),
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: l10n.T("YAML configuration file"), Category: l10n.T("Input")},
			&cli.StringFlag{Name: "input", Aliases: []string{"i"}, Usage: l10n.T("Input: testsrc, a .y4m file or - for stdin"), Category: l10n.T("Input")},
			&cli.IntFlag{Name: "frames", Usage: l10n.T("Maximum number of frames to encode (0 = all)"), Category: l10n.T("Input")},
			&cli.StringFlag{Name: "font", Usage: l10n.T("TrueType font for the test pattern counter"), Category: l10n.T("Input")},

			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: l10n.T("Output file path, - for stdout"), Category: l10n.T("Output")},
			&cli.StringFlag{Name: "container", Usage: l10n.T("Output container (mp4, annexb), inferred from the output path by default"), Category: l10n.T("Output")},
			&cli.StringFlag{Name: "summary", Usage: l10n.T("Output execution summary to file (Markdown format)"), Category: l10n.T("Output")},

			&cli.IntFlag{Name: "width", Aliases: []string{"W"}, Usage: l10n.T("Output width, scaling the source if it differs"), Category: l10n.T("Geometry")},
			&cli.IntFlag{Name: "height", Aliases: []string{"H"}, Usage: l10n.T("Output height, scaling the source if it differs"), Category: l10n.T("Geometry")},
			&cli.Float64Flag{Name: "fps", Usage: l10n.T("Frame rate (default: the source rate)"), Category: l10n.T("Geometry")},

			&cli.StringFlag{Name: "colorspace", Usage: l10n.T("Input colorspace handed to the encoder (see formats)"), Category: l10n.T("Encoder")},
			&cli.StringFlag{Name: "preset", Usage: l10n.T("Speed preset (ultrafast ... placebo)"), Category: l10n.T("Encoder")},
			&cli.StringFlag{Name: "tune", Usage: l10n.T("Tuning, comma separated (film, animation, zerolatency, ...)"), Category: l10n.T("Encoder")},
			&cli.StringFlag{Name: "profile", Usage: l10n.T("H.264 profile limit (baseline, main, high, ...)"), Category: l10n.T("Encoder")},
			&cli.Float64Flag{Name: "crf", Aliases: []string{"q"}, Usage: l10n.T("Constant rate factor (0-51, lower is better)"), Category: l10n.T("Encoder")},
			&cli.IntFlag{Name: "bitrate", Usage: l10n.T("Average bitrate in kbit/s, overrides crf"), Category: l10n.T("Encoder")},
			&cli.IntFlag{Name: "keyint", Usage: l10n.T("Maximum keyframe interval"), Category: l10n.T("Encoder")},
			&cli.IntFlag{Name: "threads", Usage: l10n.T("Encoder threads (0 = auto)"), Category: l10n.T("Encoder")},
			&cli.IntFlag{Name: "bframes", Usage: l10n.T("B-frames (0 = preset value, negative disables)"), Category: l10n.T("Encoder")},
			&cli.BoolFlag{Name: "full-range", Usage: l10n.T("Signal full range samples"), Category: l10n.T("Encoder")},
			&cli.IntFlag{Name: "color-matrix", Usage: l10n.T("Matrix coefficients code written to the VUI"), Category: l10n.T("Encoder")},
			&cli.Float64Flag{Name: "psy-rd", Usage: l10n.T("Psychovisual rate-distortion strength"), Category: l10n.T("Encoder")},
			&cli.Float64Flag{Name: "psy-trellis", Usage: l10n.T("Psychovisual trellis strength"), Category: l10n.T("Encoder")},
			&cli.StringSliceFlag{Name: "option", Aliases: []string{"x"}, Usage: l10n.T("Raw encoder option as name=value (repeatable)"), Category: l10n.T("Encoder")},

			&cli.BoolFlag{Name: "debug", Aliases: []string{"d"}, Usage: l10n.T("Enable debug output"), Category: l10n.T("Debug")},
			&cli.StringFlag{Name: "debug-dir", Usage: l10n.T("Directory for debug output"), Category: l10n.T("Debug")},
			&cli.IntFlag{Name: "dump-source-every", Usage: l10n.T("Save every Nth source frame as PNG in debug mode"), Category: l10n.T("Debug")},

			&cli.StringFlag{Name: "log-level", Aliases: []string{"l"}, Usage: l10n.T("Log level (debug, info, warn, error)"), Category: l10n.T("Logging")},
			&cli.BoolFlag{Name: "quiet", Aliases: []string{"Q"}, Usage: l10n.T("Suppress all log output"), Category: l10n.T("Logging")},
		},
		Action: runEncode,
	}
}

func probeCommand() *cli.Command {
	return &cli.Command{
		Name:      "probe",
		Usage:     l10n.T("Describe an encoded MP4 file or H.264 stream"),
		ArgsUsage: "<file>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "json", Usage: l10n.T("Print the report as JSON")},
		},
		Action: runProbe,
	}
}

func formatsCommand() *cli.Command {
	return &cli.Command{
		Name:   "formats",
		Usage:  l10n.T("List colorspaces, presets, tunes and profiles"),
		Action: runFormats,
	}
}

// loadConfig builds the job configuration from the optional config file and
// the flags the user set explicitly.
func loadConfig(c *cli.Context) (config.Config, error) {
	cfg := config.Defaults()
	if path := c.String("config"); path != "" {
		loaded, err := config.LoadFromFile(path)
		if err != nil {
			return cfg, fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}

	if c.IsSet("input") {
		cfg.Input = c.String("input")
	}
	if c.IsSet("frames") {
		cfg.Frames = c.Int("frames")
	}
	if c.IsSet("font") {
		cfg.Font = c.String("font")
	}
	if c.IsSet("output") {
		cfg.OutputPath = c.String("output")
	}
	if c.IsSet("container") {
		cfg.Container = c.String("container")
	}
	if c.IsSet("summary") {
		cfg.SummaryPath = c.String("summary")
	}
	if c.IsSet("width") {
		cfg.Width = c.Int("width")
	}
	if c.IsSet("height") {
		cfg.Height = c.Int("height")
	}
	if c.IsSet("fps") {
		cfg.FPS = c.Float64("fps")
	}
	if c.IsSet("colorspace") {
		cfg.Colorspace = c.String("colorspace")
	}
	if c.IsSet("preset") {
		cfg.Preset = c.String("preset")
	}
	if c.IsSet("tune") {
		cfg.Tune = c.String("tune")
	}
	if c.IsSet("profile") {
		cfg.Profile = c.String("profile")
	}
	if c.IsSet("crf") {
		cfg.CRF = c.Float64("crf")
	}
	if c.IsSet("bitrate") {
		cfg.Bitrate = c.Int("bitrate")
	}
	if c.IsSet("keyint") {
		cfg.Keyint = c.Int("keyint")
	}
	if c.IsSet("threads") {
		cfg.Threads = c.Int("threads")
	}
	if c.IsSet("bframes") {
		cfg.BFrames = c.Int("bframes")
	}
	if c.IsSet("full-range") {
		cfg.FullRange = c.Bool("full-range")
	}
	if c.IsSet("color-matrix") {
		cfg.ColorMatrix = c.Int("color-matrix")
	}
	if c.IsSet("psy-rd") {
		cfg.PsyRD = c.Float64("psy-rd")
	}
	if c.IsSet("psy-trellis") {
		cfg.PsyTrellis = c.Float64("psy-trellis")
	}
	if c.IsSet("option") {
		opts, err := parseOptions(c.StringSlice("option"))
		if err != nil {
			return cfg, err
		}
		if cfg.Options == nil {
			cfg.Options = map[string]string{}
		}
		for k, v := range opts {
			cfg.Options[k] = v
		}
	}
	if c.IsSet("debug") {
		cfg.Debug = c.Bool("debug")
	}
	if c.IsSet("debug-dir") {
		cfg.DebugDir = c.String("debug-dir")
	}
	if c.IsSet("dump-source-every") {
		cfg.DumpSourceEvery = c.Int("dump-source-every")
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	if c.Bool("quiet") {
		cfg.LogLevel = "quiet"
	}

	return cfg, nil
}

// parseOptions splits name=value pairs.
func parseOptions(pairs []string) (map[string]string, error) {
	opts := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid option %q: expected name=value", pair)
		}
		opts[name] = value
	}
	return opts, nil
}

func newLogger(level string) ports.Logger {
	if ports.ParseLogLevel(level) == ports.LevelQuiet {
		return logger.NewNoop()
	}
	return logger.NewConsole(ports.ParseLogLevel(level))
}

func runEncode(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log := newLogger(cfg.LogLevel)
	if path := c.String("config"); path != "" {
		log.Debug("Loaded configuration from %s", path)
	}

	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			log.Warn("Interrupted, shutting down...")
			cancel()
		case <-ctx.Done():
		}
	}()

	fs := osfilesystem.New()
	renderer := ggrenderer.New()
	encoder := x264encoder.New(log)

	var sink ports.DebugSink
	if cfg.Debug {
		if err := fs.MkdirAll(cfg.DebugDir); err != nil {
			return fmt.Errorf("create debug directory: %w", err)
		}
		sink = filesink.New(cfg.DebugDir, fs, renderer)
	} else {
		sink = nullsink.New()
	}

	stage := encode.NewStage(encoder, renderer, sink, log)
	orch := orchestrator.New(stage, newSourceOpener(renderer, cfg.Font), fs, log)

	result, err := orch.Run(ctx, cfg.ToOrchestratorConfig())
	if err != nil {
		return err
	}

	log.Info("Encoded %d frames (%d keyframes) at %dx%d in %s",
		result.FramesOut, result.Keyframes, result.Width, result.Height, result.Elapsed.Round(time.Millisecond))
	if result.OutputPath != osfilesystem.StdoutPath {
		log.Info("Output saved to %s", result.OutputPath)
	}
	return nil
}

func runProbe(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("%s", l10n.T("Exactly one file argument is required"))
	}

	report, err := mp4probe.ProbeFile(c.Args().First())
	if err != nil {
		return err
	}

	if c.Bool("json") {
		enc := json.NewEncoder(c.App.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	printReport(c.App.Writer, report)
	return nil
}

func printReport(w io.Writer, r mp4probe.Report) {
	fmt.Fprintf(w, "%-12s %s\n", l10n.T("Container")+":", r.Container)
	fmt.Fprintf(w, "%-12s %s\n", l10n.T("Codec")+":", r.Codec)
	fmt.Fprintf(w, "%-12s %dx%d\n", l10n.T("Size")+":", r.Width, r.Height)
	if r.Profile != 0 {
		fmt.Fprintf(w, "%-12s %s @ %s\n", l10n.T("Profile")+":", r.ProfileName(), r.LevelName())
	}
	fmt.Fprintf(w, "%-12s %d\n", l10n.T("Frames")+":", r.Samples)
	fmt.Fprintf(w, "%-12s %d\n", l10n.T("Keyframes")+":", r.Keyframes)
	if r.Duration > 0 {
		fmt.Fprintf(w, "%-12s %.3fs\n", l10n.T("Duration")+":", r.Duration)
	}
	for _, typ := range r.SortedNALTypes() {
		fmt.Fprintf(w, "  %-10s %d\n", typ, r.NALCounts[typ])
	}
}

func runFormats(c *cli.Context) error {
	w := c.App.Writer

	fmt.Fprintln(w, l10n.T("Colorspaces:"))
	for _, csp := range x264.SupportedColorspaces() {
		var scales []string
		for i := 0; i < csp.Planes(); i++ {
			sw, sh := x264.PlaneScale(csp, i)
			scales = append(scales, fmt.Sprintf("%s/%s", scaleString(sw), scaleString(sh)))
		}
		fmt.Fprintf(w, "  %-6s %d %s  %s\n", csp, csp.Planes(), l10n.T("planes"), strings.Join(scales, " "))
	}

	fmt.Fprintf(w, "%s %s\n", l10n.T("Presets:"), strings.Join(x264.Presets, ", "))
	fmt.Fprintf(w, "%s %s\n", l10n.T("Tunes:"), strings.Join(x264.Tunes, ", "))
	fmt.Fprintf(w, "%s %s\n", l10n.T("Profiles:"), strings.Join(x264.Profiles, ", "))
	return nil
}

// scaleString renders a plane scale given in 1/256 units of the luma
// dimension.
func scaleString(v int) string {
	switch {
	case v%256 == 0:
		return fmt.Sprintf("%d", v/256)
	case 256%v == 0:
		return fmt.Sprintf("1:%d", 256/v)
	default:
		return fmt.Sprintf("%d/256", v)
	}
}
