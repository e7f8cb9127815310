package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/user/x264go/pkg/adapters/testsource"
	"github.com/user/x264go/pkg/adapters/y4msource"
	"github.com/user/x264go/pkg/orchestrator"
	"github.com/user/x264go/pkg/ports"
)

// Geometry of the generated pattern when the job leaves it unset.
const (
	testsrcWidth  = 640
	testsrcHeight = 360
	testsrcFPS    = 30
	testsrcFrames = 90
)

// newSourceOpener resolves an input name to a frame source: "testsrc" for
// the generated pattern, a .y4m path, or "-" for a YUV4MPEG2 stream on stdin.
// font only affects the pattern's frame counter.
func newSourceOpener(renderer ports.Renderer, font string) orchestrator.SourceOpener {
	return func(input string, hint ports.SourceInfo) (ports.FrameSource, error) {
		switch {
		case input == "" || input == "testsrc":
			opts := testsource.Options{
				Width:  orDefault(hint.Width, testsrcWidth),
				Height: orDefault(hint.Height, testsrcHeight),
				FPS:    hint.FPS,
				Frames: orDefault(hint.Frames, testsrcFrames),

				FontPath: font,
			}
			if opts.FPS <= 0 {
				opts.FPS = testsrcFPS
			}
			src, err := testsource.New(renderer, opts)
			if err != nil {
				return nil, err
			}
			return src, nil

		case input == "-":
			src, err := y4msource.New(os.Stdin)
			if err != nil {
				return nil, err
			}
			return src, nil

		case strings.EqualFold(filepath.Ext(input), ".y4m"):
			src, err := y4msource.Open(input)
			if err != nil {
				return nil, err
			}
			return src, nil
		}
		return nil, fmt.Errorf("unsupported input %q: use testsrc, a .y4m file or -", input)
	}
}

func orDefault(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}
