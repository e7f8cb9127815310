package x264encoder

import (
	"fmt"
	"math"

	"github.com/user/x264go/pkg/ports"
	"github.com/user/x264go/pkg/x264"
)

// buildParam turns adapter options into an encoder configuration. The order
// follows libx264's rules: preset and tune first, explicit settings next, raw
// options after those, and the profile restriction last.
func buildParam(width, height int, fps float64, opts ports.EncoderOptions) (x264.Param, error) {
	p, err := x264.DefaultParamPreset(opts.Preset, opts.Tune)
	if err != nil {
		return x264.Param{}, err
	}

	csp := x264.CSPI420
	if opts.Colorspace != "" {
		if csp, err = x264.ParseColorspace(opts.Colorspace); err != nil {
			return x264.Param{}, err
		}
	}
	if csp.HighDepth() {
		return x264.Param{}, fmt.Errorf("%w: %s", ErrUnsupportedInput, csp)
	}

	num, den := rationalFPS(fps)
	p = p.WithColorspace(csp).
		WithDimension(width, height).
		WithFPS(num, den).
		WithTimebase(den, num).
		WithAnnexB(true).
		WithRepeatHeaders(false)

	if opts.Threads > 0 {
		p = p.WithThreads(opts.Threads)
	}
	if opts.Keyint > 0 {
		p = p.WithKeyint(opts.Keyint)
	}
	switch {
	case opts.BFrames > 0:
		p = p.WithBFrames(opts.BFrames)
	case opts.BFrames < 0:
		p = p.WithBFrames(0)
	}

	switch {
	case opts.Bitrate > 0:
		p = p.WithBitrate(opts.Bitrate)
	case opts.Quality > 0:
		p = p.WithCRF(float32(opts.Quality))
	}

	if opts.FullRange {
		p = p.WithFullRange(true)
	}
	if opts.ColorMatrix > 0 {
		p = p.WithColorMatrix(opts.ColorMatrix)
	}
	if opts.PsyRD > 0 {
		p = p.WithPsyRD(float32(opts.PsyRD))
	}
	if opts.PsyTrellis > 0 {
		p = p.WithPsyTrellis(float32(opts.PsyTrellis))
	}

	if len(opts.Options) > 0 {
		if p, err = p.ParseAll(opts.Options); err != nil {
			return x264.Param{}, err
		}
	}

	if opts.Profile != "" {
		if p, err = p.ApplyProfile(opts.Profile); err != nil {
			return x264.Param{}, err
		}
	}
	return p, nil
}

// rationalFPS expresses fps as num/den, keeping NTSC style rates exact.
func rationalFPS(fps float64) (num, den int) {
	if fps <= 0 {
		return 25, 1
	}
	if fps == math.Trunc(fps) {
		return int(fps), 1
	}
	ntsc := fps * 1001 / 1000
	if math.Abs(ntsc-math.Round(ntsc)) < 0.01 {
		return int(math.Round(ntsc)) * 1000, 1001
	}
	return int(math.Round(fps * 1000)), 1000
}
