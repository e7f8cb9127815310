package x264

/*
#include <stdint.h>
#include <stdlib.h>
#include <x264.h>

// set_stats stores both stats paths in p's own string buffer. The "stats"
// option sets input and output together, so the input copy is kept aside
// while the output is parsed.
static int set_stats(x264_param_t *p, const char *in, const char *out) {
    char *kept = NULL;
    int ret;
    if (in) {
        if ((ret = x264_param_parse(p, "stats", in)) < 0)
            return ret;
        kept = p->rc.psz_stat_in;
    }
    p->rc.psz_stat_out = NULL;
    if (out) {
        if ((ret = x264_param_parse(p, "stats", out)) < 0)
            return ret;
    }
    p->rc.psz_stat_in = kept;
    return 0;
}
*/
import "C"

import (
	"fmt"
	"sort"
)

// Param is an encoder configuration. It is a value: every mutator returns an
// updated copy and leaves the receiver untouched, so a failed mutation never
// corrupts a configuration that was valid before it.
//
// String options (stats, zones, cqmfile, ...) are copied by libx264 into a
// buffer that Param never frees, since copies of a Param may still point into
// it. Each Parse of a string option therefore keeps a few bytes alive for the
// life of the process.
type Param struct {
	par C.x264_param_t
}

// DefaultParam returns libx264's stock defaults.
func DefaultParam() Param {
	var p Param
	C.x264_param_default(&p.par)
	return p
}

// DefaultParamPreset returns the defaults for a speed preset and tuning.
// An empty string leaves that selector unset.
func DefaultParamPreset(preset, tune string) (Param, error) {
	cPreset, err := optionalCString(preset)
	if err != nil {
		return Param{}, err
	}
	defer freeCString(cPreset)

	cTune, err := optionalCString(tune)
	if err != nil {
		return Param{}, err
	}
	defer freeCString(cTune)

	var p Param
	if ret := C.x264_param_default_preset(&p.par, cPreset, cTune); ret < 0 {
		return Param{}, fmt.Errorf("%w: preset %q tune %q", ErrInvalidArgument, preset, tune)
	}
	return p, nil
}

// detach returns a copy that no longer shares libx264's internal string
// buffer with p, so later parses on either side cannot reallocate it
// underneath the other.
func (p Param) detach() Param {
	p.par.opaque = nil
	return p
}

// reown returns a copy whose string options are held in its own buffer.
// p must come from x264_encoder_parameters while the encoder is still open:
// its strings then live in the encoder's storage and dangle once it closes.
// The zone table libx264 built from the zones string is dropped; the next
// Open parses the string again.
func (p Param) reown() (Param, error) {
	statIn := goStringPtr(p.par.rc.psz_stat_in)
	statOut := goStringPtr(p.par.rc.psz_stat_out)
	options := []struct {
		name  string
		value *string
	}{
		{"zones", goStringPtr(p.par.rc.psz_zones)},
		{"cqmfile", goStringPtr(p.par.psz_cqm_file)},
		{"dump-yuv", goStringPtr(p.par.psz_dump_yuv)},
		{"opencl-clbin", goStringPtr(p.par.psz_clbin_file)},
	}

	next := p.detach()
	next.par.rc.psz_stat_in = nil
	next.par.rc.psz_stat_out = nil
	next.par.rc.psz_zones = nil
	next.par.rc.zones = nil
	next.par.rc.i_zones = 0
	next.par.psz_cqm_file = nil
	next.par.psz_dump_yuv = nil
	next.par.psz_clbin_file = nil

	if statIn != nil || statOut != nil {
		cIn, err := stringPtrToC(statIn)
		if err != nil {
			return Param{}, err
		}
		defer freeCString(cIn)
		cOut, err := stringPtrToC(statOut)
		if err != nil {
			return Param{}, err
		}
		defer freeCString(cOut)
		if ret := C.set_stats(&next.par, cIn, cOut); ret < 0 {
			return Param{}, fmt.Errorf("%w: stats (status %d)", ErrAllocation, int(ret))
		}
	}
	for _, o := range options {
		if o.value == nil || *o.value == "" {
			continue
		}
		var err error
		if next, err = next.Parse(o.name, *o.value); err != nil {
			return Param{}, err
		}
	}
	return next, nil
}

// ApplyProfile restricts the configuration to an H.264 profile such as
// "baseline", "main" or "high".
func (p Param) ApplyProfile(profile string) (Param, error) {
	cProfile, err := cString(profile)
	if err != nil {
		return p, err
	}
	defer freeCString(cProfile)

	next := p.detach()
	if ret := C.x264_param_apply_profile(&next.par, cProfile); ret < 0 {
		return p, fmt.Errorf("%w: profile %q", ErrInvalidArgument, profile)
	}
	return next, nil
}

// Parse sets an option by the same name and value syntax the x264 command
// line uses, e.g. Parse("keyint", "60") or Parse("no-scenecut", "").
func (p Param) Parse(name, value string) (Param, error) {
	cName, err := cString(name)
	if err != nil {
		return p, err
	}
	defer freeCString(cName)

	var cValue *C.char
	if value != "" {
		if cValue, err = cString(value); err != nil {
			return p, err
		}
		defer freeCString(cValue)
	}

	next := p.detach()
	switch ret := C.x264_param_parse(&next.par, cName, cValue); {
	case ret == 0:
		return next, nil
	case ret == C.X264_PARAM_BAD_NAME:
		return p, fmt.Errorf("%w: %w %q", ErrInvalidArgument, ErrUnknownOption, name)
	case ret == C.X264_PARAM_BAD_VALUE:
		return p, fmt.Errorf("%w: %w %q for %q", ErrInvalidArgument, ErrBadOptionValue, value, name)
	default:
		return p, fmt.Errorf("%w: option %q=%q (status %d)", ErrInvalidArgument, name, value, int(ret))
	}
}

// ParseAll applies Parse for every entry in sorted key order. It stops at the
// first failure and returns p unchanged.
func (p Param) ParseAll(options map[string]string) (Param, error) {
	keys := make([]string, 0, len(options))
	for k := range options {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	next := p
	for _, k := range keys {
		var err error
		if next, err = next.Parse(k, options[k]); err != nil {
			return p, err
		}
	}
	return next, nil
}

// WithColorspace sets the input colorspace.
func (p Param) WithColorspace(c Colorspace) Param {
	p.par.i_csp = C.int(c)
	return p
}

// WithDimension sets the frame size in pixels.
func (p Param) WithDimension(width, height int) Param {
	p.par.i_width = C.int(width)
	p.par.i_height = C.int(height)
	return p
}

// WithFullRange marks the input as full range (0-255) in the VUI.
func (p Param) WithFullRange(full bool) Param {
	p.par.vui.b_fullrange = cBool(full)
	return p
}

// WithColorMatrix sets the VUI matrix coefficients (1 = bt709, 6 = smpte170m, ...).
func (p Param) WithColorMatrix(matrix int) Param {
	p.par.vui.i_colmatrix = C.int(matrix)
	return p
}

// WithPsyRD sets the psychovisual rate-distortion strength.
func (p Param) WithPsyRD(v float32) Param {
	p.par.analyse.f_psy_rd = C.float(v)
	return p
}

// WithPsyTrellis sets the psychovisual trellis strength.
func (p Param) WithPsyTrellis(v float32) Param {
	p.par.analyse.f_psy_trellis = C.float(v)
	return p
}

// WithFPS sets the frame rate as a rational number.
func (p Param) WithFPS(num, den int) Param {
	p.par.i_fps_num = C.uint32_t(num)
	p.par.i_fps_den = C.uint32_t(den)
	return p
}

// WithTimebase sets the unit of picture timestamps to num/den seconds.
func (p Param) WithTimebase(num, den int) Param {
	p.par.i_timebase_num = C.uint32_t(num)
	p.par.i_timebase_den = C.uint32_t(den)
	return p
}

// WithThreads sets the number of encoding threads; 0 lets libx264 decide.
func (p Param) WithThreads(n int) Param {
	p.par.i_threads = C.int(n)
	return p
}

// WithKeyint sets the maximum GOP length.
func (p Param) WithKeyint(max int) Param {
	p.par.i_keyint_max = C.int(max)
	return p
}

// WithBFrames sets the number of consecutive B-frames.
func (p Param) WithBFrames(n int) Param {
	p.par.i_bframe = C.int(n)
	return p
}

// WithCRF switches rate control to constant rate factor.
func (p Param) WithCRF(crf float32) Param {
	p.par.rc.i_rc_method = C.X264_RC_CRF
	p.par.rc.f_rf_constant = C.float(crf)
	return p
}

// WithBitrate switches rate control to average bitrate, in kbit/s.
func (p Param) WithBitrate(kbps int) Param {
	p.par.rc.i_rc_method = C.X264_RC_ABR
	p.par.rc.i_bitrate = C.int(kbps)
	return p
}

// WithAnnexB selects start-code prefixed (true) or length prefixed NAL output.
func (p Param) WithAnnexB(annexb bool) Param {
	p.par.b_annexb = cBool(annexb)
	return p
}

// WithRepeatHeaders makes libx264 emit SPS/PPS before every keyframe.
func (p Param) WithRepeatHeaders(repeat bool) Param {
	p.par.b_repeat_headers = cBool(repeat)
	return p
}

func (p Param) Width() int { return int(p.par.i_width) }
func (p Param) Height() int { return int(p.par.i_height) }
func (p Param) Colorspace() Colorspace { return Colorspace(p.par.i_csp) }
func (p Param) BFrames() int { return int(p.par.i_bframe) }
func (p Param) Threads() int { return int(p.par.i_threads) }
func (p Param) Keyint() int { return int(p.par.i_keyint_max) }
func (p Param) AnnexB() bool { return p.par.b_annexb != 0 }
func (p Param) FullRange() bool { return p.par.vui.b_fullrange != 0 }
func (p Param) ColorMatrix() int { return int(p.par.vui.i_colmatrix) }
func (p Param) PsyRD() float32 { return float32(p.par.analyse.f_psy_rd) }
func (p Param) PsyTrellis() float32 { return float32(p.par.analyse.f_psy_trellis) }

// FPS returns the frame rate numerator and denominator.
func (p Param) FPS() (num, den int) {
	return int(p.par.i_fps_num), int(p.par.i_fps_den)
}

// Timebase returns the timestamp unit as num/den seconds.
func (p Param) Timebase() (num, den int) {
	return int(p.par.i_timebase_num), int(p.par.i_timebase_den)
}

// RateControl returns the rate control mode ("crf", "abr" or "cqp") and its
// target: the rate factor, kbit/s or quantizer.
func (p Param) RateControl() (mode string, target float64) {
	switch p.par.rc.i_rc_method {
	case C.X264_RC_CRF:
		return "crf", float64(p.par.rc.f_rf_constant)
	case C.X264_RC_ABR:
		return "abr", float64(p.par.rc.i_bitrate)
	}
	return "cqp", float64(p.par.rc.i_qp_constant)
}

// String summarizes the fields most useful in logs.
func (p Param) String() string {
	num, den := p.FPS()
	mode, target := p.RateControl()
	return fmt.Sprintf("%dx%d %s %d/%dfps keyint=%d bframes=%d threads=%d %s=%g",
		p.Width(), p.Height(), p.Colorspace(), num, den,
		p.Keyint(), p.BFrames(), p.Threads(), mode, target)
}

// StatsFile returns the first-pass statistics path written by the encoder.
func (p Param) StatsFile() string {
	if s := goStringPtr(p.par.rc.psz_stat_out); s != nil {
		return *s
	}
	return ""
}

// Zones returns the per-range override string set through the zones option.
func (p Param) Zones() string {
	if s := goStringPtr(p.par.rc.psz_zones); s != nil {
		return *s
	}
	return ""
}

func goStringPtr(s *C.char) *string {
	if s == nil {
		return nil
	}
	v := C.GoString(s)
	return &v
}

func stringPtrToC(s *string) (*C.char, error) {
	if s == nil {
		return nil, nil
	}
	return cString(*s)
}

func cBool(b bool) C.int {
	if b {
		return 1
	}
	return 0
}
