// Package x264 is a memory-safe binding to libx264.
//
// It wraps the C API in four owned types:
//   - Param: the encoder configuration, a value type with fluent mutators
//   - Picture: a raw multi-plane image allocated by libx264
//   - NALData: encoded bitstream copied out of libx264-owned memory
//   - Encoder: an open encoder session
//
// Picture and Encoder hold native resources and must be released with Close,
// usually through defer. None of the types are safe for concurrent use.
package x264

/*
#cgo pkg-config: x264
#include <stdint.h>
#include <stdlib.h>
#include <x264.h>

static const char *preset_name(int i) { return x264_preset_names[i]; }
static const char *tune_name(int i)   { return x264_tune_names[i]; }
static const char *profile_name(int i) { return x264_profile_names[i]; }
*/
import "C"

import (
	"fmt"
	"strings"
	"unsafe"
)

// Build is the X264_BUILD number of the headers this package was compiled against.
const Build = int(C.X264_BUILD)

// Presets lists the speed presets accepted by DefaultParamPreset, fastest first.
var Presets = collectNames(func(i int) *C.char { return C.preset_name(C.int(i)) })

// Tunes lists the tunings accepted by DefaultParamPreset.
var Tunes = collectNames(func(i int) *C.char { return C.tune_name(C.int(i)) })

// Profiles lists the profiles accepted by Param.ApplyProfile.
var Profiles = collectNames(func(i int) *C.char { return C.profile_name(C.int(i)) })

// collectNames walks a NULL-terminated string table from x264.h.
func collectNames(at func(int) *C.char) []string {
	var names []string
	for i := 0; ; i++ {
		s := at(i)
		if s == nil {
			return names
		}
		names = append(names, C.GoString(s))
	}
}

// cString converts s for the C boundary. The caller frees the result.
func cString(s string) (*C.char, error) {
	if strings.IndexByte(s, 0) >= 0 {
		return nil, fmt.Errorf("%w: string %q contains a NUL byte", ErrInvalidArgument, s)
	}
	return C.CString(s), nil
}

// optionalCString is cString with "" mapped to NULL.
func optionalCString(s string) (*C.char, error) {
	if s == "" {
		return nil, nil
	}
	return cString(s)
}

func freeCString(s *C.char) {
	if s != nil {
		C.free(unsafe.Pointer(s))
	}
}
