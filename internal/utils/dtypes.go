package utils

import (
	"strings"

	"github.com/gomlx/gopjrt/dtypes"
)

var dtypeShortNames = map[dtypes.DType]string{
	dtypes.F64:      "f64",
	dtypes.F32:      "f32",
	dtypes.F16:      "f16",
	dtypes.BFloat16: "bf16",
	dtypes.S32:      "i32",
	dtypes.S16:      "i16",
	dtypes.S8:       "i8",
	dtypes.U8:       "u8",
}

// DTypeShortName returns the compact name used when rendering shapes and solutions. DTypes the slicer
// doesn't usually see are rendered with their lower-cased full name.
func DTypeShortName(dtype dtypes.DType) string {
	if name, ok := dtypeShortNames[dtype]; ok {
		return name
	}
	return strings.ToLower(dtype.String())
}

// DTypeBytes returns the size in bytes of one element of dtype.
func DTypeBytes(dtype dtypes.DType) int {
	return int(dtype.Memory())
}

// IsHighPrecisionFloat returns whether dtype is wide enough to accumulate partial sums without promotion.
func IsHighPrecisionFloat(dtype dtypes.DType) bool {
	return dtype == dtypes.F32 || dtype == dtypes.F64
}
