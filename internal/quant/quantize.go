package quant

import (
	"math"

	"github.com/xxthink/xvc/internal/yuv"
)

// Forward quantizes a width x height block of coefficients and returns the
// number of non-zero levels.
func Forward(comp yuv.Component, qp *QP, shift, offset, width, height int, in, out yuv.CoeffBuffer) int {
	scale := int64(qp.FwdScale(comp))
	numNonZero := 0
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			coeff := int64(in.Data[y*in.Stride+x])
			sign := int64(1)
			if coeff < 0 {
				sign = -1
				coeff = -coeff
			}
			level := ((coeff*scale + int64(offset)) >> uint(shift)) * sign
			level = clip64(level, math.MinInt16, math.MaxInt16)
			out.Data[y*out.Stride+x] = yuv.Coeff(level)
			if level != 0 {
				numNonZero++
			}
		}
	}
	return numNonZero
}

// Inverse scales quantized levels back to coefficients.
func Inverse(comp yuv.Component, qp *QP, shift, width, height int, in, out yuv.CoeffBuffer) {
	scale := int64(qp.InvScale(comp))
	offset := int64(1) << uint(shift-1)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			coeff := (int64(in.Data[y*in.Stride+x])*scale + offset) >> uint(shift)
			out.Data[y*out.Stride+x] = yuv.Coeff(clip64(coeff, math.MinInt16, math.MaxInt16))
		}
	}
}

// TransformShift returns the scaling applied by a forward transform of the
// given size, relative to the residual.
func TransformShift(bitdepth, log2Size int) int {
	return MaxTrDynamicRange - bitdepth - log2Size
}

// ForwardShift returns the right shift used by Forward for comp.
func ForwardShift(qp *QP, comp yuv.Component, bitdepth, log2Size int) int {
	return QuantShift + qp.Per(comp) + TransformShift(bitdepth, log2Size)
}

// ForwardOffset returns the rounding offset for a forward shift. Intra blocks
// round up more aggressively than inter blocks.
func ForwardOffset(shift int, intra bool) int {
	if intra {
		return 171 << uint(shift-9)
	}
	return 85 << uint(shift-9)
}

// InverseShift returns the right shift used by Inverse.
func InverseShift(bitdepth, log2Size int) int {
	return IQuantShift - QuantShift - TransformShift(bitdepth, log2Size)
}

func clip64(v, lo, hi int64) int64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
