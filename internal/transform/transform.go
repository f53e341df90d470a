// Package transform implements the separable integer DCT used for residual
// coding, for block sizes from 4x4 to 64x64.
package transform

import (
	"math"

	"github.com/xxthink/xvc/internal/yuv"
)

const (
	// MinLog2Size is log2 of the smallest transform size.
	MinLog2Size = 2
	// MaxLog2Size is log2 of the largest transform size.
	MaxLog2Size = 6

	numSizes        = MaxLog2Size - MinLog2Size + 1
	invFirstShift   = 7
	invSecondShift  = 20 // minus bit depth
	fwdFirstOffset  = 9  // subtracted from log2 size plus bit depth
	fwdSecondOffset = 6
)

// coefficient magnitudes at angle m*pi/64 for the sizes up to 32
var cosTable = [33]int32{
	64, 90, 90, 90, 89, 88, 87, 85, 83, 82, 80, 78, 75, 73, 70, 67,
	64, 61, 57, 54, 50, 46, 43, 38, 36, 31, 25, 22, 18, 13, 9, 4, 0,
}

var matrices [numSizes][]int32

func init() {
	for i := range matrices {
		n := 1 << uint(i+MinLog2Size)
		m := make([]int32, n*n)
		for k := 0; k < n; k++ {
			for j := 0; j < n; j++ {
				m[k*n+j] = basis(n, k, j)
			}
		}
		matrices[i] = m
	}
}

func basis(n, k, j int) int32 {
	if k == 0 {
		return 64
	}
	if n > 32 {
		c := 64 * math.Sqrt2 * math.Cos(float64((2*j+1)*k)*math.Pi/float64(2*n))
		return int32(math.Floor(c + 0.5))
	}
	angle := ((2*j + 1) * k * (32 / n)) % 128
	if angle > 64 {
		angle = 128 - angle
	}
	if angle > 32 {
		return -cosTable[64-angle]
	}
	return cosTable[angle]
}

// Transform holds scratch space for the two transform passes. A Transform
// may not be used concurrently.
type Transform struct {
	tmp [1 << (2 * MaxLog2Size)]int32
}

// New returns a transform with its own scratch buffer.
func New() *Transform {
	return &Transform{}
}

// Forward transforms a block of residuals into coefficients.
func (t *Transform) Forward(log2Width, log2Height, bitdepth int, src, dst yuv.CoeffBuffer) {
	w, h := 1<<uint(log2Width), 1<<uint(log2Height)
	mw := matrices[log2Width-MinLog2Size]
	mh := matrices[log2Height-MinLog2Size]
	shift1 := uint(log2Width + bitdepth - fwdFirstOffset)
	shift2 := uint(log2Height + fwdSecondOffset)
	rnd1 := int64(1) << (shift1 - 1)
	rnd2 := int64(1) << (shift2 - 1)

	for y := 0; y < h; y++ {
		row := src.Data[y*src.Stride : y*src.Stride+w]
		for k := 0; k < w; k++ {
			base := mw[k*w : k*w+w]
			var sum int64
			for j, r := range row {
				sum += int64(base[j]) * int64(r)
			}
			t.tmp[y*w+k] = int32((sum + rnd1) >> shift1)
		}
	}
	for k := 0; k < h; k++ {
		base := mh[k*h : k*h+h]
		for x := 0; x < w; x++ {
			var sum int64
			for j, b := range base {
				sum += int64(b) * int64(t.tmp[j*w+x])
			}
			dst.Data[k*dst.Stride+x] = clip16((sum + rnd2) >> shift2)
		}
	}
}

// Inverse transforms a block of coefficients back into residuals.
func (t *Transform) Inverse(log2Width, log2Height, bitdepth int, src, dst yuv.CoeffBuffer) {
	w, h := 1<<uint(log2Width), 1<<uint(log2Height)
	mw := matrices[log2Width-MinLog2Size]
	mh := matrices[log2Height-MinLog2Size]
	shift2 := uint(invSecondShift - bitdepth)
	rnd1 := int64(1) << (invFirstShift - 1)
	rnd2 := int64(1) << (shift2 - 1)

	for x := 0; x < w; x++ {
		for j := 0; j < h; j++ {
			var sum int64
			for k := 0; k < h; k++ {
				if c := src.Data[k*src.Stride+x]; c != 0 {
					sum += int64(mh[k*h+j]) * int64(c)
				}
			}
			t.tmp[j*w+x] = int32(clip16((sum + rnd1) >> invFirstShift))
		}
	}
	for y := 0; y < h; y++ {
		row := t.tmp[y*w : y*w+w]
		for j := 0; j < w; j++ {
			var sum int64
			for k, r := range row {
				sum += int64(mw[k*w+j]) * int64(r)
			}
			dst.Data[y*dst.Stride+j] = clip16((sum + rnd2) >> shift2)
		}
	}
}

func clip16(v int64) yuv.Coeff {
	if v < math.MinInt16 {
		return math.MinInt16
	}
	if v > math.MaxInt16 {
		return math.MaxInt16
	}
	return yuv.Coeff(v)
}
