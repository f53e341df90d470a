package quant

import (
	"math"
	"testing"

	"github.com/xxthink/xvc/internal/yuv"
)

func TestChromaQPMonotonic420(t *testing.T) {
	prev := -1
	for qp := 0; qp <= ChromaQpMax; qp++ {
		got := ChromaQP(qp, yuv.Chroma420, 8)
		if got < prev {
			t.Fatalf("ChromaQP(%d) = %d, below ChromaQP(%d) = %d", qp, got, qp-1, prev)
		}
		prev = got
	}
	if got := ChromaQP(ChromaQpMax, yuv.Chroma420, 8); got != 51 {
		t.Errorf("ChromaQP(57) = %d, want 51", got)
	}
}

func TestChromaQPPassthrough(t *testing.T) {
	formats := []yuv.ChromaFormat{yuv.Monochrome, yuv.Chroma422, yuv.Chroma444}
	for _, f := range formats {
		t.Run(f.String(), func(t *testing.T) {
			for qp := -10; qp <= 70; qp++ {
				want := clip(qp, 0, ChromaQpMax)
				if got := ChromaQP(qp, f, 8); got != want {
					t.Errorf("ChromaQP(%d) = %d, want %d", qp, got, want)
				}
			}
		})
	}
}

func TestChromaDistWeight(t *testing.T) {
	if w := ChromaDistWeight(20, yuv.Chroma420); w != 1 {
		t.Errorf("weight at qp 20 = %v, want 1", w)
	}
	// qp 40 maps to 36: offset -4.
	want := math.Pow(2, 4.0/3)
	if w := ChromaDistWeight(40, yuv.Chroma420); math.Abs(w-want) > 1e-12 {
		t.Errorf("weight at qp 40 = %v, want %v", w, want)
	}
	if w := ChromaDistWeight(40, yuv.Chroma444); w != 1 {
		t.Errorf("4:4:4 weight = %v, want 1", w)
	}
}

func TestLambda(t *testing.T) {
	tests := []struct {
		name       string
		qp         int
		picType    PicType
		subGop     int
		temporalID int
		want       float64
	}{
		{"intra qp 27", 27, PicTypeIntra, 1, 0, 0.57 * 32},
		{"inter qp 27", 27, PicTypeUni, 1, 0, 32},
		{"intra long gop", 24, PicTypeIntra, 8, 0, 0.57 * 0.65 * 16},
		{"deep temporal layer", 36, PicTypeBi, 8, 2, 4 * 256},
		{"low qp gop factor clip", 18, PicTypeBi, 8, 1, 2 * 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Lambda(tt.qp, tt.picType, tt.subGop, tt.temporalID)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Lambda = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestQPScaling(t *testing.T) {
	q := New(30, yuv.Chroma420, PicTypeUni, 10, 1, 0, 0)
	if q.Raw(yuv.Y) != 30 || q.Raw(yuv.U) != 29 || q.Raw(yuv.V) != 29 {
		t.Errorf("raw = %d %d %d, want 30 29 29", q.Raw(yuv.Y), q.Raw(yuv.U), q.Raw(yuv.V))
	}
	if q.Scaled(yuv.Y) != 42 {
		t.Errorf("scaled luma = %d, want 42", q.Scaled(yuv.Y))
	}
	if q.Per(yuv.Y) != 7 || q.FwdScale(yuv.Y) != 26214 || q.InvScale(yuv.Y) != 40<<7 {
		t.Errorf("per/fwd/inv = %d/%d/%d", q.Per(yuv.Y), q.FwdScale(yuv.Y), q.InvScale(yuv.Y))
	}
	if math.Abs(q.LambdaSqrt()*q.LambdaSqrt()-q.Lambda()) > 1e-9 {
		t.Error("LambdaSqrt is not the root of Lambda")
	}
}

func TestForwardZero(t *testing.T) {
	q := New(32, yuv.Chroma420, PicTypeIntra, 8, 1, 0, 0)
	in := yuv.CoeffBuffer{Data: make([]yuv.Coeff, 64), Stride: 8}
	out := yuv.CoeffBuffer{Data: make([]yuv.Coeff, 64), Stride: 8}
	for i := range out.Data {
		out.Data[i] = 99
	}
	shift := ForwardShift(q, yuv.Y, 8, 3)
	n := Forward(yuv.Y, q, shift, ForwardOffset(shift, true), 8, 8, in, out)
	if n != 0 {
		t.Errorf("non-zero count = %d, want 0", n)
	}
	for i, v := range out.Data {
		if v != 0 {
			t.Fatalf("out[%d] = %d, want 0", i, v)
		}
	}
}

func TestInverseForwardWithinStep(t *testing.T) {
	const bitdepth = 8
	for _, qpVal := range []int{0, 12, 22, 37, 51} {
		for _, log2Size := range []int{2, 3, 5, 6} {
			for _, intra := range []bool{true, false} {
				q := New(qpVal, yuv.Chroma420, PicTypeIntra, bitdepth, 1, 0, 0)
				fwdShift := ForwardShift(q, yuv.Y, bitdepth, log2Size)
				invShift := InverseShift(bitdepth, log2Size)
				step := float64(q.InvScale(yuv.Y)) / float64(int(1)<<uint(invShift))
				in := yuv.CoeffBuffer{Data: make([]yuv.Coeff, 1), Stride: 1}
				lvl := yuv.CoeffBuffer{Data: make([]yuv.Coeff, 1), Stride: 1}
				rec := yuv.CoeffBuffer{Data: make([]yuv.Coeff, 1), Stride: 1}
				for x := -32768; x <= 32767; x += 97 {
					in.Data[0] = yuv.Coeff(x)
					Forward(yuv.Y, q, fwdShift, ForwardOffset(fwdShift, intra), 1, 1, in, lvl)
					Inverse(yuv.Y, q, invShift, 1, 1, lvl, rec)
					if d := math.Abs(float64(int(rec.Data[0]) - x)); d > step+1 {
						t.Fatalf("qp %d size %d: x=%d rec=%d, error %v exceeds step %v",
							qpVal, 1<<uint(log2Size), x, rec.Data[0], d, step)
					}
				}
			}
		}
	}
}
