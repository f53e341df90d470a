package transform

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/xxthink/xvc/internal/yuv"
)

func newBlock(n int) yuv.CoeffBuffer {
	return yuv.CoeffBuffer{Data: make([]yuv.Coeff, n*n), Stride: n}
}

func TestBasisMatchesKnownRows(t *testing.T) {
	want4 := []int32{64, 64, 64, 64, 83, 36, -36, -83, 64, -64, -64, 64, 36, -83, 83, -36}
	for i, v := range want4 {
		if matrices[0][i] != v {
			t.Fatalf("4-point matrix[%d] = %d, want %d", i, matrices[0][i], v)
		}
	}
	want8 := []int32{89, 75, 50, 18, -18, -50, -75, -89}
	for i, v := range want8 {
		if matrices[1][8+i] != v {
			t.Fatalf("8-point row 1[%d] = %d, want %d", i, matrices[1][8+i], v)
		}
	}
}

func TestDCOnly(t *testing.T) {
	tr := New()
	for log2 := MinLog2Size; log2 <= MaxLog2Size; log2++ {
		n := 1 << uint(log2)
		t.Run(fmt.Sprintf("%dx%d", n, n), func(t *testing.T) {
			src, coeff, out := newBlock(n), newBlock(n), newBlock(n)
			for i := range src.Data {
				src.Data[i] = 37
			}
			tr.Forward(log2, log2, 8, src, coeff)
			for i, c := range coeff.Data[1:] {
				if c != 0 {
					t.Fatalf("AC coefficient %d = %d for a flat block", i+1, c)
				}
			}
			tr.Inverse(log2, log2, 8, coeff, out)
			for i, v := range out.Data {
				if v != 37 {
					t.Fatalf("sample %d = %d, want 37", i, v)
				}
			}
		})
	}
}

func TestRoundTrip(t *testing.T) {
	tr := New()
	rng := rand.New(rand.NewSource(7))
	for log2 := MinLog2Size; log2 <= MaxLog2Size; log2++ {
		n := 1 << uint(log2)
		t.Run(fmt.Sprintf("%dx%d", n, n), func(t *testing.T) {
			src, coeff, out := newBlock(n), newBlock(n), newBlock(n)
			for i := range src.Data {
				src.Data[i] = yuv.Coeff(rng.Intn(511) - 255)
			}
			tr.Forward(log2, log2, 8, src, coeff)
			tr.Inverse(log2, log2, 8, coeff, out)
			for i := range src.Data {
				d := int(out.Data[i]) - int(src.Data[i])
				if d < -10 || d > 10 {
					t.Fatalf("sample %d: got %d, want %d", i, out.Data[i], src.Data[i])
				}
			}
		})
	}
}

func TestInverseZero(t *testing.T) {
	tr := New()
	coeff, out := newBlock(16), newBlock(16)
	for i := range out.Data {
		out.Data[i] = 5
	}
	tr.Inverse(4, 4, 10, coeff, out)
	for i, v := range out.Data {
		if v != 0 {
			t.Fatalf("sample %d = %d, want 0", i, v)
		}
	}
}

func BenchmarkForward32(b *testing.B) {
	tr := New()
	src, dst := newBlock(32), newBlock(32)
	for i := range src.Data {
		src.Data[i] = yuv.Coeff(i%61 - 30)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		tr.Forward(5, 5, 8, src, dst)
	}
}
