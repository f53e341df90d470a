package xvc

import (
	"image"
	"image/color"
	"math"
	"testing"
)

func TestColorMatrix_String(t *testing.T) {
	tests := []struct {
		m    ColorMatrix
		want string
	}{
		{ColorMatrixUndefined, "Undefined"},
		{ColorMatrix601, "BT.601"},
		{ColorMatrix709, "BT.709"},
		{ColorMatrix2020, "BT.2020"},
		{ColorMatrix(7), "Unknown"},
	}

	for _, tt := range tests {
		if got := tt.m.String(); got != tt.want {
			t.Errorf("ColorMatrix(%d).String() = %q, want %q", tt.m, got, tt.want)
		}
	}
}

func TestYCbCrRoundTrip(t *testing.T) {
	colors := [][3]float64{
		{0, 0, 0},
		{255, 255, 255},
		{255, 0, 0},
		{0, 255, 0},
		{0, 0, 255},
		{12, 200, 99},
	}
	for _, m := range []ColorMatrix{ColorMatrix601, ColorMatrix709, ColorMatrix2020} {
		t.Run(m.String(), func(t *testing.T) {
			for _, c := range colors {
				y, cb, cr := rgbToYCbCr(m, c[0], c[1], c[2], 8)
				r, g, b := yCbCrToRGB(m, y, cb, cr, 8)
				if math.Abs(r-c[0]) > 1e-9 || math.Abs(g-c[1]) > 1e-9 || math.Abs(b-c[2]) > 1e-9 {
					t.Errorf("%v -> (%v %v %v) -> (%v %v %v)", c, y, cb, cr, r, g, b)
				}
			}
		})
	}
}

func TestNeutralGrayHasCenteredChroma(t *testing.T) {
	// Gray R=G=B=128 maps to Y=128 with Cb=Cr at the midpoint
	for _, m := range []ColorMatrix{ColorMatrix601, ColorMatrix709, ColorMatrix2020} {
		y, cb, cr := rgbToYCbCr(m, 128, 128, 128, 8)
		if math.Abs(y-128) > 1e-9 || math.Abs(cb-128) > 1e-9 || math.Abs(cr-128) > 1e-9 {
			t.Errorf("%v: gray -> (%v, %v, %v), want (128, 128, 128)", m, y, cb, cr)
		}
	}
}

func TestPictureFromImage(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(x * 16), G: uint8(y * 16), B: 128, A: 255})
		}
	}

	tests := []struct {
		name     string
		format   ChromaFormat
		bitdepth int
		tol      float64
	}{
		{"444 8 bit", Chroma444, 8, 2},
		{"444 10 bit", Chroma444, 10, 2},
		{"420 8 bit", Chroma420, 8, 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pic, err := PictureFromImage(img, tt.format, tt.bitdepth, ColorMatrix709)
			if err != nil {
				t.Fatalf("PictureFromImage() error = %v", err)
			}
			if pic.Width() != 16 || pic.Height() != 16 || pic.NumPlanes() != 3 {
				t.Fatalf("picture %dx%d with %d planes", pic.Width(), pic.Height(), pic.NumPlanes())
			}
			out := pic.Image(ColorMatrix709)
			for y := 0; y < 16; y++ {
				for x := 0; x < 16; x++ {
					r0, g0, b0, _ := img.At(x, y).RGBA()
					r1, g1, b1, _ := out.At(x, y).RGBA()
					for _, d := range []float64{
						float64(r0>>8) - float64(r1>>8),
						float64(g0>>8) - float64(g1>>8),
						float64(b0>>8) - float64(b1>>8),
					} {
						if math.Abs(d) > tt.tol {
							t.Fatalf("(%d,%d): %v/%v/%v -> %v/%v/%v", x, y, r0>>8, g0>>8, b0>>8, r1>>8, g1>>8, b1>>8)
						}
					}
				}
			}
		})
	}
}

func TestPictureImageTypes(t *testing.T) {
	tests := []struct {
		format   ChromaFormat
		bitdepth int
		want     string
	}{
		{ChromaMonochrome, 8, "*image.Gray"},
		{ChromaMonochrome, 12, "*image.Gray16"},
		{Chroma420, 8, "*image.RGBA"},
		{Chroma444, 10, "*image.RGBA64"},
	}
	for _, tt := range tests {
		img := NewPicture(8, 8, tt.format, tt.bitdepth).Image(ColorMatrix601)
		var got string
		switch img.(type) {
		case *image.Gray:
			got = "*image.Gray"
		case *image.Gray16:
			got = "*image.Gray16"
		case *image.RGBA:
			got = "*image.RGBA"
		case *image.RGBA64:
			got = "*image.RGBA64"
		}
		if got != tt.want {
			t.Errorf("%v %d bit: Image() is %s, want %s", tt.format, tt.bitdepth, got, tt.want)
		}
	}
}

func TestPictureFromImageGray(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 8, 8))
	img.SetGray(3, 4, color.Gray{Y: 200})
	pic, err := PictureFromImage(img, ChromaMonochrome, 8, ColorMatrixUndefined)
	if err != nil {
		t.Fatalf("PictureFromImage() error = %v", err)
	}
	if got := pic.Plane(0)[4*8+3]; got != 200 {
		t.Errorf("sample = %d, want 200", got)
	}
	back := pic.Image(ColorMatrixUndefined).(*image.Gray)
	if back.GrayAt(3, 4).Y != 200 || back.GrayAt(0, 0).Y != 0 {
		t.Errorf("gray round trip lost samples")
	}
}

func TestPictureFromImageRejects(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 8, 8))
	if _, err := PictureFromImage(img, Chroma422, 8, ColorMatrix709); err == nil {
		t.Error("4:2:2 accepted")
	}
	if _, err := PictureFromImage(img, Chroma420, 17, ColorMatrix709); err == nil {
		t.Error("17 bit accepted")
	}
}

func TestClampToInt32(t *testing.T) {
	tests := []struct {
		v, min, max float64
		want        int32
	}{
		{-5, 0, 255, 0},
		{300, 0, 255, 255},
		{127.4, 0, 255, 127},
		{127.5, 0, 255, 128},
	}
	for _, tt := range tests {
		if got := clampToInt32(tt.v, tt.min, tt.max); got != tt.want {
			t.Errorf("clampToInt32(%v, %v, %v) = %d, want %d", tt.v, tt.min, tt.max, got, tt.want)
		}
	}
}
