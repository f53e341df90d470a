// Color conversion between Picture and image.Image
//
// Pictures carry Y'CbCr samples at the picture bit depth. The segment header
// signals which matrix produced them; the conversions in this file apply
// that matrix in both directions using full-range samples, with Cb and Cr
// centered at half the sample range.
//
// # Supported Matrices
//
//   - ColorMatrix601: ITU-R BT.601 (Kr 0.299, Kb 0.114)
//   - ColorMatrix709: ITU-R BT.709 (Kr 0.2126, Kb 0.0722)
//   - ColorMatrix2020: ITU-R BT.2020 non-constant luminance (Kr 0.2627, Kb 0.0593)
//
// ColorMatrixUndefined converts like ColorMatrix709.
//
// # Subsampling
//
// 4:2:0 chroma is produced by averaging each 2x2 block and expanded again by
// sample repetition. Monochrome pictures map to image.Gray or image.Gray16.

package xvc

import (
	"image"
	"image/color"

	"github.com/pkg/errors"

	"github.com/xxthink/xvc/internal/yuv"
)

// ColorMatrix identifies the RGB to Y'CbCr matrix of the source material.
// The values are the 3-bit codes of the segment header.
type ColorMatrix int

const (
	// ColorMatrixUndefined leaves the matrix unspecified.
	ColorMatrixUndefined ColorMatrix = iota
	// ColorMatrix601 is ITU-R BT.601.
	ColorMatrix601
	// ColorMatrix709 is ITU-R BT.709.
	ColorMatrix709
	// ColorMatrix2020 is ITU-R BT.2020.
	ColorMatrix2020
)

// String returns the string representation of the matrix.
func (m ColorMatrix) String() string {
	switch m {
	case ColorMatrixUndefined:
		return "Undefined"
	case ColorMatrix601:
		return "BT.601"
	case ColorMatrix709:
		return "BT.709"
	case ColorMatrix2020:
		return "BT.2020"
	default:
		return "Unknown"
	}
}

// coefficients returns the red and blue luma weights of m.
func (m ColorMatrix) coefficients() (kr, kb float64) {
	switch m {
	case ColorMatrix601:
		return 0.299, 0.114
	case ColorMatrix2020:
		return 0.2627, 0.0593
	default:
		return 0.2126, 0.0722
	}
}

// rgbToYCbCr converts one full-range RGB triple at precision bits.
func rgbToYCbCr(m ColorMatrix, r, g, b float64, precision int) (y, cb, cr float64) {
	kr, kb := m.coefficients()
	kg := 1 - kr - kb
	halfVal := float64(int32(1) << (precision - 1))
	y = kr*r + kg*g + kb*b
	cb = (b-y)/(2*(1-kb)) + halfVal
	cr = (r-y)/(2*(1-kr)) + halfVal
	return y, cb, cr
}

// yCbCrToRGB is the inverse of rgbToYCbCr.
func yCbCrToRGB(m ColorMatrix, y, cb, cr float64, precision int) (r, g, b float64) {
	kr, kb := m.coefficients()
	kg := 1 - kr - kb
	halfVal := float64(int32(1) << (precision - 1))
	cb -= halfVal
	cr -= halfVal
	r = y + 2*(1-kr)*cr
	b = y + 2*(1-kb)*cb
	g = (y - kr*r - kb*b) / kg
	return r, g, b
}

// PictureFromImage converts img into a picture of the given format and bit
// depth using matrix m.
func PictureFromImage(img image.Image, format ChromaFormat, bitdepth int, m ColorMatrix) (*Picture, error) {
	switch format {
	case ChromaMonochrome, Chroma420, Chroma444:
	default:
		return nil, errors.Errorf("xvc: unsupported chroma format %v", format)
	}
	if bitdepth < 8 || bitdepth > 16 {
		return nil, errors.Errorf("xvc: unsupported bitdepth %d", bitdepth)
	}
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	pic := yuv.NewPicture(width, height, format, bitdepth)
	maxVal := float64(int32(1)<<bitdepth - 1)
	scale := maxVal / 0xffff

	// Full resolution Y'CbCr first, subsampled afterwards.
	planes := [yuv.MaxComponents][]float64{}
	numPlanes := format.NumComponents()
	for c := 0; c < numPlanes; c++ {
		planes[c] = make([]float64, width*height)
	}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			idx := y*width + x
			if numPlanes == 1 {
				gray := color.Gray16Model.Convert(color.RGBA64{R: uint16(r), G: uint16(g), B: uint16(b), A: 0xffff})
				planes[0][idx] = float64(gray.(color.Gray16).Y) * scale
				continue
			}
			planes[0][idx], planes[1][idx], planes[2][idx] =
				rgbToYCbCr(m, float64(r)*scale, float64(g)*scale, float64(b)*scale, bitdepth)
		}
	}

	for c := 0; c < numPlanes; c++ {
		comp := yuv.Component(c)
		sx, sy := format.ShiftX(comp), format.ShiftY(comp)
		buf := pic.Buffer(comp, 0, 0)
		for y := 0; y < pic.Height(comp); y++ {
			for x := 0; x < pic.Width(comp); x++ {
				var sum float64
				n := 0
				for dy := 0; dy < 1<<uint(sy); dy++ {
					for dx := 0; dx < 1<<uint(sx); dx++ {
						px, py := x<<uint(sx)+dx, y<<uint(sy)+dy
						if px < width && py < height {
							sum += planes[c][py*width+px]
							n++
						}
					}
				}
				buf.Set(x, y, yuv.Sample(clampToInt32(sum/float64(n), 0, maxVal)))
			}
		}
	}
	return wrapPicture(pic), nil
}

// Image converts p to an image.Image using matrix m. Monochrome pictures
// become *image.Gray or *image.Gray16, others *image.RGBA or
// *image.RGBA64 depending on the bit depth.
func (p *Picture) Image(m ColorMatrix) image.Image {
	width, height := p.Width(), p.Height()
	rect := image.Rect(0, 0, width, height)
	precision := p.Bitdepth()
	maxVal := float64(int32(1)<<precision - 1)
	src := p.pic
	format := src.ChromaFormat()

	if format == ChromaMonochrome {
		if precision == 8 {
			out := image.NewGray(rect)
			for y := 0; y < height; y++ {
				for x := 0; x < width; x++ {
					out.SetGray(x, y, color.Gray{Y: uint8(src.At(yuv.Y, x, y))})
				}
			}
			return out
		}
		out := image.NewGray16(rect)
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				v := float64(src.At(yuv.Y, x, y)) * 0xffff / maxVal
				out.SetGray16(x, y, color.Gray16{Y: uint16(clampToInt32(v, 0, 0xffff))})
			}
		}
		return out
	}

	sx, sy := format.ShiftX(yuv.U), format.ShiftY(yuv.U)
	sample := func(x, y int) (r, g, b float64) {
		luma := float64(src.At(yuv.Y, x, y))
		cb := float64(src.At(yuv.U, x>>uint(sx), y>>uint(sy)))
		cr := float64(src.At(yuv.V, x>>uint(sx), y>>uint(sy)))
		return yCbCrToRGB(m, luma, cb, cr, precision)
	}
	if precision == 8 {
		out := image.NewRGBA(rect)
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				r, g, b := sample(x, y)
				out.SetRGBA(x, y, color.RGBA{
					R: uint8(clampToInt32(r, 0, maxVal)),
					G: uint8(clampToInt32(g, 0, maxVal)),
					B: uint8(clampToInt32(b, 0, maxVal)),
					A: 0xff,
				})
			}
		}
		return out
	}
	out := image.NewRGBA64(rect)
	scale := 0xffff / maxVal
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r, g, b := sample(x, y)
			out.SetRGBA64(x, y, color.RGBA64{
				R: uint16(clampToInt32(r*scale, 0, 0xffff)),
				G: uint16(clampToInt32(g*scale, 0, 0xffff)),
				B: uint16(clampToInt32(b*scale, 0, 0xffff)),
				A: 0xffff,
			})
		}
	}
	return out
}

// clampToInt32 clamps v to [min, max] and rounds to the nearest integer.
func clampToInt32(v, min, max float64) int32 {
	if v < min {
		return int32(min)
	}
	if v > max {
		return int32(max)
	}
	return int32(v + 0.5) // Round
}
